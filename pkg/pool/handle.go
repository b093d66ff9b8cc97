package pool

import "fixedtree/pkg/page"

// PageHandle is a pinned reference to a resident page. While any handle for
// an offset is outstanding, the pool will not evict that page to make room
// for another. Callers must call Release when done.
type PageHandle struct {
	pool  *BufferPool
	entry *entry
}

// Page returns the underlying leaf page. The pointer is only valid while the
// handle is held.
func (h *PageHandle) Page() *page.LeafPage { return h.entry.page }

// Offset returns the page's byte offset in the page file.
func (h *PageHandle) Offset() uint64 { return h.entry.offset }

// Release unpins the page. It is safe to call exactly once per handle
// returned by GetPage/GetNewPage.
func (h *PageHandle) Release() {
	if h.entry.refs > 0 {
		h.entry.refs--
	}
}
