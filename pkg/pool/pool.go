// Package pool implements the BufferPool: a bounded LRU cache of resident
// leaf pages keyed by byte offset, and the allocator of page slots in the
// page file. It is the sole writer of leaf-page regions — the index tree
// never touches page bytes directly.
package pool

import (
	"container/list"
	"errors"
	"fmt"
	"log"
	"os"

	"fixedtree/pkg/page"
)

// ErrPoolExhausted is returned by GetPage when every resident page is pinned
// (at least one outstanding handle) and eviction cannot make room.
var ErrPoolExhausted = errors.New("pool: exhausted, all resident pages pinned")

type entry struct {
	offset uint64
	page   *page.LeafPage
	refs   int
}

// BufferPool is a bounded LRU cache of LeafPage handles, keyed by byte
// offset in the page file. It also owns allocation of new page slots and
// the free-list of discarded ones.
type BufferPool struct {
	file     *os.File
	layout   page.Layout
	maxPages int

	lru      *list.List // front = most recently used
	byOffset map[uint64]*list.Element

	emptyPagesStart uint64
	discarded       []uint64
}

// Open opens (creating if absent) the page file at path and returns a
// BufferPool over it. A freshly created file gets a header whose
// empty_pages_start is exactly one page past the header itself.
func Open(path string, layout page.Layout, maxPages int) (*BufferPool, error) {
	if maxPages < 4 {
		return nil, fmt.Errorf("pool: max_pages must be >= 4, got %d", maxPages)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("pool: open %s: %w", path, err)
	}

	bp := &BufferPool{
		file:     file,
		layout:   layout,
		maxPages: maxPages,
		lru:      list.New(),
		byOffset: make(map[uint64]*list.Element),
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("pool: stat %s: %w", path, err)
	}

	if info.Size() == 0 {
		bp.emptyPagesStart = uint64(layout.PageSize)
		if err := file.Truncate(int64(layout.PageSize)); err != nil {
			file.Close()
			return nil, fmt.Errorf("pool: truncate fresh header page: %w", err)
		}
		if err := bp.writeHeader(); err != nil {
			file.Close()
			return nil, err
		}
		return bp, nil
	}

	if err := bp.readHeader(); err != nil {
		file.Close()
		return nil, err
	}
	return bp, nil
}

// GetPage returns a handle to the resident (or freshly loaded) page at
// offset. If nextHint is non-nil, no disk read happens: a fresh zeroed page
// is constructed in memory with that next-offset, the allocation path used
// by GetNewPage. Eviction, when required, skips any page pinned by an
// outstanding handle; if none is evictable, returns ErrPoolExhausted.
func (bp *BufferPool) GetPage(offset uint64, nextHint *uint64) (*PageHandle, error) {
	if el, ok := bp.byOffset[offset]; ok {
		bp.lru.MoveToFront(el)
		e := el.Value.(*entry)
		e.refs++
		return &PageHandle{pool: bp, entry: e}, nil
	}

	if bp.lru.Len() >= bp.maxPages {
		if err := bp.evictOne(); err != nil {
			return nil, err
		}
	}

	var lp *page.LeafPage
	if nextHint != nil {
		lp = page.NewEmpty(bp.layout, offset, *nextHint)
	} else {
		loaded, err := page.ReadFrom(bp.file, bp.layout, offset)
		if err != nil {
			return nil, err
		}
		lp = loaded
	}

	e := &entry{offset: offset, page: lp, refs: 1}
	el := bp.lru.PushFront(e)
	bp.byOffset[offset] = el
	return &PageHandle{pool: bp, entry: e}, nil
}

// evictOne removes the least-recently-used unpinned page, flushing it to
// disk first. Scans from the cold end, skipping pinned entries.
func (bp *BufferPool) evictOne() error {
	for el := bp.lru.Back(); el != nil; el = el.Prev() {
		e := el.Value.(*entry)
		if e.refs > 0 {
			continue
		}
		if err := e.page.Flush(bp.file); err != nil {
			return fmt.Errorf("pool: evict offset %d: %w", e.offset, err)
		}
		bp.lru.Remove(el)
		delete(bp.byOffset, e.offset)
		return nil
	}
	return ErrPoolExhausted
}

// GetNewPage allocates a fresh page slot — preferring the empty-pages
// frontier, then the discarded free-list, then growing the file — and
// returns a handle to a freshly constructed, zeroed page chained to
// nextHint.
func (bp *BufferPool) GetNewPage(nextHint uint64) (*PageHandle, uint64, error) {
	info, err := bp.file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("pool: stat: %w", err)
	}

	var offset uint64
	switch {
	case bp.emptyPagesStart+uint64(bp.layout.PageSize) <= uint64(info.Size()):
		offset = bp.emptyPagesStart
		bp.emptyPagesStart += uint64(bp.layout.PageSize)
	case len(bp.discarded) > 0:
		offset = bp.discarded[len(bp.discarded)-1]
		bp.discarded = bp.discarded[:len(bp.discarded)-1]
	default:
		offset = uint64(info.Size())
		if err := bp.file.Truncate(int64(offset) + int64(bp.layout.PageSize)); err != nil {
			return nil, 0, fmt.Errorf("pool: grow page file: %w", err)
		}
		bp.emptyPagesStart = offset + uint64(bp.layout.PageSize)
	}

	h, err := bp.GetPage(offset, &nextHint)
	if err != nil {
		return nil, 0, err
	}
	return h, offset, nil
}

// DiscardPage removes offset from residency (if resident, without flushing
// its now-irrelevant contents back to disk) and returns the slot to either
// the empty-pages frontier, if contiguous with its tail, or the discarded
// free-list otherwise.
func (bp *BufferPool) DiscardPage(offset uint64) {
	if el, ok := bp.byOffset[offset]; ok {
		bp.lru.Remove(el)
		delete(bp.byOffset, offset)
	}

	if offset+uint64(bp.layout.PageSize) == bp.emptyPagesStart {
		bp.emptyPagesStart = offset
	} else {
		bp.discarded = append(bp.discarded, offset)
	}
}

// QueryPage reports whether offset currently has a resident page. Diagnostic
// only.
func (bp *BufferPool) QueryPage(offset uint64) bool {
	_, ok := bp.byOffset[offset]
	return ok
}

// Layout returns the pool's page layout.
func (bp *BufferPool) Layout() page.Layout { return bp.layout }

// Close flushes every resident page and the header, then closes the
// underlying file. Any page still pinned by an outstanding handle is
// flushed anyway and logged, since the engine that owns those handles is
// itself going away.
func (bp *BufferPool) Close() error {
	for el := bp.lru.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		if e.refs > 0 {
			log.Printf("pool: closing with page at offset %d still pinned (refs=%d)", e.offset, e.refs)
		}
		if err := e.page.Flush(bp.file); err != nil {
			return fmt.Errorf("pool: close flush offset %d: %w", e.offset, err)
		}
	}
	if err := bp.writeHeader(); err != nil {
		return err
	}
	return bp.file.Close()
}
