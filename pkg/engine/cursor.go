package engine

import (
	"fmt"
	"log"

	"fixedtree/pkg/common"
	"fixedtree/pkg/page"
)

// Cursor names a single record's position: the byte offset of the leaf
// that holds it and the slot within that leaf. The zero Cursor is the End
// sentinel — offset 0 is the page file's header and is never a leaf, so it
// doubles safely as "no such position."
type Cursor struct {
	offset uint64
	slot   page.Slot
}

// End returns the sentinel cursor one past the last record in key order.
func (e *Engine) End() Cursor { return Cursor{} }

// IsEnd reports whether c is the End sentinel.
func (c Cursor) IsEnd() bool { return c.offset == 0 }

// Begin returns a cursor to the smallest live record, or End if the engine
// holds no records.
func (e *Engine) Begin() Cursor {
	ref, _, ok := e.tree.FindPage(nil)
	if !ok || !ref.IsReal() {
		return e.End()
	}
	return e.firstCursorIn(e.offsetOf(ref.Index()))
}

func (e *Engine) firstCursorIn(offset uint64) Cursor {
	h, err := e.pool.GetPage(offset, nil)
	if err != nil {
		log.Printf("engine[%s]: firstCursorIn: %v", e.id, err)
		return e.End()
	}
	defer h.Release()
	slot := h.Page().Min()
	if slot == h.Page().End() {
		return e.End()
	}
	return Cursor{offset: offset, slot: slot}
}

// Record dereferences c, returning a copy of the record it names.
func (e *Engine) Record(c Cursor) (common.Record, error) {
	if c.IsEnd() {
		return nil, fmt.Errorf("engine: cannot dereference End cursor")
	}
	h, err := e.pool.GetPage(c.offset, nil)
	if err != nil {
		return nil, err
	}
	defer h.Release()
	if !h.Page().Valid(c.slot) {
		return nil, fmt.Errorf("engine: cursor refers to an erased slot")
	}
	return h.Page().RecordAt(c.slot), nil
}

// Next advances c to its in-order successor, crossing leaf boundaries via
// NextOffset as needed. Returns End once there is nothing further.
func (e *Engine) Next(c Cursor) Cursor {
	if c.IsEnd() {
		return c
	}
	h, err := e.pool.GetPage(c.offset, nil)
	if err != nil {
		log.Printf("engine[%s]: Next: %v", e.id, err)
		return e.End()
	}
	lp := h.Page()
	for i := c.slot + 1; int(i) < lp.Layout().RecordCount; i++ {
		if lp.Valid(i) {
			h.Release()
			return Cursor{offset: c.offset, slot: i}
		}
	}
	nextOffset := lp.NextOffset()
	h.Release()
	if nextOffset == page.NilOffset {
		return e.End()
	}
	return e.firstCursorIn(nextOffset)
}
