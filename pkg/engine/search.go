package engine

import (
	"bytes"

	"fixedtree/pkg/common"
	"fixedtree/pkg/page"
)

// Search returns a cursor to the slot holding an exact match for record's
// key, or End if no such record exists.
func (e *Engine) Search(record common.Record) (Cursor, error) {
	e.stats.recordRead()
	if err := e.checkRecord(record); err != nil {
		return e.End(), err
	}
	ref, _, ok := e.tree.FindPage(record[:e.cfg.KeySize])
	if !ok || !ref.IsReal() {
		return e.End(), nil
	}

	offset := e.offsetOf(ref.Index())
	h, err := e.pool.GetPage(offset, nil)
	if err != nil {
		return e.End(), err
	}
	defer h.Release()

	lp := h.Page()
	key := record[:e.cfg.KeySize]
	slot := lp.SearchLB(key)
	if !lp.Valid(slot) || !bytes.Equal(lp.RecordAt(slot)[:e.cfg.KeySize], key) {
		return e.End(), nil
	}
	return Cursor{offset: offset, slot: slot}, nil
}

// SearchLB returns a cursor to the first record whose key is >= key, or
// End if none exists.
func (e *Engine) SearchLB(key common.Key) (Cursor, error) {
	e.stats.recordRead()
	return e.searchBound(key, false)
}

// SearchUB returns a cursor to the first record whose key is > key, or End
// if none exists.
func (e *Engine) SearchUB(key common.Key) (Cursor, error) {
	e.stats.recordRead()
	return e.searchBound(key, true)
}

func (e *Engine) searchBound(key common.Key, upper bool) (Cursor, error) {
	if len(key) != e.cfg.KeySize {
		return e.End(), ErrInvalidArgument
	}
	ref, _, ok := e.tree.FindPage(key)
	if !ok || !ref.IsReal() {
		return e.Begin(), nil
	}

	offset := e.offsetOf(ref.Index())
	h, err := e.pool.GetPage(offset, nil)
	if err != nil {
		return e.End(), err
	}
	lp := h.Page()

	slot := lp.SearchLB(key)
	if upper {
		slot = lp.SearchUB(key)
	}

	if lp.Valid(slot) {
		h.Release()
		return Cursor{offset: offset, slot: slot}, nil
	}

	// Bound lands past this leaf's occupied slots; the answer, if any, is
	// the first record of the leaf chained after it.
	nextOffset := lp.NextOffset()
	h.Release()
	if nextOffset == page.NilOffset {
		return e.End(), nil
	}
	return e.firstCursorIn(nextOffset), nil
}
