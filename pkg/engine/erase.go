package engine

import (
	"bytes"
	"log"

	"fixedtree/pkg/common"
	"fixedtree/pkg/index"
	"fixedtree/pkg/page"
)

// Erase removes the record matching record's key (the first match, in
// multiset mode) and returns a cursor to its in-order successor, or End if
// no successor follows — and End, with no error, if no matching record
// existed at all.
func (e *Engine) Erase(record common.Record) (Cursor, error) {
	e.stats.recordWrite()
	if err := e.checkRecord(record); err != nil {
		return e.End(), err
	}
	key := record[:e.cfg.KeySize]

	ref, sepKey, ok := e.tree.FindPage(key)
	if !ok || !ref.IsReal() {
		return e.End(), nil
	}

	offset := e.offsetOf(ref.Index())
	h, err := e.pool.GetPage(offset, nil)
	if err != nil {
		return e.End(), err
	}
	lp := h.Page()

	slot := lp.SearchLB(key)
	if !lp.Valid(slot) || !bytes.Equal(lp.RecordAt(slot)[:e.cfg.KeySize], key) {
		h.Release()
		return e.End(), nil
	}
	erasedKey := append(common.Key{}, lp.RecordAt(slot)[:e.cfg.KeySize]...)
	h.Release()

	if err := e.eraseSlot(offset, ref, sepKey, slot); err != nil {
		return e.End(), err
	}
	// The erased record was the first with its key, so any equal-keyed
	// records left behind follow it: the lower bound is its successor.
	return e.searchBound(erasedKey, false)
}

// EraseAt removes the record at cursor c, returning a cursor to its
// in-order successor or End.
func (e *Engine) EraseAt(c Cursor) (Cursor, error) {
	e.stats.recordWrite()
	if c.IsEnd() {
		return e.End(), ErrInvalidArgument
	}
	ref := index.Real(e.pageIndexOf(c.offset))
	sepKey, ok := e.tree.FindSeparatorByRef(ref)
	if !ok {
		return e.End(), ErrInvalidArgument
	}

	h, err := e.pool.GetPage(c.offset, nil)
	if err != nil {
		return e.End(), err
	}
	if !h.Page().Valid(c.slot) {
		h.Release()
		return e.End(), ErrInvalidArgument
	}
	erasedKey := append(common.Key{}, h.Page().RecordAt(c.slot)[:e.cfg.KeySize]...)
	h.Release()

	if err := e.eraseSlot(c.offset, ref, sepKey, c.slot); err != nil {
		return e.End(), err
	}
	return e.searchBound(erasedKey, true)
}

// eraseSlot clears slot on the leaf at offset, fixes up the leaf's
// separator key if the erased record was its minimum, and rebalances
// against the right sibling (or demotes the sentinel) if the leaf has
// dropped below its occupancy floor.
func (e *Engine) eraseSlot(offset uint64, ref index.PageRef, sepKey []byte, slot page.Slot) error {
	h, err := e.pool.GetPage(offset, nil)
	if err != nil {
		return err
	}
	lp := h.Page()
	wasMin := slot == lp.Min()

	lp.EraseAt(slot)
	e.size--

	if lp.Size() == 0 {
		h.Release()
		return e.handleEmptyLeaf(offset, ref, sepKey)
	}

	isSentinel := len(sepKey) == 0
	if wasMin && !isSentinel {
		newMin := lp.RecordAt(lp.Min())
		e.tree.UpdateSeparatorKey(sepKey, ref, append(common.Key{}, newMin[:e.cfg.KeySize]...))
	}

	underflowed := lp.Size() < lp.Layout().RecordCount/2
	nextOffset := lp.NextOffset()
	h.Release()

	if underflowed && nextOffset != page.NilOffset {
		return e.rebalanceWithRight(offset, ref, sepKey, nextOffset)
	}
	return nil
}

// handleEmptyLeaf runs when an erase leaves a leaf with zero records. The
// sole sentinel leaf (no right sibling, nothing else in the tree) is
// demoted back to Placeholder and its page freed; any other empty leaf is
// merged into its right sibling if one exists, or left as an empty,
// still-indexed leaf otherwise — a known limitation of the forward-only
// leaf chain: an empty rightmost non-sentinel leaf has no sibling to fold
// into.
func (e *Engine) handleEmptyLeaf(offset uint64, ref index.PageRef, sepKey []byte) error {
	h, err := e.pool.GetPage(offset, nil)
	if err != nil {
		return err
	}
	nextOffset := h.Page().NextOffset()
	h.Release()

	isSentinel := len(sepKey) == 0

	if nextOffset == page.NilOffset {
		if isSentinel {
			e.pool.DiscardPage(offset)
			e.tree.DemoteSentinel(ref)
			log.Printf("engine[%s]: erased last record, sentinel demoted to placeholder", e.id)
		}
		return nil
	}

	e.stats.recordMerge()
	return e.mergeRightSiblingInto(offset, ref, sepKey, nextOffset)
}

// rebalanceWithRight restores the occupancy floor for the leaf at offset,
// which has dropped below RecordCount/2, by either merging its right
// sibling into it or borrowing a prefix of records from it.
func (e *Engine) rebalanceWithRight(offset uint64, ref index.PageRef, sepKey []byte, rightOffset uint64) error {
	h, err := e.pool.GetPage(offset, nil)
	if err != nil {
		return err
	}
	rh, err := e.pool.GetPage(rightOffset, nil)
	if err != nil {
		h.Release()
		return err
	}
	left, right := h.Page(), rh.Page()

	if left.Size()+right.Size() <= left.Layout().RecordCount {
		h.Release()
		rh.Release()
		e.stats.recordMerge()
		return e.mergeRightSiblingInto(offset, ref, sepKey, rightOffset)
	}

	rightRef := index.Real(e.pageIndexOf(rightOffset))
	rightSepKey, ok := e.tree.FindSeparatorByRef(rightRef)
	if !ok {
		h.Release()
		rh.Release()
		return nil
	}

	newRightMin, err := left.BorrowFrom(right)
	h.Release()
	rh.Release()
	if err != nil {
		return err
	}
	e.tree.UpdateSeparatorKey(rightSepKey, rightRef, append(common.Key{}, newRightMin[:e.cfg.KeySize]...))
	e.stats.recordBorrow()
	log.Printf("engine[%s]: borrowed across offsets %d/%d to restore occupancy floor", e.id, offset, rightOffset)
	return nil
}

// mergeRightSiblingInto folds the leaf at rightOffset into the leaf at
// offset, removes the right leaf's separator from the index, and returns
// its page to the buffer pool's free list.
func (e *Engine) mergeRightSiblingInto(offset uint64, ref index.PageRef, sepKey []byte, rightOffset uint64) error {
	rightRef := index.Real(e.pageIndexOf(rightOffset))
	rightSepKey, ok := e.tree.FindSeparatorByRef(rightRef)
	if !ok {
		return nil
	}

	h, err := e.pool.GetPage(offset, nil)
	if err != nil {
		return err
	}
	rh, err := e.pool.GetPage(rightOffset, nil)
	if err != nil {
		h.Release()
		return err
	}

	if err := h.Page().MergeWith(rh.Page()); err != nil {
		h.Release()
		rh.Release()
		return err
	}
	h.Release()
	rh.Release()

	if !e.tree.ErasePage(rightSepKey, rightRef) {
		log.Printf("engine[%s]: merge completed but separator %x/%v was already gone", e.id, rightSepKey, rightRef)
	}
	e.pool.DiscardPage(rightOffset)
	log.Printf("engine[%s]: merged offset %d into %d, left with separator %x", e.id, rightOffset, offset, sepKey)
	return nil
}
