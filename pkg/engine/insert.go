package engine

import (
	"fmt"
	"log"

	"fixedtree/pkg/common"
	"fixedtree/pkg/index"
	"fixedtree/pkg/page"
)

// Insert places record into the engine. If the engine is in set mode and a
// record with an equal key already exists, Insert reports (cursor to the
// existing record, false) and adds no record; if the target leaf was full, it
// has been split before the duplicate is detected. Otherwise it inserts
// and reports (cursor to the new record, true), splitting the target leaf
// first if it was full.
func (e *Engine) Insert(record common.Record) (Cursor, bool, error) {
	e.stats.recordWrite()
	if err := e.checkRecord(record); err != nil {
		return e.End(), false, err
	}
	key := record[:e.cfg.KeySize]

	if e.tree.Len() == 0 {
		return e.insertFirstEver(record)
	}

	ref, _, ok := e.tree.FindPage(key)
	if !ok {
		return e.End(), false, fmt.Errorf("engine: no separator covers key %x (corrupt index)", key)
	}
	if !ref.IsReal() {
		return e.insertIntoRevivedSentinel(record)
	}

	return e.insertIntoLeaf(ref.Index(), record)
}

func (e *Engine) insertFirstEver(record common.Record) (Cursor, bool, error) {
	h, offset, err := e.pool.GetNewPage(page.NilOffset)
	if err != nil {
		return e.End(), false, err
	}
	slot, _ := h.Page().Insert(record, true)
	h.Release()

	e.tree.InitializePages(e.pageIndexOf(offset))
	e.size++
	return Cursor{offset: offset, slot: slot}, true, nil
}

func (e *Engine) insertIntoRevivedSentinel(record common.Record) (Cursor, bool, error) {
	h, offset, err := e.pool.GetNewPage(page.NilOffset)
	if err != nil {
		return e.End(), false, err
	}
	slot, _ := h.Page().Insert(record, true)
	h.Release()

	e.tree.ReviveSentinel(e.pageIndexOf(offset))
	e.size++
	return Cursor{offset: offset, slot: slot}, true, nil
}

func (e *Engine) insertIntoLeaf(pageIndex int32, record common.Record) (Cursor, bool, error) {
	offset := e.offsetOf(pageIndex)
	h, err := e.pool.GetPage(offset, nil)
	if err != nil {
		return e.End(), false, err
	}
	lp := h.Page()

	slot, inserted := lp.Insert(record, e.cfg.Multiset)
	if inserted {
		h.Release()
		e.size++
		return Cursor{offset: offset, slot: slot}, true, nil
	}
	if slot != lp.End() {
		// Exact duplicate already present in set mode.
		h.Release()
		return Cursor{offset: offset, slot: slot}, false, nil
	}

	// Page is full: split, then retry in whichever half now covers the key.
	h.Release()
	newOffset, err := e.splitLeaf(offset)
	if err != nil {
		return e.End(), false, err
	}

	ref, _, ok := e.tree.FindPage(record[:e.cfg.KeySize])
	if !ok || !ref.IsReal() {
		return e.End(), false, fmt.Errorf("engine: post-split lookup failed for key %x", record[:e.cfg.KeySize])
	}
	retryOffset := e.offsetOf(ref.Index())
	if retryOffset != offset && retryOffset != newOffset {
		return e.End(), false, fmt.Errorf("engine: post-split retry landed on an unexpected leaf")
	}

	h2, err := e.pool.GetPage(retryOffset, nil)
	if err != nil {
		return e.End(), false, err
	}
	defer h2.Release()
	slot2, inserted2 := h2.Page().Insert(record, e.cfg.Multiset)
	if !inserted2 {
		if slot2 == h2.Page().End() {
			return e.End(), false, fmt.Errorf("engine: leaf still full immediately after split")
		}
		return Cursor{offset: retryOffset, slot: slot2}, false, nil
	}
	e.size++
	return Cursor{offset: retryOffset, slot: slot2}, true, nil
}

// splitLeaf allocates a new leaf, splits the full leaf at offset into it,
// and records the new separator. Returns the new leaf's offset.
func (e *Engine) splitLeaf(offset uint64) (uint64, error) {
	h, err := e.pool.GetPage(offset, nil)
	if err != nil {
		return 0, err
	}
	left := h.Page()
	nh, newOffset, err := e.pool.GetNewPage(left.NextOffset())
	if err != nil {
		h.Release()
		return 0, err
	}
	right := nh.Page()

	promote, err := left.SplitWith(right)
	leftSize, rightSize := left.Size(), right.Size()
	h.Release()
	nh.Release()
	if err != nil {
		return 0, fmt.Errorf("engine: split: %w", err)
	}

	if !e.tree.InsertPage(promote[:e.cfg.KeySize], index.Real(e.pageIndexOf(newOffset))) {
		return 0, fmt.Errorf("engine: split produced a duplicate separator key %x", promote[:e.cfg.KeySize])
	}
	e.stats.recordSplit()
	log.Printf("engine[%s]: split leaf at offset %d into sizes %d/%d", e.id, offset, leftSize, rightSize)
	return newOffset, nil
}
