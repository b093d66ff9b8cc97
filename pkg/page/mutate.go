package page

import (
	"bytes"

	"fixedtree/pkg/common"
)

// Insert places record into its ordered position. If the page is full it
// returns (End, false) without modifying the page — the caller (the engine)
// is responsible for splitting and retrying. If allowDup is false and an
// equal-keyed record already exists, it returns the existing slot and false.
// Otherwise it inserts and returns (slot, true).
func (p *LeafPage) Insert(record common.Record, allowDup bool) (Slot, bool) {
	if p.IsFull() {
		return p.End(), false
	}

	var ub Slot
	if !allowDup {
		lb := p.SearchLB(record[:p.layout.KeySize])
		if lb != p.End() && bytes.Equal(record[:p.layout.KeySize], p.slotBytes(int(lb))[:p.layout.KeySize]) {
			return lb, false
		}
		ub = lb
	} else {
		ub = p.SearchUB(record)
	}

	if ub == p.End() {
		// search_ub landed past the last occupied slot; there must be a free
		// trailing slot (the page isn't full), so solidify to find it.
		ub = Slot(p.Solidify())
	}

	if !p.testBit(int(ub)) {
		copy(p.slotBytes(int(ub)), record)
		p.setBit(int(ub), true)
		return ub, true
	}

	insertAt := p.shiftToVacate(int(ub))
	copy(p.slotBytes(insertAt), record)
	p.setBit(insertAt, true)
	return Slot(insertAt), true
}

// shiftToVacate opens a hole next to the occupied slot `target` by shifting
// the contiguous occupied run between target and the nearest free slot by
// one position, preferring whichever direction is closer — the
// nearest-vacancy shift described in the spec. Returns the slot the caller
// should write the new record into: target itself if the nearest vacancy
// was to the right, or target-1 if it was to the left (since shifting a
// left-hand block frees the slot immediately before target, not target
// itself).
func (p *LeafPage) shiftToVacate(target int) int {
	count := p.layout.RecordCount
	left, right := target, target
	for left >= 0 || right < count {
		if left >= 0 && !p.testBit(left) {
			p.shiftRunLeft(left, target)
			return target - 1
		}
		if right < count && !p.testBit(right) {
			p.shiftRunRight(target, right)
			return target
		}
		left--
		right++
	}
	return target // unreachable: caller already verified the page isn't full
}

// shiftRunLeft moves the occupied records in (free, target) one slot to the
// left, filling the vacancy at `free` and opening a new one at target-1.
func (p *LeafPage) shiftRunLeft(free, target int) {
	recSize := p.layout.RecordSize
	copy(p.records[free*recSize:(target-1)*recSize], p.records[(free+1)*recSize:target*recSize])
	for i := free; i < target-1; i++ {
		p.setBit(i, p.testBit(i+1))
	}
	p.setBit(target-1, false)
}

// shiftRunRight moves the occupied records in [target, free) one slot to the
// right, filling the vacancy at `free` and opening a new one at target.
func (p *LeafPage) shiftRunRight(target, free int) {
	recSize := p.layout.RecordSize
	copy(p.records[(target+1)*recSize:(free+1)*recSize], p.records[target*recSize:free*recSize])
	for i := free; i > target; i-- {
		p.setBit(i, p.testBit(i-1))
	}
	p.setBit(target, false)
}

// Erase clears the bit for record's exact slot (found via Search), if
// present. Returns the slot advanced to the next valid record, or End.
func (p *LeafPage) Erase(record common.Record) Slot {
	slot := p.Search(record)
	if slot == p.End() {
		return p.End()
	}
	return p.EraseAt(slot)
}

// EraseAt clears the bit at slot without shifting any records — holes are
// only compacted by Solidify, which split/merge/borrow call internally.
// Returns the next occupied slot, or End.
func (p *LeafPage) EraseAt(slot Slot) Slot {
	if int(slot) < 0 || int(slot) >= p.layout.RecordCount || !p.testBit(int(slot)) {
		return p.End()
	}
	p.setBit(int(slot), false)
	return p.advanceToValid(slot + 1)
}
