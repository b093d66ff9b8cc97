package page

import "fixedtree/pkg/common"

// Slot is an index into a page's record array. End returns the sentinel slot
// one past the last valid index, the same role C++ end() plays in the
// source: "no such slot" and "one past the last slot" are the same value.
type Slot int

// LeafPage is a fixed-size byte container behaving as an ordered multiset (or
// set) of records. Only occupied slots (bitmap bit = 1) are meaningful; the
// gaps left behind by Erase are not compacted until Solidify runs, which
// keeps single erases O(1) at the cost of letting the bitmap become sparse.
type LeafPage struct {
	layout     Layout
	ownOffset  uint64
	nextOffset uint64
	bitmap     []byte
	records    []byte
}

// NewEmpty constructs a fresh, all-zero leaf owning ownOffset, chained to
// nextOffset (NilOffset if it has no successor yet).
func NewEmpty(layout Layout, ownOffset, nextOffset uint64) *LeafPage {
	return &LeafPage{
		layout:     layout,
		ownOffset:  ownOffset,
		nextOffset: nextOffset,
		bitmap:     make([]byte, layout.BitmapBytes),
		records:    make([]byte, layout.RecordCount*layout.RecordSize),
	}
}

// Layout returns the page's record layout.
func (p *LeafPage) Layout() Layout { return p.layout }

// OwnOffset returns the page's byte offset in the page file.
func (p *LeafPage) OwnOffset() uint64 { return p.ownOffset }

// NextOffset returns the byte offset of this leaf's in-order successor, or
// NilOffset if this is the last leaf.
func (p *LeafPage) NextOffset() uint64 { return p.nextOffset }

// SetNextOffset relinks this leaf's successor pointer. SplitWith and MergeWith
// relink through the field directly and do not call it.
func (p *LeafPage) SetNextOffset(off uint64) { p.nextOffset = off }

// End is the sentinel slot value: "no such slot" for search results, and
// "one past the last slot" for iteration bounds.
func (p *LeafPage) End() Slot { return Slot(p.layout.RecordCount) }

// Begin is the first slot index, valid or not; callers must advance to a
// valid slot themselves (see Min).
func (p *LeafPage) Begin() Slot { return 0 }

func (p *LeafPage) testBit(i int) bool {
	return p.bitmap[i/8]&(1<<uint(i%8)) != 0
}

func (p *LeafPage) setBit(i int, v bool) {
	mask := byte(1 << uint(i%8))
	if v {
		p.bitmap[i/8] |= mask
	} else {
		p.bitmap[i/8] &^= mask
	}
}

// Size returns the number of occupied slots.
func (p *LeafPage) Size() int {
	n := 0
	for i := 0; i < p.layout.RecordCount; i++ {
		if p.testBit(i) {
			n++
		}
	}
	return n
}

// IsFull reports whether every slot is occupied.
func (p *LeafPage) IsFull() bool {
	return p.Size() == p.layout.RecordCount
}

func (p *LeafPage) slotBytes(i int) []byte {
	start := i * p.layout.RecordSize
	return p.records[start : start+p.layout.RecordSize]
}

// RecordAt copies out the record stored in slot i, regardless of occupancy.
// Callers typically check Valid(i) first.
func (p *LeafPage) RecordAt(i Slot) common.Record {
	rec := make(common.Record, p.layout.RecordSize)
	copy(rec, p.slotBytes(int(i)))
	return rec
}

// Valid reports whether slot i currently holds a live record.
func (p *LeafPage) Valid(i Slot) bool {
	if int(i) < 0 || int(i) >= p.layout.RecordCount {
		return false
	}
	return p.testBit(int(i))
}

// Records returns every occupied record in ascending slot order (which, by
// Invariant 1, is ascending key order).
func (p *LeafPage) Records() []common.Record {
	out := make([]common.Record, 0, p.Size())
	for i := 0; i < p.layout.RecordCount; i++ {
		if p.testBit(i) {
			out = append(out, p.RecordAt(Slot(i)))
		}
	}
	return out
}

// Min returns the slot of the smallest occupied record, or End if the page is
// empty.
func (p *LeafPage) Min() Slot {
	return p.advanceToValid(0)
}

// Max returns the slot of the largest occupied record, or End if the page is
// empty.
func (p *LeafPage) Max() Slot {
	return p.retreatToValid(p.End() - 1)
}

func (p *LeafPage) advanceToValid(from Slot) Slot {
	for i := from; int(i) < p.layout.RecordCount; i++ {
		if p.testBit(int(i)) {
			return i
		}
	}
	return p.End()
}

func (p *LeafPage) retreatToValid(from Slot) Slot {
	for i := from; i >= 0; i-- {
		if p.testBit(int(i)) {
			return i
		}
	}
	return p.End()
}
