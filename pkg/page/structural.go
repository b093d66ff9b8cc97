package page

import (
	"fmt"

	"fixedtree/pkg/common"
)

// Solidify compacts every occupied record to a contiguous prefix [0, size)
// and clears the bitmap beyond it. Returns size (the index at which the now
// entirely-empty suffix begins).
func (p *LeafPage) Solidify() int {
	recSize := p.layout.RecordSize
	dest := 0
	for src := 0; src < p.layout.RecordCount; src++ {
		if !p.testBit(src) {
			continue
		}
		if dest != src {
			copy(p.records[dest*recSize:(dest+1)*recSize], p.records[src*recSize:(src+1)*recSize])
			for b := src * recSize; b < (src+1)*recSize; b++ {
				p.records[b] = 0
			}
		}
		dest++
	}
	for i := 0; i < dest; i++ {
		p.setBit(i, true)
	}
	for i := dest; i < p.layout.RecordCount; i++ {
		p.setBit(i, false)
	}
	return dest
}

// SplitWith moves the upper half of this page's records into right, which
// must be empty. Preconditions: this page is full (the engine only splits
// full pages) and right.own offset is already assigned. Returns the promote
// record — the first (minimum) record of right, whose key becomes the new
// separator in the index tree.
func (p *LeafPage) SplitWith(right *LeafPage) (common.Record, error) {
	if !p.IsFull() {
		return nil, fmt.Errorf("page: SplitWith requires a full page (size=%d of %d)", p.Size(), p.layout.RecordCount)
	}
	if right.Size() != 0 {
		return nil, fmt.Errorf("page: SplitWith requires an empty right sibling (size=%d)", right.Size())
	}
	if right.layout != p.layout {
		return nil, fmt.Errorf("page: SplitWith requires matching layouts")
	}

	p.Solidify()
	total := p.layout.RecordCount
	leftSize := total / 2
	rightSize := total - leftSize

	recSize := p.layout.RecordSize
	copy(right.records[:rightSize*recSize], p.records[leftSize*recSize:total*recSize])
	for b := leftSize * recSize; b < total*recSize; b++ {
		p.records[b] = 0
	}

	for i := leftSize; i < total; i++ {
		p.setBit(i, false)
	}
	for i := 0; i < rightSize; i++ {
		right.setBit(i, true)
	}

	right.nextOffset = p.nextOffset
	p.nextOffset = right.ownOffset

	return right.RecordAt(0), nil
}

// MergeWith folds right's records into this page and adopts right's
// next-offset link. Precondition: Size()+right.Size() <= RecordCount.
// After a successful merge, right holds no live records and is safe for the
// caller to discard back to the buffer pool's free list.
func (p *LeafPage) MergeWith(right *LeafPage) error {
	target := p.Size() + right.Size()
	if target > p.layout.RecordCount {
		return fmt.Errorf("page: MergeWith would overflow (target=%d, capacity=%d)", target, p.layout.RecordCount)
	}

	leftEmptyStart := p.Solidify()
	right.Solidify()

	recSize := p.layout.RecordSize
	rightSize := right.Size()
	copy(p.records[leftEmptyStart*recSize:(leftEmptyStart+rightSize)*recSize], right.records[:rightSize*recSize])
	for i := 0; i < rightSize; i++ {
		p.setBit(leftEmptyStart+i, true)
	}

	for i := 0; i < p.layout.RecordCount; i++ {
		right.setBit(i, false)
	}
	p.nextOffset = right.nextOffset

	return nil
}

// BorrowFrom redistributes records from right into this (under-full) page so
// that this page ends up with floor((Size()+right.Size())/2) records and right
// keeps the rest (the same count, or one more when the total is odd). Returns
// right's new minimum record so the caller can refresh the separator that
// names right in the index tree.
func (p *LeafPage) BorrowFrom(right *LeafPage) (common.Record, error) {
	leftSize := p.Size()
	rightSize := right.Size()
	total := leftSize + rightSize
	targetLeft := total / 2

	if leftSize >= targetLeft {
		return nil, fmt.Errorf("page: BorrowFrom called on a page that isn't under-full (left=%d right=%d)", leftSize, rightSize)
	}

	leftEmptyStart := p.Solidify()
	right.Solidify()

	toMove := targetLeft - leftSize
	if toMove > rightSize {
		return nil, fmt.Errorf("page: BorrowFrom right sibling has insufficient surplus (have=%d need=%d)", rightSize, toMove)
	}

	recSize := p.layout.RecordSize
	copy(p.records[leftEmptyStart*recSize:(leftEmptyStart+toMove)*recSize], right.records[:toMove*recSize])
	for i := 0; i < toMove; i++ {
		p.setBit(leftEmptyStart+i, true)
	}

	copy(right.records[:(rightSize-toMove)*recSize], right.records[toMove*recSize:rightSize*recSize])
	for b := (rightSize - toMove) * recSize; b < rightSize*recSize; b++ {
		right.records[b] = 0
	}
	for i := 0; i < rightSize-toMove; i++ {
		right.setBit(i, true)
	}
	for i := rightSize - toMove; i < p.layout.RecordCount; i++ {
		right.setBit(i, false)
	}

	return right.RecordAt(0), nil
}
