package page

import "bytes"

// findFirstOccupied snaps index to the nearest occupied slot within
// [lower, upper), scanning outward symmetrically from index. It is the
// primitive that keeps binary search correct in the face of holes left by
// Erase: a probed midpoint that happens to be empty is walked left and right
// at the same time until an occupied slot (or the window edge) is found.
// Returns RecordCount if no occupied slot exists in the window.
func (p *LeafPage) findFirstOccupied(index, lower, upper int) int {
	left, right := index, index
	for left >= lower || right < upper {
		if left >= lower && p.testBit(left) {
			return left
		}
		if right < upper && p.testBit(right) {
			return right
		}
		left--
		right++
	}
	return p.layout.RecordCount
}

// cmpAt compares probe (either a bare Key or a whole Record) against the
// record stored in slot, over probe's own length — the same "compare the
// shorter, caller-supplied prefix" rule the source applies so that a Key
// probe only ever compares KeySize bytes even though slots hold whole
// records.
func (p *LeafPage) cmpAt(probe []byte, slot int) int {
	return bytes.Compare(probe, p.slotBytes(slot)[:len(probe)])
}

// SearchLB returns the smallest occupied slot whose record is >= probe, or
// End if every occupied record is < probe. probe may be a bare Key
// (KeySize bytes) or a whole Record.
func (p *LeafPage) SearchLB(probe []byte) Slot {
	left := p.findFirstOccupied(0, 0, p.layout.RecordCount)
	if left == p.layout.RecordCount {
		return p.End() // empty page
	}
	right := p.layout.RecordCount // exclusive
	best := p.End()               // smallest occupied slot seen so far whose record >= probe

	for left < right {
		mid := p.findFirstOccupied(left+(right-left)/2, left, right)
		if mid == p.layout.RecordCount {
			return best
		}
		if p.cmpAt(probe, mid) <= 0 {
			best, right = Slot(mid), mid
		} else {
			left = mid + 1
		}
	}
	return best
}

// SearchUB returns the smallest occupied slot whose record is > probe. If no
// occupied record is > probe, it returns the free slot just past the last
// occupied slot, or End when the last occupied slot is the page's final slot;
// Insert writes into that trailing free slot directly. If the page is empty,
// returns Begin (matching the source's "search_ub of an empty page is
// begin()" edge case).
func (p *LeafPage) SearchUB(probe []byte) Slot {
	if p.Size() == 0 {
		return p.Begin()
	}

	left := 0 // inclusive
	lastOccupied := p.findFirstOccupied(p.layout.RecordCount-1, 0, p.layout.RecordCount)
	if p.cmpAt(probe, lastOccupied) >= 0 {
		if lastOccupied == p.layout.RecordCount-1 {
			return p.End()
		}
		return Slot(lastOccupied + 1) // first empty/trailing slot
	}
	right := lastOccupied + 1  // exclusive; ub guaranteed to live before right
	best := Slot(lastOccupied) // its record is > probe, checked above

	for left < right {
		mid := p.findFirstOccupied(left+(right-left)/2, left, right)
		if mid == p.layout.RecordCount {
			return best
		}
		if p.cmpAt(probe, mid) < 0 {
			best, right = Slot(mid), mid
		} else {
			left = mid + 1
		}
	}
	return best
}

// Search returns the exact-match slot for a full Record (compared over its
// full RecordSize), or End if absent.
func (p *LeafPage) Search(record []byte) Slot {
	lb := p.SearchLB(record)
	if lb == p.End() {
		return p.End()
	}
	if bytes.Equal(record, p.slotBytes(int(lb))) {
		return lb
	}
	return p.End()
}
