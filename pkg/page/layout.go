// Package page implements the fixed-size, bitmap-indexed leaf page: a sorted,
// fixed-capacity record container that round-trips to a single page slot in
// the page file.
package page

import "fmt"

// headerSize is the width of the next_offset field at the front of every
// page.
const headerSize = 8

// NilOffset marks a leaf with no in-order successor (the tail of the leaf
// chain).
const NilOffset uint64 = ^uint64(0)

// Layout describes how a page of PageSize bytes is carved into the 8-byte
// next_offset field, an occupancy bitmap, and RecordCount record slots of
// RecordSize bytes each.
//
// The source computes RECORD_COUNT as (PAGE_SIZE - 8) / (RECORD_SIZE + 1/8),
// where the 1/8 term is meant to charge each slot for one bitmap bit but
// evaluates to zero under integer division — see SPEC_FULL.md §9, Open
// Question 1. Rather than carry the bug forward or silently special-case it,
// NewLayout resolves the question by construction: it picks the largest
// RecordCount for which the next_offset field, the bitmap, and the record
// slots together still fit within PageSize, verified directly rather than
// approximated by a closed-form fraction.
type Layout struct {
	PageSize    int
	RecordSize  int
	KeySize     int
	RecordCount int
	BitmapBytes int
}

// NewLayout derives a Layout for the given page, record, and key sizes.
func NewLayout(pageSize, recordSize, keySize int) (Layout, error) {
	if keySize < 1 {
		return Layout{}, fmt.Errorf("page: key size must be >= 1, got %d", keySize)
	}
	if recordSize < keySize {
		return Layout{}, fmt.Errorf("page: record size %d smaller than key size %d", recordSize, keySize)
	}
	if pageSize < recordSize+16 {
		return Layout{}, fmt.Errorf("page: page size %d too small for record size %d (need >= record+16)", pageSize, recordSize)
	}

	avail := pageSize - headerSize
	count := avail / recordSize // upper bound, ignoring bitmap cost
	for count > 0 {
		bitmapBytes := (count + 7) / 8
		if bitmapBytes+count*recordSize <= avail {
			break
		}
		count--
	}
	if count < 4 {
		return Layout{}, fmt.Errorf("page: derived record count %d below minimum of 4", count)
	}

	return Layout{
		PageSize:    pageSize,
		RecordSize:  recordSize,
		KeySize:     keySize,
		RecordCount: count,
		BitmapBytes: (count + 7) / 8,
	}, nil
}

// byteSize returns the true on-disk footprint of a page under this layout,
// before padding to PageSize.
func (l Layout) byteSize() int {
	return headerSize + l.BitmapBytes + l.RecordCount*l.RecordSize
}
