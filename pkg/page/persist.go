package page

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ReadFrom loads a page of layout l from r starting at ownOffset, which must
// be a non-zero multiple of l.PageSize (offset 0 is reserved for the buffer
// pool header).
func ReadFrom(r io.ReaderAt, l Layout, ownOffset uint64) (*LeafPage, error) {
	if ownOffset == 0 || ownOffset%uint64(l.PageSize) != 0 {
		return nil, fmt.Errorf("page: invalid page offset %d for page size %d", ownOffset, l.PageSize)
	}

	buf := make([]byte, l.PageSize)
	if _, err := r.ReadAt(buf, int64(ownOffset)); err != nil {
		return nil, fmt.Errorf("page: read at offset %d: %w", ownOffset, err)
	}

	p := &LeafPage{
		layout:    l,
		ownOffset: ownOffset,
		bitmap:    make([]byte, l.BitmapBytes),
		records:   make([]byte, l.RecordCount*l.RecordSize),
	}
	p.nextOffset = binary.LittleEndian.Uint64(buf[:headerSize])
	copy(p.bitmap, buf[headerSize:headerSize+l.BitmapBytes])
	copy(p.records, buf[headerSize+l.BitmapBytes:headerSize+l.BitmapBytes+l.RecordCount*l.RecordSize])
	return p, nil
}

// Flush writes the page's current contents back to its own offset in w,
// zero-padding out to a full PageSize.
func (p *LeafPage) Flush(w io.WriterAt) error {
	buf := make([]byte, p.layout.PageSize)
	binary.LittleEndian.PutUint64(buf[:headerSize], p.nextOffset)
	copy(buf[headerSize:headerSize+p.layout.BitmapBytes], p.bitmap)
	copy(buf[headerSize+p.layout.BitmapBytes:], p.records)

	if _, err := w.WriteAt(buf, int64(p.ownOffset)); err != nil {
		return fmt.Errorf("page: write at offset %d: %w", p.ownOffset, err)
	}
	return nil
}
