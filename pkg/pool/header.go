package pool

import (
	"encoding/binary"
	"fmt"
)

// The page file's header lives in page slot 0, which the pool never hands
// out through GetPage/GetNewPage. Layout:
//
//	[0:8]    empty_pages_start (u64 LE)
//	[8:16]   discarded_count   (u64 LE)
//	[16:...] discarded_count offsets (u64 LE each)
func (bp *BufferPool) readHeader() error {
	buf := make([]byte, bp.layout.PageSize)
	if _, err := bp.file.ReadAt(buf, 0); err != nil {
		return fmt.Errorf("pool: read header: %w", err)
	}

	bp.emptyPagesStart = binary.LittleEndian.Uint64(buf[0:8])
	count := binary.LittleEndian.Uint64(buf[8:16])

	maxCount := uint64(bp.layout.PageSize-16) / 8
	if count > maxCount {
		return fmt.Errorf("pool: corrupt header, discarded_count %d exceeds capacity %d", count, maxCount)
	}

	bp.discarded = make([]uint64, count)
	for i := uint64(0); i < count; i++ {
		bp.discarded[i] = binary.LittleEndian.Uint64(buf[16+i*8 : 24+i*8])
	}
	return nil
}

func (bp *BufferPool) writeHeader() error {
	buf := make([]byte, bp.layout.PageSize)
	binary.LittleEndian.PutUint64(buf[0:8], bp.emptyPagesStart)

	maxCount := (bp.layout.PageSize - 16) / 8
	count := len(bp.discarded)
	if count > maxCount {
		return fmt.Errorf("pool: discarded free-list (%d entries) exceeds header capacity (%d)", count, maxCount)
	}
	binary.LittleEndian.PutUint64(buf[8:16], uint64(count))
	for i, off := range bp.discarded {
		binary.LittleEndian.PutUint64(buf[16+i*8:24+i*8], off)
	}

	if _, err := bp.file.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("pool: write header: %w", err)
	}
	return nil
}
