package index

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

// indexFileVersion is bumped whenever the on-disk separator encoding
// changes shape.
const indexFileVersion uint32 = 1

// Encode writes a version-tagged, depth-first dump of every separator to w:
// version, a count, then for each separator (in ascending key order) its
// key length, key bytes, and raw page descriptor, followed by a trailing
// CRC32 (IEEE) checksum over the count and every separator record — the
// same checksum-after-payload framing the teacher's write-ahead log uses
// per record, applied here once over the whole dump. Round-trips exactly
// through Decode.
func (t *IndexTree) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if err := binary.Write(bw, binary.LittleEndian, indexFileVersion); err != nil {
		return fmt.Errorf("index: write version: %w", err)
	}

	checksum := crc32.NewIEEE()
	body := io.MultiWriter(bw, checksum)

	if err := binary.Write(body, binary.LittleEndian, uint64(t.Len())); err != nil {
		return fmt.Errorf("index: write count: %w", err)
	}

	var writeErr error
	t.Ascend(func(key []byte, ref PageRef) bool {
		if err := binary.Write(body, binary.LittleEndian, uint32(len(key))); err != nil {
			writeErr = fmt.Errorf("index: write key length: %w", err)
			return false
		}
		if _, err := body.Write(key); err != nil {
			writeErr = fmt.Errorf("index: write key: %w", err)
			return false
		}
		if err := binary.Write(body, binary.LittleEndian, ref.Raw()); err != nil {
			writeErr = fmt.Errorf("index: write page ref: %w", err)
			return false
		}
		return true
	})
	if writeErr != nil {
		return writeErr
	}

	if err := binary.Write(bw, binary.LittleEndian, checksum.Sum32()); err != nil {
		return fmt.Errorf("index: write checksum: %w", err)
	}

	return bw.Flush()
}

// Decode builds a new IndexTree from the separator dump read from r,
// produced by a prior Encode, and rejects the dump if its trailing checksum
// does not match the count and separator records actually read.
func Decode(r io.Reader, fanout int, multiset bool) (*IndexTree, error) {
	br := bufio.NewReader(r)

	var version uint32
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("index: read version: %w", err)
	}
	if version != indexFileVersion {
		return nil, fmt.Errorf("index: unsupported index file version %d", version)
	}

	checksum := crc32.NewIEEE()
	body := io.TeeReader(br, checksum)

	var count uint64
	if err := binary.Read(body, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("index: read count: %w", err)
	}

	t := New(fanout, multiset)
	for i := uint64(0); i < count; i++ {
		var keyLen uint32
		if err := binary.Read(body, binary.LittleEndian, &keyLen); err != nil {
			return nil, fmt.Errorf("index: read key length at record %d: %w", i, err)
		}
		key := make([]byte, keyLen)
		if keyLen > 0 {
			if _, err := io.ReadFull(body, key); err != nil {
				return nil, fmt.Errorf("index: read key at record %d: %w", i, err)
			}
		}
		var raw int32
		if err := binary.Read(body, binary.LittleEndian, &raw); err != nil {
			return nil, fmt.Errorf("index: read page ref at record %d: %w", i, err)
		}
		t.tree.ReplaceOrInsert(separatorItem{key: key, ref: RefFromRaw(raw)})
	}

	var wantChecksum uint32
	if err := binary.Read(br, binary.LittleEndian, &wantChecksum); err != nil {
		return nil, fmt.Errorf("index: read checksum: %w", err)
	}
	if got := checksum.Sum32(); got != wantChecksum {
		return nil, fmt.Errorf("index: checksum mismatch: got %08x, want %08x", got, wantChecksum)
	}
	return t, nil
}
