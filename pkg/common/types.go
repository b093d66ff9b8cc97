// Package common holds the value types shared by the page, pool, index and
// engine packages: fixed-width records and keys, compared byte-lexicographically.
package common

import (
	"bytes"
	"fmt"
)

// Record is a fixed-width, opaque byte slice. Its first KeySize bytes are its
// comparison key; the rest is caller payload. Records are value types: callers
// own the backing slice and the engine never retains a reference to it past
// the call that receives it.
type Record []byte

// Key is the comparison prefix of a Record.
type Key []byte

// Compare orders two byte slices lexicographically. Used for both bare keys
// and whole records, since a record's key is always its prefix.
func Compare(a, b []byte) int {
	return bytes.Compare(a, b)
}

// KeyOf copies the first keySize bytes of rec out as a standalone Key.
func KeyOf(rec Record, keySize int) Key {
	k := make(Key, keySize)
	copy(k, rec[:keySize])
	return k
}

// String renders a short, human-readable form of a record for debugging and
// log lines; it never prints the full payload.
func (r Record) String() string {
	n := len(r)
	if n > 8 {
		n = 8
	}
	return fmt.Sprintf("Record{len=%d, prefix=%x}", len(r), []byte(r[:n]))
}

// String renders a key for debugging and log lines.
func (k Key) String() string {
	return fmt.Sprintf("%x", []byte(k))
}
