package index

import (
	"bytes"

	"github.com/google/btree"
)

// separatorItem is the btree.Item stored in the IndexTree, mirroring the
// teacher's memtable Item/btree.BTree wrapper: a comparison key plus the
// payload the tree is actually indexing. Here the payload is a page
// descriptor instead of a value blob.
//
// Separator keys are unique in set mode. In multiset mode two leaves can
// legitimately share a minimum key after a split on a run of equal keys, so
// ties are broken by page index to keep every item distinct in the
// underlying btree.BTree.
type separatorItem struct {
	key []byte
	ref PageRef
}

func (s separatorItem) Less(than btree.Item) bool {
	o := than.(separatorItem)
	if c := bytes.Compare(s.key, o.key); c != 0 {
		return c < 0
	}
	return s.ref.tiebreak() < o.ref.tiebreak()
}
