// Package index implements the IndexTree: the in-memory ordered structure
// of separators that maps each leaf's minimum key to that leaf's page
// descriptor, built over github.com/google/btree the same way the teacher's
// pkg/core/memory/memtable.go wraps btree.BTree with a custom Item.
package index

import (
	"math"

	"github.com/google/btree"
)

// IndexTree is the in-memory separator structure: an ordered set of
// (minimum-key, page descriptor) pairs, one per live leaf.
type IndexTree struct {
	tree     *btree.BTree
	multiset bool
}

// New returns an empty IndexTree of the given fanout (B-tree degree).
func New(fanout int, multiset bool) *IndexTree {
	return &IndexTree{tree: btree.New(fanout), multiset: multiset}
}

// Len returns the number of live separators, including the placeholder
// sentinel once seeded.
func (t *IndexTree) Len() int { return t.tree.Len() }

// SentinelKey is the permanent key of the leftmost separator: the empty
// byte slice, which byte-compares less than every real key. Its leaf
// absorbs every key smaller than any other leaf's separator, so unlike
// every other separator its key never has to track its leaf's minimum
// record; that exemption is what makes it a sentinel.
var SentinelKey = []byte{}

// InitializePages seeds a brand-new, empty tree with the sentinel
// separator, resolved directly to the first leaf the engine ever
// allocates. Called exactly once, the first time an engine with zero
// separators receives its first record.
func (t *IndexTree) InitializePages(pageIndex int32) {
	t.tree.ReplaceOrInsert(separatorItem{key: SentinelKey, ref: Real(pageIndex)})
}

// DemoteSentinel reverts the sentinel separator to Placeholder once its
// leaf has been erased down to empty and has no right sibling to merge
// into — the mirror image of InitializePages, leaving the tree in the same
// shape a brand-new engine would have had if it had never seeded a leaf,
// except that the sentinel separator itself (Len()==1) persists rather
// than disappearing.
func (t *IndexTree) DemoteSentinel(oldRef PageRef) {
	t.tree.Delete(separatorItem{key: SentinelKey, ref: oldRef})
	t.tree.ReplaceOrInsert(separatorItem{key: SentinelKey, ref: Placeholder})
}

// ReviveSentinel resolves a demoted sentinel back to a real leaf, the
// transition the engine drives when an insert lands on an engine that was
// previously erased all the way down to empty.
func (t *IndexTree) ReviveSentinel(pageIndex int32) {
	t.tree.Delete(separatorItem{key: SentinelKey, ref: Placeholder})
	t.tree.ReplaceOrInsert(separatorItem{key: SentinelKey, ref: Real(pageIndex)})
}

// floorPivot builds a pivot item such that DescendLessOrEqual, starting from
// it, visits the greatest separator with key <= key first, regardless of
// which page index that separator happens to carry.
func floorPivot(key []byte) separatorItem {
	return separatorItem{key: key, ref: Real(math.MaxInt32)}
}

// ceilPivot builds a pivot item such that AscendGreaterOrEqual, starting
// from it, visits the least separator with key >= key first.
func ceilPivot(key []byte) separatorItem {
	return separatorItem{key: key, ref: Placeholder}
}

// FindPage returns the separator whose range contains key: the greatest
// separator with key' <= key.
func (t *IndexTree) FindPage(key []byte) (ref PageRef, sepKey []byte, ok bool) {
	t.tree.DescendLessOrEqual(floorPivot(key), func(i btree.Item) bool {
		s := i.(separatorItem)
		ref, sepKey, ok = s.ref, s.key, true
		return false
	})
	return
}

// FindPageLB returns the leaf to begin a lower-bound scan for the first key
// >= the given key from. Leaf ranges are contiguous, so this is the same
// floor separator FindPage would return: the target key, if present, can
// only live in the leaf whose range starts at or below it.
func (t *IndexTree) FindPageLB(key []byte) (ref PageRef, sepKey []byte, ok bool) {
	return t.FindPage(key)
}

// FindPageCeil returns the least separator with key' >= key. The engine
// reaches a leaf's right neighbor through NextOffset and FindSeparatorByRef
// instead, and does not call it.
func (t *IndexTree) FindPageCeil(key []byte) (ref PageRef, sepKey []byte, ok bool) {
	t.tree.AscendGreaterOrEqual(ceilPivot(key), func(i btree.Item) bool {
		s := i.(separatorItem)
		ref, sepKey, ok = s.ref, s.key, true
		return false
	})
	return
}

// InsertPage adds a separator naming a newly created leaf. In set mode a
// duplicate key is rejected outright, regardless of ref; in multiset mode
// duplicate keys are permitted and disambiguated by page index.
func (t *IndexTree) InsertPage(key []byte, ref PageRef) bool {
	if !t.multiset {
		if _, _, ok := t.exactKey(key); ok {
			return false
		}
	}
	t.tree.ReplaceOrInsert(separatorItem{key: append([]byte{}, key...), ref: ref})
	return true
}

// ErasePage removes the separator at (key, ref) — both must match exactly,
// since in multiset mode several separators can share a key. Reports
// whether a matching separator was found.
func (t *IndexTree) ErasePage(key []byte, ref PageRef) bool {
	removed := t.tree.Delete(separatorItem{key: key, ref: ref})
	return removed != nil
}

// UpdateSeparatorKey rewrites the key of the separator currently at
// (oldKey, ref) to newKey. Used after an erase removes a non-sentinel
// leaf's minimum record (the separator must track the new minimum) or
// after BorrowFrom shifts a leaf's minimum record across a sibling
// boundary.
func (t *IndexTree) UpdateSeparatorKey(oldKey []byte, ref PageRef, newKey []byte) {
	t.tree.Delete(separatorItem{key: oldKey, ref: ref})
	t.tree.ReplaceOrInsert(separatorItem{key: append([]byte{}, newKey...), ref: ref})
}

// FindSeparatorByRef linearly scans for the separator naming ref, used to
// recover a leaf's key once the engine only has its page descriptor in
// hand (e.g. the leaf reached via another leaf's NextOffset link). O(n) in
// the number of live leaves, which this engine never expects to be large
// relative to record count.
func (t *IndexTree) FindSeparatorByRef(ref PageRef) (key []byte, ok bool) {
	t.Ascend(func(k []byte, r PageRef) bool {
		if r == ref {
			key, ok = k, true
			return false
		}
		return true
	})
	return
}

func (t *IndexTree) exactKey(key []byte) (PageRef, []byte, bool) {
	ref, sepKey, ok := t.FindPage(key)
	if !ok || !bytesEqual(sepKey, key) {
		return PageRef{}, nil, false
	}
	return ref, sepKey, true
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Ascend walks every separator in ascending key order, stopping early if fn
// returns false.
func (t *IndexTree) Ascend(fn func(key []byte, ref PageRef) bool) {
	t.tree.Ascend(func(i btree.Item) bool {
		s := i.(separatorItem)
		return fn(s.key, s.ref)
	})
}
