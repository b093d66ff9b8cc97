package page

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"fixedtree/pkg/common"
)

func rec(key string, recordSize int) common.Record {
	r := make(common.Record, recordSize)
	copy(r, []byte(key))
	return r
}

func mustLayout(t *testing.T, pageSize, recordSize, keySize int) Layout {
	t.Helper()
	l, err := NewLayout(pageSize, recordSize, keySize)
	if err != nil {
		t.Fatalf("NewLayout: %v", err)
	}
	return l
}

func TestNewLayoutFitsWithinPageSize(t *testing.T) {
	l := mustLayout(t, 4096, 200, 20)
	if l.byteSize() > l.PageSize {
		t.Fatalf("layout overflows page: byteSize=%d pageSize=%d", l.byteSize(), l.PageSize)
	}
	if l.RecordCount < 4 {
		t.Fatalf("record count too small: %d", l.RecordCount)
	}
}

func TestInsertAndSearchOrdered(t *testing.T) {
	l := mustLayout(t, 4096, 200, 20)
	p := NewEmpty(l, uint64(l.PageSize), NilOffset)

	keys := []string{"0005", "0002", "0008", "0001", "0003"}
	for _, k := range keys {
		if _, ok := p.Insert(rec(k, 200), false); !ok {
			t.Fatalf("insert %s failed", k)
		}
	}

	if p.Size() != len(keys) {
		t.Fatalf("size: got %d want %d", p.Size(), len(keys))
	}

	want := []string{"0001", "0002", "0003", "0005", "0008"}
	got := p.Records()
	if len(got) != len(want) {
		t.Fatalf("records len: got %d want %d", len(got), len(want))
	}
	for i, w := range want {
		if !bytes.Equal(got[i][:4], []byte(w)) {
			t.Errorf("record %d: got %q want %q", i, got[i][:4], w)
		}
	}

	for _, k := range keys {
		slot := p.Search(rec(k, 200))
		if slot == p.End() {
			t.Errorf("search %s: not found", k)
		}
	}

	if slot := p.Search(rec("9999", 200)); slot != p.End() {
		t.Errorf("search missing key: expected End, got %v", slot)
	}
}

func TestInsertRejectsDuplicateInSetMode(t *testing.T) {
	l := mustLayout(t, 4096, 200, 20)
	p := NewEmpty(l, uint64(l.PageSize), NilOffset)

	if _, ok := p.Insert(rec("0001", 200), false); !ok {
		t.Fatal("first insert should succeed")
	}
	slot, ok := p.Insert(rec("0001", 200), false)
	if ok {
		t.Fatal("duplicate insert should report inserted=false")
	}
	if slot == p.End() {
		t.Fatal("duplicate insert should return the existing slot, not End")
	}
	if p.Size() != 1 {
		t.Fatalf("size after duplicate insert: got %d want 1", p.Size())
	}
}

func TestInsertAllowsDuplicateInMultisetMode(t *testing.T) {
	l := mustLayout(t, 4096, 200, 20)
	p := NewEmpty(l, uint64(l.PageSize), NilOffset)

	for i := 0; i < 5; i++ {
		if _, ok := p.Insert(rec("0001", 200), true); !ok {
			t.Fatalf("insert #%d failed", i)
		}
	}
	if p.Size() != 5 {
		t.Fatalf("size: got %d want 5", p.Size())
	}
	for _, r := range p.Records() {
		if !bytes.Equal(r[:4], []byte("0001")) {
			t.Errorf("unexpected record %q", r[:4])
		}
	}
}

func TestEraseThenSearchMiss(t *testing.T) {
	l := mustLayout(t, 4096, 200, 20)
	p := NewEmpty(l, uint64(l.PageSize), NilOffset)

	p.Insert(rec("0001", 200), false)
	p.Insert(rec("0002", 200), false)
	p.Insert(rec("0003", 200), false)

	next := p.Erase(rec("0002", 200))
	if next == p.End() {
		t.Fatal("erase should step to next valid slot (0003), not End")
	}
	if !bytes.Equal(p.RecordAt(next)[:4], []byte("0003")) {
		t.Errorf("erase successor: got %q want 0003", p.RecordAt(next)[:4])
	}

	if slot := p.Search(rec("0002", 200)); slot != p.End() {
		t.Error("erased key should no longer be found")
	}
	if p.Size() != 2 {
		t.Fatalf("size after erase: got %d want 2", p.Size())
	}
}

func TestEraseLeavesHolesInsertStillOrdered(t *testing.T) {
	l := mustLayout(t, 4096, 200, 20)
	p := NewEmpty(l, uint64(l.PageSize), NilOffset)

	for i := 1; i <= 10; i++ {
		p.Insert(rec(fmt.Sprintf("%04d", i), 200), false)
	}
	// punch holes at even positions
	for i := 2; i <= 10; i += 2 {
		p.Erase(rec(fmt.Sprintf("%04d", i), 200))
	}
	if p.Size() != 5 {
		t.Fatalf("size after holes: got %d want 5", p.Size())
	}

	// insert back into the gaps and re-verify total order
	for i := 2; i <= 10; i += 2 {
		if _, ok := p.Insert(rec(fmt.Sprintf("%04d", i), 200), false); !ok {
			t.Fatalf("reinsert %d failed", i)
		}
	}

	got := p.Records()
	if len(got) != 10 {
		t.Fatalf("records len: got %d want 10", len(got))
	}
	for i, r := range got {
		want := fmt.Sprintf("%04d", i+1)
		if !bytes.Equal(r[:4], []byte(want)) {
			t.Errorf("record %d: got %q want %q", i, r[:4], want)
		}
	}
}

func TestSearchLBUBEmptyPage(t *testing.T) {
	l := mustLayout(t, 4096, 200, 20)
	p := NewEmpty(l, uint64(l.PageSize), NilOffset)

	if slot := p.SearchLB(rec("0001", 20)[:20]); slot != p.End() {
		t.Errorf("SearchLB on empty page: got %v want End", slot)
	}
	if slot := p.SearchUB(rec("0001", 20)[:20]); slot != p.Begin() {
		t.Errorf("SearchUB on empty page: got %v want Begin", slot)
	}
}

func TestFullPageInsertFails(t *testing.T) {
	l := mustLayout(t, 512, 32, 8)
	p := NewEmpty(l, uint64(l.PageSize), NilOffset)

	n := 0
	for i := 0; i < l.RecordCount; i++ {
		key := fmt.Sprintf("%08d", i)
		if _, ok := p.Insert(rec(key, 32), false); !ok {
			t.Fatalf("insert %d should have succeeded (page not yet full)", i)
		}
		n++
	}
	if !p.IsFull() {
		t.Fatalf("page should be full after %d inserts (RecordCount=%d)", n, l.RecordCount)
	}
	slot, ok := p.Insert(rec("overflow", 32), false)
	if ok || slot != p.End() {
		t.Fatalf("insert into full page should return (End, false), got (%v, %v)", slot, ok)
	}
}

func TestSplitWithDistributesEvenly(t *testing.T) {
	l := mustLayout(t, 512, 32, 8)
	left := NewEmpty(l, uint64(l.PageSize), NilOffset)
	right := NewEmpty(l, uint64(2*l.PageSize), NilOffset)

	for i := 0; i < l.RecordCount; i++ {
		left.Insert(rec(fmt.Sprintf("%08d", i), 32), false)
	}

	promote, err := left.SplitWith(right)
	if err != nil {
		t.Fatalf("SplitWith: %v", err)
	}

	floor := l.RecordCount / 2
	if left.Size() < floor {
		t.Errorf("left size %d below floor %d", left.Size(), floor)
	}
	if right.Size() < floor {
		t.Errorf("right size %d below floor %d", right.Size(), floor)
	}
	if left.Size()+right.Size() != l.RecordCount {
		t.Errorf("split lost records: left=%d right=%d total=%d", left.Size(), right.Size(), l.RecordCount)
	}
	if !bytes.Equal(promote, right.RecordAt(right.Min())) {
		t.Error("promote record should equal right's minimum record")
	}
	if left.NextOffset() != right.OwnOffset() {
		t.Errorf("left.next should point at right: got %d want %d", left.NextOffset(), right.OwnOffset())
	}
	if right.NextOffset() != NilOffset {
		t.Errorf("right.next should remain NilOffset, got %d", right.NextOffset())
	}

	// all records still globally ordered across the two pages
	leftRecs := left.Records()
	rightRecs := right.Records()
	if bytes.Compare(leftRecs[len(leftRecs)-1], rightRecs[0]) >= 0 {
		t.Error("left's max should be < right's min after split")
	}
}

func TestMergeWithRecombinesSplit(t *testing.T) {
	l := mustLayout(t, 512, 32, 8)
	left := NewEmpty(l, uint64(l.PageSize), NilOffset)
	right := NewEmpty(l, uint64(2*l.PageSize), NilOffset)

	total := l.RecordCount // SplitWith only splits a full page; both halves fit back into one
	for i := 0; i < total; i++ {
		left.Insert(rec(fmt.Sprintf("%08d", i), 32), false)
	}
	if _, err := left.SplitWith(right); err != nil {
		t.Fatalf("SplitWith: %v", err)
	}

	combinedBefore := left.Size() + right.Size()
	if err := left.MergeWith(right); err != nil {
		t.Fatalf("MergeWith: %v", err)
	}
	if left.Size() != combinedBefore {
		t.Errorf("merged size: got %d want %d", left.Size(), combinedBefore)
	}
	if right.Size() != 0 {
		t.Errorf("right should be empty after merge, got size %d", right.Size())
	}
	if left.NextOffset() != NilOffset {
		t.Errorf("merged page should inherit right's next offset (NilOffset), got %d", left.NextOffset())
	}
}

func TestBorrowFromRebalances(t *testing.T) {
	l := mustLayout(t, 512, 32, 8)
	left := NewEmpty(l, uint64(l.PageSize), NilOffset)
	right := NewEmpty(l, uint64(2*l.PageSize), NilOffset)

	for i := 0; i < 2; i++ {
		left.Insert(rec(fmt.Sprintf("%08d", i), 32), false)
	}
	for i := 2; i < l.RecordCount; i++ {
		right.Insert(rec(fmt.Sprintf("%08d", i), 32), false)
	}

	total := left.Size() + right.Size()
	newMin, err := left.BorrowFrom(right)
	if err != nil {
		t.Fatalf("BorrowFrom: %v", err)
	}

	floor := total / 2
	if left.Size() < floor || right.Size() < floor {
		t.Errorf("borrow imbalance: left=%d right=%d floor=%d", left.Size(), right.Size(), floor)
	}
	if !bytes.Equal(newMin, right.RecordAt(right.Min())) {
		t.Error("BorrowFrom should return right's new minimum")
	}
}

func TestFlushAndReadFromRoundTrips(t *testing.T) {
	l := mustLayout(t, 4096, 200, 20)
	dir := t.TempDir()
	path := filepath.Join(dir, "pages.bin")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	if err := f.Truncate(int64(2 * l.PageSize)); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	offset := uint64(l.PageSize)
	p := NewEmpty(l, offset, NilOffset)
	for i := 0; i < 10; i++ {
		p.Insert(rec(fmt.Sprintf("%04d", i), 200), false)
	}
	if err := p.Flush(f); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reloaded, err := ReadFrom(f, l, offset)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if reloaded.Size() != p.Size() {
		t.Fatalf("reloaded size: got %d want %d", reloaded.Size(), p.Size())
	}
	if reloaded.NextOffset() != p.NextOffset() {
		t.Errorf("reloaded next offset: got %d want %d", reloaded.NextOffset(), p.NextOffset())
	}
	for i, r := range reloaded.Records() {
		if !bytes.Equal(r, p.Records()[i]) {
			t.Errorf("record %d mismatch after round trip", i)
		}
	}
}
