package index

import (
	"bytes"
	"testing"
)

func k(s string) []byte { return []byte(s) }

func TestInitializePagesSeedsSentinelOnly(t *testing.T) {
	tree := New(32, false)
	tree.InitializePages(0)

	if tree.Len() != 1 {
		t.Fatalf("len: got %d want 1", tree.Len())
	}

	ref, sepKey, ok := tree.FindPage(k("anything"))
	if !ok || !ref.IsReal() || ref.Index() != 0 {
		t.Fatalf("FindPage should hit the newly resolved sentinel: ref=%v sepKey=%q ok=%v", ref, sepKey, ok)
	}
	if !bytes.Equal(sepKey, SentinelKey) {
		t.Errorf("sentinel key should stay empty, got %q", sepKey)
	}
}

func TestDemoteAndReviveSentinel(t *testing.T) {
	tree := New(32, false)
	tree.InitializePages(0)

	tree.DemoteSentinel(Real(0))
	if tree.Len() != 1 {
		t.Fatalf("len after demote: got %d want 1", tree.Len())
	}
	ref, _, ok := tree.FindPage(k("anything"))
	if !ok || ref.IsReal() {
		t.Fatalf("demoted sentinel should be Placeholder, got ref=%v ok=%v", ref, ok)
	}

	tree.ReviveSentinel(7)
	ref2, sepKey2, ok2 := tree.FindPage(k("anything"))
	if !ok2 || !ref2.IsReal() || ref2.Index() != 7 || !bytes.Equal(sepKey2, SentinelKey) {
		t.Fatalf("revived sentinel: ref=%v sepKey=%q ok=%v", ref2, sepKey2, ok2)
	}
}

func TestFindSeparatorByRef(t *testing.T) {
	tree := New(32, false)
	tree.InitializePages(0)
	tree.InsertPage(k("0010"), Real(1))
	tree.InsertPage(k("0020"), Real(2))

	key, ok := tree.FindSeparatorByRef(Real(2))
	if !ok || !bytes.Equal(key, k("0020")) {
		t.Fatalf("FindSeparatorByRef(Real(2)): key=%q ok=%v", key, ok)
	}
	if _, ok := tree.FindSeparatorByRef(Real(99)); ok {
		t.Fatal("FindSeparatorByRef for an absent ref should report not found")
	}
}

func TestInsertPageRejectsDuplicateKeyInSetMode(t *testing.T) {
	tree := New(32, false)
	if !tree.InsertPage(k("0010"), Real(1)) {
		t.Fatal("first insert should succeed")
	}
	if tree.InsertPage(k("0010"), Real(2)) {
		t.Fatal("duplicate key insert should fail in set mode")
	}
}

func TestInsertPageAllowsDuplicateKeyInMultisetMode(t *testing.T) {
	tree := New(32, true)
	if !tree.InsertPage(k("0010"), Real(1)) {
		t.Fatal("first insert should succeed")
	}
	if !tree.InsertPage(k("0010"), Real(2)) {
		t.Fatal("duplicate key insert should succeed in multiset mode when disambiguated by page index")
	}
	if tree.Len() != 2 {
		t.Fatalf("len: got %d want 2", tree.Len())
	}
}

func TestErasePageExactMatch(t *testing.T) {
	tree := New(32, true)
	tree.InsertPage(k("0010"), Real(1))
	tree.InsertPage(k("0010"), Real(2))

	if !tree.ErasePage(k("0010"), Real(1)) {
		t.Fatal("erase of existing (key, ref) pair should succeed")
	}
	if tree.ErasePage(k("0010"), Real(1)) {
		t.Fatal("second erase of the same pair should report not found")
	}
	if tree.Len() != 1 {
		t.Fatalf("len: got %d want 1", tree.Len())
	}
}

func TestFindPageCeil(t *testing.T) {
	tree := New(32, false)
	tree.InsertPage(k("0010"), Real(0))
	tree.InsertPage(k("0020"), Real(1))
	tree.InsertPage(k("0030"), Real(2))

	ref, sepKey, ok := tree.FindPageCeil(k("0015"))
	if !ok || !bytes.Equal(sepKey, k("0020")) || ref.Index() != 1 {
		t.Fatalf("FindPageCeil(0015): sepKey=%q ref=%v ok=%v", sepKey, ref, ok)
	}

	if _, _, ok := tree.FindPageCeil(k("0031")); ok {
		t.Fatal("FindPageCeil past the largest separator should report not found")
	}
}

func TestAscendOrdersByKeyThenRef(t *testing.T) {
	tree := New(32, true)
	tree.InsertPage(k("0020"), Real(5))
	tree.InsertPage(k("0010"), Real(1))
	tree.InsertPage(k("0010"), Real(0))

	var keys []string
	var refs []int32
	tree.Ascend(func(key []byte, ref PageRef) bool {
		keys = append(keys, string(key))
		refs = append(refs, ref.Index())
		return true
	})
	want := []string{"0010", "0010", "0020"}
	wantRefs := []int32{0, 1, 5}
	if len(keys) != len(want) {
		t.Fatalf("ascend len: got %d want %d", len(keys), len(want))
	}
	for i := range want {
		if keys[i] != want[i] || refs[i] != wantRefs[i] {
			t.Errorf("ascend[%d]: got %q/%d want %q/%d", i, keys[i], refs[i], want[i], wantRefs[i])
		}
	}
}

func TestEncodeDecodeRoundTrips(t *testing.T) {
	tree := New(32, true)
	tree.InitializePages(0)
	tree.InsertPage(k("0010"), Real(1))
	tree.InsertPage(k("0010"), Real(2))

	var buf bytes.Buffer
	if err := tree.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(&buf, 32, true)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Len() != tree.Len() {
		t.Fatalf("decoded len: got %d want %d", decoded.Len(), tree.Len())
	}

	var originalKeys, decodedKeys [][]byte
	tree.Ascend(func(key []byte, ref PageRef) bool { originalKeys = append(originalKeys, key); return true })
	decoded.Ascend(func(key []byte, ref PageRef) bool { decodedKeys = append(decodedKeys, key); return true })
	for i := range originalKeys {
		if !bytes.Equal(originalKeys[i], decodedKeys[i]) {
			t.Errorf("key %d mismatch: got %q want %q", i, decodedKeys[i], originalKeys[i])
		}
	}
}

func TestDecodeRejectsCorruptedDump(t *testing.T) {
	tree := New(32, false)
	tree.InitializePages(0)
	tree.InsertPage(k("0010"), Real(1))

	var buf bytes.Buffer
	if err := tree.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	corrupted := buf.Bytes()
	corrupted[len(corrupted)/2] ^= 0xFF

	if _, err := Decode(bytes.NewReader(corrupted), 32, false); err == nil {
		t.Fatal("Decode should reject a dump with a flipped payload byte")
	}
}
