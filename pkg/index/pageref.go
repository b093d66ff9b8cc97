package index

// PageRef names the leaf a separator points at: either a materialized page
// index or Placeholder, meaning "the branch below the next separator has no
// leaf yet; allocate one on first touch."
type PageRef struct {
	isReal bool
	index  int32
}

// Placeholder is the zero PageRef: no leaf behind this separator yet.
var Placeholder = PageRef{}

// Real wraps a live page index (offset / page size) as a PageRef.
func Real(pageIndex int32) PageRef {
	return PageRef{isReal: true, index: pageIndex}
}

// RefFromRaw interprets the source convention of -1 meaning Placeholder,
// any other value meaning a real page index.
func RefFromRaw(raw int32) PageRef {
	if raw < 0 {
		return Placeholder
	}
	return Real(raw)
}

// IsReal reports whether this descriptor names a materialized leaf.
func (r PageRef) IsReal() bool { return r.isReal }

// Index returns the page index. Only meaningful when IsReal is true.
func (r PageRef) Index() int32 { return r.index }

// Raw returns the on-disk/source encoding: -1 for Placeholder, the page
// index otherwise.
func (r PageRef) Raw() int32 {
	if !r.isReal {
		return -1
	}
	return r.index
}

func (r PageRef) tiebreak() int32 {
	if !r.isReal {
		return -1
	}
	return r.index
}
