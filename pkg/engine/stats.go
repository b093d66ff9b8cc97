package engine

import "sync/atomic"

// Stats counts the operations an Engine has performed since it was opened.
// Counters are updated with atomic ops so a Stats snapshot can be read safely
// from a goroutine other than the one driving the engine, even though the
// engine's own operations are not safe for concurrent use.
type Stats struct {
	ReadCount   uint64
	WriteCount  uint64
	SplitCount  uint64
	MergeCount  uint64
	BorrowCount uint64
}

func (s *Stats) recordRead()   { atomic.AddUint64(&s.ReadCount, 1) }
func (s *Stats) recordWrite()  { atomic.AddUint64(&s.WriteCount, 1) }
func (s *Stats) recordSplit()  { atomic.AddUint64(&s.SplitCount, 1) }
func (s *Stats) recordMerge()  { atomic.AddUint64(&s.MergeCount, 1) }
func (s *Stats) recordBorrow() { atomic.AddUint64(&s.BorrowCount, 1) }

// ReadWriteRatio reports reads per write, matching the definition the
// teacher's workload monitor used: 100 if there have been reads but no
// writes yet, 0 if there have been neither.
func (s *Stats) ReadWriteRatio() float64 {
	reads := atomic.LoadUint64(&s.ReadCount)
	writes := atomic.LoadUint64(&s.WriteCount)
	if writes == 0 {
		if reads > 0 {
			return 100.0
		}
		return 0.0
	}
	return float64(reads) / float64(writes)
}

// Stats returns the engine's live operation counters.
func (e *Engine) Stats() *Stats { return e.stats }
