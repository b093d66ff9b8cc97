package engine

import (
	"bytes"
	"fmt"

	"fixedtree/pkg/common"
)

// Scan returns every live record with key in [loKey, hiKey], in ascending
// order. An empty hiKey is treated as no upper bound.
func (e *Engine) Scan(loKey, hiKey common.Key) ([]common.Record, error) {
	if len(loKey) != e.cfg.KeySize {
		return nil, fmt.Errorf("%w: loKey length %d, want %d", ErrInvalidArgument, len(loKey), e.cfg.KeySize)
	}
	if len(hiKey) != 0 && len(hiKey) != e.cfg.KeySize {
		return nil, fmt.Errorf("%w: hiKey length %d, want %d", ErrInvalidArgument, len(hiKey), e.cfg.KeySize)
	}

	c, err := e.SearchLB(loKey)
	if err != nil {
		return nil, err
	}

	var out []common.Record
	for !c.IsEnd() {
		rec, err := e.Record(c)
		if err != nil {
			return nil, err
		}
		if len(hiKey) != 0 && bytes.Compare(rec[:e.cfg.KeySize], hiKey) > 0 {
			break
		}
		out = append(out, rec)
		c = e.Next(c)
	}
	return out, nil
}
