// Package engine ties LeafPage, BufferPool and IndexTree into the ordered
// key-record map the rest of the module exposes: a disk-backed, B+tree-like
// store with an in-memory separator structure and fixed-size leaf pages
// persisted in a single page file.
package engine

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"fixedtree/pkg/common"
	"fixedtree/pkg/config"
	"fixedtree/pkg/index"
	"fixedtree/pkg/page"
	"fixedtree/pkg/pool"
)

// ErrInvalidArgument is returned for malformed caller input: a record of
// the wrong width, or a construction parameter outside its documented
// bounds.
var ErrInvalidArgument = errors.New("engine: invalid argument")

// ErrPoolExhausted is re-exported from pool so callers need not import it
// directly to catch it.
var ErrPoolExhausted = pool.ErrPoolExhausted

// Engine is the top-level ordered key-record store. It is not safe for
// concurrent use: every operation runs to completion on the calling
// goroutine, matching the single-threaded cooperative model the teacher's
// in-process stores also assume.
type Engine struct {
	id uuid.UUID

	cfg    config.EngineConfig
	layout page.Layout

	pool *pool.BufferPool
	tree *index.IndexTree

	size  int
	stats *Stats
}

// Open creates or reopens an engine at the paths named in cfg. An absent
// page file is created; an absent index file starts an empty index, which is
// written out on Close. An existing index file is decoded and the live record
// count is recomputed by walking every leaf.
func Open(cfg config.EngineConfig) (*Engine, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	layout, err := page.NewLayout(cfg.PageSize, cfg.RecordSize, cfg.KeySize)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	bp, err := pool.Open(cfg.PagesPath, layout, cfg.MaxPages)
	if err != nil {
		return nil, fmt.Errorf("engine: open page file: %w", err)
	}

	tree, err := loadOrCreateIndex(cfg)
	if err != nil {
		bp.Close()
		return nil, err
	}

	eng := &Engine{
		id:     uuid.New(),
		cfg:    cfg,
		layout: layout,
		pool:   bp,
		tree:   tree,
		stats:  &Stats{},
	}

	eng.size = eng.recount()
	log.Printf("engine[%s]: opened pages=%s index=%s size=%d", eng.id, cfg.PagesPath, cfg.IndexPath, eng.size)
	return eng, nil
}

func validate(cfg config.EngineConfig) error {
	if cfg.KeySize < 1 {
		return fmt.Errorf("%w: key_size must be >= 1", ErrInvalidArgument)
	}
	if cfg.RecordSize < cfg.KeySize {
		return fmt.Errorf("%w: record_size must be >= key_size", ErrInvalidArgument)
	}
	if cfg.PageSize < cfg.RecordSize+16 {
		return fmt.Errorf("%w: page_size must be >= record_size+16", ErrInvalidArgument)
	}
	if cfg.MaxPages < 4 {
		return fmt.Errorf("%w: max_pages must be >= 4", ErrInvalidArgument)
	}
	if cfg.Fanout < 2 {
		return fmt.Errorf("%w: fanout must be >= 2", ErrInvalidArgument)
	}
	if cfg.PagesPath == "" || cfg.IndexPath == "" {
		return fmt.Errorf("%w: pages_path and index_path must be set", ErrInvalidArgument)
	}
	return nil
}

func loadOrCreateIndex(cfg config.EngineConfig) (*index.IndexTree, error) {
	f, err := os.Open(cfg.IndexPath)
	if errors.Is(err, os.ErrNotExist) {
		return index.New(cfg.Fanout, cfg.Multiset), nil
	}
	if err != nil {
		return nil, fmt.Errorf("engine: open index file: %w", err)
	}
	defer f.Close()

	tree, err := index.Decode(f, cfg.Fanout, cfg.Multiset)
	if err != nil {
		return nil, fmt.Errorf("engine: decode index file: %w", err)
	}
	return tree, nil
}

// recount walks every live leaf and sums its occupancy, used to recompute
// size after reopening an existing engine.
func (e *Engine) recount() int {
	total := 0
	e.tree.Ascend(func(key []byte, ref index.PageRef) bool {
		if !ref.IsReal() {
			return true
		}
		h, err := e.pool.GetPage(e.offsetOf(ref.Index()), nil)
		if err != nil {
			log.Printf("engine[%s]: recount: %v", e.id, err)
			return true
		}
		total += h.Page().Size()
		h.Release()
		return true
	})
	return total
}

// Size returns the number of live records across all leaves.
func (e *Engine) Size() int { return e.size }

func (e *Engine) pageIndexOf(offset uint64) int32 {
	return int32(offset / uint64(e.layout.PageSize))
}

func (e *Engine) offsetOf(pageIndex int32) uint64 {
	return uint64(pageIndex) * uint64(e.layout.PageSize)
}

// Close persists the index file and the page file header, then releases
// both underlying files.
func (e *Engine) Close() error {
	f, err := os.OpenFile(e.cfg.IndexPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("engine: create index file: %w", err)
	}
	if err := e.tree.Encode(f); err != nil {
		f.Close()
		return fmt.Errorf("engine: encode index file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("engine: close index file: %w", err)
	}

	if err := e.pool.Close(); err != nil {
		return fmt.Errorf("engine: close page file: %w", err)
	}
	log.Printf("engine[%s]: closed, final size=%d", e.id, e.size)
	return nil
}

func (e *Engine) checkRecord(record common.Record) error {
	if len(record) != e.cfg.RecordSize {
		return fmt.Errorf("%w: record length %d, want %d", ErrInvalidArgument, len(record), e.cfg.RecordSize)
	}
	return nil
}
