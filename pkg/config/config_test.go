package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	_, err := Load("/nonexistent/path/fixedtree.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent path")
	}
	// Load with empty path uses default search (may use defaults if no config file)
	cfg, _ := Load("")
	if cfg.Engine.PageSize != 4096 {
		t.Errorf("default page_size: got %d", cfg.Engine.PageSize)
	}
	if cfg.Engine.RecordSize != 200 {
		t.Errorf("default record_size: got %d", cfg.Engine.RecordSize)
	}
	if cfg.Engine.MaxPages != 64 {
		t.Errorf("default max_pages: got %d", cfg.Engine.MaxPages)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	content := `
engine:
  pages_path: "test_data/pages.bin"
  index_path: "test_data/btree.bin"
  page_size: 8192
  record_size: 64
  key_size: 8
  fanout: 16
  max_pages: 8
  multiset: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.PageSize != 8192 {
		t.Errorf("page_size: got %d", cfg.Engine.PageSize)
	}
	if cfg.Engine.RecordSize != 64 {
		t.Errorf("record_size: got %d", cfg.Engine.RecordSize)
	}
	if cfg.Engine.KeySize != 8 {
		t.Errorf("key_size: got %d", cfg.Engine.KeySize)
	}
	if cfg.Engine.Fanout != 16 {
		t.Errorf("fanout: got %d", cfg.Engine.Fanout)
	}
	if cfg.Engine.MaxPages != 8 {
		t.Errorf("max_pages: got %d", cfg.Engine.MaxPages)
	}
	if !cfg.Engine.Multiset {
		t.Errorf("multiset: got false")
	}
}

func TestApplyEngineDefaultsFillsZeroValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.yaml")
	content := `
engine:
  key_size: 4
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.KeySize != 4 {
		t.Errorf("key_size: got %d", cfg.Engine.KeySize)
	}
	if cfg.Engine.PageSize != 4096 {
		t.Errorf("expected default page_size to fill in, got %d", cfg.Engine.PageSize)
	}
	if cfg.Engine.MaxPages != 64 {
		t.Errorf("expected default max_pages to fill in, got %d", cfg.Engine.MaxPages)
	}
}
