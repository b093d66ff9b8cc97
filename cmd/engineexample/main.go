package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"fixedtree/pkg/common"
	"fixedtree/pkg/config"
	"fixedtree/pkg/engine"
)

func main() {
	dir, err := os.MkdirTemp("", "engineexample")
	if err != nil {
		log.Fatalf("mkdir temp: %v", err)
	}
	defer os.RemoveAll(dir)

	cfg := config.EngineConfig{
		PagesPath:  dir + "/pages.bin",
		IndexPath:  dir + "/btree.bin",
		PageSize:   4096,
		RecordSize: 64,
		KeySize:    16,
		Fanout:     32,
		MaxPages:   64,
		Multiset:   false,
	}

	fmt.Println("Opening engine...")
	eng, err := engine.Open(cfg)
	if err != nil {
		log.Fatalf("open engine: %v", err)
	}
	defer eng.Close()

	key := "order-10086"
	value := "Hello, fixedtree!"

	rec := make(common.Record, cfg.RecordSize)
	copy(rec, key)
	copy(rec[cfg.KeySize:], value)

	fmt.Printf("Inserting: Key=%s Value=%s\n", key, value)
	start := time.Now()
	if _, inserted, err := eng.Insert(rec); err != nil {
		log.Fatalf("insert failed: %v", err)
	} else if !inserted {
		log.Fatalf("insert reported an unexpected duplicate")
	}
	fmt.Printf("Insert done in %v\n", time.Since(start))

	searchKey := make(common.Record, cfg.RecordSize)
	copy(searchKey, key)

	fmt.Printf("Reading Key=%s...\n", key)
	start = time.Now()
	c, err := eng.Search(searchKey)
	if err != nil {
		log.Fatalf("search failed: %v", err)
	}
	if c.IsEnd() {
		log.Fatalf("search found nothing for key %q", key)
	}
	got, err := eng.Record(c)
	if err != nil {
		log.Fatalf("dereference failed: %v", err)
	}
	fmt.Printf("Got Value: %s (in %v)\n", string(got[cfg.KeySize:]), time.Since(start))

	fmt.Println("Closing engine...")
}
