package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"fixedtree/pkg/common"
	"fixedtree/pkg/config"
	"fixedtree/pkg/engine"
)

const prompt = "fixedtree> "

func main() {
	configPath := flag.String("config", "", "path to engine config YAML (defaults searched if omitted)")
	pagesPath := flag.String("pages", "", "override pages_path from config")
	indexPath := flag.String("index", "", "override index_path from config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *pagesPath != "" {
		cfg.Engine.PagesPath = *pagesPath
	}
	if *indexPath != "" {
		cfg.Engine.IndexPath = *indexPath
	}

	eng, err := engine.Open(cfg.Engine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open engine: %v\n", err)
		os.Exit(1)
	}
	defer eng.Close()

	interactive := isatty.IsTerminal(os.Stdin.Fd())
	if interactive {
		fmt.Printf("fixedtree engine CLI (pages=%s index=%s key_size=%d record_size=%d)\n",
			cfg.Engine.PagesPath, cfg.Engine.IndexPath, cfg.Engine.KeySize, cfg.Engine.RecordSize)
		fmt.Println("Type 'help' for commands.")
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Print(prompt)
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])

		switch cmd {
		case "put", "insert":
			handlePut(eng, cfg.Engine, parts)
		case "get":
			handleGet(eng, cfg.Engine, parts)
		case "del", "erase":
			handleDel(eng, cfg.Engine, parts)
		case "scan":
			handleScan(eng, cfg.Engine, parts)
		case "size":
			fmt.Println(eng.Size())
		case "stats":
			handleStats(eng, cfg.Engine)
		case "help":
			printHelp()
		case "exit", "quit":
			return
		default:
			fmt.Printf("unknown command %q, type 'help'\n", cmd)
		}
	}
}

func padKey(raw string, size int) (common.Key, error) {
	if len(raw) > size {
		return nil, fmt.Errorf("key %q longer than key_size %d", raw, size)
	}
	k := make(common.Key, size)
	copy(k, raw)
	return k, nil
}

func buildRecord(keyRaw, valueRaw string, cfg config.EngineConfig) (common.Record, error) {
	key, err := padKey(keyRaw, cfg.KeySize)
	if err != nil {
		return nil, err
	}
	if len(valueRaw) > cfg.RecordSize-cfg.KeySize {
		return nil, fmt.Errorf("value too long: %d bytes, room for %d", len(valueRaw), cfg.RecordSize-cfg.KeySize)
	}
	rec := make(common.Record, cfg.RecordSize)
	copy(rec, key)
	copy(rec[cfg.KeySize:], valueRaw)
	return rec, nil
}

func handlePut(eng *engine.Engine, cfg config.EngineConfig, parts []string) {
	if len(parts) < 3 {
		fmt.Println("usage: put <key> <value>")
		return
	}
	rec, err := buildRecord(parts[1], strings.Join(parts[2:], " "), cfg)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	start := time.Now()
	_, inserted, err := eng.Insert(rec)
	dur := time.Since(start)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if !inserted {
		fmt.Printf("key already present (%v)\n", dur)
		return
	}
	fmt.Printf("ok (%v)\n", dur)
}

func handleGet(eng *engine.Engine, cfg config.EngineConfig, parts []string) {
	if len(parts) < 2 {
		fmt.Println("usage: get <key>")
		return
	}
	key, err := padKey(parts[1], cfg.KeySize)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	rec := make(common.Record, cfg.RecordSize)
	copy(rec, key)

	start := time.Now()
	c, err := eng.Search(rec)
	dur := time.Since(start)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if c.IsEnd() {
		fmt.Printf("not found (%v)\n", dur)
		return
	}
	got, err := eng.Record(c)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("%q (%v)\n", string(got[cfg.KeySize:]), dur)
}

func handleDel(eng *engine.Engine, cfg config.EngineConfig, parts []string) {
	if len(parts) < 2 {
		fmt.Println("usage: del <key>")
		return
	}
	key, err := padKey(parts[1], cfg.KeySize)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	rec := make(common.Record, cfg.RecordSize)
	copy(rec, key)

	start := time.Now()
	_, err = eng.Erase(rec)
	dur := time.Since(start)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("ok (%v)\n", dur)
}

func handleScan(eng *engine.Engine, cfg config.EngineConfig, parts []string) {
	if len(parts) < 3 {
		fmt.Println("usage: scan <lo_key> <hi_key>")
		return
	}
	lo, err := padKey(parts[1], cfg.KeySize)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	hi, err := padKey(parts[2], cfg.KeySize)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	start := time.Now()
	recs, err := eng.Scan(lo, hi)
	dur := time.Since(start)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("%d records (%v)\n", len(recs), dur)
	limit := len(recs)
	if limit > 20 {
		limit = 20
	}
	for _, rec := range recs[:limit] {
		fmt.Printf("  %s -> %q\n", strconv.Quote(string(rec[:cfg.KeySize])), string(rec[cfg.KeySize:]))
	}
	if len(recs) > limit {
		fmt.Printf("  ... and %d more\n", len(recs)-limit)
	}
}

func handleStats(eng *engine.Engine, cfg config.EngineConfig) {
	info, err := os.Stat(cfg.PagesPath)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	s := eng.Stats()
	fmt.Printf("page file: %s (%s)\n", cfg.PagesPath, humanize.Bytes(uint64(info.Size())))
	fmt.Printf("reads=%d writes=%d splits=%d merges=%d borrows=%d read/write ratio=%.2f\n",
		s.ReadCount, s.WriteCount, s.SplitCount, s.MergeCount, s.BorrowCount, s.ReadWriteRatio())
}

func printHelp() {
	fmt.Println(`
commands:
  put <key> <value>     insert or no-op if key exists (set mode) / append (multiset mode)
  get <key>             point lookup
  del <key>             erase first match
  scan <lo> <hi>        ascending range query, inclusive
  size                  live record count
  stats                 page file size on disk and operation counters
  exit                  quit
`)
}
