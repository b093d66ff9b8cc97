package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ncruces/go-strftime"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"fixedtree/pkg/common"
	"fixedtree/pkg/config"
	"fixedtree/pkg/engine"
)

// WorkloadType names one of the mixed-operation distributions this tool
// drives the engine through.
type WorkloadType string

const (
	sequentialInsert WorkloadType = "sequential-insert"
	randomLookup     WorkloadType = "random-lookup-90-10"
	rangeScan        WorkloadType = "range-scan"
	eraseChurn       WorkloadType = "erase-churn"
)

// sample is one measured operation: its kind, latency, and the page-fill
// fraction of the engine at the moment it ran.
type sample struct {
	workload WorkloadType
	latency  time.Duration
	pageFill float64
}

func main() {
	configPath := flag.String("config", "", "path to engine config YAML")
	ops := flag.Int("ops", 20000, "operations per workload")
	csvPath := flag.String("csv", "enginebench_results.csv", "output CSV path")
	chartPath := flag.String("chart", "enginebench_latency.png", "output latency-vs-fill chart path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	dir, err := os.MkdirTemp("", "enginebench")
	if err != nil {
		log.Fatalf("mkdir temp: %v", err)
	}
	defer os.RemoveAll(dir)
	cfg.Engine.PagesPath = dir + "/pages.bin"
	cfg.Engine.IndexPath = dir + "/btree.bin"

	eng, err := engine.Open(cfg.Engine)
	if err != nil {
		log.Fatalf("open engine: %v", err)
	}
	defer eng.Close()

	var samples []sample
	samples = append(samples, runSequentialInsert(eng, cfg.Engine, *ops)...)
	samples = append(samples, runRandomLookup(eng, cfg.Engine, *ops)...)
	samples = append(samples, runRangeScan(eng, cfg.Engine, *ops/10)...)
	samples = append(samples, runEraseChurn(eng, cfg.Engine, *ops/2)...)

	if err := writeCSV(*csvPath, samples); err != nil {
		log.Fatalf("write csv: %v", err)
	}
	if err := writeChart(*chartPath, samples); err != nil {
		log.Fatalf("write chart: %v", err)
	}

	info, _ := os.Stat(cfg.Engine.PagesPath)
	var pagesBytes uint64
	if info != nil {
		pagesBytes = uint64(info.Size())
	}
	fmt.Printf("ran %d operations across %d workloads, page file grew to %s\n",
		len(samples), 4, humanize.Bytes(pagesBytes))
	fmt.Printf("results: %s\n", *csvPath)
	fmt.Printf("chart:   %s\n", *chartPath)
}

func keyFor(i int, cfg config.EngineConfig) common.Key {
	k := make(common.Key, cfg.KeySize)
	copy(k, []byte(fmt.Sprintf("%0*d", cfg.KeySize, i)))
	return k
}

func recordFor(i int, cfg config.EngineConfig) common.Record {
	r := make(common.Record, cfg.RecordSize)
	copy(r, keyFor(i, cfg))
	return r
}

func pageFillFraction(eng *engine.Engine, cfg config.EngineConfig) float64 {
	info, err := os.Stat(cfg.PagesPath)
	if err != nil || info.Size() == 0 {
		return 0
	}
	maxBytes := float64(cfg.MaxPages * cfg.PageSize)
	return float64(info.Size()) / maxBytes
}

func runSequentialInsert(eng *engine.Engine, cfg config.EngineConfig, ops int) []sample {
	out := make([]sample, 0, ops)
	for i := 0; i < ops; i++ {
		start := time.Now()
		if _, _, err := eng.Insert(recordFor(i, cfg)); err != nil {
			log.Printf("sequential insert %d: %v", i, err)
			continue
		}
		out = append(out, sample{sequentialInsert, time.Since(start), pageFillFraction(eng, cfg)})
	}
	return out
}

func runRandomLookup(eng *engine.Engine, cfg config.EngineConfig, ops int) []sample {
	out := make([]sample, 0, ops)
	n := eng.Size()
	if n == 0 {
		return out
	}
	for i := 0; i < ops; i++ {
		key := rand.Intn(n)
		start := time.Now()
		if rand.Intn(100) < 90 {
			_, err := eng.Search(recordFor(key, cfg))
			if err != nil {
				log.Printf("random lookup %d: %v", key, err)
				continue
			}
		} else {
			if _, _, err := eng.Insert(recordFor(n+i, cfg)); err != nil {
				log.Printf("random lookup insert %d: %v", key, err)
				continue
			}
		}
		out = append(out, sample{randomLookup, time.Since(start), pageFillFraction(eng, cfg)})
	}
	return out
}

func runRangeScan(eng *engine.Engine, cfg config.EngineConfig, ops int) []sample {
	out := make([]sample, 0, ops)
	n := eng.Size()
	if n == 0 {
		return out
	}
	for i := 0; i < ops; i++ {
		lo := rand.Intn(n)
		hi := lo + 100
		start := time.Now()
		if _, err := eng.Scan(keyFor(lo, cfg), keyFor(hi, cfg)); err != nil {
			log.Printf("range scan [%d,%d]: %v", lo, hi, err)
			continue
		}
		out = append(out, sample{rangeScan, time.Since(start), pageFillFraction(eng, cfg)})
	}
	return out
}

func runEraseChurn(eng *engine.Engine, cfg config.EngineConfig, ops int) []sample {
	out := make([]sample, 0, ops)
	n := eng.Size()
	for i := 0; i < ops && i < n; i++ {
		start := time.Now()
		if _, err := eng.Erase(recordFor(i, cfg)); err != nil {
			log.Printf("erase churn %d: %v", i, err)
			continue
		}
		out = append(out, sample{eraseChurn, time.Since(start), pageFillFraction(eng, cfg)})
	}
	return out
}

func writeCSV(path string, samples []sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(f, "# run started %s\n", strftime.Format("%Y-%m-%d %H:%M:%S", time.Now()))

	w := csv.NewWriter(f)
	defer w.Flush()
	w.Write([]string{"workload", "latency_ns", "page_fill"})
	for _, s := range samples {
		w.Write([]string{
			string(s.workload),
			strconv.FormatInt(s.latency.Nanoseconds(), 10),
			strconv.FormatFloat(s.pageFill, 'f', 4, 64),
		})
	}
	return w.Error()
}

func writeChart(path string, samples []sample) error {
	p := plot.New()
	p.Title.Text = "engine latency vs page fill"
	p.X.Label.Text = "page fill fraction"
	p.Y.Label.Text = "latency (microseconds)"

	byWorkload := map[WorkloadType]plotter.XYs{}
	for _, s := range samples {
		byWorkload[s.workload] = append(byWorkload[s.workload], plotter.XY{
			X: s.pageFill,
			Y: float64(s.latency.Microseconds()),
		})
	}

	for _, wl := range []WorkloadType{sequentialInsert, randomLookup, rangeScan, eraseChurn} {
		pts := byWorkload[wl]
		if len(pts) == 0 {
			continue
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("enginebench: scatter for %s: %w", wl, err)
		}
		p.Add(scatter)
		p.Legend.Add(string(wl), scatter)
	}

	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}
