// Command genmock writes deterministic connector output files for local runs
// and integration tests. It merges the generated data with the real merge
// package and prints the counts the tests assert against.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out-dir data/processed \
//	  -stations 500 \
//	  -seed 42
package main

import (
	"flag"
	"fmt"
	"log"
	"sort"

	"github.com/couchcryptid/charging-station-etl/internal/domain"
	"github.com/couchcryptid/charging-station-etl/internal/merge"
	"github.com/couchcryptid/charging-station-etl/internal/mockdata"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "", "directory to write <SOURCE>__processed.json files into")
	stations := flag.Int("stations", 200, "number of physical stations to generate")
	seed := flag.Uint64("seed", 42, "random seed; the same seed always yields the same files")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out-dir")
	}
	if *stations <= 0 {
		return fmt.Errorf("-stations must be positive, got %d", *stations)
	}

	ds := mockdata.Generate(*seed, *stations)
	input := ds.Input()

	paths, err := mockdata.WriteFiles(*outDir, input)
	if err != nil {
		return fmt.Errorf("writing source files: %w", err)
	}
	for _, p := range paths {
		log.Printf("wrote %s", p)
	}

	m, err := merge.New(merge.DefaultOptions(), nil)
	if err != nil {
		return err
	}
	res, err := m.Merge(input)
	if err != nil {
		return fmt.Errorf("merging generated data: %w", err)
	}

	printStats(ds, input, res)
	return nil
}

func printStats(ds mockdata.Dataset, input map[domain.SourceID][]domain.Record, res merge.Result) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Physical stations: %d (reported with a valid record: %d)\n", len(ds.Stations), ds.Reported())

	sources := make([]domain.SourceID, 0, len(input))
	for s := range input {
		sources = append(sources, s)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
	fmt.Print("Records by source:")
	for _, s := range sources {
		fmt.Printf(" %s=%d", s, len(input[s]))
	}
	fmt.Println()

	fmt.Printf("Input records: %d\n", res.InputRecords)
	fmt.Printf("Rejected: %d\n", res.Rejected())
	fmt.Printf("Canonical stations: %d\n", len(res.Stations))
	fmt.Printf("Wide-spread groups: %d\n", res.WideSpreadGroups)

	bySourceCount := map[int]int{}
	dc := 0
	for i := range res.Stations {
		bySourceCount[len(res.Stations[i].Sources)]++
		if res.Stations[i].DCSupport {
			dc++
		}
	}
	fmt.Printf("By source count: 1=%d, 2=%d, 3=%d\n", bySourceCount[1], bySourceCount[2], bySourceCount[3])
	fmt.Printf("DC capable: %d\n", dc)
}
