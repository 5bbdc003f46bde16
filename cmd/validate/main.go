// Command validate checks a published snapshot against the connector files it
// was built from: every valid record is accounted for exactly once, station
// ordering and ids are stable, per-station fields are consistent, and a fresh
// merge of the same inputs reproduces the snapshot.
//
// Merge thresholds come from the same environment variables as the service
// (MATCH_RADIUS_METERS, SOURCE_PRIORITY, ...).
//
// Usage:
//
//	go run ./cmd/validate \
//	  -data-dir data/processed \
//	  -snapshot data/stations__merged.json
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/couchcryptid/charging-station-etl/internal/adapter/file"
	"github.com/couchcryptid/charging-station-etl/internal/config"
	"github.com/couchcryptid/charging-station-etl/internal/domain"
	"github.com/couchcryptid/charging-station-etl/internal/merge"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// maxReported caps the detailed errors printed per phase.
const maxReported = 25

func main() {
	dataDir := flag.String("data-dir", "", "directory containing <SOURCE>__processed.json files")
	snapshotPath := flag.String("snapshot", "", "path to the merged snapshot JSON")
	flag.Parse()

	if *dataDir == "" || *snapshotPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(os.Stdout, *dataDir, *snapshotPath); code != 0 {
		os.Exit(code)
	}
}

func run(out io.Writer, dataDir, snapshotPath string) int {
	fmt.Fprintln(out, "=== Charging Station Snapshot Validation ===")
	fmt.Fprintln(out)

	opts, err := config.LoadMergeOptions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: merge options: %v\n", err)
		return 1
	}

	logger := slog.New(slog.DiscardHandler)
	input, err := file.NewReader(dataDir, logger).Extract(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load source files: %v\n", err)
		return 1
	}

	snapshot, err := file.ReadSnapshot(snapshotPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load snapshot: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateProvenance(input, snapshot.Stations),
		validateOrdering(snapshot.Stations),
		validateStationFields(snapshot.Stations, opts.MatchRadiusMeters),
		validateReproducible(input, snapshot.Stations, opts),
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d input across %d sources, %d canonical stations\n",
		countRecords(input), len(input), len(snapshot.Stations))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxReported {
				fmt.Fprintf(out, "  ... %d more\n", len(p.errors)-maxReported)
				break
			}
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func countRecords(input map[domain.SourceID][]domain.Record) int {
	n := 0
	for _, recs := range input {
		n += len(recs)
	}
	return n
}

// ── Phase 1: provenance coverage ──

// validateProvenance checks that every valid input record appears in exactly
// one station's provenance and that provenance names no unknown record.
func validateProvenance(input map[domain.SourceID][]domain.Record, stations []domain.CanonicalStation) *phase {
	p := &phase{name: "Phase 1: Provenance coverage"}

	valid := make(map[domain.NaturalKey]bool)
	for _, recs := range input {
		for _, r := range recs {
			if r.Validate() == nil {
				valid[r.Key()] = true
			}
		}
	}

	seen := make(map[domain.NaturalKey]string)
	for i := range stations {
		st := &stations[i]
		if len(st.Provenance) == 0 {
			p.errorf("station %s: empty provenance", st.ID)
		}
		for _, k := range st.Provenance {
			if other, dup := seen[k]; dup {
				p.errorf("record %s in stations %s and %s", k, other, st.ID)
				continue
			}
			seen[k] = st.ID
			if !valid[k] {
				p.errorf("station %s: provenance %s is not a valid input record", st.ID, k)
			}
		}
	}

	missing := make([]domain.NaturalKey, 0)
	for k := range valid {
		if _, ok := seen[k]; !ok {
			missing = append(missing, k)
		}
	}
	slices.SortFunc(missing, func(a, b domain.NaturalKey) int {
		if a.Less(b) {
			return -1
		}
		if b.Less(a) {
			return 1
		}
		return 0
	})
	for _, k := range missing {
		p.errorf("record %s not in any station", k)
	}

	return p
}

// ── Phase 2: ordering and ids ──

func validateOrdering(stations []domain.CanonicalStation) *phase {
	p := &phase{name: "Phase 2: Ordering and ids"}

	for i := range stations {
		st := &stations[i]
		if st.ID == "" {
			p.errorf("station %d: empty id", i)
		}
		if i > 0 && stations[i-1].ID >= st.ID {
			p.errorf("stations out of order or duplicated: %s before %s", stations[i-1].ID, st.ID)
		}
		for j := 1; j < len(st.Provenance); j++ {
			if !st.Provenance[j-1].Less(st.Provenance[j]) {
				p.errorf("station %s: provenance not sorted at %s", st.ID, st.Provenance[j])
			}
		}
		sources := make(map[domain.SourceID]bool)
		for _, k := range st.Provenance {
			sources[k.Source] = true
		}
		if len(sources) != len(st.Sources) {
			p.errorf("station %s: %d sources listed, provenance has %d", st.ID, len(st.Sources), len(sources))
		}
		for _, s := range st.Sources {
			if !sources[s] {
				p.errorf("station %s: source %s has no provenance record", st.ID, s)
			}
		}
	}

	return p
}

// ── Phase 3: per-station fields ──

func validateStationFields(stations []domain.CanonicalStation, radius float64) *phase {
	p := &phase{name: "Phase 3: Station fields"}

	for i := range stations {
		st := &stations[i]
		if !domain.ValidCoordinates(st.Latitude, st.Longitude) {
			p.errorf("station %s: invalid coordinates %v,%v", st.ID, st.Latitude, st.Longitude)
		}
		if !strictlyAscending(st.PowerKW) {
			p.errorf("station %s: power_kw not strictly ascending", st.ID)
		}
		if !strictlyAscending(st.AmperageA) {
			p.errorf("station %s: amperage_a not strictly ascending", st.ID)
		}
		if !strictlyAscending(st.VoltageV) {
			p.errorf("station %s: voltage_v not strictly ascending", st.ID)
		}
		if st.TotalKW < 0 {
			p.errorf("station %s: negative total_kw %v", st.ID, st.TotalKW)
		}
		switch {
		case len(st.PowerKW) == 0 && st.MaxKW != 0:
			p.errorf("station %s: max_kw %v without power_kw", st.ID, st.MaxKW)
		case len(st.PowerKW) > 0 && st.MaxKW != st.PowerKW[len(st.PowerKW)-1]:
			p.errorf("station %s: max_kw %v, largest power_kw %v", st.ID, st.MaxKW, st.PowerKW[len(st.PowerKW)-1])
		}
		if st.Capacity < 0 {
			p.errorf("station %s: negative capacity %d", st.ID, st.Capacity)
		}
		if st.SpreadMeters < 0 {
			p.errorf("station %s: negative spread", st.ID)
		}
		if st.WideSpread {
			if len(st.Provenance) < 2 {
				p.errorf("station %s: single-record station flagged wide-spread", st.ID)
			}
		} else if st.SpreadMeters > radius {
			p.errorf("station %s: spread %.1fm exceeds %.1fm but not flagged", st.ID, st.SpreadMeters, radius)
		}
	}

	return p
}

func strictlyAscending(values []float64) bool {
	for j := 1; j < len(values); j++ {
		if values[j-1] >= values[j] {
			return false
		}
	}
	return true
}

// ── Phase 4: reproducibility ──

// validateReproducible re-merges the inputs and compares the result with the
// snapshot station by station.
func validateReproducible(input map[domain.SourceID][]domain.Record, stations []domain.CanonicalStation, opts merge.Options) *phase {
	p := &phase{name: "Phase 4: Reproducible merge"}

	m, err := merge.New(opts, nil)
	if err != nil {
		p.errorf("merge options: %v", err)
		return p
	}
	res, err := m.Merge(input)
	if err != nil {
		p.errorf("merge: %v", err)
		return p
	}

	if len(res.Stations) != len(stations) {
		p.errorf("re-merge produced %d stations, snapshot has %d", len(res.Stations), len(stations))
	}

	byID := make(map[string]domain.CanonicalStation, len(res.Stations))
	for _, st := range res.Stations {
		byID[st.ID] = st
	}
	for i := range stations {
		want, ok := byID[stations[i].ID]
		if !ok {
			p.errorf("station %s not produced by re-merge", stations[i].ID)
			continue
		}
		if diff := cmp.Diff(want, stations[i], cmpopts.EquateEmpty()); diff != "" {
			p.errorf("station %s differs from re-merge (-want +got):\n%s", stations[i].ID, diff)
		}
	}

	return p
}
