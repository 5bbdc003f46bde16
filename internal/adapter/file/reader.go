package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/charging-station-etl/internal/domain"
)

// ProcessedSuffix marks connector output files: "<SOURCE>__processed.json".
const ProcessedSuffix = "__processed.json"

// Reader loads connector output files from a data directory.
// It implements pipeline.SnapshotExtractor.
type Reader struct {
	dir    string
	logger *slog.Logger
}

// NewReader creates a Reader over dir.
func NewReader(dir string, logger *slog.Logger) *Reader {
	return &Reader{dir: dir, logger: logger}
}

// Extract reads every processed file in the data directory. Files prefixed
// with "test_" are fixtures and skipped. Each file must hold a JSON array of
// records; source ids are normalized and records without one inherit the
// source in the file name.
func (r *Reader) Extract(ctx context.Context) (map[domain.SourceID][]domain.Record, error) {
	files, err := r.sourceFiles()
	if err != nil {
		return nil, err
	}

	out := make(map[domain.SourceID][]domain.Record, len(files))
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		source := SourceFromFileName(name)
		records, err := readRecords(filepath.Join(r.dir, name))
		if err != nil {
			return nil, err
		}
		for i := range records {
			records[i].SourceID = domain.ParseSourceID(string(records[i].SourceID))
			if records[i].SourceID == "" {
				records[i].SourceID = source
			}
		}
		out[source] = append(out[source], records...)
		r.logger.Debug("source file loaded", "file", name, "source", source, "records", len(records))
	}

	if len(out) == 0 {
		r.logger.Warn("no processed source files found", "dir", r.dir)
	}
	return out, nil
}

func (r *Reader) sourceFiles() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ProcessedSuffix) || strings.HasPrefix(name, "test_") {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}

// SourceFromFileName returns the source id encoded in a processed file name,
// e.g. "ocm__processed.json" -> "OCM".
func SourceFromFileName(name string) domain.SourceID {
	return domain.ParseSourceID(strings.TrimSuffix(filepath.Base(name), ProcessedSuffix))
}

func readRecords(path string) ([]domain.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}
