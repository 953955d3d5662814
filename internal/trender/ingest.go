package trender

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/ostr00000/overwatch/internal/histogram"
)

const processedSuffix = ".processed"

// snapshotBatch is one ingested batch file: histogram statistics keyed by
// histogram name, all taken at the same processing cycle.
type snapshotBatch struct {
	path       string
	histograms map[string]histogram.Snapshot
}

// pendingBatches lists unprocessed snapshot batch files for a subsystem,
// sorted by file name so chronologically named files are processed in order.
func pendingBatches(dataDir, subsystem string) ([]string, error) {
	dir := filepath.Join(dataDir, subsystem)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	sort.Strings(paths)
	return paths, nil
}

// loadBatch parses a snapshot batch file.
func loadBatch(path string) (*snapshotBatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var stats map[string]*histogram.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, errors.Wrapf(err, "parsing snapshot batch %s", path)
	}
	histograms := make(map[string]histogram.Snapshot, len(stats))
	for name, stat := range stats {
		// A JSON null decodes to a nil *Stats; it must not escape as a
		// non-nil Snapshot interface.
		if stat == nil {
			return nil, errors.Errorf("snapshot batch %s: histogram %q is null", path, name)
		}
		histograms[name] = stat
	}
	return &snapshotBatch{path: path, histograms: histograms}, nil
}

// markProcessed renames the batch file so it is not picked up again. The
// data is kept around for manual inspection.
func markProcessed(path string) error {
	return errors.WithStack(os.Rename(path, path+processedSuffix))
}
