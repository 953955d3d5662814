package trending

import (
	"encoding/json"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/ostr00000/overwatch/internal/common/trenderrors"
	"github.com/ostr00000/overwatch/internal/histogram"
)

// Parameters are the runtime settings resolved when a registry instantiates
// trend states from definitions.
type Parameters struct {
	// Entries is the sample capacity of every trend buffer. Zero or negative
	// falls back to DefaultCapacity.
	Entries int
	// DirPrefix is the output root under which artifacts are written.
	DirPrefix string
	// ImageExtension selects the image artifact format, e.g. "png".
	ImageExtension string
}

// Store is the durable persistence contract the registry commits through.
// CommitRegistry must be atomic across the whole state map: after a crash
// either the complete snapshot is visible or the previous one is.
type Store interface {
	CommitRegistry(subsystem string, state map[string][]byte) error
	GetRegistry(subsystem string) (map[string][]byte, error)
}

// Registry holds every trend of one subsystem, keyed by trend name, in
// definition order. Iteration order is deterministic and equals the order in
// which definitions were supplied.
type Registry struct {
	subsystem string
	trends    []*TrendState
	byName    map[string]*TrendState
}

// NewRegistry instantiates one trend state per definition. Definitions must
// have unique names within the subsystem.
func NewRegistry(definitions []*Definition, subsystem string, params Parameters) (*Registry, error) {
	registry := &Registry{
		subsystem: subsystem,
		trends:    make([]*TrendState, 0, len(definitions)),
		byName:    make(map[string]*TrendState, len(definitions)),
	}
	for _, definition := range definitions {
		if _, exists := registry.byName[definition.Name()]; exists {
			return nil, errors.WithStack(&trenderrors.ErrValidation{
				Kind:    trenderrors.KindDuplicateName,
				Field:   "name",
				Value:   definition.Name(),
				Message: "trend names must be unique within a subsystem",
			})
		}
		trend := newTrendState(definition, subsystem, params)
		registry.trends = append(registry.trends, trend)
		registry.byName[definition.Name()] = trend
	}
	return registry, nil
}

func (r *Registry) Subsystem() string {
	return r.subsystem
}

// Trends returns the trend states in definition order. The slice is shared;
// callers must not modify it.
func (r *Registry) Trends() []*TrendState {
	return r.trends
}

func (r *Registry) Trend(name string) (*TrendState, bool) {
	trend, ok := r.byName[name]
	return trend, ok
}

// ProcessSnapshot feeds one batch of histograms to every trend whose
// required histograms are all present in the batch. Trends with missing
// dependencies are skipped silently. Extraction failures are isolated per
// trend: the remaining trends are still processed and the failures are
// returned aggregated.
func (r *Registry) ProcessSnapshot(histograms map[string]histogram.Snapshot) error {
	var result *multierror.Error
	for _, trend := range r.trends {
		snapshot, ok := r.resolveSnapshot(trend, histograms)
		if !ok {
			continue
		}
		if err := trend.AppendSample(snapshot); err != nil {
			log.WithField("trend", trend.Definition().Name()).
				WithField("subsystem", r.subsystem).
				Warnf("Failed to extract trend value: %s", err)
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// resolveSnapshot checks that every histogram the trend depends on is in the
// batch and returns the snapshot the metric is extracted from. Metrics are
// extracted from the first required histogram; the remaining names are
// dependencies that gate whether the trend updates this cycle.
func (r *Registry) resolveSnapshot(trend *TrendState, histograms map[string]histogram.Snapshot) (histogram.Snapshot, bool) {
	names := trend.Definition().HistogramNames()
	for _, name := range names {
		if _, present := histograms[name]; !present {
			return nil, false
		}
	}
	return histograms[names[0]], true
}

// RenderAll renders artifacts for every trend and hands them to the sink.
// Failures are isolated per trend and aggregated; buffers are never touched
// by a failed render.
func (r *Registry) RenderAll(renderer ArtifactRenderer, sink ArtifactSink) error {
	var result *multierror.Error
	for _, trend := range r.trends {
		artifacts, err := trend.RenderArtifacts(renderer)
		if err == nil {
			err = sink.WriteArtifacts(r.subsystem, trend.Definition().Name(), artifacts)
		}
		if err != nil {
			log.WithField("trend", trend.Definition().Name()).
				WithField("subsystem", r.subsystem).
				Warnf("Failed to render trend artifacts: %s", err)
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// ArtifactSink receives rendered artifacts for storage. File layout is the
// sink's concern.
type ArtifactSink interface {
	WriteArtifacts(subsystem, trend string, artifacts Artifacts) error
}

// Persist commits the full registry state through the store. The commit is
// atomic: either every trend's current state is durably recorded or none is.
func (r *Registry) Persist(store Store) error {
	state := make(map[string][]byte, len(r.trends))
	for _, trend := range r.trends {
		value, err := json.Marshal(trend.State())
		if err != nil {
			return errors.WithStack(&trenderrors.ErrPersistence{Subsystem: r.subsystem, Cause: err})
		}
		state[trend.Definition().Name()] = value
	}
	if err := store.CommitRegistry(r.subsystem, state); err != nil {
		return errors.WithStack(&trenderrors.ErrPersistence{Subsystem: r.subsystem, Cause: err})
	}
	return nil
}

// Restore resets every trend buffer to the last committed snapshot. Stored
// trends that are no longer configured are ignored; configured trends with
// no stored state are emptied. Restoring therefore also discards any
// in-memory mutation that was never durably committed.
func (r *Registry) Restore(store Store) error {
	state, err := store.GetRegistry(r.subsystem)
	if err != nil {
		return errors.WithStack(&trenderrors.ErrPersistence{Subsystem: r.subsystem, Cause: err})
	}
	for name := range state {
		if _, ok := r.byName[name]; !ok {
			log.WithField("trend", name).
				WithField("subsystem", r.subsystem).
				Debug("Ignoring stored state for unconfigured trend")
		}
	}
	for _, trend := range r.trends {
		value, ok := state[trend.Definition().Name()]
		if !ok {
			trend.RestoreState(State{})
			continue
		}
		var trendState State
		if err := json.Unmarshal(value, &trendState); err != nil {
			return errors.WithStack(&trenderrors.ErrPersistence{Subsystem: r.subsystem, Cause: err})
		}
		trend.RestoreState(trendState)
	}
	return nil
}
