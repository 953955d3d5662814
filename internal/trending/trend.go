package trending

import (
	"github.com/pkg/errors"

	"github.com/ostr00000/overwatch/internal/common/trenderrors"
	"github.com/ostr00000/overwatch/internal/histogram"
)

// Point is one entry of the series handed to an artifact renderer. Index is
// the position within the current buffer, oldest first, not the total number
// of samples ever written.
type Point struct {
	Index int     `json:"x"`
	Value float64 `json:"y"`
	Error float64 `json:"yerr"`
}

// Artifacts is the rendered output for one trend: a rasterized image and a
// JSON description of the plotted series. Writing them out is the caller's
// concern.
type Artifacts struct {
	Image []byte
	JSON  []byte
}

// RenderRequest carries everything a renderer needs to produce artifacts for
// one trend.
type RenderRequest struct {
	Trend          string
	Title          string
	Subsystem      string
	Series         []Point
	OutputPrefix   string
	ImageExtension string
}

// ArtifactRenderer turns an ordered sample series into output artifacts.
type ArtifactRenderer interface {
	Render(req RenderRequest) (Artifacts, error)
}

// TrendState is the mutable runtime state of one trend within one subsystem:
// a bounded, chronologically ordered history of extracted samples. The
// history is a fixed-capacity ring buffer; once full, every append evicts
// exactly the oldest sample.
type TrendState struct {
	definition *Definition
	subsystem  string

	capacity int
	samples  []Sample // backing array, len == capacity
	head     int      // index of the oldest sample
	length   int      // number of valid samples, <= capacity

	writeCount int64 // total samples ever appended, unaffected by eviction

	outputPrefix   string
	imageExtension string
}

const DefaultCapacity = 100

func newTrendState(definition *Definition, subsystem string, params Parameters) *TrendState {
	capacity := params.Entries
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &TrendState{
		definition:     definition,
		subsystem:      subsystem,
		capacity:       capacity,
		samples:        make([]Sample, capacity),
		outputPrefix:   params.DirPrefix,
		imageExtension: params.ImageExtension,
	}
}

// AppendSample extracts this trend's metric from the snapshot and appends the
// result to the history, evicting the oldest sample first when the buffer is
// full. On extraction failure the state is left completely unchanged.
func (t *TrendState) AppendSample(h histogram.Snapshot) error {
	sample, err := t.definition.metric.Extract(h)
	if err != nil {
		return errors.WithStack(&trenderrors.ErrExtraction{
			Trend:   t.definition.name,
			Metric:  t.definition.metric.Name(),
			Message: err.Error(),
		})
	}
	if t.length == t.capacity {
		t.samples[t.head] = sample
		t.head = (t.head + 1) % t.capacity
	} else {
		t.samples[(t.head+t.length)%t.capacity] = sample
		t.length++
	}
	t.writeCount++
	return nil
}

// CurrentSeries returns the buffer contents as an index-paired series, oldest
// first. It is a derived view; calling it repeatedly without intervening
// appends yields identical output.
func (t *TrendState) CurrentSeries() []Point {
	series := make([]Point, t.length)
	for i := 0; i < t.length; i++ {
		sample := t.samples[(t.head+i)%t.capacity]
		series[i] = Point{Index: i, Value: sample.Value, Error: sample.Error}
	}
	return series
}

// RenderArtifacts hands the current series to the renderer. A renderer
// failure never touches the sample buffer; the next cycle's render catches
// up since the buffer already holds the latest data.
func (t *TrendState) RenderArtifacts(renderer ArtifactRenderer) (Artifacts, error) {
	artifacts, err := renderer.Render(RenderRequest{
		Trend:          t.definition.name,
		Title:          t.definition.description,
		Subsystem:      t.subsystem,
		Series:         t.CurrentSeries(),
		OutputPrefix:   t.outputPrefix,
		ImageExtension: t.imageExtension,
	})
	if err != nil {
		return Artifacts{}, err
	}
	return artifacts, nil
}

func (t *TrendState) Definition() *Definition {
	return t.definition
}

func (t *TrendState) Subsystem() string {
	return t.subsystem
}

func (t *TrendState) Capacity() int {
	return t.capacity
}

// Length returns the number of samples currently held, min(writeCount, capacity).
func (t *TrendState) Length() int {
	return t.length
}

func (t *TrendState) WriteCount() int64 {
	return t.writeCount
}

// State is the serializable form of a trend's mutable state, used for
// durable persistence and rehydration across process restarts. Samples are
// in chronological order, oldest first.
type State struct {
	Samples    []Sample `json:"samples"`
	WriteCount int64    `json:"writeCount"`
}

// State captures the trend's current samples and write count.
func (t *TrendState) State() State {
	samples := make([]Sample, t.length)
	for i := 0; i < t.length; i++ {
		samples[i] = t.samples[(t.head+i)%t.capacity]
	}
	return State{Samples: samples, WriteCount: t.writeCount}
}

// RestoreState replaces the trend's history with a previously captured
// state. If the stored history exceeds the configured capacity, only the
// newest samples are kept, preserving the FIFO invariant.
func (t *TrendState) RestoreState(state State) {
	samples := state.Samples
	if len(samples) > t.capacity {
		samples = samples[len(samples)-t.capacity:]
	}
	t.head = 0
	t.length = copy(t.samples, samples)
	t.writeCount = state.WriteCount
}
