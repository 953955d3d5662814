package trending

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ostr00000/overwatch/internal/common/trenderrors"
	"github.com/ostr00000/overwatch/internal/histogram"
)

type memoryStore struct {
	committed map[string]map[string][]byte
	failNext  bool
	commits   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{committed: map[string]map[string][]byte{}}
}

func (s *memoryStore) CommitRegistry(subsystem string, state map[string][]byte) error {
	if s.failNext {
		s.failNext = false
		return errors.New("store unavailable")
	}
	copied := make(map[string][]byte, len(state))
	for k, v := range state {
		copied[k] = append([]byte(nil), v...)
	}
	s.committed[subsystem] = copied
	s.commits++
	return nil
}

func (s *memoryStore) GetRegistry(subsystem string) (map[string][]byte, error) {
	return s.committed[subsystem], nil
}

func makeDefinition(t *testing.T, name, histogramName string, metric MetricExtractor) *Definition {
	definition, err := NewDefinition(name, "description of "+name, []string{histogramName}, metric)
	require.NoError(t, err)
	return definition
}

func TestNewRegistry_DuplicateName(t *testing.T) {
	definitions := []*Definition{
		makeDefinition(t, "meanADC", "hADC", Mean),
		makeDefinition(t, "meanADC", "hTime", StdDev),
	}
	registry, err := NewRegistry(definitions, "EMC", Parameters{})
	assert.Nil(t, registry)
	require.Error(t, err)

	var validationErr *trenderrors.ErrValidation
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, trenderrors.KindDuplicateName, validationErr.Kind)
}

func TestNewRegistry_PreservesDefinitionOrder(t *testing.T) {
	definitions := []*Definition{
		makeDefinition(t, "c", "h1", Mean),
		makeDefinition(t, "a", "h2", Mean),
		makeDefinition(t, "b", "h3", Mean),
	}
	registry, err := NewRegistry(definitions, "EMC", Parameters{})
	require.NoError(t, err)

	var names []string
	for _, trend := range registry.Trends() {
		names = append(names, trend.Definition().Name())
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

func TestProcessSnapshot_SkipsTrendsWithMissingHistograms(t *testing.T) {
	definitions := []*Definition{
		makeDefinition(t, "meanADC", "hADC", Mean),
		makeDefinition(t, "meanTime", "hTime", Mean),
	}
	registry, err := NewRegistry(definitions, "EMC", Parameters{})
	require.NoError(t, err)

	err = registry.ProcessSnapshot(map[string]histogram.Snapshot{
		"hADC": valueSnapshot(3),
	})
	assert.NoError(t, err)

	meanADC, _ := registry.Trend("meanADC")
	meanTime, _ := registry.Trend("meanTime")
	assert.Equal(t, int64(1), meanADC.WriteCount())
	assert.Equal(t, int64(0), meanTime.WriteCount())
}

func TestProcessSnapshot_RequiresAllHistograms(t *testing.T) {
	definition, err := NewDefinition("ratio", "Ratio trend", []string{"hNum", "hDen"}, Mean)
	require.NoError(t, err)
	registry, err := NewRegistry([]*Definition{definition}, "EMC", Parameters{})
	require.NoError(t, err)

	err = registry.ProcessSnapshot(map[string]histogram.Snapshot{
		"hNum": valueSnapshot(1),
	})
	assert.NoError(t, err)

	ratio, _ := registry.Trend("ratio")
	assert.Equal(t, int64(0), ratio.WriteCount())

	err = registry.ProcessSnapshot(map[string]histogram.Snapshot{
		"hNum": valueSnapshot(1),
		"hDen": valueSnapshot(2),
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), ratio.WriteCount())
}

func TestProcessSnapshot_IsolatesExtractionFailures(t *testing.T) {
	definitions := []*Definition{
		makeDefinition(t, "failing", "hEmpty", Mean),
		makeDefinition(t, "healthy", "hADC", Mean),
	}
	registry, err := NewRegistry(definitions, "EMC", Parameters{})
	require.NoError(t, err)

	failing, _ := registry.Trend("failing")
	healthy, _ := registry.Trend("healthy")
	require.NoError(t, healthy.AppendSample(valueSnapshot(1)))
	failingBefore := failing.CurrentSeries()
	healthyWrites := healthy.WriteCount()

	err = registry.ProcessSnapshot(map[string]histogram.Snapshot{
		"hEmpty": stubSnapshot{entries: 0},
		"hADC":   valueSnapshot(2),
	})
	require.Error(t, err)

	var extractionErr *trenderrors.ErrExtraction
	assert.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, "failing", extractionErr.Trend)

	assert.Equal(t, failingBefore, failing.CurrentSeries())
	assert.Equal(t, int64(0), failing.WriteCount())
	assert.Equal(t, healthyWrites+1, healthy.WriteCount())
}

type fakeRenderer struct {
	requests []RenderRequest
	failFor  string
}

func (r *fakeRenderer) Render(req RenderRequest) (Artifacts, error) {
	r.requests = append(r.requests, req)
	if req.Trend == r.failFor {
		return Artifacts{}, errors.New("rasterizer crashed")
	}
	return Artifacts{Image: []byte("img:" + req.Trend), JSON: []byte("json:" + req.Trend)}, nil
}

type fakeSink struct {
	written map[string]Artifacts
}

func (s *fakeSink) WriteArtifacts(subsystem, trend string, artifacts Artifacts) error {
	if s.written == nil {
		s.written = map[string]Artifacts{}
	}
	s.written[subsystem+"/"+trend] = artifacts
	return nil
}

func TestRenderAll(t *testing.T) {
	definitions := []*Definition{
		makeDefinition(t, "meanADC", "hADC", Mean),
		makeDefinition(t, "maxADC", "hADC", Maximum),
	}
	registry, err := NewRegistry(definitions, "EMC", Parameters{DirPrefix: "/data", ImageExtension: "png"})
	require.NoError(t, err)
	require.NoError(t, registry.ProcessSnapshot(map[string]histogram.Snapshot{
		"hADC": stubSnapshot{entries: 1, mean: 3, maximum: 30},
	}))

	renderer := &fakeRenderer{}
	sink := &fakeSink{}
	require.NoError(t, registry.RenderAll(renderer, sink))

	require.Len(t, renderer.requests, 2)
	assert.Equal(t, "meanADC", renderer.requests[0].Trend)
	assert.Equal(t, "description of meanADC", renderer.requests[0].Title)
	assert.Equal(t, "/data", renderer.requests[0].OutputPrefix)
	assert.Equal(t, "png", renderer.requests[0].ImageExtension)
	assert.Equal(t, []Point{{Index: 0, Value: 3}}, renderer.requests[0].Series)

	assert.Len(t, sink.written, 2)
	assert.Equal(t, []byte("img:maxADC"), sink.written["EMC/maxADC"].Image)
}

func TestRenderAll_IsolatesFailures(t *testing.T) {
	definitions := []*Definition{
		makeDefinition(t, "meanADC", "hADC", Mean),
		makeDefinition(t, "maxADC", "hADC", Maximum),
	}
	registry, err := NewRegistry(definitions, "EMC", Parameters{})
	require.NoError(t, err)
	require.NoError(t, registry.ProcessSnapshot(map[string]histogram.Snapshot{
		"hADC": stubSnapshot{entries: 1, mean: 3, maximum: 30},
	}))

	renderer := &fakeRenderer{failFor: "meanADC"}
	sink := &fakeSink{}
	err = registry.RenderAll(renderer, sink)
	require.Error(t, err)

	// The failing trend did not stop the other one from being rendered,
	// and no buffer was touched.
	assert.Len(t, sink.written, 1)
	assert.Contains(t, sink.written, "EMC/maxADC")
	meanADC, _ := registry.Trend("meanADC")
	assert.Equal(t, int64(1), meanADC.WriteCount())
}

func TestPersistAndRestore(t *testing.T) {
	definitions := []*Definition{
		makeDefinition(t, "meanADC", "hADC", Mean),
		makeDefinition(t, "maxADC", "hADC", Maximum),
	}
	registry, err := NewRegistry(definitions, "EMC", Parameters{Entries: 3})
	require.NoError(t, err)

	for _, v := range []float64{1, 2, 3, 4} {
		err := registry.ProcessSnapshot(map[string]histogram.Snapshot{
			"hADC": stubSnapshot{entries: 1, mean: v, maximum: v * 10},
		})
		require.NoError(t, err)
	}

	store := newMemoryStore()
	require.NoError(t, registry.Persist(store))

	restored, err := NewRegistry(definitions, "EMC", Parameters{Entries: 3})
	require.NoError(t, err)
	require.NoError(t, restored.Restore(store))

	for _, name := range []string{"meanADC", "maxADC"} {
		original, _ := registry.Trend(name)
		rehydrated, _ := restored.Trend(name)
		assert.Equal(t, original.CurrentSeries(), rehydrated.CurrentSeries(), name)
		assert.Equal(t, original.WriteCount(), rehydrated.WriteCount(), name)
	}
}

func TestRestore_IgnoresUnconfiguredTrends(t *testing.T) {
	store := newMemoryStore()
	store.committed["EMC"] = map[string][]byte{
		"retired": []byte(`{"samples":[{"value":1,"error":0}],"writeCount":1}`),
	}

	registry, err := NewRegistry([]*Definition{makeDefinition(t, "meanADC", "hADC", Mean)}, "EMC", Parameters{})
	require.NoError(t, err)
	require.NoError(t, registry.Restore(store))

	meanADC, _ := registry.Trend("meanADC")
	assert.Equal(t, int64(0), meanADC.WriteCount())
}

func TestRestore_DiscardsUncommittedSamples(t *testing.T) {
	registry, err := NewRegistry([]*Definition{makeDefinition(t, "meanADC", "hADC", Mean)}, "EMC", Parameters{})
	require.NoError(t, err)

	store := newMemoryStore()
	require.NoError(t, registry.ProcessSnapshot(map[string]histogram.Snapshot{
		"hADC": valueSnapshot(7),
	}))
	require.NoError(t, registry.Persist(store))

	// A sample appended after the last commit does not survive a Restore.
	require.NoError(t, registry.ProcessSnapshot(map[string]histogram.Snapshot{
		"hADC": valueSnapshot(7),
	}))
	meanADC, _ := registry.Trend("meanADC")
	require.Equal(t, int64(2), meanADC.WriteCount())

	require.NoError(t, registry.Restore(store))
	assert.Equal(t, int64(1), meanADC.WriteCount())
	assert.Equal(t, []Point{{Index: 0, Value: 7}}, meanADC.CurrentSeries())
}

func TestRestore_EmptiesNeverCommittedTrends(t *testing.T) {
	registry, err := NewRegistry([]*Definition{makeDefinition(t, "meanADC", "hADC", Mean)}, "EMC", Parameters{})
	require.NoError(t, err)
	require.NoError(t, registry.ProcessSnapshot(map[string]histogram.Snapshot{
		"hADC": valueSnapshot(7),
	}))

	require.NoError(t, registry.Restore(newMemoryStore()))

	meanADC, _ := registry.Trend("meanADC")
	assert.Equal(t, int64(0), meanADC.WriteCount())
	assert.Empty(t, meanADC.CurrentSeries())
}

func TestPersist_StoreFailure(t *testing.T) {
	registry, err := NewRegistry([]*Definition{makeDefinition(t, "meanADC", "hADC", Mean)}, "EMC", Parameters{})
	require.NoError(t, err)

	store := newMemoryStore()
	store.failNext = true
	err = registry.Persist(store)
	require.Error(t, err)

	var persistenceErr *trenderrors.ErrPersistence
	require.ErrorAs(t, err, &persistenceErr)
	assert.Equal(t, "EMC", persistenceErr.Subsystem)
	assert.Equal(t, 0, store.commits)

	// The commit can be retried once the store recovers.
	assert.NoError(t, registry.Persist(store))
	assert.Equal(t, 1, store.commits)
}
