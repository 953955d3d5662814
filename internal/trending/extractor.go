package trending

import (
	"github.com/pkg/errors"

	"github.com/ostr00000/overwatch/internal/histogram"
)

// Sample is one scalar statistic extracted from a single histogram snapshot,
// together with its statistical error.
type Sample struct {
	Value float64 `json:"value"`
	Error float64 `json:"error"`
}

// MetricExtractor produces a sample from a histogram snapshot. Extraction
// must not mutate the snapshot. Implementations return a plain error when the
// snapshot lacks the statistics the metric needs; the trend wraps it into a
// typed extraction error with the trend's identity attached.
type MetricExtractor interface {
	Name() string
	Extract(h histogram.Snapshot) (Sample, error)
}

// The known extractor variants. New metrics are added by implementing
// MetricExtractor and extending MetricFromName; trend and registry code is
// untouched by new variants.
var (
	Mean    MetricExtractor = meanExtractor{}
	StdDev  MetricExtractor = stdDevExtractor{}
	Maximum MetricExtractor = maximumExtractor{}
)

// MetricFromName resolves a configuration tag to an extractor variant.
// The second return value is false for unknown tags.
func MetricFromName(name string) (MetricExtractor, bool) {
	switch name {
	case Mean.Name():
		return Mean, true
	case StdDev.Name():
		return StdDev, true
	case Maximum.Name():
		return Maximum, true
	}
	return nil, false
}

type meanExtractor struct{}

func (meanExtractor) Name() string { return "mean" }

func (meanExtractor) Extract(h histogram.Snapshot) (Sample, error) {
	if h.Entries() == 0 {
		return Sample{}, errors.New("empty histogram has no mean")
	}
	return Sample{Value: h.Mean(), Error: h.MeanError()}, nil
}

type stdDevExtractor struct{}

func (stdDevExtractor) Name() string { return "stdDev" }

func (stdDevExtractor) Extract(h histogram.Snapshot) (Sample, error) {
	if h.Entries() == 0 {
		return Sample{}, errors.New("empty histogram has no standard deviation")
	}
	return Sample{Value: h.StdDev(), Error: h.StdDevError()}, nil
}

type maximumExtractor struct{}

func (maximumExtractor) Name() string { return "maximum" }

// Extract returns the maximum bin content. A maximum has no associated
// statistical error in this model, so the error is always zero.
func (maximumExtractor) Extract(h histogram.Snapshot) (Sample, error) {
	if h.Entries() == 0 {
		return Sample{}, errors.New("empty histogram has no maximum")
	}
	return Sample{Value: h.Maximum(), Error: 0}, nil
}
