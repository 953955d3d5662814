// Package histogram defines the boundary through which the trending engine
// sees histogram data. The engine never inspects bins directly; it only
// queries the accumulated statistics a snapshot exposes.
package histogram

import (
	"math"
)

// Snapshot is the read-only view of one histogram at one processing cycle.
// Implementations must not be mutated by callers of these methods.
type Snapshot interface {
	// Entries returns the number of fills accumulated in the histogram.
	Entries() int64
	// Mean returns the mean of the underlying distribution.
	Mean() float64
	// MeanError returns the standard error of the mean.
	MeanError() float64
	// StdDev returns the standard deviation of the underlying distribution.
	StdDev() float64
	// StdDevError returns the statistical error of the standard deviation.
	StdDevError() float64
	// Maximum returns the largest bin content.
	Maximum() float64
}

// Stats is a Snapshot backed by accumulated moments, matching the statistics
// a ROOT TH1 reports. It is the wire representation used for snapshot batch
// files; all fields are exported for JSON round-tripping.
type Stats struct {
	NumEntries int64   `json:"entries"`
	Sum        float64 `json:"sum"`
	SumSquares float64 `json:"sumSquares"`
	MaxBin     float64 `json:"maxBin"`
}

func (s *Stats) Entries() int64 {
	return s.NumEntries
}

func (s *Stats) Mean() float64 {
	if s.NumEntries == 0 {
		return 0
	}
	return s.Sum / float64(s.NumEntries)
}

// MeanError returns stddev/sqrt(n), the standard error of the mean.
func (s *Stats) MeanError() float64 {
	if s.NumEntries == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.NumEntries))
}

func (s *Stats) StdDev() float64 {
	if s.NumEntries == 0 {
		return 0
	}
	mean := s.Mean()
	variance := s.SumSquares/float64(s.NumEntries) - mean*mean
	if variance < 0 {
		// Guard against catastrophic cancellation on near-constant data.
		variance = 0
	}
	return math.Sqrt(variance)
}

// StdDevError returns stddev/sqrt(2n), the error on the standard deviation
// under the normal approximation.
func (s *Stats) StdDevError() float64 {
	if s.NumEntries == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(2*float64(s.NumEntries))
}

func (s *Stats) Maximum() float64 {
	return s.MaxBin
}

// Fill accumulates one value, mirroring a histogram fill. MaxBin tracking is
// approximated by the largest filled value, which is exact for the
// counting-style histograms the receiver produces.
func (s *Stats) Fill(v float64) {
	s.NumEntries++
	s.Sum += v
	s.SumSquares += v * v
	if s.NumEntries == 1 || v > s.MaxBin {
		s.MaxBin = v
	}
}
