package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const MetricsPrefix = "overwatch_trender_"

var cyclesCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: MetricsPrefix + "cycles",
		Help: "Number of processing cycles run per subsystem",
	},
	[]string{"subsystem"},
)

var samplesAppendedCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: MetricsPrefix + "samples_appended",
		Help: "Number of trend samples appended per subsystem",
	},
	[]string{"subsystem"},
)

var extractionErrorsCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: MetricsPrefix + "extraction_errors",
		Help: "Number of failed metric extractions per subsystem",
	},
	[]string{"subsystem"},
)

var renderErrorsCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: MetricsPrefix + "render_errors",
		Help: "Number of failed artifact renders per subsystem",
	},
	[]string{"subsystem"},
)

var persistDurationHist = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    MetricsPrefix + "persist_duration_seconds",
		Help:    "Time taken to durably commit a subsystem registry",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	},
	[]string{"subsystem"},
)

var persistErrorsCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: MetricsPrefix + "persist_errors",
		Help: "Number of failed registry commits per subsystem",
	},
	[]string{"subsystem"},
)

func RecordCycle(subsystem string) {
	cyclesCounter.WithLabelValues(subsystem).Inc()
}

func RecordSamplesAppended(subsystem string, count int) {
	samplesAppendedCounter.WithLabelValues(subsystem).Add(float64(count))
}

func RecordExtractionErrors(subsystem string, count int) {
	extractionErrorsCounter.WithLabelValues(subsystem).Add(float64(count))
}

func RecordRenderErrors(subsystem string, count int) {
	renderErrorsCounter.WithLabelValues(subsystem).Add(float64(count))
}

func RecordPersistDuration(subsystem string, duration time.Duration) {
	persistDurationHist.WithLabelValues(subsystem).Observe(duration.Seconds())
}

func RecordPersistError(subsystem string) {
	persistErrorsCounter.WithLabelValues(subsystem).Inc()
}
