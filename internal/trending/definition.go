package trending

import (
	"github.com/pkg/errors"

	"github.com/ostr00000/overwatch/internal/common/trenderrors"
)

// AlarmRef is an opaque reference to an externally evaluated alarm. The
// engine only stores and carries these; alarm evaluation happens elsewhere.
type AlarmRef string

// Definition is the validated, immutable descriptor of one trend: which
// histograms it depends on, which metric is extracted from them, and which
// alarms are attached. The name maps the trend to its database record, so it
// must be unique within a subsystem.
//
// All validation happens eagerly in NewDefinition; a *Definition in hand is
// always in a valid state.
type Definition struct {
	name           string
	description    string
	histogramNames []string
	metric         MetricExtractor
	alarms         []AlarmRef
	alarmsAttached bool
}

// NewDefinition validates all inputs and returns an immutable definition.
// The description is displayed as the title on generated artifacts.
func NewDefinition(name, description string, histogramNames []string, metric MetricExtractor) (*Definition, error) {
	if name == "" {
		return nil, errors.WithStack(&trenderrors.ErrValidation{
			Kind:  trenderrors.KindWrongType,
			Field: "name",
			Value: name,
		})
	}
	if description == "" {
		return nil, errors.WithStack(&trenderrors.ErrValidation{
			Kind:  trenderrors.KindWrongType,
			Field: "description",
			Value: description,
		})
	}
	if histogramNames == nil {
		return nil, errors.WithStack(&trenderrors.ErrValidation{
			Kind:  trenderrors.KindNotCollection,
			Field: "histogramNames",
			Value: histogramNames,
		})
	}
	if len(histogramNames) == 0 {
		return nil, errors.WithStack(&trenderrors.ErrValidation{
			Kind:    trenderrors.KindNoHistograms,
			Field:   "histogramNames",
			Value:   histogramNames,
			Message: "a trend needs at least one histogram to depend on",
		})
	}
	for _, histogramName := range histogramNames {
		if histogramName == "" {
			return nil, errors.WithStack(&trenderrors.ErrValidation{
				Kind:    trenderrors.KindWrongType,
				Field:   "histogramNames",
				Value:   histogramName,
				Message: "histogram names must be non-empty",
			})
		}
	}
	if metric == nil {
		return nil, errors.WithStack(&trenderrors.ErrValidation{
			Kind:    trenderrors.KindWrongMetric,
			Field:   "metric",
			Value:   metric,
			Message: "metric must be a known extractor variant",
		})
	}
	return &Definition{
		name:           name,
		description:    description,
		histogramNames: append([]string(nil), histogramNames...),
		metric:         metric,
	}, nil
}

// AttachAlarms sets the definition's alarm references, preserving order. It
// can succeed at most once, at definition time; the alarm list is immutable
// afterwards. A failed attach leaves the definition unchanged and may be
// retried.
func (d *Definition) AttachAlarms(alarms ...AlarmRef) error {
	if d.alarmsAttached {
		return errors.Errorf("alarms already attached to definition %q", d.name)
	}
	for _, alarm := range alarms {
		if alarm == "" {
			return errors.WithStack(&trenderrors.ErrValidation{
				Kind:  trenderrors.KindWrongAlarmType,
				Field: "alarms",
				Value: alarm,
			})
		}
	}
	d.alarms = append(d.alarms, alarms...)
	d.alarmsAttached = true
	return nil
}

func (d *Definition) Name() string {
	return d.name
}

func (d *Definition) Description() string {
	return d.description
}

// HistogramNames returns a copy of the required histogram names, in the
// order they were declared.
func (d *Definition) HistogramNames() []string {
	return append([]string(nil), d.histogramNames...)
}

func (d *Definition) Metric() MetricExtractor {
	return d.metric
}

// Alarms returns a copy of the attached alarm references.
func (d *Definition) Alarms() []AlarmRef {
	return append([]AlarmRef(nil), d.alarms...)
}

func (d *Definition) String() string {
	return d.name
}
