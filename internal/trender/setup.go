package trender

import (
	"github.com/ostr00000/overwatch/internal/trender/configuration"
	"github.com/ostr00000/overwatch/internal/trending"
)

// DefinitionsFromConfig builds validated trend definitions from
// configuration. Any invalid configured trend aborts with the validation
// error; a subsystem never starts with a partial trend set.
func DefinitionsFromConfig(trendConfigs []configuration.TrendConfig) ([]*trending.Definition, error) {
	definitions := make([]*trending.Definition, 0, len(trendConfigs))
	for _, trendConfig := range trendConfigs {
		// An unknown tag yields a nil metric, which NewDefinition rejects
		// with the WrongMetric validation kind.
		metric, _ := trending.MetricFromName(trendConfig.Metric)
		definition, err := trending.NewDefinition(
			trendConfig.Name,
			trendConfig.Description,
			trendConfig.Histograms,
			metric,
		)
		if err != nil {
			return nil, err
		}
		if len(trendConfig.Alarms) > 0 {
			alarms := make([]trending.AlarmRef, len(trendConfig.Alarms))
			for i, alarm := range trendConfig.Alarms {
				alarms[i] = trending.AlarmRef(alarm)
			}
			if err := definition.AttachAlarms(alarms...); err != nil {
				return nil, err
			}
		}
		definitions = append(definitions, definition)
	}
	return definitions, nil
}

// RegistriesFromConfig builds one registry per configured subsystem, in
// configuration order.
func RegistriesFromConfig(config *configuration.TrenderConfig) ([]*trending.Registry, error) {
	params := trending.Parameters{
		Entries:        config.Trending.Entries,
		DirPrefix:      config.Trending.DirPrefix,
		ImageExtension: config.Trending.ImageExtension,
	}
	registries := make([]*trending.Registry, 0, len(config.Subsystems))
	for _, subsystemConfig := range config.Subsystems {
		definitions, err := DefinitionsFromConfig(subsystemConfig.Trends)
		if err != nil {
			return nil, err
		}
		registry, err := trending.NewRegistry(definitions, subsystemConfig.Name, params)
		if err != nil {
			return nil, err
		}
		registries = append(registries, registry)
	}
	return registries, nil
}
