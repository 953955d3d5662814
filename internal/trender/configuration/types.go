package configuration

import (
	"time"

	"github.com/go-redis/redis"
)

type TrenderConfig struct {
	MetricsPort uint16
	// ProcessInterval is how often pending snapshot batches are processed.
	ProcessInterval time.Duration
	// DataDir is the root under which snapshot batch files arrive, one
	// directory per subsystem.
	DataDir string

	Redis redis.UniversalOptions

	Trending   TrendingConfig
	Subsystems []SubsystemConfig
}

type TrendingConfig struct {
	// Entries is the sample capacity of every trend buffer (default 100).
	Entries int
	// DirPrefix is the output root path for rendered artifacts. Required.
	DirPrefix string
	// ImageExtension selects the image artifact format (default "png").
	ImageExtension string
}

type SubsystemConfig struct {
	Name   string
	Trends []TrendConfig
}

type TrendConfig struct {
	Name        string
	Description string
	Histograms  []string
	Metric      string
	Alarms      []string
}
