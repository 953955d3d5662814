// Package trender drives the trending engine: it ingests histogram snapshot
// batches, feeds them to the per-subsystem registries, renders artifacts and
// commits the registries durably, one linearized cycle at a time per
// subsystem.
package trender

import (
	"context"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/ostr00000/overwatch/internal/trender/configuration"
	"github.com/ostr00000/overwatch/internal/trender/metrics"
	"github.com/ostr00000/overwatch/internal/trending"
)

const (
	persistAttempts   = 3
	persistRetryDelay = time.Second
)

type Processor struct {
	config     *configuration.TrenderConfig
	store      trending.Store
	renderer   trending.ArtifactRenderer
	sink       trending.ArtifactSink
	registries []*trending.Registry
}

// NewProcessor builds the registries from configuration and rehydrates each
// one from its last committed snapshot.
func NewProcessor(
	config *configuration.TrenderConfig,
	store trending.Store,
	renderer trending.ArtifactRenderer,
	sink trending.ArtifactSink,
) (*Processor, error) {
	if config.Trending.DirPrefix == "" {
		return nil, errors.New("trending.dirPrefix must be configured")
	}
	registries, err := RegistriesFromConfig(config)
	if err != nil {
		return nil, err
	}
	for _, registry := range registries {
		if err := registry.Restore(store); err != nil {
			return nil, err
		}
		log.WithField("subsystem", registry.Subsystem()).
			Infof("Restored registry with %d trends", len(registry.Trends()))
	}
	return &Processor{
		config:     config,
		store:      store,
		renderer:   renderer,
		sink:       sink,
		registries: registries,
	}, nil
}

func (p *Processor) Registries() []*trending.Registry {
	return p.registries
}

// Run processes subsystems until the context is cancelled. Each subsystem
// runs on its own goroutine: subsystems share no mutable state, while cycles
// within one subsystem stay strictly sequential.
func (p *Processor) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, registry := range p.registries {
		wg.Add(1)
		go func(registry *trending.Registry) {
			defer wg.Done()
			p.runSubsystem(ctx, registry)
		}(registry)
	}
	wg.Wait()
}

func (p *Processor) runSubsystem(ctx context.Context, registry *trending.Registry) {
	interval := p.config.ProcessInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		p.processPending(ctx, registry)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// processPending runs one full cycle per pending snapshot batch. A batch is
// marked processed only after its cycle persisted successfully, so an
// interrupted cycle is re-ingested on the next start rather than lost.
func (p *Processor) processPending(ctx context.Context, registry *trending.Registry) {
	subsystem := registry.Subsystem()
	paths, err := pendingBatches(p.config.DataDir, subsystem)
	if err != nil {
		log.WithField("subsystem", subsystem).Errorf("Failed to list snapshot batches: %s", err)
		return
	}
	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}
		batch, err := loadBatch(path)
		if err != nil {
			log.WithField("subsystem", subsystem).Errorf("Skipping unreadable snapshot batch: %s", err)
			continue
		}
		if err := p.runCycle(ctx, registry, batch); err != nil {
			log.WithField("subsystem", subsystem).Errorf("Cycle not durable, will retry batch: %s", err)
			// Discard the uncommitted mutation; re-ingesting the batch must
			// not append the same snapshot twice.
			if restoreErr := registry.Restore(p.store); restoreErr != nil {
				log.WithField("subsystem", subsystem).Errorf("Failed to roll back registry: %s", restoreErr)
			}
			return
		}
		if err := markProcessed(path); err != nil {
			log.WithField("subsystem", subsystem).Errorf("Failed to mark batch processed: %s", err)
			return
		}
	}
}

// runCycle performs one processing cycle: extraction and buffer update,
// artifact rendering, then durable commit. Extraction and render failures
// are isolated per trend and only reported; a persist failure fails the
// cycle after the commit has been retried.
func (p *Processor) runCycle(ctx context.Context, registry *trending.Registry, batch *snapshotBatch) error {
	subsystem := registry.Subsystem()
	writesBefore := totalWrites(registry)

	if err := registry.ProcessSnapshot(batch.histograms); err != nil {
		metrics.RecordExtractionErrors(subsystem, errorCount(err))
	}
	metrics.RecordSamplesAppended(subsystem, int(totalWrites(registry)-writesBefore))

	if err := registry.RenderAll(p.renderer, p.sink); err != nil {
		metrics.RecordRenderErrors(subsystem, errorCount(err))
	}

	start := time.Now()
	err := retry.Do(
		func() error { return registry.Persist(p.store) },
		retry.Attempts(persistAttempts),
		retry.Delay(persistRetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(error) bool { return ctx.Err() == nil }),
	)
	metrics.RecordPersistDuration(subsystem, time.Since(start))
	if err != nil {
		metrics.RecordPersistError(subsystem)
		return err
	}
	metrics.RecordCycle(subsystem)
	return nil
}

func totalWrites(registry *trending.Registry) int64 {
	var total int64
	for _, trend := range registry.Trends() {
		total += trend.WriteCount()
	}
	return total
}

func errorCount(err error) int {
	if merr, ok := err.(*multierror.Error); ok {
		return len(merr.Errors)
	}
	return 1
}
