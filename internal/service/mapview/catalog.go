// internal/service/mapview/catalog.go

package mapview

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"propmap/internal/domain/feature"
	"propmap/internal/domain/temporal"
	"propmap/internal/metrics"
	"propmap/internal/service/attribute"
	"propmap/internal/service/stats"
)

// Dataset is a fetched feature collection with everything derived from it.
// It is immutable once built and shared by every view on the dataset.
type Dataset struct {
	Name       string
	Collection *feature.Collection
	Keys       []temporal.AttributeKey
	Mismatches []temporal.Mismatch
	Stats      stats.Table
	LoadedAt   time.Time
}

// Catalog loads each dataset once and caches the result. Failed loads are
// not cached.
type Catalog struct {
	source      temporal.Source
	extractor   *attribute.Extractor
	aggregator  *stats.Aggregator
	group       singleflight.Group
	datasets    map[string]*Dataset
	generations map[string]uint64
	loadTimeout time.Duration
	mu          sync.RWMutex
	log         *zap.Logger
}

// DefaultLoadTimeout bounds a shared dataset load
const DefaultLoadTimeout = time.Minute

// NewCatalog creates a dataset catalog over source
func NewCatalog(source temporal.Source, seriesProperty string, log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.L()
	}
	return &Catalog{
		source:      source,
		extractor:   attribute.NewExtractor(seriesProperty, log),
		aggregator:  stats.NewAggregator(seriesProperty, log),
		datasets:    make(map[string]*Dataset),
		generations: make(map[string]uint64),
		loadTimeout: DefaultLoadTimeout,
		log:         log,
	}
}

// SetLoadTimeout changes the bound on a shared dataset load
func (c *Catalog) SetLoadTimeout(d time.Duration) {
	if d > 0 {
		c.loadTimeout = d
	}
}

// Get returns the named dataset, fetching it on first use
func (c *Catalog) Get(ctx context.Context, name string) (*Dataset, error) {
	c.mu.RLock()
	d, ok := c.datasets[name]
	c.mu.RUnlock()
	if ok {
		return d, nil
	}

	// Shared by every waiter, so detached from the first caller's cancellation
	ch := c.group.DoChan(name, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()
		return c.load(loadCtx, name)
	})

	select {
	case <-ctx.Done():
		return nil, eris.Wrapf(ctx.Err(), "catalog: wait for dataset %q", name)
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Dataset), nil
	}
}

// Invalidate drops a cached dataset so the next Get fetches it again
func (c *Catalog) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.datasets, name)
	c.generations[name]++
	c.group.Forget(name)
}

// Attributes returns the ordered attribute keys of a dataset
func (c *Catalog) Attributes(ctx context.Context, name string) ([]temporal.AttributeKey, []temporal.Mismatch, error) {
	d, err := c.Get(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	return append([]temporal.AttributeKey(nil), d.Keys...), append([]temporal.Mismatch(nil), d.Mismatches...), nil
}

// Stats returns a copy of the per-attribute stats of a dataset
func (c *Catalog) Stats(ctx context.Context, name string) (map[temporal.AttributeKey]temporal.Stats, error) {
	d, err := c.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	out := make(map[temporal.AttributeKey]temporal.Stats, len(d.Stats))
	for k, s := range d.Stats {
		out[k] = s
	}
	return out, nil
}

func (c *Catalog) load(ctx context.Context, name string) (*Dataset, error) {
	start := time.Now()

	c.mu.RLock()
	generation := c.generations[name]
	c.mu.RUnlock()

	collection, err := c.source.Fetch(ctx, name)
	if err != nil {
		metrics.DatasetLoadsTotal.WithLabelValues("error").Inc()
		return nil, eris.Wrapf(err, "catalog: fetch dataset %q", name)
	}

	keys := c.extractor.Extract(collection)
	d := &Dataset{
		Name:       name,
		Collection: collection,
		Keys:       keys,
		Mismatches: c.extractor.Validate(collection, keys),
		Stats:      c.aggregator.Compute(collection, keys),
		LoadedAt:   time.Now(),
	}

	c.mu.Lock()
	if c.generations[name] == generation {
		c.datasets[name] = d
	}
	c.mu.Unlock()

	metrics.DatasetLoadsTotal.WithLabelValues("ok").Inc()
	metrics.DatasetLoadDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	if len(d.Mismatches) > 0 {
		metrics.MismatchedFeaturesTotal.WithLabelValues(name).Add(float64(len(d.Mismatches)))
	}

	c.log.Info("dataset loaded",
		zap.String("dataset", name),
		zap.Int("features", collection.Len()),
		zap.Int("attributes", len(keys)),
		zap.Int("mismatches", len(d.Mismatches)),
		zap.Duration("took", time.Since(start)),
	)

	return d, nil
}
