// internal/service/stats/aggregator.go

package stats

import (
	"math"

	"go.uber.org/zap"

	"propmap/internal/domain/feature"
	"propmap/internal/domain/temporal"
)

// Table caches stats by attribute key. It is computed once per dataset and
// only read afterwards.
type Table map[temporal.AttributeKey]temporal.Stats

// Get returns the stats for key, or the zero sentinel when key is unknown
func (t Table) Get(key temporal.AttributeKey) temporal.Stats {
	return t[key]
}

// Aggregator computes per-attribute min/mean/max over a feature collection
type Aggregator struct {
	series string
	log    *zap.Logger
}

// NewAggregator creates an aggregator reading the series mapping stored under series
func NewAggregator(series string, log *zap.Logger) *Aggregator {
	if series == "" {
		series = feature.DefaultSeriesProperty
	}
	if log == nil {
		log = zap.L()
	}
	return &Aggregator{series: series, log: log}
}

// Compute returns the stats for every key. Missing and non-numeric values are
// skipped; a key with no usable values gets the {0, 0, 0} sentinel.
func (a *Aggregator) Compute(c *feature.Collection, keys []temporal.AttributeKey) Table {
	table := make(Table, len(keys))

	for _, key := range keys {
		var (
			count  int
			sum    float64
			lo, hi = math.Inf(1), math.Inf(-1)
		)

		if c != nil {
			for _, f := range c.Features {
				raw, ok := f.SeriesValue(a.series, string(key))
				if !ok {
					continue
				}
				v, ok := feature.NumericValue(raw)
				if !ok {
					continue
				}
				count++
				sum += v
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
		}

		if count == 0 {
			a.log.Warn("no numeric values for attribute", zap.String("attribute", string(key)))
			table[key] = temporal.Stats{}
			continue
		}

		table[key] = temporal.Stats{
			Min:  lo,
			Mean: sum / float64(count),
			Max:  hi,
		}
	}

	return table
}
