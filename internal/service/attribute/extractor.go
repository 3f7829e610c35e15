// internal/service/attribute/extractor.go

package attribute

import (
	"sort"
	"strconv"

	"go.uber.org/zap"

	"propmap/internal/domain/feature"
	"propmap/internal/domain/temporal"
)

// Extractor derives the ordered time-series attribute keys of a dataset
type Extractor struct {
	series string
	log    *zap.Logger
}

// NewExtractor creates an extractor reading the series mapping stored under series
func NewExtractor(series string, log *zap.Logger) *Extractor {
	if series == "" {
		series = feature.DefaultSeriesProperty
	}
	if log == nil {
		log = zap.L()
	}
	return &Extractor{series: series, log: log}
}

// Extract returns the keys of the first feature's series mapping in ascending
// numeric order. It returns an empty slice when there is nothing to read.
func (e *Extractor) Extract(c *feature.Collection) []temporal.AttributeKey {
	if c.Len() == 0 {
		e.log.Warn("cannot derive attributes from empty feature collection")
		return []temporal.AttributeKey{}
	}

	series, ok := c.Features[0].Series(e.series)
	if !ok {
		e.log.Warn("first feature has no series mapping",
			zap.String("property", e.series),
			zap.String("feature", c.Features[0].ID),
		)
		return []temporal.AttributeKey{}
	}

	names := make([]string, 0, len(series))
	for k := range series {
		names = append(names, k)
	}
	keys := temporal.Keys(names...)
	SortKeys(keys)

	return keys
}

// Validate checks every feature's series keys against keys and reports the
// features that differ. Mismatches are diagnostics, not failures.
func (e *Extractor) Validate(c *feature.Collection, keys []temporal.AttributeKey) []temporal.Mismatch {
	if c.Len() == 0 {
		return nil
	}

	want := make(map[temporal.AttributeKey]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}

	var mismatches []temporal.Mismatch
	for i, f := range c.Features {
		series, _ := f.Series(e.series)

		var m temporal.Mismatch
		for _, k := range keys {
			if _, ok := series[string(k)]; !ok {
				m.Missing = append(m.Missing, k)
			}
		}
		for k := range series {
			if _, ok := want[temporal.AttributeKey(k)]; !ok {
				m.Extra = append(m.Extra, temporal.AttributeKey(k))
			}
		}
		if len(m.Missing) == 0 && len(m.Extra) == 0 {
			continue
		}

		SortKeys(m.Extra)
		m.FeatureIndex = i
		m.FeatureID = f.ID
		mismatches = append(mismatches, m)

		e.log.Warn("feature series keys differ from dataset attributes",
			zap.Int("index", i),
			zap.String("feature", f.ID),
			zap.Int("missing", len(m.Missing)),
			zap.Int("extra", len(m.Extra)),
		)
	}

	return mismatches
}

// SortKeys orders keys by numeric value ("2" before "10"). Keys that are not
// numbers sort after all numeric keys, lexicographically.
func SortKeys(keys []temporal.AttributeKey) {
	sort.SliceStable(keys, func(i, j int) bool {
		a, aErr := strconv.ParseFloat(string(keys[i]), 64)
		b, bErr := strconv.ParseFloat(string(keys[j]), 64)
		switch {
		case aErr == nil && bErr == nil:
			if a != b {
				return a < b
			}
			return keys[i] < keys[j]
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
}
