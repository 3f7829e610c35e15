// internal/domain/feature/model.go

package feature

import (
	"math"

	"github.com/twpayne/go-geom"
)

// Default property names used by the population datasets
const (
	DefaultSeriesProperty = "PopulationData"
	DefaultNameProperty   = "Entity Name"
)

// Feature is one geographic entity: a geometry plus its properties
type Feature struct {
	ID         string
	Geometry   geom.T
	Properties map[string]interface{}
}

// Collection is an ordered, read-only sequence of features
type Collection struct {
	Features []*Feature
}

// Len returns the number of features in the collection
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Features)
}

// Point returns the feature's point geometry, if it has one
func (f *Feature) Point() (*geom.Point, bool) {
	if f == nil || f.Geometry == nil {
		return nil, false
	}
	p, ok := f.Geometry.(*geom.Point)
	if !ok || p.Empty() {
		return nil, false
	}
	return p, true
}

// String returns a string property, or "" when absent or not a string
func (f *Feature) String(property string) string {
	if f == nil {
		return ""
	}
	s, _ := f.Properties[property].(string)
	return s
}

// Series returns the nested time-series mapping stored under property
func (f *Feature) Series(property string) (map[string]interface{}, bool) {
	if f == nil || f.Properties == nil {
		return nil, false
	}
	series, ok := f.Properties[property].(map[string]interface{})
	return series, ok
}

// SeriesValue returns the raw value for one time slice of the series
func (f *Feature) SeriesValue(property, key string) (interface{}, bool) {
	series, ok := f.Series(property)
	if !ok {
		return nil, false
	}
	v, ok := series[key]
	return v, ok
}

// NumericValue reports whether raw is a usable finite number.
// Only JSON numbers qualify; numeric-looking strings do not.
func NumericValue(raw interface{}) (float64, bool) {
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
