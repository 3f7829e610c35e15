// internal/service/scale/radius.go

package scale

import (
	"math"

	"go.uber.org/zap"

	"propmap/internal/domain/feature"
)

// DefaultFactor converts data units into circle area
const DefaultFactor = 0.0005

// Radius maps data values to circle radii so that circle area, not radius,
// is proportional to the value.
type Radius struct {
	factor float64
	log    *zap.Logger
}

// NewRadius creates a radius scale. A non-positive factor falls back to DefaultFactor.
func NewRadius(factor float64, log *zap.Logger) *Radius {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		factor = DefaultFactor
	}
	if log == nil {
		log = zap.L()
	}
	return &Radius{factor: factor, log: log}
}

// Factor returns the area scale factor
func (s *Radius) Factor() float64 {
	return s.factor
}

// Radius returns the circle radius for value. Zero, negative and non-finite
// values yield 0, the "no symbol" signal.
func (s *Radius) Radius(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		s.log.Warn("invalid value for radius calculation", zap.Float64("value", value))
		return 0
	}

	area := value * s.factor
	return math.Sqrt(area/math.Pi) * 2
}

// RadiusOf is Radius for a raw property value, which may be missing or not a number
func (s *Radius) RadiusOf(raw interface{}) float64 {
	v, ok := feature.NumericValue(raw)
	if !ok {
		s.log.Warn("non-numeric value for radius calculation", zap.Any("value", raw))
		return 0
	}
	return s.Radius(v)
}
