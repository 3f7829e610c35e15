package scale

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRadiusInvalidValues(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := NewRadius(DefaultFactor, zap.New(core))

	assert.Zero(t, s.Radius(0))
	assert.Zero(t, s.Radius(-5))
	assert.Zero(t, s.Radius(math.NaN()))
	assert.Zero(t, s.Radius(math.Inf(1)))
	assert.Zero(t, s.RadiusOf(nil))
	assert.Zero(t, s.RadiusOf("bad"))

	assert.Equal(t, 6, logs.Len())
}

func TestRadiusFormula(t *testing.T) {
	s := NewRadius(DefaultFactor, zap.NewNop())

	want := math.Sqrt(100000*0.0005/math.Pi) * 2
	assert.InDelta(t, want, s.Radius(100000), 1e-12)
	assert.InDelta(t, want, s.RadiusOf(100000.0), 1e-12)
}

func TestRadiusStrictlyIncreasing(t *testing.T) {
	s := NewRadius(DefaultFactor, zap.NewNop())

	prev := 0.0
	for _, v := range []float64{0.001, 1, 2, 10, 1e3, 1e6, 1e9} {
		r := s.Radius(v)
		assert.Greater(t, r, prev, "radius(%v)", v)
		prev = r
	}
}

func TestRadiusAreaProportional(t *testing.T) {
	s := NewRadius(DefaultFactor, zap.NewNop())

	for _, v := range []float64{1, 37, 5000, 2.5e6} {
		assert.InDelta(t, 2.0, s.Radius(4*v)/s.Radius(v), 1e-9)

		area := math.Pi * s.Radius(v) * s.Radius(v)
		area2 := math.Pi * s.Radius(2*v) * s.Radius(2*v)
		assert.InDelta(t, 2.0, area2/area, 1e-9)
	}
}

func TestRadiusIdempotent(t *testing.T) {
	s := NewRadius(DefaultFactor, zap.NewNop())
	assert.Equal(t, s.Radius(1234), s.Radius(1234))
}

func TestNewRadiusFallsBackToDefaultFactor(t *testing.T) {
	assert.Equal(t, DefaultFactor, NewRadius(0, zap.NewNop()).Factor())
	assert.Equal(t, DefaultFactor, NewRadius(-1, zap.NewNop()).Factor())
	assert.Equal(t, 0.01, NewRadius(0.01, zap.NewNop()).Factor())
}
