package mapview

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"propmap/internal/domain/feature"
	"propmap/internal/domain/temporal"
	"propmap/internal/service/scale"
	"propmap/internal/service/sequence"
	"propmap/internal/service/symbol"
)

var testSettings = temporal.MapSettings{CenterLat: 38.5816, CenterLng: -121.4944, Zoom: 7}

func newTestController(t *testing.T, src *fakeSource, dataset string) (*Controller, error) {
	t.Helper()
	log := zap.NewNop()
	catalog := NewCatalog(src, feature.DefaultSeriesProperty, log)
	c := NewController("v1", dataset, testSettings, scale.NewRadius(scale.DefaultFactor, log), symbol.DefaultLayerConfig(), log)
	return c, c.Load(context.Background(), catalog)
}

func TestControllerLoadRendersFirstAttribute(t *testing.T) {
	c, err := newTestController(t, newFakeSource(), "counties")
	require.NoError(t, err)

	state := c.Snapshot()
	assert.Equal(t, "v1", state.ID)
	assert.Equal(t, testSettings, state.Map)
	assert.True(t, state.Enabled)
	assert.Equal(t, 0, state.Index)
	assert.Equal(t, temporal.AttributeKey("2000"), state.Selected)
	assert.Nil(t, state.Notice)

	require.Len(t, state.Symbols, 3)
	assert.Greater(t, state.Symbols[0].Radius, 0.0)
	assert.Greater(t, state.Symbols[1].Radius, 0.0)
	assert.Equal(t, 0.0, state.Symbols[2].Radius)
	assert.Greater(t, state.Symbols[0].Radius, state.Symbols[1].Radius)
	assert.Contains(t, state.Symbols[0].Popup.HTML, "Population in 2000:")

	require.NotNil(t, state.Legend)
	assert.Equal(t, "2000", state.Legend.Attribute)
	require.Len(t, state.Legend.Circles, 3)
}

func TestControllerStepUpdatesSymbolsAndLegend(t *testing.T) {
	c, err := newTestController(t, newFakeSource(), "counties")
	require.NoError(t, err)

	before := c.Snapshot()

	state, changed, err := c.Step(temporal.ActionForward, 0)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, state.Index)
	assert.Equal(t, temporal.AttributeKey("2010"), state.Selected)
	assert.Equal(t, "2010", state.Legend.Attribute)
	assert.Equal(t, "2010", state.Symbols[0].Attribute)
	assert.Greater(t, state.Symbols[0].Radius, before.Symbols[0].Radius)
	assert.Equal(t, -state.Symbols[0].Radius, state.Symbols[0].Popup.OffsetY)

	state, _, err = c.Step(temporal.ActionReverse, 0)
	require.NoError(t, err)
	state, _, err = c.Step(temporal.ActionReverse, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Index)
	assert.Equal(t, "2020", state.Legend.Attribute)

	state, changed, err = c.Step(temporal.ActionSeek, 2)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 2, state.Index)

	_, _, err = c.Step(temporal.ActionSeek, 3)
	assert.ErrorIs(t, err, sequence.ErrOutOfRange)
}

func TestControllerLoadFailureLeavesUsableView(t *testing.T) {
	src := newFakeSource()
	src.err = errors.New("timeout")

	c, err := newTestController(t, src, "counties")
	require.Error(t, err)

	state := c.Snapshot()
	assert.Equal(t, testSettings, state.Map)
	assert.False(t, state.Enabled)
	assert.Empty(t, state.Symbols)
	assert.Nil(t, state.Legend)
	require.NotNil(t, state.Notice)
	assert.Equal(t, temporal.NoticeError, state.Notice.Level)

	_, _, err = c.Step(temporal.ActionForward, 0)
	assert.ErrorIs(t, err, sequence.ErrDisabled)

	legend, err := c.Legend()
	require.NoError(t, err)
	assert.Empty(t, legend)
}

func TestControllerWithoutAttributes(t *testing.T) {
	c, err := newTestController(t, newFakeSource(), "empty")
	require.NoError(t, err)

	state := c.Snapshot()
	assert.False(t, state.Enabled)
	assert.Empty(t, state.Symbols)
	require.NotNil(t, state.Notice)
	assert.Equal(t, temporal.NoticeWarning, state.Notice.Level)
}

func TestControllerMismatchNotice(t *testing.T) {
	c, err := newTestController(t, newFakeSource(), "ragged")
	require.NoError(t, err)

	state := c.Snapshot()
	require.NotNil(t, state.Notice)
	assert.Equal(t, temporal.NoticeWarning, state.Notice.Level)

	state, _, err = c.Step(temporal.ActionForward, 0)
	require.NoError(t, err)
	assert.Greater(t, state.Symbols[0].Radius, 0.0)
	assert.Equal(t, 0.0, state.Symbols[1].Radius)
	assert.Nil(t, state.Symbols[1].Value)
	assert.NotContains(t, state.Symbols[1].Popup.HTML, "Population in")
}

func TestControllerLegendAndSymbolsOutput(t *testing.T) {
	c, err := newTestController(t, newFakeSource(), "counties")
	require.NoError(t, err)

	legend, err := c.Legend()
	require.NoError(t, err)
	assert.Contains(t, string(legend), `<span class="year">2000</span>`)

	symbols, err := c.Symbols()
	require.NoError(t, err)
	assert.Contains(t, string(symbols), `"FeatureCollection"`)
	assert.Contains(t, string(symbols), `"Sacramento"`)
}

func TestControllerClose(t *testing.T) {
	c, err := newTestController(t, newFakeSource(), "counties")
	require.NoError(t, err)

	c.Close()

	state := c.Snapshot()
	assert.Empty(t, state.Symbols)
	assert.Nil(t, state.Legend)

	_, _, err = c.Step(temporal.ActionForward, 0)
	assert.ErrorIs(t, err, temporal.ErrViewNotFound)
}
