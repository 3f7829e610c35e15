package mapview

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"propmap/internal/adapter/events"
	"propmap/internal/domain/feature"
	"propmap/internal/domain/temporal"
	"propmap/internal/service/scale"
	"propmap/internal/service/sequence"
	"propmap/internal/service/symbol"
)

func newTestManager(t *testing.T, src *fakeSource, bus temporal.EventBus, config ManagerConfig) *Manager {
	t.Helper()
	log := zap.NewNop()
	if config.ScaleFactor == 0 {
		config.ScaleFactor = scale.DefaultFactor
	}
	if config.Layer == (symbol.LayerConfig{}) {
		config.Layer = symbol.DefaultLayerConfig()
	}
	m := NewManager(NewCatalog(src, feature.DefaultSeriesProperty, log), bus, config, log)
	t.Cleanup(func() {
		_ = m.Stop(context.Background())
	})
	return m
}

func TestManagerCreateAndGet(t *testing.T) {
	m := newTestManager(t, newFakeSource(), nil, ManagerConfig{Map: testSettings})

	state, err := m.CreateView(context.Background(), "counties")
	require.NoError(t, err)
	assert.NotEmpty(t, state.ID)
	assert.Equal(t, "counties", state.Dataset)
	assert.Len(t, state.Symbols, 3)
	assert.Equal(t, 1, m.Count())

	got, err := m.GetView(context.Background(), state.ID)
	require.NoError(t, err)
	assert.Equal(t, state.ID, got.ID)

	_, err = m.GetView(context.Background(), "nope")
	assert.ErrorIs(t, err, temporal.ErrViewNotFound)
}

func TestManagerViewsHaveIndependentCursors(t *testing.T) {
	m := newTestManager(t, newFakeSource(), nil, ManagerConfig{})

	a, err := m.CreateView(context.Background(), "counties")
	require.NoError(t, err)
	b, err := m.CreateView(context.Background(), "counties")
	require.NoError(t, err)

	_, err = m.Step(context.Background(), a.ID, temporal.ActionForward, 0)
	require.NoError(t, err)

	got, err := m.GetView(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Index)
}

func TestManagerDegradedView(t *testing.T) {
	src := newFakeSource()
	src.err = errors.New("unreachable")
	m := newTestManager(t, src, nil, ManagerConfig{})

	state, err := m.CreateView(context.Background(), "counties")
	require.NoError(t, err)
	require.NotNil(t, state.Notice)
	assert.False(t, state.Enabled)

	_, err = m.Step(context.Background(), state.ID, temporal.ActionForward, 0)
	assert.ErrorIs(t, err, sequence.ErrDisabled)
}

func TestManagerStepPublishesChanges(t *testing.T) {
	bus := events.NewLocalBus()
	m := newTestManager(t, newFakeSource(), bus, ManagerConfig{EventsTopic: "maps"})

	state, err := m.CreateView(context.Background(), "counties")
	require.NoError(t, err)

	var received []temporal.Event
	_, err = bus.Subscribe(m.ChangedSubject(state.ID), func(data []byte) {
		var e temporal.Event
		require.NoError(t, json.Unmarshal(data, &e))
		received = append(received, e)
	})
	require.NoError(t, err)
	assert.Equal(t, "maps."+state.ID+".changed", m.ChangedSubject(state.ID))

	_, err = m.Step(context.Background(), state.ID, temporal.ActionSeek, 2)
	require.NoError(t, err)
	_, err = m.Step(context.Background(), state.ID, temporal.ActionSeek, 2)
	require.NoError(t, err)

	require.Len(t, received, 1)
	assert.Equal(t, temporal.EventAttributeChanged, received[0].Type)
	assert.Equal(t, state.ID, received[0].ViewID)
	require.NotNil(t, received[0].State)
	assert.Equal(t, temporal.AttributeKey("2020"), received[0].State.Selected)
}

func TestManagerCloseView(t *testing.T) {
	bus := events.NewLocalBus()
	m := newTestManager(t, newFakeSource(), bus, ManagerConfig{})

	state, err := m.CreateView(context.Background(), "counties")
	require.NoError(t, err)

	closed := 0
	_, err = bus.Subscribe(m.ClosedSubject(state.ID), func([]byte) { closed++ })
	require.NoError(t, err)

	require.NoError(t, m.CloseView(context.Background(), state.ID))
	assert.Equal(t, 1, closed)
	assert.Equal(t, 0, m.Count())

	assert.ErrorIs(t, m.CloseView(context.Background(), state.ID), temporal.ErrViewNotFound)
	_, err = m.Symbols(context.Background(), state.ID)
	assert.ErrorIs(t, err, temporal.ErrViewNotFound)
}

func TestManagerMaxViews(t *testing.T) {
	m := newTestManager(t, newFakeSource(), nil, ManagerConfig{MaxViews: 1})

	_, err := m.CreateView(context.Background(), "counties")
	require.NoError(t, err)

	_, err = m.CreateView(context.Background(), "counties")
	assert.ErrorIs(t, err, temporal.ErrTooManyViews)
}

func TestManagerClosesIdleViews(t *testing.T) {
	m := newTestManager(t, newFakeSource(), nil, ManagerConfig{IdleTimeout: time.Minute})

	idle, err := m.CreateView(context.Background(), "counties")
	require.NoError(t, err)

	assert.Equal(t, 0, m.closeIdleViews(time.Now()))
	assert.Equal(t, 1, m.closeIdleViews(time.Now().Add(2*time.Minute)))

	_, err = m.GetView(context.Background(), idle.ID)
	assert.ErrorIs(t, err, temporal.ErrViewNotFound)
}

func TestManagerLegendAndSymbols(t *testing.T) {
	m := newTestManager(t, newFakeSource(), nil, ManagerConfig{})

	state, err := m.CreateView(context.Background(), "counties")
	require.NoError(t, err)

	legend, err := m.Legend(context.Background(), state.ID)
	require.NoError(t, err)
	assert.Contains(t, string(legend), "attribute-legend")

	symbols, err := m.Symbols(context.Background(), state.ID)
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(symbols, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 3)
	assert.Equal(t, "#ff7800", fc.Features[0].Properties["fill_color"])
}

func TestManagerMaxViewsUnderConcurrentCreates(t *testing.T) {
	src := newFakeSource()
	src.delay = 20 * time.Millisecond
	m := newTestManager(t, src, nil, ManagerConfig{MaxViews: 2})

	var (
		wg       sync.WaitGroup
		created  atomic.Int32
		rejected atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.CreateView(context.Background(), "counties")
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, temporal.ErrTooManyViews):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(2), created.Load())
	assert.Equal(t, int32(18), rejected.Load())
	assert.Equal(t, 2, m.Count())
}
