// internal/service/mapview/manager.go

package mapview

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"propmap/internal/domain/temporal"
	"propmap/internal/metrics"
	"propmap/internal/service/scale"
	"propmap/internal/service/symbol"
)

// ManagerConfig contains configuration for the view manager
type ManagerConfig struct {
	EventsTopic        string
	IdleTimeout        time.Duration
	MonitoringInterval time.Duration
	MaxViews           int
	ScaleFactor        float64
	Map                temporal.MapSettings
	Layer              symbol.LayerConfig
}

// Manager implements the temporal.ViewManager interface
type Manager struct {
	catalog  *Catalog
	eventBus temporal.EventBus
	config   ManagerConfig
	scale    *scale.Radius
	views    sync.Map
	count    atomic.Int64
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	log      *zap.Logger
}

// NewManager creates a new view manager and starts idle-view monitoring
func NewManager(
	catalog *Catalog,
	eventBus temporal.EventBus,
	config ManagerConfig,
	log *zap.Logger,
) *Manager {
	if log == nil {
		log = zap.L()
	}
	if config.EventsTopic == "" {
		config.EventsTopic = "views"
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		catalog:  catalog,
		eventBus: eventBus,
		config:   config,
		scale:    scale.NewRadius(config.ScaleFactor, log),
		ctx:      ctx,
		cancel:   cancel,
		log:      log,
	}

	if config.IdleTimeout > 0 && config.MonitoringInterval > 0 {
		m.wg.Add(1)
		go m.monitorIdleViews()
	}

	return m
}

// CreateView loads a dataset into a new view. A dataset that fails to load
// still yields a view, carrying a notice instead of symbols.
func (m *Manager) CreateView(ctx context.Context, dataset string) (*temporal.ViewState, error) {
	// Reserve the slot before loading so concurrent creates cannot overshoot
	if n := m.count.Add(1); m.config.MaxViews > 0 && n > int64(m.config.MaxViews) {
		m.count.Add(-1)
		return nil, temporal.ErrTooManyViews
	}

	c := NewController(uuid.New().String(), dataset, m.config.Map, m.scale, m.config.Layer, m.log)

	if err := c.Load(ctx, m.catalog); err != nil {
		metrics.DegradedViewsTotal.Inc()
		m.log.Error("dataset load failed, view degraded",
			zap.String("view", c.ID()),
			zap.String("dataset", dataset),
			zap.Error(err),
		)
	}

	m.views.Store(c.ID(), c)
	metrics.ViewsCreatedTotal.Inc()
	metrics.ActiveViews.Inc()

	state := c.Snapshot()
	return &state, nil
}

// GetView returns the current state of a view
func (m *Manager) GetView(ctx context.Context, id string) (*temporal.ViewState, error) {
	c, err := m.controller(id)
	if err != nil {
		return nil, err
	}
	state := c.Snapshot()
	return &state, nil
}

// Step applies a sequence action to a view and publishes the change
func (m *Manager) Step(ctx context.Context, id string, action temporal.Action, index int) (*temporal.ViewState, error) {
	c, err := m.controller(id)
	if err != nil {
		return nil, err
	}

	state, changed, err := c.Step(action, index)
	if err != nil {
		metrics.TransitionsTotal.WithLabelValues(string(action), "rejected").Inc()
		return nil, err
	}
	metrics.TransitionsTotal.WithLabelValues(string(action), "ok").Inc()

	if changed {
		if err := m.publish(m.ChangedSubject(id), temporal.Event{
			Type:   temporal.EventAttributeChanged,
			ViewID: id,
			State:  &state,
			Time:   time.Now(),
		}); err != nil {
			// Log error but continue
			m.log.Warn("publish attribute change", zap.String("view", id), zap.Error(err))
		}
	}

	return &state, nil
}

// Symbols returns the view's symbols as a GeoJSON FeatureCollection
func (m *Manager) Symbols(ctx context.Context, id string) ([]byte, error) {
	c, err := m.controller(id)
	if err != nil {
		return nil, err
	}
	return c.Symbols()
}

// Legend returns the view's legend panel markup
func (m *Manager) Legend(ctx context.Context, id string) ([]byte, error) {
	c, err := m.controller(id)
	if err != nil {
		return nil, err
	}
	return c.Legend()
}

// CloseView tears down a view and its symbols
func (m *Manager) CloseView(ctx context.Context, id string) error {
	v, ok := m.views.LoadAndDelete(id)
	if !ok {
		return temporal.ErrViewNotFound
	}

	v.(*Controller).Close()
	m.count.Add(-1)
	metrics.ActiveViews.Dec()

	if err := m.publish(m.ClosedSubject(id), temporal.Event{
		Type:   temporal.EventClosed,
		ViewID: id,
		Time:   time.Now(),
	}); err != nil {
		m.log.Warn("publish view closed", zap.String("view", id), zap.Error(err))
	}

	return nil
}

// ChangedSubject returns the event subject for a view's attribute changes
func (m *Manager) ChangedSubject(id string) string {
	return fmt.Sprintf("%s.%s.changed", m.config.EventsTopic, id)
}

// ClosedSubject returns the event subject for a view's teardown
func (m *Manager) ClosedSubject(id string) string {
	return fmt.Sprintf("%s.%s.closed", m.config.EventsTopic, id)
}

// Count returns the number of open views
func (m *Manager) Count() int {
	return int(m.count.Load())
}

// Stop gracefully stops the manager's background work
func (m *Manager) Stop(ctx context.Context) error {
	m.cancel()

	c := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(c)
	}()

	select {
	case <-c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) controller(id string) (*Controller, error) {
	v, ok := m.views.Load(id)
	if !ok {
		return nil, temporal.ErrViewNotFound
	}
	return v.(*Controller), nil
}

func (m *Manager) publish(subject string, event temporal.Event) error {
	if m.eventBus == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return eris.Wrap(err, "mapview: marshal event")
	}
	return m.eventBus.Publish(subject, data)
}

// monitorIdleViews regularly closes views nobody has touched for IdleTimeout
func (m *Manager) monitorIdleViews() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.MonitoringInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.closeIdleViews(time.Now())
		}
	}
}

// closeIdleViews closes every view idle since before now - IdleTimeout
func (m *Manager) closeIdleViews(now time.Time) int {
	closed := 0
	m.views.Range(func(key, value interface{}) bool {
		id, ok := key.(string)
		if !ok {
			return true
		}

		c := value.(*Controller)
		if now.Sub(c.LastActive()) < m.config.IdleTimeout {
			return true
		}

		if err := m.CloseView(m.ctx, id); err == nil {
			closed++
			m.log.Info("closed idle view", zap.String("view", id))
		}
		return true
	})
	return closed
}
