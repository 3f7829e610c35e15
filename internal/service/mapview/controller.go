// internal/service/mapview/controller.go

package mapview

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"propmap/internal/domain/temporal"
	"propmap/internal/service/legend"
	"propmap/internal/service/scale"
	"propmap/internal/service/sequence"
	"propmap/internal/service/symbol"
)

// Controller owns one map view: its symbol layer, sequence control and
// legend. Every mutation runs under mu, so each event has a single writer.
type Controller struct {
	id         string
	dataset    string
	settings   temporal.MapSettings
	scale      *scale.Radius
	layer      *symbol.Layer
	control    *sequence.Control
	legend     *legend.Legend
	data       *Dataset
	notice     *temporal.Notice
	valueLabel string
	createdAt  time.Time
	lastActive time.Time
	closed     bool
	mu         sync.Mutex
	log        *zap.Logger
}

// NewController creates an empty view. Call Load to populate it.
func NewController(
	id string,
	dataset string,
	settings temporal.MapSettings,
	radius *scale.Radius,
	layerConfig symbol.LayerConfig,
	log *zap.Logger,
) *Controller {
	if log == nil {
		log = zap.L()
	}
	now := time.Now()
	log = log.With(zap.String("view", id), zap.String("dataset", dataset))

	return &Controller{
		id:         id,
		dataset:    dataset,
		settings:   settings,
		scale:      radius,
		layer:      symbol.NewLayer(radius, layerConfig, log),
		control:    sequence.NewControl(nil),
		valueLabel: layerConfig.ValueLabel,
		createdAt:  now,
		lastActive: now,
		log:        log,
	}
}

// ID returns the view identifier
func (c *Controller) ID() string {
	return c.id
}

// Load fetches the dataset and renders the initial state for its first
// attribute. When the fetch fails the view keeps its map settings, shows no
// symbols, and carries a notice; the error is returned for logging only.
func (c *Controller) Load(ctx context.Context, catalog *Catalog) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, err := catalog.Get(ctx, c.dataset)
	if err != nil {
		c.notice = &temporal.Notice{
			Level:   temporal.NoticeError,
			Message: fmt.Sprintf("Could not load data for %q; the map is shown without symbols.", c.dataset),
		}
		c.control = sequence.NewControl(nil)
		c.layer.Teardown()
		c.legend = nil
		return err
	}

	c.data = d
	c.control = sequence.NewControl(d.Keys)
	c.legend = legend.New(d.Stats, c.scale, c.valueLabel)

	first, ok := c.control.Selected()
	if !ok {
		c.notice = &temporal.Notice{
			Level:   temporal.NoticeWarning,
			Message: fmt.Sprintf("Dataset %q has no time-series attributes to display.", c.dataset),
		}
		c.layer.Teardown()
		return nil
	}

	c.layer.Render(d.Collection, first)
	c.legend.Refresh(first)

	c.control.Subscribe(func(_ int, key temporal.AttributeKey) {
		c.layer.Update(key)
	})
	c.control.Subscribe(func(_ int, key temporal.AttributeKey) {
		c.legend.Refresh(key)
	})

	if len(d.Mismatches) > 0 {
		c.notice = &temporal.Notice{
			Level:   temporal.NoticeWarning,
			Message: fmt.Sprintf("%d features have attributes that differ from the rest of the dataset.", len(d.Mismatches)),
		}
	}

	return nil
}

// Step applies a sequence action. It reports whether the selected attribute
// changed.
func (c *Controller) Step(action temporal.Action, index int) (temporal.ViewState, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return temporal.ViewState{}, false, temporal.ErrViewNotFound
	}

	c.lastActive = time.Now()
	before := c.control.Index()

	if err := c.control.Apply(action, index); err != nil {
		return c.snapshot(), false, err
	}

	changed := c.control.Index() != before
	if changed {
		c.log.Debug("attribute changed",
			zap.String("action", string(action)),
			zap.String("attribute", string(c.layer.Attribute())),
		)
	}

	return c.snapshot(), changed, nil
}

// Snapshot returns the current client state
func (c *Controller) Snapshot() temporal.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshot()
}

// Symbols returns the current symbols as GeoJSON
func (c *Controller) Symbols() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.layer.FeatureCollection()
}

// Legend returns the mounted legend panel markup, empty when none is mounted
func (c *Controller) Legend() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.legend == nil {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	if err := c.legend.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LastActive returns the time of the last interaction
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastActive
}

// Close tears down the symbols and unmounts the legend
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.layer.Teardown()
	if c.legend != nil {
		c.legend.Unmount()
	}
	c.control = sequence.NewControl(nil)
}

func (c *Controller) snapshot() temporal.ViewState {
	state := temporal.ViewState{
		ID:         c.id,
		Dataset:    c.dataset,
		Map:        c.settings,
		Attributes: c.control.Keys(),
		Index:      c.control.Index(),
		Enabled:    c.control.Enabled(),
		Symbols:    c.layer.Symbols(),
		CreatedAt:  c.createdAt,
		LastActive: c.lastActive,
	}
	if selected, ok := c.control.Selected(); ok {
		state.Selected = selected
	}
	if c.legend != nil {
		if view, ok := c.legend.Current(); ok {
			state.Legend = &view
		}
	}
	if c.notice != nil {
		n := *c.notice
		state.Notice = &n
	}
	return state
}
