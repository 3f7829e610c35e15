// internal/service/symbol/layer.go

package symbol

import (
	"bytes"
	"encoding/json"
	"html/template"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"propmap/internal/domain/feature"
	"propmap/internal/domain/temporal"
	"propmap/internal/service/scale"
)

var popupTemplate = template.Must(template.New("popup").Parse(
	`{{range .}}<p><b>{{.Label}}:</b> {{.Value}}</p>{{end}}`,
))

// LayerConfig contains configuration for a symbol layer
type LayerConfig struct {
	SeriesProperty string
	NameProperty   string
	EntityLabel    string
	ValueLabel     string
	Style          temporal.Style
}

// DefaultLayerConfig returns the configuration of the county population map
func DefaultLayerConfig() LayerConfig {
	return LayerConfig{
		SeriesProperty: feature.DefaultSeriesProperty,
		NameProperty:   feature.DefaultNameProperty,
		EntityLabel:    "County Name",
		ValueLabel:     "Population",
		Style:          temporal.DefaultStyle,
	}
}

// Symbol is a handle to one rendered circle marker
type Symbol struct {
	feature *feature.Feature
	state   temporal.SymbolState
}

// State returns a copy of the symbol's current visual state
func (s *Symbol) State() temporal.SymbolState {
	st := s.state
	st.Popup.Lines = append([]temporal.PopupLine(nil), s.state.Popup.Lines...)
	if s.state.Value != nil {
		v := *s.state.Value
		st.Value = &v
	}
	return st
}

// Layer binds point features to proportional circle symbols with popups
type Layer struct {
	scale     *scale.Radius
	config    LayerConfig
	symbols   []*Symbol
	attribute temporal.AttributeKey
	log       *zap.Logger
}

// NewLayer creates an empty symbol layer
func NewLayer(radius *scale.Radius, config LayerConfig, log *zap.Logger) *Layer {
	defaults := DefaultLayerConfig()
	if config.SeriesProperty == "" {
		config.SeriesProperty = defaults.SeriesProperty
	}
	if config.NameProperty == "" {
		config.NameProperty = defaults.NameProperty
	}
	if config.EntityLabel == "" {
		config.EntityLabel = defaults.EntityLabel
	}
	if config.ValueLabel == "" {
		config.ValueLabel = defaults.ValueLabel
	}
	if config.Style == (temporal.Style{}) {
		config.Style = defaults.Style
	}
	if log == nil {
		log = zap.L()
	}

	return &Layer{
		scale:  radius,
		config: config,
		log:    log,
	}
}

// Render creates one symbol per point feature, styled for key. Any previously
// rendered symbols are discarded.
func (l *Layer) Render(c *feature.Collection, key temporal.AttributeKey) []*Symbol {
	l.symbols = nil

	if c != nil {
		l.symbols = make([]*Symbol, 0, c.Len())
		for i, f := range c.Features {
			p, ok := f.Point()
			if !ok {
				l.log.Warn("skipping feature without point geometry",
					zap.Int("index", i),
					zap.String("feature", f.ID),
				)
				continue
			}

			s := &Symbol{
				feature: f,
				state: temporal.SymbolState{
					FeatureID: f.ID,
					Name:      f.String(l.config.NameProperty),
					Longitude: p.X(),
					Latitude:  p.Y(),
					Style:     l.config.Style,
				},
			}
			l.symbols = append(l.symbols, s)
		}
	}

	l.Update(key)

	handles := make([]*Symbol, len(l.symbols))
	copy(handles, l.symbols)
	return handles
}

// Update re-derives every symbol's radius and popup for key in place
func (l *Layer) Update(key temporal.AttributeKey) {
	l.attribute = key

	for _, s := range l.symbols {
		s.state.Attribute = string(key)
		s.state.Value = nil

		raw, _ := s.feature.SeriesValue(l.config.SeriesProperty, string(key))
		if v, ok := feature.NumericValue(raw); ok {
			s.state.Value = &v
		}
		s.state.Radius = l.scale.RadiusOf(raw)

		s.state.Popup = l.popup(s.state)
	}
}

// Attribute returns the attribute the layer is currently rendered for
func (l *Layer) Attribute() temporal.AttributeKey {
	return l.attribute
}

// Symbols returns a copy of every symbol's current state, in render order
func (l *Layer) Symbols() []temporal.SymbolState {
	states := make([]temporal.SymbolState, len(l.symbols))
	for i, s := range l.symbols {
		states[i] = s.State()
	}
	return states
}

// Teardown destroys every symbol
func (l *Layer) Teardown() {
	l.symbols = nil
	l.attribute = ""
}

// FeatureCollection encodes the current symbols as a GeoJSON FeatureCollection
func (l *Layer) FeatureCollection() ([]byte, error) {
	fc := &geojson.FeatureCollection{
		Features: make([]*geojson.Feature, 0, len(l.symbols)),
	}

	for _, s := range l.symbols {
		st := s.state
		props := map[string]interface{}{
			"feature_id":   st.FeatureID,
			"name":         st.Name,
			"attribute":    st.Attribute,
			"value":        st.Value,
			"radius":       st.Radius,
			"popup":        st.Popup.HTML,
			"popup_offset": []float64{st.Popup.OffsetX, st.Popup.OffsetY},
			"fill_color":   st.Style.FillColor,
			"color":        st.Style.Color,
			"weight":       st.Style.Weight,
			"opacity":      st.Style.Opacity,
			"fill_opacity": st.Style.FillOpacity,
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   geom.NewPointFlat(geom.XY, []float64{st.Longitude, st.Latitude}),
			Properties: props,
		})
	}

	data, err := json.Marshal(fc)
	if err != nil {
		return nil, eris.Wrap(err, "symbol: encode feature collection")
	}
	return data, nil
}

func (l *Layer) popup(st temporal.SymbolState) temporal.Popup {
	lines := []temporal.PopupLine{{Label: l.config.EntityLabel, Value: st.Name}}
	if st.Value != nil {
		lines = append(lines, temporal.PopupLine{
			Label: l.config.ValueLabel + " in " + st.Attribute,
			Value: temporal.FormatValue(*st.Value),
		})
	}

	var buf bytes.Buffer
	if err := popupTemplate.Execute(&buf, lines); err != nil {
		l.log.Error("render popup", zap.String("feature", st.FeatureID), zap.Error(err))
	}

	return temporal.Popup{
		Lines:   lines,
		HTML:    buf.String(),
		OffsetX: 0,
		OffsetY: -st.Radius,
	}
}
