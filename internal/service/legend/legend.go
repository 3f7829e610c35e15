// internal/service/legend/legend.go

package legend

import (
	"html/template"
	"io"
	"math"

	"github.com/rotisserie/eris"

	"propmap/internal/domain/temporal"
	"propmap/internal/service/scale"
	"propmap/internal/service/stats"
)

// Panel geometry
const (
	width   = 160
	height  = 60
	baseY   = 59
	circleX = 30
	textX   = 75
	rowStep = 20
)

var panelTemplate = template.Must(template.New("legend").Parse(
	`<div class="legend-control-container">` +
		`<p class="temporalLegend">{{.Title}} <span class="year">{{.Attribute}}</span></p>` +
		`<svg id="attribute-legend" width="{{.Width}}px" height="{{.Height}}px">` +
		`{{range .Circles}}<circle class="legend-circle" id="{{.Key}}" r="{{.Radius}}" cy="{{.CY}}" cx="{{.CX}}" fill="#F47821" fill-opacity="0.8" stroke="#000000"/>{{end}}` +
		`{{range .Circles}}<text id="{{.Key}}-text" x="{{.TextX}}" y="{{.TextY}}">{{.Label}}</text>{{end}}` +
		`</svg></div>`,
))

// Legend renders reference circles for the min, mean and max of the selected
// attribute. At most one panel is mounted at a time.
type Legend struct {
	table   stats.Table
	scale   *scale.Radius
	label   string
	mounted *temporal.LegendView
}

// New creates an unmounted legend over a shared stats table
func New(table stats.Table, radius *scale.Radius, valueLabel string) *Legend {
	if valueLabel == "" {
		valueLabel = "Population"
	}
	return &Legend{
		table: table,
		scale: radius,
		label: valueLabel,
	}
}

// Refresh replaces the mounted panel with one for key
func (l *Legend) Refresh(key temporal.AttributeKey) temporal.LegendView {
	l.Unmount()

	s := l.table.Get(key)
	entries := []struct {
		name  string
		value float64
		label string
	}{
		{"max", s.Max, temporal.FormatValue(s.Max)},
		{"mean", s.Mean, temporal.FormatValue(roundHalfUp(s.Mean))},
		{"min", s.Min, temporal.FormatValue(s.Min)},
	}

	view := temporal.LegendView{
		Attribute: string(key),
		Title:     l.label + " in",
		Width:     width,
		Height:    height,
		Circles:   make([]temporal.LegendCircle, 0, len(entries)),
	}
	for i, e := range entries {
		r := l.scale.Radius(e.value)
		view.Circles = append(view.Circles, temporal.LegendCircle{
			Key:    e.name,
			Value:  e.value,
			Label:  e.label,
			Radius: r,
			CX:     circleX,
			CY:     baseY - r,
			TextX:  textX,
			TextY:  float64(i*rowStep + rowStep),
		})
	}

	l.mounted = &view
	return view
}

// Unmount removes the current panel, if any
func (l *Legend) Unmount() {
	l.mounted = nil
}

// Mounted reports whether a panel is currently shown
func (l *Legend) Mounted() bool {
	return l.mounted != nil
}

// Current returns a copy of the mounted panel
func (l *Legend) Current() (temporal.LegendView, bool) {
	if l.mounted == nil {
		return temporal.LegendView{}, false
	}
	view := *l.mounted
	view.Circles = append([]temporal.LegendCircle(nil), l.mounted.Circles...)
	return view, true
}

// Render writes the mounted panel as HTML with an inline SVG
func (l *Legend) Render(w io.Writer) error {
	view, ok := l.Current()
	if !ok {
		return nil
	}
	if err := panelTemplate.Execute(w, view); err != nil {
		return eris.Wrap(err, "legend: render panel")
	}
	return nil
}

// roundHalfUp matches the display rounding of the legend mean (2.5 -> 3, -2.5 -> -2)
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
