// internal/domain/temporal/model.go

package temporal

import (
	"strconv"
	"time"
)

// AttributeKey identifies one time slice of a time-series property (e.g. a year)
type AttributeKey string

// Keys converts plain strings into attribute keys
func Keys(values ...string) []AttributeKey {
	keys := make([]AttributeKey, len(values))
	for i, v := range values {
		keys[i] = AttributeKey(v)
	}
	return keys
}

// Stats holds the reference values for one attribute
type Stats struct {
	Min  float64 `json:"min"`
	Mean float64 `json:"mean"`
	Max  float64 `json:"max"`
}

// Style describes how a proportional symbol is drawn
type Style struct {
	FillColor   string  `json:"fill_color"`
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
	Opacity     float64 `json:"opacity"`
	FillOpacity float64 `json:"fill_opacity"`
}

// DefaultStyle is the orange circle used by every population map
var DefaultStyle = Style{
	FillColor:   "#ff7800",
	Color:       "#000",
	Weight:      1,
	Opacity:     1,
	FillOpacity: 0.8,
}

// PopupLine is one labeled row of a popup
type PopupLine struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Popup is the overlay bound to a symbol
type Popup struct {
	Lines   []PopupLine `json:"lines"`
	HTML    string      `json:"html"`
	OffsetX float64     `json:"offset_x"`
	OffsetY float64     `json:"offset_y"`
}

// SymbolState is the current visual state of one rendered feature
type SymbolState struct {
	FeatureID string   `json:"feature_id"`
	Name      string   `json:"name"`
	Longitude float64  `json:"lng"`
	Latitude  float64  `json:"lat"`
	Attribute string   `json:"attribute"`
	Value     *float64 `json:"value"`
	Radius    float64  `json:"radius"`
	Style     Style    `json:"style"`
	Popup     Popup    `json:"popup"`
}

// LegendCircle is one reference circle in the legend panel
type LegendCircle struct {
	Key    string  `json:"key"`
	Value  float64 `json:"value"`
	Label  string  `json:"label"`
	Radius float64 `json:"radius"`
	CX     float64 `json:"cx"`
	CY     float64 `json:"cy"`
	TextX  float64 `json:"text_x"`
	TextY  float64 `json:"text_y"`
}

// LegendView is the content of a mounted legend panel
type LegendView struct {
	Attribute string         `json:"attribute"`
	Title     string         `json:"title"`
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Circles   []LegendCircle `json:"circles"`
}

// NoticeLevel is the severity of a user-visible notice
type NoticeLevel string

const (
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a visible, non-blocking message attached to a degraded view
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// MapSettings are the parameters the client passes to the mapping library
type MapSettings struct {
	CenterLat   float64 `json:"center_lat"`
	CenterLng   float64 `json:"center_lng"`
	Zoom        int     `json:"zoom"`
	TileURL     string  `json:"tile_url"`
	Attribution string  `json:"attribution"`
}

// ViewState is everything a client needs to draw one map view
type ViewState struct {
	ID         string         `json:"id"`
	Dataset    string         `json:"dataset"`
	Map        MapSettings    `json:"map"`
	Attributes []AttributeKey `json:"attributes"`
	Index      int            `json:"index"`
	Selected   AttributeKey   `json:"selected"`
	Enabled    bool           `json:"enabled"`
	Symbols    []SymbolState  `json:"symbols"`
	Legend     *LegendView    `json:"legend,omitempty"`
	Notice     *Notice        `json:"notice,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	LastActive time.Time      `json:"last_active"`
}

// FormatValue renders a data value exactly, without trailing zeros
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Event types published for live clients
const (
	EventAttributeChanged = "attribute_changed"
	EventClosed           = "closed"
)

// Event is published whenever a view changes
type Event struct {
	Type   string     `json:"type"`
	ViewID string     `json:"view_id"`
	State  *ViewState `json:"state,omitempty"`
	Time   time.Time  `json:"time"`
}
