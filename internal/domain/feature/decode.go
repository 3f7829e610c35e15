// internal/domain/feature/decode.go

package feature

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// ErrNotFeatureCollection is returned when the document is not a GeoJSON FeatureCollection
var ErrNotFeatureCollection = eris.New("feature: document is not a FeatureCollection")

type collectionEnvelope struct {
	Type     string            `json:"type"`
	Features []featureEnvelope `json:"features"`
}

type featureEnvelope struct {
	Type       string                 `json:"type"`
	ID         json.RawMessage        `json:"id,omitempty"`
	Geometry   json.RawMessage        `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// Decode parses a GeoJSON FeatureCollection (RFC 7946).
// Geometries are decoded with go-geom; ids may be strings or numbers.
func Decode(data []byte) (*Collection, error) {
	var env collectionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, eris.Wrap(err, "feature: decode collection")
	}
	if env.Type != "FeatureCollection" {
		return nil, ErrNotFeatureCollection
	}

	c := &Collection{Features: make([]*Feature, 0, len(env.Features))}
	for i, fe := range env.Features {
		f := &Feature{
			ID:         decodeID(fe.ID),
			Properties: fe.Properties,
		}
		if f.Properties == nil {
			f.Properties = map[string]interface{}{}
		}

		if len(fe.Geometry) > 0 && !bytes.Equal(bytes.TrimSpace(fe.Geometry), []byte("null")) {
			var g geom.T
			if err := geojson.Unmarshal(fe.Geometry, &g); err != nil {
				return nil, eris.Wrapf(err, "feature: decode geometry of feature %d", i)
			}
			f.Geometry = g
		}

		c.Features = append(c.Features, f)
	}

	return c, nil
}

func decodeID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
