package mapview

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"

	"propmap/internal/domain/feature"
	"propmap/internal/domain/temporal"
)

const countiesJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "sac", "geometry": {"type": "Point", "coordinates": [-121.49, 38.58]},
     "properties": {"Entity Name": "Sacramento", "PopulationData": {"2010": 1418788, "2000": 1223499, "2020": 1585055}}},
    {"type": "Feature", "id": "yolo", "geometry": {"type": "Point", "coordinates": [-121.74, 38.73]},
     "properties": {"Entity Name": "Yolo", "PopulationData": {"2000": 168660, "2010": 200849, "2020": 216403}}},
    {"type": "Feature", "id": "ghost", "geometry": {"type": "Point", "coordinates": [-120.5, 39.1]},
     "properties": {"Entity Name": "Ghost Town", "PopulationData": {"2000": 0, "2010": 0, "2020": 0}}}
  ]
}`

const ragged = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [0, 0]},
     "properties": {"Entity Name": "A", "PopulationData": {"2000": 10, "2010": 20}}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [1, 1]},
     "properties": {"Entity Name": "B", "PopulationData": {"2000": 30}}}
  ]
}`

const noSeries = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [0, 0]},
     "properties": {"Entity Name": "A"}}
  ]
}`

type fakeSource struct {
	docs  map[string]string
	err   error
	calls atomic.Int32

	// started receives once per fetch when set; gate holds fetches until closed
	started chan struct{}
	gate    chan struct{}
	delay   time.Duration
}

func newFakeSource() *fakeSource {
	return &fakeSource{docs: map[string]string{
		"counties": countiesJSON,
		"ragged":   ragged,
		"empty":    noSeries,
	}}
}

func (s *fakeSource) Fetch(ctx context.Context, name string) (*feature.Collection, error) {
	s.calls.Add(1)
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	doc, ok := s.docs[name]
	if !ok {
		return nil, eris.Wrapf(temporal.ErrDatasetNotFound, "fake: %s", name)
	}
	return feature.Decode([]byte(doc))
}
