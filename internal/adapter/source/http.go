// internal/adapter/source/http.go

package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"propmap/internal/domain/feature"
	"propmap/internal/domain/temporal"
)

// maxBodySize bounds a fetched dataset
const maxBodySize = 64 << 20

// ErrTooLarge is returned for datasets over the body size limit
var ErrTooLarge = eris.New("source: dataset too large")

// HTTPSource fetches datasets with GET <baseURL>/<name>.geojson
type HTTPSource struct {
	baseURL string
	client  *http.Client
	maxBody int64
}

// NewHTTPSource creates a source over a static file server
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		maxBody: maxBodySize,
	}
}

// Fetch downloads and decodes the named dataset
func (s *HTTPSource) Fetch(ctx context.Context, name string) (*feature.Collection, error) {
	if !validName(name) {
		return nil, eris.Wrapf(temporal.ErrDatasetNotFound, "source: invalid dataset name %q", name)
	}

	u := fmt.Sprintf("%s/%s%s", s.baseURL, url.PathEscape(name), Extension)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, eris.Wrap(err, "source: build request")
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "source: fetch %s", u)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, eris.Wrapf(temporal.ErrDatasetNotFound, "source: %s", u)
	case resp.StatusCode != http.StatusOK:
		return nil, eris.Errorf("source: fetch %s: unexpected status %d", u, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody+1))
	if err != nil {
		return nil, eris.Wrapf(err, "source: read body of %s", u)
	}
	if int64(len(data)) > s.maxBody {
		return nil, eris.Wrapf(ErrTooLarge, "source: %s exceeds %d bytes", u, s.maxBody)
	}

	return feature.Decode(data)
}
