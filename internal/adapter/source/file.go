// internal/adapter/source/file.go

package source

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"propmap/internal/domain/feature"
	"propmap/internal/domain/temporal"
)

// Extension is appended to dataset names to form file names and URLs
const Extension = ".geojson"

// FileSource reads datasets from <dir>/<name>.geojson
type FileSource struct {
	dir string
}

// NewFileSource creates a source rooted at dir
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// Fetch reads and decodes the named dataset
func (s *FileSource) Fetch(ctx context.Context, name string) (*feature.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validName(name) {
		return nil, eris.Wrapf(temporal.ErrDatasetNotFound, "source: invalid dataset name %q", name)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name+Extension))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(temporal.ErrDatasetNotFound, "source: %s", name)
		}
		return nil, eris.Wrapf(err, "source: read dataset %s", name)
	}

	return feature.Decode(data)
}

// ReadFile decodes a GeoJSON file at an arbitrary path
func ReadFile(path string) (*feature.Collection, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "source: read %s", path)
	}
	c, err := feature.Decode(data)
	if err != nil {
		return nil, nil, err
	}
	return c, data, nil
}

// validName rejects empty names and anything that could escape the data directory
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}
