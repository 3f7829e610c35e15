// internal/domain/temporal/errors.go

package temporal

import "github.com/rotisserie/eris"

// Common errors
var (
	ErrDatasetNotFound = eris.New("dataset not found")
	ErrViewNotFound    = eris.New("view not found")
	ErrTooManyViews    = eris.New("too many open views")
)
