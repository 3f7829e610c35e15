// internal/domain/temporal/service.go

package temporal

import (
	"context"

	"propmap/internal/domain/feature"
)

// Action is a user interaction with a sequence control
type Action string

const (
	ActionSeek    Action = "seek"
	ActionForward Action = "forward"
	ActionReverse Action = "reverse"
)

// Source fetches a named dataset
type Source interface {
	// Fetch returns the feature collection stored under name
	Fetch(ctx context.Context, name string) (*feature.Collection, error)
}

// Subscription is an active event subscription
type Subscription interface {
	Unsubscribe() error
}

// EventBus carries view events between the controllers and live clients
type EventBus interface {
	// Publish sends data on subject
	Publish(subject string, data []byte) error

	// Subscribe registers handler for messages on subject
	Subscribe(subject string, handler func(data []byte)) (Subscription, error)
}

// ViewManager defines the interface for managing map views
type ViewManager interface {
	// CreateView loads a dataset into a new view
	CreateView(ctx context.Context, dataset string) (*ViewState, error)

	// GetView returns the current state of a view
	GetView(ctx context.Context, id string) (*ViewState, error)

	// Step applies a sequence action to a view and returns the new state
	Step(ctx context.Context, id string, action Action, index int) (*ViewState, error)

	// Symbols returns the view's symbols as a GeoJSON FeatureCollection
	Symbols(ctx context.Context, id string) ([]byte, error)

	// Legend returns the view's legend panel markup
	Legend(ctx context.Context, id string) ([]byte, error)

	// CloseView tears down a view and its symbols
	CloseView(ctx context.Context, id string) error

	// ChangedSubject returns the event subject for a view's attribute changes
	ChangedSubject(id string) string

	// ClosedSubject returns the event subject for a view's teardown
	ClosedSubject(id string) string
}

// DatasetCatalog exposes dataset-level derived data
type DatasetCatalog interface {
	// Attributes returns the ordered attribute keys of a dataset and any uniformity mismatches
	Attributes(ctx context.Context, name string) ([]AttributeKey, []Mismatch, error)

	// Stats returns the per-attribute stats of a dataset
	Stats(ctx context.Context, name string) (map[AttributeKey]Stats, error)

	// Invalidate drops a cached dataset so the next request fetches it again
	Invalidate(name string)
}

// Mismatch describes a feature whose series keys differ from the dataset's attribute keys
type Mismatch struct {
	FeatureIndex int            `json:"feature_index"`
	FeatureID    string         `json:"feature_id"`
	Missing      []AttributeKey `json:"missing,omitempty"`
	Extra        []AttributeKey `json:"extra,omitempty"`
}
