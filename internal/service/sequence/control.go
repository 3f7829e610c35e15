// internal/service/sequence/control.go

package sequence

import (
	"github.com/rotisserie/eris"

	"propmap/internal/domain/temporal"
)

// Control errors
var (
	ErrDisabled   = eris.New("sequence: control is disabled")
	ErrOutOfRange = eris.New("sequence: index out of range")
	ErrReentrant  = eris.New("sequence: transition already in progress")
	ErrUnknown    = eris.New("sequence: unknown action")
)

// Listener is notified synchronously after every index change
type Listener func(index int, key temporal.AttributeKey)

// Control is the slider plus forward/reverse buttons: a cursor into the
// ordered attribute keys. It is not safe for concurrent use; the owning
// view serializes calls.
type Control struct {
	keys        []temporal.AttributeKey
	index       int
	listeners   []Listener
	dispatching bool
}

// NewControl creates a control positioned at the first key
func NewControl(keys []temporal.AttributeKey) *Control {
	return &Control{
		keys: append([]temporal.AttributeKey(nil), keys...),
	}
}

// Subscribe registers a listener. Listeners run in registration order.
func (c *Control) Subscribe(l Listener) {
	c.listeners = append(c.listeners, l)
}

// Enabled reports whether there is anything to step through
func (c *Control) Enabled() bool {
	return len(c.keys) > 0
}

// Len returns the number of positions
func (c *Control) Len() int {
	return len(c.keys)
}

// Index returns the current position
func (c *Control) Index() int {
	return c.index
}

// Keys returns a copy of the ordered keys
func (c *Control) Keys() []temporal.AttributeKey {
	return append([]temporal.AttributeKey(nil), c.keys...)
}

// Selected returns the key at the current position
func (c *Control) Selected() (temporal.AttributeKey, bool) {
	if !c.Enabled() {
		return "", false
	}
	return c.keys[c.index], true
}

// Set jumps to position p, as when the slider is dragged
func (c *Control) Set(p int) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	if p < 0 || p >= len(c.keys) {
		return eris.Wrapf(ErrOutOfRange, "sequence: position %d not in [0, %d]", p, len(c.keys)-1)
	}
	return c.move(p)
}

// Forward steps to the next position, wrapping to the first after the last
func (c *Control) Forward() error {
	if !c.Enabled() {
		return ErrDisabled
	}
	return c.move((c.index + 1) % len(c.keys))
}

// Reverse steps to the previous position, wrapping to the last before the first
func (c *Control) Reverse() error {
	if !c.Enabled() {
		return ErrDisabled
	}
	n := len(c.keys)
	return c.move((c.index - 1 + n) % n)
}

// Apply performs action; index is only used by ActionSeek
func (c *Control) Apply(action temporal.Action, index int) error {
	switch action {
	case temporal.ActionForward:
		return c.Forward()
	case temporal.ActionReverse:
		return c.Reverse()
	case temporal.ActionSeek:
		return c.Set(index)
	default:
		return eris.Wrapf(ErrUnknown, "sequence: action %q", action)
	}
}

func (c *Control) move(next int) error {
	if c.dispatching {
		return ErrReentrant
	}
	if next == c.index {
		return nil
	}

	c.index = next
	key := c.keys[next]

	c.dispatching = true
	defer func() { c.dispatching = false }()

	for _, l := range c.listeners {
		l(next, key)
	}
	return nil
}
