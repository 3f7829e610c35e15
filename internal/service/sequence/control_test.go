package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propmap/internal/domain/temporal"
)

type recorder struct {
	calls []string
}

func (r *recorder) listener(name string) Listener {
	return func(index int, key temporal.AttributeKey) {
		r.calls = append(r.calls, name+":"+string(key))
	}
}

func TestForwardWraps(t *testing.T) {
	c := NewControl(temporal.Keys("2000", "2010", "2020"))

	require.NoError(t, c.Forward())
	require.NoError(t, c.Forward())
	assert.Equal(t, 2, c.Index())

	require.NoError(t, c.Forward())
	assert.Equal(t, 0, c.Index())
}

func TestReverseWraps(t *testing.T) {
	c := NewControl(temporal.Keys("2000", "2010", "2020"))

	require.NoError(t, c.Reverse())
	assert.Equal(t, 2, c.Index())

	key, ok := c.Selected()
	require.True(t, ok)
	assert.Equal(t, temporal.AttributeKey("2020"), key)
}

func TestSingleKeyIsNoOp(t *testing.T) {
	r := &recorder{}
	c := NewControl(temporal.Keys("2020"))
	c.Subscribe(r.listener("layer"))

	require.NoError(t, c.Forward())
	assert.Equal(t, 0, c.Index())
	require.NoError(t, c.Reverse())
	assert.Equal(t, 0, c.Index())
	assert.Empty(t, r.calls)
}

func TestSet(t *testing.T) {
	c := NewControl(temporal.Keys("2000", "2010", "2020"))

	require.NoError(t, c.Set(2))
	assert.Equal(t, 2, c.Index())

	assert.ErrorIs(t, c.Set(3), ErrOutOfRange)
	assert.ErrorIs(t, c.Set(-1), ErrOutOfRange)
	assert.Equal(t, 2, c.Index())
}

func TestDisabledWithoutKeys(t *testing.T) {
	c := NewControl(nil)

	assert.False(t, c.Enabled())
	assert.ErrorIs(t, c.Forward(), ErrDisabled)
	assert.ErrorIs(t, c.Reverse(), ErrDisabled)
	assert.ErrorIs(t, c.Set(0), ErrDisabled)

	_, ok := c.Selected()
	assert.False(t, ok)
}

func TestListenersRunInOrder(t *testing.T) {
	r := &recorder{}
	c := NewControl(temporal.Keys("2000", "2010"))
	c.Subscribe(r.listener("layer"))
	c.Subscribe(r.listener("legend"))

	require.NoError(t, c.Forward())
	require.NoError(t, c.Reverse())

	assert.Equal(t, []string{"layer:2010", "legend:2010", "layer:2000", "legend:2000"}, r.calls)
}

func TestReentrantTransitionRejected(t *testing.T) {
	c := NewControl(temporal.Keys("2000", "2010", "2020"))

	var inner error
	c.Subscribe(func(int, temporal.AttributeKey) {
		inner = c.Forward()
	})

	require.NoError(t, c.Forward())
	assert.ErrorIs(t, inner, ErrReentrant)
	assert.Equal(t, 1, c.Index())

	require.NoError(t, c.Forward())
	assert.Equal(t, 2, c.Index())
}

func TestApply(t *testing.T) {
	c := NewControl(temporal.Keys("2000", "2010", "2020"))

	require.NoError(t, c.Apply(temporal.ActionSeek, 1))
	assert.Equal(t, 1, c.Index())
	require.NoError(t, c.Apply(temporal.ActionForward, 0))
	assert.Equal(t, 2, c.Index())
	require.NoError(t, c.Apply(temporal.ActionReverse, 0))
	assert.Equal(t, 1, c.Index())
	assert.ErrorIs(t, c.Apply("jump", 0), ErrUnknown)
}

func TestKeysIsACopy(t *testing.T) {
	keys := temporal.Keys("2000", "2010")
	c := NewControl(keys)
	keys[0] = "changed"

	got := c.Keys()
	got[1] = "changed"
	assert.Equal(t, temporal.Keys("2000", "2010"), c.Keys())
}
