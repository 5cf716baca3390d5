package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	raw, err := m.Get(ctx, "system/status")
	require.NoError(t, err)
	assert.True(t, IsEmpty(raw))

	require.NoError(t, m.SetJSON("/system/status/", map[string]any{"rf": map[string]bool{"active": true}}))
	raw, err = m.Get(ctx, "system/status")
	require.NoError(t, err)
	assert.JSONEq(t, `{"rf":{"active":true}}`, string(raw))

	raw[0] = 'X'
	again, _ := m.Get(ctx, "system/status")
	assert.Equal(t, byte('{'), again[0])

	boom := errors.New("boom")
	m.FailWith("system/status", boom)
	_, err = m.Get(ctx, "system/status")
	assert.ErrorIs(t, err, boom)
	m.FailWith("system/status", nil)

	m.Delete("system/status")
	raw, err = m.Get(ctx, "system/status")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestMemoryStoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryStore().Get(ctx, "events/rf")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty([]byte(" null\n")))
	assert.False(t, IsEmpty([]byte(`{}`)))
}
