package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLifecycleEvent(t *testing.T) {
	at := time.Date(2025, 3, 6, 10, 0, 0, 0, time.UTC)
	event := NewLifecycleEvent(9, "lead", "update_status", []string{"a", "b"}, at)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, LifecycleEventType, event.Type)

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "lead", decoded["kind"])
	assert.Equal(t, "2025-03-06T10:00:00Z", decoded["occurred_at"])
	assert.NotContains(t, decoded, "request_id")
}

func TestNoopEventPublisher(t *testing.T) {
	p := NewNoopEventPublisher()
	assert.NoError(t, p.Publish(context.Background(), LifecycleEvent{}))
	assert.NoError(t, p.Close())
}
