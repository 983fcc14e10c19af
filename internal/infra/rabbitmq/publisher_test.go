package rabbitmq

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	msg := NewMessage("order.created", map[string]any{"orderId": 7})

	assert.Equal(t, "order.created", msg.Pattern)
	_, err := uuid.Parse(msg.ID)
	assert.NoError(t, err)
	assert.False(t, msg.OccurredAt.IsZero())

	body, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "order.created", decoded["pattern"])
	assert.EqualValues(t, 7, decoded["data"].(map[string]any)["orderId"])
}
