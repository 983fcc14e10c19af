package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Format: "json", Output: &buf, EnableCaller: true, Environment: "test"})

	l.WithComponent("order_service").Error("recompute failed", "order_id", 7)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "order_service", entry["component"])
	assert.Equal(t, "test", entry["environment"])
	assert.EqualValues(t, 7, entry["order_id"])
	assert.Contains(t, entry["caller"], "logger_test.go")
}

func TestLogger_WithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "json", Output: &buf, Component: "delivery-service"})

	l.With("request_id", "r1").WithComponent("menu_service").Info("updated")

	assert.Equal(t, 1, strings.Count(buf.String(), `"component"`))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "menu_service", entry["component"])
	assert.Equal(t, "r1", entry["request_id"])
}

func TestLogger_FatalRecordsCallerAndExits(t *testing.T) {
	var code int
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = os.Exit })

	var buf bytes.Buffer
	l := New(Config{Format: "json", Output: &buf, EnableCaller: true})
	l.Fatal("db: connect")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, 1, code)
	assert.Contains(t, entry["caller"], "logger_test.go")
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Output: &buf})

	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}
