package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProductionWritesJSONWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Service: "test", Environment: "production", Output: &buf})

	ctx := ContextWithRequestID(context.Background(), "req-1")
	log.WithContext(ctx).WithUser("u1").Info("invite sent", "team_id", "t1")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "invite sent", entry["message"])
	require.Equal(t, "test", entry["service"])
	require.Equal(t, "req-1", entry["request_id"])
	require.Equal(t, "u1", entry["user_id"])
	require.Equal(t, "t1", entry["team_id"])
}

func TestProductionDropsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Service: "test", Environment: "production", Output: &buf})
	log.Debug("hidden")
	require.Zero(t, buf.Len())
}

func TestWithContextWithoutRequestIDReturnsSameLogger(t *testing.T) {
	log := Nop()
	require.Same(t, log, log.WithContext(context.Background()))
}
