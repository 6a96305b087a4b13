package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupProdWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(EnvProd, &buf)

	l.Info("booking created", slog.Int64("booking_id", 7), Err(errors.New("boom")))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "booking created", entry["msg"])
	assert.Equal(t, float64(7), entry["booking_id"])
	assert.Equal(t, "boom", entry["error"])
}

func TestSetupProdSkipsDebug(t *testing.T) {
	var buf bytes.Buffer
	Setup(EnvProd, &buf).Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestSetupLocalIsPretty(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(EnvLocal, &buf).With(slog.String("op", "booking.Create"))

	l.Debug("lock acquired", slog.Int64("tutor_id", 3))

	out := buf.String()
	assert.Contains(t, out, "lock acquired")
	assert.Contains(t, out, `"op": "booking.Create"`)
	assert.Contains(t, out, `"tutor_id": 3`)
}
