package log

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/bft-labs/bulkload/internal/ports"
)

func TestZerologAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologAdapterWithLogger(zerolog.New(&buf))

	logger.Info("batch applied",
		ports.Int("batch", 3),
		ports.String("operation", "patients"),
		ports.Bool("retried", true),
		ports.Duration("elapsed", time.Second),
		ports.Err(errors.New("boom")),
	)

	out := buf.String()
	assert.Contains(t, out, `"message":"batch applied"`)
	assert.Contains(t, out, `"batch":3`)
	assert.Contains(t, out, `"operation":"patients"`)
	assert.Contains(t, out, `"retried":true`)
	assert.Contains(t, out, `"error":"boom"`)
}

func TestNewZerologAdapterTo_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologAdapterTo(&buf, "warn")

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestNewZerologAdapterTo_UnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologAdapterTo(&buf, "loud")

	logger.Debug("hidden")
	logger.Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
