package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParsesLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(&buf, "DEBUG", "text")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log = NewWithOutput(&buf, "loud", "text")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.Contains(t, buf.String(), "invalid LOG_LEVEL")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(&buf, "info", "json")
	log.WithField("correlation_id", "abc").Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "abc", line["correlation_id"])
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.NotNil(t, FromContext(ctx))
	assert.Empty(t, CorrelationID(ctx))

	entry := logrus.New().WithField("k", "v")
	ctx = IntoContext(ctx, entry)
	ctx = WithCorrelationID(ctx, "cid-1")

	assert.Same(t, entry, FromContext(ctx))
	assert.Equal(t, "cid-1", CorrelationID(ctx))
}
