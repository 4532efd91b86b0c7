package log

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logcontext "github.com/va6996/tsetools/context"
)

func TestCustomFormatter_Format(t *testing.T) {
	f := &CustomFormatter{TimestampFormat: "2006-01-02"}
	entry := &logrus.Entry{
		Logger:  Logger,
		Time:    time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "upstream slow",
		Data: logrus.Fields{
			"request_id": "abc",
			"tool":       "search_stock",
			"attempt":    1,
		},
	}

	out, err := f.Format(entry)
	require.NoError(t, err)

	line := string(out)
	assert.Contains(t, line, "[2026-01-02] [WARNING] ")
	assert.Contains(t, line, "upstream slow [req:abc] attempt=1 tool=search_stock\n")
}

func TestInit(t *testing.T) {
	defer Logger.SetLevel(logrus.InfoLevel)

	assert.NoError(t, Init("debug"))
	assert.Equal(t, logrus.DebugLevel, Logger.GetLevel())

	assert.Error(t, Init("loud"))
	assert.Equal(t, logrus.InfoLevel, Logger.GetLevel())
}

func TestInfof_StampsRequestID(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(logrus.StandardLogger().Out)
	require.NoError(t, Init("info"))

	ctx := logcontext.WithRequestID(context.Background(), "req-1")
	Infof(ctx, "hello %s", "tse")

	assert.Contains(t, buf.String(), "hello tse [req:req-1]")
	assert.Contains(t, buf.String(), "[log_test.go:")
}
