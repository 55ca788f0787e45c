package logging_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakubdabek/gembiler/pkg/logging"
)

func TestLoggerDropsEntriesBelowMinLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := logging.New(logging.Config{MinLevel: logging.WARN, Outputs: []io.Writer{&buf}})
	require.NoError(t, err)
	defer l.Close()

	l.Info("should not appear")
	l.Warn("should appear")
	l.Sync()

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "should appear")
}

func TestLoggerJSONFormatIncludesJobAndStage(t *testing.T) {
	var buf bytes.Buffer
	l, err := logging.New(logging.Config{MinLevel: logging.DEBUG, Format: logging.JSONFormat, Outputs: []io.Writer{&buf}})
	require.NoError(t, err)
	defer l.Close()

	jl := l.WithJob("job-123")
	sl := jl.Stage("verify")
	sl.Entered()
	l.Sync()

	out := buf.String()
	assert.True(t, strings.Contains(out, `"job_id":"job-123"`))
	assert.True(t, strings.Contains(out, `"stage":"verify"`))
}

func TestSyncDrainsBufferedEntriesBeforeReturning(t *testing.T) {
	var buf bytes.Buffer
	l, err := logging.New(logging.Config{MinLevel: logging.DEBUG, Outputs: []io.Writer{&buf}})
	require.NoError(t, err)
	defer l.Close()

	for i := 0; i < 50; i++ {
		l.Info("entry")
	}
	l.Sync()

	assert.Equal(t, 50, strings.Count(buf.String(), "entry"))
}

func TestCloseIsIdempotent(t *testing.T) {
	l, err := logging.New(logging.Config{})
	require.NoError(t, err)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
}
