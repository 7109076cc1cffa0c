package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"threadscli/pkg/config"
)

func bufferLogger(buf *bytes.Buffer) *zerologLogger {
	return &zerologLogger{zl: zerolog.New(buf).Level(zerolog.DebugLevel)}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "warn level", cfg: &config.LoggingConfig{Level: "warn"}},
		{name: "debug level", cfg: &config.LoggingConfig{Level: "debug"}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "chatty"}, wantErr: true},
		{name: "file output", cfg: &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "threads.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestFieldChaining(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	l.WithField("query", "user-threads").
		WithFields(map[string]interface{}{"page": 2, "cursor": "abc"}).
		Info("fetching page")

	out := buf.String()
	assert.Contains(t, out, "fetching page")
	assert.Contains(t, out, `"query":"user-threads"`)
	assert.Contains(t, out, `"page":2`)
	assert.Contains(t, out, `"cursor":"abc"`)
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("connection reset")).Warn("request failed")
	assert.Contains(t, buf.String(), "connection reset")
}

func TestFieldTypes(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	l.DebugWithFields("typed", map[string]interface{}{
		"dur":   1500 * time.Millisecond,
		"names": []string{"a", "b"},
		"ok":    true,
		"err":   errors.New("boom"),
	})

	out := buf.String()
	assert.Contains(t, out, `"names":["a","b"]`)
	assert.Contains(t, out, `"ok":true`)
	assert.Contains(t, out, `"err":"boom"`)
}

func TestSecretsAreRedacted(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	l.WithField("session_id", "123%3Asecret").
		InfoWithFields("resolved", map[string]interface{}{"csrftoken": "tok", "source": "chrome"})

	out := buf.String()
	assert.NotContains(t, out, "secret")
	assert.NotContains(t, out, `:"tok"`)
	assert.Contains(t, out, `"session_id":"[redacted]"`)
	assert.Contains(t, out, `"csrftoken":"[redacted]"`)
	assert.Contains(t, out, `"source":"chrome"`)
}

func TestLogRequest(t *testing.T) {
	l := NewTestLogger()

	LogRequest(l, "POST", "/graphql/query", 200, 20*time.Millisecond, nil)
	LogRequest(l, "POST", "/graphql/query", 500, 20*time.Millisecond, nil)
	LogRequest(l, "GET", "/api/v1/users/web_profile_info/", 0, time.Second, errors.New("timeout"))

	assert.Len(t, l.GetMessagesByLevel("DEBUG"), 1)
	warns := l.GetMessagesByLevel("WARN")
	require.Len(t, warns, 2)
	assert.Equal(t, 500, warns[0].Fields["status_code"])
	assert.EqualError(t, warns[1].Error, "timeout")
}

func TestTestLoggerSharesSink(t *testing.T) {
	l := NewTestLogger()
	child := l.WithField("component", "docid")

	child.Info("cache hit")

	assert.True(t, l.HasMessage("cache hit"))
	msgs := l.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "docid", msgs[0].Fields["component"])
}
