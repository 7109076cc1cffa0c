package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, "gopher", 4)
	start := p.start
	p.now = func() time.Time { return start.Add(10 * time.Second) }

	p.Saved("A_00.jpg", 2048)
	p.Skipped("A_01.jpg")

	line := p.line()
	assert.Contains(t, line, "gopher [")
	assert.Contains(t, line, "2/4")
	assert.Contains(t, line, "2.0 KiB")
	assert.Contains(t, line, "eta 10s")
	assert.Contains(t, line, "A_01.jpg")
	assert.NotContains(t, line, "failed")
	assert.Equal(t, 10, strings.Count(line, "━"))

	p.Failed("B_00.mp4")
	assert.Contains(t, p.line(), "1 failed")
}

func TestProgressWritesPlainTextWhenNotATerminal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, "media", 1)

	p.Saved("x.jpg", 10)
	p.Finish()

	out := buf.String()
	assert.NotContains(t, out, "\x1b[")
	assert.True(t, strings.HasPrefix(out, "\r"))
	assert.True(t, strings.HasSuffix(out, "\r"))
	assert.NotContains(t, p.line(), "eta")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KiB", FormatBytes(1536))
	assert.Equal(t, "3.0 MiB", FormatBytes(3<<20))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "3m5s", FormatDuration(3*time.Minute+5*time.Second))
	assert.Equal(t, "1h20m", FormatDuration(80*time.Minute))
}
