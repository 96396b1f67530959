package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickReportsPerInterval(t *testing.T) {
	var buf bytes.Buffer
	p := NewProfiler(slog.New(slog.NewTextHandler(&buf, nil)))

	start := time.Unix(100, 0)
	clock := start
	p.now = func() time.Time { return clock }
	p.lastTime = start

	clock = start.Add(250 * time.Millisecond)
	assert.False(t, p.Tick(2))
	clock = start.Add(500 * time.Millisecond)
	assert.False(t, p.Tick(4))
	assert.Empty(t, buf.String())

	clock = start.Add(time.Second)
	require.True(t, p.Tick(6))
	r := p.Last()
	assert.Equal(t, 3, r.FramesCounted)
	assert.InDelta(t, 3.0, r.FPS, 1e-9)
	assert.Equal(t, 4, r.DrawCalls)
	assert.Contains(t, buf.String(), "draw_calls=4")

	// Counters restart after a report.
	clock = start.Add(1500 * time.Millisecond)
	assert.False(t, p.Tick(1))
}

func TestSetInterval(t *testing.T) {
	p := NewProfiler(nil)
	p.SetInterval(0)
	assert.Equal(t, time.Second, p.updateInterval)
	p.SetInterval(10 * time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, p.updateInterval)
}
