package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time           { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTickReportsAtInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var out bytes.Buffer
	p := NewProfiler(
		WithInterval(time.Second),
		WithLogger(slog.New(slog.NewTextHandler(&out, nil))),
		withClock(clock.now),
	)

	for range 29 {
		clock.advance(10 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	p.RecordUpdate(2 * time.Millisecond)
	p.RecordUpdate(4 * time.Millisecond)

	clock.advance(710 * time.Millisecond)
	assert.True(t, p.Tick())

	s := p.Last()
	assert.InDelta(t, 30, s.FPS, 1e-6)
	assert.Equal(t, 2, s.Updates)
	assert.Equal(t, 3*time.Millisecond, s.UpdateAvg)
	assert.Equal(t, 4*time.Millisecond, s.UpdateMax)
	assert.Contains(t, out.String(), "component=profiler")
	assert.Contains(t, out.String(), "fk_updates=2")

	// counters restart after a report
	clock.advance(time.Second)
	assert.True(t, p.Tick())
	assert.Equal(t, 0, p.Last().Updates)
	assert.Zero(t, p.Last().UpdateAvg)
	assert.InDelta(t, 1, p.Last().FPS, 1e-6)
}

func TestOptionsIgnoreInvalid(t *testing.T) {
	p := NewProfiler(WithInterval(-time.Second), WithLogger(nil))
	assert.Equal(t, time.Second, p.updateInterval)
	assert.NotNil(t, p.logger)
	assert.Equal(t, Stats{}, p.Last())
}
