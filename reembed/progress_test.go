package reembed

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressTracker(t *testing.T) {
	t.Run("reports at intervals", func(t *testing.T) {
		var out bytes.Buffer
		tracker := NewProgressTracker(&out, 100, 10)
		tracker.Start()

		tracker.Update(5)
		assert.Empty(t, out.String(), "below interval, no report yet")

		tracker.Update(10)
		assert.Contains(t, out.String(), "10/100")

		tracker.Update(50)
		assert.Contains(t, out.String(), "50/100")
	})

	t.Run("increment accumulates", func(t *testing.T) {
		var out bytes.Buffer
		tracker := NewProgressTracker(&out, 10, 5)
		tracker.Start()

		tracker.Increment(3)
		tracker.Increment(3)
		assert.Contains(t, out.String(), "6/10")
	})

	t.Run("finish reports completion", func(t *testing.T) {
		var out bytes.Buffer
		tracker := NewProgressTracker(&out, 20, 100)
		tracker.Start()

		tracker.Update(7)
		tracker.Finish()
		assert.Contains(t, out.String(), "20/20")
		assert.Contains(t, out.String(), "100.0%")
	})

	t.Run("caps at total", func(t *testing.T) {
		var out bytes.Buffer
		tracker := NewProgressTracker(&out, 10, 1)
		tracker.Start()

		tracker.Update(25)
		assert.Contains(t, out.String(), "10/10")
	})

	t.Run("ignores updates before start", func(t *testing.T) {
		var out bytes.Buffer
		tracker := NewProgressTracker(&out, 10, 1)

		tracker.Update(5)
		tracker.Finish()
		assert.Empty(t, out.String())
		require.Zero(t, tracker.Elapsed())
	})
}
