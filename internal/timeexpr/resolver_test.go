package timeexpr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reference = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func TestResolve_AbsentAndEmpty(t *testing.T) {
	t.Run("empty expression is no constraint", func(t *testing.T) {
		_, ok := Resolve("", reference)
		assert.False(t, ok)
	})

	t.Run("whitespace-only expression is no constraint", func(t *testing.T) {
		_, ok := Resolve("   ", reference)
		assert.False(t, ok)
	})
}

func TestResolve_RelativeExpressions(t *testing.T) {
	t.Run("now resolves to the reference instant", func(t *testing.T) {
		got, ok := Resolve("now", reference)
		require.True(t, ok)
		assert.Equal(t, reference, got)
	})

	t.Run("yesterday resolves to start of previous day", func(t *testing.T) {
		got, ok := Resolve("yesterday", reference)
		require.True(t, ok)
		assert.Equal(t, time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("3 days ago keeps the reference clock time", func(t *testing.T) {
		got, ok := Resolve("3 days ago", reference)
		require.True(t, ok)
		assert.Equal(t, time.Date(2024, 6, 7, 12, 0, 0, 0, time.UTC), got)
	})

	t.Run("weekday resolves into the past", func(t *testing.T) {
		// Reference is a Monday; "monday" in past direction lands on a
		// Monday strictly before the reference day.
		got, ok := Resolve("monday", reference)
		require.True(t, ok)
		assert.Equal(t, time.Monday, got.Weekday())
		assert.True(t, got.Before(reference))
	})
}

func TestResolve_Unparseable(t *testing.T) {
	for _, expr := range []string{"bogus phrase xyz", "the thing from before", "???"} {
		t.Run(expr, func(t *testing.T) {
			_, ok := Resolve(expr, reference)
			assert.False(t, ok, "expected %q to resolve to no constraint", expr)
		})
	}
}

func TestResolve_TruncatesToSeconds(t *testing.T) {
	ref := time.Date(2024, 6, 10, 12, 0, 0, 987654321, time.UTC)
	got, ok := Resolve("now", ref)
	require.True(t, ok)
	assert.Zero(t, got.Nanosecond())
}
