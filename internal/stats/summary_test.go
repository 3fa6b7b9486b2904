package stats

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"msglens/internal/dataset"
)

func msg(ts time.Time, user, category string) dataset.Message {
	return dataset.Message{
		Timestamp: ts,
		UserID:    user,
		Source:    "livechat",
		Category:  category,
		Message:   "m",
	}
}

func TestSummarize(t *testing.T) {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("empty subset", func(t *testing.T) {
		s := Summarize(nil)
		assert.Equal(t, 0, s.Total)
		assert.Equal(t, 0, s.UniqueUsers)
		assert.True(t, s.Start.IsZero())
		assert.True(t, s.End.IsZero())
		assert.Empty(t, s.Preview)
	})

	t.Run("counts and span", func(t *testing.T) {
		messages := []dataset.Message{
			msg(base.Add(2*time.Hour), "alice", "c"),
			msg(base, "bob", "c"),
			msg(base.Add(time.Hour), "alice", "c"),
		}
		s := Summarize(messages)
		assert.Equal(t, 3, s.Total)
		assert.Equal(t, 2, s.UniqueUsers)
		assert.Equal(t, base, s.Start)
		assert.Equal(t, base.Add(2*time.Hour), s.End)
		assert.Len(t, s.Preview, 3)
	})

	t.Run("preview capped", func(t *testing.T) {
		var messages []dataset.Message
		for i := 0; i < PreviewLimit+5; i++ {
			messages = append(messages, msg(base.Add(time.Duration(i)*time.Minute), fmt.Sprintf("u%d", i), "c"))
		}
		s := Summarize(messages)
		assert.Equal(t, PreviewLimit+5, s.Total)
		assert.Len(t, s.Preview, PreviewLimit)
		// Preview keeps the subset's own ordering.
		assert.Equal(t, messages[0], s.Preview[0])
	})
}

func TestSingleCategory(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("uniform", func(t *testing.T) {
		c, ok := SingleCategory([]dataset.Message{
			msg(base, "a", "cashout issues"),
			msg(base, "b", "cashout issues"),
		})
		assert.True(t, ok)
		assert.Equal(t, "cashout issues", c)
	})

	t.Run("unlabeled rows ignored", func(t *testing.T) {
		c, ok := SingleCategory([]dataset.Message{
			msg(base, "a", ""),
			msg(base, "b", "game issues"),
			msg(base, "c", ""),
		})
		assert.True(t, ok)
		assert.Equal(t, "game issues", c)
	})

	t.Run("mixed", func(t *testing.T) {
		_, ok := SingleCategory([]dataset.Message{
			msg(base, "a", "game issues"),
			msg(base, "b", "cashout issues"),
		})
		assert.False(t, ok)
	})

	t.Run("empty", func(t *testing.T) {
		_, ok := SingleCategory(nil)
		assert.False(t, ok)
	})

	t.Run("all unlabeled", func(t *testing.T) {
		_, ok := SingleCategory([]dataset.Message{msg(base, "a", "")})
		assert.False(t, ok)
	})
}
