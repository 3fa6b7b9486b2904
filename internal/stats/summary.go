package stats

import (
	"time"

	"msglens/internal/dataset"
)

// PreviewLimit is the number of matching rows shown per turn.
const PreviewLimit = 10

// Summary describes a filtered result set: its time span, message count and
// unique user count, plus up to PreviewLimit rows for display.
type Summary struct {
	Total       int
	UniqueUsers int
	Start       time.Time
	End         time.Time
	Preview     []dataset.Message
}

// Summarize computes the per-turn summary of a filtered subset. An empty
// subset yields zero counts and zero times.
func Summarize(messages []dataset.Message) Summary {
	s := Summary{Total: len(messages)}
	if len(messages) == 0 {
		return s
	}

	users := make(map[string]bool)
	s.Start = messages[0].Timestamp
	s.End = messages[0].Timestamp
	for _, m := range messages {
		users[m.UserID] = true
		if m.Timestamp.Before(s.Start) {
			s.Start = m.Timestamp
		}
		if m.Timestamp.After(s.End) {
			s.End = m.Timestamp
		}
	}
	s.UniqueUsers = len(users)

	n := len(messages)
	if n > PreviewLimit {
		n = PreviewLimit
	}
	s.Preview = messages[:n]
	return s
}

// SingleCategory returns the one non-empty category shared by every record,
// or false when the subset is empty, mixed, or entirely unlabeled. Spike
// analysis only runs on single-category views.
func SingleCategory(messages []dataset.Message) (string, bool) {
	category := ""
	for _, m := range messages {
		if m.Category == "" {
			continue
		}
		if category == "" {
			category = m.Category
			continue
		}
		if m.Category != category {
			return "", false
		}
	}
	return category, category != ""
}
