// Package timeexpr resolves human time phrases ("yesterday", "7 days ago",
// "Monday") into concrete instants relative to a fixed reference time.
package timeexpr

import (
	"strings"
	"time"

	naturaldate "github.com/tj/go-naturaldate"
)

// Resolve converts a natural-language time expression into an instant relative
// to ref. An empty expression and an expression the parser cannot understand
// both resolve to (zero, false): the chat core treats either as "no constraint
// on this dimension", never as an error. Results are truncated to whole
// seconds so comparisons and equality-based tests stay stable.
func Resolve(expr string, ref time.Time) (time.Time, bool) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return time.Time{}, false
	}

	t, err := naturaldate.Parse(expr, ref, naturaldate.WithDirection(naturaldate.Past))
	if err != nil {
		return time.Time{}, false
	}
	return t.Truncate(time.Second), true
}
