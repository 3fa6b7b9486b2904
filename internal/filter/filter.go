// Package filter holds the session's filter state machine and the engine that
// applies it to the dataset.
//
// A Context is the session's currently active category/source/time
// constraints. Each turn the oracle proposes a Delta; merging a delta
// overwrites exactly the fields the delta sets and leaves the rest untouched,
// with an optional reset applied first so a "new search" can clear and
// repopulate the context in a single turn.
package filter

import (
	"msglens/internal/dataset"
	"msglens/internal/timeexpr"
	"strings"
	"time"
)

// Delta is one turn's proposed change to the filter context, as returned by
// the oracle. Nil fields mean "leave untouched". Unknown keys in the oracle's
// JSON are ignored during decoding; a missing reset defaults to false.
type Delta struct {
	Category  *string `json:"category"`
	Source    *string `json:"source"`
	StartExpr *string `json:"start_time_expr"`
	EndExpr   *string `json:"end_time_expr"`
	Reset     bool    `json:"reset"`
}

// Context is the active filter state. Empty string means unset: the closed
// category/source vocabularies never contain empty values, and an empty time
// expression resolves to "no constraint".
type Context struct {
	Category  string
	Source    string
	StartExpr string
	EndExpr   string
}

// Reset clears every field. Always succeeds.
func (c *Context) Reset() {
	*c = Context{}
}

// Merge applies a delta field by field. If delta.Reset is set the context is
// cleared first, so the delta's non-nil fields still land. A field is either
// fully applied or left untouched; there is no intermediate state.
func (c *Context) Merge(delta Delta) {
	if delta.Reset {
		c.Reset()
	}
	if delta.Category != nil {
		c.Category = *delta.Category
	}
	if delta.Source != nil {
		c.Source = *delta.Source
	}
	if delta.StartExpr != nil {
		c.StartExpr = *delta.StartExpr
	}
	if delta.EndExpr != nil {
		c.EndExpr = *delta.EndExpr
	}
}

// Empty reports whether no field is set.
func (c Context) Empty() bool {
	return c == Context{}
}

// Apply filters the dataset by the context against the reference instant and
// returns the matching subset in original order. The dataset is not mutated.
//
// Category and source match by case-insensitive exact equality. The time
// bounds come from resolving the raw expressions; an unresolvable start is no
// constraint, an unresolvable or absent end defaults to the reference instant
// itself. Both bounds are inclusive.
func Apply(ds *dataset.Dataset, c Context, ref time.Time) []dataset.Message {
	start, hasStart := timeexpr.Resolve(c.StartExpr, ref)
	end, hasEnd := timeexpr.Resolve(c.EndExpr, ref)
	if !hasEnd {
		end = ref
	}

	var out []dataset.Message
	for _, m := range ds.Messages() {
		if c.Category != "" && !strings.EqualFold(m.Category, c.Category) {
			continue
		}
		if c.Source != "" && !strings.EqualFold(m.Source, c.Source) {
			continue
		}
		if hasStart && m.Timestamp.Before(start) {
			continue
		}
		if m.Timestamp.After(end) {
			continue
		}
		out = append(out, m)
	}
	return out
}
