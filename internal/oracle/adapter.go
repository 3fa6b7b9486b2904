package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"msglens/internal/filter"
)

// jsonBlockPattern matches brace-delimited blocks non-greedily. The oracle's
// filter object never nests, so non-nested matching is sufficient.
var jsonBlockPattern = regexp.MustCompile(`(?s)\{.*?\}`)

// Adapter wraps an LLMClient with the filter-extraction contract: it builds
// the instruction payload around the closed vocabularies and the reference
// instant, and recovers the structured delta from the model's free-text reply.
type Adapter struct {
	client     LLMClient
	categories []string
	sources    []string
	reference  time.Time
	logger     *zap.Logger
}

// NewAdapter creates an adapter bound to a session's vocabularies and
// reference instant.
func NewAdapter(client LLMClient, categories, sources []string, reference time.Time, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		client:     client,
		categories: categories,
		sources:    sources,
		reference:  reference,
		logger:     logger,
	}
}

// SystemPrompt builds the instruction payload for the oracle. It enumerates
// the exact valid category and source values, fixes the current datetime to
// the reference instant, and spells out the reset-vs-refine rules.
func (a *Adapter) SystemPrompt() string {
	var sb strings.Builder
	sb.WriteString("You are a data assistant extracting structured filters from user queries about categorized customer support messages.\n\n")
	fmt.Fprintf(&sb, "Valid categories (exact match only): %s\n", quotedList(a.categories))
	fmt.Fprintf(&sb, "Valid sources: %s\n", quotedList(a.sources))
	fmt.Fprintf(&sb, "The current datetime is %s.\n\n", a.reference.Format("2006-01-02T15:04:05"))
	sb.WriteString("Return a strict JSON object with these keys:\n")
	sb.WriteString("{\n")
	sb.WriteString("  \"category\": (exact string from valid categories, or null),\n")
	sb.WriteString("  \"source\": (exact string from valid sources, or null),\n")
	sb.WriteString("  \"start_time_expr\": (human-readable date expression or null),\n")
	sb.WriteString("  \"end_time_expr\": (human-readable date expression or null),\n")
	sb.WriteString("  \"reset\": (true if this is a new query and filters should be cleared, otherwise false)\n")
	sb.WriteString("}\n\n")
	sb.WriteString("Time filtering rules:\n")
	sb.WriteString("- Use expressions like \"1 day ago\", \"Monday\", or \"today\".\n")
	sb.WriteString("- Avoid vague terms like \"past week\".\n\n")
	sb.WriteString("Do not use phrases like this Monday. Instead use absolute or simple relative phrases like Monday, 7 days ago, or today.\n")
	sb.WriteString("If the user does not specify an end time, set \"end_time_expr\": \"now\".\n")
	sb.WriteString("Avoid paraphrasing expressions like \"this week\" into \"7 days ago\". Instead, use \"Monday\" to represent the start of the current week.\n")
	sb.WriteString("If the user says something like \"start a new search\", \"new query\", \"start over\", or \"fresh search\", then:\n")
	sb.WriteString("- Set all filter fields (category, source, time) explicitly\n")
	sb.WriteString("- Set \"reset\": true\n\n")
	sb.WriteString("If the user is refining the current query, using phrases like:\n")
	sb.WriteString("\"make that\", \"change to\", \"now show\", \"just update\", \"let's look at\", \"actually\", \"how about\", \"switch to\", \"only\", or \"instead\",\n")
	sb.WriteString("- Only update the fields mentioned\n")
	sb.WriteString("- Leave others as null\n")
	sb.WriteString("- Set \"reset\": false\n\n")
	sb.WriteString("Use \"reset\": false by default unless the user explicitly indicates a reset.\n")
	sb.WriteString("Return ONLY the raw JSON object - no commentary.\n")
	return sb.String()
}

func quotedList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// ExtractFilters sends one turn to the oracle and returns the proposed filter
// delta. A nil delta with a nil error means the oracle replied but nothing
// parseable could be recovered; the caller treats that as "couldn't
// understand" and must not retry. At most one oracle call happens per turn.
func (a *Adapter) ExtractFilters(ctx context.Context, userText string) (*filter.Delta, error) {
	reply, err := a.client.CompleteWithSystem(ctx, a.SystemPrompt(), userText)
	if err != nil {
		return nil, fmt.Errorf("oracle call failed: %w", err)
	}

	delta := ParseReply(reply)
	if delta == nil {
		a.logger.Warn("no parseable filter object in oracle reply",
			zap.Int("reply_len", len(reply)))
		return nil, nil
	}

	a.sanitize(delta)
	return delta, nil
}

// ParseReply recovers the filter delta from the oracle's raw reply text.
//
// The reply may wrap the JSON object in commentary or a reasoning aside, so
// every brace-delimited block is collected and the last one is parsed: models
// sometimes prefix reasoning before the final answer, and the last candidate
// is the documented heuristic for the intended one. Returns nil when the last
// candidate does not parse.
func ParseReply(reply string) *filter.Delta {
	matches := jsonBlockPattern.FindAllString(reply, -1)
	if len(matches) == 0 {
		return nil
	}

	var delta filter.Delta
	if err := json.Unmarshal([]byte(matches[len(matches)-1]), &delta); err != nil {
		return nil
	}
	return &delta
}

// sanitize drops category/source values outside the closed vocabulary. The
// upstream prompt instructs the oracle to stay inside the valid sets, but
// nothing guarantees compliance; an out-of-vocabulary value becomes "no
// constraint" rather than a filter that silently matches nothing.
func (a *Adapter) sanitize(delta *filter.Delta) {
	if delta.Category != nil && !containsFold(a.categories, *delta.Category) {
		a.logger.Warn("oracle returned unknown category, dropping",
			zap.String("category", *delta.Category))
		delta.Category = nil
	}
	if delta.Source != nil && !containsFold(a.sources, *delta.Source) {
		a.logger.Warn("oracle returned unknown source, dropping",
			zap.String("source", *delta.Source))
		delta.Source = nil
	}
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}
