// Package session drives the turn-by-turn chat interaction. The Session owns
// all mutable per-session state (the dataset view, the active filter context,
// the reference instant) and exposes one entry point per turn, so front-ends
// only read input and render output and tests can drive turns without a
// terminal.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"msglens/internal/dataset"
	"msglens/internal/filter"
	"msglens/internal/stats"
)

// FilterExtractor is the oracle boundary as the session sees it. A nil delta
// with nil error means the oracle replied with nothing parseable.
type FilterExtractor interface {
	ExtractFilters(ctx context.Context, userText string) (*filter.Delta, error)
}

// Kind classifies what a turn produced.
type Kind int

const (
	// KindResults is a normal turn: filters merged and applied.
	KindResults Kind = iota
	// KindNotUnderstood means the oracle gave nothing usable; the filter
	// context is unchanged.
	KindNotUnderstood
	// KindReset is the explicit whole-line reset command.
	KindReset
	// KindExit is the explicit whole-line exit command.
	KindExit
)

// TurnResult is everything one turn produced, ready for rendering.
type TurnResult struct {
	Kind    Kind
	Filter  filter.Context // snapshot after the turn
	Summary stats.Summary
	Spikes  *stats.SpikeReport // nil unless the result is single-category
}

// Session holds one user's interactive state. It is not safe for concurrent
// use: turns are processed strictly one at a time.
type Session struct {
	id         string
	ds         *dataset.Dataset
	extractor  FilterExtractor
	zThreshold float64
	logger     *zap.Logger

	ctx filter.Context
}

// New creates a session over a loaded dataset.
func New(ds *dataset.Dataset, extractor FilterExtractor, zThreshold float64, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if zThreshold <= 0 {
		zThreshold = stats.DefaultZThreshold
	}
	id := uuid.NewString()
	return &Session{
		id:         id,
		ds:         ds,
		extractor:  extractor,
		zThreshold: zThreshold,
		logger:     logger.With(zap.String("session", id)),
	}
}

// Filter returns a snapshot of the active filter context.
func (s *Session) Filter() filter.Context { return s.ctx }

// HandleTurn processes one line of user input and returns what happened.
// Recognized commands ("exit", "reset") are case-insensitive matches on the
// whole line; anything else goes to the oracle. A turn never mutates the
// filter context unless the oracle produced a usable delta.
func (s *Session) HandleTurn(ctx context.Context, input string) TurnResult {
	line := strings.TrimSpace(input)

	switch strings.ToLower(line) {
	case "exit":
		return TurnResult{Kind: KindExit, Filter: s.ctx}
	case "reset":
		s.ctx.Reset()
		s.logger.Info("filter context reset")
		return TurnResult{Kind: KindReset, Filter: s.ctx}
	}

	delta, err := s.extractor.ExtractFilters(ctx, line)
	if err != nil {
		s.logger.Warn("oracle turn failed", zap.Error(err))
		return TurnResult{Kind: KindNotUnderstood, Filter: s.ctx}
	}
	if delta == nil {
		return TurnResult{Kind: KindNotUnderstood, Filter: s.ctx}
	}

	s.ctx.Merge(*delta)
	s.logger.Info("filters merged",
		zap.Bool("reset", delta.Reset),
		zap.String("category", s.ctx.Category),
		zap.String("source", s.ctx.Source),
		zap.String("start", s.ctx.StartExpr),
		zap.String("end", s.ctx.EndExpr))

	matched := filter.Apply(s.ds, s.ctx, s.ds.Reference())
	result := TurnResult{
		Kind:    KindResults,
		Filter:  s.ctx,
		Summary: stats.Summarize(matched),
	}

	if category, ok := stats.SingleCategory(matched); ok {
		report := stats.DetectSpikes(matched, category, s.ds, s.zThreshold)
		result.Spikes = &report
	}
	return result
}

// Banner returns the welcome text shown at session start: usage hints plus
// the valid category and source vocabularies.
func (s *Session) Banner() string {
	var sb strings.Builder
	sb.WriteString("Welcome to the message query assistant. Type 'reset' to clear filters or 'exit' to quit.\n")
	fmt.Fprintf(&sb, "Valid message categories are: %s\n", strings.Join(s.ds.Categories(), ", "))
	fmt.Fprintf(&sb, "Valid message sources are: %s", strings.Join(s.ds.Sources(), ", "))
	return sb.String()
}
