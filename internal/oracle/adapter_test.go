package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLLM returns a canned reply or a canned error, recording the prompts it
// was called with.
type stubLLM struct {
	reply string
	err   error

	calls        int
	lastSystem   string
	lastUserText string
}

func (s *stubLLM) CompleteWithSystem(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	s.calls++
	s.lastSystem = systemPrompt
	s.lastUserText = userPrompt
	return s.reply, s.err
}

var testReference = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func newTestAdapter(client LLMClient) *Adapter {
	return NewAdapter(client,
		[]string{"cashout issues", "game issues", "account issues"},
		[]string{"livechat", "telegram"},
		testReference, nil)
}

func TestParseReply(t *testing.T) {
	t.Run("prose-wrapped object", func(t *testing.T) {
		reply := "Sure! Here is the filter you asked for:\n" +
			`{"category": "cashout issues", "source": null, "start_time_expr": "yesterday", "end_time_expr": "now", "reset": false}` +
			"\nLet me know if you need anything else."
		delta := ParseReply(reply)
		require.NotNil(t, delta)
		require.NotNil(t, delta.Category)
		assert.Equal(t, "cashout issues", *delta.Category)
		assert.Nil(t, delta.Source)
		require.NotNil(t, delta.StartExpr)
		assert.Equal(t, "yesterday", *delta.StartExpr)
		require.NotNil(t, delta.EndExpr)
		assert.Equal(t, "now", *delta.EndExpr)
		assert.False(t, delta.Reset)
	})

	t.Run("multiple blocks uses last", func(t *testing.T) {
		reply := `First I considered {"category": "game issues", "reset": false} ` +
			`but the final answer is {"category": "account issues", "reset": true}`
		delta := ParseReply(reply)
		require.NotNil(t, delta)
		require.NotNil(t, delta.Category)
		assert.Equal(t, "account issues", *delta.Category)
		assert.True(t, delta.Reset)
	})

	t.Run("no braces", func(t *testing.T) {
		assert.Nil(t, ParseReply("I cannot help with that."))
	})

	t.Run("last block malformed", func(t *testing.T) {
		assert.Nil(t, ParseReply(`{"category": "game issues"} and then {broken`+"}"))
	})

	t.Run("unknown keys ignored", func(t *testing.T) {
		delta := ParseReply(`{"category": "game issues", "confidence": 0.9}`)
		require.NotNil(t, delta)
		require.NotNil(t, delta.Category)
		assert.Equal(t, "game issues", *delta.Category)
	})

	t.Run("reset defaults to false", func(t *testing.T) {
		delta := ParseReply(`{"category": "game issues"}`)
		require.NotNil(t, delta)
		assert.False(t, delta.Reset)
	})
}

func TestExtractFilters(t *testing.T) {
	ctx := context.Background()

	t.Run("single call per turn", func(t *testing.T) {
		client := &stubLLM{reply: `{"category": "game issues", "reset": false}`}
		a := newTestAdapter(client)

		delta, err := a.ExtractFilters(ctx, "show me game issues")
		require.NoError(t, err)
		require.NotNil(t, delta)
		assert.Equal(t, 1, client.calls)
		assert.Equal(t, "show me game issues", client.lastUserText)
	})

	t.Run("unparseable reply means not understood", func(t *testing.T) {
		client := &stubLLM{reply: "no idea what you mean"}
		a := newTestAdapter(client)

		delta, err := a.ExtractFilters(ctx, "gibberish")
		require.NoError(t, err)
		assert.Nil(t, delta)
		assert.Equal(t, 1, client.calls)
	})

	t.Run("transport error propagates", func(t *testing.T) {
		client := &stubLLM{err: errors.New("connection refused")}
		a := newTestAdapter(client)

		_, err := a.ExtractFilters(ctx, "anything")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "oracle call failed")
	})

	t.Run("out-of-vocabulary category dropped", func(t *testing.T) {
		client := &stubLLM{reply: `{"category": "payments", "source": "livechat", "reset": false}`}
		a := newTestAdapter(client)

		delta, err := a.ExtractFilters(ctx, "show payments")
		require.NoError(t, err)
		require.NotNil(t, delta)
		assert.Nil(t, delta.Category)
		require.NotNil(t, delta.Source)
		assert.Equal(t, "livechat", *delta.Source)
	})

	t.Run("vocabulary match is case-insensitive", func(t *testing.T) {
		client := &stubLLM{reply: `{"category": "Game Issues", "reset": false}`}
		a := newTestAdapter(client)

		delta, err := a.ExtractFilters(ctx, "game issues please")
		require.NoError(t, err)
		require.NotNil(t, delta)
		require.NotNil(t, delta.Category)
		assert.Equal(t, "Game Issues", *delta.Category)
	})
}

func TestSystemPrompt(t *testing.T) {
	a := newTestAdapter(&stubLLM{})
	prompt := a.SystemPrompt()

	assert.Contains(t, prompt, `"cashout issues", "game issues", "account issues"`)
	assert.Contains(t, prompt, `"livechat", "telegram"`)
	assert.Contains(t, prompt, "2024-06-10T12:00:00")
	assert.Contains(t, prompt, `"reset": false by default`)
}
