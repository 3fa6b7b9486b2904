package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient_CompleteWithSystem(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotReq openAIRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  {\"reset\": false}  "}}]}`))
		}))
		defer srv.Close()

		c := NewOpenAIClientWithConfig(OpenAIConfig{
			APIKey:  "test-key",
			BaseURL: srv.URL,
			Model:   "gpt-4o",
			Timeout: 5 * time.Second,
		})

		reply, err := c.CompleteWithSystem(context.Background(), "system text", "user text")
		require.NoError(t, err)
		assert.Equal(t, `{"reset": false}`, reply, "reply is trimmed")

		require.Len(t, gotReq.Messages, 2)
		assert.Equal(t, "system", gotReq.Messages[0].Role)
		assert.Equal(t, "user", gotReq.Messages[1].Role)
		assert.Equal(t, "user text", gotReq.Messages[1].Content)
	})

	t.Run("missing key", func(t *testing.T) {
		c := NewOpenAIClient("")
		_, err := c.CompleteWithSystem(context.Background(), "", "hi")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key not configured")
	})

	t.Run("http error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := NewOpenAIClientWithConfig(OpenAIConfig{APIKey: "k", BaseURL: srv.URL, Model: "m", Timeout: time.Second})
		_, err := c.CompleteWithSystem(context.Background(), "", "hi")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 429")
	})

	t.Run("empty choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		c := NewOpenAIClientWithConfig(OpenAIConfig{APIKey: "k", BaseURL: srv.URL, Model: "m", Timeout: time.Second})
		_, err := c.CompleteWithSystem(context.Background(), "", "hi")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no completion returned")
	})
}

func TestGeminiClient_CompleteWithSystem(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotReq geminiRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
			assert.Equal(t, "test-key", r.URL.Query().Get("key"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

			w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"reset\""},{"text":": true}"}],"role":"model"}}]}`))
		}))
		defer srv.Close()

		c := NewGeminiClientWithConfig(GeminiConfig{
			APIKey:  "test-key",
			BaseURL: srv.URL,
			Model:   "gemini-2.5-flash",
			Timeout: 5 * time.Second,
		})

		reply, err := c.CompleteWithSystem(context.Background(), "system text", "user text")
		require.NoError(t, err)
		assert.Equal(t, `{"reset": true}`, reply, "multi-part candidates are concatenated")

		require.NotNil(t, gotReq.SystemInstruction)
		require.Len(t, gotReq.Contents, 1)
		assert.Equal(t, "user text", gotReq.Contents[0].Parts[0].Text)
	})

	t.Run("api error body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":{"code":400,"message":"invalid argument","status":"INVALID_ARGUMENT"}}`))
		}))
		defer srv.Close()

		c := NewGeminiClientWithConfig(GeminiConfig{APIKey: "k", BaseURL: srv.URL, Model: "m", Timeout: time.Second})
		_, err := c.CompleteWithSystem(context.Background(), "", "hi")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid argument")
	})
}
