package ai

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

func TestClientComplete(t *testing.T) {
	t.Run("sends the chat payload and returns the assistant text", func(t *testing.T) {
		var got chatRequest
		var auth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			auth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "test-key", "gpt-4o-mini")
		answer, err := c.Complete(context.Background(), "be terse", "score this task")
		require.NoError(t, err)
		assert.Equal(t, `{"ok":true}`, answer)

		assert.Equal(t, "Bearer test-key", auth)
		assert.Equal(t, "gpt-4o-mini", got.Model)
		require.Len(t, got.Messages, 2)
		assert.Equal(t, "system", got.Messages[0].Role)
		assert.Equal(t, "be terse", got.Messages[0].Content)
		assert.Equal(t, "user", got.Messages[1].Role)
	})

	t.Run("omits the auth header without a key", func(t *testing.T) {
		var auth string
		var sawAuth bool
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth, sawAuth = r.Header.Get("Authorization"), true
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hi"}}]}`))
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, "", "local-model").Complete(context.Background(), "s", "u")
		require.NoError(t, err)
		require.True(t, sawAuth)
		assert.Empty(t, auth)
	})

	t.Run("surfaces non-200 responses as errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, "k", "m").Complete(context.Background(), "s", "u")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
		assert.Contains(t, err.Error(), "rate limited")
	})

	t.Run("rejects a response with no choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, "k", "m").Complete(context.Background(), "s", "u")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no choices")
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := NewClient(srv.URL, "k", "m").Complete(ctx, "s", "u")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
