package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCompletionSendsExpectedRequest(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/openai/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","choices":[{"message":{"role":"assistant","content":"Paris"}}]}`))
	}))
	defer srv.Close()

	client := NewChatClient(Settings{APIKey: "test-key", BaseURL: srv.URL + "/openai/v1/", Model: "default-model"})
	raw, err := client.ChatCompletion(context.Background(), "What is the CAPITAL of France?", "llama-test", time.Second)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"cmpl-1","choices":[{"message":{"role":"assistant","content":"Paris"}}]}`, string(raw))

	assert.Equal(t, "llama-test", captured["model"])
	assert.Equal(t, 0.2, captured["temperature"])
	assert.Equal(t, float64(512), captured["max_tokens"])

	messages, ok := captured["messages"].([]any)
	require.True(t, ok, "messages should be a list")
	require.Len(t, messages, 2)
	system := messages[0].(map[string]any)
	user := messages[1].(map[string]any)
	assert.Equal(t, "system", system["role"])
	assert.Equal(t, "You are a helpful assistant.", system["content"])
	assert.Equal(t, "user", user["role"])
	// The question is sent verbatim, never normalized.
	assert.Equal(t, "What is the CAPITAL of France?", user["content"])
}

func TestChatCompletionDefaultsModel(t *testing.T) {
	var model string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		model = body.Model
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewChatClient(Settings{APIKey: "k", BaseURL: srv.URL, Model: "groq-llama3-13b"})
	_, err := client.ChatCompletion(context.Background(), "hi", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "groq-llama3-13b", model)
}

func TestChatCompletionMissingAPIKey(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	client := NewChatClient(Settings{BaseURL: srv.URL})
	raw, err := client.ChatCompletion(context.Background(), "hi", "m", time.Second)
	assert.Nil(t, raw)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.EqualError(t, err, "GROQ_API_KEY is not set in environment variables.")
	assert.Equal(t, int32(0), calls.Load(), "no request should be sent without a key")
}

func TestChatCompletionHTTPErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantBody    string
		wantMessage string
	}{
		{
			name:        "rate limited with json body",
			status:      http.StatusTooManyRequests,
			body:        `{"error":{"message":"Rate limit reached","type":"tokens"}}`,
			wantBody:    `{"error":{"message":"Rate limit reached","type":"tokens"}}`,
			wantMessage: "429 Client Error: Too Many Requests for url: ",
		},
		{
			name:        "server error with text body",
			status:      http.StatusBadGateway,
			body:        "upstream unavailable",
			wantBody:    `"upstream unavailable"`,
			wantMessage: "502 Server Error: Bad Gateway for url: ",
		},
		{
			name:        "unauthorized with empty body",
			status:      http.StatusUnauthorized,
			body:        "",
			wantBody:    `""`,
			wantMessage: "401 Client Error: Unauthorized for url: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewChatClient(Settings{APIKey: "k", BaseURL: srv.URL})
			_, err := client.ChatCompletion(context.Background(), "hi", "m", time.Second)

			var httpErr *HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.JSONEq(t, tt.wantBody, string(httpErr.Body))
			assert.Equal(t, tt.wantMessage+client.Endpoint(), httpErr.Error())
		})
	}
}

func TestChatCompletionTimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewChatClient(Settings{APIKey: "k", BaseURL: srv.URL})
	_, err := client.ChatCompletion(context.Background(), "hi", "m", 50*time.Millisecond)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotEmpty(t, err.Error())
}

func TestChatCompletionConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewChatClient(Settings{APIKey: "k", BaseURL: url})
	_, err := client.ChatCompletion(context.Background(), "hi", "m", time.Second)

	var netErr *NetworkError
	assert.True(t, errors.As(err, &netErr), "expected NetworkError, got %v", err)
}

func TestChatCompletionMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	client := NewChatClient(Settings{APIKey: "k", BaseURL: srv.URL})
	_, err := client.ChatCompletion(context.Background(), "hi", "m", time.Second)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestChatCompletionDoesNotRetry(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"try later"}}`))
		}))

		client := NewChatClient(Settings{APIKey: "k", BaseURL: srv.URL})
		_, err := client.ChatCompletion(context.Background(), "hi", "m", time.Second)
		srv.Close()

		var httpErr *HTTPError
		require.ErrorAs(t, err, &httpErr, "status %d", status)
		assert.Equal(t, status, httpErr.StatusCode)
		assert.Equal(t, int32(1), calls.Load(), "status %d should be sent exactly once", status)
	}
}

func TestChatCompletionNonSuccessRedirectStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	client := NewChatClient(Settings{APIKey: "k", BaseURL: srv.URL})
	_, err := client.ChatCompletion(context.Background(), "hi", "m", time.Second)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotModified, httpErr.StatusCode)
	assert.Equal(t, "304 HTTP Error: Not Modified for url: "+client.Endpoint(), httpErr.Error())
}
