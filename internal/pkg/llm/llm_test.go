package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"prflow/internal/errcodes"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestNew(t *testing.T) {
	t.Run("requires a key", func(t *testing.T) {
		_, err := New(&ClientOptions{})
		assert.True(t, errors.Is(err, errcodes.ErrConfig))
	})

	t.Run("applies defaults", func(t *testing.T) {
		c, err := New(&ClientOptions{Key: "k"})
		require.NoError(t, err)
		assert.Equal(t, DefaultModel, c.model)
		assert.Equal(t, DefaultURL, c.rc.BaseURL)
	})
}

func TestClient_Summarize(t *testing.T) {
	ctx := context.Background()

	t.Run("sends a chat completion", func(t *testing.T) {
		var body []byte
		var path, auth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			auth = r.Header.Get("Authorization")
			body, _ = io.ReadAll(r.Body)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Adds login.\n"}}]}`))
		}))
		defer srv.Close()

		c, err := New(&ClientOptions{URL: srv.URL + "/v1/", Key: "secret", Model: "m1"})
		require.NoError(t, err)

		out, err := c.Summarize(ctx, "the prompt")
		require.NoError(t, err)
		assert.Equal(t, "Adds login.", out)
		assert.Equal(t, "/v1/chat/completions", path)
		assert.Equal(t, "Bearer secret", auth)

		parsed := gjson.ParseBytes(body)
		assert.Equal(t, "m1", parsed.Get("model").String())
		assert.Equal(t, "system", parsed.Get("messages.0.role").String())
		assert.Equal(t, "the prompt", parsed.Get("messages.1.content").String())
		assert.Equal(t, summaryTemperature, parsed.Get("temperature").Float())
	})

	t.Run("maps API errors to unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
		}))
		defer srv.Close()

		c, err := New(&ClientOptions{URL: srv.URL, Key: "k"})
		require.NoError(t, err)

		_, err = c.Summarize(ctx, "p")
		assert.True(t, errors.Is(err, errcodes.ErrUnavailable))
		assert.Contains(t, err.Error(), "rate limited")
	})

	t.Run("maps an empty answer to unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		c, err := New(&ClientOptions{URL: srv.URL, Key: "k"})
		require.NoError(t, err)

		_, err = c.Summarize(ctx, "p")
		assert.True(t, errors.Is(err, errcodes.ErrUnavailable))
	})

	t.Run("maps transport failures to unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		c, err := New(&ClientOptions{URL: url, Key: "k"})
		require.NoError(t, err)

		_, err = c.Summarize(ctx, "p")
		assert.True(t, errors.Is(err, errcodes.ErrUnavailable))
	})
}

func TestClient_Reword(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"pr_title\":\"Add login\"}"}}]}`))
	}))
	defer srv.Close()

	c, err := New(&ClientOptions{URL: srv.URL, Key: "k"})
	require.NoError(t, err)

	out, err := c.Reword(context.Background(), "the diff")
	require.NoError(t, err)
	assert.Equal(t, `{"pr_title":"Add login"}`, out)

	parsed := gjson.ParseBytes(body)
	assert.Contains(t, parsed.Get("messages.0.content").String(), "pr_title")
	assert.Equal(t, rewordTemperature, parsed.Get("temperature").Float())
	assert.Equal(t, int64(rewordMaxTokens), parsed.Get("max_tokens").Int())
}
