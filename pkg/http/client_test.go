package http

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendJSONBodyAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		b, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"ticker":"SPY"}`, string(b))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	body, err := NewClient().Send(t.Context(), &RequestOptions{
		Method:      MethodPost,
		URL:         server.URL,
		Headers:     map[string]string{"User-Agent": "test-agent"},
		QueryParams: map[string][]string{"page": {"1"}},
		Body:        map[string]string{"ticker": "SPY"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestSendStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad query", http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := NewClient().Send(t.Context(), &RequestOptions{Method: MethodGet, URL: server.URL})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.True(t, se.IsClientError())
	assert.Contains(t, string(se.Body), "bad query")
}

func TestSendBuildError(t *testing.T) {
	_, err := NewClient().Send(t.Context(), &RequestOptions{Method: MethodGet, URL: "http://localhost:8081\x7f"})
	assert.ErrorIs(t, err, ErrBuildRequest)
	assert.ErrorContains(t, err, "invalid control character in URL")
}

func TestSendTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := NewClient(WithTimeout(50 * time.Millisecond))
	assert.Equal(t, 50*time.Millisecond, c.Timeout())

	_, err := c.Send(t.Context(), &RequestOptions{Method: MethodGet, URL: server.URL})
	require.Error(t, err)
	assert.Contains(t, strings.ToLower(err.Error()), "timeout")
}

func TestSendResponseTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer server.Close()

	_, err := NewClient(WithMaxResponseSize(16)).Send(t.Context(), &RequestOptions{Method: MethodGet, URL: server.URL})
	assert.ErrorContains(t, err, "response body too large")
}
