package transcript

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yt-ebook-api/internal/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(config.YouTubeConfig{TranscriptURL: srv.URL + "/api/transcript"})
	require.NotNil(t, c)
	return c
}

func TestNewWithoutURL(t *testing.T) {
	assert.Nil(t, New(config.YouTubeConfig{}))
}

func TestGetTranscriptJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/transcript/abc123", r.URL.Path)
		_, _ = w.Write([]byte(`{"transcript":"こんにちは"}`))
	})
	text, ok, err := c.GetTranscript(context.Background(), "abc123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "こんにちは", text)
}

func TestGetTranscriptPlainText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("line one\nline two"))
	})
	text, ok, err := c.GetTranscript(context.Background(), "abc123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "line one\nline two", text)
}

func TestGetTranscriptAbsent(t *testing.T) {
	for name, h := range map[string]http.HandlerFunc{
		"404":        func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
		"null":       func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"transcript":null}`)) },
		"empty":      func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"transcript":"  "}`)) },
		"empty body": func(w http.ResponseWriter, r *http.Request) {},
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, h)
			text, ok, err := c.GetTranscript(context.Background(), "abc123")
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Empty(t, text)
		})
	}
}

func TestGetTranscriptHardFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, ok, err := c.GetTranscript(context.Background(), "abc123")
	require.Error(t, err)
	assert.False(t, ok)
}
