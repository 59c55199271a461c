package managed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yt-ebook-api/internal/config"
	"yt-ebook-api/internal/domain/entity"
	"yt-ebook-api/internal/infrastructure/provider/httpx"
)

var noRetry = httpx.RetryConfig{MaxRetries: 1, InitialWait: time.Millisecond, MaxWait: time.Millisecond, Multiplier: 1}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(config.ManagedFunctionConfig{BaseURL: srv.URL + "/", APIKey: "secret"}, WithRetry(noRetry))
	require.NotNil(t, c)
	return c
}

func TestNewWithoutBaseURL(t *testing.T) {
	assert.Nil(t, New(config.ManagedFunctionConfig{}))
}

func TestGenerateBookContentRequest(t *testing.T) {
	var gotMethod, gotPath, gotAuth string
	var gotBody map[string]json.RawMessage
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"chapters":[{"id":1,"title":"序章","content":"本文","charCount":2}],"totalChars":2}`))
	})

	book, err := c.GenerateBookContent(context.Background(), []entity.VideoRef{{ID: "abc123"}}, entity.DefaultSettings())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/functions/v1/generate-book-content", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Contains(t, gotBody, "videos")
	assert.Contains(t, gotBody, "settings")
	require.Len(t, book.Chapters, 1)
	assert.Equal(t, "序章", book.Chapters[0].Title)
	assert.Equal(t, "managed", book.Metadata.Provider)
}

func TestFunctionErrorPayloadFailsAttempt(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"quota exceeded"}`))
	})

	_, err := c.EnhanceChapter(context.Background(), entity.Chapter{ID: 1}, []string{"seo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestFunctionErrorObject(t *testing.T) {
	assert.Equal(t, "boom", functionError([]byte(`{"error":{"message":"boom"}}`)))
	assert.Equal(t, "", functionError([]byte(`{"error":null,"content":"x"}`)))
	assert.Equal(t, "", functionError([]byte(`[1,2]`)))
}

func TestNon2xxFailsAttempt(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})

	_, err := c.GenerateSegment(context.Background(), "t", "", 100)
	require.Error(t, err)
	assert.True(t, httpx.IsStatus(err, http.StatusServiceUnavailable))
	assert.Equal(t, int32(2), hits.Load(), "one retry for transient status")
}

func TestClientErrorNotRetried(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.FetchVideoInfo(context.Background(), "abc123")
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchVideoInfoFillsID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"title":"Remote","channel":"ch"}`))
	})
	v, err := c.FetchVideoInfo(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", v.ID)
	assert.Equal(t, "Remote", v.Title)
}

func TestAssistEmptyResponseFails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":""}`))
	})
	_, err := c.Assist(context.Background(), "hi", entity.AssistantContext{})
	assert.Error(t, err)
}
