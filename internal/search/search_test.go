package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyedge/polyedge/internal/capability"
)

func TestSearchNews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bitcoin etf", r.URL.Query().Get("q"))
		assert.Equal(t, "3", r.URL.Query().Get("pageSize"))
		w.Write([]byte(`{
			"status": "ok",
			"articles": [
				{"title": "ETF approved", "url": "https://example.com/a", "description": "SEC approves", "publishedAt": "2024-01-10T12:00:00Z", "source": {"name": "Newswire"}},
				{"title": "Markets react", "url": "https://example.com/b", "source": {"name": "Daily"}}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{APIKey: "k", BaseURL: srv.URL})
	items, err := c.SearchNews(context.Background(), "bitcoin etf", 3)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "ETF approved", items[0].Title)
	assert.Equal(t, "Newswire", items[0].Source)
	require.NotNil(t, items[0].PublishedAt)
	assert.Nil(t, items[1].PublishedAt)
}

func TestSearchNewsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "error", "articles": []}`))
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{APIKey: "k", BaseURL: srv.URL})
	_, err := c.SearchNews(context.Background(), "anything", 5)
	assert.Error(t, err)
}

func TestDeepSearchDigest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "ok",
			"articles": [{"title": "Fed holds rates", "description": "No change expected", "source": {"name": "Wire"}}]
		}`))
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{APIKey: "k", BaseURL: srv.URL})
	digest, err := c.DeepSearch(context.Background(), "fed rates")
	require.NoError(t, err)
	assert.Contains(t, digest, "Fed holds rates")
	assert.Contains(t, digest, "No change expected")
}

func TestCapabilitySearcher(t *testing.T) {
	reg := capability.NewRegistry()
	stub := capability.NewStub("news", map[string]json.RawMessage{
		"search": json.RawMessage(`{"articles": [{"title": "A"}, {"title": "B"}, {"title": "C"}]}`),
	})
	require.NoError(t, reg.Connect(context.Background(), stub))

	s := NewCapabilitySearcher(reg, "news", "search")
	items, err := s.SearchNews(context.Background(), "query", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].Title)
}
