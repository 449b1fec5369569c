// Package search provides the news and deep-search clients. Both are
// enrichment sources: callers must treat failures as "no enrichment",
// never as analysis errors.
package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	platformhttp "github.com/polyedge/polyedge/internal/platform/http"
	"github.com/polyedge/polyedge/models"
)

// Client is the HTTP news search client.
type Client struct {
	apiKey  string
	baseURL string
	http    *platformhttp.Client
	logger  zerolog.Logger
}

// ClientOptions holds options for creating a new search Client.
type ClientOptions struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
	RequestsPerSec int
}

// NewClient creates a news search client.
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://newsapi.org/v2"
	}

	return &Client{
		apiKey:  opts.APIKey,
		baseURL: opts.BaseURL,
		http: platformhttp.NewClient(platformhttp.ClientOptions{
			Timeout:        opts.RequestTimeout,
			RequestsPerSec: opts.RequestsPerSec,
		}),
		logger: log.With().Str("component", "search_client").Logger(),
	}
}

type articlesResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Description string `json:"description"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// SearchNews fetches up to limit recent articles for the query.
func (c *Client) SearchNews(ctx context.Context, query string, limit int) ([]models.NewsItem, error) {
	if limit <= 0 {
		limit = 5
	}

	endpoint := fmt.Sprintf(
		"%s/everything?q=%s&sortBy=publishedAt&pageSize=%d&apiKey=%s",
		c.baseURL,
		url.QueryEscape(query),
		limit,
		c.apiKey,
	)

	c.logger.Debug().Str("query", query).Int("limit", limit).Msg("Searching news")

	var data articlesResponse
	if err := c.http.GetJSON(ctx, endpoint, &data); err != nil {
		return nil, fmt.Errorf("news search failed: %w", err)
	}
	if data.Status != "ok" {
		return nil, fmt.Errorf("news search returned status %q", data.Status)
	}

	items := make([]models.NewsItem, 0, len(data.Articles))
	for _, a := range data.Articles {
		item := models.NewsItem{
			Title:   a.Title,
			URL:     a.URL,
			Content: a.Description,
			Source:  a.Source.Name,
		}
		if ts, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			item.PublishedAt = &ts
		}
		items = append(items, item)
	}
	return items, nil
}

// DeepSearch runs the more expensive multi-source pass and returns a
// digest built from everything it found.
func (c *Client) DeepSearch(ctx context.Context, query string) (string, error) {
	items, err := c.SearchNews(ctx, query, 10)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, item := range items {
		sb.WriteString("- ")
		sb.WriteString(item.Title)
		if item.Content != "" {
			sb.WriteString(": ")
			sb.WriteString(item.Content)
		}
		if item.Source != "" {
			sb.WriteString(" (")
			sb.WriteString(item.Source)
			sb.WriteString(")")
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
