package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	platformhttp "github.com/polyedge/polyedge/internal/platform/http"
)

// HTTPClient talks to a remote tool server over JSON-in, JSON-out HTTP.
type HTTPClient struct {
	name    string
	baseURL string
	tools   []string
	http    *platformhttp.Client
	logger  zerolog.Logger
}

// HTTPClientOptions configures an HTTPClient.
type HTTPClientOptions struct {
	Name           string
	BaseURL        string
	Tools          []string
	RequestTimeout time.Duration
}

// NewHTTPClient creates an HTTP-backed capability client.
func NewHTTPClient(opts HTTPClientOptions) *HTTPClient {
	return &HTTPClient{
		name:    opts.Name,
		baseURL: opts.BaseURL,
		tools:   opts.Tools,
		http: platformhttp.NewClient(platformhttp.ClientOptions{
			Timeout: opts.RequestTimeout,
		}),
		logger: log.With().Str("component", "capability").Str("name", opts.Name).Logger(),
	}
}

func (c *HTTPClient) Name() string { return c.name }

// Connect verifies the tool server is reachable.
func (c *HTTPClient) Connect(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.http.DoRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	resp.Body.Close()
	return nil
}

// Call posts {tool, args} to the tool server and returns the raw body.
func (c *HTTPClient) Call(ctx context.Context, tool string, args map[string]any) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]any{"tool": tool, "args": args})
	if err != nil {
		return nil, fmt.Errorf("encoding call: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/call", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug().Str("tool", tool).Msg("Calling capability tool")

	resp, err := c.http.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("tool call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return json.RawMessage(body), nil
}

func (c *HTTPClient) Tools() []string { return c.tools }

func (c *HTTPClient) Close() error { return nil }
