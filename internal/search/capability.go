package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/polyedge/polyedge/internal/capability"
	"github.com/polyedge/polyedge/models"
)

// CapabilitySearcher serves news lookups through a connected capability
// instead of a direct HTTP client, so search backends stay swappable.
type CapabilitySearcher struct {
	registry *capability.Registry
	name     string
	tool     string
}

// NewCapabilitySearcher routes SearchNews through registry's named
// capability and tool.
func NewCapabilitySearcher(registry *capability.Registry, name, tool string) *CapabilitySearcher {
	return &CapabilitySearcher{registry: registry, name: name, tool: tool}
}

// SearchNews implements models.NewsSearcher.
func (s *CapabilitySearcher) SearchNews(ctx context.Context, query string, limit int) ([]models.NewsItem, error) {
	raw, err := s.registry.Call(ctx, s.name, s.tool, map[string]any{
		"query": query,
		"limit": limit,
	})
	if err != nil {
		return nil, fmt.Errorf("capability search failed: %w", err)
	}

	var payload struct {
		Articles []models.NewsItem `json:"articles"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decoding capability search response: %w", err)
	}
	if limit > 0 && len(payload.Articles) > limit {
		payload.Articles = payload.Articles[:limit]
	}
	return payload.Articles, nil
}
