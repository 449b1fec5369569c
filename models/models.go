package models

import (
	"strings"
	"time"
)

// Action is the agent-level trading recommendation.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionSkip Action = "SKIP"
)

// TradeAction is the side-specific recommendation used by the AI filter path.
type TradeAction string

const (
	TradeBuyYes TradeAction = "BUY_YES"
	TradeBuyNo  TradeAction = "BUY_NO"
	TradeAvoid  TradeAction = "AVOID"
)

// RiskLevel buckets a market's riskiness.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Rank orders risk levels so callers can apply a ceiling. Unknown levels
// rank highest so they never pass a risk filter by accident.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return 3
	}
}

// OutcomeToken is one side of a binary (or multi-outcome) market.
// Price is nil when the data collaborator had no quote for the token.
type OutcomeToken struct {
	TokenID string   `json:"token_id"`
	Outcome string   `json:"outcome"` // "Yes", "No", ...
	Price   *float64 `json:"price,omitempty"`
}

// Market is the read-only input produced by the market-data collaborator.
type Market struct {
	ID              string         `json:"id"`
	Question        string         `json:"question"`
	Description     string         `json:"description,omitempty"`
	Tokens          []OutcomeToken `json:"tokens"`
	Category        string         `json:"category,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	EndDate         *time.Time     `json:"end_date,omitempty"`
	Active          bool           `json:"active"`
	AcceptingOrders bool           `json:"accepting_orders"`
	NegRisk         bool           `json:"neg_risk"`
	Liquidity       float64        `json:"liquidity,omitempty"`
	Spread          float64        `json:"spread,omitempty"`
}

// YesPrice returns the price of the "Yes" token, or nil when absent.
func (m Market) YesPrice() *float64 {
	return m.outcomePrice("yes")
}

// NoPrice returns the price of the "No" token, or nil when absent.
func (m Market) NoPrice() *float64 {
	return m.outcomePrice("no")
}

func (m Market) outcomePrice(outcome string) *float64 {
	for _, t := range m.Tokens {
		if strings.EqualFold(t.Outcome, outcome) {
			return t.Price
		}
	}
	return nil
}

// Text returns the question and description joined for keyword matching.
func (m Market) Text() string {
	if m.Description == "" {
		return m.Question
	}
	return m.Question + " " + m.Description
}

// DaysToResolution returns the whole days until the market's end date,
// or -1 when no end date is known.
func (m Market) DaysToResolution(now time.Time) int {
	if m.EndDate == nil {
		return -1
	}
	d := m.EndDate.Sub(now)
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}

// NewsItem is one already-deduplicated article from the search collaborator.
type NewsItem struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Content     string     `json:"content,omitempty"`
	Source      string     `json:"source,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// AgentRecommendation is the immutable result of one agent analysis.
type AgentRecommendation struct {
	ID                   string            `json:"id"`
	MarketID             string            `json:"market_id"`
	Agent                string            `json:"agent"`
	Action               Action            `json:"action"`
	Confidence           float64           `json:"confidence"` // 0-1
	Reasoning            string            `json:"reasoning"`
	Sources              []string          `json:"sources,omitempty"`
	EstimatedProbability *float64          `json:"estimated_probability,omitempty"` // 0-1
	Edge                 *float64          `json:"edge,omitempty"`                  // -1..1, only with estimate
	Metadata             map[string]string `json:"metadata,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
}

// MarketAnalysis is the richer result produced by the AI filter path.
type MarketAnalysis struct {
	MarketID             string      `json:"market_id"`
	Question             string      `json:"question"`
	ShouldTrade          bool        `json:"should_trade"`
	Attractiveness       float64     `json:"attractiveness"` // 0-1
	RiskLevel            RiskLevel   `json:"risk_level"`
	RiskFactors          []string    `json:"risk_factors,omitempty"`
	Opportunities        []string    `json:"opportunities,omitempty"`
	EstimatedProbability float64     `json:"estimated_probability"`
	Confidence           float64     `json:"confidence"`
	Edge                 float64     `json:"edge"`
	RecommendedAction    TradeAction `json:"recommended_action"`
	Reasoning            string      `json:"reasoning,omitempty"`
	Sources              []string    `json:"sources,omitempty"`
	DeepSearched         bool        `json:"deep_searched,omitempty"`
	AnalyzedAt           time.Time   `json:"analyzed_at"`
}

// AnalysisContext carries optional, prefetched enrichment into an analysis.
// A single struct replaces the legacy overloaded call signatures.
type AnalysisContext struct {
	News            []NewsItem
	ReferencePrice  *float64 // prefetched external reference value, if any
	ForceDeepSearch bool
	Extra           map[string]string
}

// CacheStats is a point-in-time snapshot of one agent's cache.
type CacheStats struct {
	Size int   `json:"size"`
	Hits int64 `json:"hits"`
}

// QueueStats is a point-in-time snapshot of the request queue.
type QueueStats struct {
	Queued        int   `json:"queued"`
	Running       int   `json:"running"`
	RateLimitHits int64 `json:"rate_limit_hits"`
}

// AgentDescription is the human-readable agent summary exposed to callers.
type AgentDescription struct {
	Name         string   `json:"name"`
	Enabled      bool     `json:"enabled"`
	Keywords     []string `json:"keywords"`
	CacheSize    int      `json:"cache_size"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// Clamp01 bounds v to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClampProb bounds a heuristic probability to [0.01, 0.99] so no stage
// ever emits certainty.
func ClampProb(v float64) float64 {
	if v < 0.01 {
		return 0.01
	}
	if v > 0.99 {
		return 0.99
	}
	return v
}

// ClampEdge bounds an edge to [-1, 1].
func ClampEdge(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// DecideAction maps a (confidence, edge) pair to an action against the
// configured thresholds. An agent never emits BUY unless edge clears
// minEdge, nor SELL unless edge clears -minEdge.
func DecideAction(edge, confidence, minEdge, minConfidence float64) Action {
	if confidence < minConfidence {
		return ActionSkip
	}
	if edge > minEdge {
		return ActionBuy
	}
	if edge < -minEdge {
		return ActionSell
	}
	return ActionSkip
}

// Float64 returns a pointer to v. Handy for optional prices in literals.
func Float64(v float64) *float64 {
	return &v
}
