// Package agent implements the category-dispatch recommendation agents.
// A shared driver owns caching, rate limiting and news fusion; the
// domain heuristics live in small Strategy values (sports, politics,
// crypto) composed into it.
package agent

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/polyedge/polyedge/internal/cache"
	"github.com/polyedge/polyedge/internal/capability"
	"github.com/polyedge/polyedge/internal/metrics"
	"github.com/polyedge/polyedge/internal/ratelimit"
	"github.com/polyedge/polyedge/models"
)

// Strategy holds the domain-specific half of an agent.
type Strategy interface {
	// Category is the agent's static tag, e.g. "sports".
	Category() string
	// Keywords is the flattened union of the category's topic keywords.
	Keywords() []string
	// Analyze produces a recommendation for a market. Errors are
	// contained by the driver; they never reach the caller.
	Analyze(ctx context.Context, market models.Market, actx *models.AnalysisContext) (models.AgentRecommendation, error)
}

// Options configures the shared driver around a Strategy.
type Options struct {
	Enabled            bool
	CacheTTL           time.Duration
	CacheSweepInterval time.Duration
	RateLimitPerMinute int
	UseNewsSearch      bool
	MaxNewsArticles    int
}

// Agent wraps a Strategy with cache, rate limiting and news fusion.
type Agent struct {
	strategy Strategy
	opts     Options
	cache    *cache.Store
	limiter  *ratelimit.Window
	news     models.NewsSearcher
	caps     *capability.Registry
	logger   zerolog.Logger
}

// New creates an Agent. news and caps may be nil; the agent then runs
// heuristics-only.
func New(strategy Strategy, opts Options, news models.NewsSearcher, caps *capability.Registry) *Agent {
	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = 10
	}
	if opts.MaxNewsArticles <= 0 {
		opts.MaxNewsArticles = 5
	}

	return &Agent{
		strategy: strategy,
		opts:     opts,
		cache:    cache.New(strategy.Category(), opts.CacheTTL, opts.CacheSweepInterval),
		limiter:  ratelimit.NewWindow(opts.RateLimitPerMinute),
		news:     news,
		caps:     caps,
		logger:   log.With().Str("component", "agent").Str("category", strategy.Category()).Logger(),
	}
}

// Name returns the agent's category tag.
func (a *Agent) Name() string {
	return a.strategy.Category()
}

// MatchesCategory reports whether any of the strategy's keywords occur
// in the market's question or description (case-insensitive substring).
func (a *Agent) MatchesCategory(m models.Market) bool {
	text := strings.ToLower(m.Text())
	for _, kw := range a.strategy.Keywords() {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// AnalyzeWithCache is the public analysis entry point. It returns nil
// when the agent is disabled or its rate limit is exhausted; callers
// treat nil as "try later". A cache hit short-circuits everything else,
// including rate limiting. Strategy failures surface as a SKIP
// recommendation, never as an error.
func (a *Agent) AnalyzeWithCache(ctx context.Context, market models.Market, actx *models.AnalysisContext) *models.AgentRecommendation {
	if !a.opts.Enabled {
		return nil
	}

	if rec, ok := a.cache.Get(market.ID); ok {
		metrics.Observer.CacheHit(a.Name())
		return &rec
	}

	if !a.limiter.Allow() {
		a.logger.Warn().Str("market", market.ID).Msg("Rate limit exceeded, rejecting analysis")
		metrics.Observer.RateLimitRejection(a.Name())
		return nil
	}

	if actx == nil {
		actx = &models.AnalysisContext{}
	}

	if a.opts.UseNewsSearch && a.news != nil && len(actx.News) == 0 {
		query := strings.Join(ExtractKeywords(market.Text()), " ")
		items, err := a.news.SearchNews(ctx, query, a.opts.MaxNewsArticles)
		if err != nil {
			a.logger.Warn().Err(err).Str("market", market.ID).Msg("News search failed, continuing without")
		} else {
			actx.News = items
		}
	}

	rec := a.runAnalysis(ctx, market, actx)
	a.cache.Put(market.ID, rec)
	metrics.Observer.Analysis(a.Name(), string(rec.Action))
	return &rec
}

// runAnalysis contains strategy failures: errors and panics both map to
// a default SKIP recommendation.
func (a *Agent) runAnalysis(ctx context.Context, market models.Market, actx *models.AnalysisContext) (rec models.AgentRecommendation) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error().Interface("panic", r).Str("market", market.ID).Msg("Analysis panicked")
			rec = errorRecommendation(a.Name(), market.ID)
		}
	}()

	rec, err := a.strategy.Analyze(ctx, market, actx)
	if err != nil {
		a.logger.Error().Err(err).Str("market", market.ID).Msg("Analysis failed")
		return errorRecommendation(a.Name(), market.ID)
	}
	return rec
}

// Describe returns the human-readable agent summary.
func (a *Agent) Describe() models.AgentDescription {
	desc := models.AgentDescription{
		Name:      a.Name(),
		Enabled:   a.opts.Enabled,
		Keywords:  a.strategy.Keywords(),
		CacheSize: a.cache.Len(),
	}
	if a.caps != nil {
		desc.Capabilities = a.caps.Names()
	}
	return desc
}

// CacheStats exposes the agent's cache counters.
func (a *Agent) CacheStats() models.CacheStats {
	return a.cache.Stats()
}

// Close stops the agent's cache sweeper.
func (a *Agent) Close() {
	a.cache.Close()
}

func newRecommendation(agentName, marketID string) models.AgentRecommendation {
	return models.AgentRecommendation{
		ID:        uuid.NewString(),
		MarketID:  marketID,
		Agent:     agentName,
		CreatedAt: time.Now(),
	}
}

func errorRecommendation(agentName, marketID string) models.AgentRecommendation {
	rec := newRecommendation(agentName, marketID)
	rec.Action = models.ActionSkip
	rec.Confidence = 0
	rec.Reasoning = "Analysis error"
	return rec
}

func skipNoPrice(agentName, marketID string) models.AgentRecommendation {
	rec := newRecommendation(agentName, marketID)
	rec.Action = models.ActionSkip
	rec.Confidence = 0
	rec.Reasoning = "No price available"
	return rec
}

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "will": {}, "with": {}, "this": {},
	"that": {}, "from": {}, "have": {}, "has": {}, "are": {}, "was": {},
	"been": {}, "more": {}, "than": {}, "who": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "their": {}, "there": {}, "would": {},
	"could": {}, "should": {}, "about": {}, "into": {}, "over": {},
	"under": {}, "before": {}, "after": {}, "between": {}, "during": {},
	"you": {}, "your": {}, "they": {}, "them": {}, "its": {}, "his": {},
	"her": {}, "any": {}, "all": {}, "not": {}, "but": {}, "can": {},
	"does": {}, "did": {}, "win": {}, "end": {},
}

// ExtractKeywords pulls search terms from market text: stop words are
// stripped, only words longer than 2 characters survive, and the first
// 5 are kept.
func ExtractKeywords(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})

	keywords := make([]string, 0, 5)
	for _, w := range words {
		if len(w) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		keywords = append(keywords, w)
		if len(keywords) == 5 {
			break
		}
	}
	return keywords
}
