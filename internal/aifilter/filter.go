// Package aifilter turns upstream probability estimates into trading
// analyses. The upstream model is trusted only for the probability
// number; the final action is always derived here from the estimate and
// the market price, so an inconsistent upstream response can never
// place a trade on its own.
package aifilter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/polyedge/polyedge/internal/queue"
	"github.com/polyedge/polyedge/models"
)

// Config holds the filter's thresholds and toggles.
type Config struct {
	MinEdge           float64
	MinAttractiveness float64
	MaxRiskLevel      models.RiskLevel
	AllowedCategories []string
	DeniedCategories  []string
	UseNewsSearch     bool
	MaxNewsArticles   int
}

// Filter runs the probability/edge estimation pipeline.
type Filter struct {
	completer models.Completer
	queue     *queue.Queue
	news      models.NewsSearcher // optional
	deep      models.DeepSearcher // optional
	cfg       Config
	logger    zerolog.Logger
	now       func() time.Time
}

// New wires a Filter. A missing completer is a configuration error and
// fails fast here rather than at analysis time.
func New(completer models.Completer, q *queue.Queue, news models.NewsSearcher, deep models.DeepSearcher, cfg Config) (*Filter, error) {
	if completer == nil {
		return nil, errors.New("aifilter: no probability estimator configured")
	}
	if q == nil {
		return nil, errors.New("aifilter: no request queue configured")
	}
	if cfg.MinEdge <= 0 {
		cfg.MinEdge = 0.05
	}
	if cfg.MaxRiskLevel == "" {
		cfg.MaxRiskLevel = models.RiskMedium
	}
	if cfg.MaxNewsArticles <= 0 {
		cfg.MaxNewsArticles = 5
	}

	return &Filter{
		completer: completer,
		queue:     q,
		news:      news,
		deep:      deep,
		cfg:       cfg,
		logger:    log.With().Str("component", "ai_filter").Logger(),
		now:       time.Now,
	}, nil
}

// AnalyzeMarket produces a MarketAnalysis for one market. Enrichment is
// best-effort; an estimator failure (after the queue's retries) is the
// only error path.
func (f *Filter) AnalyzeMarket(ctx context.Context, market models.Market, actx *models.AnalysisContext) (models.MarketAnalysis, error) {
	if actx == nil {
		actx = &models.AnalysisContext{}
	}

	yes := market.YesPrice()
	if yes == nil {
		return f.noPriceAnalysis(market), nil
	}
	price := *yes

	news := actx.News
	if f.cfg.UseNewsSearch && f.news != nil && len(news) == 0 {
		found, err := f.news.SearchNews(ctx, market.Question, f.cfg.MaxNewsArticles)
		if err != nil {
			f.logger.Warn().Err(err).Str("market_id", market.ID).Msg("News enrichment failed, continuing without")
		} else {
			news = found
		}
	}

	var deepDigest string
	deepSearched := false
	if actx.ForceDeepSearch && f.deep != nil {
		digest, err := f.deep.DeepSearch(ctx, market.Question)
		if err != nil {
			f.logger.Warn().Err(err).Str("market_id", market.ID).Msg("Deep search failed, continuing without")
		} else {
			deepDigest = digest
			deepSearched = true
		}
	}

	prompt := buildPrompt(market, news, deepDigest, f.now())
	raw, err := f.queue.Do(ctx, market.ID, func(ctx context.Context) (string, error) {
		return f.completer.Complete(ctx, prompt)
	})
	if err != nil {
		return models.MarketAnalysis{}, fmt.Errorf("estimator call for market %s: %w", market.ID, err)
	}

	analysis := f.validate(market, price, parseResponse(raw))
	analysis.Sources = newsURLs(news)
	analysis.DeepSearched = deepSearched
	return analysis, nil
}

// validate normalizes the parsed response and derives the action. The
// probability/price relationship is authoritative: the upstream-claimed
// action is only ever consulted to detect contradictions.
func (f *Filter) validate(market models.Market, price float64, resp response) models.MarketAnalysis {
	analysis := models.MarketAnalysis{
		MarketID:   market.ID,
		Question:   market.Question,
		RiskLevel:  models.RiskLevel(resp.RiskLevel),
		AnalyzedAt: f.now(),
	}
	if analysis.RiskLevel == "" {
		analysis.RiskLevel = models.RiskMedium
	}
	analysis.RiskFactors = resp.RiskFactors
	analysis.Opportunities = resp.Opportunities
	analysis.Reasoning = resp.Reasoning

	probabilityMissing := resp.EstimatedProbability == nil
	estimate := price
	if resp.EstimatedProbability != nil {
		estimate = models.Clamp01(*resp.EstimatedProbability)
	} else {
		f.logger.Error().
			Str("market_id", market.ID).
			Float64("market_price", price).
			Msg("Estimator returned no probability, falling back to market price (forces AVOID)")
	}
	if estimate >= 0.99 || estimate <= 0.01 {
		f.logger.Warn().
			Str("market_id", market.ID).
			Float64("estimate", estimate).
			Msg("Extreme probability estimate, likely overconfident")
	}

	if resp.Confidence != nil {
		analysis.Confidence = models.Clamp01(*resp.Confidence)
	}
	if resp.Attractiveness != nil {
		analysis.Attractiveness = models.Clamp01(*resp.Attractiveness)
	}

	analysis.EstimatedProbability = estimate
	analysis.Edge = models.ClampEdge(estimate - price)

	switch {
	case probabilityMissing:
		analysis.RecommendedAction = models.TradeAvoid
	case analysis.Edge > f.cfg.MinEdge:
		analysis.RecommendedAction = models.TradeBuyYes
	case analysis.Edge < -f.cfg.MinEdge:
		analysis.RecommendedAction = models.TradeBuyNo
	default:
		analysis.RecommendedAction = models.TradeAvoid
	}

	if contradiction(models.TradeAction(resp.RecommendedAction), estimate, price) {
		f.logger.Warn().
			Str("market_id", market.ID).
			Str("claimed_action", resp.RecommendedAction).
			Float64("estimate", estimate).
			Float64("market_price", price).
			Msg("Upstream action contradicts its own probability, overriding to AVOID")
		analysis.RecommendedAction = models.TradeAvoid
	}

	shouldTrade := analysis.RecommendedAction != models.TradeAvoid
	if resp.ShouldTrade != nil {
		shouldTrade = shouldTrade && *resp.ShouldTrade
	}
	analysis.ShouldTrade = shouldTrade
	return analysis
}

// contradiction reports whether the upstream-claimed action disagrees
// with the probability/price relationship it was returned alongside.
func contradiction(claimed models.TradeAction, estimate, price float64) bool {
	switch claimed {
	case models.TradeBuyYes:
		return estimate <= price
	case models.TradeBuyNo:
		return estimate >= price
	default:
		return false
	}
}

func (f *Filter) noPriceAnalysis(market models.Market) models.MarketAnalysis {
	return models.MarketAnalysis{
		MarketID:          market.ID,
		Question:          market.Question,
		ShouldTrade:       false,
		RiskLevel:         models.RiskHigh,
		RiskFactors:       []string{"No price available"},
		RecommendedAction: models.TradeAvoid,
		Reasoning:         "No price available for the YES outcome",
		AnalyzedAt:        f.now(),
	}
}

// FilterMarkets analyzes every market and applies the staged selection
// pipeline. A failing analysis never aborts the batch: the market gets
// a default "Analysis failed" entry and drops out at the first stage.
func (f *Filter) FilterMarkets(ctx context.Context, markets []models.Market) ([]models.MarketAnalysis, error) {
	analyses := make([]models.MarketAnalysis, len(markets))

	var wg sync.WaitGroup
	for i, market := range markets {
		wg.Add(1)
		go func(i int, market models.Market) {
			defer wg.Done()
			analysis, err := f.AnalyzeMarket(ctx, market, nil)
			if err != nil {
				f.logger.Error().Err(err).Str("market_id", market.ID).Msg("Market analysis failed")
				analysis = f.failedAnalysis(market, err)
			}
			analyses[i] = analysis
		}(i, market)
	}
	wg.Wait()

	selected := f.selectCandidates(markets, analyses)
	selected = f.deepPass(ctx, selected)

	sort.SliceStable(selected.analyses, func(a, b int) bool {
		return selected.analyses[a].Attractiveness > selected.analyses[b].Attractiveness
	})
	return selected.analyses, nil
}

type candidates struct {
	markets  []models.Market
	analyses []models.MarketAnalysis
}

// selectCandidates applies the staged filter: shouldTrade, then the
// attractiveness floor, the risk ceiling, and the category lists.
func (f *Filter) selectCandidates(markets []models.Market, analyses []models.MarketAnalysis) candidates {
	var out candidates
	for i, analysis := range analyses {
		if !analysis.ShouldTrade {
			continue
		}
		if analysis.Attractiveness < f.cfg.MinAttractiveness {
			continue
		}
		if analysis.RiskLevel.Rank() > f.cfg.MaxRiskLevel.Rank() {
			continue
		}
		if !f.categoryAllowed(markets[i].Category) {
			continue
		}
		out.markets = append(out.markets, markets[i])
		out.analyses = append(out.analyses, analysis)
	}
	f.logger.Info().
		Int("analyzed", len(analyses)).
		Int("selected", len(out.analyses)).
		Msg("Staged market filter complete")
	return out
}

func (f *Filter) categoryAllowed(category string) bool {
	c := strings.ToLower(category)
	for _, denied := range f.cfg.DeniedCategories {
		if strings.EqualFold(denied, c) {
			return false
		}
	}
	if len(f.cfg.AllowedCategories) == 0 {
		return true
	}
	for _, allowed := range f.cfg.AllowedCategories {
		if strings.EqualFold(allowed, c) {
			return true
		}
	}
	return false
}

// deepPass re-analyzes surviving markets that only got the cheap
// enrichment, merging by max confidence and attractiveness so a noisier
// second opinion can only raise the score.
func (f *Filter) deepPass(ctx context.Context, c candidates) candidates {
	if f.deep == nil {
		return c
	}
	for i := range c.analyses {
		if c.analyses[i].DeepSearched {
			continue
		}
		again, err := f.AnalyzeMarket(ctx, c.markets[i], &models.AnalysisContext{ForceDeepSearch: true})
		if err != nil {
			f.logger.Warn().Err(err).Str("market_id", c.markets[i].ID).Msg("Deep re-analysis failed, keeping first pass")
			continue
		}
		if again.Confidence > c.analyses[i].Confidence {
			c.analyses[i].Confidence = again.Confidence
		}
		if again.Attractiveness > c.analyses[i].Attractiveness {
			c.analyses[i].Attractiveness = again.Attractiveness
		}
		c.analyses[i].DeepSearched = again.DeepSearched
	}
	return c
}

func (f *Filter) failedAnalysis(market models.Market, err error) models.MarketAnalysis {
	return models.MarketAnalysis{
		MarketID:          market.ID,
		Question:          market.Question,
		ShouldTrade:       false,
		RiskLevel:         models.RiskHigh,
		RiskFactors:       []string{"Analysis failed"},
		RecommendedAction: models.TradeAvoid,
		Reasoning:         fmt.Sprintf("Analysis failed: %v", err),
		AnalyzedAt:        f.now(),
	}
}

func newsURLs(items []models.NewsItem) []string {
	if len(items) == 0 {
		return nil
	}
	urls := make([]string, 0, len(items))
	for _, item := range items {
		if item.URL != "" {
			urls = append(urls, item.URL)
		}
	}
	return urls
}
