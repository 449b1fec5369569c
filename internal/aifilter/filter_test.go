package aifilter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyedge/polyedge/internal/llm"
	"github.com/polyedge/polyedge/internal/queue"
	"github.com/polyedge/polyedge/models"
)

// routingCompleter answers by prompt content so batch fan-out stays
// deterministic regardless of goroutine scheduling.
type routingCompleter struct {
	mu           sync.Mutex
	routes       map[string]string // prompt substring -> response
	deepResponse string            // used when the prompt carries a research digest
	failsOn      string
	calls        int
}

func (r *routingCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.failsOn != "" && strings.Contains(prompt, r.failsOn) {
		return "", errors.New("estimator unavailable")
	}
	if r.deepResponse != "" && strings.Contains(prompt, "Research digest") {
		return r.deepResponse, nil
	}
	for needle, resp := range r.routes {
		if strings.Contains(prompt, needle) {
			return resp, nil
		}
	}
	return "", nil
}

type stubNews struct {
	items []models.NewsItem
	err   error
}

func (s *stubNews) SearchNews(ctx context.Context, query string, limit int) ([]models.NewsItem, error) {
	return s.items, s.err
}

type stubDeep struct {
	digest string
	err    error
	calls  int
}

func (s *stubDeep) DeepSearch(ctx context.Context, query string) (string, error) {
	s.calls++
	return s.digest, s.err
}

func fastQueue() *queue.Queue {
	return queue.New(queue.Options{
		MaxConcurrent: 4,
		Delay:         time.Millisecond,
		MaxRetries:    0,
		RetryBase:     time.Millisecond,
	})
}

func newTestFilter(t *testing.T, completer models.Completer, cfg Config) *Filter {
	t.Helper()
	f, err := New(completer, fastQueue(), nil, nil, cfg)
	require.NoError(t, err)
	return f
}

func priceMarket(id, question string, price float64) models.Market {
	return models.Market{
		ID:       id,
		Question: question,
		Active:   true,
		Tokens: []models.OutcomeToken{
			{Outcome: "Yes", Price: models.Float64(price)},
			{Outcome: "No", Price: models.Float64(1 - price)},
		},
	}
}

func analysisJSON(shouldTrade bool, attractiveness float64, risk string, probability, confidence float64, action string) string {
	return fmt.Sprintf(`{"shouldTrade": %t, "attractiveness": %.2f, "riskLevel": %q,
		"estimatedProbability": %.2f, "confidence": %.2f, "recommendedAction": %q,
		"reasoning": "test"}`, shouldTrade, attractiveness, risk, probability, confidence, action)
}

func TestNewRequiresCompleter(t *testing.T) {
	_, err := New(nil, fastQueue(), nil, nil, Config{})
	assert.Error(t, err)

	_, err = New(llm.NewFake(), nil, nil, nil, Config{})
	assert.Error(t, err)
}

func TestAnalyzeMarketDerivesBuyYes(t *testing.T) {
	fake := llm.NewFake(analysisJSON(true, 0.8, "low", 0.80, 0.7, "BUY_YES"))
	f := newTestFilter(t, fake, Config{MinEdge: 0.05})

	analysis, err := f.AnalyzeMarket(context.Background(), priceMarket("m1", "Will it happen?", 0.60), nil)
	require.NoError(t, err)

	assert.Equal(t, models.TradeBuyYes, analysis.RecommendedAction)
	assert.InDelta(t, 0.20, analysis.Edge, 1e-9)
	assert.InDelta(t, 0.80, analysis.EstimatedProbability, 1e-9)
	assert.True(t, analysis.ShouldTrade)
	assert.Equal(t, models.RiskLow, analysis.RiskLevel)
}

func TestAnalyzeMarketDerivesBuyNo(t *testing.T) {
	fake := llm.NewFake(analysisJSON(true, 0.8, "low", 0.30, 0.7, "BUY_NO"))
	f := newTestFilter(t, fake, Config{MinEdge: 0.05})

	analysis, err := f.AnalyzeMarket(context.Background(), priceMarket("m1", "Will it happen?", 0.60), nil)
	require.NoError(t, err)

	assert.Equal(t, models.TradeBuyNo, analysis.RecommendedAction)
	assert.InDelta(t, -0.30, analysis.Edge, 1e-9)
}

func TestAnalyzeMarketSmallEdgeAvoids(t *testing.T) {
	fake := llm.NewFake(analysisJSON(true, 0.8, "low", 0.62, 0.7, "BUY_YES"))
	f := newTestFilter(t, fake, Config{MinEdge: 0.05})

	analysis, err := f.AnalyzeMarket(context.Background(), priceMarket("m1", "Will it happen?", 0.60), nil)
	require.NoError(t, err)

	// |edge| = 0.02 is below the minimum, regardless of the claimed action.
	assert.Equal(t, models.TradeAvoid, analysis.RecommendedAction)
	assert.False(t, analysis.ShouldTrade)
}

func TestAnalyzeMarketContradictionOverride(t *testing.T) {
	// Claimed BUY_YES with an estimate below the market price is
	// internally inconsistent and must never surface as a trade.
	fake := llm.NewFake(analysisJSON(true, 0.9, "low", 0.60, 0.8, "BUY_YES"))
	f := newTestFilter(t, fake, Config{MinEdge: 0.05})

	analysis, err := f.AnalyzeMarket(context.Background(), priceMarket("m1", "Will it happen?", 0.70), nil)
	require.NoError(t, err)

	assert.Equal(t, models.TradeAvoid, analysis.RecommendedAction)
	assert.False(t, analysis.ShouldTrade)
}

func TestAnalyzeMarketMissingProbabilityFallsBackToPrice(t *testing.T) {
	fake := llm.NewFake(`{"shouldTrade": true, "attractiveness": 0.9, "riskLevel": "low", "confidence": 0.8}`)
	f := newTestFilter(t, fake, Config{MinEdge: 0.05})

	analysis, err := f.AnalyzeMarket(context.Background(), priceMarket("m1", "Will it happen?", 0.55), nil)
	require.NoError(t, err)

	assert.InDelta(t, 0.55, analysis.EstimatedProbability, 1e-9)
	assert.InDelta(t, 0, analysis.Edge, 1e-9)
	assert.Equal(t, models.TradeAvoid, analysis.RecommendedAction)
	assert.False(t, analysis.ShouldTrade)
}

func TestAnalyzeMarketNoPrice(t *testing.T) {
	fake := llm.NewFake()
	f := newTestFilter(t, fake, Config{})

	market := models.Market{
		ID:       "m1",
		Question: "Will it happen?",
		Tokens:   []models.OutcomeToken{{Outcome: "Yes"}},
	}
	analysis, err := f.AnalyzeMarket(context.Background(), market, nil)
	require.NoError(t, err)

	assert.Equal(t, models.TradeAvoid, analysis.RecommendedAction)
	assert.False(t, analysis.ShouldTrade)
	assert.Contains(t, analysis.Reasoning, "price")
	assert.Zero(t, fake.Calls, "estimator must not be called without a price")
}

func TestAnalyzeMarketEstimatorErrorPropagates(t *testing.T) {
	fake := llm.NewFake()
	fake.Err = errors.New("provider down")
	f := newTestFilter(t, fake, Config{})

	_, err := f.AnalyzeMarket(context.Background(), priceMarket("m1", "Will it happen?", 0.5), nil)
	assert.Error(t, err)
}

func TestAnalyzeMarketNewsEnrichment(t *testing.T) {
	fake := llm.NewFake(analysisJSON(true, 0.8, "low", 0.9, 0.7, "BUY_YES"))
	news := &stubNews{items: []models.NewsItem{
		{Title: "Challenger surges in polls", URL: "https://example.com/a"},
	}}
	f, err := New(fake, fastQueue(), news, nil, Config{UseNewsSearch: true})
	require.NoError(t, err)

	analysis, err := f.AnalyzeMarket(context.Background(), priceMarket("m1", "Will the challenger win?", 0.4), nil)
	require.NoError(t, err)

	require.Len(t, fake.Prompts, 1)
	assert.Contains(t, fake.Prompts[0], "Challenger surges in polls")
	assert.Equal(t, []string{"https://example.com/a"}, analysis.Sources)
}

func TestAnalyzeMarketNewsFailureDegrades(t *testing.T) {
	fake := llm.NewFake(analysisJSON(true, 0.8, "low", 0.9, 0.7, "BUY_YES"))
	news := &stubNews{err: errors.New("search api down")}
	f, err := New(fake, fastQueue(), news, nil, Config{UseNewsSearch: true})
	require.NoError(t, err)

	analysis, err := f.AnalyzeMarket(context.Background(), priceMarket("m1", "Will it happen?", 0.4), nil)
	require.NoError(t, err)

	assert.Equal(t, models.TradeBuyYes, analysis.RecommendedAction)
	assert.Empty(t, analysis.Sources)
}

func TestAnalyzeMarketForcedDeepSearch(t *testing.T) {
	fake := llm.NewFake(analysisJSON(true, 0.8, "low", 0.9, 0.7, "BUY_YES"))
	deep := &stubDeep{digest: "Multiple outlets report momentum."}
	f, err := New(fake, fastQueue(), nil, deep, Config{})
	require.NoError(t, err)

	analysis, err := f.AnalyzeMarket(context.Background(), priceMarket("m1", "Will it happen?", 0.4),
		&models.AnalysisContext{ForceDeepSearch: true})
	require.NoError(t, err)

	assert.True(t, analysis.DeepSearched)
	require.Len(t, fake.Prompts, 1)
	assert.Contains(t, fake.Prompts[0], "Multiple outlets report momentum.")
}

func TestFilterMarketsStagedFilter(t *testing.T) {
	completer := &routingCompleter{routes: map[string]string{
		"market one":   analysisJSON(true, 0.90, "low", 0.80, 0.7, "BUY_YES"),
		"market two":   analysisJSON(true, 0.30, "low", 0.80, 0.7, "BUY_YES"),  // below attractiveness floor
		"market three": analysisJSON(true, 0.85, "high", 0.80, 0.7, "BUY_YES"), // above risk ceiling
		"market four":  analysisJSON(false, 0.95, "low", 0.80, 0.7, "BUY_YES"), // shouldTrade false
		"market five":  analysisJSON(true, 0.70, "low", 0.80, 0.7, "BUY_YES"),
	}}
	f := newTestFilter(t, completer, Config{
		MinEdge:           0.05,
		MinAttractiveness: 0.6,
		MaxRiskLevel:      models.RiskMedium,
	})

	markets := []models.Market{
		priceMarket("m1", "Is market one mispriced?", 0.60),
		priceMarket("m2", "Is market two mispriced?", 0.60),
		priceMarket("m3", "Is market three mispriced?", 0.60),
		priceMarket("m4", "Is market four mispriced?", 0.60),
		priceMarket("m5", "Is market five mispriced?", 0.60),
	}

	selected, err := f.FilterMarkets(context.Background(), markets)
	require.NoError(t, err)

	require.Len(t, selected, 2)
	// Sorted descending by attractiveness.
	assert.Equal(t, "m1", selected[0].MarketID)
	assert.Equal(t, "m5", selected[1].MarketID)
}

func TestFilterMarketsCategoryLists(t *testing.T) {
	completer := &routingCompleter{routes: map[string]string{
		"mispriced": analysisJSON(true, 0.90, "low", 0.80, 0.7, "BUY_YES"),
	}}
	f := newTestFilter(t, completer, Config{
		MinEdge:           0.05,
		MinAttractiveness: 0.6,
		MaxRiskLevel:      models.RiskMedium,
		AllowedCategories: []string{"politics"},
	})

	politics := priceMarket("m1", "Is this mispriced?", 0.60)
	politics.Category = "Politics"
	sports := priceMarket("m2", "Is that mispriced?", 0.60)
	sports.Category = "Sports"

	selected, err := f.FilterMarkets(context.Background(), []models.Market{politics, sports})
	require.NoError(t, err)

	require.Len(t, selected, 1)
	assert.Equal(t, "m1", selected[0].MarketID)
}

func TestFilterMarketsContainsPerItemFailure(t *testing.T) {
	completer := &routingCompleter{
		routes: map[string]string{
			"healthy": analysisJSON(true, 0.90, "low", 0.80, 0.7, "BUY_YES"),
		},
		failsOn: "doomed",
	}
	f := newTestFilter(t, completer, Config{
		MinEdge:           0.05,
		MinAttractiveness: 0.6,
		MaxRiskLevel:      models.RiskMedium,
	})

	markets := []models.Market{
		priceMarket("m1", "Is the healthy market mispriced?", 0.60),
		priceMarket("m2", "Is the doomed market mispriced?", 0.60),
	}

	selected, err := f.FilterMarkets(context.Background(), markets)
	require.NoError(t, err, "one failing market must not abort the batch")

	require.Len(t, selected, 1)
	assert.Equal(t, "m1", selected[0].MarketID)
}

func TestFilterMarketsDeepPassMergesMax(t *testing.T) {
	completer := &routingCompleter{
		routes: map[string]string{
			"mispriced": analysisJSON(true, 0.70, "low", 0.80, 0.5, "BUY_YES"),
		},
		deepResponse: analysisJSON(true, 0.65, "low", 0.80, 0.8, "BUY_YES"),
	}
	deep := &stubDeep{digest: "Deeper digest."}
	f, err := New(completer, fastQueue(), nil, deep, Config{
		MinEdge:           0.05,
		MinAttractiveness: 0.6,
		MaxRiskLevel:      models.RiskMedium,
	})
	require.NoError(t, err)

	selected, err := f.FilterMarkets(context.Background(), []models.Market{
		priceMarket("m1", "Is this mispriced?", 0.60),
	})
	require.NoError(t, err)

	require.Len(t, selected, 1)
	assert.True(t, selected[0].DeepSearched)
	assert.GreaterOrEqual(t, deep.calls, 1)
	// Max of the two passes on both axes.
	assert.InDelta(t, 0.8, selected[0].Confidence, 1e-9)
	assert.InDelta(t, 0.70, selected[0].Attractiveness, 1e-9)
}
