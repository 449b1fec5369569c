package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/polyedge/polyedge/internal/agent"
	"github.com/polyedge/polyedge/internal/aifilter"
	"github.com/polyedge/polyedge/internal/capability"
	"github.com/polyedge/polyedge/internal/config"
	"github.com/polyedge/polyedge/internal/database"
	"github.com/polyedge/polyedge/internal/llm"
	"github.com/polyedge/polyedge/internal/queue"
	"github.com/polyedge/polyedge/internal/refdata"
	"github.com/polyedge/polyedge/internal/search"
	"github.com/polyedge/polyedge/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	lvl, perr := zerolog.ParseLevel(cfg.LogLevel)
	if perr != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.Info().Str("addr", cfg.MetricsAddr).Msg("Serving metrics")
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Error().Err(err).Msg("Metrics listener stopped")
			}
		}()
	}

	ctx := context.Background()
	requestTimeout := time.Duration(cfg.RequestTimeout) * time.Second

	var completer models.Completer
	if cfg.OpenAIAPIKey != "" {
		completer = llm.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, using canned estimator responses")
		completer = llm.NewFake(
			`{"shouldTrade": true, "attractiveness": 0.7, "riskLevel": "medium",
			  "estimatedProbability": 0.62, "confidence": 0.68,
			  "recommendedAction": "BUY_YES", "reasoning": "Offline sample response."}`,
		)
	}

	var news models.NewsSearcher
	var deep models.DeepSearcher
	if cfg.NewsAPIKey != "" {
		searchClient := search.NewClient(search.ClientOptions{
			APIKey:         cfg.NewsAPIKey,
			RequestTimeout: requestTimeout,
		})
		news = searchClient
		deep = searchClient
	}

	caps := capability.NewRegistry()
	defer caps.Shutdown()
	headlines := capability.NewStub("headlines", map[string]json.RawMessage{
		"top_headlines": json.RawMessage(`{"articles": []}`),
	})
	if err := caps.Connect(ctx, headlines); err != nil {
		log.Warn().Err(err).Msg("Headlines capability unavailable")
	}

	prices := refdata.NewCryptoClient(refdata.CryptoClientOptions{
		RequestTimeout: requestTimeout,
	})

	agentOpts := agent.Options{
		Enabled:            true,
		CacheTTL:           time.Duration(cfg.CacheTTLSeconds) * time.Second,
		CacheSweepInterval: time.Duration(cfg.CacheSweepSeconds) * time.Second,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		UseNewsSearch:      cfg.UseNewsSearch,
		MaxNewsArticles:    cfg.MaxNewsArticles,
	}

	registry := agent.NewRegistry()
	registry.Register(agent.New(agent.NewCryptoStrategy(cfg.MinEdge, cfg.MinConfidence, prices), agentOpts, news, caps))
	registry.Register(agent.New(agent.NewPoliticsStrategy(cfg.MinEdge, cfg.MinConfidence), agentOpts, news, caps))
	registry.Register(agent.New(agent.NewSportsStrategy(cfg.MinEdge, cfg.MinConfidence), agentOpts, news, caps))
	defer registry.Close()

	requestQueue := queue.New(queue.Options{
		MaxConcurrent: cfg.QueueMaxConcurrent,
		Delay:         time.Duration(cfg.QueueDelayMs) * time.Millisecond,
		MaxRetries:    cfg.QueueMaxRetries,
		RetryBase:     time.Duration(cfg.QueueRetryBaseMs) * time.Millisecond,
	})

	filter, err := aifilter.New(completer, requestQueue, news, deep, aifilter.Config{
		MinEdge:           cfg.MinEdge,
		MinAttractiveness: cfg.MinAttractiveness,
		MaxRiskLevel:      models.RiskLevel(cfg.MaxRiskLevel),
		AllowedCategories: config.SplitList(cfg.AllowedCategories),
		DeniedCategories:  config.SplitList(cfg.DeniedCategories),
		UseNewsSearch:     cfg.UseNewsSearch,
		MaxNewsArticles:   cfg.MaxNewsArticles,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build AI filter")
	}

	var db *database.DB
	if cfg.DatabaseURL != "" {
		db, err = database.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()
	}

	markets := sampleMarkets()

	fmt.Printf("Analyzing %d markets\n\n", len(markets))
	for _, market := range markets {
		a := registry.AgentFor(market)
		if a == nil {
			fmt.Printf("[%s] no agent matches: %s\n\n", market.ID, market.Question)
			continue
		}

		rec := a.AnalyzeWithCache(ctx, market, nil)
		if rec == nil {
			fmt.Printf("[%s] %s: rejected (rate limited or disabled), try later\n\n", market.ID, a.Name())
			continue
		}

		fmt.Printf("[%s] %s\n", market.ID, market.Question)
		fmt.Printf("  agent: %s | action: %s | confidence: %.2f\n", rec.Agent, rec.Action, rec.Confidence)
		if rec.Edge != nil {
			fmt.Printf("  estimate: %.2f | edge: %+.3f\n", *rec.EstimatedProbability, *rec.Edge)
		}
		fmt.Printf("  reasoning: %s\n\n", rec.Reasoning)

		if db != nil {
			if err := db.SaveRecommendation(*rec); err != nil {
				log.Error().Err(err).Str("market", market.ID).Msg("Failed to save recommendation")
			}
		}
	}

	selected, err := filter.FilterMarkets(ctx, markets)
	if err != nil {
		log.Fatal().Err(err).Msg("Market filtering failed")
	}

	fmt.Printf("===== TRADE CANDIDATES (%d of %d) =====\n", len(selected), len(markets))
	for i, analysis := range selected {
		fmt.Printf("%d. [%s] %s\n", i+1, analysis.MarketID, analysis.Question)
		fmt.Printf("   action: %s | attractiveness: %.2f | risk: %s\n",
			analysis.RecommendedAction, analysis.Attractiveness, analysis.RiskLevel)
		fmt.Printf("   estimate: %.2f | edge: %+.3f | confidence: %.2f\n",
			analysis.EstimatedProbability, analysis.Edge, analysis.Confidence)

		if db != nil {
			if err := db.SaveAnalysis(analysis); err != nil {
				log.Error().Err(err).Str("market", analysis.MarketID).Msg("Failed to save analysis")
			}
		}
	}

	stats := requestQueue.Stats()
	fmt.Printf("\nQueue: queued=%d running=%d rate_limit_hits=%d\n",
		stats.Queued, stats.Running, stats.RateLimitHits)
	for _, desc := range registry.Describe() {
		fmt.Printf("Agent %s: enabled=%t keywords=%d cache_size=%d capabilities=%v\n",
			desc.Name, desc.Enabled, len(desc.Keywords), desc.CacheSize, desc.Capabilities)
	}
}

// sampleMarkets is the offline demo input. A real deployment feeds
// markets in from the market-data collaborator instead.
func sampleMarkets() []models.Market {
	in30 := time.Now().AddDate(0, 0, 30)
	in200 := time.Now().AddDate(0, 0, 200)

	return []models.Market{
		{
			ID:       "mkt-nba-final",
			Question: "Will the Celtics win the championship?",
			Tokens: []models.OutcomeToken{
				{Outcome: "Yes", Price: models.Float64(0.62)},
				{Outcome: "No", Price: models.Float64(0.38)},
			},
			Category:        "Sports",
			EndDate:         &in30,
			Active:          true,
			AcceptingOrders: true,
			Liquidity:       25000,
		},
		{
			ID:       "mkt-election",
			Question: "Will the incumbent win the presidential election?",
			Tokens: []models.OutcomeToken{
				{Outcome: "Yes", Price: models.Float64(0.48)},
				{Outcome: "No", Price: models.Float64(0.52)},
			},
			Category:        "Politics",
			EndDate:         &in200,
			Active:          true,
			AcceptingOrders: true,
			Liquidity:       120000,
		},
		{
			ID:       "mkt-btc-100k",
			Question: "Will Bitcoin reach $100k by year end?",
			Tokens: []models.OutcomeToken{
				{Outcome: "Yes", Price: models.Float64(0.41)},
				{Outcome: "No", Price: models.Float64(0.59)},
			},
			Category:        "Crypto",
			EndDate:         &in200,
			Active:          true,
			AcceptingOrders: true,
			Liquidity:       80000,
		},
		{
			ID:       "mkt-no-quote",
			Question: "Will the playoff series go to game 7?",
			Tokens: []models.OutcomeToken{
				{Outcome: "Yes"},
				{Outcome: "No"},
			},
			Category: "Sports",
			Active:   true,
		},
	}
}
