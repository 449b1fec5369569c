package agent

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/polyedge/polyedge/models"
)

var (
	assetKeywords = []string{
		"bitcoin", "btc", "ethereum", "eth", "solana", "sol", "xrp",
		"dogecoin", "doge", "cardano", "avalanche", "chainlink",
	}
	cryptoTopicKeywords = []string{
		"crypto", "token", "blockchain", "defi", "stablecoin", "altcoin",
		"halving", "etf approval", "memecoin", "airdrop", "staking",
	}
)

// assetTickers maps detected asset words to reference-data tickers.
var assetTickers = map[string]string{
	"bitcoin": "BTC", "btc": "BTC",
	"ethereum": "ETH", "eth": "ETH",
	"solana": "SOL", "sol": "SOL",
	"xrp":      "XRP",
	"dogecoin": "DOGE", "doge": "DOGE",
	"cardano":   "ADA",
	"avalanche": "AVAX",
	"chainlink": "LINK",
}

var targetPattern = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*([kKmM]?)`)

// CryptoEventInfo holds facts extracted from a crypto market's text.
type CryptoEventInfo struct {
	Asset       string // ticker, e.g. "BTC"
	TargetPrice *float64
	Direction   string // "above" or "below"
	Deadline    *time.Time
}

// CryptoStrategy owns the crypto-domain heuristics. It optionally
// consults a reference price source; lookups failing degrade to
// heuristics-only.
type CryptoStrategy struct {
	minEdge       float64
	minConfidence float64
	prices        models.PriceSource
}

// NewCryptoStrategy creates the crypto strategy. prices may be nil.
func NewCryptoStrategy(minEdge, minConfidence float64, prices models.PriceSource) *CryptoStrategy {
	return &CryptoStrategy{minEdge: minEdge, minConfidence: minConfidence, prices: prices}
}

func (c *CryptoStrategy) Category() string { return "crypto" }

func (c *CryptoStrategy) Keywords() []string {
	var kws []string
	kws = append(kws, assetKeywords...)
	kws = append(kws, cryptoTopicKeywords...)
	return kws
}

func extractCryptoEvent(m models.Market) CryptoEventInfo {
	text := strings.ToLower(m.Text())
	info := CryptoEventInfo{Deadline: m.EndDate}

	for _, word := range assetKeywords {
		if strings.Contains(text, word) {
			info.Asset = assetTickers[word]
			break
		}
	}

	if match := targetPattern.FindStringSubmatch(m.Text()); match != nil {
		raw := strings.ReplaceAll(match[1], ",", "")
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			switch strings.ToLower(match[2]) {
			case "k":
				v *= 1_000
			case "m":
				v *= 1_000_000
			}
			info.TargetPrice = &v
		}
	}

	switch {
	case containsAny(text, []string{"below", "under", "drop", "fall", "dip"}):
		info.Direction = "below"
	case containsAny(text, []string{"above", "reach", "hit", "exceed", "surpass", "cross"}):
		info.Direction = "above"
	case info.TargetPrice != nil:
		info.Direction = "above"
	}

	return info
}

// Analyze applies the crypto heuristics. When a live reference price
// and a numeric target are both known, the estimate comes from discrete
// distance-to-target bands; otherwise the price-extreme correction
// applies.
func (c *CryptoStrategy) Analyze(ctx context.Context, market models.Market, actx *models.AnalysisContext) (models.AgentRecommendation, error) {
	yes := market.YesPrice()
	if yes == nil {
		return skipNoPrice(c.Category(), market.ID), nil
	}
	price := *yes

	info := extractCryptoEvent(market)
	var factors []string
	if info.Asset != "" {
		factors = append(factors, fmt.Sprintf("Detected asset %s", info.Asset))
	}

	spot := actx.ReferencePrice
	if spot == nil && info.Asset != "" && c.prices != nil {
		if v, err := c.prices.SpotPrice(ctx, info.Asset); err != nil {
			log.Warn().Err(err).Str("asset", info.Asset).Msg("Reference price lookup failed, heuristics only")
		} else {
			spot = &v
		}
	}

	heuristic := price
	haveRef := spot != nil && info.TargetPrice != nil
	if haveRef {
		heuristic = targetBandProbability(*spot, *info.TargetPrice, info.Direction, &factors)
	} else {
		heuristic, _ = extremePriceAdjustment(price, &factors)
	}
	heuristic = models.ClampProb(heuristic)

	sentiment, sentimentFactor := NewsSentiment(actx.News)
	signals := []signal{
		{value: price, weight: 0.4},
		{value: heuristic, weight: 0.4},
	}
	if sentimentFactor != "" {
		signals = append(signals, signal{value: models.ClampProb(price + sentiment), weight: 0.2})
		factors = append(factors, sentimentFactor)
	}

	estimate := models.ClampProb(combineSignals(signals))
	edge := models.ClampEdge(estimate - price)

	var refBonus float64
	if haveRef {
		refBonus = 0.15
		factors = append(factors, fmt.Sprintf("Live reference price $%.2f", *spot))
	}
	var memePenalty float64
	if info.Asset == "DOGE" || strings.Contains(strings.ToLower(market.Text()), "memecoin") {
		memePenalty = -0.10 // sentiment-driven assets resist modeling
	}

	confidence := confidenceScore(0.35,
		factorCountBonus(factors),
		newsVolumeBonus(actx.News),
		liquidityBonus(market),
		refBonus,
		memePenalty,
	)

	rec := newRecommendation(c.Category(), market.ID)
	rec.Action = models.DecideAction(edge, confidence, c.minEdge, c.minConfidence)
	rec.Confidence = confidence
	rec.EstimatedProbability = models.Float64(estimate)
	rec.Edge = models.Float64(edge)
	rec.Sources = newsSources(actx.News)
	rec.Reasoning = strings.Join(append([]string{
		fmt.Sprintf("Market price %.2f", price),
		fmt.Sprintf("Heuristic estimate %.2f", heuristic),
	}, factors...), " | ")
	rec.Metadata = map[string]string{
		"asset":     info.Asset,
		"heuristic": formatHeuristic(heuristic),
	}
	return rec, nil
}

// targetBandProbability maps percent distance between the live price
// and the target into discrete probability bands.
func targetBandProbability(spot, target float64, direction string, factors *[]string) float64 {
	var dist float64
	if direction == "below" {
		dist = (spot - target) / spot
	} else {
		dist = (target - spot) / spot
	}

	switch {
	case dist <= 0:
		*factors = append(*factors, "Target already reached at current reference price")
		return 0.95
	case dist <= 0.05:
		*factors = append(*factors, fmt.Sprintf("Within 5%% of target (%.1f%% away)", dist*100))
		return 0.75
	case dist <= 0.15:
		*factors = append(*factors, fmt.Sprintf("Target %.1f%% away", dist*100))
		return 0.55
	case dist <= 0.30:
		*factors = append(*factors, fmt.Sprintf("Target %.1f%% away", dist*100))
		return 0.35
	case dist <= 0.50:
		*factors = append(*factors, fmt.Sprintf("Target %.1f%% away", dist*100))
		return 0.20
	default:
		*factors = append(*factors, fmt.Sprintf("Target more than 50%% away (%.1f%%)", dist*100))
		return 0.08
	}
}
