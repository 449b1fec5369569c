package agent

import (
	"fmt"

	"github.com/polyedge/polyedge/models"
)

// signal is one probability estimate with its combiner weight.
type signal struct {
	value  float64
	weight float64
}

// combineSignals returns the weighted mean of the given signals. Only
// the weights actually present contribute to the denominator, so a
// missing source never drags the estimate toward zero.
func combineSignals(signals []signal) float64 {
	var sum, weight float64
	for _, s := range signals {
		sum += s.value * s.weight
		weight += s.weight
	}
	if weight == 0 {
		return 0.5
	}
	return sum / weight
}

// extremePriceAdjustment applies the favorite/longshot correction at
// the price extremes. The bool reports whether it applied.
func extremePriceAdjustment(price float64, factors *[]string) (float64, bool) {
	if price > 0.9 {
		*factors = append(*factors, "Extreme favorite pricing: favorites often overvalued")
		return models.ClampProb(price * 0.95), true
	}
	if price < 0.1 {
		*factors = append(*factors, "Extreme longshot pricing: longshots often slightly undervalued")
		return models.ClampProb(price * 1.05), true
	}
	return price, false
}

// confidenceScore adds bonuses and penalties to a base confidence and
// clamps the result.
func confidenceScore(base float64, adjustments ...float64) float64 {
	score := base
	for _, adj := range adjustments {
		score += adj
	}
	return models.Clamp01(score)
}

// factorCountBonus rewards analyses that found concrete heuristic
// factors, capped so factor inflation cannot buy confidence.
func factorCountBonus(factors []string) float64 {
	n := len(factors)
	if n > 3 {
		n = 3
	}
	return 0.05 * float64(n)
}

// newsVolumeBonus rewards corroborating articles, capped at two.
func newsVolumeBonus(news []models.NewsItem) float64 {
	n := len(news)
	if n > 2 {
		n = 2
	}
	return 0.05 * float64(n)
}

// liquidityBonus rewards markets deep enough to act on.
func liquidityBonus(m models.Market) float64 {
	if m.Liquidity >= 10000 {
		return 0.05
	}
	return 0
}

// newsSources collects article URLs for the recommendation's sources.
func newsSources(news []models.NewsItem) []string {
	if len(news) == 0 {
		return nil
	}
	sources := make([]string, 0, len(news))
	for _, item := range news {
		if item.URL != "" {
			sources = append(sources, item.URL)
		}
	}
	return sources
}

func formatHeuristic(v float64) string {
	return fmt.Sprintf("%.4f", v)
}
