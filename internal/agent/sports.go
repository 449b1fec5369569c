package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/polyedge/polyedge/models"
)

// Per-league keyword lists; Keywords() flattens them.
var (
	footballKeywords      = []string{"nfl", "super bowl", "touchdown", "quarterback"}
	basketballKeywords    = []string{"nba", "finals mvp", "playoff"}
	soccerKeywords        = []string{"premier league", "champions league", "world cup", "la liga", "uefa"}
	baseballKeywords      = []string{"mlb", "world series", "home run"}
	hockeyKeywords        = []string{"nhl", "stanley cup"}
	generalSportsKeywords = []string{
		"championship", "tournament", "match", "game 7", "season", "coach", "beat",
	}
)

var matchupPattern = regexp.MustCompile(`(?i)([A-Za-z0-9 .'-]+?)\s+(?:vs\.?|versus|@)\s+([A-Za-z0-9 .'-]+)`)

// SportEventInfo holds facts extracted from a sports market's text.
// Derived fresh per analysis, never persisted.
type SportEventInfo struct {
	EventType string // "playoff", "championship", "match", "other"
	League    string
	HomeTeam  string
	AwayTeam  string
	Deadline  *time.Time
}

// SportsStrategy owns the sports-domain heuristics.
type SportsStrategy struct {
	minEdge       float64
	minConfidence float64
}

// NewSportsStrategy creates the sports strategy with its action
// thresholds.
func NewSportsStrategy(minEdge, minConfidence float64) *SportsStrategy {
	return &SportsStrategy{minEdge: minEdge, minConfidence: minConfidence}
}

func (s *SportsStrategy) Category() string { return "sports" }

func (s *SportsStrategy) Keywords() []string {
	var kws []string
	kws = append(kws, footballKeywords...)
	kws = append(kws, basketballKeywords...)
	kws = append(kws, soccerKeywords...)
	kws = append(kws, baseballKeywords...)
	kws = append(kws, hockeyKeywords...)
	kws = append(kws, generalSportsKeywords...)
	return kws
}

func extractSportEvent(m models.Market) SportEventInfo {
	text := strings.ToLower(m.Text())
	info := SportEventInfo{EventType: "other", Deadline: m.EndDate}

	switch {
	case strings.Contains(text, "playoff") || strings.Contains(text, "game 7") ||
		strings.Contains(text, "wild card"):
		info.EventType = "playoff"
	case strings.Contains(text, "championship") || strings.Contains(text, "super bowl") ||
		strings.Contains(text, "world cup") || strings.Contains(text, "world series") ||
		strings.Contains(text, "stanley cup") || strings.Contains(text, "finals"):
		info.EventType = "championship"
	case strings.Contains(text, " vs") || strings.Contains(text, "match") ||
		strings.Contains(text, "beat"):
		info.EventType = "match"
	}

	for _, group := range [][]string{footballKeywords, basketballKeywords, soccerKeywords, baseballKeywords, hockeyKeywords} {
		for _, kw := range group {
			if strings.Contains(text, kw) {
				info.League = kw
				break
			}
		}
		if info.League != "" {
			break
		}
	}

	if m := matchupPattern.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
		info.HomeTeam = strings.TrimSpace(m[1])
		info.AwayTeam = strings.TrimSpace(m[2])
	}

	return info
}

// Analyze applies the sports heuristics: playoff events pull toward
// even odds, extreme prices get the favorite/longshot correction, and
// news sentiment nudges the result.
func (s *SportsStrategy) Analyze(ctx context.Context, market models.Market, actx *models.AnalysisContext) (models.AgentRecommendation, error) {
	yes := market.YesPrice()
	if yes == nil {
		return skipNoPrice(s.Category(), market.ID), nil
	}
	price := *yes

	info := extractSportEvent(market)
	var factors []string
	if info.League != "" {
		factors = append(factors, fmt.Sprintf("Detected %s market", info.League))
	}
	if info.HomeTeam != "" && info.AwayTeam != "" {
		factors = append(factors, fmt.Sprintf("Matchup %s vs %s", info.HomeTeam, info.AwayTeam))
	}

	heuristic, extreme := extremePriceAdjustment(price, &factors)
	if !extreme && info.EventType == "playoff" {
		// Single-elimination outcomes cluster near coin flips.
		heuristic = price + (0.5-price)*0.30
		factors = append(factors, "Playoff volatility pulls estimate toward even odds")
	}
	heuristic = models.ClampProb(heuristic)

	sentiment, sentimentFactor := NewsSentiment(actx.News)
	signals := []signal{
		{value: price, weight: 0.5},
		{value: heuristic, weight: 0.3},
	}
	if sentimentFactor != "" {
		signals = append(signals, signal{value: models.ClampProb(price + sentiment), weight: 0.2})
		factors = append(factors, sentimentFactor)
	}

	estimate := models.ClampProb(combineSignals(signals))
	edge := models.ClampEdge(estimate - price)

	var eventAdjustment float64
	switch info.EventType {
	case "playoff":
		eventAdjustment = -0.10 // inherently unpredictable
	case "championship":
		eventAdjustment = 0.05 // scheduled, heavily covered
	}

	confidence := confidenceScore(0.35,
		factorCountBonus(factors),
		newsVolumeBonus(actx.News),
		liquidityBonus(market),
		eventAdjustment,
	)

	rec := newRecommendation(s.Category(), market.ID)
	rec.Action = models.DecideAction(edge, confidence, s.minEdge, s.minConfidence)
	rec.Confidence = confidence
	rec.EstimatedProbability = models.Float64(estimate)
	rec.Edge = models.Float64(edge)
	rec.Sources = newsSources(actx.News)
	rec.Reasoning = strings.Join(append([]string{
		fmt.Sprintf("Market price %.2f", price),
		fmt.Sprintf("Heuristic estimate %.2f", heuristic),
	}, factors...), " | ")
	rec.Metadata = map[string]string{
		"event_type": info.EventType,
		"heuristic":  formatHeuristic(heuristic),
	}
	return rec, nil
}
