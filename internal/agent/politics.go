package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/polyedge/polyedge/models"
)

var (
	electionKeywords = []string{
		"election", "president", "presidential", "senate", "congress",
		"governor", "ballot", "primary", "electoral", "candidate",
	}
	policyKeywords = []string{
		"legislation", "bill pass", "executive order", "veto", "impeach",
		"referendum", "cabinet", "nominee",
	}
	courtKeywords = []string{
		"supreme court", "ruling", "indictment", "conviction",
	}
	generalPoliticsKeywords = []string{
		"poll", "approval rating", "parliament", "prime minister", "coalition",
	}
)

// PoliticalEventInfo holds facts extracted from a politics market.
type PoliticalEventInfo struct {
	EventType string // "election", "court", "legislation", "other"
	Subject   string
	Deadline  *time.Time
}

// PoliticsStrategy owns the politics-domain heuristics.
type PoliticsStrategy struct {
	minEdge       float64
	minConfidence float64
}

// NewPoliticsStrategy creates the politics strategy with its action
// thresholds.
func NewPoliticsStrategy(minEdge, minConfidence float64) *PoliticsStrategy {
	return &PoliticsStrategy{minEdge: minEdge, minConfidence: minConfidence}
}

func (p *PoliticsStrategy) Category() string { return "politics" }

func (p *PoliticsStrategy) Keywords() []string {
	var kws []string
	kws = append(kws, electionKeywords...)
	kws = append(kws, policyKeywords...)
	kws = append(kws, courtKeywords...)
	kws = append(kws, generalPoliticsKeywords...)
	return kws
}

func extractPoliticalEvent(m models.Market) PoliticalEventInfo {
	text := strings.ToLower(m.Text())
	info := PoliticalEventInfo{EventType: "other", Deadline: m.EndDate}

	switch {
	case containsAny(text, courtKeywords):
		info.EventType = "court"
	case containsAny(text, electionKeywords):
		info.EventType = "election"
	case containsAny(text, policyKeywords):
		info.EventType = "legislation"
	}

	// The leading capitalized phrase is usually the subject.
	words := strings.Fields(m.Question)
	var subject []string
	for _, w := range words {
		if len(w) > 0 && w[0] >= 'A' && w[0] <= 'Z' && !strings.EqualFold(w, "will") {
			subject = append(subject, strings.Trim(w, "?,."))
			if len(subject) == 3 {
				break
			}
		} else if len(subject) > 0 {
			break
		}
	}
	info.Subject = strings.Join(subject, " ")

	return info
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Analyze applies the politics heuristics: distant elections drift
// toward even odds, court outcomes are treated as near coin flips, and
// scheduled votes trust the market more.
func (p *PoliticsStrategy) Analyze(ctx context.Context, market models.Market, actx *models.AnalysisContext) (models.AgentRecommendation, error) {
	yes := market.YesPrice()
	if yes == nil {
		return skipNoPrice(p.Category(), market.ID), nil
	}
	price := *yes

	info := extractPoliticalEvent(market)
	var factors []string
	if info.Subject != "" {
		factors = append(factors, fmt.Sprintf("Subject: %s", info.Subject))
	}

	days := market.DaysToResolution(time.Now())

	heuristic, extreme := extremePriceAdjustment(price, &factors)
	if !extreme {
		switch info.EventType {
		case "court":
			heuristic = price + (0.5-price)*0.25
			factors = append(factors, "Court outcomes resist polling, estimate pulled toward even odds")
		case "election":
			if days > 180 {
				heuristic = price + (0.5-price)*0.20
				factors = append(factors, "Distant election, polls still unstable")
			} else if days >= 0 && days <= 30 {
				factors = append(factors, "Election within 30 days, market pricing trusted")
			}
		case "legislation":
			if days >= 0 && days < 90 {
				heuristic = price * 0.90
				factors = append(factors, "Legislative timelines usually slip")
			}
		}
	}
	heuristic = models.ClampProb(heuristic)

	sentiment, sentimentFactor := NewsSentiment(actx.News)
	signals := []signal{
		{value: price, weight: 0.45},
		{value: heuristic, weight: 0.35},
	}
	if sentimentFactor != "" {
		signals = append(signals, signal{value: models.ClampProb(price + sentiment), weight: 0.2})
		factors = append(factors, sentimentFactor)
	}

	estimate := models.ClampProb(combineSignals(signals))
	edge := models.ClampEdge(estimate - price)

	var eventAdjustment float64
	switch info.EventType {
	case "election":
		eventAdjustment = 0.10 // scheduled, heavily polled
	case "court":
		eventAdjustment = -0.10
	}

	confidence := confidenceScore(0.35,
		factorCountBonus(factors),
		newsVolumeBonus(actx.News),
		liquidityBonus(market),
		eventAdjustment,
	)

	rec := newRecommendation(p.Category(), market.ID)
	rec.Action = models.DecideAction(edge, confidence, p.minEdge, p.minConfidence)
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
