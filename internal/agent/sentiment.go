package agent

import (
	"fmt"
	"strings"

	"github.com/polyedge/polyedge/models"
)

const (
	sentimentStep = 0.02 // per keyword hit
	sentimentCap  = 0.25
)

var positiveSignals = []string{
	"approval", "approved", "wins", "victory", "surge", "rally",
	"record high", "breakthrough", "adoption", "bullish", "landslide",
	"confirmed", "succeeds", "upgrade", "momentum",
}

var negativeSignals = []string{
	"rejected", "rejection", "banned", "crash", "lawsuit", "fraud",
	"scandal", "resigns", "delayed", "bearish", "collapse", "hack",
	"investigation", "downgrade", "postponed",
}

// High-salience phrases carry extra fixed weight on top of keyword
// counting.
var salientPhrases = map[string]float64{
	"regulatory approval":  0.10,
	"regulatory rejection": -0.10,
	"regulatory ban":       -0.10,
}

// NewsSentiment derives a bounded probability adjustment from news
// items: keyword-counted positive vs. negative signal scaled by a small
// per-keyword weight, clamped to ±0.25. The factor string is empty when
// there is nothing to report.
func NewsSentiment(items []models.NewsItem) (float64, string) {
	if len(items) == 0 {
		return 0, ""
	}

	var sb strings.Builder
	for _, item := range items {
		sb.WriteString(item.Title)
		sb.WriteString(" ")
		sb.WriteString(item.Content)
		sb.WriteString(" ")
	}
	text := strings.ToLower(sb.String())

	var positive, negative int
	for _, kw := range positiveSignals {
		positive += strings.Count(text, kw)
	}
	for _, kw := range negativeSignals {
		negative += strings.Count(text, kw)
	}

	delta := float64(positive-negative) * sentimentStep
	for phrase, weight := range salientPhrases {
		if strings.Contains(text, phrase) {
			delta += weight
		}
	}

	if delta > sentimentCap {
		delta = sentimentCap
	}
	if delta < -sentimentCap {
		delta = -sentimentCap
	}

	factor := fmt.Sprintf("News sentiment %+.2f (%d positive, %d negative signals across %d articles)",
		delta, positive, negative, len(items))
	return delta, factor
}
