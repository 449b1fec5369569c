package aifilter

import (
	"fmt"
	"strings"
	"time"

	"github.com/polyedge/polyedge/models"
)

const responseFormat = `Respond with a JSON object using exactly these fields:
{
  "shouldTrade": true|false,
  "attractiveness": 0.0-1.0,
  "riskLevel": "low"|"medium"|"high",
  "riskFactors": ["..."],
  "opportunities": ["..."],
  "estimatedProbability": 0.0-1.0,
  "confidence": 0.0-1.0,
  "recommendedAction": "BUY_YES"|"BUY_NO"|"AVOID",
  "reasoning": "..."
}
The estimatedProbability field is MANDATORY: always include your numeric
probability that the market resolves YES, even when recommending AVOID.`

// buildPrompt renders the market and any gathered enrichment into the
// structured prompt sent to the estimator.
func buildPrompt(market models.Market, news []models.NewsItem, deepDigest string, now time.Time) string {
	var sb strings.Builder

	sb.WriteString("Analyze this prediction market and estimate the probability of a YES resolution.\n\n")
	sb.WriteString(fmt.Sprintf("Question: %s\n", market.Question))
	if market.Description != "" {
		sb.WriteString(fmt.Sprintf("Description: %s\n", market.Description))
	}

	if yes := market.YesPrice(); yes != nil {
		sb.WriteString(fmt.Sprintf("Current YES price: %.3f\n", *yes))
	} else {
		sb.WriteString("Current YES price: unavailable\n")
	}
	if no := market.NoPrice(); no != nil {
		sb.WriteString(fmt.Sprintf("Current NO price: %.3f\n", *no))
	}

	sb.WriteString(fmt.Sprintf("Active: %t | Accepting orders: %t | Negative risk: %t\n",
		market.Active, market.AcceptingOrders, market.NegRisk))
	if days := market.DaysToResolution(now); days >= 0 {
		sb.WriteString(fmt.Sprintf("Days to resolution: %d\n", days))
	}
	if market.Category != "" {
		sb.WriteString(fmt.Sprintf("Category: %s\n", market.Category))
	}
	if len(market.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("Tags: %s\n", strings.Join(market.Tags, ", ")))
	}
	if market.Liquidity > 0 {
		sb.WriteString(fmt.Sprintf("Liquidity: %.0f\n", market.Liquidity))
	}

	if len(news) > 0 {
		sb.WriteString("\nRecent news:\n")
		for i, item := range news {
			sb.WriteString(fmt.Sprintf("%d. %s", i+1, item.Title))
			if item.Source != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", item.Source))
			}
			sb.WriteString("\n")
			if item.Content != "" {
				sb.WriteString(fmt.Sprintf("   %s\n", truncate(item.Content, 300)))
			}
		}
	}

	if deepDigest != "" {
		sb.WriteString("\nResearch digest:\n")
		sb.WriteString(truncate(deepDigest, 2000))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(responseFormat)
	return sb.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
