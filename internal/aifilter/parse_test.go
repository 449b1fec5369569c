package aifilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponsePlainJSON(t *testing.T) {
	raw := `{
		"shouldTrade": true,
		"attractiveness": 0.8,
		"riskLevel": "low",
		"riskFactors": ["thin orderbook"],
		"opportunities": ["mispriced favorite"],
		"estimatedProbability": 0.72,
		"confidence": 0.65,
		"recommendedAction": "BUY_YES",
		"reasoning": "Polls moved."
	}`

	resp := parseResponse(raw)
	require.NotNil(t, resp.ShouldTrade)
	assert.True(t, *resp.ShouldTrade)
	require.NotNil(t, resp.EstimatedProbability)
	assert.InDelta(t, 0.72, *resp.EstimatedProbability, 1e-9)
	require.NotNil(t, resp.Confidence)
	assert.InDelta(t, 0.65, *resp.Confidence, 1e-9)
	require.NotNil(t, resp.Attractiveness)
	assert.InDelta(t, 0.8, *resp.Attractiveness, 1e-9)
	assert.Equal(t, "low", resp.RiskLevel)
	assert.Equal(t, "BUY_YES", resp.RecommendedAction)
	assert.Equal(t, []string{"thin orderbook"}, resp.RiskFactors)
	assert.Equal(t, []string{"mispriced favorite"}, resp.Opportunities)
	assert.Equal(t, "Polls moved.", resp.Reasoning)
}

func TestParseResponseJSONEmbeddedInProse(t *testing.T) {
	raw := `Here is my analysis of the market.

{"estimatedProbability": 0.4, "riskLevel": "medium", "shouldTrade": false}

Let me know if you need more detail.`

	resp := parseResponse(raw)
	require.NotNil(t, resp.EstimatedProbability)
	assert.InDelta(t, 0.4, *resp.EstimatedProbability, 1e-9)
	assert.Equal(t, "medium", resp.RiskLevel)
	require.NotNil(t, resp.ShouldTrade)
	assert.False(t, *resp.ShouldTrade)
}

func TestParseResponseNumericAsString(t *testing.T) {
	raw := `{"estimatedProbability": "0.65", "confidence": "0.5", "shouldTrade": "true"}`

	resp := parseResponse(raw)
	require.NotNil(t, resp.EstimatedProbability)
	assert.InDelta(t, 0.65, *resp.EstimatedProbability, 1e-9)
	require.NotNil(t, resp.Confidence)
	assert.InDelta(t, 0.5, *resp.Confidence, 1e-9)
	require.NotNil(t, resp.ShouldTrade)
	assert.True(t, *resp.ShouldTrade)
}

func TestParseResponseSnakeCaseKeys(t *testing.T) {
	raw := `{"estimated_probability": 0.3, "risk_level": "high", "should_trade": true, "recommended_action": "BUY_NO"}`

	resp := parseResponse(raw)
	require.NotNil(t, resp.EstimatedProbability)
	assert.InDelta(t, 0.3, *resp.EstimatedProbability, 1e-9)
	assert.Equal(t, "high", resp.RiskLevel)
	assert.Equal(t, "BUY_NO", resp.RecommendedAction)
}

func TestParseResponseRegexFallback(t *testing.T) {
	raw := `I could not produce strict JSON, but here is my take:
shouldTrade: true
estimatedProbability: 0.58
confidence: 0.7
attractiveness: 0.62
riskLevel: medium
recommendedAction: BUY_YES`

	resp := parseResponse(raw)
	require.NotNil(t, resp.ShouldTrade)
	assert.True(t, *resp.ShouldTrade)
	require.NotNil(t, resp.EstimatedProbability)
	assert.InDelta(t, 0.58, *resp.EstimatedProbability, 1e-9)
	require.NotNil(t, resp.Confidence)
	assert.InDelta(t, 0.7, *resp.Confidence, 1e-9)
	require.NotNil(t, resp.Attractiveness)
	assert.InDelta(t, 0.62, *resp.Attractiveness, 1e-9)
	assert.Equal(t, "medium", resp.RiskLevel)
	assert.Equal(t, "BUY_YES", resp.RecommendedAction)
}

func TestParseResponseMalformedJSONFallsThrough(t *testing.T) {
	raw := `{"estimatedProbability": 0.9,,,} probability text estimatedProbability: 0.45`

	resp := parseResponse(raw)
	require.NotNil(t, resp.EstimatedProbability)
	// Malformed object is skipped; the regex pass recovers a value.
	assert.InDelta(t, 0.9, *resp.EstimatedProbability, 1e-9)
}

func TestParseResponseNothingParseable(t *testing.T) {
	resp := parseResponse("The market looks uncertain to me.")
	assert.Nil(t, resp.EstimatedProbability)
	assert.Nil(t, resp.ShouldTrade)
	assert.Nil(t, resp.Confidence)
	assert.Empty(t, resp.RiskLevel)
}

func TestExtractJSONObjectSkipsBracesInStrings(t *testing.T) {
	raw := `{"reasoning": "odds {implied} shifted", "estimatedProbability": 0.5}`

	obj := extractJSONObject(raw)
	require.NotNil(t, obj)
	assert.Equal(t, "odds {implied} shifted", obj["reasoning"])
}
