package aifilter

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// response holds the fields recovered from the upstream estimator's
// text. Pointers distinguish "absent" from zero values; absence of the
// probability in particular triggers the price fallback.
type response struct {
	ShouldTrade          *bool
	Attractiveness       *float64
	RiskLevel            string
	RiskFactors          []string
	Opportunities        []string
	EstimatedProbability *float64
	Confidence           *float64
	RecommendedAction    string
	Reasoning            string
}

var (
	probPattern    = regexp.MustCompile(`(?i)"?estimated_?probability"?\s*[:=]\s*"?([0-9]*\.?[0-9]+)`)
	confPattern    = regexp.MustCompile(`(?i)"?confidence"?\s*[:=]\s*"?([0-9]*\.?[0-9]+)`)
	attractPattern = regexp.MustCompile(`(?i)"?attractiveness"?\s*[:=]\s*"?([0-9]*\.?[0-9]+)`)
	shouldPattern  = regexp.MustCompile(`(?i)"?should_?trade"?\s*[:=]\s*"?(true|false)`)
	riskPattern    = regexp.MustCompile(`(?i)"?risk_?level"?\s*[:=]\s*"?(low|medium|high)`)
	actionPattern  = regexp.MustCompile(`(?i)"?recommended_?action"?\s*[:=]\s*"?(BUY_YES|BUY_NO|AVOID)`)
)

// parseResponse recovers structured fields from the estimator's text:
// first a balanced JSON object anywhere in the text, then a regex pass
// over the raw text for whatever the JSON path missed.
func parseResponse(raw string) response {
	var resp response
	if obj := extractJSONObject(raw); obj != nil {
		fillFromJSON(&resp, obj)
	}
	fillFromText(&resp, raw)
	return resp
}

// extractJSONObject finds the first balanced top-level {...} in text and
// unmarshals it. Returns nil when no parseable object exists.
func extractJSONObject(text string) map[string]any {
	start := strings.IndexByte(text, '{')
	for start >= 0 {
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(text); i++ {
			c := text[i]
			switch {
			case escaped:
				escaped = false
			case c == '\\' && inString:
				escaped = true
			case c == '"':
				inString = !inString
			case inString:
			case c == '{':
				depth++
			case c == '}':
				depth--
				if depth == 0 {
					var obj map[string]any
					if err := json.Unmarshal([]byte(text[start:i+1]), &obj); err == nil {
						return obj
					}
					i = len(text) // malformed candidate, try the next '{'
				}
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			return nil
		}
		start += 1 + next
	}
	return nil
}

func fillFromJSON(resp *response, obj map[string]any) {
	if v, ok := lookupBool(obj, "shouldTrade", "should_trade"); ok {
		resp.ShouldTrade = &v
	}
	if v, ok := lookupFloat(obj, "attractiveness"); ok {
		resp.Attractiveness = &v
	}
	if v, ok := lookupFloat(obj, "estimatedProbability", "estimated_probability", "probability"); ok {
		resp.EstimatedProbability = &v
	}
	if v, ok := lookupFloat(obj, "confidence"); ok {
		resp.Confidence = &v
	}
	if v, ok := lookupString(obj, "riskLevel", "risk_level"); ok {
		resp.RiskLevel = strings.ToLower(v)
	}
	if v, ok := lookupString(obj, "recommendedAction", "recommended_action"); ok {
		resp.RecommendedAction = strings.ToUpper(v)
	}
	if v, ok := lookupString(obj, "reasoning"); ok {
		resp.Reasoning = v
	}
	resp.RiskFactors = lookupStrings(obj, "riskFactors", "risk_factors")
	resp.Opportunities = lookupStrings(obj, "opportunities")
}

// fillFromText backfills still-missing fields from free text. Runs after
// the JSON pass so prose around a valid object never overrides it.
func fillFromText(resp *response, text string) {
	if resp.ShouldTrade == nil {
		if m := shouldPattern.FindStringSubmatch(text); m != nil {
			v := strings.EqualFold(m[1], "true")
			resp.ShouldTrade = &v
		}
	}
	if resp.EstimatedProbability == nil {
		if m := probPattern.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				resp.EstimatedProbability = &v
			}
		}
	}
	if resp.Confidence == nil {
		if m := confPattern.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				resp.Confidence = &v
			}
		}
	}
	if resp.Attractiveness == nil {
		if m := attractPattern.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				resp.Attractiveness = &v
			}
		}
	}
	if resp.RiskLevel == "" {
		if m := riskPattern.FindStringSubmatch(text); m != nil {
			resp.RiskLevel = strings.ToLower(m[1])
		}
	}
	if resp.RecommendedAction == "" {
		if m := actionPattern.FindStringSubmatch(text); m != nil {
			resp.RecommendedAction = strings.ToUpper(m[1])
		}
	}
}

// lookupFloat coerces numeric and numeric-as-string values.
func lookupFloat(obj map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case float64:
			return v, true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, true
			}
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func lookupBool(obj map[string]any, keys ...string) (bool, bool) {
	for _, key := range keys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case bool:
			return v, true
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "yes":
				return true, true
			case "false", "no":
				return false, true
			}
		}
	}
	return false, false
}

func lookupString(obj map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := obj[key].(string); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func lookupStrings(obj map[string]any, keys ...string) []string {
	for _, key := range keys {
		raw, ok := obj[key].([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(raw))
		for _, item := range raw {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
