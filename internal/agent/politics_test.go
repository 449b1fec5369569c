package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/polyedge/polyedge/models"
)

func TestPoliticsAnalyzeNoPrice(t *testing.T) {
	p := NewPoliticsStrategy(0.05, 0.6)
	m := models.Market{
		ID:       "m1",
		Question: "Will the incumbent win the election?",
		Tokens:   []models.OutcomeToken{{Outcome: "Yes"}},
	}

	rec, err := p.Analyze(context.Background(), m, &models.AnalysisContext{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if rec.Action != models.ActionSkip || rec.Confidence != 0 {
		t.Errorf("got action=%s confidence=%.2f, want SKIP/0", rec.Action, rec.Confidence)
	}
}

func TestPoliticsDistantElection(t *testing.T) {
	p := NewPoliticsStrategy(0.05, 0.6)
	end := time.Now().Add(365 * 24 * time.Hour)
	m := testMarket("m1", "Will the incumbent president win the 2028 election?", 0.70)
	m.EndDate = &end

	rec, err := p.Analyze(context.Background(), m, &models.AnalysisContext{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	// 0.70 + (0.5-0.70)*0.20 = 0.66
	if got := rec.Metadata["heuristic"]; got != "0.6600" {
		t.Errorf("heuristic = %s, want 0.6600", got)
	}
	if !strings.Contains(rec.Reasoning, "Distant election") {
		t.Errorf("Reasoning = %q, want distant-election factor", rec.Reasoning)
	}
}

func TestPoliticsCourtPulledTowardEvenOdds(t *testing.T) {
	p := NewPoliticsStrategy(0.05, 0.6)
	m := testMarket("m1", "Will the Supreme Court ruling uphold the statute?", 0.80)

	rec, err := p.Analyze(context.Background(), m, &models.AnalysisContext{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	// 0.80 + (0.5-0.80)*0.25 = 0.725
	if got := rec.Metadata["heuristic"]; got != "0.7250" {
		t.Errorf("heuristic = %s, want 0.7250", got)
	}
	if rec.Metadata["event_type"] != "court" {
		t.Errorf("event_type = %s, want court", rec.Metadata["event_type"])
	}
}

func TestPoliticsInvariants(t *testing.T) {
	p := NewPoliticsStrategy(0.05, 0.6)
	end := time.Now().Add(20 * 24 * time.Hour)

	for _, price := range []float64{0.05, 0.30, 0.50, 0.75, 0.95} {
		m := testMarket("m", "Will the Senate pass the infrastructure bill?", price)
		m.EndDate = &end
		rec, err := p.Analyze(context.Background(), m, &models.AnalysisContext{
			News: []models.NewsItem{{Title: "Bill faces delayed vote after scandal"}},
		})
		if err != nil {
			t.Fatalf("Analyze(%v) error = %v", price, err)
		}
		assertRecommendationInvariants(t, rec, 0.05, 0.6)
	}
}

func TestExtractPoliticalEvent(t *testing.T) {
	tests := []struct {
		name      string
		question  string
		eventType string
	}{
		{"election", "Will the president win reelection?", "election"},
		{"court", "Will the Supreme Court ruling favor the plaintiff?", "court"},
		{"legislation", "Will parliament approve the referendum?", "legislation"},
		{"other", "Will the mayor resign this year?", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := extractPoliticalEvent(models.Market{Question: tt.question})
			if info.EventType != tt.eventType {
				t.Errorf("EventType = %q, want %q", info.EventType, tt.eventType)
			}
		})
	}
}
