package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/polyedge/polyedge/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// New opens a PostgreSQL connection from a DSN and prepares the schema.
func New(dsn string) (*DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS agent_recommendations (
			id TEXT PRIMARY KEY,
			market_id TEXT NOT NULL,
			agent TEXT NOT NULL,
			action TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			reasoning TEXT,
			sources TEXT[],
			estimated_probability DOUBLE PRECISION,
			edge DOUBLE PRECISION,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS market_analyses (
			market_id TEXT NOT NULL,
			question TEXT NOT NULL,
			should_trade BOOLEAN NOT NULL,
			attractiveness DOUBLE PRECISION NOT NULL,
			risk_level TEXT NOT NULL,
			estimated_probability DOUBLE PRECISION NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			edge DOUBLE PRECISION NOT NULL,
			recommended_action TEXT NOT NULL,
			deep_searched BOOLEAN NOT NULL DEFAULT FALSE,
			analyzed_at TIMESTAMP NOT NULL,
			PRIMARY KEY (market_id, analyzed_at)
		)
	`)
	return err
}

// SaveRecommendation records one agent recommendation for auditing.
func (db *DB) SaveRecommendation(rec models.AgentRecommendation) error {
	_, err := db.Exec(`
		INSERT INTO agent_recommendations (
			id, market_id, agent, action, confidence, reasoning,
			sources, estimated_probability, edge, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`,
		rec.ID, rec.MarketID, rec.Agent, string(rec.Action), rec.Confidence, rec.Reasoning,
		pq.Array(rec.Sources), rec.EstimatedProbability, rec.Edge, rec.CreatedAt)

	return err
}

// SaveAnalysis records one AI-filter analysis for auditing.
func (db *DB) SaveAnalysis(analysis models.MarketAnalysis) error {
	_, err := db.Exec(`
		INSERT INTO market_analyses (
			market_id, question, should_trade, attractiveness, risk_level,
			estimated_probability, confidence, edge, recommended_action,
			deep_searched, analyzed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (market_id, analyzed_at) DO NOTHING
	`,
		analysis.MarketID, analysis.Question, analysis.ShouldTrade, analysis.Attractiveness,
		string(analysis.RiskLevel), analysis.EstimatedProbability, analysis.Confidence,
		analysis.Edge, string(analysis.RecommendedAction), analysis.DeepSearched, analysis.AnalyzedAt)

	return err
}

// RecentRecommendations returns the latest recommendations for a market,
// newest first.
func (db *DB) RecentRecommendations(marketID string, limit int) ([]models.AgentRecommendation, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(`
		SELECT
			id, market_id, agent, action, confidence, reasoning,
			sources, estimated_probability, edge, created_at
		FROM agent_recommendations
		WHERE market_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, marketID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.AgentRecommendation
	for rows.Next() {
		var rec models.AgentRecommendation
		var reasoning sql.NullString
		var estimate, edge sql.NullFloat64
		var sources pq.StringArray

		if err := rows.Scan(
			&rec.ID, &rec.MarketID, &rec.Agent, &rec.Action, &rec.Confidence, &reasoning,
			&sources, &estimate, &edge, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}

		if reasoning.Valid {
			rec.Reasoning = reasoning.String
		}
		if estimate.Valid {
			rec.EstimatedProbability = models.Float64(estimate.Float64)
		}
		if edge.Valid {
			rec.Edge = models.Float64(edge.Float64)
		}
		rec.Sources = []string(sources)

		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

// LastAnalysis returns the most recent analysis for a market, or nil
// when none exists.
func (db *DB) LastAnalysis(marketID string) (*models.MarketAnalysis, error) {
	var analysis models.MarketAnalysis
	var analyzedAt time.Time

	err := db.QueryRow(`
		SELECT
			market_id, question, should_trade, attractiveness, risk_level,
			estimated_probability, confidence, edge, recommended_action,
			deep_searched, analyzed_at
		FROM market_analyses
		WHERE market_id = $1
		ORDER BY analyzed_at DESC
		LIMIT 1
	`, marketID).Scan(
		&analysis.MarketID, &analysis.Question, &analysis.ShouldTrade, &analysis.Attractiveness,
		&analysis.RiskLevel, &analysis.EstimatedProbability, &analysis.Confidence,
		&analysis.Edge, &analysis.RecommendedAction, &analysis.DeepSearched, &analyzedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No analysis recorded
		}
		return nil, err
	}

	analysis.AnalyzedAt = analyzedAt
	return &analysis, nil
}
