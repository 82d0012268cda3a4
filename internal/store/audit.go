// Package store provides the persistence backends: a SQLite audit
// store for transition assessments and strategy statistics, a Badger
// archive for full transcripts and a Redis snapshot store for sharing
// compact session state between hosts.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mindflow/mindflow/internal/models"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS transition_assessments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	stage TEXT NOT NULL,
	total_score REAL NOT NULL,
	threshold REAL NOT NULL,
	scores TEXT NOT NULL,
	weights TEXT NOT NULL,
	extra_conditions TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_assessments_session
	ON transition_assessments(session_id, created_at);

CREATE TABLE IF NOT EXISTS strategy_stats (
	session_id TEXT NOT NULL,
	technique TEXT NOT NULL,
	usage_count INTEGER NOT NULL,
	success_count INTEGER NOT NULL,
	average_quality REAL NOT NULL,
	emotional_impact REAL NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (session_id, technique)
);
`

// AuditStore persists transition assessments and the strategy
// effectiveness ledger in SQLite. It implements engine.AuditRecorder.
type AuditStore struct {
	db *sqlx.DB
}

// NewAuditStore opens (or creates) the audit database at path and
// applies the schema.
func NewAuditStore(path string) (*AuditStore, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	if _, err := db.Exec(auditSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying audit schema: %w", err)
	}

	return &AuditStore{db: db}, nil
}

// Close releases the database handle.
func (s *AuditStore) Close() error {
	return s.db.Close()
}

type assessmentRow struct {
	SessionID       string    `db:"session_id"`
	Stage           string    `db:"stage"`
	TotalScore      float64   `db:"total_score"`
	Threshold       float64   `db:"threshold"`
	Scores          string    `db:"scores"`
	Weights         string    `db:"weights"`
	ExtraConditions string    `db:"extra_conditions"`
	CreatedAt       time.Time `db:"created_at"`
}

// RecordAssessment appends one transition audit entry.
func (s *AuditStore) RecordAssessment(sessionID string, a models.TransitionAssessment) error {
	scores, err := json.Marshal(a.Scores)
	if err != nil {
		return fmt.Errorf("encoding scores: %w", err)
	}
	weights, err := json.Marshal(a.Weights)
	if err != nil {
		return fmt.Errorf("encoding weights: %w", err)
	}
	conditions, err := json.Marshal(a.ExtraConditions)
	if err != nil {
		return fmt.Errorf("encoding conditions: %w", err)
	}

	_, err = s.db.NamedExec(`
		INSERT INTO transition_assessments
			(session_id, stage, total_score, threshold, scores, weights, extra_conditions, created_at)
		VALUES
			(:session_id, :stage, :total_score, :threshold, :scores, :weights, :extra_conditions, :created_at)`,
		assessmentRow{
			SessionID:       sessionID,
			Stage:           string(a.Stage),
			TotalScore:      a.TotalScore,
			Threshold:       a.Threshold,
			Scores:          string(scores),
			Weights:         string(weights),
			ExtraConditions: string(conditions),
			CreatedAt:       a.Timestamp,
		})
	if err != nil {
		return fmt.Errorf("inserting assessment: %w", err)
	}
	return nil
}

// ListAssessments returns a session's audit entries in insertion order.
func (s *AuditStore) ListAssessments(sessionID string) ([]models.TransitionAssessment, error) {
	var rows []assessmentRow
	err := s.db.Select(&rows, `
		SELECT session_id, stage, total_score, threshold, scores, weights, extra_conditions, created_at
		FROM transition_assessments
		WHERE session_id = ?
		ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing assessments: %w", err)
	}

	out := make([]models.TransitionAssessment, 0, len(rows))
	for _, row := range rows {
		a := models.TransitionAssessment{
			Stage:      models.Stage(row.Stage),
			TotalScore: row.TotalScore,
			Threshold:  row.Threshold,
			Timestamp:  row.CreatedAt,
		}
		if err := json.Unmarshal([]byte(row.Scores), &a.Scores); err != nil {
			return nil, fmt.Errorf("decoding scores: %w", err)
		}
		if err := json.Unmarshal([]byte(row.Weights), &a.Weights); err != nil {
			return nil, fmt.Errorf("decoding weights: %w", err)
		}
		if err := json.Unmarshal([]byte(row.ExtraConditions), &a.ExtraConditions); err != nil {
			return nil, fmt.Errorf("decoding conditions: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}

// RecordStrategyStats upserts the running statistics for one technique.
func (s *AuditStore) RecordStrategyStats(sessionID, technique string, stats models.StrategyStats) error {
	_, err := s.db.Exec(`
		INSERT INTO strategy_stats
			(session_id, technique, usage_count, success_count, average_quality, emotional_impact, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, technique) DO UPDATE SET
			usage_count = excluded.usage_count,
			success_count = excluded.success_count,
			average_quality = excluded.average_quality,
			emotional_impact = excluded.emotional_impact,
			updated_at = excluded.updated_at`,
		sessionID, technique,
		stats.UsageCount, stats.SuccessCount,
		stats.AverageQuality, stats.EmotionalImpact,
		time.Now())
	if err != nil {
		return fmt.Errorf("upserting strategy stats: %w", err)
	}
	return nil
}

// StrategyStats returns the stored ledger for a session, keyed by
// technique name.
func (s *AuditStore) StrategyStats(sessionID string) (map[string]models.StrategyStats, error) {
	type statsRow struct {
		Technique       string  `db:"technique"`
		UsageCount      int     `db:"usage_count"`
		SuccessCount    int     `db:"success_count"`
		AverageQuality  float64 `db:"average_quality"`
		EmotionalImpact float64 `db:"emotional_impact"`
	}

	var rows []statsRow
	err := s.db.Select(&rows, `
		SELECT technique, usage_count, success_count, average_quality, emotional_impact
		FROM strategy_stats
		WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing strategy stats: %w", err)
	}

	out := make(map[string]models.StrategyStats, len(rows))
	for _, row := range rows {
		out[row.Technique] = models.StrategyStats{
			UsageCount:      row.UsageCount,
			SuccessCount:    row.SuccessCount,
			AverageQuality:  row.AverageQuality,
			EmotionalImpact: row.EmotionalImpact,
		}
	}
	return out, nil
}
