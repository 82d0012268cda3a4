package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/mindflow/mindflow/internal/models"
)

// SnapshotConfig holds Redis connection settings for the snapshot store.
type SnapshotConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// DefaultSnapshotConfig returns local-development defaults.
func DefaultSnapshotConfig() SnapshotConfig {
	return SnapshotConfig{
		Addr: "localhost:6379",
		TTL:  24 * time.Hour,
	}
}

// SnapshotStore shares compact per-session state between hosts through
// Redis hashes. Entries expire after the configured TTL.
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotStore connects to Redis and verifies the connection.
func NewSnapshotStore(ctx context.Context, cfg SnapshotConfig) (*SnapshotStore, error) {
	if cfg.Addr == "" {
		cfg = DefaultSnapshotConfig()
	}
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to snapshot store: %w", err)
	}

	return &SnapshotStore{client: client, ttl: cfg.TTL}, nil
}

// Close releases the Redis connection.
func (s *SnapshotStore) Close() error {
	return s.client.Close()
}

func snapshotKey(sessionID string) string {
	return "session:snapshot:" + sessionID
}

// Save writes a session snapshot and refreshes its TTL.
func (s *SnapshotStore) Save(ctx context.Context, snap models.SessionSnapshot) error {
	key := snapshotKey(snap.SessionID)

	fields := map[string]interface{}{
		"stage":                string(snap.Stage),
		"problem_severity":     snap.Dimensions.ProblemSeverity,
		"client_motivation":    snap.Dimensions.ClientMotivation,
		"therapeutic_alliance": snap.Dimensions.TherapeuticAlliance,
		"progress_level":       snap.Dimensions.ProgressLevel,
		"risk_level":           snap.Dimensions.RiskLevel,
		"message_count":        snap.MessageCount,
		"updated_at":           snap.UpdatedAt.Format(time.RFC3339),
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// Get loads a session snapshot. A missing session yields found=false.
func (s *SnapshotStore) Get(ctx context.Context, sessionID string) (models.SessionSnapshot, bool, error) {
	fields, err := s.client.HGetAll(ctx, snapshotKey(sessionID)).Result()
	if err != nil {
		return models.SessionSnapshot{}, false, fmt.Errorf("loading snapshot: %w", err)
	}
	if len(fields) == 0 {
		return models.SessionSnapshot{}, false, nil
	}

	snap := models.SessionSnapshot{
		SessionID: sessionID,
		Stage:     models.Stage(fields["stage"]),
	}
	snap.Dimensions.ProblemSeverity = parseFloatField(fields, "problem_severity")
	snap.Dimensions.ClientMotivation = parseFloatField(fields, "client_motivation")
	snap.Dimensions.TherapeuticAlliance = parseFloatField(fields, "therapeutic_alliance")
	snap.Dimensions.ProgressLevel = parseFloatField(fields, "progress_level")
	snap.Dimensions.RiskLevel = parseFloatField(fields, "risk_level")
	if v, err := strconv.Atoi(fields["message_count"]); err == nil {
		snap.MessageCount = v
	}
	if t, err := time.Parse(time.RFC3339, fields["updated_at"]); err == nil {
		snap.UpdatedAt = t
	}
	return snap, true, nil
}

// Delete removes a session snapshot.
func (s *SnapshotStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, snapshotKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}

func parseFloatField(fields map[string]string, name string) float64 {
	v, err := strconv.ParseFloat(fields[name], 64)
	if err != nil {
		return 0
	}
	return v
}
