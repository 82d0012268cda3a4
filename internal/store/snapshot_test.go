package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mindflow/mindflow/internal/models"
)

func newTestSnapshotStore(t *testing.T) *SnapshotStore {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s, err := NewSnapshotStore(ctx, SnapshotConfig{Addr: "localhost:6379", TTL: time.Minute})
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSnapshotStoreRoundTrip(t *testing.T) {
	s := newTestSnapshotStore(t)
	ctx := context.Background()

	in := models.SessionSnapshot{
		SessionID: "snapshot-test-s1",
		Stage:     models.StageIntervention,
		Dimensions: models.AssessmentDimensions{
			ProblemSeverity:     0.6,
			ClientMotivation:    0.7,
			TherapeuticAlliance: 0.8,
			ProgressLevel:       0.5,
			RiskLevel:           0.2,
		},
		MessageCount: 12,
		UpdatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.Save(ctx, in))
	t.Cleanup(func() { s.Delete(ctx, in.SessionID) })

	got, found, err := s.Get(ctx, in.SessionID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, in.Stage, got.Stage)
	require.Equal(t, in.MessageCount, got.MessageCount)
	require.InDelta(t, in.Dimensions.TherapeuticAlliance, got.Dimensions.TherapeuticAlliance, 1e-9)
	require.Equal(t, in.UpdatedAt, got.UpdatedAt)
}

func TestSnapshotStoreMissingSession(t *testing.T) {
	s := newTestSnapshotStore(t)

	_, found, err := s.Get(context.Background(), "snapshot-test-missing")
	require.NoError(t, err)
	require.False(t, found)
}

func TestSnapshotStoreDelete(t *testing.T) {
	s := newTestSnapshotStore(t)
	ctx := context.Background()

	snap := models.SessionSnapshot{SessionID: "snapshot-test-del", Stage: models.StageInitial, UpdatedAt: time.Now()}
	require.NoError(t, s.Save(ctx, snap))
	require.NoError(t, s.Delete(ctx, snap.SessionID))

	_, found, err := s.Get(ctx, snap.SessionID)
	require.NoError(t, err)
	require.False(t, found)
}
