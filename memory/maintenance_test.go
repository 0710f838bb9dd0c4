package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reverie-ai/reverie/types"
)

func TestAutoManageTiers_PromotesAgedSignificantRecord(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestStore(t, &now)
	storeRecord(t, s, "user-1", "keeper", 0.9)
	storeRecord(t, s, "user-1", "shallow", 0.2)

	// 40 days later the aged significant record qualifies; the shallow
	// one misses the significance bar and the late one misses the age bar.
	now = now.Add(40 * 24 * time.Hour)
	late := &types.MemoryRecord{ID: "late", OwnerID: "user-1", SignificanceScore: 0.9, DecayScore: 0.9}
	require.NoError(t, s.Store(late))

	report, err := s.AutoManageTiers("user-1")
	require.NoError(t, err)
	require.Equal(t, 1, report.Promoted)
	require.Equal(t, 0, report.Demoted)

	rec, err := s.Get("user-1", "keeper")
	require.NoError(t, err)
	require.Equal(t, types.TierMediumTerm, rec.Tier)

	late, err = s.Get("user-1", "late")
	require.NoError(t, err)
	require.Equal(t, types.TierShortTerm, late.Tier)
}

func TestAutoManageTiers_Idempotent(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestStore(t, &now)
	storeRecord(t, s, "user-1", "r1", 0.9)

	now = now.Add(40 * 24 * time.Hour)

	first, err := s.AutoManageTiers("user-1")
	require.NoError(t, err)
	require.Equal(t, 1, first.Promoted)

	// Promotion reset the tier entry time, so an immediate second pass
	// must not move anything.
	second, err := s.AutoManageTiers("user-1")
	require.NoError(t, err)
	require.Equal(t, 0, second.Promoted)
	require.Equal(t, 0, second.Demoted)
}

func TestAutoManageTiers_DemotesIdleInsignificantRecord(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestStore(t, &now)
	storeRecord(t, s, "user-1", "r1", 0.2)
	require.NoError(t, s.Promote("user-1", "r1", types.TierMediumTerm, "seed"))

	now = now.Add(20 * 24 * time.Hour)

	report, err := s.AutoManageTiers("user-1")
	require.NoError(t, err)
	require.Equal(t, 1, report.Demoted)

	rec, err := s.Get("user-1", "r1")
	require.NoError(t, err)
	require.Equal(t, types.TierShortTerm, rec.Tier)
}

func TestAutoManageTiers_ConflictWhenPassRunning(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestStore(t, &now)
	storeRecord(t, s, "user-1", "r1", 0.5)

	gate := s.ownerGate("user-1")
	gate.Lock()
	defer gate.Unlock()

	_, err := s.AutoManageTiers("user-1")
	require.Error(t, err)
	require.Equal(t, types.ErrCodeMaintenanceConflict, types.GetErrorCode(err))
	require.True(t, types.IsRetryable(err))

	_, err = s.ApplyDecay("user-1", 0)
	require.Error(t, err)
	require.Equal(t, types.ErrCodeMaintenanceConflict, types.GetErrorCode(err))

	// A different owner is not serialized behind user-1.
	storeRecord(t, s, "user-2", "r2", 0.5)
	_, err = s.AutoManageTiers("user-2")
	require.NoError(t, err)
}

func TestApplyDecay_RemovesBelowFloorSkipsProtected(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestStore(t, &now)

	storeRecord(t, s, "user-1", "doomed", 0.05)
	storeRecord(t, s, "user-1", "guarded", 0.05)
	require.NoError(t, s.Protect("user-1", "guarded", "user request"))
	storeRecord(t, s, "user-1", "healthy", 0.9)

	report, err := s.ApplyDecay("user-1", 0.5)
	require.NoError(t, err)
	require.Equal(t, 2, report.Processed) // protected record not processed
	require.Equal(t, 1, report.Removed)

	_, err = s.Get("user-1", "doomed")
	require.Error(t, err)
	require.Equal(t, types.ErrCodeRecordNotFound, types.GetErrorCode(err))

	// Protected record untouched, score included.
	rec, err := s.Get("user-1", "guarded")
	require.NoError(t, err)
	require.InDelta(t, 0.05, rec.DecayScore, 1e-9)

	// High significance decays slowly and survives.
	rec, err = s.Get("user-1", "healthy")
	require.NoError(t, err)
	require.Greater(t, rec.DecayScore, 0.8)
}

func TestDecayCandidates_ThresholdAndOrder(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestStore(t, &now)

	// A day-old record with low significance is already a candidate; a
	// high-significance record of any age is not.
	storeRecord(t, s, "user-1", "trivial", 0.1)
	storeRecord(t, s, "user-1", "cherished", 0.9)
	storeRecord(t, s, "user-1", "mid", 0.15)
	now = now.Add(24 * time.Hour)

	candidates := s.DecayCandidates("user-1", 0.2)
	require.Len(t, candidates, 2)
	require.Equal(t, "trivial", candidates[0].ID)
	require.Equal(t, "mid", candidates[1].ID)

	// Read-only: calling it twice yields the same result.
	again := s.DecayCandidates("user-1", 0.2)
	require.Len(t, again, 2)

	// Protection removes a record from candidacy.
	require.NoError(t, s.Protect("user-1", "trivial", "user request"))
	require.Len(t, s.DecayCandidates("user-1", 0.2), 1)
}
