package memory

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/reverie-ai/reverie/types"
)

// AutoManageTiers runs one promotion/demotion pass over all of an
// owner's records. A pass already running for the same owner causes a
// MAINTENANCE_CONFLICT error instead of double-applying thresholds;
// running the pass twice on unmodified data is idempotent.
func (s *TieredStore) AutoManageTiers(ownerID string) (types.MaintenanceReport, error) {
	gate := s.ownerGate(ownerID)
	if !gate.TryLock() {
		return types.MaintenanceReport{}, types.NewError(types.ErrCodeMaintenanceConflict,
			fmt.Sprintf("maintenance already running for owner %s", ownerID)).WithRetryable(true)
	}
	defer gate.Unlock()

	now := s.now()

	// Candidate selection under a read lock; mutations applied after.
	type move struct {
		id     string
		target types.MemoryTier
		up     bool
		reason string
	}
	var moves []move

	s.mu.RLock()
	for id, rec := range s.records[ownerID] {
		if next, ok := rec.Tier.Next(); ok && s.policy.promotionCandidate(rec, s.entered[id], now) {
			moves = append(moves, move{
				id:     id,
				target: next,
				up:     true,
				reason: fmt.Sprintf("age %s in tier, significance %.2f", now.Sub(s.entered[id]).Truncate(time.Second), rec.SignificanceScore),
			})
			continue
		}
		if s.policy.demotionCandidate(rec, now) {
			moves = append(moves, move{
				id:     id,
				target: types.TierShortTerm,
				up:     false,
				reason: fmt.Sprintf("idle since %s, significance %.2f below bar", rec.LastAccessedAt.Format("2006-01-02"), rec.SignificanceScore),
			})
		}
	}
	s.mu.RUnlock()

	var report types.MaintenanceReport
	s.mu.Lock()
	for _, m := range moves {
		var err error
		if m.up {
			err = s.promoteLocked(ownerID, m.id, m.target, m.reason)
		} else {
			err = s.demoteLocked(ownerID, m.id, m.target, m.reason)
		}
		if err != nil {
			// Record changed or vanished between selection and apply.
			s.logger.Warn("tier move skipped",
				zap.String("id", m.id),
				zap.Error(err))
			continue
		}
		if m.up {
			report.Promoted++
		} else {
			report.Demoted++
		}
	}
	s.mu.Unlock()

	s.logger.Info("tier maintenance pass",
		zap.String("owner_id", ownerID),
		zap.Int("promoted", report.Promoted),
		zap.Int("demoted", report.Demoted))
	return report, nil
}

// ApplyDecay reduces the decay score of all unprotected records by a
// rate-weighted amount and removes those crossing the removal floor.
// Protected records are skipped entirely, regardless of score. A rate
// of 0 uses the policy default.
func (s *TieredStore) ApplyDecay(ownerID string, rate float64) (types.DecayReport, error) {
	gate := s.ownerGate(ownerID)
	if !gate.TryLock() {
		return types.DecayReport{}, types.NewError(types.ErrCodeMaintenanceConflict,
			fmt.Sprintf("maintenance already running for owner %s", ownerID)).WithRetryable(true)
	}
	defer gate.Unlock()

	var report types.DecayReport

	s.mu.Lock()
	for id, rec := range s.records[ownerID] {
		if rec.Protected {
			continue
		}
		report.Processed++
		rec.DecayScore -= s.policy.decayDelta(rec, rate)
		if rec.DecayScore < s.policy.RemovalFloor {
			delete(s.records[ownerID], id)
			delete(s.entered, id)
			report.Removed++
			s.logger.Info("memory removed by decay",
				zap.String("id", id),
				zap.String("owner_id", ownerID),
				zap.Float64("decay_score", rec.DecayScore))
		}
	}
	s.mu.Unlock()

	if s.observer != nil && report.Removed > 0 {
		s.observer.DecayRemoval(report.Removed)
	}

	s.logger.Info("decay pass",
		zap.String("owner_id", ownerID),
		zap.Int("processed", report.Processed),
		zap.Int("removed", report.Removed))
	return report, nil
}

// DecayCandidates returns a snapshot of the owner's unprotected records
// whose decay score is below the threshold, lowest first. Read-only:
// no state is mutated, so it is safe to inspect before committing a
// decay pass.
func (s *TieredStore) DecayCandidates(ownerID string, threshold float64) []*types.MemoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.MemoryRecord, 0)
	for _, rec := range s.records[ownerID] {
		if rec.Protected {
			continue
		}
		if rec.DecayScore < threshold {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DecayScore < out[j].DecayScore
	})
	return out
}
