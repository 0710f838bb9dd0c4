package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reverie-ai/reverie/storage"
	"github.com/reverie-ai/reverie/types"
)

// TierObserver receives tier lifecycle notifications. Implemented by
// the metrics collector; a nil observer disables reporting.
type TierObserver interface {
	TierTransition(from, to types.MemoryTier, reason string)
	DecayRemoval(count int)
}

// TieredStore owns the memory record lifecycle: tier placement,
// promotion, demotion, decay scoring, and decay protection. All
// dependencies are constructor-injected; the process entry point owns
// the lifecycle.
type TieredStore struct {
	policy   TierPolicy
	embedder storage.Embedder
	observer TierObserver
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.RWMutex
	records map[string]map[string]*types.MemoryRecord // owner -> id -> record
	entered map[string]time.Time                      // record id -> current tier entry time

	gateMu sync.Mutex
	gates  map[string]*sync.Mutex // owner -> maintenance gate
}

// Option configures a TieredStore.
type Option func(*TieredStore)

// WithEmbedder sets the embedder used for ingestion and semantic search.
func WithEmbedder(e storage.Embedder) Option {
	return func(s *TieredStore) { s.embedder = e }
}

// WithObserver sets the tier lifecycle observer.
func WithObserver(o TierObserver) Option {
	return func(s *TieredStore) { s.observer = o }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *TieredStore) { s.now = now }
}

// NewTieredStore creates a tiered memory store with the given policy.
func NewTieredStore(policy TierPolicy, logger *zap.Logger, opts ...Option) *TieredStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &TieredStore{
		policy:  policy,
		logger:  logger.With(zap.String("component", "tiered_store")),
		now:     time.Now,
		records: make(map[string]map[string]*types.MemoryRecord),
		entered: make(map[string]time.Time),
		gates:   make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest creates a record from a conversation turn at SHORT_TERM,
// computing significance at creation time. When an embedder is
// configured the content vector space is populated; callers may pass
// additional named vectors produced by specialized embedding stages.
func (s *TieredStore) Ingest(ctx context.Context, ownerID, content string, extraVectors map[string][]float32) (*types.MemoryRecord, error) {
	now := s.now()
	rec := &types.MemoryRecord{
		ID:                uuid.NewString(),
		OwnerID:           ownerID,
		Content:           content,
		NamedVectors:      make(map[string][]float32, len(extraVectors)+1),
		Tier:              types.TierShortTerm,
		SignificanceScore: SignificanceOf(content),
		CreatedAt:         now,
		LastAccessedAt:    now,
	}
	rec.DecayScore = rec.SignificanceScore

	if s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, content)
		if err != nil {
			return nil, types.NewError(types.ErrCodeBackendUnavailable, "embed content").WithCause(err)
		}
		rec.NamedVectors[types.SpaceContent] = vec
	}
	for space, vec := range extraVectors {
		rec.NamedVectors[space] = append([]float32(nil), vec...)
	}

	if err := s.Store(rec); err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// Store inserts a record at SHORT_TERM. Records arriving with another
// tier set are rejected; tier moves go through Promote/Demote.
func (s *TieredStore) Store(rec *types.MemoryRecord) error {
	if rec == nil || rec.ID == "" || rec.OwnerID == "" {
		return types.NewError(types.ErrCodeInvalidArguments, "record must carry id and owner")
	}
	if rec.Tier == "" {
		rec.Tier = types.TierShortTerm
	}
	if rec.Tier != types.TierShortTerm {
		return types.NewError(types.ErrCodeInvalidTransition,
			fmt.Sprintf("records are ingested at %s, got %s", types.TierShortTerm, rec.Tier))
	}

	now := s.now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.LastAccessedAt.IsZero() {
		rec.LastAccessedAt = rec.CreatedAt
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.OwnerID][rec.ID]; exists {
		return types.NewError(types.ErrCodeInvalidArguments, fmt.Sprintf("record %s already stored", rec.ID))
	}
	if s.records[rec.OwnerID] == nil {
		s.records[rec.OwnerID] = make(map[string]*types.MemoryRecord)
	}
	s.records[rec.OwnerID][rec.ID] = rec.Clone()
	s.entered[rec.ID] = rec.CreatedAt

	s.logger.Debug("memory stored",
		zap.String("id", rec.ID),
		zap.String("owner_id", rec.OwnerID),
		zap.Float64("significance", rec.SignificanceScore))
	return nil
}

// GetByTier returns up to limit of an owner's records in the given
// tier, newest first. The result is a snapshot; mutating it does not
// touch store state.
func (s *TieredStore) GetByTier(ownerID string, tier types.MemoryTier, limit int) ([]*types.MemoryRecord, error) {
	if !tier.Valid() {
		return nil, types.NewError(types.ErrCodeInvalidArguments, fmt.Sprintf("unknown tier %q", tier))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.MemoryRecord, 0)
	for _, rec := range s.records[ownerID] {
		if rec.Tier == tier {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get returns a snapshot of one record.
func (s *TieredStore) Get(ownerID, recordID string) (*types.MemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[ownerID][recordID]
	if !ok {
		return nil, types.NewError(types.ErrCodeRecordNotFound, fmt.Sprintf("record %s not found", recordID))
	}
	return rec.Clone(), nil
}

// Promote moves a record strictly one tier upward. The target must be
// the immediate next tier; promoting a LONG_TERM record fails.
func (s *TieredStore) Promote(ownerID, recordID string, target types.MemoryTier, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.promoteLocked(ownerID, recordID, target, reason)
}

func (s *TieredStore) promoteLocked(ownerID, recordID string, target types.MemoryTier, reason string) error {
	rec, ok := s.records[ownerID][recordID]
	if !ok {
		return types.NewError(types.ErrCodeRecordNotFound, fmt.Sprintf("record %s not found", recordID))
	}

	next, ok := rec.Tier.Next()
	if !ok {
		return types.NewError(types.ErrCodeInvalidTransition,
			fmt.Sprintf("no next tier above %s", rec.Tier))
	}
	if target != next {
		return types.NewError(types.ErrCodeInvalidTransition,
			fmt.Sprintf("promotion from %s must target %s, got %s", rec.Tier, next, target))
	}

	from := rec.Tier
	rec.Tier = target
	s.entered[recordID] = s.now()

	s.logger.Info("memory promoted",
		zap.String("id", recordID),
		zap.String("owner_id", ownerID),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("reason", reason))
	if s.observer != nil {
		s.observer.TierTransition(from, target, reason)
	}
	return nil
}

// Demote moves a record to any lower tier, including skipping one.
// Demotion reflects urgent re-classification, so unlike promotion it
// is not restricted to single steps. The reason is required and logged
// with the transition.
func (s *TieredStore) Demote(ownerID, recordID string, target types.MemoryTier, reason string) error {
	if reason == "" {
		return types.NewError(types.ErrCodeInvalidArguments, "demotion requires a reason")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.demoteLocked(ownerID, recordID, target, reason)
}

func (s *TieredStore) demoteLocked(ownerID, recordID string, target types.MemoryTier, reason string) error {
	rec, ok := s.records[ownerID][recordID]
	if !ok {
		return types.NewError(types.ErrCodeRecordNotFound, fmt.Sprintf("record %s not found", recordID))
	}
	if !target.Valid() || !target.Below(rec.Tier) {
		return types.NewError(types.ErrCodeInvalidTransition,
			fmt.Sprintf("demotion from %s must target a lower tier, got %s", rec.Tier, target))
	}

	from := rec.Tier
	rec.Tier = target
	s.entered[recordID] = s.now()

	s.logger.Info("memory demoted",
		zap.String("id", recordID),
		zap.String("owner_id", ownerID),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("reason", reason))
	if s.observer != nil {
		s.observer.TierTransition(from, target, reason)
	}
	return nil
}

// Protect exempts a record from decay-driven removal. Protection is
// orthogonal to tier and is not a state transition.
func (s *TieredStore) Protect(ownerID, recordID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[ownerID][recordID]
	if !ok {
		return types.NewError(types.ErrCodeRecordNotFound, fmt.Sprintf("record %s not found", recordID))
	}
	rec.Protected = true

	s.logger.Info("memory protected",
		zap.String("id", recordID),
		zap.String("owner_id", ownerID),
		zap.String("reason", reason))
	return nil
}

// Unprotect clears the protection flag.
func (s *TieredStore) Unprotect(ownerID, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[ownerID][recordID]
	if !ok {
		return types.NewError(types.ErrCodeRecordNotFound, fmt.Sprintf("record %s not found", recordID))
	}
	rec.Protected = false
	return nil
}

// Stats summarizes one owner's records.
func (s *TieredStore) Stats(ownerID string) types.MemoryStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.MemoryStats{ByTier: make(map[types.MemoryTier]int)}
	var decaySum float64
	for _, rec := range s.records[ownerID] {
		stats.TotalRecords++
		stats.ByTier[rec.Tier]++
		if rec.Protected {
			stats.ProtectedCount++
		}
		decaySum += rec.DecayScore
		if stats.OldestRecord.IsZero() || rec.CreatedAt.Before(stats.OldestRecord) {
			stats.OldestRecord = rec.CreatedAt
		}
		if rec.CreatedAt.After(stats.NewestRecord) {
			stats.NewestRecord = rec.CreatedAt
		}
	}
	if stats.TotalRecords > 0 {
		stats.AverageDecay = decaySum / float64(stats.TotalRecords)
	}
	return stats
}

// Owners returns the set of owners with at least one record. Used by
// the background maintenance loop.
func (s *TieredStore) Owners() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owners := make([]string, 0, len(s.records))
	for owner, recs := range s.records {
		if len(recs) > 0 {
			owners = append(owners, owner)
		}
	}
	sort.Strings(owners)
	return owners
}

// ownerGate returns the per-owner maintenance mutex, creating it on
// first use. Maintenance for different owners proceeds in parallel;
// passes for the same owner are serialized.
func (s *TieredStore) ownerGate(ownerID string) *sync.Mutex {
	s.gateMu.Lock()
	defer s.gateMu.Unlock()

	gate, ok := s.gates[ownerID]
	if !ok {
		gate = &sync.Mutex{}
		s.gates[ownerID] = gate
	}
	return gate
}
