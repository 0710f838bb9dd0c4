package types

import "time"

// MemoryTier identifies the age/importance bucket a memory record
// resides in. Every record is in exactly one tier at all times.
type MemoryTier string

const (
	// TierShortTerm holds freshly ingested conversation turns.
	TierShortTerm MemoryTier = "SHORT_TERM"

	// TierMediumTerm holds records that proved significant enough to
	// survive their first promotion pass.
	TierMediumTerm MemoryTier = "MEDIUM_TERM"

	// TierLongTerm holds durable memories. Records here are only ever
	// moved by explicit demotion or removed by decay.
	TierLongTerm MemoryTier = "LONG_TERM"
)

// tierRank orders tiers for promotion/demotion checks.
var tierRank = map[MemoryTier]int{
	TierShortTerm:  0,
	TierMediumTerm: 1,
	TierLongTerm:   2,
}

// Valid reports whether t is a known tier.
func (t MemoryTier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// Rank returns the tier's position in the hierarchy (SHORT_TERM=0).
// Unknown tiers rank as -1.
func (t MemoryTier) Rank() int {
	r, ok := tierRank[t]
	if !ok {
		return -1
	}
	return r
}

// Next returns the immediate next tier upward and false when the tier
// is already LONG_TERM. Promotion never skips a tier, so this is the
// only legal promotion target.
func (t MemoryTier) Next() (MemoryTier, bool) {
	switch t {
	case TierShortTerm:
		return TierMediumTerm, true
	case TierMediumTerm:
		return TierLongTerm, true
	default:
		return "", false
	}
}

// Below reports whether t is strictly lower than other. Demotion may
// move a record to any lower tier, including skipping one.
func (t MemoryTier) Below(other MemoryTier) bool {
	return t.Rank() >= 0 && other.Rank() >= 0 && t.Rank() < other.Rank()
}

// Vector space names. Every record carries one fixed-length vector per
// space it was embedded into; each space is independently queryable.
const (
	SpaceContent      = "content"
	SpaceEmotion      = "emotion"
	SpaceSemantic     = "semantic"
	SpaceRelationship = "relationship"
	SpacePersonality  = "personality"
	SpaceInteraction  = "interaction"
	SpaceTemporal     = "temporal"
)

// VectorSpaces lists all named vector spaces in a stable order.
var VectorSpaces = []string{
	SpaceContent,
	SpaceEmotion,
	SpaceSemantic,
	SpaceRelationship,
	SpacePersonality,
	SpaceInteraction,
	SpaceTemporal,
}

// MemoryRecord is a single memory entry owned by one user. Records are
// created at SHORT_TERM on ingestion and mutated only by the tiered
// store's maintenance pass or explicit protect/unprotect calls.
type MemoryRecord struct {
	ID                string               `json:"id"`
	OwnerID           string               `json:"owner_id"`
	Content           string               `json:"content"`
	NamedVectors      map[string][]float32 `json:"named_vectors,omitempty"`
	Tier              MemoryTier           `json:"tier"`
	SignificanceScore float64              `json:"significance_score"`
	DecayScore        float64              `json:"decay_score"`
	Protected         bool                 `json:"protected"`
	AccessCount       int                  `json:"access_count"`
	CreatedAt         time.Time            `json:"created_at"`
	LastAccessedAt    time.Time            `json:"last_accessed_at"`
}

// Clone returns a deep copy so snapshot reads never alias store state.
func (r *MemoryRecord) Clone() *MemoryRecord {
	if r == nil {
		return nil
	}
	cp := *r
	if r.NamedVectors != nil {
		cp.NamedVectors = make(map[string][]float32, len(r.NamedVectors))
		for space, vec := range r.NamedVectors {
			cp.NamedVectors[space] = append([]float32(nil), vec...)
		}
	}
	return &cp
}

// MemoryStats summarizes a user's memory records.
type MemoryStats struct {
	TotalRecords   int                `json:"total_records"`
	ByTier         map[MemoryTier]int `json:"by_tier"`
	ProtectedCount int                `json:"protected_count"`
	AverageDecay   float64            `json:"average_decay"`
	OldestRecord   time.Time          `json:"oldest_record,omitempty"`
	NewestRecord   time.Time          `json:"newest_record,omitempty"`
}

// MaintenanceReport is the outcome of one auto tier-management pass.
type MaintenanceReport struct {
	Promoted int `json:"promoted"`
	Demoted  int `json:"demoted"`
}

// DecayReport is the outcome of one decay pass.
type DecayReport struct {
	Processed int `json:"processed"`
	Removed   int `json:"removed"`
}
