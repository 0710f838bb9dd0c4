package memory

import (
	"regexp"
	"strings"
	"time"

	"github.com/reverie-ai/reverie/config"
	"github.com/reverie-ai/reverie/types"
)

// TierPolicy holds the numeric thresholds driving promotion, demotion,
// and decay. The defaults are tuning points, not contract: deployments
// adjust them per character via configuration.
type TierPolicy struct {
	// Minimum time in the current tier before a record may move up.
	PromotionAge time.Duration
	// Minimum significance for promotion.
	PromotionMinSignificance float64
	// Records idle longer than this with significance below
	// DemotionMaxSignificance drop back to SHORT_TERM.
	DemotionIdleAge         time.Duration
	DemotionMaxSignificance float64
	// Per-pass decay reduction scale.
	DecayRate float64
	// Decay score below which an unprotected record is removed.
	RemovalFloor float64
}

// PolicyFromConfig builds a TierPolicy from loaded configuration.
func PolicyFromConfig(cfg config.MemoryConfig) TierPolicy {
	return TierPolicy{
		PromotionAge:             cfg.PromotionAge,
		PromotionMinSignificance: cfg.PromotionMinSignificance,
		DemotionIdleAge:          cfg.DemotionIdleAge,
		DemotionMaxSignificance:  cfg.DemotionMaxSignificance,
		DecayRate:                cfg.DecayRate,
		RemovalFloor:             cfg.RemovalFloor,
	}
}

// DefaultPolicy returns the default tier policy.
func DefaultPolicy() TierPolicy {
	return PolicyFromConfig(config.DefaultMemoryConfig())
}

// promotionCandidate reports whether a record qualifies for a move to
// the immediate next tier. enteredAt is when the record entered its
// current tier.
func (p TierPolicy) promotionCandidate(r *types.MemoryRecord, enteredAt, now time.Time) bool {
	if _, ok := r.Tier.Next(); !ok {
		return false
	}
	return now.Sub(enteredAt) >= p.PromotionAge &&
		r.SignificanceScore >= p.PromotionMinSignificance
}

// demotionCandidate reports whether a record should drop back to
// SHORT_TERM: idle past the recency bar and below the significance bar.
func (p TierPolicy) demotionCandidate(r *types.MemoryRecord, now time.Time) bool {
	if r.Tier == types.TierShortTerm {
		return false
	}
	return now.Sub(r.LastAccessedAt) >= p.DemotionIdleAge &&
		r.SignificanceScore < p.DemotionMaxSignificance
}

// decayDelta returns the decay score reduction for one pass. Records
// with high significance decay slower; rate scales the whole pass.
func (p TierPolicy) decayDelta(r *types.MemoryRecord, rate float64) float64 {
	if rate <= 0 {
		rate = p.DecayRate
	}
	return rate * (1.0 - r.SignificanceScore)
}

// Significance heuristics. Cheap text scoring applied once at
// ingestion; the resulting score feeds promotion and decay policy.

var (
	emotionalWords = regexp.MustCompile(`(?i)\b(love|hate|afraid|scared|excited|happy|sad|angry|miss|proud|worried|grateful|lonely|hurt)\b`)
	personalRefs   = regexp.MustCompile(`(?i)\b(my|our|me|we|us|family|friend|mother|father|sister|brother|wife|husband|partner)\b`)
	eventMarkers   = regexp.MustCompile(`(?i)\b(always|never|first time|birthday|anniversary|died|born|moved|married|graduated|diagnosed)\b`)
)

// SignificanceOf estimates how much a conversation turn matters for
// long-term recall, in [0,1].
func SignificanceOf(content string) float64 {
	words := len(strings.Fields(content))

	score := 0.1
	switch {
	case words >= 30:
		score += 0.2
	case words >= 10:
		score += 0.1
	}

	if emotionalWords.MatchString(content) {
		score += 0.3
	}
	if personalRefs.MatchString(content) {
		score += 0.2
	}
	if eventMarkers.MatchString(content) {
		score += 0.2
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
