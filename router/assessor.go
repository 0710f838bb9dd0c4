package router

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/reverie-ai/reverie/types"
)

// Component weights. They sum to 1.0 so the final score stays in [0,1].
const (
	lengthWeight   = 0.3
	questionWeight = 0.4
	entityWeight   = 0.3
)

// questionWords are information-seeking keywords. Matched per distinct
// keyword, case-insensitive.
var questionWords = regexp.MustCompile(`(?i)\b(what|when|where|who|why|how|which|remember|recall|explain|describe)\b`)

// entityPatterns map entity categories to their reference patterns.
// Each category is counted at most once per message.
var entityPatterns = map[types.EntityCategory]*regexp.Regexp{
	types.EntityUserReference:         regexp.MustCompile(`(?i)\b(i|me|my|mine|myself|we|us|our)\b`),
	types.EntityCharacterReference:    regexp.MustCompile(`(?i)\b(you|your|yours|yourself)\b`),
	types.EntityTemporalReference:     regexp.MustCompile(`(?i)\b(yesterday|today|tonight|tomorrow|recently|lately|earlier|before|ago|last\s+(week|month|year|night|time))\b`),
	types.EntityRelationshipReference: regexp.MustCompile(`(?i)\b(friend|friends|friendship|relationship|together|bond)\b`),
}

// entityOrder keeps DetectedEntities deterministic.
var entityOrder = []types.EntityCategory{
	types.EntityUserReference,
	types.EntityCharacterReference,
	types.EntityTemporalReference,
	types.EntityRelationshipReference,
}

// Assessor scores query complexity. It is a pure function over raw
// text: no I/O, no state, deterministic for identical input.
type Assessor struct {
	threshold float64
	enabled   bool
}

// NewAssessor creates an assessor with the given routing threshold and
// master enable flag.
func NewAssessor(threshold float64, enabled bool) *Assessor {
	return &Assessor{threshold: threshold, enabled: enabled}
}

// Assess scores one user message. The user and character identifiers
// are carried for trace context only; they do not influence the score.
func (a *Assessor) Assess(text, userID, characterID string) types.ComplexityAssessment {
	assessment := types.ComplexityAssessment{}

	words := len(strings.Fields(text))
	switch {
	case words >= 10:
		assessment.SentenceLengthScore = 1.0
	case words >= 5:
		assessment.SentenceLengthScore = 0.5
	}

	questions := len(distinctMatches(questionWords, text))
	switch {
	case questions >= 2:
		assessment.QuestionWordScore = 1.0
	case questions == 1:
		assessment.QuestionWordScore = 0.5
	}

	for _, cat := range entityOrder {
		if entityPatterns[cat].MatchString(text) {
			assessment.DetectedEntities = append(assessment.DetectedEntities, cat)
		}
	}
	switch n := len(assessment.DetectedEntities); {
	case n >= 3:
		assessment.EntityReferenceScore = 1.0
	case n >= 1:
		assessment.EntityReferenceScore = 0.5
	}

	assessment.ComplexityScore = lengthWeight*assessment.SentenceLengthScore +
		questionWeight*assessment.QuestionWordScore +
		entityWeight*assessment.EntityReferenceScore

	assessment.UseTools = a.enabled && assessment.ComplexityScore >= a.threshold

	assessment.Reasoning = fmt.Sprintf(
		"words=%d (%.1f), question_words=%d (%.1f), entity_categories=%d (%.1f) -> score=%.2f, threshold=%.2f, tools=%t",
		words, assessment.SentenceLengthScore,
		questions, assessment.QuestionWordScore,
		len(assessment.DetectedEntities), assessment.EntityReferenceScore,
		assessment.ComplexityScore, a.threshold, assessment.UseTools,
	)

	return assessment
}

// distinctMatches returns the set of lowercased keyword matches.
func distinctMatches(re *regexp.Regexp, text string) map[string]struct{} {
	found := make(map[string]struct{})
	for _, m := range re.FindAllString(text, -1) {
		found[strings.ToLower(m)] = struct{}{}
	}
	return found
}
