package types

// EntityCategory labels a class of entity reference detected in a
// query. Each category is counted at most once per assessment.
type EntityCategory string

const (
	EntityUserReference         EntityCategory = "user_reference"
	EntityCharacterReference    EntityCategory = "character_reference"
	EntityTemporalReference     EntityCategory = "temporal_reference"
	EntityRelationshipReference EntityCategory = "relationship_reference"
)

// ComplexityAssessment is the transient outcome of scoring one user
// message. It is created fresh per query and never persisted.
type ComplexityAssessment struct {
	ComplexityScore      float64          `json:"complexity_score"`
	SentenceLengthScore  float64          `json:"sentence_length_score"`
	QuestionWordScore    float64          `json:"question_word_score"`
	EntityReferenceScore float64          `json:"entity_reference_score"`
	UseTools             bool             `json:"use_tools"`
	DetectedEntities     []EntityCategory `json:"detected_entities,omitempty"`
	Reasoning            string           `json:"reasoning,omitempty"`
}

// HasEntity reports whether the assessment detected the given category.
func (a *ComplexityAssessment) HasEntity(cat EntityCategory) bool {
	for _, c := range a.DetectedEntities {
		if c == cat {
			return true
		}
	}
	return false
}
