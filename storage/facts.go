package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/reverie-ai/reverie/types"
)

// FactEntity is a row in the entity table, keyed by
// (entity_name, entity_type, category).
type FactEntity struct {
	ID         uint   `gorm:"primaryKey"`
	EntityName string `gorm:"size:255;index:idx_entity,unique,priority:1"`
	EntityType string `gorm:"size:64;index:idx_entity,unique,priority:2"`
	Category   string `gorm:"size:64;index:idx_entity,unique,priority:3"`
}

// TableName overrides gorm's default pluralization.
func (FactEntity) TableName() string { return "fact_entities" }

// UserFactRelationship is a row in the relationship join table.
type UserFactRelationship struct {
	ID               uint   `gorm:"primaryKey"`
	UserID           string `gorm:"size:128;index"`
	EntityID         uint   `gorm:"index"`
	RelationshipType string `gorm:"size:64"`
	Confidence       float64
	AttributedSource string `gorm:"size:128"`
	CreatedAt        int64  `gorm:"autoCreateTime"`
}

// TableName overrides gorm's default pluralization.
func (UserFactRelationship) TableName() string { return "user_fact_relationships" }

// enrichmentMarkerType tags synthetic entities written by the
// enrichment pipeline. They carry no user-visible content and are
// excluded from retrieval.
const enrichmentMarkerType = "enrichment_marker"

// GormFactsStore implements FactsStore on a relational database.
type GormFactsStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormFactsStore creates a facts store over the given database.
func NewGormFactsStore(db *gorm.DB, logger *zap.Logger) (*GormFactsStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormFactsStore{
		db:     db,
		logger: logger.With(zap.String("component", "facts_store")),
	}, nil
}

// AutoMigrate creates the fact tables. Intended for tests and local
// development; production schemas are managed externally.
func (s *GormFactsStore) AutoMigrate() error {
	return s.db.AutoMigrate(&FactEntity{}, &UserFactRelationship{})
}

// factRow is the flattened join projection.
type factRow struct {
	EntityName       string
	EntityType       string
	Category         string
	RelationshipType string
	Confidence       float64
	AttributedSource string
	CreatedAt        int64
}

// QueryUserFacts reads the fact-entity join for one user, newest first.
func (s *GormFactsStore) QueryUserFacts(ctx context.Context, userID string, factType FactType, limit int) ([]UserFact, error) {
	if !factType.Valid() {
		return nil, types.NewError(types.ErrCodeInvalidArguments, fmt.Sprintf("unknown fact type %q", factType))
	}
	if limit <= 0 {
		limit = 10
	}

	q := s.db.WithContext(ctx).
		Table("user_fact_relationships").
		Select("fact_entities.entity_name, fact_entities.entity_type, fact_entities.category, "+
			"user_fact_relationships.relationship_type, user_fact_relationships.confidence, "+
			"user_fact_relationships.attributed_source, user_fact_relationships.created_at").
		Joins("JOIN fact_entities ON fact_entities.id = user_fact_relationships.entity_id").
		Where("user_fact_relationships.user_id = ?", userID).
		Where("fact_entities.entity_type <> ?", enrichmentMarkerType)

	if factType != FactAll {
		q = q.Where("fact_entities.entity_type = ?", string(factType))
	}

	var rows []factRow
	if err := q.Order("user_fact_relationships.created_at DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		s.logger.Error("user facts query failed",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, errUnavailable("facts", err)
	}

	facts := make([]UserFact, 0, len(rows))
	for _, r := range rows {
		facts = append(facts, UserFact{
			EntityName:       r.EntityName,
			EntityType:       r.EntityType,
			Category:         r.Category,
			RelationshipType: r.RelationshipType,
			Confidence:       r.Confidence,
			AttributedSource: r.AttributedSource,
			CreatedAt:        unixTime(r.CreatedAt),
		})
	}

	s.logger.Debug("user facts query",
		zap.String("user_id", userID),
		zap.String("fact_type", string(factType)),
		zap.Int("rows", len(facts)))

	return facts, nil
}
