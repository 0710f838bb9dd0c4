package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/reverie-ai/reverie/types"
)

// CharacterFact is a row of character background/identity data. Source
// distinguishes designer-authored entries from bot self-reflection.
type CharacterFact struct {
	ID            uint   `gorm:"primaryKey"`
	CharacterName string `gorm:"size:128;index"`
	Category      string `gorm:"size:64"`
	Content       string `gorm:"type:text"`
	Source        string `gorm:"size:32;index"`
	CreatedAt     time.Time
}

// TableName overrides gorm's default pluralization.
func (CharacterFact) TableName() string { return "character_facts" }

// GormCharacterStore implements CharacterStore on a relational database.
type GormCharacterStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormCharacterStore creates a character store over the given database.
func NewGormCharacterStore(db *gorm.DB, logger *zap.Logger) (*GormCharacterStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormCharacterStore{
		db:     db,
		logger: logger.With(zap.String("component", "character_store")),
	}, nil
}

// AutoMigrate creates the character tables. Intended for tests and
// local development.
func (s *GormCharacterStore) AutoMigrate() error {
	return s.db.AutoMigrate(&CharacterFact{})
}

// QueryBackstory reads background entries for one character, filtered
// by source corpus and an optional free-text query matched against the
// category and content columns.
func (s *GormCharacterStore) QueryBackstory(ctx context.Context, characterName, query string, source BackstorySource) ([]BackstoryEntry, error) {
	if !source.Valid() {
		return nil, types.NewError(types.ErrCodeInvalidArguments, fmt.Sprintf("unknown backstory source %q", source))
	}

	q := s.db.WithContext(ctx).
		Where("character_name = ?", characterName)

	if source != SourceBoth {
		q = q.Where("source = ?", string(source))
	}

	if trimmed := strings.TrimSpace(query); trimmed != "" {
		pattern := "%" + strings.ToLower(trimmed) + "%"
		q = q.Where("LOWER(category) LIKE ? OR LOWER(content) LIKE ?", pattern, pattern)
	}

	var rows []CharacterFact
	if err := q.Order("created_at ASC").Find(&rows).Error; err != nil {
		s.logger.Error("backstory query failed",
			zap.String("character", characterName),
			zap.Error(err))
		return nil, errUnavailable("character", err)
	}

	entries := make([]BackstoryEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, BackstoryEntry{
			CharacterName: r.CharacterName,
			Category:      r.Category,
			Content:       r.Content,
			Source:        BackstorySource(r.Source),
			CreatedAt:     r.CreatedAt,
		})
	}
	return entries, nil
}
