package insights

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Grocery-Receipt-Tracker/domain"
	"Grocery-Receipt-Tracker/entities"
)

type (
	InsightsRepository interface {
		GetByOwner(ctx context.Context, owner domain.Owner) (*entities.Insight, error)
		Upsert(ctx context.Context, owner domain.Owner, content string) (*entities.Insight, error)
		DeleteByOwner(ctx context.Context, owner domain.Owner) error
	}

	insightsRepository struct {
		db *gorm.DB
	}
)

func NewInsightsRepository(db *gorm.DB) InsightsRepository {
	return &insightsRepository{db: db}
}

func (r *insightsRepository) GetByOwner(ctx context.Context, owner domain.Owner) (*entities.Insight, error) {
	var insight entities.Insight
	err := r.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", owner.Type, owner.ID).
		First(&insight).Error
	if err != nil {
		return nil, err
	}
	return &insight, nil
}

// Upsert overwrites the owner's stored narrative; there is at most one row
// per owner.
func (r *insightsRepository) Upsert(ctx context.Context, owner domain.Owner, content string) (*entities.Insight, error) {
	insight := &entities.Insight{
		OwnerType:   owner.Type,
		OwnerID:     owner.ID,
		Content:     content,
		LastUpdated: time.Now(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_type"}, {Name: "owner_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "last_updated", "updated_at"}),
		}).
		Create(insight).Error
	if err != nil {
		return nil, err
	}
	return insight, nil
}

func (r *insightsRepository) DeleteByOwner(ctx context.Context, owner domain.Owner) error {
	return r.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", owner.Type, owner.ID).
		Delete(&entities.Insight{}).Error
}
