package session

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Grocery-Receipt-Tracker/entities"
)

type (
	SessionRepository interface {
		Upsert(ctx context.Context, id string) error
		GetByID(ctx context.Context, id string) (*entities.TempSession, error)
		Delete(ctx context.Context, id string) error
		ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]*entities.TempSession, error)
	}

	sessionRepository struct {
		db *gorm.DB
	}
)

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Upsert creates the session row if it does not exist yet. Concurrent calls
// with the same id are safe: the conflict is swallowed, not surfaced.
func (r *sessionRepository) Upsert(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entities.TempSession{ID: id}).Error
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*entities.TempSession, error) {
	var session entities.TempSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.TempSession{}).Error
}

func (r *sessionRepository) ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]*entities.TempSession, error) {
	var sessions []*entities.TempSession
	err := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Find(&sessions).Error
	return sessions, err
}
