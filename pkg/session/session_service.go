package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"Grocery-Receipt-Tracker/domain"
	"Grocery-Receipt-Tracker/entities"
	"Grocery-Receipt-Tracker/internal/utils/storage"
)

type (
	// ReceiptStore is the slice of the receipt repository the session
	// manager needs. Declared here to keep the dependency one-way.
	ReceiptStore interface {
		GetByOwner(ctx context.Context, owner domain.Owner) ([]*entities.Receipt, error)
		CountByOwner(ctx context.Context, owner domain.Owner) (int64, error)
		DeleteByOwner(ctx context.Context, owner domain.Owner) error
	}

	InsightStore interface {
		DeleteByOwner(ctx context.Context, owner domain.Owner) error
	}

	SessionService interface {
		EnsureSession(ctx context.Context, id string) error
		GetSessionReceipts(ctx context.Context, id string) ([]*entities.Receipt, error)
		DeleteSession(ctx context.Context, id string) error
		CleanupExpired(ctx context.Context, ttl time.Duration) (int, error)
	}

	sessionService struct {
		sessionRepository SessionRepository
		receipts          ReceiptStore
		insights          InsightStore
		s3                storage.AwsS3
		log               *zap.Logger
	}
)

func NewSessionService(
	sessionRepository SessionRepository,
	receipts ReceiptStore,
	insights InsightStore,
	s3 storage.AwsS3,
	log *zap.Logger,
) SessionService {
	return &sessionService{
		sessionRepository: sessionRepository,
		receipts:          receipts,
		insights:          insights,
		s3:                s3,
		log:               log,
	}
}

func (s *sessionService) EnsureSession(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrSessionRequired
	}
	return s.sessionRepository.Upsert(ctx, id)
}

func (s *sessionService) GetSessionReceipts(ctx context.Context, id string) ([]*entities.Receipt, error) {
	if _, err := s.sessionRepository.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return s.receipts.GetByOwner(ctx, domain.SessionOwner(id))
}

// DeleteSession removes the session row. Callers must migrate or discard
// the session's receipts first; deleting with receipts still attached would
// orphan them.
func (s *sessionService) DeleteSession(ctx context.Context, id string) error {
	count, err := s.receipts.CountByOwner(ctx, domain.SessionOwner(id))
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrReceiptsStillExist
	}
	return s.sessionRepository.Delete(ctx, id)
}

// CleanupExpired garbage-collects sessions older than the TTL that were
// never migrated: their blobs, receipt rows, narrative insight and the
// session row itself. Returns the number of sessions removed.
func (s *sessionService) CleanupExpired(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().Add(-ttl)
	expired, err := s.sessionRepository.ListCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, sess := range expired {
		owner := domain.SessionOwner(sess.ID)

		receipts, err := s.receipts.GetByOwner(ctx, owner)
		if err != nil {
			s.log.Warn("session cleanup: listing receipts failed",
				zap.String("session_id", sess.ID), zap.Error(err))
			continue
		}
		for _, receipt := range receipts {
			if err := s.s3.DeleteFile(ctx, receipt.FilePath); err != nil {
				s.log.Warn("session cleanup: blob delete failed",
					zap.String("session_id", sess.ID),
					zap.String("file_path", receipt.FilePath), zap.Error(err))
			}
		}

		if err := s.receipts.DeleteByOwner(ctx, owner); err != nil {
			s.log.Warn("session cleanup: receipt delete failed",
				zap.String("session_id", sess.ID), zap.Error(err))
			continue
		}
		if err := s.insights.DeleteByOwner(ctx, owner); err != nil {
			s.log.Warn("session cleanup: insight delete failed",
				zap.String("session_id", sess.ID), zap.Error(err))
		}
		if err := s.sessionRepository.Delete(ctx, sess.ID); err != nil {
			s.log.Warn("session cleanup: session delete failed",
				zap.String("session_id", sess.ID), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}
