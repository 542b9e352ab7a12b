package receipt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"Grocery-Receipt-Tracker/domain"
	"Grocery-Receipt-Tracker/entities"
	"Grocery-Receipt-Tracker/internal/utils/storage"
	"Grocery-Receipt-Tracker/pkg/extraction"
	"Grocery-Receipt-Tracker/pkg/session"
)

const (
	// S3 caps presigned GET URLs at 7 days; the row keeps the object key so
	// a fresh URL can always be issued.
	permanentURLExpiry = 7 * 24 * time.Hour
	tempURLExpiry      = 24 * time.Hour
)

type (
	// ReceiptService drives a receipt through its lifecycle:
	// upload -> (optional) migrate -> extract. Batch operations follow a
	// skip-and-continue policy: a per-item failure is logged, reported in
	// the result and never aborts sibling items.
	ReceiptService interface {
		UploadReceipts(ctx context.Context, req domain.UploadReceiptsRequest, userID string) (domain.UploadReceiptsResponse, error)
		MigrateSession(ctx context.Context, userID, sessionID string) (domain.MigrateSessionResponse, error)
		ProcessReceipts(ctx context.Context, req domain.ProcessReceiptsRequest, userID string) (domain.ProcessReceiptsResponse, error)
		ListReceipts(ctx context.Context, userID string) ([]domain.ReceiptSummary, error)
		SessionSummary(ctx context.Context, sessionID string) (domain.SessionSummaryResponse, error)
	}

	receiptService struct {
		receiptRepository ReceiptRepository
		sessionRepository session.SessionRepository
		s3                storage.AwsS3
		extractor         extraction.Extractor
		log               *zap.Logger
	}
)

func NewReceiptService(
	receiptRepository ReceiptRepository,
	sessionRepository session.SessionRepository,
	s3 storage.AwsS3,
	extractor extraction.Extractor,
	log *zap.Logger,
) ReceiptService {
	return &receiptService{
		receiptRepository: receiptRepository,
		sessionRepository: sessionRepository,
		s3:                s3,
		extractor:         extractor,
		log:               log,
	}
}

func (s *receiptService) UploadReceipts(ctx context.Context, req domain.UploadReceiptsRequest, userID string) (domain.UploadReceiptsResponse, error) {
	if len(req.Files) == 0 {
		return domain.UploadReceiptsResponse{}, domain.ErrMissingFile
	}

	var owner domain.Owner
	res := domain.UploadReceiptsResponse{}

	if userID != "" {
		owner = domain.UserOwner(userID)
	} else {
		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = uuid.New().String()
		}
		if err := s.sessionRepository.Upsert(ctx, sessionID); err != nil {
			return domain.UploadReceiptsResponse{}, fmt.Errorf("ensuring session: %w", err)
		}
		owner = domain.SessionOwner(sessionID)
		res.SessionID = sessionID
	}

	succeeded := 0
	for _, file := range req.Files {
		status := s.uploadOne(ctx, file, owner, req.StoreName)
		if status.Uploaded {
			succeeded++
		}
		res.Receipts = append(res.Receipts, status)
	}

	if succeeded == 0 {
		return domain.UploadReceiptsResponse{}, domain.ErrUploadFailed
	}
	return res, nil
}

func (s *receiptService) uploadOne(ctx context.Context, file *multipart.FileHeader, owner domain.Owner, storeName string) domain.FileStatus {
	status := domain.FileStatus{FileName: file.Filename}

	contentType := detectContentType(file)
	if !storage.IsAllowed(contentType, storage.AllowImage...) && !storage.IsAllowed(contentType, storage.AllowPDF...) {
		status.Error = domain.ErrInvalidFileType.Error()
		s.log.Warn("skipping file with unsupported type",
			zap.String("file", file.Filename), zap.String("content_type", contentType))
		return status
	}

	data, err := readFile(file)
	if err != nil {
		status.Error = err.Error()
		s.log.Warn("skipping unreadable file", zap.String("file", file.Filename), zap.Error(err))
		return status
	}

	objectKey := objectKeyFor(owner, file.Filename)
	if err := s.s3.UploadFile(ctx, objectKey, data, contentType); err != nil {
		status.Error = err.Error()
		s.log.Warn("skipping file after storage failure", zap.String("file", file.Filename), zap.Error(err))
		return status
	}

	expiry := permanentURLExpiry
	if owner.IsSession() {
		expiry = tempURLExpiry
	}
	fileURL, err := s.s3.PresignedURL(ctx, objectKey, expiry)
	if err != nil {
		status.Error = err.Error()
		_ = s.s3.DeleteFile(ctx, objectKey)
		s.log.Warn("skipping file after presign failure", zap.String("file", file.Filename), zap.Error(err))
		return status
	}

	record := &entities.Receipt{
		ID:          uuid.New(),
		OwnerType:   owner.Type,
		OwnerID:     owner.ID,
		StoreName:   storeName,
		Date:        time.Now(),
		TotalAmount: decimal.Zero,
		FileURL:     fileURL,
		FilePath:    objectKey,
		FileType:    contentType,
		Status:      entities.ReceiptStatusUploaded,
		Processed:   false,
	}
	if err := s.receiptRepository.Create(ctx, record); err != nil {
		// The blob has no row pointing at it; remove it again.
		_ = s.s3.DeleteFile(ctx, objectKey)
		status.Error = err.Error()
		s.log.Warn("skipping file after persistence failure", zap.String("file", file.Filename), zap.Error(err))
		return status
	}

	summary := toSummary(record)
	status.Uploaded = true
	status.ReceiptID = record.ID.String()
	status.FileURL = fileURL
	status.Receipt = &summary
	return status
}

// MigrateSession moves every receipt of a temp session to the given user:
// blob copied to a user-scoped key, row re-owned atomically, source blob
// deleted. Each receipt is a forward-only saga with a persisted "migrating"
// state, so an interrupted run is detectable and resumable.
func (s *receiptService) MigrateSession(ctx context.Context, userID, sessionID string) (domain.MigrateSessionResponse, error) {
	if _, err := s.sessionRepository.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.MigrateSessionResponse{}, domain.ErrSessionNotFound
		}
		return domain.MigrateSessionResponse{}, err
	}

	sessionOwner := domain.SessionOwner(sessionID)
	receipts, err := s.receiptRepository.GetByOwner(ctx, sessionOwner)
	if err != nil {
		return domain.MigrateSessionResponse{}, err
	}
	if len(receipts) == 0 {
		return domain.MigrateSessionResponse{}, domain.ErrSessionNotFound
	}

	target := domain.UserOwner(userID)
	res := domain.MigrateSessionResponse{}

	for _, receipt := range receipts {
		migrated, err := s.migrateOne(ctx, receipt, target)
		if err != nil {
			s.log.Warn("receipt migration failed",
				zap.String("receipt_id", receipt.ID.String()),
				zap.String("session_id", sessionID), zap.Error(err))
			res.Failed = append(res.Failed, domain.MigrateStatus{
				ReceiptID: receipt.ID.String(),
				Error:     err.Error(),
			})
			continue
		}
		res.Migrated = append(res.Migrated, toSummary(migrated))
	}

	if len(res.Migrated) == 0 {
		return domain.MigrateSessionResponse{}, domain.ErrNothingMigrated
	}

	// Only an empty session may be deleted; failed receipts keep it alive
	// so the caller can retry.
	remaining, err := s.receiptRepository.CountByOwner(ctx, sessionOwner)
	if err == nil && remaining == 0 {
		if err := s.sessionRepository.Delete(ctx, sessionID); err != nil {
			s.log.Warn("deleting migrated session failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	return res, nil
}

func (s *receiptService) migrateOne(ctx context.Context, receipt *entities.Receipt, target domain.Owner) (*entities.Receipt, error) {
	dstKey := receipt.MigratePath

	if receipt.Status == entities.ReceiptStatusMigrating && dstKey != "" {
		// A previous run died mid-flight. If the copy already landed,
		// skip straight to finalizing; otherwise redo the copy.
		exists, err := s.s3.FileExists(ctx, dstKey)
		if err != nil {
			return nil, err
		}
		if !exists {
			if err := s.copyBlob(ctx, receipt.FilePath, dstKey); err != nil {
				return nil, err
			}
		}
	} else {
		dstKey = fmt.Sprintf("%s/%d-%s", target.ID, time.Now().UnixMilli(), path.Base(receipt.FilePath))
		if err := s.receiptRepository.SetMigrating(ctx, receipt.ID, dstKey); err != nil {
			return nil, err
		}
		if err := s.copyBlob(ctx, receipt.FilePath, dstKey); err != nil {
			return nil, err
		}
	}

	fileURL, err := s.s3.PresignedURL(ctx, dstKey, permanentURLExpiry)
	if err != nil {
		return nil, err
	}

	if err := s.receiptRepository.FinishMigration(ctx, receipt.ID, target, fileURL, dstKey); err != nil {
		return nil, err
	}

	// Forward compensation: the row already points at the new location, so
	// a failed source delete only leaks a blob. Logged, not fatal.
	if err := s.s3.DeleteFile(ctx, receipt.FilePath); err != nil {
		s.log.Warn("deleting source blob failed",
			zap.String("receipt_id", receipt.ID.String()),
			zap.String("file_path", receipt.FilePath), zap.Error(err))
	}

	receipt.OwnerType = target.Type
	receipt.OwnerID = target.ID
	receipt.FileURL = fileURL
	receipt.FilePath = dstKey
	receipt.MigratePath = ""
	receipt.Status = entities.ReceiptStatusUploaded
	return receipt, nil
}

func (s *receiptService) copyBlob(ctx context.Context, srcKey, dstKey string) error {
	exists, err := s.s3.FileExists(ctx, srcKey)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrBlobMissing
	}
	return s.s3.CopyFile(ctx, srcKey, dstKey)
}

// ProcessReceipts runs extraction over the eligible subset of the request:
// unprocessed receipts owned by the calling user (explicit id list) or by
// the given session. Ids outside that subset are silently ignored.
func (s *receiptService) ProcessReceipts(ctx context.Context, req domain.ProcessReceiptsRequest, userID string) (domain.ProcessReceiptsResponse, error) {
	var receipts []*entities.Receipt
	var err error

	switch {
	case userID != "" && len(req.ReceiptIDs) > 0:
		receipts, err = s.receiptRepository.GetByIDsAndOwner(ctx, req.ReceiptIDs, domain.UserOwner(userID))
	case req.SessionID != "":
		receipts, err = s.receiptRepository.GetUnprocessedByOwner(ctx, domain.SessionOwner(req.SessionID))
	default:
		return domain.ProcessReceiptsResponse{}, domain.ErrSessionRequired
	}
	if err != nil {
		return domain.ProcessReceiptsResponse{}, err
	}

	res := domain.ProcessReceiptsResponse{}
	for _, receipt := range receipts {
		updated, err := s.processOne(ctx, receipt)
		if err != nil {
			s.log.Warn("receipt extraction failed",
				zap.String("receipt_id", receipt.ID.String()), zap.Error(err))
			res.Failed = append(res.Failed, domain.MigrateStatus{
				ReceiptID: receipt.ID.String(),
				Error:     err.Error(),
			})
			continue
		}
		res.Processed = append(res.Processed, toSummary(updated))
	}
	return res, nil
}

func (s *receiptService) processOne(ctx context.Context, receipt *entities.Receipt) (*entities.Receipt, error) {
	data, err := s.s3.GetFile(ctx, receipt.FilePath)
	if err != nil {
		return nil, err
	}

	extracted, err := s.extractor.ExtractReceipt(ctx, data, receipt.FileType)
	if err != nil {
		return nil, err
	}

	items := make([]entities.ReceiptItem, 0, len(extracted.Items))
	for _, it := range extracted.Items {
		items = append(items, entities.ReceiptItem{
			ID:           uuid.New(),
			Name:         it.Name,
			Code:         it.Code,
			Size:         it.Size,
			Price:        it.Price,
			PurchaseDate: it.PurchaseDate,
		})
	}

	receipt.StoreName = extracted.StoreName
	receipt.Date = extracted.Date
	receipt.TotalAmount = extracted.TotalAmount
	receipt.TotalItems = extracted.TotalItems
	receipt.Status = entities.ReceiptStatusProcessed
	receipt.Processed = true
	receipt.Items = items

	if err := s.receiptRepository.MarkProcessed(ctx, receipt, items); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (s *receiptService) ListReceipts(ctx context.Context, userID string) ([]domain.ReceiptSummary, error) {
	receipts, err := s.receiptRepository.GetByOwnerOrdered(ctx, domain.UserOwner(userID))
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.ReceiptSummary, 0, len(receipts))
	for _, receipt := range receipts {
		summaries = append(summaries, toSummary(receipt))
	}
	return summaries, nil
}

func (s *receiptService) SessionSummary(ctx context.Context, sessionID string) (domain.SessionSummaryResponse, error) {
	receipts, err := s.receiptRepository.GetByOwner(ctx, domain.SessionOwner(sessionID))
	if err != nil {
		return domain.SessionSummaryResponse{}, err
	}
	if len(receipts) == 0 {
		return domain.SessionSummaryResponse{}, domain.ErrSessionNotFound
	}

	total := decimal.Zero
	items := 0
	for _, receipt := range receipts {
		total = total.Add(receipt.TotalAmount)
		items += len(receipt.Items)
	}
	return domain.SessionSummaryResponse{TotalAmount: total, TotalItems: items}, nil
}

func toSummary(receipt *entities.Receipt) domain.ReceiptSummary {
	return domain.ReceiptSummary{
		ID:          receipt.ID.String(),
		StoreName:   receipt.StoreName,
		Date:        receipt.Date,
		TotalAmount: receipt.TotalAmount,
		TotalItems:  receipt.TotalItems,
		FileURL:     receipt.FileURL,
		FileType:    receipt.FileType,
		Processed:   receipt.Processed,
		Status:      receipt.Status,
	}
}

func objectKeyFor(owner domain.Owner, filename string) string {
	ts := time.Now().UnixMilli()
	if owner.IsSession() {
		return fmt.Sprintf("temp/%s/%d-%s", owner.ID, ts, filename)
	}
	return fmt.Sprintf("%s/%d-%s", owner.ID, ts, filename)
}

func detectContentType(file *multipart.FileHeader) string {
	if ct := file.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	switch strings.ToLower(filepath.Ext(file.Filename)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	}
	return "application/octet-stream"
}

func readFile(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
