package receipt

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"Grocery-Receipt-Tracker/domain"
	"Grocery-Receipt-Tracker/entities"
)

type (
	ReceiptRepository interface {
		Create(ctx context.Context, receipt *entities.Receipt) error
		GetByID(ctx context.Context, id string) (*entities.Receipt, error)
		GetByOwner(ctx context.Context, owner domain.Owner) ([]*entities.Receipt, error)
		GetByOwnerOrdered(ctx context.Context, owner domain.Owner) ([]*entities.Receipt, error)
		GetUnprocessedByOwner(ctx context.Context, owner domain.Owner) ([]*entities.Receipt, error)
		GetProcessedByOwner(ctx context.Context, owner domain.Owner) ([]*entities.Receipt, error)
		GetByIDsAndOwner(ctx context.Context, ids []string, owner domain.Owner) ([]*entities.Receipt, error)
		SetMigrating(ctx context.Context, id uuid.UUID, migratePath string) error
		FinishMigration(ctx context.Context, id uuid.UUID, owner domain.Owner, fileURL, filePath string) error
		MarkProcessed(ctx context.Context, receipt *entities.Receipt, items []entities.ReceiptItem) error
		CountByOwner(ctx context.Context, owner domain.Owner) (int64, error)
		DeleteByOwner(ctx context.Context, owner domain.Owner) error
	}

	receiptRepository struct {
		db *gorm.DB
	}
)

func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) Create(ctx context.Context, receipt *entities.Receipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *receiptRepository) GetByID(ctx context.Context, id string) (*entities.Receipt, error) {
	var receipt entities.Receipt
	if err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&receipt).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) GetByOwner(ctx context.Context, owner domain.Owner) ([]*entities.Receipt, error) {
	var receipts []*entities.Receipt
	err := r.db.WithContext(ctx).Preload("Items").
		Where("owner_type = ? AND owner_id = ?", owner.Type, owner.ID).
		Find(&receipts).Error
	return receipts, err
}

func (r *receiptRepository) GetByOwnerOrdered(ctx context.Context, owner domain.Owner) ([]*entities.Receipt, error) {
	var receipts []*entities.Receipt
	err := r.db.WithContext(ctx).Preload("Items").
		Where("owner_type = ? AND owner_id = ?", owner.Type, owner.ID).
		Order("date desc").
		Find(&receipts).Error
	return receipts, err
}

func (r *receiptRepository) GetUnprocessedByOwner(ctx context.Context, owner domain.Owner) ([]*entities.Receipt, error) {
	var receipts []*entities.Receipt
	err := r.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ? AND processed = ?", owner.Type, owner.ID, false).
		Find(&receipts).Error
	return receipts, err
}

func (r *receiptRepository) GetProcessedByOwner(ctx context.Context, owner domain.Owner) ([]*entities.Receipt, error) {
	var receipts []*entities.Receipt
	err := r.db.WithContext(ctx).Preload("Items").
		Where("owner_type = ? AND owner_id = ? AND processed = ?", owner.Type, owner.ID, true).
		Find(&receipts).Error
	return receipts, err
}

func (r *receiptRepository) GetByIDsAndOwner(ctx context.Context, ids []string, owner domain.Owner) ([]*entities.Receipt, error) {
	var receipts []*entities.Receipt
	err := r.db.WithContext(ctx).
		Where("id IN ? AND owner_type = ? AND owner_id = ? AND processed = ?", ids, owner.Type, owner.ID, false).
		Find(&receipts).Error
	return receipts, err
}

func (r *receiptRepository) SetMigrating(ctx context.Context, id uuid.UUID, migratePath string) error {
	return r.db.WithContext(ctx).Model(&entities.Receipt{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       entities.ReceiptStatusMigrating,
			"migrate_path": migratePath,
		}).Error
}

// FinishMigration swaps ownership, file location and status in one UPDATE so
// a receipt is never observable half-moved at the row level.
func (r *receiptRepository) FinishMigration(ctx context.Context, id uuid.UUID, owner domain.Owner, fileURL, filePath string) error {
	return r.db.WithContext(ctx).Model(&entities.Receipt{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"owner_type":   owner.Type,
			"owner_id":     owner.ID,
			"file_url":     fileURL,
			"file_path":    filePath,
			"migrate_path": "",
			"status":       entities.ReceiptStatusUploaded,
		}).Error
}

// MarkProcessed overwrites the extracted fields and replaces the line items
// inside a single transaction.
func (r *receiptRepository) MarkProcessed(ctx context.Context, receipt *entities.Receipt, items []entities.ReceiptItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entities.Receipt{}).
			Where("id = ?", receipt.ID).
			Updates(map[string]interface{}{
				"store_name":   receipt.StoreName,
				"date":         receipt.Date,
				"total_amount": receipt.TotalAmount,
				"total_items":  receipt.TotalItems,
				"status":       entities.ReceiptStatusProcessed,
				"processed":    true,
			}).Error; err != nil {
			return err
		}

		if err := tx.Where("receipt_id = ?", receipt.ID).Delete(&entities.ReceiptItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].ReceiptID = receipt.ID
		}
		return tx.Create(&items).Error
	})
}

func (r *receiptRepository) CountByOwner(ctx context.Context, owner domain.Owner) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Receipt{}).
		Where("owner_type = ? AND owner_id = ?", owner.Type, owner.ID).
		Count(&count).Error
	return count, err
}

func (r *receiptRepository) DeleteByOwner(ctx context.Context, owner domain.Owner) error {
	return r.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", owner.Type, owner.ID).
		Delete(&entities.Receipt{}).Error
}
