package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receipt lifecycle statuses. A receipt is created as StatusUploaded,
// flips to StatusMigrating for the duration of a session-to-user blob move,
// and ends at StatusProcessed once extraction succeeded.
const (
	ReceiptStatusUploaded  = "uploaded"
	ReceiptStatusMigrating = "migrating"
	ReceiptStatusProcessed = "processed"
)

// Owner discriminator values. Exactly one owner, always: either an
// authenticated user or an anonymous temp session.
const (
	OwnerTypeUser    = "user"
	OwnerTypeSession = "session"
)

type Receipt struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	OwnerType string    `gorm:"index:idx_receipts_owner;not null" json:"owner_type"`
	OwnerID   string    `gorm:"index:idx_receipts_owner;not null" json:"owner_id"`

	StoreName   string          `json:"store_name"`
	Date        time.Time       `json:"date"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	TotalItems  int             `json:"total_items"`

	FileURL  string `gorm:"type:text" json:"file_url"`
	FilePath string `json:"file_path"`
	FileType string `json:"file_type"`

	// MigratePath holds the destination object key while Status is
	// "migrating", so an interrupted migration can be resumed.
	MigratePath string `json:"-"`

	Status    string `gorm:"not null;default:uploaded" json:"status"`
	Processed bool   `gorm:"not null;default:false" json:"processed"`

	Items []ReceiptItem `gorm:"foreignKey:ReceiptID;constraint:OnDelete:CASCADE" json:"items"`

	Timestamp
}

type ReceiptItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	ReceiptID    uuid.UUID       `gorm:"type:uuid;index;not null" json:"receipt_id"`
	Name         string          `gorm:"not null" json:"name"`
	Code         string          `json:"code"`
	Size         string          `json:"size"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	PurchaseDate time.Time       `json:"purchase_date"`

	Timestamp
}
