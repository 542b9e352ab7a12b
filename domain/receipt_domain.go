package domain

import (
	"errors"
	"mime/multipart"
	"time"

	"github.com/shopspring/decimal"
)

var (
	MessageSuccessUploadReceipts  = "receipts uploaded successfully"
	MessageSuccessMigrateReceipts = "receipts migrated successfully"
	MessageSuccessProcessReceipts = "receipts processed successfully"
	MessageSuccessGetReceipts     = "receipts retrieved successfully"
	MessageSuccessGetSummary      = "session summary retrieved successfully"

	MessageFailedUploadReceipts  = "failed to upload receipts"
	MessageFailedMigrateReceipts = "failed to migrate receipts"
	MessageFailedProcessReceipts = "failed to process receipts"
	MessageFailedGetReceipts     = "failed to retrieve receipts"
	MessageFailedGetSummary      = "failed to retrieve session summary"

	ErrMissingFile        = errors.New("no file provided")
	ErrInvalidFileType    = errors.New("file must be an image or a PDF")
	ErrUploadFailed       = errors.New("failed to upload any receipts")
	ErrSessionRequired    = errors.New("session id is required")
	ErrSessionNotFound    = errors.New("session not found")
	ErrReceiptNotFound    = errors.New("receipt not found")
	ErrNothingMigrated    = errors.New("no receipts were migrated")
	ErrExtractionFailed   = errors.New("receipt extraction failed")
	ErrInvalidAmount      = errors.New("invalid amount in extraction result")
	ErrMissingFields      = errors.New("extraction result missing required fields")
	ErrBlobMissing        = errors.New("stored file not found")
	ErrReceiptsStillExist = errors.New("session still has receipts")
)

type (
	UploadReceiptsRequest struct {
		Files     []*multipart.FileHeader `form:"file" validate:"required,min=1"`
		StoreName string                  `form:"storeName" validate:"omitempty"`
		SessionID string                  `form:"sessionId" validate:"omitempty"`
	}

	// FileStatus reports the outcome of one file inside an upload batch.
	// Skipped files carry the reason, succeeded files the created receipt.
	FileStatus struct {
		FileName  string          `json:"file_name"`
		Uploaded  bool            `json:"uploaded"`
		Error     string          `json:"error,omitempty"`
		ReceiptID string          `json:"receipt_id,omitempty"`
		FileURL   string          `json:"file_url,omitempty"`
		Receipt   *ReceiptSummary `json:"receipt,omitempty"`
	}

	ReceiptSummary struct {
		ID          string          `json:"id"`
		StoreName   string          `json:"store_name"`
		Date        time.Time       `json:"date"`
		TotalAmount decimal.Decimal `json:"total_amount"`
		TotalItems  int             `json:"total_items"`
		FileURL     string          `json:"file_url"`
		FileType    string          `json:"file_type"`
		Processed   bool            `json:"processed"`
		Status      string          `json:"status"`
	}

	UploadReceiptsResponse struct {
		SessionID string       `json:"session_id,omitempty"`
		Receipts  []FileStatus `json:"receipts"`
	}

	MigrateSessionRequest struct {
		SessionID string `json:"session_id" validate:"required"`
	}

	// MigrateStatus reports the outcome of one receipt inside a migration
	// batch. Failed receipts stay session-owned and can be retried.
	MigrateStatus struct {
		ReceiptID string `json:"receipt_id"`
		Migrated  bool   `json:"migrated"`
		Error     string `json:"error,omitempty"`
	}

	MigrateSessionResponse struct {
		Migrated []ReceiptSummary `json:"migrated"`
		Failed   []MigrateStatus  `json:"failed,omitempty"`
	}

	ProcessReceiptsRequest struct {
		ReceiptIDs []string `json:"receipt_ids" validate:"omitempty,dive,uuid"`
		SessionID  string   `json:"session_id" validate:"omitempty"`
	}

	ProcessReceiptsResponse struct {
		Processed []ReceiptSummary `json:"processed"`
		Failed    []MigrateStatus  `json:"failed,omitempty"`
	}

	SessionSummaryResponse struct {
		TotalAmount decimal.Decimal `json:"total_amount"`
		TotalItems  int             `json:"total_items"`
	}

	// ExtractedReceipt is the validated output of the extraction
	// collaborator, amounts already parsed as decimals.
	ExtractedReceipt struct {
		StoreName   string
		Date        time.Time
		TotalAmount decimal.Decimal
		TotalItems  int
		Items       []ExtractedItem
	}

	ExtractedItem struct {
		Name         string
		Code         string
		Size         string
		Price        decimal.Decimal
		PurchaseDate time.Time
	}
)
