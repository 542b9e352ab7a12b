package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	MessageSuccessGetInsights      = "insights retrieved successfully"
	MessageSuccessGetNarrative     = "narrative insights retrieved successfully"
	MessageSuccessGenerateInsights = "narrative insights generated successfully"

	MessageFailedGetInsights      = "failed to retrieve insights"
	MessageFailedGenerateInsights = "failed to generate narrative insights"

	ErrInsightsNotFound   = errors.New("no insights found")
	ErrNoProcessedReceipt = errors.New("no processed receipts to analyze")
)

type (
	// SpendingRollup is the deterministic numeric aggregate over a user's
	// processed receipts. It is computed on demand and never stored.
	SpendingRollup struct {
		TotalSpending   decimal.Decimal            `json:"total_spending"`
		SpendingByStore map[string]decimal.Decimal `json:"spending_by_store"`
		SpendingByMonth map[string]decimal.Decimal `json:"spending_by_month"`
		MostCommonItems []ItemCount                `json:"most_common_items"`
		TotalReceipts   int                        `json:"total_receipts"`
	}

	ItemCount struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	GenerateInsightsRequest struct {
		SessionID string `json:"session_id" validate:"omitempty"`
	}

	NarrativeInsightsResponse struct {
		Content     string    `json:"content"`
		LastUpdated time.Time `json:"last_updated"`
	}
)
