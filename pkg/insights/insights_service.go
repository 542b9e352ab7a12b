package insights

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"Grocery-Receipt-Tracker/domain"
	"Grocery-Receipt-Tracker/entities"
	"Grocery-Receipt-Tracker/pkg/extraction"
)

const unknownStore = "Unknown Store"

type (
	ReceiptStore interface {
		GetProcessedByOwner(ctx context.Context, owner domain.Owner) ([]*entities.Receipt, error)
	}

	// InsightsService serves the two independent aggregation shapes: the
	// deterministic numeric rollup (computed on demand, never stored) and
	// the AI narrative (stored verbatim, overwritten on regeneration).
	InsightsService interface {
		GetRollup(ctx context.Context, owner domain.Owner) (domain.SpendingRollup, error)
		GetNarrative(ctx context.Context, owner domain.Owner) (domain.NarrativeInsightsResponse, error)
		GenerateNarrative(ctx context.Context, owner domain.Owner) (domain.NarrativeInsightsResponse, error)
	}

	insightsService struct {
		insightsRepository InsightsRepository
		receipts           ReceiptStore
		extractor          extraction.Extractor
		log                *zap.Logger
	}
)

func NewInsightsService(
	insightsRepository InsightsRepository,
	receipts ReceiptStore,
	extractor extraction.Extractor,
	log *zap.Logger,
) InsightsService {
	return &insightsService{
		insightsRepository: insightsRepository,
		receipts:           receipts,
		extractor:          extractor,
		log:                log,
	}
}

func (s *insightsService) GetRollup(ctx context.Context, owner domain.Owner) (domain.SpendingRollup, error) {
	receipts, err := s.receipts.GetProcessedByOwner(ctx, owner)
	if err != nil {
		return domain.SpendingRollup{}, err
	}
	return ComputeRollup(receipts), nil
}

func (s *insightsService) GetNarrative(ctx context.Context, owner domain.Owner) (domain.NarrativeInsightsResponse, error) {
	insight, err := s.insightsRepository.GetByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NarrativeInsightsResponse{}, domain.ErrInsightsNotFound
		}
		return domain.NarrativeInsightsResponse{}, err
	}
	return domain.NarrativeInsightsResponse{
		Content:     insight.Content,
		LastUpdated: insight.LastUpdated,
	}, nil
}

func (s *insightsService) GenerateNarrative(ctx context.Context, owner domain.Owner) (domain.NarrativeInsightsResponse, error) {
	receipts, err := s.receipts.GetProcessedByOwner(ctx, owner)
	if err != nil {
		return domain.NarrativeInsightsResponse{}, err
	}
	if len(receipts) == 0 {
		return domain.NarrativeInsightsResponse{}, domain.ErrNoProcessedReceipt
	}

	payload, err := json.Marshal(serializeReceipts(receipts))
	if err != nil {
		return domain.NarrativeInsightsResponse{}, err
	}

	content, err := s.extractor.GenerateInsights(ctx, payload)
	if err != nil {
		return domain.NarrativeInsightsResponse{}, err
	}

	insight, err := s.insightsRepository.Upsert(ctx, owner, content)
	if err != nil {
		return domain.NarrativeInsightsResponse{}, err
	}
	return domain.NarrativeInsightsResponse{
		Content:     insight.Content,
		LastUpdated: insight.LastUpdated,
	}, nil
}

// ComputeRollup derives the numeric aggregate from a set of processed
// receipts. Pure and order-independent: shuffling the input never changes
// the totals, and item ranking ties break by first occurrence.
func ComputeRollup(receipts []*entities.Receipt) domain.SpendingRollup {
	rollup := domain.SpendingRollup{
		TotalSpending:   decimal.Zero,
		SpendingByStore: map[string]decimal.Decimal{},
		SpendingByMonth: map[string]decimal.Decimal{},
		MostCommonItems: []domain.ItemCount{},
		TotalReceipts:   len(receipts),
	}

	counts := map[string]int{}
	firstSeen := map[string]int{}
	order := 0

	for _, receipt := range receipts {
		rollup.TotalSpending = rollup.TotalSpending.Add(receipt.TotalAmount)

		store := receipt.StoreName
		if store == "" {
			store = unknownStore
		}
		rollup.SpendingByStore[store] = rollup.SpendingByStore[store].Add(receipt.TotalAmount)

		month := receipt.Date.UTC().Format("2006-01")
		rollup.SpendingByMonth[month] = rollup.SpendingByMonth[month].Add(receipt.TotalAmount)

		for _, item := range receipt.Items {
			if _, seen := firstSeen[item.Name]; !seen {
				firstSeen[item.Name] = order
				order++
			}
			counts[item.Name]++
		}
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return firstSeen[names[i]] < firstSeen[names[j]]
	})

	for i, name := range names {
		if i == 5 {
			break
		}
		rollup.MostCommonItems = append(rollup.MostCommonItems, domain.ItemCount{
			Name:  name,
			Count: counts[name],
		})
	}
	return rollup
}

type serializedItem struct {
	Name         string          `json:"name"`
	Code         string          `json:"code"`
	Size         string          `json:"size"`
	Price        decimal.Decimal `json:"price"`
	PurchaseDate time.Time       `json:"purchase_date"`
}

type serializedReceipt struct {
	StoreName   string           `json:"store_name"`
	Date        time.Time        `json:"date"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	TotalItems  int              `json:"total_items"`
	Items       []serializedItem `json:"items"`
}

func serializeReceipts(receipts []*entities.Receipt) []serializedReceipt {
	out := make([]serializedReceipt, 0, len(receipts))
	for _, receipt := range receipts {
		items := make([]serializedItem, 0, len(receipt.Items))
		for _, item := range receipt.Items {
			items = append(items, serializedItem{
				Name:         item.Name,
				Code:         item.Code,
				Size:         item.Size,
				Price:        item.Price,
				PurchaseDate: item.PurchaseDate,
			})
		}
		out = append(out, serializedReceipt{
			StoreName:   receipt.StoreName,
			Date:        receipt.Date,
			TotalAmount: receipt.TotalAmount,
			TotalItems:  receipt.TotalItems,
			Items:       items,
		})
	}
	return out
}
