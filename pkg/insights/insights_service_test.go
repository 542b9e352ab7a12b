package insights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"Grocery-Receipt-Tracker/domain"
	"Grocery-Receipt-Tracker/entities"
)

func receiptWith(store string, date time.Time, total string, itemNames ...string) *entities.Receipt {
	items := make([]entities.ReceiptItem, 0, len(itemNames))
	for _, name := range itemNames {
		items = append(items, entities.ReceiptItem{Name: name, Price: decimal.RequireFromString("1.00")})
	}
	return &entities.Receipt{
		StoreName:   store,
		Date:        date,
		TotalAmount: decimal.RequireFromString(total),
		TotalItems:  len(items),
		Processed:   true,
		Items:       items,
	}
}

func TestComputeRollup(t *testing.T) {
	march := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	april := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)

	t.Run("aggregates totals per store and month", func(t *testing.T) {
		receipts := []*entities.Receipt{
			receiptWith("Store A", march, "13.00", "Milk", "Bread"),
			receiptWith("Store B", april, "5.00", "Milk"),
		}

		rollup := ComputeRollup(receipts)

		assert.Equal(t, 2, rollup.TotalReceipts)
		assert.True(t, decimal.RequireFromString("18.00").Equal(rollup.TotalSpending))
		assert.True(t, decimal.RequireFromString("13.00").Equal(rollup.SpendingByStore["Store A"]))
		assert.True(t, decimal.RequireFromString("5.00").Equal(rollup.SpendingByStore["Store B"]))
		assert.True(t, decimal.RequireFromString("13.00").Equal(rollup.SpendingByMonth["2025-03"]))
		assert.True(t, decimal.RequireFromString("5.00").Equal(rollup.SpendingByMonth["2025-04"]))
		require.Len(t, rollup.MostCommonItems, 2)
		assert.Equal(t, domain.ItemCount{Name: "Milk", Count: 2}, rollup.MostCommonItems[0])
	})

	t.Run("order independent", func(t *testing.T) {
		receipts := []*entities.Receipt{
			receiptWith("Store A", march, "13.00", "Milk", "Bread"),
			receiptWith("Store B", april, "5.00", "Milk"),
			receiptWith("Store A", april, "0.10", "Eggs"),
		}
		reversed := []*entities.Receipt{receipts[2], receipts[1], receipts[0]}

		a := ComputeRollup(receipts)
		b := ComputeRollup(reversed)

		assert.True(t, a.TotalSpending.Equal(b.TotalSpending))
		assert.True(t, a.SpendingByStore["Store A"].Equal(b.SpendingByStore["Store A"]))
		assert.True(t, a.SpendingByMonth["2025-04"].Equal(b.SpendingByMonth["2025-04"]))
		assert.Equal(t, a.TotalReceipts, b.TotalReceipts)
	})

	t.Run("sums decimals exactly", func(t *testing.T) {
		receipts := []*entities.Receipt{
			receiptWith("Store A", march, "0.10", "A"),
			receiptWith("Store A", march, "0.20", "B"),
		}

		rollup := ComputeRollup(receipts)
		assert.Equal(t, "0.3", rollup.TotalSpending.String())
	})

	t.Run("keeps the top five items with first-seen tie break", func(t *testing.T) {
		receipts := []*entities.Receipt{
			receiptWith("Store A", march, "1.00", "A", "B", "C", "D", "E", "F", "G"),
			receiptWith("Store A", march, "1.00", "B", "C"),
		}

		rollup := ComputeRollup(receipts)

		require.Len(t, rollup.MostCommonItems, 5)
		assert.Equal(t, "B", rollup.MostCommonItems[0].Name)
		assert.Equal(t, "C", rollup.MostCommonItems[1].Name)
		// remaining all count 1, ranked by first occurrence
		assert.Equal(t, "A", rollup.MostCommonItems[2].Name)
		assert.Equal(t, "D", rollup.MostCommonItems[3].Name)
		assert.Equal(t, "E", rollup.MostCommonItems[4].Name)
	})

	t.Run("blank store names bucket under Unknown Store", func(t *testing.T) {
		receipts := []*entities.Receipt{
			receiptWith("", march, "2.00", "A"),
			receiptWith("", april, "3.00", "B"),
		}

		rollup := ComputeRollup(receipts)
		assert.True(t, decimal.RequireFromString("5.00").Equal(rollup.SpendingByStore["Unknown Store"]))
	})

	t.Run("empty input yields an empty rollup", func(t *testing.T) {
		rollup := ComputeRollup(nil)

		assert.Equal(t, 0, rollup.TotalReceipts)
		assert.True(t, rollup.TotalSpending.IsZero())
		assert.Empty(t, rollup.SpendingByStore)
		assert.Empty(t, rollup.MostCommonItems)
	})
}

type fakeInsightsRepository struct {
	stored map[string]*entities.Insight
}

func newFakeInsightsRepository() *fakeInsightsRepository {
	return &fakeInsightsRepository{stored: map[string]*entities.Insight{}}
}

func ownerKey(owner domain.Owner) string {
	return owner.Type + ":" + owner.ID
}

func (f *fakeInsightsRepository) GetByOwner(_ context.Context, owner domain.Owner) (*entities.Insight, error) {
	insight, ok := f.stored[ownerKey(owner)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return insight, nil
}

func (f *fakeInsightsRepository) Upsert(_ context.Context, owner domain.Owner, content string) (*entities.Insight, error) {
	insight := &entities.Insight{
		OwnerType:   owner.Type,
		OwnerID:     owner.ID,
		Content:     content,
		LastUpdated: time.Now(),
	}
	f.stored[ownerKey(owner)] = insight
	return insight, nil
}

func (f *fakeInsightsRepository) DeleteByOwner(_ context.Context, owner domain.Owner) error {
	delete(f.stored, ownerKey(owner))
	return nil
}

type fakeReceiptStore struct {
	receipts map[string][]*entities.Receipt
}

func (f *fakeReceiptStore) GetProcessedByOwner(_ context.Context, owner domain.Owner) ([]*entities.Receipt, error) {
	return f.receipts[ownerKey(owner)], nil
}

type fakeInsightsExtractor struct {
	content string
	err     error
	calls   int
}

func (f *fakeInsightsExtractor) ExtractReceipt(context.Context, []byte, string) (domain.ExtractedReceipt, error) {
	return domain.ExtractedReceipt{}, errors.New("not used")
}

func (f *fakeInsightsExtractor) GenerateInsights(context.Context, []byte) (string, error) {
	f.calls++
	return f.content, f.err
}

func TestGenerateNarrative(t *testing.T) {
	owner := domain.UserOwner("user-1")
	march := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	t.Run("stores the generated narrative", func(t *testing.T) {
		repo := newFakeInsightsRepository()
		store := &fakeReceiptStore{receipts: map[string][]*entities.Receipt{
			ownerKey(owner): {receiptWith("Store A", march, "13.00", "Milk")},
		}}
		extractor := &fakeInsightsExtractor{content: "You shop at Store A a lot."}
		service := NewInsightsService(repo, store, extractor, zap.NewNop())

		res, err := service.GenerateNarrative(context.Background(), owner)
		require.NoError(t, err)
		assert.Equal(t, "You shop at Store A a lot.", res.Content)
		assert.Equal(t, 1, extractor.calls)

		// regeneration overwrites the stored narrative
		extractor.content = "Updated insight."
		res, err = service.GenerateNarrative(context.Background(), owner)
		require.NoError(t, err)
		assert.Equal(t, "Updated insight.", res.Content)

		got, err := service.GetNarrative(context.Background(), owner)
		require.NoError(t, err)
		assert.Equal(t, "Updated insight.", got.Content)
	})

	t.Run("fails without processed receipts", func(t *testing.T) {
		repo := newFakeInsightsRepository()
		store := &fakeReceiptStore{receipts: map[string][]*entities.Receipt{}}
		extractor := &fakeInsightsExtractor{content: "unused"}
		service := NewInsightsService(repo, store, extractor, zap.NewNop())

		_, err := service.GenerateNarrative(context.Background(), owner)
		assert.True(t, errors.Is(err, domain.ErrNoProcessedReceipt))
		assert.Equal(t, 0, extractor.calls)
	})

	t.Run("narrative lookup without a stored row returns not found", func(t *testing.T) {
		repo := newFakeInsightsRepository()
		store := &fakeReceiptStore{receipts: map[string][]*entities.Receipt{}}
		service := NewInsightsService(repo, store, &fakeInsightsExtractor{}, zap.NewNop())

		_, err := service.GetNarrative(context.Background(), owner)
		assert.True(t, errors.Is(err, domain.ErrInsightsNotFound))
	})

	t.Run("extractor failure leaves nothing stored", func(t *testing.T) {
		repo := newFakeInsightsRepository()
		store := &fakeReceiptStore{receipts: map[string][]*entities.Receipt{
			ownerKey(owner): {receiptWith("Store A", march, "13.00", "Milk")},
		}}
		extractor := &fakeInsightsExtractor{err: errors.New("model unavailable")}
		service := NewInsightsService(repo, store, extractor, zap.NewNop())

		_, err := service.GenerateNarrative(context.Background(), owner)
		require.Error(t, err)
		assert.Empty(t, repo.stored)
	})
}
