package scan_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastoro/backend/internal/models"
	"github.com/gastoro/backend/internal/scan"
)

type fakeScanner struct {
	mu      sync.Mutex
	result  scan.Result
	err     error
	gate    chan struct{}
	started bool
}

func (s *fakeScanner) Scan(_ context.Context, _ uuid.UUID, _ scan.Image) (scan.Result, error) {
	s.mu.Lock()
	s.started = true
	gate := s.gate
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return s.result, s.err
}

func (s *fakeScanner) inFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

type fakeSink struct {
	mu       sync.Mutex
	received []models.Expense
}

func (s *fakeSink) AddExpenseLocal(expense models.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, expense)
}

type fakeCategories struct {
	categories []models.Category
}

func (c fakeCategories) Categories() []models.Category {
	return c.categories
}

func category(name string) models.Category {
	c := models.Category{Name: name}
	c.ID = uuid.New()
	return c
}

func amount(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

func TestMergeFillsDraftFromScan(t *testing.T) {
	food := category("Comida")
	result := scan.Result{
		Extracted: scan.Extracted{
			TotalAmount:       amount(347.50),
			MerchantName:      "OXXO",
			Date:              "2026-03-08",
			SuggestedCategory: "Comida",
		},
	}

	draft := scan.Merge(scan.Draft{}, result, []models.Category{food}, "file:///receipt.jpg")

	assert.Equal(t, "OXXO", draft.Name)
	assert.True(t, draft.Amount.Equal(decimal.NewFromFloat(347.50)))
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), draft.Date)
	assert.Equal(t, food.ID, draft.CategoryID)
	assert.Equal(t, []string{"file:///receipt.jpg"}, draft.ReceiptURIs)
}

func TestMergeKeepsUserInputWhenScanReadNothing(t *testing.T) {
	existing := scan.Draft{
		Name:   "Cena con amigos",
		Amount: decimal.NewFromInt(500),
	}

	draft := scan.Merge(existing, scan.Result{}, nil, "file:///receipt.jpg")

	assert.Equal(t, "Cena con amigos", draft.Name)
	assert.True(t, draft.Amount.Equal(decimal.NewFromInt(500)))
	assert.Len(t, draft.ReceiptURIs, 1, "the receipt is attached even when nothing was readable")
}

func TestMergeCategoryMatchIsExact(t *testing.T) {
	food := category("Comida")

	// Case differences never match
	result := scan.Result{Extracted: scan.Extracted{SuggestedCategory: "comida"}}
	draft := scan.Merge(scan.Draft{}, result, []models.Category{food}, "")
	assert.Equal(t, uuid.Nil, draft.CategoryID)

	// The no-suggestion sentinel never matches, even if a category
	// carries that exact name
	sentinel := category(models.UncategorizedName)
	result = scan.Result{Extracted: scan.Extracted{SuggestedCategory: models.UncategorizedName}}
	draft = scan.Merge(scan.Draft{}, result, []models.Category{sentinel}, "")
	assert.Equal(t, uuid.Nil, draft.CategoryID)
}

func TestMergeIgnoresNonPositiveAmount(t *testing.T) {
	existing := scan.Draft{Amount: decimal.NewFromInt(200)}
	result := scan.Result{Extracted: scan.Extracted{TotalAmount: amount(0)}}

	draft := scan.Merge(existing, result, nil, "")
	assert.True(t, draft.Amount.Equal(decimal.NewFromInt(200)))
}

func TestScanPopulatesDraftAndSink(t *testing.T) {
	remoteExpense := models.Expense{Name: "OXXO", Amount: decimal.NewFromInt(100)}
	remoteExpense.ID = uuid.New()

	scanner := &fakeScanner{
		result: scan.Result{
			Expense: &remoteExpense,
			Extracted: scan.Extracted{
				MerchantName: "OXXO",
				TotalAmount:  amount(100),
			},
		},
	}
	sink := &fakeSink{}
	reconciler := scan.NewReconciler(scanner, sink, fakeCategories{})

	reconciler.Scan(context.Background(), uuid.New(), scan.Draft{}, scan.Image{URI: "file:///r.jpg"})

	assert.Equal(t, scan.StatePopulated, reconciler.State())
	assert.Equal(t, "OXXO", reconciler.Draft().Name)
	require.Len(t, sink.received, 1, "the remotely created expense reaches the cache")
	assert.Equal(t, remoteExpense.ID, sink.received[0].ID)
}

func TestScanFailure(t *testing.T) {
	scanner := &fakeScanner{err: errors.New("ocr unavailable")}
	sink := &fakeSink{}
	reconciler := scan.NewReconciler(scanner, sink, fakeCategories{})

	reconciler.Scan(context.Background(), uuid.New(), scan.Draft{}, scan.Image{})

	assert.Equal(t, scan.StateFailed, reconciler.State())
	assert.Error(t, reconciler.Err())
	assert.Empty(t, sink.received)

	reconciler.Reset()
	assert.Equal(t, scan.StateIdle, reconciler.State())
	assert.Nil(t, reconciler.Err())
}

func TestCancelInFlightIsRefused(t *testing.T) {
	scanner := &fakeScanner{gate: make(chan struct{})}
	reconciler := scan.NewReconciler(scanner, &fakeSink{}, fakeCategories{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		reconciler.Scan(context.Background(), uuid.New(), scan.Draft{}, scan.Image{})
	}()

	require.Eventually(t, scanner.inFlight, time.Second, time.Millisecond)
	assert.False(t, reconciler.Cancel(), "an upload in flight can no longer be cancelled")

	close(scanner.gate)
	<-done
	assert.Equal(t, scan.StatePopulated, reconciler.State())
}

func TestCancelWhenIdle(t *testing.T) {
	reconciler := scan.NewReconciler(&fakeScanner{}, &fakeSink{}, fakeCategories{})
	assert.False(t, reconciler.Cancel())
}
