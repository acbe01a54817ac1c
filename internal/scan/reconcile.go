package scan

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/gastoro/backend/internal/models"
)

// State of a scan in progress.
type State string

const (
	StateIdle      State = "idle"
	StateScanning  State = "scanning"
	StatePopulated State = "populated"
	StateFailed    State = "failed"
)

// Draft holds the expense form fields a scan may populate. User-entered
// values survive reconciliation unless the scan read something better.
type Draft struct {
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	CategoryID  uuid.UUID       `json:"categoryId"`
	ReceiptURIs []string        `json:"receiptUris"`
	RFC         *RFCValidation  `json:"rfcValidation"`
}

// ExpenseSink receives expenses the OCR backend already created
// remotely. The ExpenseCache satisfies it.
type ExpenseSink interface {
	AddExpenseLocal(models.Expense)
}

// CategorySource provides the category collection suggestions are
// matched against. The ReferenceCache satisfies it.
type CategorySource interface {
	Categories() []models.Category
}

// Reconciler drives one receipt scan at a time and merges the result
// into the draft. It is a small state machine: idle, scanning, then
// populated or failed, back to idle via Reset.
type Reconciler struct {
	scanner    Scanner
	sink       ExpenseSink
	categories CategorySource

	mu        sync.Mutex
	state     State
	draft     Draft
	err       error
	cancelled bool
	inFlight  bool
}

// NewReconciler returns an idle Reconciler.
func NewReconciler(scanner Scanner, sink ExpenseSink, categories CategorySource) *Reconciler {
	return &Reconciler{
		scanner:    scanner,
		sink:       sink,
		categories: categories,
		state:      StateIdle,
	}
}

// Scan runs one receipt through OCR and merges the result into the
// draft. A scan already in progress wins; the new request is dropped.
// When the backend created the expense remotely, it is handed to the
// sink so the local collection matches without a full reload.
func (r *Reconciler) Scan(ctx context.Context, projectID uuid.UUID, draft Draft, image Image) {
	r.mu.Lock()
	if r.state == StateScanning {
		r.mu.Unlock()
		log.Warn().Msg("scan already in progress, dropping request")
		return
	}
	r.state = StateScanning
	r.draft = draft
	r.err = nil
	r.cancelled = false
	r.mu.Unlock()

	// Last exit before the upload departs. After this point the scan
	// runs to completion and Cancel reports false.
	r.mu.Lock()
	if r.cancelled {
		r.state = StateIdle
		r.mu.Unlock()
		return
	}
	r.inFlight = true
	r.mu.Unlock()

	result, err := r.scanner.Scan(ctx, projectID, image)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight = false
	if err != nil {
		r.state = StateFailed
		r.err = err
		log.Error().Err(err).Msg("receipt scan failed")
		return
	}

	r.draft = Merge(r.draft, result, r.categories.Categories(), image.URI)
	r.state = StatePopulated

	if result.Expense != nil {
		r.sink.AddExpenseLocal(*result.Expense)
	}
}

// Cancel aborts a scan that has not left the device yet. Once the upload
// is in flight the scan runs to completion and Cancel reports false.
func (r *Reconciler) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateScanning || r.inFlight {
		return false
	}
	r.cancelled = true
	r.state = StateIdle
	return true
}

// Reset returns the Reconciler to idle with an empty draft.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateScanning {
		return
	}
	r.state = StateIdle
	r.draft = Draft{}
	r.err = nil
}

// State returns the current scan state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Draft returns the current draft.
func (r *Reconciler) Draft() Draft {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draft
}

// Err returns the error of the last failed scan, or nil.
func (r *Reconciler) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Merge folds a scan result into the draft. Extracted fields overwrite
// draft fields only when the scan actually read something: a positive
// amount, a non-empty merchant name, a parseable date. The suggested
// category must match a known category name exactly, case included, and
// the no-suggestion sentinel never matches. The receipt image is always
// attached, even when nothing else was readable.
func Merge(draft Draft, result Result, categories []models.Category, receiptURI string) Draft {
	extracted := result.Extracted

	if extracted.MerchantName != "" {
		draft.Name = extracted.MerchantName
	}
	if extracted.TotalAmount != nil && extracted.TotalAmount.IsPositive() {
		draft.Amount = *extracted.TotalAmount
	}
	if date, ok := parseDate(extracted.Date); ok {
		draft.Date = date
	}
	if extracted.SuggestedCategory != "" && extracted.SuggestedCategory != models.UncategorizedName {
		for _, category := range categories {
			if category.Name == extracted.SuggestedCategory {
				draft.CategoryID = category.ID
				break
			}
		}
	}
	if extracted.RFCValidation != nil {
		draft.RFC = extracted.RFCValidation
	}
	if receiptURI != "" {
		draft.ReceiptURIs = append(draft.ReceiptURIs, receiptURI)
	}

	return draft
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, pattern := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(pattern, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
