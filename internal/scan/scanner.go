// Package scan talks to the receipt OCR backend and reconciles its
// results into the expense form draft.
package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gastoro/backend/internal/models"
)

// RFCValidation is the OCR backend's verdict on the tax ID printed on
// the receipt.
type RFCValidation struct {
	Valid   bool   `json:"valid"`
	RFC     string `json:"rfc"`
	Message string `json:"message"`
}

// Extracted holds the fields the OCR backend could read off the
// receipt. Every field is best-effort and may be absent.
type Extracted struct {
	TotalAmount       *decimal.Decimal `json:"total_amount"`
	MerchantName      string           `json:"merchant_name"`
	Date              string           `json:"date"`
	SuggestedCategory string           `json:"suggested_category"`
	RFCValidation     *RFCValidation   `json:"rfc_validation"`
}

// Result is the OCR backend's response. The backend creates the expense
// remotely in the same call, so Expense is the authoritative record when
// present.
type Result struct {
	Expense   *models.Expense `json:"expense"`
	Extracted Extracted       `json:"ocr_data"`
}

// Image is a captured receipt photo.
type Image struct {
	URI  string
	Name string
	MIME string
	Data []byte
}

// Scanner submits a receipt image for OCR.
type Scanner interface {
	Scan(ctx context.Context, projectID uuid.UUID, image Image) (Result, error)
}

// Client is the HTTP Scanner for the OCR backend.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient returns a Client for the OCR backend at baseURL. OCR runs
// take a while, hence the generous timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Scan uploads the image and decodes the scan-and-create response.
func (c *Client) Scan(ctx context.Context, projectID uuid.UUID, image Image) (Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	name := image.Name
	if name == "" {
		name = "receipt.jpg"
	}
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return Result{}, err
	}
	if _, err := part.Write(image.Data); err != nil {
		return Result{}, err
	}
	if err := writer.WriteField("project_id", projectID.String()); err != nil {
		return Result{}, err
	}
	if err := writer.Close(); err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/ocr/scan-and-create-expense", &body)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("scanning receipt failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Result{}, fmt.Errorf("scanning receipt failed: %s: %s", resp.Status, payload)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("decoding scan result failed: %w", err)
	}
	return result, nil
}
