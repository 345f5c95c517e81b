package receipt

import (
	"time"

	"github.com/zombor/receiptdesk/internal/extract"
)

// Receipt is a persisted receipt record: the extracted fields plus the
// identity, file metadata, and timestamps the persistence layer assigns.
type Receipt struct {
	ID           string             `json:"id"`
	Filename     string             `json:"filename"`
	ContentType  string             `json:"content_type"`
	FileHash     string             `json:"file_hash"` // sha256 of the original upload, for duplicate detection
	VendorName   string             `json:"vendor_name,omitempty"`
	PurchaseDate string             `json:"purchase_date,omitempty"`
	TotalAmount  *float64           `json:"total_amount,omitempty"`
	TaxAmount    *float64           `json:"tax_amount,omitempty"`
	LineItems    []extract.LineItem `json:"line_items"`
	Confidence   float64            `json:"confidence"` // 0..1
	NeedsReview  bool               `json:"needs_review"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Status returns the human-facing review status of the receipt
func (r *Receipt) Status() string {
	if r.NeedsReview {
		return "Needs Review"
	}
	return "Processed"
}
