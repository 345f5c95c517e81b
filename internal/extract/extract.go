package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// maxLineItems caps the number of line items collected from a single receipt.
const maxLineItems = 10

// reviewThreshold is the OCR confidence percentage below which a receipt
// always needs human review.
const reviewThreshold = 80.0

// LineItem is a single purchased item read off a receipt. Quantity and
// UnitPrice exist in the shape but the current heuristic never fills them;
// only Description and TotalPrice are derived.
type LineItem struct {
	Description string   `json:"description"`
	Quantity    *float64 `json:"quantity,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	TotalPrice  *float64 `json:"total_price,omitempty"`
}

// Receipt is the structured result of parsing an OCR transcript. Missing
// fields are represented by empty strings and nil pointers, never by errors:
// uncertainty is data here, carried by NeedsReview.
type Receipt struct {
	VendorName   string     `json:"vendor_name,omitempty"`
	PurchaseDate string     `json:"purchase_date,omitempty"` // raw matched substring, not normalized
	TotalAmount  *float64   `json:"total_amount,omitempty"`
	TaxAmount    *float64   `json:"tax_amount,omitempty"`
	LineItems    []LineItem `json:"line_items"`
	Confidence   float64    `json:"confidence"` // 0..1
	NeedsReview  bool       `json:"needs_review"`
}

var (
	dateRe   = regexp.MustCompile(`(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})|(\d{4}[/-]\d{1,2}[/-]\d{1,2})`)
	totalRe  = regexp.MustCompile(`(?:TOTAL|AMOUNT|BALANCE|DUE)[\s:]*\$?(\d+\.?\d*)`)
	taxRe    = regexp.MustCompile(`(?:TAX|SALES TAX)[\s:]*\$?(\d+\.?\d*)`)
	dollarRe = regexp.MustCompile(`\$(\d+\.?\d*)`)
)

// vendorSkipTokens mark lines that are receipt boilerplate, not store names.
var vendorSkipTokens = []string{"RECEIPT", "TOTAL", "DATE", "CASH", "CARD", "CHANGE"}

// itemSkipTokens mark header/footer lines that never describe purchased items.
var itemSkipTokens = []string{"TOTAL", "TAX", "RECEIPT", "THANK"}

// Parse turns a raw OCR transcript and its confidence percentage into a
// structured Receipt. It is pure and total: any string input yields a
// best-effort record, with absence and NeedsReview standing in for failure.
func Parse(rawText string, ocrConfidencePct float64) Receipt {
	lines := normalizeLines(rawText)

	rec := Receipt{
		Confidence:  ocrConfidencePct / 100,
		NeedsReview: ocrConfidencePct < reviewThreshold,
	}

	rec.VendorName = extractVendorName(lines)
	rec.PurchaseDate = extractDate(lines)
	rec.TotalAmount, rec.TaxAmount = extractAmounts(lines)
	rec.LineItems = extractLineItems(lines)

	// Monotonic OR: once any trigger fires, review stays required.
	if rec.VendorName == "" || rec.TotalAmount == nil {
		rec.NeedsReview = true
	}

	return rec
}

// normalizeLines splits the transcript on line breaks, trims each line, and
// drops empties. Order is preserved: position encodes document layout.
func normalizeLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// extractVendorName scans at most the first five lines for something that
// looks like a store name: short, free of digits, and not receipt
// boilerplate. Precision over recall; a miss just drives NeedsReview.
func extractVendorName(lines []string) string {
	for i := 0; i < len(lines) && i < 5; i++ {
		upper := strings.ToUpper(lines[i])

		if containsAny(upper, vendorSkipTokens) {
			continue
		}

		if len(upper) > 2 && len(upper) < 50 && !strings.ContainsAny(upper, "0123456789") {
			return lines[i] // original casing, not the scan copy
		}
	}
	return ""
}

// extractDate returns the first substring in any line that looks like a
// slash- or dash-separated date. The match is returned verbatim; no
// calendar validation is attempted, so "13/45/99" passes through as-is.
func extractDate(lines []string) string {
	for _, line := range lines {
		if m := dateRe.FindString(line); m != "" {
			return m
		}
	}
	return ""
}

// extractAmounts finds the total and tax. Keyed labels (TOTAL, TAX, ...)
// are strictly more reliable and take precedence, first match wins. When no
// keyed total exists, the largest bare $-amount becomes the total and the
// second largest the tax: printed receipts reserve the biggest figures for
// totals.
func extractAmounts(lines []string) (total, tax *float64) {
	var pool []float64

	for _, line := range lines {
		upper := strings.ToUpper(line)

		if m := totalRe.FindStringSubmatch(upper); m != nil && total == nil {
			total = parseAmount(m[1])
		}

		if m := taxRe.FindStringSubmatch(upper); m != nil && tax == nil {
			tax = parseAmount(m[1])
		}

		for _, m := range dollarRe.FindAllStringSubmatch(line, -1) {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
				pool = append(pool, v)
			}
		}
	}

	if total == nil && len(pool) > 0 {
		sort.Sort(sort.Reverse(sort.Float64Slice(pool)))
		total = &pool[0]
		if len(pool) > 1 && tax == nil {
			tax = &pool[1]
		}
	}

	return total, tax
}

// extractLineItems collects up to ten priced lines in document order. A
// qualifying line carries a $-amount, is longer than three characters, and
// is not a header/footer line; its description is the line with the first
// $-amount removed.
func extractLineItems(lines []string) []LineItem {
	var items []LineItem

	for _, line := range lines {
		if containsAny(strings.ToUpper(line), itemSkipTokens) {
			continue
		}

		m := dollarRe.FindStringSubmatch(line)
		if m == nil || len(line) <= 3 {
			continue
		}

		description := strings.TrimSpace(strings.Replace(line, m[0], "", 1))
		if description == "" {
			continue
		}

		items = append(items, LineItem{
			Description: description,
			TotalPrice:  parseAmount(m[1]),
		})
		if len(items) == maxLineItems {
			break
		}
	}

	return items
}

func parseAmount(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
