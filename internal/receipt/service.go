package receipt

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zombor/receiptdesk/internal/extract"
	"github.com/zombor/receiptdesk/internal/scanning"
)

// IDGenerator generates unique IDs for receipts
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// ErrDuplicate is returned when an uploaded file's content hash matches a
// receipt that was already processed
var ErrDuplicate = fmt.Errorf("duplicate receipt: this file has already been uploaded")

// Service runs the receipt pipeline and owns receipt operations
type Service struct {
	db          DB
	extractor   scanning.TextExtractor
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
	ocrLimit    int
}

// NewService creates a new Service with default ID generator and time source.
// ocrLimit bounds how many documents may be inside the OCR capability at
// once during batch processing; values below 1 mean no bound.
func NewService(db DB, extractor scanning.TextExtractor, storage Storage, ocrLimit int) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		storage:     storage,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
		ocrLimit:    ocrLimit,
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, extractor scanning.TextExtractor, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")

	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "receipt"
	}

	return base + ext
}

// ProcessReceipt runs one document through the full pipeline: duplicate
// check, file storage, rasterization, text extraction, heuristic parsing,
// and persistence.
func (s *Service) ProcessReceipt(filename string, data []byte, contentType string) (*Receipt, error) {
	sum := sha256.Sum256(data)
	fileHash := hex.EncodeToString(sum[:])

	if existing, err := s.db.FindReceiptByHash(fileHash); err == nil && existing != nil {
		return nil, ErrDuplicate
	}

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	// Sanitize filename to clean up phone-generated long filenames
	cleanFilename := sanitizeFilename(filename)

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, cleanFilename), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	image, err := scanning.Rasterize(data, contentType)
	if err != nil {
		slog.Error("Failed to rasterize document",
			"filename", filename,
			"content_type", contentType,
			"error", err,
		)
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("rasterizing document: %w", err)
	}

	transcript, err := s.extractor.Recognize(image, "eng")
	if err != nil {
		slog.Error("Failed to extract text",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		// Clean up the saved file since extraction failed
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("extracting text: %w", err)
	}

	extracted := extract.Parse(transcript.Text, transcript.Confidence)

	receipt := &Receipt{
		ID:           id,
		Filename:     savedPath,
		ContentType:  contentType,
		FileHash:     fileHash,
		VendorName:   extracted.VendorName,
		PurchaseDate: extracted.PurchaseDate,
		TotalAmount:  extracted.TotalAmount,
		TaxAmount:    extracted.TaxAmount,
		LineItems:    extracted.LineItems,
		Confidence:   extracted.Confidence,
		NeedsReview:  extracted.NeedsReview,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.db.SaveReceipt(receipt); err != nil {
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving receipt to database: %w", err)
	}

	return receipt, nil
}

// Upload is one document in a batch
type Upload struct {
	Filename    string
	Data        []byte
	ContentType string
}

// BatchResult pairs a batch entry with its outcome
type BatchResult struct {
	Filename string
	Receipt  *Receipt
	Err      error
}

// ProcessBatch runs independent documents through the pipeline concurrently.
// The OCR capability is the scarce resource, so in-flight documents are
// bounded by the service's ocrLimit rather than fanning out unbounded.
func (s *Service) ProcessBatch(uploads []Upload) []BatchResult {
	results := make([]BatchResult, len(uploads))

	var g errgroup.Group
	if s.ocrLimit > 0 {
		g.SetLimit(s.ocrLimit)
	}

	for i, u := range uploads {
		g.Go(func() error {
			receipt, err := s.ProcessReceipt(u.Filename, u.Data, u.ContentType)
			results[i] = BatchResult{Filename: u.Filename, Receipt: receipt, Err: err}
			return nil
		})
	}
	g.Wait()

	return results
}

// GetReceipt retrieves a receipt by ID
func (s *Service) GetReceipt(id string) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns all receipts
func (s *Service) ListReceipts() ([]*Receipt, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	return receipts, nil
}

// DeleteReceipt removes a receipt and its file
func (s *Service) DeleteReceipt(id string) error {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}

	if err := s.storage.Delete(receipt.Filename); err != nil {
		// Log error but continue with database deletion
		slog.Warn("Failed to delete file", "filename", receipt.Filename, "error", err)
	}

	if err := s.db.DeleteReceipt(id); err != nil {
		return fmt.Errorf("deleting receipt from database: %w", err)
	}
	return nil
}

// GetReceiptFile retrieves the file data for a receipt
func (s *Service) GetReceiptFile(id string) ([]byte, string, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt: %w", err)
	}

	data, err := s.storage.Get(receipt.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}

	return data, receipt.ContentType, nil
}
