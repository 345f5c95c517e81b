package scanning

import "errors"

// Transcript is the raw output of a text-extraction pass over one image.
// It is consumed once by the receipt parser and not retained.
type Transcript struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // percentage, 0-100
}

// ErrDocumentUnreadable means rasterization could not produce an image from
// the uploaded document (corrupt or empty PDF). Fatal for that document; the
// pipeline does not retry.
var ErrDocumentUnreadable = errors.New("document unreadable")

// ErrOCRFailure means the external text-extraction capability failed. The
// failure is propagated as-is: no retry, no partial result.
var ErrOCRFailure = errors.New("ocr failure")

// TextExtractor defines the interface for OCR backends. Implementations may
// be long-running and own their own timeouts.
type TextExtractor interface {
	// Recognize runs OCR over a raster image and returns the transcript
	// plus the engine's confidence percentage.
	Recognize(image []byte, language string) (*Transcript, error)
	// Close closes the extractor and releases resources
	Close() error
}
