package scanning

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Tesseract implements the TextExtractor interface against a tesseract-server
// style HTTP API: base64 image in, recognized text and mean confidence out.
type Tesseract struct {
	baseURL string
	client  *http.Client
}

// NewTesseract creates a new Tesseract TextExtractor instance
func NewTesseract(baseURL string) (*Tesseract, error) {
	if baseURL == "" {
		baseURL = "http://localhost:8884"
	}

	return &Tesseract{
		baseURL: baseURL,
		client: &http.Client{
			// OCR is CPU-bound on the server side and can be slow for
			// high-resolution phone photos
			Timeout: 120 * time.Second,
		},
	}, nil
}

// tesseractRequest represents the request body for the OCR endpoint
type tesseractRequest struct {
	Image    string `json:"image"`
	Language string `json:"language,omitempty"`
}

// tesseractResponse represents the response from the OCR endpoint
type tesseractResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Recognize runs the image through the remote tesseract engine
func (t *Tesseract) Recognize(image []byte, language string) (*Transcript, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	reqBody := tesseractRequest{
		Image:    base64.StdEncoding.EncodeToString(image),
		Language: language,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", ErrOCRFailure, err)
	}

	url := fmt.Sprintf("%s/api/ocr", t.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrOCRFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: calling tesseract API: %v", ErrOCRFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: tesseract API error (status %d): %s", ErrOCRFailure, resp.StatusCode, string(body))
	}

	var ocrResp tesseractResponse
	if err := json.NewDecoder(resp.Body).Decode(&ocrResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrOCRFailure, err)
	}

	return &Transcript{
		Text:       ocrResp.Text,
		Confidence: ocrResp.Confidence,
	}, nil
}

// Close closes the Tesseract client (no-op for HTTP client)
func (t *Tesseract) Close() error {
	return nil
}
