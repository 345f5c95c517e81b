package scanning

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// pdfScale is the upscale factor applied when rendering a PDF page. Receipt
// PDFs are often small; rendering at 2x keeps the text legible for OCR.
const pdfScale = 2.0

// Rasterize normalizes an uploaded document into raster image bytes ready
// for OCR. PDFs have their first page rendered to PNG; HEIC/HEIF photos are
// re-encoded to PNG because no OCR backend can decode them; everything else
// is assumed directly decodable and passes through untouched.
func Rasterize(data []byte, contentType string) ([]byte, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))

	switch {
	case mimeType == "application/pdf":
		return pdfToImage(data)
	case isHEICFormat(data) || isHEICMimeType(mimeType):
		return heicToImage(data)
	default:
		return data, nil
	}
}

// pdfToImage renders the first page of a PDF as PNG
func pdfToImage(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("%w: opening pdf: %v", ErrDocumentUnreadable, err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("%w: pdf has no pages", ErrDocumentUnreadable)
	}

	// Most receipts are single page; only the first is rendered.
	img, err := doc.ImageDPI(0, 72*pdfScale)
	if err != nil {
		return nil, fmt.Errorf("%w: rendering pdf page: %v", ErrDocumentUnreadable, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encoding png: %v", ErrDocumentUnreadable, err)
	}

	return buf.Bytes(), nil
}

// heicToImage re-encodes a HEIC/HEIF photo (common on iPhones) as PNG
func heicToImage(imageData []byte) ([]byte, error) {
	img, err := heic.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding heic image: %v", ErrDocumentUnreadable, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encoding png: %v", ErrDocumentUnreadable, err)
	}

	return buf.Bytes(), nil
}

// isHEICFormat checks the ftyp box brands HEIC files start with
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	brand := string(data[8:12])
	return brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1"
}

func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}
