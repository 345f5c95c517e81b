package scanning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// transcribePrompt asks the model for a verbatim transcript, nothing else.
// Downstream extraction is heuristic text analysis, so the output must look
// like what a plain OCR engine would produce.
const transcribePrompt = `Transcribe all visible text from this receipt image exactly as printed, one receipt line per output line, top to bottom. Do not summarize, translate, or reformat. Do not add any commentary, labels, or markdown. Output only the transcribed text.`

// Gemini implements the TextExtractor interface using Google Gemini as a
// vision transcriber. The model reports no recognition confidence, so a
// configured default percentage is attached to every transcript.
type Gemini struct {
	client     *genai.Client
	model      *genai.GenerativeModel
	confidence float64
}

// NewGemini creates a new Gemini TextExtractor instance
func NewGemini(apiKey string, modelName string, confidence float64) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client:     client,
		model:      client.GenerativeModel(modelName),
		confidence: confidence,
	}, nil
}

// Recognize transcribes the image through Gemini
func (g *Gemini) Recognize(image []byte, language string) (*Transcript, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// The rasterizer hands over PNG for PDFs and HEIC; other uploads keep
	// their original encoding, which Gemini accepts as generic image data.
	parts := []genai.Part{
		genai.ImageData("png", image),
		genai.Text(transcribePrompt),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("%w: generating content: %v", ErrOCRFailure, err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: no response from gemini", ErrOCRFailure)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	return &Transcript{
		Text:       strings.TrimSpace(text.String()),
		Confidence: g.confidence,
	}, nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
