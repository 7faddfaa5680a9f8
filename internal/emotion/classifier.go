package emotion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/easeaico/adaptive-tutor/internal/prompt"
	"github.com/easeaico/adaptive-tutor/internal/utils"
)

var (
	// ErrNoFace is returned when the image contains no detectable face.
	ErrNoFace = errors.New("no face detected")
	// ErrUnknownLabel is returned when a classifier answers outside the vocabulary.
	ErrUnknownLabel = errors.New("unknown emotion label")
)

// Classifier turns a camera frame into an emotion reading.
type Classifier interface {
	Classify(ctx context.Context, image []byte, mimeType string) (Reading, error)
}

// LLMClassifier classifies frames with a multimodal language model.
type LLMClassifier struct {
	model model.LLM
}

// NewLLMClassifier returns a classifier backed by m.
func NewLLMClassifier(m model.LLM) *LLMClassifier {
	return &LLMClassifier{model: m}
}

// Classify sends the frame inline and parses the model's JSON verdict.
func (c *LLMClassifier) Classify(ctx context.Context, image []byte, mimeType string) (Reading, error) {
	if c == nil || c.model == nil {
		return Reading{}, fmt.Errorf("emotion classifier not configured")
	}
	if len(image) == 0 {
		return Reading{}, fmt.Errorf("image is empty")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	req := &model.LLMRequest{
		Contents: []*genai.Content{
			genai.NewContentFromParts([]*genai.Part{
				genai.NewPartFromBytes(image, mimeType),
				genai.NewPartFromText("Classify the facial expression."),
			}, genai.RoleUser),
		},
		Config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(prompt.ClassifierInstruction, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0),
			ResponseMIMEType:  "application/json",
			MaxOutputTokens:   64,
		},
	}

	text, err := utils.GenerateText(ctx, c.model, req)
	if err != nil {
		return Reading{}, fmt.Errorf("failed to classify emotion: %w", err)
	}
	return parseReading(text)
}

func parseReading(text string) (Reading, error) {
	var out struct {
		Emotion    string  `json:"emotion"`
		Confidence float64 `json:"confidence"`
	}
	if err := utils.DecodeJSON(text, &out); err != nil {
		return Reading{}, err
	}

	raw := strings.TrimSpace(out.Emotion)
	if raw == "" || strings.EqualFold(raw, "none") {
		return Reading{}, ErrNoFace
	}
	label, ok := ParseLabel(raw)
	if !ok {
		return Reading{}, fmt.Errorf("%w: %q", ErrUnknownLabel, raw)
	}

	conf := out.Confidence
	switch {
	case conf < 0:
		conf = 0
	case conf > 1:
		conf = 1
	}
	return Reading{Label: label, Confidence: conf}, nil
}
