// Package assessment stores screening results and runs the
// learning-disability analysis over them.
package assessment

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/easeaico/adaptive-tutor/internal/prompt"
	"github.com/easeaico/adaptive-tutor/internal/utils"
)

// Analyzer produces a structured learning-disability report from an
// assessment document.
type Analyzer interface {
	Analyze(ctx context.Context, doc map[string]any) (map[string]any, error)
}

// LLMAnalyzer implements Analyzer over a language model.
type LLMAnalyzer struct {
	model model.LLM
}

// NewLLMAnalyzer returns an analyzer backed by m.
func NewLLMAnalyzer(m model.LLM) *LLMAnalyzer {
	return &LLMAnalyzer{model: m}
}

func (a *LLMAnalyzer) Analyze(ctx context.Context, doc map[string]any) (map[string]any, error) {
	if a == nil || a.model == nil {
		return nil, fmt.Errorf("analyzer not configured")
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode assessment: %w", err)
	}

	req := &model.LLMRequest{
		Contents: []*genai.Content{genai.NewContentFromText(string(payload), genai.RoleUser)},
		Config: &genai.GenerateContentConfig{
			SystemInstruction:  genai.NewContentFromText(prompt.AnalysisInstruction, genai.RoleUser),
			Temperature:        genai.Ptr[float32](1),
			TopP:               genai.Ptr[float32](0.95),
			TopK:               genai.Ptr[float32](40),
			MaxOutputTokens:    8192,
			ResponseMIMEType:   "application/json",
			ResponseJsonSchema: analysisSchema,
		},
	}

	text, err := utils.GenerateText(ctx, a.model, req)
	if err != nil {
		return nil, fmt.Errorf("failed to run analysis: %w", err)
	}

	var report map[string]any
	if err := utils.DecodeJSON(text, &report); err != nil {
		return nil, err
	}
	return report, nil
}
