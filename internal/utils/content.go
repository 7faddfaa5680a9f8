package utils

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

func ExtractContentText(content *genai.Content) string {
	if content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// GenerateText runs a single non-streaming request and returns the trimmed
// text of the first response.
func GenerateText(ctx context.Context, llm model.LLM, req *model.LLMRequest) (string, error) {
	if llm == nil {
		return "", fmt.Errorf("model not configured")
	}
	if req.Model == "" {
		req.Model = llm.Name()
	}

	for resp, err := range llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return "", err
		}
		if resp == nil {
			return "", nil
		}
		return strings.TrimSpace(ExtractContentText(resp.Content)), nil
	}
	return "", nil
}
