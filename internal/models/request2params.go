package models

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

const structuredOutputName = "response"

// buildOpenAIParams converts an adk request to chat completion parameters.
func buildOpenAIParams(req *model.LLMRequest, modelName string) (*openai.ChatCompletionNewParams, error) {
	params := openai.ChatCompletionNewParams{
		Model: req.Model,
	}
	if req.Model == "" {
		params.Model = modelName
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.Config != nil && req.Config.SystemInstruction != nil {
		if text := contentText(req.Config.SystemInstruction); text != "" {
			messages = append(messages, openai.SystemMessage(text))
		}
	}
	messages = append(messages, convertContentsToMessages(req.Contents)...)
	if len(messages) == 0 {
		return nil, fmt.Errorf("request has no messages")
	}
	params.Messages = messages

	if req.Config == nil {
		return &params, nil
	}
	if req.Config.Temperature != nil {
		params.Temperature = openai.Float(float64(*req.Config.Temperature))
	}
	if req.Config.TopP != nil {
		params.TopP = openai.Float(float64(*req.Config.TopP))
	}
	if req.Config.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.Config.MaxOutputTokens))
	}

	if req.Config.ResponseMIMEType == "application/json" {
		if req.Config.ResponseJsonSchema != nil {
			schema, err := schemaToMap(req.Config.ResponseJsonSchema)
			if err != nil {
				return nil, err
			}
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
					JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
						Name:   structuredOutputName,
						Schema: schema,
					},
				},
			}
		} else {
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
			}
		}
	}

	return &params, nil
}

// schemaToMap turns any JSON-marshalable schema (typically a
// *jsonschema.Schema) into the map form the OpenAI client sends.
func schemaToMap(schema any) (map[string]any, error) {
	if m, ok := schema.(map[string]any); ok {
		return m, nil
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response schema: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response schema: %w", err)
	}
	return out, nil
}

// convertContentsToMessages converts genai contents to OpenAI messages.
// Inline images become data URLs on a multi-part user message.
func convertContentsToMessages(contents []*genai.Content) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion

	for _, content := range contents {
		if content == nil {
			continue
		}

		var parts []openai.ChatCompletionContentPartUnionParam
		hasImage := false
		for _, part := range content.Parts {
			switch {
			case part == nil:
			case part.InlineData != nil && strings.HasPrefix(part.InlineData.MIMEType, "image/"):
				hasImage = true
				url := fmt.Sprintf("data:%s;base64,%s", part.InlineData.MIMEType, base64.StdEncoding.EncodeToString(part.InlineData.Data))
				parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: url}))
			case part.Text != "":
				parts = append(parts, openai.TextContentPart(part.Text))
			}
		}

		if hasImage {
			messages = append(messages, openai.UserMessage(parts))
			continue
		}

		text := contentText(content)
		switch content.Role {
		case "model":
			messages = append(messages, openai.AssistantMessage(text))
		case "system":
			messages = append(messages, openai.SystemMessage(text))
		default:
			messages = append(messages, openai.UserMessage(text))
		}
	}

	return messages
}

func contentText(content *genai.Content) string {
	var sb strings.Builder
	for _, part := range content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
