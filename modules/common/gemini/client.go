package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"prompt-forge-server/modules/common/config"
)

// Client - thin wrapper over the genai SDK with retry and error remapping
type Client struct {
	apiKey string
	model  string
}

// NewClient - build a Gemini client from configuration
func NewClient(cfg *config.Config) *Client {
	return &Client{
		apiKey: cfg.GeminiAPIKey,
		model:  cfg.GeminiModel,
	}
}

// ImagePart - build an inline image part from raw bytes
func ImagePart(data []byte, mimeType string) *genai.Part {
	return &genai.Part{
		InlineData: &genai.Blob{
			MIMEType: mimeType,
			Data:     data,
		},
	}
}

// TextPart - build a text part
func TextPart(text string) *genai.Part {
	return genai.NewPartFromText(text)
}

// GenerateText - run a text-output generation call
// systemInstruction drives the behavior, parts carry user images/text.
// An empty model answer is an error, never an empty string.
func (c *Client) GenerateText(ctx context.Context, systemInstruction string, parts []*genai.Part, temperature float32) (string, error) {
	result, err := c.generate(ctx, systemInstruction, parts, temperature, "")
	if err != nil {
		return "", RemapError(err, hasImagePart(parts))
	}

	text := extractText(result)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("the API returned an empty prompt, please try a different input or refine your concept")
	}

	return strings.TrimSpace(text), nil
}

// GenerateJSON - run a JSON-mode generation call and decode into out
func (c *Client) GenerateJSON(ctx context.Context, systemInstruction string, parts []*genai.Part, temperature float32, out interface{}) error {
	result, err := c.generate(ctx, systemInstruction, parts, temperature, "application/json")
	if err != nil {
		return RemapError(err, hasImagePart(parts))
	}

	text := strings.TrimSpace(extractText(result))
	if text == "" {
		return fmt.Errorf("the API returned an empty response, please try again")
	}

	// models occasionally fence the JSON even in JSON mode
	text = stripCodeFence(text)

	if err := json.Unmarshal([]byte(text), out); err != nil {
		log.Printf("⚠️  [Gemini] Malformed JSON response (%d bytes): %v", len(text), err)
		return fmt.Errorf("the model returned malformed JSON: %w", err)
	}

	return nil
}

// generate - shared call path
func (c *Client) generate(ctx context.Context, systemInstruction string, parts []*genai.Part, temperature float32, responseMIMEType string) (*genai.GenerateContentResponse, error) {
	content := &genai.Content{
		Parts: parts,
		Role:  genai.RoleUser,
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature: floatPtr(temperature),
	}
	if systemInstruction != "" {
		genConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(systemInstruction)},
		}
	}
	if responseMIMEType != "" {
		genConfig.ResponseMIMEType = responseMIMEType
	}

	return GenerateContentWithRetry(ctx, c.apiKey, c.model, []*genai.Content{content}, genConfig)
}

// extractText - collect text parts from the first candidate
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// stripCodeFence - remove a surrounding ```json fence if present
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func hasImagePart(parts []*genai.Part) bool {
	for _, part := range parts {
		if part.InlineData != nil {
			return true
		}
	}
	return false
}

func floatPtr(f float32) *float32 {
	return &f
}
