package gemini

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GenerateContentWithRetry - retry helper for 429 rate-limit errors
// Retries up to 3 times with a 2 second pause between attempts.
// Any non-429 error returns immediately.
func GenerateContentWithRetry(
	ctx context.Context,
	apiKey string,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {

	if apiKey == "" {
		return nil, fmt.Errorf("no API key provided")
	}

	const maxRetries = 3
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			log.Printf("   🔄 [Gemini Retry] Attempt %d/%d", attempt, maxRetries)
		}

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})

		if err != nil {
			log.Printf("⚠️  [Gemini Retry] Failed to create client (attempt %d): %v", attempt, err)
			lastErr = err
			continue
		}

		result, err := client.Models.GenerateContent(ctx, model, contents, config)

		if err == nil {
			if attempt > 1 {
				log.Printf("✅ [Gemini Retry] Success on attempt %d/%d", attempt, maxRetries)
			}
			return result, nil
		}

		lastErr = err

		// non-429 errors are not retryable
		if !is429Error(err) {
			return nil, err
		}

		log.Printf("⚠️  [Gemini Retry] Rate limited (429) on attempt %d/%d", attempt, maxRetries)

		if attempt < maxRetries {
			log.Printf("   ⏳ Waiting 2 seconds before retry...")
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("rate limited after %d attempts: %w", maxRetries, lastErr)
}

// is429Error - check for a 429 rate-limit error
func is429Error(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(strings.ToLower(errStr), "rate limit") ||
		strings.Contains(strings.ToLower(errStr), "resource exhausted")
}
