package gemini

import (
	"fmt"
	"strings"
)

// RemapError - translate raw Gemini API failures into actionable messages
// hadImages widens the content-policy match to image-triggered blocks.
func RemapError(err error, hadImages bool) error {
	if err == nil {
		return nil
	}

	msg := err.Error()

	if strings.Contains(msg, "API_KEY_INVALID") || strings.Contains(msg, "API key not valid") {
		return fmt.Errorf("the API key is invalid or not configured correctly, please check your environment setup")
	}

	if strings.Contains(msg, "Quota") || strings.Contains(msg, "quota") {
		return fmt.Errorf("API quota exceeded, please check your account or try again later")
	}

	if hadImages && (strings.Contains(msg, "SAFETY") || strings.Contains(msg, "prompt was blocked")) {
		return fmt.Errorf("the prompt generation was blocked by the content policy, likely related to the input image(s), please try different images")
	}

	return fmt.Errorf("failed to generate prompt from Gemini API: %w", err)
}
