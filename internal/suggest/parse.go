package suggest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stripFences removes a markdown code-block wrapper from a model
// response. Handles both ```json and plain ``` fences.
func stripFences(text string) string {
	cleaned := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(cleaned, "```json") && strings.HasSuffix(cleaned, "```") && len(cleaned) >= 10:
		cleaned = strings.TrimSpace(cleaned[7 : len(cleaned)-3])
	case strings.HasPrefix(cleaned, "```") && strings.HasSuffix(cleaned, "```") && len(cleaned) >= 6:
		cleaned = strings.TrimSpace(cleaned[3 : len(cleaned)-3])
	}
	return cleaned
}

// decodeList parses a fenced-or-bare JSON array into out.
func decodeList(text string, out any) error {
	cleaned := stripFences(text)
	if !strings.HasPrefix(cleaned, "[") {
		return fmt.Errorf("unexpected response structure from AI: expected a JSON array")
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("failed to parse JSON response from AI: %w", err)
	}
	return nil
}
