package advisor

import (
	"encoding/json"
	"fmt"
	"strings"

	"CoinPilot/internal/model"
)

// rawDecision is the JSON object the model is instructed to emit.
type rawDecision struct {
	Decision   string  `json:"decision" validate:"required,oneof=buy sell hold"`
	Percentage float64 `json:"percentage" validate:"gte=0,lte=100"`
	Reason     string  `json:"reason" validate:"required"`
}

// extractJSONObject returns the first brace-balanced {...} block; the
// model often wraps its answer in prose or a code fence, and the object
// may contain nested objects. Braces inside string literals are ignored.
func extractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// ParseDecision extracts and validates the decision object from the
// model's response text. Any malformed or out-of-contract payload is an
// error; the caller treats it as no decision, never as an order.
func (c *Client) ParseDecision(text string) (model.Decision, error) {
	match := extractJSONObject(text)
	if match == "" {
		return model.Hold(), fmt.Errorf("no JSON object in advisor response")
	}

	var raw rawDecision
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		return model.Hold(), fmt.Errorf("parse advisor response: %w", err)
	}
	if err := c.validate.Struct(raw); err != nil {
		return model.Hold(), fmt.Errorf("invalid advisor response: %w", err)
	}

	// Percentage discipline the tags can't express: hold commits
	// nothing, buy/sell must commit something.
	if raw.Decision == string(model.ActionHold) && raw.Percentage != 0 {
		return model.Hold(), fmt.Errorf("invalid advisor response: hold with percentage %v", raw.Percentage)
	}
	if raw.Decision != string(model.ActionHold) && raw.Percentage < 1 {
		return model.Hold(), fmt.Errorf("invalid advisor response: %s with percentage %v", raw.Decision, raw.Percentage)
	}

	return model.Decision{
		Action:     model.Action(raw.Decision),
		Percentage: raw.Percentage,
		Reason:     raw.Reason,
	}, nil
}
