package vision

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"
)

// DefaultDateHorizon is how far in the past a receipt date may lie
// before it is discarded as a misread.
const DefaultDateHorizon = 365 * 24 * time.Hour

// receiptDateLayout matches the MM/DD/YY format the date prompt asks
// for.
const receiptDateLayout = "01/02/06"

// stripFences removes the markdown code fences models like to wrap
// their output in.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// parseItems extracts line items from a model response. Anything that
// is not a JSON list of well-formed objects degrades to zero items: a
// garbled response is noise to skip, not a failure to surface.
func parseItems(text string) []Item {
	text = stripFences(text)

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end < start {
		if text != "" {
			slog.Warn("Model response contained no JSON list")
		}
		return nil
	}
	text = text[start : end+1]

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(text), &elements); err != nil {
		slog.Warn("Failed to parse model response", "error", err)
		return nil
	}

	items := make([]Item, 0, len(elements))
	for _, element := range elements {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(element, &fields); err != nil {
			slog.Warn("Skipping non-object element in model response")
			continue
		}
		if _, ok := fields["item_name"]; !ok {
			slog.Warn("Skipping line item without item_name")
			continue
		}
		if _, ok := fields["item_size"]; !ok {
			slog.Warn("Skipping line item without item_size")
			continue
		}
		if _, ok := fields["price_per_unit"]; !ok {
			slog.Warn("Skipping line item without price_per_unit")
			continue
		}
		var item Item
		if err := json.Unmarshal(element, &item); err != nil {
			slog.Warn("Skipping malformed line item", "error", err)
			continue
		}
		items = append(items, item)
	}
	return items
}

// parseDate validates a model date response. Unparseable responses and
// dates further than the horizon in the past come back empty.
func parseDate(text string, now time.Time, horizon time.Duration) string {
	text = stripFences(text)
	if text == "" {
		return ""
	}
	parsed, err := time.Parse(receiptDateLayout, text)
	if err != nil {
		return ""
	}
	if horizon <= 0 {
		horizon = DefaultDateHorizon
	}
	if now.Sub(parsed) > horizon {
		return ""
	}
	return text
}
