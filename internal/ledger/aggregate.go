package ledger

import (
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// entry is one normalized raw row prior to grouping.
type entry struct {
	name      string
	size      int
	price     float64
	havePrice bool
	dateToken bool
	date      string
}

// Aggregate merges the ordered per-frame item lists into the final
// ledger. Rows are normalized, receipt dates are filled across all
// rows, and immediately consecutive duplicates - the same physical
// receipt line seen in overlapping frames - are collapsed into one row
// with a quantity. Non-adjacent duplicates stay separate: a genuinely
// repeated purchase further down the receipt is its own line.
func Aggregate(frames []Frame) []Row {
	entries := flatten(frames)
	warnDateConflicts(entries)
	fillDates(entries)
	entries = dropUnusable(entries)
	return collapse(entries)
}

// flatten produces one linear sequence of normalized entries in frame
// order then within-frame order. A frame's extracted date is injected
// as a synthetic token row right after the frame's items.
func flatten(frames []Frame) []entry {
	var entries []entry
	for _, frame := range frames {
		for _, item := range frame.Items {
			name := strings.ToUpper(strings.TrimSpace(item.Name))
			price, ok := coercePrice(item.UnitPrice)
			entries = append(entries, entry{
				name:      name,
				size:      coerceSize(item.Size),
				price:     price,
				havePrice: ok,
				dateToken: isDateToken(name),
			})
		}
		if frame.Date != "" {
			token := strings.ToUpper(strings.TrimSpace(frame.Date))
			entries = append(entries, entry{
				name:      token,
				size:      1,
				dateToken: isDateToken(token),
			})
		}
	}
	return entries
}

// isDateToken reports whether a normalized name is a date token: a
// non-empty string with no alphabetic characters, e.g. "03/14/25".
func isDateToken(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// coerceSize applies the quantity fallback rules: anything absent,
// non-numeric, or non-positive counts as a single unit.
func coerceSize(value any) int {
	switch v := value.(type) {
	case nil:
		return 1
	case int:
		return positiveSize(v)
	case float64:
		if math.IsNaN(v) {
			return 1
		}
		return positiveSize(int(v))
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 1
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 1
		}
		return positiveSize(int(parsed))
	default:
		return 1
	}
}

func positiveSize(v int) int {
	if v <= 0 {
		return 1
	}
	return v
}

// coercePrice turns a loosely typed price value into a float64, second
// return false when the value cannot be resolved to a number.
func coercePrice(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) {
			return 0, false
		}
		return v, true
	case int:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(parsed) {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// warnDateConflicts flags submissions whose frames produced more than
// one distinct date value. The nearest-following token still wins per
// row, but a human should look at the result.
func warnDateConflicts(entries []entry) {
	var dates []string
	for _, e := range entries {
		if e.dateToken && !slices.Contains(dates, e.name) {
			dates = append(dates, e.name)
		}
	}
	if len(dates) > 1 {
		slog.Warn("Submission produced multiple receipt date candidates", "dates", strings.Join(dates, ", "))
	}
}

// fillDates assigns every row the nearest date token at or after its
// own position; rows past the final token inherit that final token.
// With no token anywhere, every date stays empty.
func fillDates(entries []entry) {
	carry := ""
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].dateToken {
			carry = entries[i].name
			continue
		}
		entries[i].date = carry
	}

	carry = ""
	for i := range entries {
		if entries[i].dateToken {
			carry = entries[i].name
			continue
		}
		if entries[i].date == "" {
			entries[i].date = carry
		}
	}
}

// dropUnusable removes the date tokens themselves plus rows whose name
// or price never resolved. Unresolved rows survive this long so that
// they participate in date classification first.
func dropUnusable(entries []entry) []entry {
	kept := entries[:0]
	for _, e := range entries {
		if e.dateToken || e.name == "" || !e.havePrice {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// collapse performs the run-length grouping: a new group starts
// whenever name, unit price, or date differs from the immediately
// preceding row. Size is tracked through normalization but does not
// participate in the equality key.
func collapse(entries []entry) []Row {
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		if n := len(rows); n > 0 {
			last := &rows[n-1]
			if last.Name == e.name && last.UnitPrice == e.price && last.Date == e.date {
				last.Quantity++
				continue
			}
		}
		rows = append(rows, Row{
			Date:      e.date,
			Quantity:  1,
			Name:      e.name,
			UnitPrice: e.price,
		})
	}
	return rows
}
