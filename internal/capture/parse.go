package capture

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stocknote/stocknote/internal/store"
)

// parseExtraction decodes the model's JSON reply into an Extraction with the
// fail-open defaults applied.
func parseExtraction(rawText string, now time.Time) (*Extraction, error) {
	clean := cleanModelJSON(rawText)

	var fields struct {
		Date     any `json:"date"`
		Ticker   any `json:"ticker"`
		Name     any `json:"name"`
		Price    any `json:"price"`
		Quantity any `json:"quantity"`
		Type     any `json:"type"`
	}
	if err := json.Unmarshal([]byte(clean), &fields); err != nil {
		return nil, fmt.Errorf("capture: unmarshal model JSON: %w\nraw response: %s", err, rawText)
	}

	e := &Extraction{
		Date:     stringOr(fields.Date, ""),
		Ticker:   stringOr(fields.Ticker, ""),
		Name:     stringOr(fields.Name, ""),
		Price:    NumberOrZero(fields.Price),
		Quantity: NumberOrZero(fields.Quantity),
		Type:     store.ParseTxType(strings.ToUpper(stringOr(fields.Type, ""))),
	}

	if _, err := time.Parse("2006-01-02", e.Date); err != nil {
		e.Date = now.Format("2006-01-02")
	}

	return e, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk when the model
// ignores the raw-JSON instruction, keeping only the outermost object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return fallback
}

// NumberOrZero converts a loosely typed amount to a decimal. Strings may
// carry thousands separators, currency symbols, or unit suffixes ("1,234원",
// "$1,234.56"); anything unparsable becomes zero rather than an error.
func NumberOrZero(v any) decimal.Decimal {
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val)
	case string:
		cleaned := cleanNumeric(val)
		if cleaned == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// cleanNumeric keeps digits, one leading sign, and decimal points.
func cleanNumeric(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
