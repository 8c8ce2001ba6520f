package processing

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	vendorPattern        = regexp.MustCompile(`(?im)^\s*(?:vendor|seller|supplier|from)\s*[:\-]\s*(.+?)\s*$`)
	merchantPattern      = regexp.MustCompile(`(?im)^\s*(?:merchant|store)\s*[:\-]\s*(.+?)\s*$`)
	invoiceNumberPattern = regexp.MustCompile(`(?i)invoice\s*(?:no\.?|number|#)\s*[:\-]?\s*([A-Z0-9][A-Z0-9\-/]*)`)
	isoDatePattern       = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	totalPattern         = regexp.MustCompile(`(?i)\btotal(?:\s+amount)?(?:\s+due)?\s*[:\-]?\s*(?:[$€£]|usd|eur|thb)?\s*(\d[\d,]*(?:\.\d{1,2})?)`)
)

// ExtractFields pulls the structured fields relevant for docType out of text.
// Amounts are returned as json.Number so the original precision survives
// serialization. Types without an extractor yield nil.
func ExtractFields(docType, text string) map[string]any {
	switch docType {
	case TypeInvoice:
		return collect(map[string]any{
			"vendor":         firstGroup(vendorPattern, text),
			"invoice_number": firstGroup(invoiceNumberPattern, text),
			"date":           firstGroup(isoDatePattern, text),
			"total_amount":   amount(firstGroup(totalPattern, text)),
		})
	case TypeReceipt:
		merchant := firstGroup(merchantPattern, text)
		if merchant == "" {
			merchant = firstLine(text)
		}
		return collect(map[string]any{
			"merchant": merchant,
			"date":     firstGroup(isoDatePattern, text),
			"total":    amount(firstGroup(totalPattern, text)),
		})
	default:
		return nil
	}
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func amount(raw string) any {
	if raw == "" {
		return nil
	}
	return json.Number(strings.ReplaceAll(raw, ",", ""))
}

func collect(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			if val == "" {
				continue
			}
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
