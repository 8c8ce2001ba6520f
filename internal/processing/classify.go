package processing

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Document type labels produced by Classify.
const (
	TypeInvoice  = "invoice"
	TypeReceipt  = "receipt"
	TypeContract = "contract"
	TypeReport   = "report"
)

// Classification is the guessed document type and its confidence in [0, 1].
type Classification struct {
	DocumentType string
	Confidence   float64
}

var (
	invoiceCues  = []string{"invoice", "bill to", "invoice date", "subtotal", "tax invoice", "amount due"}
	receiptCues  = []string{"receipt", "thank you for your purchase", "cashier", "change due", "paid by card"}
	contractCues = []string{"agreement", "contract", "hereinafter", "terms and conditions", "the parties"}
	reportCues   = []string{"report", "executive summary", "introduction", "conclusion"}
)

var moneyPattern = regexp.MustCompile(`\b\d{1,3}(?:[,\s]\d{3})*(?:\.\d+)?\s?(?:usd|thb|krw|jpy|eur|\$)`)

// Classify guesses the document type from keyword cues. Invoice and receipt
// cues cancel each other out; two or more currency amounts fall back to invoice.
func Classify(text string) Classification {
	t := strings.ToLower(text)

	invoice := containsAny(t, invoiceCues)
	receipt := containsAny(t, receiptCues)

	switch {
	case invoice && !receipt:
		return Classification{DocumentType: TypeInvoice, Confidence: 0.80}
	case receipt && !invoice:
		return Classification{DocumentType: TypeReceipt, Confidence: 0.75}
	case containsAny(t, contractCues):
		return Classification{DocumentType: TypeContract, Confidence: 0.72}
	case containsAny(t, reportCues):
		return Classification{DocumentType: TypeReport, Confidence: 0.70}
	}

	if len(moneyPattern.FindAllString(t, -1)) >= 2 {
		return Classification{DocumentType: TypeInvoice, Confidence: 0.65}
	}

	return Classification{DocumentType: TypeReport, Confidence: 0.60}
}

// Label renders the classification the way the result panel shows it,
// e.g. "Invoice (80.0%)".
func (c Classification) Label() string {
	return fmt.Sprintf("%s (%.1f%%)", capitalize(c.DocumentType), c.Confidence*100)
}

func containsAny(text string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(text, cue) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
