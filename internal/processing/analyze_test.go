package processing_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/docsearch/internal/processing"
)

func TestAnalyzeInvoice(t *testing.T) {
	text := "Invoice from CDG. Contact billing@cdg.example for questions.\n" +
		"Vendor: CDG\n" +
		"Invoice No: INV-2023-015\n" +
		"Date: 2023-10-26\n" +
		"SSN: 123-45-6789\n" +
		"Total: 7,500.00\n"

	a := processing.Analyze(text, processing.AnalyzeOptions{SummaryWords: 30, KeywordLimit: 5, KeywordMinLength: 4})

	require.Equal(t, "Invoice (80.0%)", a.Classification.Label())
	require.Equal(t, "CDG", a.Fields["vendor"])
	require.Equal(t, "INV-2023-015", a.Fields["invoice_number"])
	require.Equal(t, "2023-10-26", a.Fields["date"])
	require.Equal(t, json.Number("7500.00"), a.Fields["total_amount"])

	require.Len(t, a.PII, 2)
	require.Equal(t, "2 items masked: *******@***.*******, ***-**-****", a.PIISummary)
	require.NotContains(t, a.MaskedText, "123-45-6789")
	require.NotContains(t, a.MaskedText, "billing@cdg.example")
	require.Equal(t, "Invoice from CDG", a.Summary)
	require.NotEmpty(t, a.Keywords)
	require.LessOrEqual(t, len(a.Keywords), 5)
}

func TestAnalyzeWithoutPII(t *testing.T) {
	a := processing.Analyze("Quarterly report. Revenue grew.", processing.AnalyzeOptions{SummaryWords: 10, KeywordLimit: 3, KeywordMinLength: 3})
	require.Equal(t, processing.TypeReport, a.Classification.DocumentType)
	require.Nil(t, a.Fields)
	require.Empty(t, a.PII)
	require.Equal(t, "No PII detected", a.PIISummary)
	require.Equal(t, "Quarterly report", a.Summary)
}

func TestAnalyzeMasksPIIInFields(t *testing.T) {
	text := "Invoice\n" +
		"Vendor: john.doe@example.com\n" +
		"Invoice No: INV-7\n" +
		"Total: 120.00\n"

	a := processing.Analyze(text, processing.AnalyzeOptions{SummaryWords: 10, KeywordLimit: 3, KeywordMinLength: 3})

	require.Equal(t, "****.***@*******.***", a.Fields["vendor"])
	require.Equal(t, "INV-7", a.Fields["invoice_number"])
	require.Equal(t, json.Number("120.00"), a.Fields["total_amount"])
	require.Equal(t, "1 item masked: ****.***@*******.***", a.PIISummary)
}
