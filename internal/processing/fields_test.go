package processing_test

import (
	"encoding/json"
	"testing"

	"github.com/DeafMist/docsearch/internal/processing"
	"github.com/stretchr/testify/require"
)

func TestExtractInvoiceFields(t *testing.T) {
	text := "TAX INVOICE\nVendor: CDG\nInvoice Number: INV-2023-015\nDate: 2023-10-26\nSubtotal: 7,000.00\nTotal Amount: $7,500.00\n"

	got := processing.ExtractFields(processing.TypeInvoice, text)
	require.Equal(t, map[string]any{
		"vendor":         "CDG",
		"invoice_number": "INV-2023-015",
		"date":           "2023-10-26",
		"total_amount":   json.Number("7500.00"),
	}, got)
}

func TestExtractReceiptFieldsFallsBackToFirstLine(t *testing.T) {
	text := "\n  Corner Cafe\n2024-01-05\nTOTAL: 12.50\n"

	got := processing.ExtractFields(processing.TypeReceipt, text)
	require.Equal(t, map[string]any{
		"merchant": "Corner Cafe",
		"date":     "2024-01-05",
		"total":    json.Number("12.50"),
	}, got)
}

func TestExtractFieldsUnknownType(t *testing.T) {
	require.Nil(t, processing.ExtractFields(processing.TypeReport, "Total: 5"))
	require.Nil(t, processing.ExtractFields(processing.TypeInvoice, "nothing useful"))
}
