package processing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/docsearch/internal/processing"
)

func TestDetectType(t *testing.T) {
	tests := []struct {
		name        string
		ext         string
		contentType string
		ok          bool
	}{
		{name: "scan.PDF", ext: ".pdf", contentType: "application/pdf", ok: true},
		{name: "notes.txt", ext: ".txt", contentType: "text/plain", ok: true},
		{name: "photo.jpeg", ext: ".jpeg", contentType: "image/jpeg", ok: true},
		{name: "dir/letter.docx", ext: ".docx", contentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", ok: true},
		{name: "run.exe", ext: ".exe", ok: false},
		{name: "README", ext: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, ct, ok := processing.DetectType(tt.name)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.ext, ext)
			require.Equal(t, tt.contentType, ct)
		})
	}
}

func TestIsTextual(t *testing.T) {
	require.True(t, processing.IsTextual("text/plain; charset=utf-8"))
	require.True(t, processing.IsTextual("text/csv"))
	require.True(t, processing.IsTextual("application/json"))
	require.False(t, processing.IsTextual("application/pdf"))
	require.False(t, processing.IsTextual("image/png"))
}

func TestExtractText(t *testing.T) {
	require.Equal(t, "Invoice No: 7", processing.ExtractText([]byte("  Invoice No: 7\n"), "text/plain", "a.txt"))
	require.Equal(t, "Client Contract Alpha", processing.ExtractText([]byte("%PDF-1.7"), "application/pdf", "uploads/Client_Contract-Alpha.pdf"))
	require.Equal(t, "empty", processing.ExtractText([]byte("   "), "text/plain", "empty.txt"))
	require.Equal(t, "bad", processing.ExtractText([]byte{0xff, 0xfe}, "text/plain", "bad.txt"))
}
