package processing

// AnalyzeOptions bounds the summary and keyword output.
type AnalyzeOptions struct {
	SummaryWords     int
	KeywordLimit     int
	KeywordMinLength int
}

// Analysis is everything the worker derives from a document's text.
type Analysis struct {
	Classification Classification
	Fields         map[string]any
	PII            []PIIMatch
	PIISummary     string
	MaskedText     string
	Summary        string
	Keywords       []string
}

// Analyze runs classification, field extraction and PII masking over text.
// Fields are extracted from the raw text and then masked; summary and
// keywords come from the masked text so indexed content never carries raw PII.
func Analyze(text string, opts AnalyzeOptions) Analysis {
	class := Classify(text)
	pii := DetectPII(text)
	masked := MaskText(text, pii)

	return Analysis{
		Classification: class,
		Fields:         MaskFields(ExtractFields(class.DocumentType, text), pii),
		PII:            pii,
		PIISummary:     SummarizePII(pii),
		MaskedText:     masked,
		Summary:        Summarize(masked, opts.SummaryWords),
		Keywords:       ExtractKeywords(CleanText(masked), opts.KeywordLimit, opts.KeywordMinLength),
	}
}
