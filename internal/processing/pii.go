package processing

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// PII kinds reported by DetectPII.
const (
	PIIEmail  = "EMAIL"
	PIIPhone  = "PHONE"
	PIISSN    = "SSN"
	PIIThaiID = "THAI_ID"
)

// PIIMatch is one detected item with its byte span in the scanned text.
type PIIMatch struct {
	Kind  string
	Text  string
	Start int
	End   int
}

type piiRule struct {
	kind      string
	re        *regexp.Regexp
	minDigits int
}

// Narrow patterns go first: a phone number pattern would also swallow SSNs.
var piiRules = []piiRule{
	{kind: PIISSN, re: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{kind: PIIThaiID, re: regexp.MustCompile(`\b\d-\d{4}-\d{5}-\d{2}-\d\b`)},
	{kind: PIIEmail, re: regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)},
	{kind: PIIPhone, re: regexp.MustCompile(`\+?\d[\d \-]{7,}\d`), minDigits: 9},
}

// DetectPII finds personal data in text. Overlapping matches keep the one
// found by the earlier rule. Phone candidates need nine digits so ISO dates
// are not reported. Results are ordered by position.
func DetectPII(text string) []PIIMatch {
	var found []PIIMatch
	for _, rule := range piiRules {
		for _, loc := range rule.re.FindAllStringIndex(text, -1) {
			if overlaps(found, loc[0], loc[1]) {
				continue
			}
			if countDigits(text[loc[0]:loc[1]]) < rule.minDigits {
				continue
			}
			found = append(found, PIIMatch{
				Kind:  rule.kind,
				Text:  text[loc[0]:loc[1]],
				Start: loc[0],
				End:   loc[1],
			})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Start < found[j].Start })
	return found
}

// Mask hides letters and digits of a detected value but keeps its separators,
// so "123-45-6789" becomes "***-**-****".
func Mask(value string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return '*'
		}
		return r
	}, value)
}

// MaskText replaces every match in text with its mask.
func MaskText(text string, matches []PIIMatch) string {
	if len(matches) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m.Start])
		b.WriteString(Mask(m.Text))
		last = m.End
	}
	b.WriteString(text[last:])
	return b.String()
}

// MaskFields masks string values in fields that contain any of matches or
// that hold PII on their own. fields is modified in place and returned.
func MaskFields(fields map[string]any, matches []PIIMatch) map[string]any {
	for k, v := range fields {
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		for _, m := range matches {
			s = strings.ReplaceAll(s, m.Text, Mask(m.Text))
		}
		fields[k] = MaskText(s, DetectPII(s))
	}
	return fields
}

// SummarizePII renders the result panel line, e.g. "2 items masked: ***-**-****".
// Identical masks are listed once.
func SummarizePII(matches []PIIMatch) string {
	if len(matches) == 0 {
		return "No PII detected"
	}

	seen := make(map[string]struct{}, len(matches))
	masks := make([]string, 0, len(matches))
	for _, m := range matches {
		mask := Mask(m.Text)
		if _, ok := seen[mask]; ok {
			continue
		}
		seen[mask] = struct{}{}
		masks = append(masks, mask)
	}

	noun := "items"
	if len(matches) == 1 {
		noun = "item"
	}
	return fmt.Sprintf("%d %s masked: %s", len(matches), noun, strings.Join(masks, ", "))
}

func overlaps(found []PIIMatch, start, end int) bool {
	for _, m := range found {
		if start < m.End && m.Start < end {
			return true
		}
	}
	return false
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
