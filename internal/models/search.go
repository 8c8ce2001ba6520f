package models

// DocumentHit is one entry of a search result list. Snippet may carry
// <mark>…</mark> highlight markers.
type DocumentHit struct {
	Filename     string `json:"filename"`
	DocumentType string `json:"type"`
	Snippet      string `json:"snippet"`
}

// SearchResultSet holds the lexical and the meaning-based result lists.
type SearchResultSet struct {
	ExactMatches    []DocumentHit `json:"exact_matches"`
	SemanticMatches []DocumentHit `json:"semantic_matches"`
}
