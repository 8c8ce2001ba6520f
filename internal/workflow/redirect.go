package workflow

import (
	"net/url"
	"strings"
)

// DefaultResultsPage is where search queries are sent.
const DefaultResultsPage = "search.html"

// ResultsURL builds "<page>?q=<query>" with the trimmed query percent-encoded
// and spaces as %20. It reports false for blank queries.
func ResultsURL(page, query string) (string, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", false
	}
	encoded := strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
	return page + "?q=" + encoded, true
}

// SearchRedirector sends search form submissions to the results page.
type SearchRedirector struct {
	nav  Navigator
	page string
}

// NewSearchRedirector creates a redirector targeting resultsPage, or DefaultResultsPage when empty.
func NewSearchRedirector(nav Navigator, resultsPage string) *SearchRedirector {
	if resultsPage == "" {
		resultsPage = DefaultResultsPage
	}
	return &SearchRedirector{nav: nav, page: resultsPage}
}

// Submit navigates to the results page for ev.Query and reports whether it did.
func (r *SearchRedirector) Submit(ev FormSubmitted) bool {
	location, ok := ResultsURL(r.page, ev.Query)
	if !ok {
		return false
	}
	r.nav.Navigate(location)
	return true
}
