// Package page is an in-memory rendition of the upload and search pages.
// Each region implements the matching interface from package workflow.
package page

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/DeafMist/docsearch/internal/workflow"
)

// PanelSet holds the empty, loading and result panels.
type PanelSet struct {
	mu      sync.Mutex
	visible map[workflow.PanelState]bool
	history []workflow.PanelState
}

func newPanelSet() *PanelSet {
	return &PanelSet{visible: map[workflow.PanelState]bool{workflow.PanelEmpty: true}}
}

// Show makes state the only visible panel.
func (p *PanelSet) Show(state workflow.PanelState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for s := range p.visible {
		delete(p.visible, s)
	}
	p.visible[state] = true
	p.history = append(p.history, state)
}

// Visible returns the visible panel.
func (p *PanelSet) Visible() workflow.PanelState {
	p.mu.Lock()
	defer p.mu.Unlock()
	for s := range p.visible {
		return s
	}
	return workflow.PanelEmpty
}

// VisibleCount returns how many panels are visible.
func (p *PanelSet) VisibleCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.visible)
}

// History lists every state passed to Show, in order.
func (p *PanelSet) History() []workflow.PanelState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]workflow.PanelState(nil), p.history...)
}

// ResultPanel shows the processed document.
type ResultPanel struct {
	mu      sync.Mutex
	content workflow.ResultContent
}

func (r *ResultPanel) SetResult(content workflow.ResultContent) {
	r.mu.Lock()
	r.content = content
	r.mu.Unlock()
}

func (r *ResultPanel) Content() workflow.ResultContent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.content
}

// Notifications records user-facing alerts.
type Notifications struct {
	mu       sync.Mutex
	messages []string
}

func (n *Notifications) Notify(message string) {
	n.mu.Lock()
	n.messages = append(n.messages, message)
	n.mu.Unlock()
}

func (n *Notifications) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

// Text is a field or a label.
type Text struct {
	mu    sync.Mutex
	value string
}

func (t *Text) SetValue(value string) { t.set(value) }
func (t *Text) SetText(text string)   { t.set(text) }

func (t *Text) set(v string) {
	t.mu.Lock()
	t.value = v
	t.mu.Unlock()
}

func (t *Text) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

// List is a result list that is only ever replaced as a whole.
type List struct {
	mu          sync.Mutex
	items       []workflow.ListItem
	placeholder string
}

func (l *List) Replace(items []workflow.ListItem) {
	l.mu.Lock()
	l.items = append([]workflow.ListItem(nil), items...)
	l.placeholder = ""
	l.mu.Unlock()
}

func (l *List) ShowEmpty(message string) {
	l.mu.Lock()
	l.items = nil
	l.placeholder = message
	l.mu.Unlock()
}

func (l *List) Items() []workflow.ListItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]workflow.ListItem(nil), l.items...)
}

func (l *List) Placeholder() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.placeholder
}

// Location is the address bar.
type Location struct {
	mu      sync.Mutex
	current string
	visits  []string
}

func (l *Location) Navigate(location string) {
	l.mu.Lock()
	l.current = location
	l.visits = append(l.visits, location)
	l.mu.Unlock()
}

func (l *Location) Current() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

func (l *Location) Visits() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.visits...)
}

// Page groups every region of the app.
type Page struct {
	Panels        *PanelSet
	Result        *ResultPanel
	Notifications *Notifications
	SearchInput   *Text
	Summary       *Text
	Exact         *List
	Semantic      *List
	Location      *Location
}

// New returns a page with the empty panel showing.
func New() *Page {
	return &Page{
		Panels:        newPanelSet(),
		Result:        &ResultPanel{},
		Notifications: &Notifications{},
		SearchInput:   &Text{},
		Summary:       &Text{},
		Exact:         &List{},
		Semantic:      &List{},
		Location:      &Location{},
	}
}

// UploadRegions returns the regions the upload controller owns.
func (p *Page) UploadRegions() workflow.UploadRegions {
	return workflow.UploadRegions{Panels: p.Panels, Result: p.Result, Notifier: p.Notifications}
}

// ResultsRegions returns the regions the results renderer owns.
func (p *Page) ResultsRegions() workflow.ResultsRegions {
	return workflow.ResultsRegions{
		SearchInput: p.SearchInput,
		Summary:     p.Summary,
		Exact:       p.Exact,
		Semantic:    p.Semantic,
	}
}

// RenderUpload writes the state of the upload page.
func (p *Page) RenderUpload(w io.Writer) error {
	ew := &errWriter{w: w}
	state := p.Panels.Visible()
	ew.printf("panel: %s\n", state)
	if state == workflow.PanelResult {
		c := p.Result.Content()
		ew.printf("document type: %s\n", c.DocumentType)
		ew.printf("structured data:\n%s\n", indent(c.StructuredData, "  "))
		ew.printf("pii: %s\n", c.PIISummary)
	}
	for _, msg := range p.Notifications.Messages() {
		ew.printf("alert: %s\n", msg)
	}
	return ew.err
}

// RenderResults writes the state of the results page.
func (p *Page) RenderResults(w io.Writer) error {
	ew := &errWriter{w: w}
	if loc := p.Location.Current(); loc != "" {
		ew.printf("location: %s\n", loc)
	}
	ew.printf("%s\n", p.Summary.String())
	renderList(ew, "Exact matches", p.Exact)
	renderList(ew, "Semantic matches", p.Semantic)
	return ew.err
}

func renderList(ew *errWriter, title string, l *List) {
	items := l.Items()
	ew.printf("\n%s (%d)\n", title, len(items))
	if ph := l.Placeholder(); ph != "" {
		ew.printf("  %s\n", ph)
		return
	}
	for _, item := range items {
		ew.printf("  %s [%s]\n    %s\n", item.Title, item.Badge, item.SnippetHTML)
	}
}

func indent(text, prefix string) string {
	if text == "" {
		return text
	}
	return prefix + strings.ReplaceAll(text, "\n", "\n"+prefix)
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
