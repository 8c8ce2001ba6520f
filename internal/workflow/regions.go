package workflow

// PanelState selects which of the three upload panels is visible.
type PanelState int

const (
	PanelEmpty PanelState = iota
	PanelLoading
	PanelResult
)

func (s PanelState) String() string {
	switch s {
	case PanelEmpty:
		return "empty"
	case PanelLoading:
		return "loading"
	case PanelResult:
		return "result"
	default:
		return "unknown"
	}
}

// Panels switches the upload panel set. Show must leave exactly the given
// panel visible.
type Panels interface {
	Show(state PanelState)
}

// ResultContent is what the result panel displays.
type ResultContent struct {
	DocumentType   string
	StructuredData string
	PIISummary     string
}

// ResultView holds the three fields of the result panel.
type ResultView interface {
	SetResult(content ResultContent)
}

// Notifier shows a message to the user.
type Notifier interface {
	Notify(message string)
}

// TextField is an editable single-line input.
type TextField interface {
	SetValue(value string)
}

// TextView is a read-only line of text.
type TextView interface {
	SetText(text string)
}

// ListItem is one rendered search hit.
type ListItem struct {
	Title       string
	Badge       string
	SnippetHTML string
}

// ListView is a container whose contents are replaced wholesale.
type ListView interface {
	Replace(items []ListItem)
	ShowEmpty(message string)
}

// Navigator changes the current location.
type Navigator interface {
	Navigate(location string)
}
