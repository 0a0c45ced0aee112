package domain

type SourceLabel string

const (
	SourceManual SourceLabel = "Manual"
	SourceWeb    SourceLabel = "Web"
)

// RetrievalResult is the outcome of one retrieval tier. A result that is
// not usable is a normal outcome, not an error.
type RetrievalResult struct {
	Context    string      `json:"context"`
	Source     SourceLabel `json:"source"`
	Usable     bool        `json:"usable"`
	References []string    `json:"references,omitempty"`
}

func NoContext(source SourceLabel) RetrievalResult {
	return RetrievalResult{Source: source}
}

// LabeledContext is a context handed to the synthesizer with its source.
type LabeledContext struct {
	Source SourceLabel
	Text   string
}

// WebResult is one ranked web search hit.
type WebResult struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}
