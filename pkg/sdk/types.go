package sitekit

// Item is a catalog record.
type Item struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string `json:"title" yaml:"title"`
	SKUs        string `json:"skUs" yaml:"skUs"`
	Description string `json:"itemDetailedDescription" yaml:"itemDetailedDescription"`
	MfgPartNos  string `json:"mfgPartNos" yaml:"mfgPartNos"`
}

// BatchResult is the outcome of one item in an import.
type BatchResult struct {
	ID  string
	OK  bool
	Err error
}

// Completion is the outcome of a chat completion.
// Kind is one of "secret", "transport", "decode", "upstream", "no_choices" when OK is false.
type Completion struct {
	OK      bool
	Content string
	Kind    string
	Message string

	legacy string
}

// String renders the completion as a single string: the reply,
// "No response generated.", or "Error: <message>".
func (c Completion) String() string { return c.legacy }

// Results is the current view of a search page.
// Field and Value are empty when no filter is active.
type Results struct {
	Field    string
	Value    string
	Items    []Item
	Total    int
	Revision uint64
}
