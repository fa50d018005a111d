package ui

import "github.com/kailas-cloud/sitekit/internal/dataset"

// Page groups one set of search controls with the result set they drive.
type Page struct {
	ID       string
	Input    *TextInput
	Category *Dropdown
	Button   *Button
	Results  *dataset.Dataset
}

// NewPage creates a page with fresh controls. categories become the dropdown options.
func NewPage(id string, results *dataset.Dataset, categories ...string) *Page {
	return &Page{
		ID:       id,
		Input:    NewTextInput(),
		Category: NewDropdown(categories...),
		Button:   NewButton(),
		Results:  results,
	}
}
