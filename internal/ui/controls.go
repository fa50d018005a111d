// Package ui models the page controls the search controller is bound to.
// Controls hold values and dispatch events synchronously; nothing is rendered.
package ui

import (
	"context"
	"sync"
)

// KeyEnter is the key name delivered when Enter is pressed.
const KeyEnter = "Enter"

// KeyHandler handles a key press on a text input.
type KeyHandler func(ctx context.Context, key string)

// ClickHandler handles a button click.
type ClickHandler func(ctx context.Context)

// TextInput is a single-line text box.
type TextInput struct {
	mu       sync.RWMutex
	value    string
	handlers []KeyHandler
}

// NewTextInput creates an empty text input.
func NewTextInput() *TextInput { return &TextInput{} }

// Value returns the current text.
func (t *TextInput) Value() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.value
}

// SetValue replaces the current text.
func (t *TextInput) SetValue(v string) {
	t.mu.Lock()
	t.value = v
	t.mu.Unlock()
}

// OnKeyPress registers a key press handler.
func (t *TextInput) OnKeyPress(h KeyHandler) {
	t.mu.Lock()
	t.handlers = append(t.handlers, h)
	t.mu.Unlock()
}

// Press dispatches a key press to every registered handler in order.
func (t *TextInput) Press(ctx context.Context, key string) {
	t.mu.RLock()
	handlers := append([]KeyHandler(nil), t.handlers...)
	t.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, key)
	}
}

// Dropdown is a single-select list.
type Dropdown struct {
	mu      sync.RWMutex
	value   string
	options []string
}

// NewDropdown creates a dropdown preselecting the first option, if any.
func NewDropdown(options ...string) *Dropdown {
	d := &Dropdown{options: options}
	if len(options) > 0 {
		d.value = options[0]
	}
	return d
}

// Value returns the selected option. It is not checked against Options.
func (d *Dropdown) Value() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.value
}

// SetValue selects a value.
func (d *Dropdown) SetValue(v string) {
	d.mu.Lock()
	d.value = v
	d.mu.Unlock()
}

// Options returns a copy of the option list.
func (d *Dropdown) Options() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.options...)
}

// Button dispatches click events.
type Button struct {
	mu       sync.RWMutex
	handlers []ClickHandler
}

// NewButton creates a button with no handlers.
func NewButton() *Button { return &Button{} }

// OnClick registers a click handler.
func (b *Button) OnClick(h ClickHandler) {
	b.mu.Lock()
	b.handlers = append(b.handlers, h)
	b.mu.Unlock()
}

// Click dispatches a click to every registered handler in order.
func (b *Button) Click(ctx context.Context) {
	b.mu.RLock()
	handlers := append([]ClickHandler(nil), b.handlers...)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx)
	}
}
