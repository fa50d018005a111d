package search

import (
	"context"

	"github.com/kailas-cloud/sitekit/internal/domain/search/filter"
	"github.com/kailas-cloud/sitekit/internal/ui"
)

// ValueSource is a control whose current value can be read (text box, dropdown).
type ValueSource interface {
	Value() string
}

// ResultSet accepts the active filter predicate for a trigger revision.
type ResultSet interface {
	SetFilter(ctx context.Context, revision uint64, p filter.Predicate) error
}

// ClickSource is a control that emits clicks.
type ClickSource interface {
	OnClick(h ui.ClickHandler)
}

// KeySource is a control that emits key presses.
type KeySource interface {
	OnKeyPress(h ui.KeyHandler)
}
