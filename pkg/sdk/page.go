package sitekit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/sitekit/internal/dataset"
	"github.com/kailas-cloud/sitekit/internal/domain/search/category"
	"github.com/kailas-cloud/sitekit/internal/session"
)

// Page is one search page: a text input, a category dropdown and a result set.
// Pages expire after the session TTL of inactivity.
type Page struct {
	sess *session.Session
	obs  *observer
}

// NewPage opens a page showing the unfiltered catalog.
func (c *Client) NewPage(ctx context.Context) (_ *Page, err error) {
	start := time.Now()
	defer func() { c.obs.observe("new_page", start, err) }()

	s, err := c.pages.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}
	return &Page{sess: s, obs: c.obs}, nil
}

// ID returns the page identifier.
func (p *Page) ID() string { return p.sess.Page.ID }

// Search types text into the input, selects cat and clicks the search button.
// Blank text clears the filter whatever the category. Non-blank text with a
// category outside Client.Categories returns ErrUnknownCategory and keeps the results.
func (p *Page) Search(ctx context.Context, cat, text string) (_ Results, err error) {
	start := time.Now()
	defer func() { p.obs.observe("search", start, err) }()

	if strings.TrimSpace(text) != "" && !category.Category(cat).IsValid() {
		return p.Results(), fmt.Errorf("search %q: %w", cat, ErrUnknownCategory)
	}

	snap, err := p.sess.Dispatch(ctx, session.Event{
		Type:     session.EventClick,
		Input:    &text,
		Category: &cat,
	})
	if err != nil {
		return Results{}, fmt.Errorf("search: %w", err)
	}
	return resultsFromSnapshot(snap), nil
}

// Results returns the current result set.
func (p *Page) Results() Results {
	return resultsFromSnapshot(p.sess.Page.Results.View())
}

func resultsFromSnapshot(snap dataset.Snapshot) Results {
	items := make([]Item, len(snap.Items))
	for i, it := range snap.Items {
		items[i] = itemFromDomain(it)
	}
	return Results{
		Field:    snap.Filter.Field(),
		Value:    snap.Filter.Value(),
		Items:    items,
		Total:    snap.Total,
		Revision: snap.Revision,
	}
}
