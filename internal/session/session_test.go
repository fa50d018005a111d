package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/sitekit/internal/domain"
	"github.com/kailas-cloud/sitekit/internal/domain/catalog"
	"github.com/kailas-cloud/sitekit/internal/domain/search/category"
	"github.com/kailas-cloud/sitekit/internal/metrics"
	"github.com/kailas-cloud/sitekit/internal/repository/item"
	"github.com/kailas-cloud/sitekit/internal/ui"
)

func TestMain(m *testing.M) {
	metrics.RegisterDomainMetrics()
	os.Exit(m.Run())
}

func newCatalog(t *testing.T) *item.Memory {
	t.Helper()
	mem := item.NewMemory()
	mk := func(id, skus, desc, mfg string) catalog.Item {
		it, err := catalog.New(id, "t"+id, skus, desc, mfg)
		if err != nil {
			t.Fatal(err)
		}
		return it
	}
	err := mem.UpsertBatch(context.Background(), []catalog.Item{
		mk("1", "BOLT-1", "Steel hex bolt", "M-1"),
		mk("2", "NUT-2", "Brass nut", "M-2"),
	})
	if err != nil {
		t.Fatal(err)
	}
	return mem
}

func ptr(s string) *string { return &s }

func TestManager_CreateLoadsUnfilteredView(t *testing.T) {
	m := NewManager(newCatalog(t), Config{TTL: time.Minute, PageSize: 10}, nil)
	defer m.Close()

	s, err := m.Create(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := s.Page.Results.View()
	if !v.Filter.IsEmpty() || v.Total != 2 {
		t.Errorf("unexpected initial view: %+v", v)
	}
	if s.Page.Category.Value() != string(category.SKUs) {
		t.Errorf("default category = %q", s.Page.Category.Value())
	}

	got, err := m.Get(s.Page.ID)
	if err != nil || got != s {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d", m.Len())
	}
}

func TestManager_GetUnknown(t *testing.T) {
	m := NewManager(newCatalog(t), Config{TTL: time.Minute}, nil)
	defer m.Close()

	if _, err := m.Get("nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestManager_IdleExpiry(t *testing.T) {
	m := NewManager(newCatalog(t), Config{TTL: 20 * time.Millisecond}, nil)
	defer m.Close()

	s, err := m.Create(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)

	if _, err := m.Get(s.Page.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected expired session, got %v", err)
	}
}

func TestSession_Dispatch(t *testing.T) {
	m := NewManager(newCatalog(t), Config{TTL: time.Minute}, nil)
	defer m.Close()
	ctx := context.Background()

	s, err := m.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}

	v, err := s.Dispatch(ctx, Event{Type: EventClick, Input: ptr("bolt")})
	if err != nil {
		t.Fatalf("click: %v", err)
	}
	if v.Total != 1 || v.Items[0].ID() != "1" {
		t.Errorf("after click: %+v", v)
	}

	v, err = s.Dispatch(ctx, Event{
		Type: EventKeyPress, Key: ui.KeyEnter,
		Input: ptr("brass"), Category: ptr(string(category.Description)),
	})
	if err != nil {
		t.Fatalf("keypress: %v", err)
	}
	if v.Total != 1 || v.Items[0].ID() != "2" {
		t.Errorf("after Enter: %+v", v)
	}

	// Other keys do not trigger a search.
	v, _ = s.Dispatch(ctx, Event{Type: EventKeyPress, Key: "a", Input: ptr("")})
	if v.Filter.Value() != "brass" {
		t.Errorf("non-Enter key changed the filter: %s", v.Filter)
	}

	v, _ = s.Dispatch(ctx, Event{Type: EventClick})
	if !v.Filter.IsEmpty() || v.Total != 2 {
		t.Errorf("blank text should clear the filter: %+v", v)
	}
}

func TestSession_DispatchInvalid(t *testing.T) {
	m := NewManager(newCatalog(t), Config{TTL: time.Minute}, nil)
	defer m.Close()

	s, err := m.Create(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	for _, ev := range []Event{{Type: "hover"}, {Type: EventKeyPress}} {
		if _, err := s.Dispatch(context.Background(), ev); !errors.Is(err, domain.ErrInvalidEvent) {
			t.Errorf("%+v: expected ErrInvalidEvent, got %v", ev, err)
		}
	}
}

func TestManager_Delete(t *testing.T) {
	m := NewManager(newCatalog(t), Config{TTL: time.Minute}, nil)
	defer m.Close()

	s, err := m.Create(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	m.Delete(s.Page.ID)
	m.Delete("never-created")

	if _, err := m.Get(s.Page.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after Delete, got %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestSession_DispatchConcurrentEventsKeepTheirValues(t *testing.T) {
	m := NewManager(newCatalog(t), Config{TTL: time.Minute, PageSize: 10}, nil)
	defer m.Close()

	s, err := m.Create(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	events := []struct {
		text     string
		category string
	}{
		{"bolt", string(category.SKUs)},
		{"brass", string(category.Description)},
	}

	const rounds = 200
	var wg sync.WaitGroup
	errs := make(chan error, rounds*len(events))
	for _, ev := range events {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range rounds {
				snap, err := s.Dispatch(context.Background(), Event{
					Type:     EventClick,
					Input:    ptr(ev.text),
					Category: ptr(ev.category),
				})
				if err != nil {
					errs <- err
					return
				}
				if snap.Filter.Value() != ev.text || snap.Total != 1 {
					errs <- fmt.Errorf("event %q got view %s (total %d)", ev.text, snap.Filter, snap.Total)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
