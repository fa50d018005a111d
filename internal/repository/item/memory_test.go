package item

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/sitekit/internal/domain"
	"github.com/kailas-cloud/sitekit/internal/domain/catalog"
	"github.com/kailas-cloud/sitekit/internal/domain/search/category"
	"github.com/kailas-cloud/sitekit/internal/domain/search/filter"
)

func seedMemory(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory()
	err := m.UpsertBatch(context.Background(), []catalog.Item{
		makeItem(t, "3", "NUT-10", "Brass hex nut", "MFG-77"),
		makeItem(t, "1", "BOLT-1,BOLT-2", "Steel hex bolt", "MFG-1"),
		makeItem(t, "2", "WASH-5", "Rubber washer", "ABC-123"),
	})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestMemory_QueryContains(t *testing.T) {
	m := seedMemory(t)

	tests := []struct {
		field, value string
		want         []string
	}{
		{"skUs", "bolt", []string{"1"}},
		{"skUs", "BOLT-2", []string{"1"}},
		{"itemDetailedDescription", "HEX", []string{"1", "3"}},
		{"mfgPartNos", "abc", []string{"2"}},
		{"mfgPartNos", "zzz", nil},
	}
	for _, tc := range tests {
		t.Run(tc.field+"/"+tc.value, func(t *testing.T) {
			p, err := filter.Contains(tc.field, tc.value)
			if err != nil {
				t.Fatal(err)
			}
			items, total, err := m.Query(context.Background(), p, 0, 10)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if total != len(tc.want) || len(items) != len(tc.want) {
				t.Fatalf("got %d/%d items, want %v", len(items), total, tc.want)
			}
			for i, id := range tc.want {
				if items[i].ID() != id {
					t.Errorf("items[%d] = %s, want %s", i, items[i].ID(), id)
				}
			}
		})
	}
}

func TestMemory_QueryListValues(t *testing.T) {
	m := seedMemory(t)

	tests := []struct {
		category category.Category
		text     string
		total    int
	}{
		{category.SKUs, "bolt-2", 1},
		{category.SKUs, "1,BOLT", 0},
		{category.ManufacturerPNs, "mfg-", 2},
	}
	for _, tc := range tests {
		t.Run(string(tc.category)+"/"+tc.text, func(t *testing.T) {
			p, ok := tc.category.Predicate(tc.text)
			if !ok {
				t.Fatal("predicate not built")
			}
			_, total, err := m.Query(context.Background(), p, 0, 10)
			if err != nil {
				t.Fatal(err)
			}
			if total != tc.total {
				t.Errorf("total = %d, want %d", total, tc.total)
			}
		})
	}
}

func TestMemory_QueryEmptyPredicatePaged(t *testing.T) {
	m := seedMemory(t)

	items, total, err := m.Query(context.Background(), filter.Empty(), 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 || len(items) != 1 || items[0].ID() != "2" {
		t.Errorf("total=%d items=%v", total, items)
	}

	items, total, _ = m.Query(context.Background(), filter.Empty(), 5, 10)
	if total != 3 || len(items) != 0 {
		t.Errorf("offset past end: total=%d items=%d", total, len(items))
	}
}

func TestMemory_GetDelete(t *testing.T) {
	m := seedMemory(t)
	ctx := context.Background()

	if _, err := m.Get(ctx, "2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Delete(ctx, "2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.Get(ctx, "2"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := m.Delete(ctx, "2"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := m.EnsureIndex(ctx); err != nil {
		t.Errorf("EnsureIndex: %v", err)
	}
}
