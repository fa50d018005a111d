package sitekit

import (
	"context"

	dombatch "github.com/kailas-cloud/sitekit/internal/domain/batch"
	domcat "github.com/kailas-cloud/sitekit/internal/domain/catalog"
	domcompletion "github.com/kailas-cloud/sitekit/internal/domain/completion"
	catalogsvc "github.com/kailas-cloud/sitekit/internal/usecase/catalog"
)

// --- completionUseCase mock ---

type mockCompletionUC struct {
	getCompletionFn func(ctx context.Context, prompt string) domcompletion.Result
}

func (m *mockCompletionUC) GetCompletion(ctx context.Context, prompt string) domcompletion.Result {
	return m.getCompletionFn(ctx, prompt)
}

// --- catalogUseCase mock ---

type mockCatalogUC struct {
	importFn func(ctx context.Context, in []catalogsvc.ItemInput) ([]dombatch.Result, error)
	getFn    func(ctx context.Context, id string) (domcat.Item, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockCatalogUC) Import(ctx context.Context, in []catalogsvc.ItemInput) ([]dombatch.Result, error) {
	return m.importFn(ctx, in)
}

func (m *mockCatalogUC) Get(ctx context.Context, id string) (domcat.Item, error) {
	return m.getFn(ctx, id)
}

func (m *mockCatalogUC) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

// --- helpers ---

func testClient(completion completionUseCase, catalog catalogUseCase) *Client {
	return &Client{
		completion: completion,
		catalog:    catalog,
	}
}
