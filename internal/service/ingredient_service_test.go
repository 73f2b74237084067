package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grubyapp/gruby/internal/ai"
	"github.com/grubyapp/gruby/internal/kroger"
	appErr "github.com/grubyapp/gruby/internal/pkg/errors"
	"github.com/grubyapp/gruby/internal/repo"
	"github.com/grubyapp/gruby/internal/testutil"
)

type ingredientFixture struct {
	svc      *IngredientService
	repo     *repo.IngredientRepo
	embedder *keywordEmbedder
	searcher *fakeSearcher
	now      time.Time
}

func newIngredientFixture(t *testing.T) *ingredientFixture {
	t.Helper()
	f := &ingredientFixture{
		embedder: &keywordEmbedder{},
		searcher: &fakeSearcher{},
		now:      time.Unix(1_700_000_000, 0),
	}
	clock := func() time.Time { return f.now }
	conn := testutil.OpenTestDB(t)
	f.repo = repo.NewIngredientRepo(conn)
	products := newProductService(t, f.searcher, clock)
	f.svc = NewIngredientService(f.repo, f.embedder, products, 0.5)
	f.svc.now = clock
	return f
}

func TestIngredientCreateNormalizesAndEmbeds(t *testing.T) {
	f := newIngredientFixture(t)
	ctx := context.Background()

	item, err := f.svc.Create(ctx, "  Whole MILK ")
	require.NoError(t, err)
	require.Equal(t, "whole milk", item.Name)
	require.NotEmpty(t, item.ID)

	stored, err := f.svc.Get(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, stored.Embedding, len(keywordAxes)+1)

	_, err = f.svc.Create(ctx, "whole milk")
	require.ErrorIs(t, err, appErr.ErrConflict)
	_, err = f.svc.Create(ctx, "   ")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestIngredientCreateLeavesPendingOnEmbedFailure(t *testing.T) {
	f := newIngredientFixture(t)
	ctx := context.Background()
	f.embedder.err = ai.ErrNotConfigured

	item, err := f.svc.Create(ctx, "egg")
	require.NoError(t, err)
	stored, err := f.svc.Get(ctx, item.ID)
	require.NoError(t, err)
	require.Empty(t, stored.Embedding)

	n, err := f.svc.EmbedPending(ctx, 10)
	require.ErrorIs(t, err, ai.ErrNotConfigured)
	require.Zero(t, n)

	f.embedder.err = nil
	n, err = f.svc.EmbedPending(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	stored, err = f.svc.Get(ctx, item.ID)
	require.NoError(t, err)
	require.NotEmpty(t, stored.Embedding)

	n, err = f.svc.EmbedPending(ctx, 10)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestIngredientSearchRanksBySimilarity(t *testing.T) {
	f := newIngredientFixture(t)
	ctx := context.Background()
	for _, name := range []string{"whole milk", "egg", "butter", "milk butter"} {
		_, err := f.svc.Create(ctx, name)
		require.NoError(t, err)
	}

	hits, err := f.svc.Search(ctx, "skim milk", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "whole milk", hits[0].Ingredient.Name)
	require.Equal(t, "milk butter", hits[1].Ingredient.Name)
	require.Greater(t, hits[0].Score, hits[1].Score)

	hits, err = f.svc.Search(ctx, "skim milk", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	f.embedder.err = &ai.ProviderError{Provider: "fake", Err: fmt.Errorf("boom")}
	_, err = f.svc.Search(ctx, "milk", 10)
	require.True(t, ai.IsProviderError(err))
}

func TestIngredientSyncProductLinkGate(t *testing.T) {
	f := newIngredientFixture(t)
	ctx := context.Background()
	item, err := f.svc.Create(ctx, "bread flour")
	require.NoError(t, err)

	// first link is always taken
	f.searcher.products = []kroger.Product{product(t, "p1", "Flour All Purpose")}
	res, err := f.svc.SyncProductLink(ctx, item.ID, "store-1")
	require.NoError(t, err)
	require.True(t, res.Updated)
	require.Equal(t, "p1", res.Ingredient.KrogerProductID)
	require.InDelta(t, 1.0/3.0, *res.Ingredient.LinkConfidence, 1e-9)

	// clearly better candidate replaces it
	f.now = f.now.Add(time.Hour)
	f.searcher.products = []kroger.Product{product(t, "p2", "Bread Flour Bag")}
	res, err = f.svc.SyncProductLink(ctx, item.ID, "store-2")
	require.NoError(t, err)
	require.True(t, res.Updated)

	stored, err := f.svc.Get(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, "p2", stored.KrogerProductID)
	require.InDelta(t, 0.9, *stored.LinkConfidence, 1e-9)
	require.Equal(t, f.now.Unix(), *stored.LinkUpdatedAt)

	// weaker candidate on a fresh link is rejected
	f.now = f.now.Add(24 * time.Hour)
	f.searcher.products = []kroger.Product{product(t, "p3", "Bread Rolls")}
	res, err = f.svc.SyncProductLink(ctx, item.ID, "store-3")
	require.NoError(t, err)
	require.False(t, res.Updated)
	require.Equal(t, "p3", res.Match.ProductID)
	stored, err = f.svc.Get(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, "p2", stored.KrogerProductID)

	// once the link is older than a week any candidate replaces it
	f.now = f.now.Add(7 * 24 * time.Hour)
	res, err = f.svc.SyncProductLink(ctx, item.ID, "store-4")
	require.NoError(t, err)
	require.True(t, res.Updated)
	require.Equal(t, "p3", res.Ingredient.KrogerProductID)
}

func TestIngredientSyncProductLinkErrors(t *testing.T) {
	f := newIngredientFixture(t)
	ctx := context.Background()

	_, err := f.svc.SyncProductLink(ctx, "missing", "store-1")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	item, err := f.svc.Create(ctx, "egg")
	require.NoError(t, err)
	_, err = f.svc.SyncProductLink(ctx, item.ID, "store-1")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}
