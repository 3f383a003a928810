package service

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/models"
	"storefront/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededCatalog(t *testing.T) (*Catalog, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend(
		testProduct("p1", "RO Filter", "Water Filters", "100"),
		testProduct("p2", "Solar Cooler", "Solar Coolers", "200"),
		testProduct("p3", "Panel", "Solar Panels", "300"),
	)
	catalog := NewCatalog(backend)
	catalog.Refresh(context.Background())
	require.NoError(t, catalog.Err())
	require.Len(t, catalog.Products(), 3)
	return catalog, backend
}

func productIDs(products []models.Product) []string {
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestCatalogRefreshFailureKeepsStaleCache(t *testing.T) {
	catalog, backend := seededCatalog(t)

	backend.listErr = errors.New("connection refused")
	catalog.Refresh(context.Background())

	assert.Error(t, catalog.Err())
	assert.Equal(t, []string{"p1", "p2", "p3"}, productIDs(catalog.Products()))
	assert.False(t, catalog.Loading())

	backend.listErr = nil
	catalog.Refresh(context.Background())
	assert.NoError(t, catalog.Err())
}

func TestCatalogCreateRefreshes(t *testing.T) {
	catalog, backend := seededCatalog(t)
	before := backend.calls()

	created, err := catalog.Create(context.Background(), &models.ProductInput{
		Name:     "Softener",
		Category: "Water Filters",
		Price:    models.MustMoney("50"),
	})
	require.NoError(t, err)

	assert.Equal(t, before+1, backend.calls())
	got, ok := catalog.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, "Softener", got.Name)
}

func TestCatalogCreateFailureLeavesCache(t *testing.T) {
	catalog, backend := seededCatalog(t)
	backend.insertErr = errors.New("rls denied")

	_, err := catalog.Create(context.Background(), &models.ProductInput{Name: "X", Category: "Y"})
	assert.Error(t, err)
	assert.Len(t, catalog.Products(), 3)
}

func TestCatalogUpdate(t *testing.T) {
	catalog, _ := seededCatalog(t)
	name := "RO Filter Pro"

	_, err := catalog.Update(context.Background(), "p1", models.ProductPatch{Name: &name})
	require.NoError(t, err)

	got, _ := catalog.Get("p1")
	assert.Equal(t, name, got.Name)
}

func TestCatalogDeleteSuccess(t *testing.T) {
	catalog, _ := seededCatalog(t)

	require.NoError(t, catalog.Delete(context.Background(), "p2"))
	assert.Equal(t, []string{"p1", "p3"}, productIDs(catalog.Products()))
}

func TestCatalogDeleteRollbackRestoresSnapshot(t *testing.T) {
	for _, backendErr := range []error{store.ErrProductInUse, store.ErrDeleteNotApplied, errors.New("boom")} {
		t.Run(backendErr.Error(), func(t *testing.T) {
			catalog, backend := seededCatalog(t)
			backend.deleteErr = backendErr
			before := catalog.Products()

			err := catalog.Delete(context.Background(), "p2")
			require.Error(t, err)
			assert.True(t, errors.Is(err, backendErr))
			assert.Equal(t, before, catalog.Products())
		})
	}
}

func TestCatalogDeleteHidesProductWhileBackendRuns(t *testing.T) {
	tests := []struct {
		name       string
		backendErr error
		after      []string
	}{
		{name: "confirmed", after: []string{"p2", "p3"}},
		{name: "in use", backendErr: store.ErrProductInUse, after: []string{"p1", "p2", "p3"}},
		{name: "not applied", backendErr: store.ErrDeleteNotApplied, after: []string{"p1", "p2", "p3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog, backend := seededCatalog(t)
			backend.deleteErr = tt.backendErr

			var during []string
			backend.onDelete = func(id string) {
				during = productIDs(catalog.Products())
				_, found := catalog.Get(id)
				assert.False(t, found)
			}

			err := catalog.Delete(context.Background(), "p1")
			if tt.backendErr != nil {
				assert.ErrorIs(t, err, tt.backendErr)
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, []string{"p2", "p3"}, during)
			assert.Equal(t, tt.after, productIDs(catalog.Products()))
		})
	}
}

func TestCatalogDeleteMessageDistinguishesInUse(t *testing.T) {
	catalog, backend := seededCatalog(t)
	backend.deleteErr = store.ErrProductInUse

	err := catalog.Delete(context.Background(), "p1")
	assert.Equal(t, DeleteInUseMessage, DeleteFailureMessage(err))

	backend.deleteErr = store.ErrDeleteNotApplied
	err = catalog.Delete(context.Background(), "p1")
	assert.Equal(t, DeleteNotAppliedMessage, DeleteFailureMessage(err))
}

func TestReconcileRules(t *testing.T) {
	assert.Equal(t, ActionRefresh, ReconcileActionFor(models.ChangeInsert))
	assert.Equal(t, ActionRefresh, ReconcileActionFor(models.ChangeUpdate))
	assert.Equal(t, ActionIgnore, ReconcileActionFor(models.ChangeDelete))
	assert.Equal(t, ActionIgnore, ReconcileActionFor("TRUNCATE"))
}

func TestCatalogHandleChangeIgnoresDelete(t *testing.T) {
	catalog, backend := seededCatalog(t)
	require.NoError(t, catalog.Delete(context.Background(), "p3"))
	before := backend.calls()

	catalog.HandleChange(context.Background(), models.ChangeEvent{
		BaseEvent: models.BaseEvent{EventType: models.ChangeDelete},
		Table:     models.TableProducts,
		RecordID:  "p3",
	})
	assert.Equal(t, before, backend.calls())

	catalog.HandleChange(context.Background(), models.ChangeEvent{
		BaseEvent: models.BaseEvent{EventType: models.ChangeUpdate},
		Table:     models.TableProducts,
		RecordID:  "p1",
	})
	assert.Equal(t, before+1, backend.calls())
	assert.Equal(t, []string{"p1", "p2"}, productIDs(catalog.Products()))
}
