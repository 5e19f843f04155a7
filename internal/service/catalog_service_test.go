package service

import (
	"context"
	"testing"

	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/repository"
	"go-inventory-pos/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewSupplierService(repository.NewSupplierRepo(testutil.NewDB(t)), nil)

	created, err := svc.Create(ctx, &model.Supplier{Name: "Acme", Email: "sales@acme.test"}, actor)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.True(t, created.Active)
	assert.Equal(t, actor.ID, created.CreatedBy)

	editor := Actor{ID: "user-2", Name: "Ben"}
	updated, err := svc.Update(ctx, created.ID, &model.Supplier{Name: "Acme Ltd", Phone: "555"}, editor)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, actor.ID, updated.CreatedBy)
	assert.Equal(t, editor.ID, updated.UpdatedBy)
	assert.True(t, updated.Active)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", got.Name)
	assert.Equal(t, "555", got.Phone)

	require.NoError(t, svc.Delete(ctx, created.ID, actor))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	items, page, err := svc.List(ctx, model.ListParams{}.Normalize())
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.EqualValues(t, 0, page.Total)

	items, _, err = svc.List(ctx, model.ListParams{IncludeInactive: true}.Normalize())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCatalogService_Rejections(t *testing.T) {
	ctx := context.Background()
	svc := NewBrandService(repository.NewBrandRepo(testutil.NewDB(t)), nil)

	_, err := svc.Create(ctx, &model.Brand{}, actor)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, &model.Brand{Name: "Acme"}, actor)
	require.NoError(t, err)
	_, err = svc.Create(ctx, &model.Brand{Name: "Acme"}, actor)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Update(ctx, uuid.New(), &model.Brand{Name: "Other"}, actor)
	assert.ErrorIs(t, err, ErrNotFound)
}
