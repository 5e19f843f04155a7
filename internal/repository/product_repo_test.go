package repository

import (
	"context"
	"testing"
	"time"

	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func seedSimpleProduct(t *testing.T, repo ProductRepository, sku string, stock int) *model.Product {
	t.Helper()
	p := &model.Product{
		SoftDelete: model.SoftDelete{Active: true},
		SKU:        sku,
		Name:       "Product " + sku,
		Stock:      stock,
		Price:      decimal.NewFromInt(1000),
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func seedVariantProduct(t *testing.T, repo ProductRepository, sku string) *model.Product {
	t.Helper()
	p := &model.Product{
		SoftDelete:  model.SoftDelete{Active: true},
		SKU:         sku,
		Name:        "Shirt " + sku,
		HasVariants: true,
		Variants: []model.ProductVariant{
			{Name: "Red-M", Stock: 2, Price: decimal.NewFromInt(50), Attributes: datatypes.JSONMap{"color": "Red", "size": "M"}},
			{Name: "Blue-L", Stock: 0, Price: decimal.NewFromInt(55), Attributes: datatypes.JSONMap{"color": "Blue", "size": "L"}},
		},
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestProductRepo_IncrementStock_Simple(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepo(testutil.NewDB(t))
	p := seedSimpleProduct(t, repo, "SKU-1", 4)

	require.NoError(t, repo.IncrementStock(ctx, p.ID, "", 3))

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Stock)
}

func TestProductRepo_IncrementStock_Variant(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepo(testutil.NewDB(t))
	p := seedVariantProduct(t, repo, "SHIRT")

	require.NoError(t, repo.IncrementStock(ctx, p.ID, "Red-M", 5))

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	v, ok := got.Variant("Red-M")
	require.True(t, ok)
	assert.Equal(t, 7, v.Stock)
	other, _ := got.Variant("Blue-L")
	assert.Equal(t, 0, other.Stock)
	assert.Equal(t, "Red", v.Attributes["color"])
}

func TestProductRepo_IncrementStock_Missing(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepo(testutil.NewDB(t))
	p := seedVariantProduct(t, repo, "SHIRT")

	err := repo.IncrementStock(ctx, uuid.New(), "", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	err = repo.IncrementStock(ctx, p.ID, "Green-S", 1)
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestProductRepo_DecrementStock_Guard(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepo(testutil.NewDB(t))
	p := seedSimpleProduct(t, repo, "SKU-1", 2)

	require.NoError(t, repo.DecrementStock(ctx, p.ID, "", 2))
	err := repo.DecrementStock(ctx, p.ID, "", 1)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
}

func TestProductRepo_Update_KeepsVariantStock(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepo(testutil.NewDB(t))
	p := seedVariantProduct(t, repo, "SHIRT")

	p.Name = "Renamed"
	p.Variants = []model.ProductVariant{
		{Name: "Red-M", Stock: 999, Price: decimal.NewFromInt(60)},
		{Name: "Green-S", Price: decimal.NewFromInt(40)},
	}
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	require.Len(t, got.Variants, 2)

	red, ok := got.Variant("Red-M")
	require.True(t, ok)
	assert.Equal(t, 2, red.Stock)
	assert.True(t, decimal.NewFromInt(60).Equal(red.Price))

	green, ok := got.Variant("Green-S")
	require.True(t, ok)
	assert.Equal(t, 0, green.Stock)

	_, ok = got.Variant("Blue-L")
	assert.False(t, ok)
}

func TestProductRepo_ListAndSoftDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepo(testutil.NewDB(t))
	a := seedSimpleProduct(t, repo, "AAA", 1)
	seedSimpleProduct(t, repo, "BBB", 50)

	require.NoError(t, repo.SoftDelete(ctx, a.ID, "admin", time.Now()))
	assert.ErrorIs(t, repo.SoftDelete(ctx, a.ID, "admin", time.Now()), ErrProductNotFound)

	active, total, err := repo.List(ctx, ProductListParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "BBB", active[0].SKU)

	all, total, err := repo.List(ctx, ProductListParams{ListParams: model.ListParams{IncludeInactive: true}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	found, _, err := repo.List(ctx, ProductListParams{ListParams: model.ListParams{Search: "bbb"}})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestProductRepo_DuplicateSKU(t *testing.T) {
	repo := NewProductRepo(testutil.NewDB(t))
	seedSimpleProduct(t, repo, "DUP", 0)

	err := repo.Create(context.Background(), &model.Product{SoftDelete: model.SoftDelete{Active: true}, SKU: "DUP", Name: "x"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.True(t, IsUniqueViolation(err))
}
