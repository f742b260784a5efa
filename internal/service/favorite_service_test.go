package service

import (
	"context"
	"testing"

	"capriccio/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoriteService_Toggle(t *testing.T) {
	ctx := context.Background()
	svc := NewFavoriteService(newMemStore(), newTestCatalog(testProducts()), zerolog.Nop())

	res, err := svc.Toggle(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.True(t, res.Favorite)
	assert.Equal(t, model.LevelSuccess, res.Notification.Level)
	assert.Equal(t, "Producto añadido a favoritos", res.Notification.Message)

	res, err = svc.Toggle(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.False(t, res.Favorite)
	assert.Equal(t, "Producto removido de favoritos", res.Notification.Message)
	assert.Equal(t, int64(1500), res.Notification.DurationMS)
}

func TestFavoriteService_List(t *testing.T) {
	ctx := context.Background()
	svc := NewFavoriteService(newMemStore(), newTestCatalog(testProducts()), zerolog.Nop())

	for _, id := range []string{"p1", "p2", "deleted"} {
		_, err := svc.Toggle(ctx, "u1", id)
		require.NoError(t, err)
	}

	products, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, products, 2, "ids missing from the catalog are skipped")
	assert.Equal(t, "Fugazzeta", products[0].Name)
	assert.Equal(t, "Muzzarella", products[1].Name)

	ids, err := svc.IDs(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	other, err := svc.List(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)
}
