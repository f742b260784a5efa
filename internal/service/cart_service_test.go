package service

import (
	"context"
	"testing"

	"capriccio/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCartService() (CartService, *memStore) {
	store := newMemStore()
	return NewCartService(store, newTestCatalog(testProducts()), nil, zerolog.Nop()), store
}

func TestCartService_Add(t *testing.T) {
	tests := []struct {
		name        string
		req         model.AddToCartRequest
		expectError error
		expectQty   int
		expectLevel model.NotificationLevel
	}{
		{name: "Default quantity", req: model.AddToCartRequest{ProductID: "p1"}, expectQty: 1, expectLevel: model.LevelSuccess},
		{name: "Explicit quantity", req: model.AddToCartRequest{ProductID: "p1", Quantity: 3}, expectQty: 3, expectLevel: model.LevelSuccess},
		{name: "Negative quantity", req: model.AddToCartRequest{ProductID: "p1", Quantity: -1}, expectError: model.ErrInvalidQuantity},
		{name: "Unknown product", req: model.AddToCartRequest{ProductID: "nope"}, expectError: model.ErrProductNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestCartService()

			view, err := svc.Add(context.Background(), "u1", tt.req)
			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				return
			}

			require.NoError(t, err)
			require.Len(t, view.Lines, 1)
			assert.Equal(t, tt.expectQty, view.Lines[0].Quantity)
			require.NotNil(t, view.Notification)
			assert.Equal(t, tt.expectLevel, view.Notification.Level)
		})
	}
}

func TestCartService_AddBeyondStockKeepsCart(t *testing.T) {
	svc, store := newTestCartService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "u1", model.AddToCartRequest{ProductID: "p2", Quantity: 2})
	require.NoError(t, err)

	_, err = svc.Add(ctx, "u1", model.AddToCartRequest{ProductID: "p2", Quantity: 2})
	var stockErr *model.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, stockErr.Available)

	sess, _ := store.LoadCart(ctx, "u1")
	require.Len(t, sess.Lines, 1)
	assert.Equal(t, 2, sess.Lines[0].Quantity)
}

func TestCartService_IncreaseDecreaseRemove(t *testing.T) {
	svc, _ := newTestCartService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "u1", model.AddToCartRequest{ProductID: "p2", Quantity: 2})
	require.NoError(t, err)

	view, err := svc.Increase(ctx, "u1", "p2")
	require.NoError(t, err)
	assert.Equal(t, 3, view.ItemCount)

	_, err = svc.Increase(ctx, "u1", "p2")
	var stockErr *model.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.True(t, stockErr.Increment)

	for i := 0; i < 5; i++ {
		view, err = svc.Decrease(ctx, "u1", "p2")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, view.ItemCount)

	_, err = svc.Decrease(ctx, "u1", "p1")
	assert.ErrorIs(t, err, model.ErrCartLineNotFound)

	view, err = svc.Remove(ctx, "u1", "p2")
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Equal(t, model.StageCart, view.Stage)
}

func TestCartService_StageFlow(t *testing.T) {
	svc, _ := newTestCartService()
	ctx := context.Background()

	_, err := svc.Next(ctx, "u1")
	assert.ErrorIs(t, err, model.ErrEmptyCart)

	_, err = svc.Add(ctx, "u1", model.AddToCartRequest{ProductID: "p1"})
	require.NoError(t, err)

	view, err := svc.Next(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.StageSummary, view.Stage)

	view, err = svc.Next(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.StageForm, view.Stage)

	_, err = svc.Next(ctx, "u1")
	assert.ErrorIs(t, err, model.ErrInvalidStage)

	view, err = svc.Back(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.StageSummary, view.Stage)
	assert.Len(t, view.Lines, 1, "going back keeps the cart")

	view, err = svc.Clear(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Equal(t, model.StageCart, view.Stage)
	assert.Equal(t, "Carrito vaciado", view.Notification.Message)
}

func TestCartService_Total(t *testing.T) {
	svc, _ := newTestCartService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "u1", model.AddToCartRequest{ProductID: "p1", Quantity: 2})
	require.NoError(t, err)
	view, err := svc.Add(ctx, "u1", model.AddToCartRequest{ProductID: "p2", Quantity: 2})
	require.NoError(t, err)

	assert.Equal(t, int64(381), view.Total)
	assert.Equal(t, 4, view.ItemCount)

	got, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, view.Total, got.Total)
	assert.Nil(t, got.Notification)
}
