package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCartService(t *testing.T, store *fakeStore) domain.CartService {
	t.Helper()
	return NewCartService(store, testEngine(t), testOptions(), nopLogger())
}

func TestCartService_AddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("creates cart and prices it", func(t *testing.T) {
		store := newFakeStore()
		p := store.addProduct("widget", "25.00", 5)
		svc := newTestCartService(t, store)
		user := uuid.New()

		view, err := svc.AddItem(ctx, user, p.ID, 3)
		require.NoError(t, err)

		require.Len(t, view.Items, 1)
		assert.Equal(t, int32(3), view.ItemCount)
		assertDecimal(t, "75", view.Subtotal)
		assertDecimal(t, "10", view.Shipping)
		assertDecimal(t, "11.25", view.Tax)
		assertDecimal(t, "96.25", view.Total)
		assert.Empty(t, view.Warnings)
	})

	t.Run("increments an existing line", func(t *testing.T) {
		store := newFakeStore()
		p := store.addProduct("widget", "10", 50)
		svc := newTestCartService(t, store)
		user := uuid.New()

		_, err := svc.AddItem(ctx, user, p.ID, 2)
		require.NoError(t, err)
		view, err := svc.AddItem(ctx, user, p.ID, 3)
		require.NoError(t, err)

		require.Len(t, view.Items, 1)
		assert.Equal(t, int32(5), view.Items[0].Quantity)
	})

	t.Run("caps the line at the maximum quantity", func(t *testing.T) {
		store := newFakeStore()
		p := store.addProduct("bolt", "1", 500)
		svc := newTestCartService(t, store)
		user := uuid.New()

		_, err := svc.AddItem(ctx, user, p.ID, 90)
		require.NoError(t, err)
		view, err := svc.AddItem(ctx, user, p.ID, 20)
		require.NoError(t, err)

		assert.Equal(t, int32(99), view.Items[0].Quantity)
	})

	tests := []struct {
		name     string
		setup    func(s *fakeStore) uuid.UUID
		quantity int
		code     string
	}{
		{"zero quantity", func(s *fakeStore) uuid.UUID { return s.addProduct("a", "1", 5).ID }, 0, domain.EINVALID},
		{"over maximum", func(s *fakeStore) uuid.UUID { return s.addProduct("a", "1", 500).ID }, 100, domain.EINVALID},
		{"missing product", func(s *fakeStore) uuid.UUID { return uuid.New() }, 1, domain.ENOTFOUND},
		{"inactive product", func(s *fakeStore) uuid.UUID {
			p := s.addProduct("a", "1", 5)
			p.IsActive = false
			s.products[p.ID] = p
			return p.ID
		}, 1, domain.EINVALIDSTATE},
		{"more than stock", func(s *fakeStore) uuid.UUID { return s.addProduct("a", "1", 2).ID }, 3, domain.ESTOCK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			productID := tt.setup(store)
			svc := newTestCartService(t, store)

			_, err := svc.AddItem(ctx, uuid.New(), productID, tt.quantity)
			assertCode(t, err, tt.code)
			assert.Zero(t, store.calls["UpsertCartItem"])
		})
	}
}

func TestCartService_UpdateAndRemove(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	p := store.addProduct("widget", "10", 10)
	other := store.addProduct("gadget", "5", 10)
	svc := newTestCartService(t, store)
	user := uuid.New()
	store.putInCart(user, p.ID, 1)

	view, err := svc.UpdateItem(ctx, user, p.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, int32(4), view.Items[0].Quantity)

	_, err = svc.UpdateItem(ctx, user, p.ID, 11)
	assertCode(t, err, domain.ESTOCK)

	_, err = svc.UpdateItem(ctx, user, other.ID, 1)
	assert.ErrorIs(t, err, domain.ErrCartItemNotFound)

	view, err = svc.RemoveItem(ctx, user, p.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assertDecimal(t, "0", view.Total)

	_, err = svc.RemoveItem(ctx, user, p.ID)
	assert.ErrorIs(t, err, domain.ErrCartItemNotFound)

	_, err = svc.RemoveItem(ctx, uuid.New(), p.ID)
	assert.ErrorIs(t, err, domain.ErrCartItemNotFound)
}

func TestCartService_Clear(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	p := store.addProduct("widget", "60", 10)
	store.addCoupon(repository.Coupon{Code: "SAVE10", DiscountType: "percentage", DiscountValue: d("10"), IsActive: true})
	svc := newTestCartService(t, store)
	user := uuid.New()
	cart := store.putInCart(user, p.ID, 1)
	_, err := svc.ApplyCoupon(ctx, user, "save10")
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, user))

	assert.Empty(t, store.cartItems[cart.ID])
	assert.False(t, store.carts[cart.ID].CouponID.Valid)
	assert.Equal(t, 1, store.calls["ExecTx"])

	// A user without a cart has nothing to clear.
	require.NoError(t, svc.Clear(ctx, uuid.New()))
}

func TestCartService_ApplyCoupon(t *testing.T) {
	ctx := context.Background()

	t.Run("min purchase not met leaves the coupon unset", func(t *testing.T) {
		store := newFakeStore()
		p := store.addProduct("widget", "40", 10)
		store.addCoupon(repository.Coupon{Code: "SAVE10", DiscountType: "percentage", DiscountValue: d("10"), MinPurchase: d("50"), IsActive: true})
		svc := newTestCartService(t, store)
		user := uuid.New()
		cart := store.putInCart(user, p.ID, 1)

		_, err := svc.ApplyCoupon(ctx, user, "SAVE10")
		assertCode(t, err, domain.ECOUPON)
		assert.Contains(t, domain.ErrorMessage(err), "Minimum purchase of 50.00")
		assert.False(t, store.carts[cart.ID].CouponID.Valid)
	})

	t.Run("fixed coupon capped by max discount", func(t *testing.T) {
		store := newFakeStore()
		p := store.addProduct("widget", "100", 10)
		store.addCoupon(repository.Coupon{
			Code:          "FLAT20",
			DiscountType:  "fixed",
			DiscountValue: d("20"),
			MaxDiscount:   nullDec("15"),
			IsActive:      true,
		})
		svc := newTestCartService(t, store)
		user := uuid.New()
		store.putInCart(user, p.ID, 1)

		view, err := svc.ApplyCoupon(ctx, user, " flat20 ")
		require.NoError(t, err)

		require.NotNil(t, view.Coupon)
		assert.Equal(t, "FLAT20", view.Coupon.Code)
		assertDecimal(t, "15", view.Discount)
		assertDecimal(t, "10", view.Shipping, "85 after discount is below the free shipping threshold")
	})

	t.Run("unknown code", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestCartService(t, store)

		_, err := svc.ApplyCoupon(ctx, uuid.New(), "NOPE")
		assert.ErrorIs(t, err, domain.ErrCouponNotFound)
	})

	t.Run("blank code", func(t *testing.T) {
		svc := newTestCartService(t, newFakeStore())
		_, err := svc.ApplyCoupon(ctx, uuid.New(), "   ")
		assert.ErrorIs(t, err, ErrCouponCodeMissing)
	})

	t.Run("empty cart", func(t *testing.T) {
		store := newFakeStore()
		store.addCoupon(repository.Coupon{Code: "SAVE10", DiscountType: "percentage", DiscountValue: d("10"), IsActive: true})
		svc := newTestCartService(t, store)

		_, err := svc.ApplyCoupon(ctx, uuid.New(), "SAVE10")
		assert.ErrorIs(t, err, domain.ErrEmptyCart)
	})
}

func TestCartService_GetCart(t *testing.T) {
	ctx := context.Background()

	t.Run("no cart is an empty view", func(t *testing.T) {
		svc := newTestCartService(t, newFakeStore())
		view, err := svc.GetCart(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, view.Items)
		assertDecimal(t, "0", view.Total)
	})

	t.Run("warnings for removed, inactive and short lines", func(t *testing.T) {
		store := newFakeStore()
		ok := store.addProduct("ok", "10", 10)
		short := store.addProduct("short", "10", 1)
		inactive := store.addProduct("inactive", "10", 10)
		inactive.IsActive = false
		store.products[inactive.ID] = inactive
		gone := store.addProduct("gone", "10", 10)

		user := uuid.New()
		store.putInCart(user, ok.ID, 1)
		store.putInCart(user, short.ID, 3)
		store.putInCart(user, inactive.ID, 1)
		store.putInCart(user, gone.ID, 1)
		delete(store.products, gone.ID)

		svc := newTestCartService(t, store)
		view, err := svc.GetCart(ctx, user)
		require.NoError(t, err)

		assert.Len(t, view.Items, 2, "short stock lines stay in the cart")
		assert.Len(t, view.Warnings, 3)
		assertDecimal(t, "40", view.Subtotal)
	})

	t.Run("invalid coupon surfaces an error without detaching", func(t *testing.T) {
		store := newFakeStore()
		p := store.addProduct("widget", "60", 10)
		c := store.addCoupon(repository.Coupon{Code: "SAVE10", DiscountType: "percentage", DiscountValue: d("10"), MinPurchase: d("50"), IsActive: true})
		user := uuid.New()
		cart := store.putInCart(user, p.ID, 1)
		cart.CouponID = pgtype.UUID{Bytes: c.ID, Valid: true}
		store.carts[cart.ID] = cart

		// Price drops below the minimum purchase after the coupon was attached.
		p.FinalPrice = d("40")
		store.products[p.ID] = p

		svc := newTestCartService(t, store)
		view, err := svc.GetCart(ctx, user)
		require.NoError(t, err)

		assert.Contains(t, view.CouponError, "Minimum purchase")
		assert.Nil(t, view.Coupon)
		assertDecimal(t, "0", view.Discount)
		assert.True(t, store.carts[cart.ID].CouponID.Valid)
	})

	t.Run("is pure", func(t *testing.T) {
		store := newFakeStore()
		p := store.addProduct("widget", "33.33", 10)
		c := store.addCoupon(repository.Coupon{Code: "SAVE10", DiscountType: "percentage", DiscountValue: d("10"), IsActive: true})
		user := uuid.New()
		cart := store.putInCart(user, p.ID, 3)
		cart.CouponID = pgtype.UUID{Bytes: c.ID, Valid: true}
		store.carts[cart.ID] = cart
		svc := newTestCartService(t, store)
		before := store.snapshot()

		first, err := svc.GetCart(ctx, user)
		require.NoError(t, err)
		second, err := svc.GetCart(ctx, user)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, before, store.snapshot())

		want := first.Subtotal.Sub(first.Discount).Add(first.Shipping).Add(first.Tax).Round(2)
		assert.True(t, want.Equal(first.Total))
	})

	t.Run("repository failure is internal", func(t *testing.T) {
		store := newFakeStore()
		store.errs["GetCartByUserID"] = errors.New("connection reset")
		svc := newTestCartService(t, store)

		_, err := svc.GetCart(ctx, uuid.New())
		assertCode(t, err, domain.EINTERNAL)
	})
}

func TestCartService_RemoveCoupon(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	p := store.addProduct("widget", "60", 10)
	store.addCoupon(repository.Coupon{Code: "SAVE10", DiscountType: "percentage", DiscountValue: d("10"), IsActive: true})
	svc := newTestCartService(t, store)
	user := uuid.New()
	cart := store.putInCart(user, p.ID, 1)

	view, err := svc.ApplyCoupon(ctx, user, "SAVE10")
	require.NoError(t, err)
	assertDecimal(t, "6", view.Discount)

	view, err = svc.RemoveCoupon(ctx, user)
	require.NoError(t, err)
	assert.Nil(t, view.Coupon)
	assertDecimal(t, "0", view.Discount)
	assert.False(t, store.carts[cart.ID].CouponID.Valid)
}
