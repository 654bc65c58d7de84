package service

import (
	"context"
	"fmt"

	"github.com/dukerupert/mercato/internal/coupon"
	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/postgres"
	"github.com/dukerupert/mercato/internal/pricing"
	"github.com/dukerupert/mercato/internal/repository"
	"github.com/dukerupert/mercato/internal/telemetry"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type cartService struct {
	repo    repository.Store
	pricing *pricing.Engine
	opts    Options
	logger  zerolog.Logger
}

// NewCartService creates a new CartService instance
func NewCartService(repo repository.Store, engine *pricing.Engine, opts Options, logger zerolog.Logger) domain.CartService {
	return &cartService{
		repo:    repo,
		pricing: engine,
		opts:    opts.withDefaults(),
		logger:  logger.With().Str("service", "cart").Logger(),
	}
}

func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*domain.CartView, error) {
	const op = "cart.get"

	cart, err := s.repo.GetCartByUserID(ctx, userID)
	if err != nil {
		if postgres.IsNoRows(err) {
			return emptyCartView(), nil
		}
		return nil, domain.Internal(err, op, "failed to load cart")
	}

	return s.computeTotals(ctx, op, cart)
}

func (s *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartView, error) {
	const op = "cart.add_item"

	if err := s.checkQuantity(op, quantity); err != nil {
		s.recordAdd("invalid")
		return nil, err
	}

	product, err := s.loadProduct(ctx, op, productID)
	if err != nil {
		s.recordAdd("rejected")
		return nil, err
	}

	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load cart")
	}

	var existing int32
	item, err := s.repo.GetCartItem(ctx, repository.GetCartItemParams{CartID: cart.ID, ProductID: productID})
	switch {
	case err == nil:
		existing = item.Quantity
	case !postgres.IsNoRows(err):
		return nil, domain.Internal(err, op, "failed to load cart item")
	}

	newQty := existing + int32(quantity)
	if newQty > int32(s.opts.MaxQuantity) {
		newQty = int32(s.opts.MaxQuantity)
	}
	if newQty > product.Stock {
		s.recordAdd("out_of_stock")
		return nil, domain.WithOp(domain.ErrInsufficientStock, op)
	}

	if _, err := s.repo.UpsertCartItem(ctx, repository.UpsertCartItemParams{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  newQty,
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to save cart item")
	}

	s.recordAdd("success")
	return s.computeTotals(ctx, op, cart)
}

func (s *cartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartView, error) {
	const op = "cart.update_item"

	if err := s.checkQuantity(op, quantity); err != nil {
		return nil, err
	}

	cart, err := s.repo.GetCartByUserID(ctx, userID)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, domain.WithOp(domain.ErrCartItemNotFound, op)
		}
		return nil, domain.Internal(err, op, "failed to load cart")
	}

	if _, err := s.repo.GetCartItem(ctx, repository.GetCartItemParams{CartID: cart.ID, ProductID: productID}); err != nil {
		if postgres.IsNoRows(err) {
			return nil, domain.WithOp(domain.ErrCartItemNotFound, op)
		}
		return nil, domain.Internal(err, op, "failed to load cart item")
	}

	product, err := s.loadProduct(ctx, op, productID)
	if err != nil {
		return nil, err
	}
	if int32(quantity) > product.Stock {
		return nil, domain.WithOp(domain.ErrInsufficientStock, op)
	}

	if _, err := s.repo.UpsertCartItem(ctx, repository.UpsertCartItemParams{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  int32(quantity),
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to save cart item")
	}

	return s.computeTotals(ctx, op, cart)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*domain.CartView, error) {
	const op = "cart.remove_item"

	cart, err := s.repo.GetCartByUserID(ctx, userID)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, domain.WithOp(domain.ErrCartItemNotFound, op)
		}
		return nil, domain.Internal(err, op, "failed to load cart")
	}

	rows, err := s.repo.DeleteCartItem(ctx, repository.DeleteCartItemParams{CartID: cart.ID, ProductID: productID})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to remove cart item")
	}
	if rows == 0 {
		return nil, domain.WithOp(domain.ErrCartItemNotFound, op)
	}

	return s.computeTotals(ctx, op, cart)
}

func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	const op = "cart.clear"

	cart, err := s.repo.GetCartByUserID(ctx, userID)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil
		}
		return domain.Internal(err, op, "failed to load cart")
	}

	err = s.repo.ExecTx(ctx, func(q repository.Querier) error {
		if err := q.DeleteCartItems(ctx, cart.ID); err != nil {
			return fmt.Errorf("delete cart items: %w", err)
		}
		if err := q.ClearCartCoupon(ctx, cart.ID); err != nil {
			return fmt.Errorf("clear cart coupon: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Internal(err, op, "failed to clear cart")
	}
	return nil
}

func (s *cartService) ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*domain.CartView, error) {
	const op = "cart.apply_coupon"

	code = coupon.NormalizeCode(code)
	if code == "" {
		return nil, domain.WithOp(ErrCouponCodeMissing, op)
	}

	row, err := s.repo.GetActiveCouponByCode(ctx, code)
	if err != nil {
		if postgres.IsNoRows(err) {
			s.recordCoupon("not_found")
			return nil, domain.WithOp(domain.ErrCouponNotFound, op)
		}
		return nil, domain.Internal(err, op, "failed to load coupon")
	}
	c := toDomainCoupon(row)

	cart, err := s.repo.GetCartByUserID(ctx, userID)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, domain.WithOp(domain.ErrEmptyCart, op)
		}
		return nil, domain.Internal(err, op, "failed to load cart")
	}

	rows, err := s.repo.GetCartItems(ctx, cart.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load cart items")
	}
	items, _ := partitionLines(toCartLines(rows))
	if len(items) == 0 {
		return nil, domain.WithOp(domain.ErrEmptyCart, op)
	}

	if _, err := coupon.Validate(c, coupon.Context{
		Now:        s.opts.now(),
		ProductIDs: productIDs(items),
		Subtotal:   pricing.Subtotal(pricingLines(items)),
	}); err != nil {
		s.recordCoupon("rejected")
		return nil, domain.WithOp(err, op)
	}

	if err := s.repo.SetCartCoupon(ctx, repository.SetCartCouponParams{
		ID:       cart.ID,
		CouponID: pgtype.UUID{Bytes: c.ID, Valid: true},
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to attach coupon")
	}
	cart.CouponID = pgtype.UUID{Bytes: c.ID, Valid: true}

	s.recordCoupon("success")
	return s.computeTotals(ctx, op, cart)
}

func (s *cartService) RemoveCoupon(ctx context.Context, userID uuid.UUID) (*domain.CartView, error) {
	const op = "cart.remove_coupon"

	cart, err := s.repo.GetCartByUserID(ctx, userID)
	if err != nil {
		if postgres.IsNoRows(err) {
			return emptyCartView(), nil
		}
		return nil, domain.Internal(err, op, "failed to load cart")
	}

	if err := s.repo.ClearCartCoupon(ctx, cart.ID); err != nil {
		return nil, domain.Internal(err, op, "failed to detach coupon")
	}
	cart.CouponID = pgtype.UUID{}

	return s.computeTotals(ctx, op, cart)
}

// computeTotals prices the cart against live products. It only reads.
func (s *cartService) computeTotals(ctx context.Context, op string, cart repository.Cart) (*domain.CartView, error) {
	rows, err := s.repo.GetCartItems(ctx, cart.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load cart items")
	}

	items, warnings := partitionLines(toCartLines(rows))

	view := emptyCartView()
	view.Warnings = append(view.Warnings, warnings...)

	for _, line := range items {
		p := line.Product
		if p.Stock < line.Quantity {
			view.Warnings = append(view.Warnings, domain.CartWarning{
				ProductID: line.ProductID,
				Name:      p.Name,
				Message:   fmt.Sprintf("Only %d left in stock", p.Stock),
			})
		}
		view.Items = append(view.Items, domain.CartItemView{
			ProductID: line.ProductID,
			Name:      p.Name,
			Image:     p.Image,
			Price:     p.FinalPrice,
			Quantity:  line.Quantity,
			Stock:     p.Stock,
			LineTotal: domain.Round2(p.FinalPrice.Mul(decimal.NewFromInt32(line.Quantity))),
		})
		view.ItemCount += line.Quantity
	}

	if len(items) == 0 {
		return view, nil
	}

	lines := pricingLines(items)
	discount := decimal.Zero

	if cart.CouponID.Valid {
		row, err := s.repo.GetCouponByID(ctx, uuid.UUID(cart.CouponID.Bytes))
		switch {
		case postgres.IsNoRows(err):
			view.CouponError = "Coupon is no longer available"
		case err != nil:
			return nil, domain.Internal(err, op, "failed to load coupon")
		default:
			c := toDomainCoupon(row)
			amount, verr := coupon.Validate(c, coupon.Context{
				Now:        s.opts.now(),
				ProductIDs: productIDs(items),
				Subtotal:   pricing.Subtotal(lines),
			})
			if verr != nil {
				view.CouponError = domain.ErrorMessage(verr)
			} else {
				discount = amount
				view.Coupon = c.Snapshot(amount)
			}
		}
	}

	breakdown, err := s.pricing.Price(lines, discount)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to price cart")
	}
	view.Subtotal = breakdown.Subtotal
	view.Discount = breakdown.Discount
	view.Shipping = breakdown.Shipping
	view.Tax = breakdown.Tax
	view.Total = breakdown.Total

	return view, nil
}

func (s *cartService) checkQuantity(op string, quantity int) error {
	if quantity < 1 || quantity > s.opts.MaxQuantity {
		return domain.NewValidationError(op, "quantity", fmt.Sprintf("must be between 1 and %d", s.opts.MaxQuantity))
	}
	return nil
}

func (s *cartService) loadProduct(ctx context.Context, op string, id uuid.UUID) (repository.Product, error) {
	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if postgres.IsNoRows(err) {
			return repository.Product{}, domain.WithOp(domain.ErrProductNotFound, op)
		}
		return repository.Product{}, domain.Internal(err, op, "failed to load product")
	}
	if !product.IsActive {
		return repository.Product{}, domain.WithOp(domain.ErrProductUnavailable, op)
	}
	return product, nil
}

func (s *cartService) recordAdd(result string) {
	if telemetry.Business != nil {
		telemetry.Business.CartItemsAdded.WithLabelValues(result).Inc()
	}
}

func (s *cartService) recordCoupon(result string) {
	if telemetry.Business != nil {
		telemetry.Business.CouponApplied.WithLabelValues(result).Inc()
	}
}

func emptyCartView() *domain.CartView {
	return &domain.CartView{
		Items:    []domain.CartItemView{},
		Warnings: []domain.CartWarning{},
		Subtotal: decimal.Zero,
		Discount: decimal.Zero,
		Shipping: decimal.Zero,
		Tax:      decimal.Zero,
		Total:    decimal.Zero,
	}
}

// partitionLines splits lines into those whose product is still sold and
// warnings for the rest.
func partitionLines(lines []domain.CartLine) ([]domain.CartLine, []domain.CartWarning) {
	var (
		items    []domain.CartLine
		warnings []domain.CartWarning
	)
	for _, line := range lines {
		if line.Product == nil || !line.Product.IsActive {
			w := domain.CartWarning{ProductID: line.ProductID, Message: "Product is no longer available"}
			if line.Product != nil {
				w.Name = line.Product.Name
			}
			warnings = append(warnings, w)
			continue
		}
		items = append(items, line)
	}
	return items, warnings
}

func pricingLines(lines []domain.CartLine) []pricing.Line {
	out := make([]pricing.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, pricing.Line{UnitPrice: l.Product.FinalPrice, Quantity: l.Quantity})
	}
	return out
}

func productIDs(lines []domain.CartLine) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}
