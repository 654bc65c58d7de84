package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dukerupert/mercato/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// ============================================================================
// In-memory Store
// ============================================================================

// fakeStore implements repository.Store with the same guarded-update
// semantics as the SQL queries. Errors can be injected per method name.
type fakeStore struct {
	users      map[uuid.UUID]repository.User
	addresses  map[uuid.UUID]repository.Address
	products   map[uuid.UUID]repository.Product
	coupons    map[uuid.UUID]repository.Coupon
	carts      map[uuid.UUID]repository.Cart
	cartItems  map[uuid.UUID][]repository.CartItem
	orders     map[uuid.UUID]repository.Order
	orderItems map[uuid.UUID][]repository.OrderItem

	errs  map[string]error
	calls map[string]int
	clock time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      map[uuid.UUID]repository.User{},
		addresses:  map[uuid.UUID]repository.Address{},
		products:   map[uuid.UUID]repository.Product{},
		coupons:    map[uuid.UUID]repository.Coupon{},
		carts:      map[uuid.UUID]repository.Cart{},
		cartItems:  map[uuid.UUID][]repository.CartItem{},
		orders:     map[uuid.UUID]repository.Order{},
		orderItems: map[uuid.UUID][]repository.OrderItem{},
		errs:       map[string]error{},
		calls:      map[string]int{},
		clock:      testNow,
	}
}

var _ repository.Store = (*fakeStore)(nil)

func (f *fakeStore) hit(name string) error {
	f.calls[name]++
	return f.errs[name]
}

func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeStore) ExecTx(ctx context.Context, fn func(repository.Querier) error) error {
	if err := f.hit("ExecTx"); err != nil {
		return err
	}
	snap := f.snapshot()
	if err := fn(f); err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

type fakeSnapshot struct {
	products   map[uuid.UUID]repository.Product
	coupons    map[uuid.UUID]repository.Coupon
	carts      map[uuid.UUID]repository.Cart
	cartItems  map[uuid.UUID][]repository.CartItem
	orders     map[uuid.UUID]repository.Order
	orderItems map[uuid.UUID][]repository.OrderItem
}

func (f *fakeStore) snapshot() fakeSnapshot {
	return fakeSnapshot{
		products:   cloneMap(f.products),
		coupons:    cloneMap(f.coupons),
		carts:      cloneMap(f.carts),
		cartItems:  cloneSliceMap(f.cartItems),
		orders:     cloneMap(f.orders),
		orderItems: cloneSliceMap(f.orderItems),
	}
}

func (f *fakeStore) restore(s fakeSnapshot) {
	f.products = s.products
	f.coupons = s.coupons
	f.carts = s.carts
	f.cartItems = s.cartItems
	f.orders = s.orders
	f.orderItems = s.orderItems
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSliceMap[K comparable, V any](m map[K][]V) map[K][]V {
	out := make(map[K][]V, len(m))
	for k, v := range m {
		out[k] = append([]V(nil), v...)
	}
	return out
}

// ---- seeding helpers ----

func (f *fakeStore) addProduct(name string, price string, stock int32) repository.Product {
	p := repository.Product{
		ID:         uuid.New(),
		Name:       name,
		Image:      "/img/" + name + ".png",
		Price:      decimal.RequireFromString(price),
		FinalPrice: decimal.RequireFromString(price),
		Stock:      stock,
		IsActive:   true,
		CreatedAt:  f.clock,
		UpdatedAt:  f.clock,
	}
	f.products[p.ID] = p
	return p
}

func (f *fakeStore) addCoupon(c repository.Coupon) repository.Coupon {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.ValidFrom.IsZero() {
		c.ValidFrom = f.clock.AddDate(0, -1, 0)
	}
	if c.ValidTo.IsZero() {
		c.ValidTo = f.clock.AddDate(0, 1, 0)
	}
	f.coupons[c.ID] = c
	return c
}

func (f *fakeStore) putInCart(userID, productID uuid.UUID, qty int32) repository.Cart {
	cart, _ := f.GetOrCreateCart(context.Background(), userID)
	_, _ = f.UpsertCartItem(context.Background(), repository.UpsertCartItemParams{CartID: cart.ID, ProductID: productID, Quantity: qty})
	return cart
}

func (f *fakeStore) cartFor(userID uuid.UUID) (repository.Cart, bool) {
	for _, c := range f.carts {
		if c.UserID == userID {
			return c, true
		}
	}
	return repository.Cart{}, false
}

func (f *fakeStore) putOrder(o repository.Order, items ...repository.OrderItem) repository.Order {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = "pending"
	}
	if o.ReturnStatus == "" {
		o.ReturnStatus = "none"
	}
	if o.PaymentMethod == "" {
		o.PaymentMethod = "stripe"
	}
	if o.ShippingAddress == nil {
		o.ShippingAddress = []byte(`{"fullName":"Ada Lovelace","address":"1 Analytical Way","city":"London","state":"LDN","postalCode":"N1","country":"UK"}`)
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = f.tick()
	}
	o.UpdatedAt = o.CreatedAt
	f.orders[o.ID] = o
	for i := range items {
		items[i].OrderID = o.ID
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
	}
	f.orderItems[o.ID] = items
	return o
}

// ---- Querier ----

func (f *fakeStore) CancelOrder(ctx context.Context, arg repository.CancelOrderParams) (repository.Order, error) {
	if err := f.hit("CancelOrder"); err != nil {
		return repository.Order{}, err
	}
	o, ok := f.orders[arg.ID]
	if !ok || o.Status != "pending" || o.IsPaid {
		return repository.Order{}, pgx.ErrNoRows
	}
	o.Status = "cancelled"
	o.CancelledAt = pgtype.Timestamptz{Time: arg.CancelledAt, Valid: true}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) ClearCartCoupon(ctx context.Context, id uuid.UUID) error {
	if err := f.hit("ClearCartCoupon"); err != nil {
		return err
	}
	if c, ok := f.carts[id]; ok {
		c.CouponID = pgtype.UUID{}
		f.carts[id] = c
	}
	return nil
}

func (f *fakeStore) matchOrders(userID pgtype.UUID, status pgtype.Text, isPaid pgtype.Bool, from, to pgtype.Timestamptz, minTotal, maxTotal decimal.NullDecimal) []repository.Order {
	var out []repository.Order
	for _, o := range f.orders {
		switch {
		case userID.Valid && o.UserID != uuid.UUID(userID.Bytes):
		case status.Valid && o.Status != status.String:
		case isPaid.Valid && o.IsPaid != isPaid.Bool:
		case from.Valid && o.CreatedAt.Before(from.Time):
		case to.Valid && o.CreatedAt.After(to.Time):
		case minTotal.Valid && o.TotalPrice.LessThan(minTotal.Decimal):
		case maxTotal.Valid && o.TotalPrice.GreaterThan(maxTotal.Decimal):
		default:
			out = append(out, o)
		}
	}
	return out
}

func (f *fakeStore) CountOrders(ctx context.Context, arg repository.CountOrdersParams) (int64, error) {
	if err := f.hit("CountOrders"); err != nil {
		return 0, err
	}
	return int64(len(f.matchOrders(arg.UserID, arg.Status, arg.IsPaid, arg.CreatedFrom, arg.CreatedTo, arg.MinTotal, arg.MaxTotal))), nil
}

func (f *fakeStore) ListOrders(ctx context.Context, arg repository.ListOrdersParams) ([]repository.Order, error) {
	if err := f.hit("ListOrders"); err != nil {
		return nil, err
	}
	rows := f.matchOrders(arg.UserID, arg.Status, arg.IsPaid, arg.CreatedFrom, arg.CreatedTo, arg.MinTotal, arg.MaxTotal)
	sort.Slice(rows, func(i, j int) bool {
		switch arg.Sort {
		case "oldest":
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		case "total_asc":
			return rows[i].TotalPrice.LessThan(rows[j].TotalPrice)
		case "total_desc":
			return rows[i].TotalPrice.GreaterThan(rows[j].TotalPrice)
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	start := int(arg.Offset)
	if start > len(rows) {
		start = len(rows)
	}
	end := start + int(arg.Limit)
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], nil
}

func (f *fakeStore) CountUserCouponUsage(ctx context.Context, arg repository.CountUserCouponUsageParams) (int64, error) {
	if err := f.hit("CountUserCouponUsage"); err != nil {
		return 0, err
	}
	var n int64
	for _, o := range f.orders {
		if o.UserID == arg.UserID && o.CouponCode.Valid && o.CouponCode.String == arg.CouponCode && o.Status != "cancelled" {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CreateOrder(ctx context.Context, arg repository.CreateOrderParams) (repository.Order, error) {
	if err := f.hit("CreateOrder"); err != nil {
		return repository.Order{}, err
	}
	for _, o := range f.orders {
		// NULL keys never collide, as with the UNIQUE constraint.
		if arg.IdempotencyKey.Valid && o.UserID == arg.UserID && o.IdempotencyKey == arg.IdempotencyKey {
			return repository.Order{}, &pgconn.PgError{Code: "23505", ConstraintName: idempotencyConstraint}
		}
	}
	now := f.tick()
	o := repository.Order{
		ID:              uuid.New(),
		OrderNumber:     arg.OrderNumber,
		UserID:          arg.UserID,
		ShippingAddress: arg.ShippingAddress,
		PaymentMethod:   arg.PaymentMethod,
		ItemsPrice:      arg.ItemsPrice,
		DiscountAmount:  arg.DiscountAmount,
		ShippingPrice:   arg.ShippingPrice,
		TaxPrice:        arg.TaxPrice,
		TotalPrice:      arg.TotalPrice,
		CouponCode:      arg.CouponCode,
		CouponApplied:   arg.CouponApplied,
		Status:          "pending",
		ReturnStatus:    "none",
		IdempotencyKey:  arg.IdempotencyKey,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) CreateOrderItem(ctx context.Context, arg repository.CreateOrderItemParams) (repository.OrderItem, error) {
	if err := f.hit("CreateOrderItem"); err != nil {
		return repository.OrderItem{}, err
	}
	item := repository.OrderItem{
		ID:        uuid.New(),
		OrderID:   arg.OrderID,
		ProductID: arg.ProductID,
		Name:      arg.Name,
		Image:     arg.Image,
		Price:     arg.Price,
		Quantity:  arg.Quantity,
	}
	f.orderItems[arg.OrderID] = append(f.orderItems[arg.OrderID], item)
	return item, nil
}

func (f *fakeStore) DecrementProductStock(ctx context.Context, arg repository.DecrementProductStockParams) (int64, error) {
	if err := f.hit("DecrementProductStock"); err != nil {
		return 0, err
	}
	p, ok := f.products[arg.ID]
	if !ok || p.Stock < arg.Quantity {
		return 0, nil
	}
	p.Stock -= arg.Quantity
	f.products[p.ID] = p
	return 1, nil
}

func (f *fakeStore) DeleteCartItem(ctx context.Context, arg repository.DeleteCartItemParams) (int64, error) {
	if err := f.hit("DeleteCartItem"); err != nil {
		return 0, err
	}
	items := f.cartItems[arg.CartID]
	for i, it := range items {
		if it.ProductID == arg.ProductID {
			f.cartItems[arg.CartID] = append(items[:i:i], items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeStore) DeleteCartItems(ctx context.Context, cartID uuid.UUID) error {
	if err := f.hit("DeleteCartItems"); err != nil {
		return err
	}
	delete(f.cartItems, cartID)
	return nil
}

func (f *fakeStore) GetActiveCouponByCode(ctx context.Context, code string) (repository.Coupon, error) {
	if err := f.hit("GetActiveCouponByCode"); err != nil {
		return repository.Coupon{}, err
	}
	for _, c := range f.coupons {
		if c.Code == code && c.IsActive {
			return c, nil
		}
	}
	return repository.Coupon{}, pgx.ErrNoRows
}

func (f *fakeStore) GetAddressByID(ctx context.Context, id uuid.UUID) (repository.Address, error) {
	if err := f.hit("GetAddressByID"); err != nil {
		return repository.Address{}, err
	}
	a, ok := f.addresses[id]
	if !ok {
		return repository.Address{}, pgx.ErrNoRows
	}
	return a, nil
}

func (f *fakeStore) GetCartByUserID(ctx context.Context, userID uuid.UUID) (repository.Cart, error) {
	if err := f.hit("GetCartByUserID"); err != nil {
		return repository.Cart{}, err
	}
	if c, ok := f.cartFor(userID); ok {
		return c, nil
	}
	return repository.Cart{}, pgx.ErrNoRows
}

func (f *fakeStore) GetCartItem(ctx context.Context, arg repository.GetCartItemParams) (repository.CartItem, error) {
	if err := f.hit("GetCartItem"); err != nil {
		return repository.CartItem{}, err
	}
	for _, it := range f.cartItems[arg.CartID] {
		if it.ProductID == arg.ProductID {
			return it, nil
		}
	}
	return repository.CartItem{}, pgx.ErrNoRows
}

func (f *fakeStore) GetCartItems(ctx context.Context, cartID uuid.UUID) ([]repository.GetCartItemsRow, error) {
	if err := f.hit("GetCartItems"); err != nil {
		return nil, err
	}
	rows := make([]repository.GetCartItemsRow, 0, len(f.cartItems[cartID]))
	for _, it := range f.cartItems[cartID] {
		row := repository.GetCartItemsRow{ProductID: it.ProductID, Quantity: it.Quantity, CreatedAt: it.CreatedAt}
		if p, ok := f.products[it.ProductID]; ok {
			row.ProductExists = true
			row.Name = p.Name
			row.Image = p.Image
			row.FinalPrice = p.FinalPrice
			row.Stock = p.Stock
			row.SalesCount = p.SalesCount
			row.IsActive = p.IsActive
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (f *fakeStore) GetCouponByID(ctx context.Context, id uuid.UUID) (repository.Coupon, error) {
	if err := f.hit("GetCouponByID"); err != nil {
		return repository.Coupon{}, err
	}
	c, ok := f.coupons[id]
	if !ok {
		return repository.Coupon{}, pgx.ErrNoRows
	}
	return c, nil
}

func (f *fakeStore) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (repository.Cart, error) {
	if err := f.hit("GetOrCreateCart"); err != nil {
		return repository.Cart{}, err
	}
	if c, ok := f.cartFor(userID); ok {
		return c, nil
	}
	now := f.tick()
	c := repository.Cart{ID: uuid.New(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	f.carts[c.ID] = c
	return c, nil
}

func (f *fakeStore) GetOrderByID(ctx context.Context, id uuid.UUID) (repository.Order, error) {
	if err := f.hit("GetOrderByID"); err != nil {
		return repository.Order{}, err
	}
	o, ok := f.orders[id]
	if !ok {
		return repository.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (f *fakeStore) GetOrderByIdempotencyKey(ctx context.Context, arg repository.GetOrderByIdempotencyKeyParams) (repository.Order, error) {
	if err := f.hit("GetOrderByIdempotencyKey"); err != nil {
		return repository.Order{}, err
	}
	for _, o := range f.orders {
		if o.UserID == arg.UserID && o.IdempotencyKey.Valid && o.IdempotencyKey.String == arg.IdempotencyKey {
			return o, nil
		}
	}
	return repository.Order{}, pgx.ErrNoRows
}

func (f *fakeStore) GetOrderByPaymentIntentID(ctx context.Context, paymentIntentID string) (repository.Order, error) {
	if err := f.hit("GetOrderByPaymentIntentID"); err != nil {
		return repository.Order{}, err
	}
	for _, o := range f.orders {
		var pr struct {
			ID string `json:"id"`
		}
		if len(o.PaymentResult) > 0 && json.Unmarshal(o.PaymentResult, &pr) == nil && pr.ID == paymentIntentID {
			return o, nil
		}
	}
	return repository.Order{}, pgx.ErrNoRows
}

func (f *fakeStore) GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]repository.OrderItem, error) {
	if err := f.hit("GetOrderItems"); err != nil {
		return nil, err
	}
	return append([]repository.OrderItem(nil), f.orderItems[orderID]...), nil
}

func (f *fakeStore) GetProductByID(ctx context.Context, id uuid.UUID) (repository.Product, error) {
	if err := f.hit("GetProductByID"); err != nil {
		return repository.Product{}, err
	}
	p, ok := f.products[id]
	if !ok {
		return repository.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakeStore) GetUserByID(ctx context.Context, id uuid.UUID) (repository.User, error) {
	if err := f.hit("GetUserByID"); err != nil {
		return repository.User{}, err
	}
	u, ok := f.users[id]
	if !ok {
		return repository.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeStore) IncrementCouponUsage(ctx context.Context, id uuid.UUID) (int64, error) {
	if err := f.hit("IncrementCouponUsage"); err != nil {
		return 0, err
	}
	c, ok := f.coupons[id]
	if !ok {
		return 0, nil
	}
	c.TimesUsed++
	f.coupons[id] = c
	return 1, nil
}

func (f *fakeStore) IncrementProductSales(ctx context.Context, arg repository.IncrementProductSalesParams) (int64, error) {
	if err := f.hit("IncrementProductSales"); err != nil {
		return 0, err
	}
	p, ok := f.products[arg.ID]
	if !ok {
		return 0, nil
	}
	p.SalesCount += arg.Quantity
	f.products[p.ID] = p
	return 1, nil
}

func (f *fakeStore) MarkOrderDelivered(ctx context.Context, arg repository.MarkOrderDeliveredParams) (repository.Order, error) {
	if err := f.hit("MarkOrderDelivered"); err != nil {
		return repository.Order{}, err
	}
	o, ok := f.orders[arg.ID]
	if !ok || o.Status != "shipped" {
		return repository.Order{}, pgx.ErrNoRows
	}
	o.Status = "delivered"
	o.IsDelivered = true
	o.DeliveredAt = pgtype.Timestamptz{Time: arg.DeliveredAt, Valid: true}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) MarkOrderPaid(ctx context.Context, arg repository.MarkOrderPaidParams) (repository.Order, error) {
	if err := f.hit("MarkOrderPaid"); err != nil {
		return repository.Order{}, err
	}
	o, ok := f.orders[arg.ID]
	if !ok || o.IsPaid || o.Status == "cancelled" || o.Status == "refunded" {
		return repository.Order{}, pgx.ErrNoRows
	}
	o.IsPaid = true
	o.PaidAt = pgtype.Timestamptz{Time: arg.PaidAt, Valid: true}
	o.PaymentResult = arg.PaymentResult
	if o.Status == "pending" || o.Status == "processing" {
		o.Status = "paid"
	}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) MarkOrderProcessing(ctx context.Context, arg repository.MarkOrderProcessingParams) (repository.Order, error) {
	if err := f.hit("MarkOrderProcessing"); err != nil {
		return repository.Order{}, err
	}
	o, ok := f.orders[arg.ID]
	if !ok || o.IsPaid || o.Status != "pending" {
		return repository.Order{}, pgx.ErrNoRows
	}
	o.Status = "processing"
	o.PaymentResult = arg.PaymentResult
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) MarkOrderRefunded(ctx context.Context, arg repository.MarkOrderRefundedParams) (repository.Order, error) {
	if err := f.hit("MarkOrderRefunded"); err != nil {
		return repository.Order{}, err
	}
	o, ok := f.orders[arg.ID]
	if !ok || !o.IsPaid || (o.Status != "paid" && o.Status != "shipped" && o.Status != "delivered") {
		return repository.Order{}, pgx.ErrNoRows
	}
	o.Status = "refunded"
	o.RefundedAt = pgtype.Timestamptz{Time: arg.RefundedAt, Valid: true}
	o.RefundAmount = decimal.NullDecimal{Decimal: arg.RefundAmount, Valid: true}
	o.PaymentResult = arg.PaymentResult
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) MarkOrderShipped(ctx context.Context, arg repository.MarkOrderShippedParams) (repository.Order, error) {
	if err := f.hit("MarkOrderShipped"); err != nil {
		return repository.Order{}, err
	}
	o, ok := f.orders[arg.ID]
	if !ok || !(o.Status == "paid" || (o.Status == "processing" && o.PaymentMethod == "cod")) {
		return repository.Order{}, pgx.ErrNoRows
	}
	o.Status = "shipped"
	o.ShippedAt = pgtype.Timestamptz{Time: arg.ShippedAt, Valid: true}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) ReconcileCouponUsage(ctx context.Context) (int64, error) {
	if err := f.hit("ReconcileCouponUsage"); err != nil {
		return 0, err
	}
	var changed int64
	for id, c := range f.coupons {
		var used int32
		for _, o := range f.orders {
			if o.CouponCode.Valid && o.CouponCode.String == c.Code {
				used++
			}
		}
		if c.TimesUsed != used {
			c.TimesUsed = used
			f.coupons[id] = c
			changed++
		}
	}
	return changed, nil
}

func (f *fakeStore) ReconcileProductSales(ctx context.Context) (int64, error) {
	if err := f.hit("ReconcileProductSales"); err != nil {
		return 0, err
	}
	sold := map[uuid.UUID]int32{}
	for id, o := range f.orders {
		if o.Status == "cancelled" || o.Status == "refunded" {
			continue
		}
		for _, it := range f.orderItems[id] {
			sold[it.ProductID] += it.Quantity
		}
	}
	var changed int64
	for id, p := range f.products {
		if p.SalesCount != sold[id] {
			p.SalesCount = sold[id]
			f.products[id] = p
			changed++
		}
	}
	return changed, nil
}

func (f *fakeStore) RestockProduct(ctx context.Context, arg repository.RestockProductParams) (int64, error) {
	if err := f.hit("RestockProduct"); err != nil {
		return 0, err
	}
	p, ok := f.products[arg.ID]
	if !ok {
		return 0, nil
	}
	p.Stock += arg.Quantity
	p.SalesCount -= arg.Quantity
	if p.SalesCount < 0 {
		p.SalesCount = 0
	}
	f.products[p.ID] = p
	return 1, nil
}

func (f *fakeStore) SetCartCoupon(ctx context.Context, arg repository.SetCartCouponParams) error {
	if err := f.hit("SetCartCoupon"); err != nil {
		return err
	}
	c, ok := f.carts[arg.ID]
	if !ok {
		return fmt.Errorf("cart %s not found", arg.ID)
	}
	c.CouponID = arg.CouponID
	f.carts[c.ID] = c
	return nil
}

func (f *fakeStore) UpdateReturnStatus(ctx context.Context, arg repository.UpdateReturnStatusParams) (repository.Order, error) {
	if err := f.hit("UpdateReturnStatus"); err != nil {
		return repository.Order{}, err
	}
	o, ok := f.orders[arg.ID]
	if !ok || o.ReturnStatus != arg.FromStatus {
		return repository.Order{}, pgx.ErrNoRows
	}
	o.ReturnStatus = arg.ToStatus
	if arg.ToStatus == "requested" {
		o.ReturnReason = arg.Reason
		o.ReturnRequestedAt = arg.RequestedAt
	}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) UpsertCartItem(ctx context.Context, arg repository.UpsertCartItemParams) (repository.CartItem, error) {
	if err := f.hit("UpsertCartItem"); err != nil {
		return repository.CartItem{}, err
	}
	items := f.cartItems[arg.CartID]
	for i, it := range items {
		if it.ProductID == arg.ProductID {
			items[i].Quantity = arg.Quantity
			items[i].UpdatedAt = f.tick()
			return items[i], nil
		}
	}
	now := f.tick()
	item := repository.CartItem{CartID: arg.CartID, ProductID: arg.ProductID, Quantity: arg.Quantity, CreatedAt: now, UpdatedAt: now}
	f.cartItems[arg.CartID] = append(items, item)
	return item, nil
}

func (f *fakeStore) UpsertUser(ctx context.Context, arg repository.UpsertUserParams) error {
	if err := f.hit("UpsertUser"); err != nil {
		return err
	}
	f.users[arg.ID] = repository.User{ID: arg.ID, Email: arg.Email, Name: arg.Name, Role: arg.Role}
	return nil
}
