package usecase

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/google/uuid"
)

type OrderUsecase struct {
	tx            repo.TransactionManager
	orders        repo.OrderRepository
	productOrders repo.ProductOrderRepository
	cartItems     repo.CartItemRepository
	products      repo.ProductRepository
	gateway       PaymentGateway
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	productOrders repo.ProductOrderRepository,
	cartItems repo.CartItemRepository,
	products repo.ProductRepository,
	gateway PaymentGateway,
) *OrderUsecase {
	return &OrderUsecase{
		tx:            tx,
		orders:        orders,
		productOrders: productOrders,
		cartItems:     cartItems,
		products:      products,
		gateway:       gateway,
	}
}

// 何を買うか。カート明細のIDか、商品1つの直接購入のどちらか
type CheckoutIntent struct {
	CartItemIDs []int64
	ProductID   int64
	Quantity    int64
}

func (in CheckoutIntent) fromCart() bool { return len(in.CartItemIDs) > 0 }

type PlaceOrderInput struct {
	Intent         CheckoutIntent
	PaymentMethod  string
	Notes          string
	IdempotencyKey string
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

type OrderOutput struct {
	ID                 int64             `json:"id"`
	UserID             int64             `json:"user_id"`
	Status             string            `json:"status"`
	PaymentMethod      string            `json:"payment_method"`
	Amount             int64             `json:"amount"`
	Notes              string            `json:"notes"`
	ExternalRef        string            `json:"external_ref,omitempty"`
	PaymentToken       string            `json:"payment_token,omitempty"`
	PaymentRedirectURL string            `json:"payment_redirect_url,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	Items              []OrderItemOutput `json:"items"`
}

type CheckoutPreview struct {
	Items []OrderItemOutput `json:"items"`
	Total int64             `json:"total"`
}

// 注文の1行（確定前）
type orderLine struct {
	product  model.Product
	quantity int64
}

func toOrderOutput(o model.Order, items []OrderItemOutput) OrderOutput {
	out := OrderOutput{
		ID:                 o.ID,
		UserID:             o.UserID,
		Status:             string(o.Status),
		PaymentMethod:      string(o.PaymentMethod),
		Amount:             o.Amount,
		Notes:              o.Notes,
		PaymentToken:       o.PaymentToken,
		PaymentRedirectURL: o.PaymentRedirectURL,
		CreatedAt:          o.CreatedAt,
		Items:              items,
	}
	if o.ExternalRef != nil {
		out.ExternalRef = *o.ExternalRef
	}
	if out.Items == nil {
		out.Items = []OrderItemOutput{}
	}
	return out
}

// 価格は現在の商品価格（明細は価格を持たない）
func itemsFromProductOrders(pos []model.ProductOrder) []OrderItemOutput {
	items := make([]OrderItemOutput, 0, len(pos))
	for _, po := range pos {
		items = append(items, OrderItemOutput{
			ProductID: po.ProductID,
			Name:      po.Product.Name,
			Price:     po.Product.Price,
			Quantity:  po.Quantity,
			LineTotal: po.Product.Price * po.Quantity,
		})
	}
	return items
}

func itemsFromLines(lines []orderLine) ([]OrderItemOutput, int64) {
	items := make([]OrderItemOutput, 0, len(lines))
	var total int64
	for _, l := range lines {
		line := l.product.Price * l.quantity
		items = append(items, OrderItemOutput{
			ProductID: l.product.ID,
			Name:      l.product.Name,
			Price:     l.product.Price,
			Quantity:  l.quantity,
			LineTotal: line,
		})
		total += line
	}
	return items, total
}

func validateIntent(in CheckoutIntent) error {
	if in.fromCart() {
		if in.ProductID != 0 {
			return NewHTTPError(http.StatusBadRequest, "specify either cart_item_ids or product_id")
		}
		for _, id := range in.CartItemIDs {
			if id <= 0 {
				return NewHTTPError(http.StatusBadRequest, "invalid cart_item_ids")
			}
		}
		return nil
	}
	if in.ProductID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "nothing to order")
	}
	if in.Quantity < 1 {
		return NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}
	return nil
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// intentを(商品,数量)の行に解決する。
// 在庫が1行でも足りなければエラー（何も書かない）。
// lockがtrueなら商品行をロックして読む。
func resolveLines(
	ctx context.Context,
	cartItems repo.CartItemRepository,
	products repo.ProductRepository,
	userID int64,
	in CheckoutIntent,
	lock bool,
) ([]orderLine, []int64, error) {
	type want struct {
		productID int64
		qty       int64
	}

	var wants []want
	var cartIDs []int64

	if in.fromCart() {
		cartIDs = dedupeIDs(in.CartItemIDs)
		found, err := cartItems.FindByIDs(ctx, cartIDs)
		if err != nil {
			return nil, nil, internalError(err)
		}
		byID := make(map[int64]model.CartItem, len(found))
		for _, it := range found {
			byID[it.ID] = it
		}
		for _, id := range cartIDs {
			it, ok := byID[id]
			if !ok {
				return nil, nil, NewHTTPError(http.StatusNotFound, "cart item not found")
			}
			if it.UserID != userID {
				return nil, nil, NewHTTPError(http.StatusForbidden, "forbidden")
			}
			wants = append(wants, want{productID: it.ProductID, qty: it.Quantity})
		}
	} else {
		wants = append(wants, want{productID: in.ProductID, qty: in.Quantity})
	}

	// ロックは常にproduct_id昇順で取る
	loaded := make(map[int64]model.Product, len(wants))
	ids := make([]int64, 0, len(wants))
	for _, w := range wants {
		ids = append(ids, w.productID)
	}
	slices.Sort(ids)
	for _, id := range slices.Compact(ids) {
		var (
			p   model.Product
			err error
		)
		if lock {
			p, err = products.FindByIDForUpdate(ctx, id)
		} else {
			p, err = products.FindByID(ctx, id)
		}
		if err != nil {
			return nil, nil, notFoundOr500(err)
		}
		loaded[id] = p
	}

	lines := make([]orderLine, 0, len(wants))
	for _, w := range wants {
		p := loaded[w.productID]
		if !p.IsActive {
			return nil, nil, NewHTTPError(http.StatusBadRequest, fmt.Sprintf("product %d is not available", p.ID))
		}
		if w.qty > p.Stock {
			return nil, nil, NewHTTPError(http.StatusBadRequest, "insufficient stock")
		}
		lines = append(lines, orderLine{product: p, quantity: w.qty})
	}
	return lines, cartIDs, nil
}

// 書き込みなしで明細と合計だけ返す
func (u *OrderUsecase) PreviewCheckout(ctx context.Context, userID int64, in CheckoutIntent) (CheckoutPreview, error) {
	if userID <= 0 {
		return CheckoutPreview{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := validateIntent(in); err != nil {
		return CheckoutPreview{}, err
	}
	lines, _, err := resolveLines(ctx, u.cartItems, u.products, userID, in, false)
	if err != nil {
		return CheckoutPreview{}, err
	}
	items, total := itemsFromLines(lines)
	return CheckoutPreview{Items: items, Total: total}, nil
}

// 注文確定。全部1つのTxで、どこかで失敗したら注文・明細・在庫すべて戻る
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := validateIntent(in.Intent); err != nil {
		return OrderOutput{}, err
	}
	method := model.PaymentMethod(strings.ToUpper(strings.TrimSpace(in.PaymentMethod)))
	if !method.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_method")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency key")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		if key != "" {
			existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if err != nil {
				return err
			}
			if found {
				pos, err := r.ProductOrders().ListByOrderID(ctx, existing.ID)
				if err != nil {
					return err
				}
				out = toOrderOutput(existing, itemsFromProductOrders(pos))
				return nil
			}
		}

		lines, cartIDs, err := resolveLines(ctx, r.CartItems(), r.Products(), userID, in.Intent, true)
		if err != nil {
			return err
		}
		items, amount := itemsFromLines(lines)

		order := model.Order{
			UserID:        userID,
			Amount:        amount,
			PaymentMethod: method,
			Status:        model.OrderStatusPending,
			Notes:         strings.TrimSpace(in.Notes),
		}
		if key != "" {
			order.IdempotencyKey = &key
		}
		order, err = r.Orders().Create(ctx, order)
		if err != nil {
			return err
		}

		pos := make([]model.ProductOrder, 0, len(lines))
		for _, l := range lines {
			pos = append(pos, model.ProductOrder{ProductID: l.product.ID, Quantity: l.quantity})
		}
		if err := r.ProductOrders().CreateBulk(ctx, order.ID, pos); err != nil {
			return err
		}

		// 条件付きUPDATE。同時注文に負けたら全部戻す
		for _, l := range lines {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, l.product.ID, l.quantity)
			if err != nil {
				return err
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "insufficient stock")
			}
		}

		if method == model.PaymentMethodTransferBank {
			if err := u.requestPayment(ctx, r, &order, lines); err != nil {
				return err
			}
		}

		if len(cartIDs) > 0 {
			if err := r.CartItems().DeleteByIDs(ctx, userID, cartIDs); err != nil {
				return err
			}
		}

		out = toOrderOutput(order, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, passOr500(err)
	}
	return out, nil
}

// ゲートウェイ側の注文ID。再試行で衝突しないようにsuffixを付ける
func newExternalRef(orderID int64) string {
	return fmt.Sprintf("ORD-%d-%s", orderID, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (u *OrderUsecase) requestPayment(ctx context.Context, r repo.TxRepos, order *model.Order, lines []orderLine) error {
	if u.gateway == nil {
		return NewHTTPError(http.StatusBadGateway, "payment gateway unavailable")
	}

	user, err := r.Users().FindByID(ctx, order.UserID)
	if err != nil {
		return notFoundOr500(err)
	}

	ref := newExternalRef(order.ID)
	req := PaymentRequest{
		OrderRef: ref,
		Amount:   order.Amount,
		Customer: PaymentCustomer{
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
			Phone:     user.PhoneNumber,
		},
	}
	for _, l := range lines {
		req.Items = append(req.Items, PaymentItem{
			ProductID: l.product.ID,
			Name:      l.product.Name,
			Price:     l.product.Price,
			Quantity:  l.quantity,
		})
	}

	session, err := u.gateway.CreateTransaction(ctx, req)
	if err != nil {
		return &HTTPError{Status: http.StatusBadGateway, Message: "payment gateway error", Err: err}
	}

	if err := r.Orders().SetPayment(ctx, order.ID, ref, session.Token, session.RedirectURL); err != nil {
		return err
	}
	order.ExternalRef = &ref
	order.PaymentToken = session.Token
	order.PaymentRedirectURL = session.RedirectURL
	return nil
}

// 自分の注文一覧（新しい順）
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	orders, err := u.orders.ListByUserID(ctx, userID)
	if err != nil {
		return nil, internalError(err)
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		pos, err := u.productOrders.ListByOrderID(ctx, o.ID)
		if err != nil {
			return nil, internalError(err)
		}
		outs = append(outs, toOrderOutput(o, itemsFromProductOrders(pos)))
	}
	return outs, nil
}

// 他人の注文は403
func (u *OrderUsecase) GetMyOrder(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, notFoundOr500(err)
	}
	if o.UserID != userID {
		return OrderOutput{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	pos, err := u.productOrders.ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, internalError(err)
	}
	return toOrderOutput(o, itemsFromProductOrders(pos)), nil
}
