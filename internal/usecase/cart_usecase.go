package usecase

import (
	"context"
	"errors"
	"net/http"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// CartUsecase は /cart の業務ロジックです。
// 在庫はチェックするだけで確保しない（注文確定時に減算）。
type CartUsecase struct {
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
}

func NewCartUsecase(cartItemRepo repo.CartItemRepository, productRepo repo.ProductRepository) *CartUsecase {
	return &CartUsecase{
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
	}
}

type CartItemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Stock     int64  `json:"stock"`
	LineTotal int64  `json:"line_total"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total int64              `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	// 0は1として扱う
	Quantity int64
}

func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return u.buildCartResponse(ctx, userID)
}

// 同じ商品は数量を加算。合計が在庫を超えたら拒否
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	p, err := u.productRepo.FindByID(ctx, in.ProductID)
	if err != nil {
		return CartResponse{}, notFoundOr500(err)
	}
	if !p.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "product is not available")
	}

	existing, err := u.cartItemRepo.FindByUserAndProduct(ctx, userID, in.ProductID)
	switch {
	case err == nil:
		newQty := existing.Quantity + qty
		if newQty > p.Stock {
			return CartResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
		}
		if err := u.cartItemRepo.UpdateQuantity(ctx, existing.ID, newQty); err != nil {
			return CartResponse{}, notFoundOr500(err)
		}
	case errors.Is(err, repo.ErrNotFound):
		if p.Stock <= 0 {
			return CartResponse{}, NewHTTPError(http.StatusBadRequest, "out of stock")
		}
		if qty > p.Stock {
			return CartResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
		}
		if _, err := u.cartItemRepo.Create(ctx, model.CartItem{
			UserID:    userID,
			ProductID: in.ProductID,
			Quantity:  qty,
		}); err != nil {
			return CartResponse{}, internalError(err)
		}
	default:
		return CartResponse{}, internalError(err)
	}

	return u.buildCartResponse(ctx, userID)
}

// deltaは+1か-1のみ。1未満と在庫超えは拒否
func (u *CartUsecase) UpdateQuantity(ctx context.Context, userID int64, cartItemID int64, delta int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if delta != 1 && delta != -1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "delta must be +1 or -1")
	}

	item, err := u.ownedItem(ctx, userID, cartItemID)
	if err != nil {
		return CartResponse{}, err
	}

	newQty := item.Quantity + delta
	if newQty < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "quantity must be at least 1")
	}
	if delta > 0 {
		p, err := u.productRepo.FindByID(ctx, item.ProductID)
		if err != nil {
			return CartResponse{}, notFoundOr500(err)
		}
		if newQty > p.Stock {
			return CartResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
		}
	}

	if err := u.cartItemRepo.UpdateQuantity(ctx, cartItemID, newQty); err != nil {
		return CartResponse{}, notFoundOr500(err)
	}
	return u.buildCartResponse(ctx, userID)
}

func (u *CartUsecase) DeleteCartItem(ctx context.Context, userID int64, cartItemID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if _, err := u.ownedItem(ctx, userID, cartItemID); err != nil {
		return CartResponse{}, err
	}
	if err := u.cartItemRepo.DeleteByID(ctx, cartItemID); err != nil {
		return CartResponse{}, notFoundOr500(err)
	}
	return u.buildCartResponse(ctx, userID)
}

// 無ければ404、他人のものなら403
func (u *CartUsecase) ownedItem(ctx context.Context, userID int64, cartItemID int64) (model.CartItem, error) {
	item, err := u.cartItemRepo.FindByID(ctx, cartItemID)
	if err != nil {
		return model.CartItem{}, notFoundOr500(err)
	}
	if item.UserID != userID {
		return model.CartItem{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return item, nil
}

func (u *CartUsecase) buildCartResponse(ctx context.Context, userID int64) (CartResponse, error) {
	items, err := u.cartItemRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, internalError(err)
	}

	out := CartResponse{Items: make([]CartItemResponse, 0, len(items))}
	for _, it := range items {
		line := it.Product.Price * it.Quantity
		out.Items = append(out.Items, CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.Product.Name,
			Price:     it.Product.Price,
			Quantity:  it.Quantity,
			Stock:     it.Product.Stock,
			LineTotal: line,
		})
		out.Total += line
	}
	return out, nil
}
