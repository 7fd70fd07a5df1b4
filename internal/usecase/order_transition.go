package usecase

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// PENDING以外からは動かせない
var errOrderFinalized = errors.New("order already finalized")

// 注文ステータスの遷移はここだけ。
// PENDING→APPROVE / PENDING→CANCEL のみ。同じステータスへは何もしない(false)。
// CANCELなら明細の数量を在庫に戻す。
func transitionOrder(ctx context.Context, r repo.TxRepos, order model.Order, target model.OrderStatus) (bool, error) {
	if order.Status == target {
		return false, nil
	}
	if order.Status != model.OrderStatusPending || !target.IsTerminal() {
		return false, errOrderFinalized
	}

	// 条件付きUPDATE。先に別の遷移が入っていたら負け
	ok, err := r.Orders().UpdateStatus(ctx, order.ID, model.OrderStatusPending, target)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, errOrderFinalized
	}

	if target == model.OrderStatusCancel {
		lines, err := r.ProductOrders().ListByOrderID(ctx, order.ID)
		if err != nil {
			return false, err
		}
		for _, l := range lines {
			if err := r.Inventory().IncreaseStock(ctx, l.ProductID, l.Quantity); err != nil {
				return false, err
			}
		}
	}
	return true, nil
}
