package usecase

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/datatypes"
)

// 決済ゲートウェイからの非同期通知（Midtrans HTTP notification）
type PaymentNotificationInput struct {
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`

	// 受け取ったJSONそのまま（保存用）
	Raw []byte `json:"-"`
}

type PaymentNotificationResult struct {
	Message        string `json:"message"`
	OrderID        int64  `json:"order_id"`
	Status         string `json:"status"`
	AlreadyHandled bool   `json:"already_processed"`
}

type PaymentUsecase struct {
	tx      repo.TransactionManager
	gateway PaymentGateway
}

func NewPaymentUsecase(tx repo.TransactionManager, gateway PaymentGateway) *PaymentUsecase {
	return &PaymentUsecase{tx: tx, gateway: gateway}
}

// transaction_statusを注文ステータスに変換。空は「変更なし」
func MapTransactionStatus(transactionStatus string, fraudStatus string) model.OrderStatus {
	switch strings.ToLower(transactionStatus) {
	case "settlement":
		return model.OrderStatusApprove
	case "capture":
		switch strings.ToLower(fraudStatus) {
		case "", "accept":
			return model.OrderStatusApprove
		}
		return ""
	case "deny", "cancel", "expire", "failure":
		return model.OrderStatusCancel
	}
	return ""
}

// "250000.00" → 250000。小数部が0以外ならエラー
func parseGrossAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	intPart, frac, _ := strings.Cut(s, ".")
	if strings.Trim(frac, "0") != "" {
		return 0, errors.New("fractional gross amount")
	}
	return strconv.ParseInt(intPart, 10, 64)
}

// 署名を確認してから状態を変える。
// 同じ(transaction_id, transaction_status)の再送は何も変えない。
func (u *PaymentUsecase) HandleNotification(ctx context.Context, in PaymentNotificationInput) (PaymentNotificationResult, error) {
	if in.OrderID == "" || in.StatusCode == "" || in.GrossAmount == "" || in.TransactionStatus == "" {
		return PaymentNotificationResult{}, NewHTTPError(http.StatusBadRequest, "invalid notification")
	}
	if u.gateway == nil || !u.gateway.VerifySignature(in.OrderID, in.StatusCode, in.GrossAmount, in.SignatureKey) {
		return PaymentNotificationResult{}, NewHTTPError(http.StatusForbidden, "invalid signature")
	}

	gross, err := parseGrossAmount(in.GrossAmount)
	if err != nil {
		return PaymentNotificationResult{}, NewHTTPError(http.StatusBadRequest, "invalid gross_amount")
	}

	// transaction_idが無い通知はorder_idで代用
	txID := strings.TrimSpace(in.TransactionID)
	if txID == "" {
		txID = in.OrderID
	}

	var out PaymentNotificationResult

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		order, err := r.Orders().FindByExternalRefForUpdate(ctx, in.OrderID)
		if err != nil {
			return notFoundOr500(err)
		}
		if gross != order.Amount {
			return NewHTTPError(http.StatusBadRequest, "gross_amount mismatch")
		}

		out.OrderID = order.ID
		out.Status = string(order.Status)

		payload := in.Raw
		if len(payload) == 0 {
			payload = []byte("{}")
		}
		n := &model.PaymentNotification{
			TransactionID:     txID,
			TransactionStatus: strings.ToLower(in.TransactionStatus),
			OrderRef:          in.OrderID,
			OrderID:           order.ID,
			StatusCode:        in.StatusCode,
			FraudStatus:       in.FraudStatus,
			GrossAmount:       in.GrossAmount,
			Payload:           datatypes.JSON(payload),
		}
		created, err := r.PaymentNotifications().CreateIfAbsent(ctx, n)
		if err != nil {
			return err
		}
		if !created {
			out.Message = "already processed"
			out.AlreadyHandled = true
			return nil
		}

		target := MapTransactionStatus(in.TransactionStatus, in.FraudStatus)
		if target == "" {
			out.Message = "no status change"
			return nil
		}

		changed, err := transitionOrder(ctx, r, order, target)
		if errors.Is(err, errOrderFinalized) {
			// 確定済みの注文への通知は無視
			out.Message = "order already finalized"
			return nil
		}
		if err != nil {
			return err
		}
		if !changed {
			out.Message = "no status change"
			return nil
		}

		if err := r.PaymentNotifications().SetAppliedStatus(ctx, n.ID, target); err != nil {
			return err
		}
		out.Status = string(target)
		out.Message = "order updated"
		return nil
	})
	if err != nil {
		return PaymentNotificationResult{}, passOr500(err)
	}
	return out, nil
}
