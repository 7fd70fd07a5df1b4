package usecase

import "context"

// 決済ゲートウェイ（Midtrans Snapなど）
type PaymentGateway interface {
	CreateTransaction(ctx context.Context, req PaymentRequest) (PaymentSession, error)
	VerifySignature(orderRef string, statusCode string, grossAmount string, signature string) bool
}

type PaymentItem struct {
	ProductID int64
	Name      string
	Price     int64
	Quantity  int64
}

type PaymentCustomer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

type PaymentRequest struct {
	OrderRef string
	Amount   int64
	Items    []PaymentItem
	Customer PaymentCustomer
}

type PaymentSession struct {
	Token       string
	RedirectURL string
}
