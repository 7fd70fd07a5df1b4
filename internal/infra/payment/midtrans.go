package payment

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/usecase"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	sandboxBaseURL    = "https://app.sandbox.midtrans.com"
	productionBaseURL = "https://app.midtrans.com"
)

// Midtrans Snap
type Midtrans struct {
	serverKey string
	client    *resty.Client
}

func NewMidtrans(cfg config.Config) *Midtrans {
	base := cfg.MidtransBaseURL
	if base == "" {
		base = sandboxBaseURL
		if cfg.MidtransProduction {
			base = productionBaseURL
		}
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(base, "/")).
		SetTimeout(30*time.Second).
		SetBasicAuth(cfg.MidtransServerKey, "").
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	return &Midtrans{serverKey: cfg.MidtransServerKey, client: client}
}

type snapTransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type snapItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
}

type snapCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

type snapRequest struct {
	TransactionDetails snapTransactionDetails `json:"transaction_details"`
	ItemDetails        []snapItem             `json:"item_details"`
	CustomerDetails    snapCustomer           `json:"customer_details"`
}

type snapResponse struct {
	Token         string   `json:"token"`
	RedirectURL   string   `json:"redirect_url"`
	ErrorMessages []string `json:"error_messages"`
}

func (m *Midtrans) CreateTransaction(ctx context.Context, req usecase.PaymentRequest) (usecase.PaymentSession, error) {
	body := snapRequest{
		TransactionDetails: snapTransactionDetails{OrderID: req.OrderRef, GrossAmount: req.Amount},
		CustomerDetails: snapCustomer{
			FirstName: req.Customer.FirstName,
			LastName:  req.Customer.LastName,
			Email:     req.Customer.Email,
			Phone:     req.Customer.Phone,
		},
	}
	for _, it := range req.Items {
		body.ItemDetails = append(body.ItemDetails, snapItem{
			ID:       fmt.Sprintf("%d", it.ProductID),
			Name:     truncate(it.Name, 50),
			Price:    it.Price,
			Quantity: it.Quantity,
		})
	}

	var out snapResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&out).
		Post("/snap/v1/transactions")
	if err != nil {
		return usecase.PaymentSession{}, fmt.Errorf("midtrans request: %w", err)
	}
	if resp.IsError() || out.Token == "" {
		zap.L().Warn("midtrans rejected transaction",
			zap.String("order_ref", req.OrderRef),
			zap.Int("status", resp.StatusCode()),
			zap.Strings("errors", out.ErrorMessages),
		)
		return usecase.PaymentSession{}, fmt.Errorf("midtrans status %d: %s", resp.StatusCode(), strings.Join(out.ErrorMessages, "; "))
	}

	return usecase.PaymentSession{Token: out.Token, RedirectURL: out.RedirectURL}, nil
}

// sha512(order_id + status_code + gross_amount + server_key)
func (m *Midtrans) VerifySignature(orderRef string, statusCode string, grossAmount string, signature string) bool {
	if m.serverKey == "" || signature == "" {
		return false
	}
	want := Signature(orderRef, statusCode, grossAmount, m.serverKey)
	return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(signature))) == 1
}

func Signature(orderRef string, statusCode string, grossAmount string, serverKey string) string {
	sum := sha512.Sum512([]byte(orderRef + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
