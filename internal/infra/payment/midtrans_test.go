package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/config"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMidtrans_CreateTransaction(t *testing.T) {
	var got snapRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/snap/v1/transactions", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "SB-server", user)
		assert.Equal(t, "", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"token":"snap-token","redirect_url":"https://pay.example/snap-token"}`))
	}))
	defer srv.Close()

	m := NewMidtrans(config.Config{MidtransServerKey: "SB-server", MidtransBaseURL: srv.URL})

	out, err := m.CreateTransaction(context.Background(), usecase.PaymentRequest{
		OrderRef: "ORD-1-abc",
		Amount:   250000,
		Items: []usecase.PaymentItem{
			{ProductID: 7, Name: "Keyboard", Price: 125000, Quantity: 2},
		},
		Customer: usecase.PaymentCustomer{FirstName: "Sari", Email: "sari@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "snap-token", out.Token)
	assert.Equal(t, "https://pay.example/snap-token", out.RedirectURL)

	assert.Equal(t, "ORD-1-abc", got.TransactionDetails.OrderID)
	assert.Equal(t, int64(250000), got.TransactionDetails.GrossAmount)
	require.Len(t, got.ItemDetails, 1)
	assert.Equal(t, "7", got.ItemDetails[0].ID)
	assert.Equal(t, "sari@example.com", got.CustomerDetails.Email)
}

func TestMidtrans_CreateTransaction_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error_messages":["Access denied"]}`))
	}))
	defer srv.Close()

	m := NewMidtrans(config.Config{MidtransServerKey: "bad", MidtransBaseURL: srv.URL})

	_, err := m.CreateTransaction(context.Background(), usecase.PaymentRequest{OrderRef: "ORD-2-x", Amount: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Access denied")
}

func TestMidtrans_VerifySignature(t *testing.T) {
	m := NewMidtrans(config.Config{MidtransServerKey: "SB-server"})

	sig := Signature("ORD-1-abc", "200", "250000.00", "SB-server")
	assert.Len(t, sig, 128)

	assert.True(t, m.VerifySignature("ORD-1-abc", "200", "250000.00", sig))
	assert.False(t, m.VerifySignature("ORD-1-abc", "200", "250001.00", sig))
	assert.False(t, m.VerifySignature("ORD-1-abc", "200", "250000.00", ""))

	// server key未設定なら常にNG
	assert.False(t, NewMidtrans(config.Config{}).VerifySignature("ORD-1-abc", "200", "250000.00", sig))
}
