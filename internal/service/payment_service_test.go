package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGatewayServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, PaymentService) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc := NewPaymentService(FlutterwaveConfig{
		SecretKey:   "FLWSECK_TEST-secret",
		BaseURL:     server.URL,
		CallbackURL: "http://localhost:8080/payments/callback",
	})
	return server, svc
}

func TestInitializePaymentBuildsTypedRequest(t *testing.T) {
	var captured flwPaymentPayload

	_, svc := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments", r.URL.Path)
		assert.Equal(t, "Bearer FLWSECK_TEST-secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","message":"Hosted Link","data":{"link":"https://checkout.flutterwave.com/v3/hosted/pay/abc"}}`))
	})

	result, err := svc.InitializePayment(context.Background(), InitializePaymentRequest{
		Amount:        decimal.RequireFromString("1500.50"),
		CustomerEmail: "amina@example.com",
		CustomerName:  "Amina Bello",
		Title:         "KogiExportHub Payment",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.flutterwave.com/v3/hosted/pay/abc", result.PaymentLink)
	assert.NotEmpty(t, result.TxRef)
	assert.Equal(t, result.TxRef, captured.TxRef)
	assert.Equal(t, "1500.50", captured.Amount)
	assert.Equal(t, "NGN", captured.Currency)
	assert.Equal(t, "http://localhost:8080/payments/callback", captured.RedirectURL)
	assert.Equal(t, "amina@example.com", captured.Customer.Email)
	require.NotNil(t, captured.Customizations)
	assert.Equal(t, "KogiExportHub Payment", captured.Customizations.Title)
}

func TestVerifyPayment(t *testing.T) {
	_, svc := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/12345/verify", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"success","message":"ok","data":{"status":"successful","amount":1500.5,"currency":"NGN"}}`))
	})

	verification, err := svc.VerifyPayment(context.Background(), "12345")
	require.NoError(t, err)

	assert.True(t, verification.IsSuccessful)
	assert.Equal(t, "successful", verification.Status)
	assert.Equal(t, "1500.5", verification.Amount.String())
	assert.Equal(t, "NGN", verification.Currency)
}

func TestVerifyPaymentFailedStatus(t *testing.T) {
	_, svc := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","message":"ok","data":{"status":"failed","amount":100,"currency":"NGN"}}`))
	})

	verification, err := svc.VerifyPayment(context.Background(), "12345")
	require.NoError(t, err)

	assert.False(t, verification.IsSuccessful)
	assert.Equal(t, "failed", verification.Status)
}

func TestGatewayErrorEnvelopeSurfacesMessage(t *testing.T) {
	_, svc := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"error","message":"Invalid authorization key","data":null}`))
	})

	_, err := svc.VerifyPayment(context.Background(), "12345")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid authorization key")
}

func TestInitiateTransfer(t *testing.T) {
	_, svc := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transfers", r.URL.Path)

		var payload flwTransferPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "044", payload.AccountBank)
		assert.Equal(t, "0690000040", payload.AccountNumber)
		assert.Equal(t, "250000.00", payload.Amount)
		assert.Equal(t, "NGN", payload.Currency)
		assert.NotEmpty(t, payload.Reference)

		_, _ = w.Write([]byte(`{"status":"success","message":"Transfer Queued","data":{"id":987,"reference":"DISB-xyz","status":"NEW"}}`))
	})

	result, err := svc.InitiateTransfer(context.Background(), TransferRequest{
		Amount:           decimal.NewFromInt(250000),
		RecipientAccount: "0690000040",
		BankCode:         "044",
		RecipientName:    "Lokoja Roads Ltd",
		Narration:        "Disbursement: Lokoja-Ajaokuta road",
	})
	require.NoError(t, err)

	assert.Equal(t, "987", result.TransferID)
	assert.Equal(t, "DISB-xyz", result.Reference)
	assert.Equal(t, "NEW", result.Status)
}

func TestListBanks(t *testing.T) {
	_, svc := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/banks/NG", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"success","message":"ok","data":[{"code":"044","name":"Access Bank"},{"code":"058","name":"GTBank"}]}`))
	})

	banks, err := svc.ListBanks(context.Background())
	require.NoError(t, err)
	require.Len(t, banks, 2)
	assert.Equal(t, "044", banks[0].Code)
	assert.Equal(t, "GTBank", banks[1].Name)
}

func TestValidateAccount(t *testing.T) {
	_, svc := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/resolve", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"success","message":"ok","data":{"account_number":"0690000040","account_name":"LOKOJA ROADS LTD"}}`))
	})

	account, err := svc.ValidateAccount(context.Background(), "0690000040", "044")
	require.NoError(t, err)

	assert.Equal(t, "0690000040", account.AccountNumber)
	assert.Equal(t, "LOKOJA ROADS LTD", account.AccountName)
}
