package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const flutterwaveBaseURL = "https://api.flutterwave.com/v3"

// FlutterwaveConfig carries gateway credentials and endpoints
type FlutterwaveConfig struct {
	SecretKey   string
	BaseURL     string // defaults to the Flutterwave v3 API
	CallbackURL string // where the gateway redirects after payment
}

// --- Typed gateway DTOs ---

type InitializePaymentRequest struct {
	Amount        decimal.Decimal
	Currency      string
	CustomerEmail string
	CustomerName  string
	Title         string
	Description   string
}

type PaymentInitResult struct {
	PaymentLink string
	TxRef       string
}

type PaymentVerification struct {
	IsSuccessful bool
	Amount       decimal.Decimal
	Currency     string
	Status       string
}

type TransferRequest struct {
	Amount           decimal.Decimal
	RecipientAccount string
	BankCode         string
	RecipientName    string
	Narration        string
}

type TransferResult struct {
	TransferID string
	Reference  string
	Status     string
}

type Bank struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type AccountValidation struct {
	AccountNumber string
	AccountName   string
}

// --- Wire formats ---
// Every gateway response is an envelope with status/message plus an
// endpoint-specific data payload; each payload gets its own struct rather
// than dynamic JSON.

type flwEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type flwPaymentLinkData struct {
	Link string `json:"link"`
}

type flwVerifyData struct {
	Status   string          `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type flwTransferData struct {
	ID        int64  `json:"id"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

type flwBankData []Bank

type flwAccountData struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

type flwPaymentPayload struct {
	TxRef          string             `json:"tx_ref"`
	Amount         string             `json:"amount"`
	Currency       string             `json:"currency"`
	RedirectURL    string             `json:"redirect_url"`
	Customer       flwCustomer        `json:"customer"`
	Customizations *flwCustomizations `json:"customizations,omitempty"`
}

type flwCustomer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type flwCustomizations struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type flwTransferPayload struct {
	AccountBank   string `json:"account_bank"`
	AccountNumber string `json:"account_number"`
	Amount        string `json:"amount"`
	Narration     string `json:"narration"`
	Currency      string `json:"currency"`
	Reference     string `json:"reference"`
	Beneficiary   string `json:"beneficiary_name"`
}

type flwAccountPayload struct {
	AccountNumber string `json:"account_number"`
	AccountBank   string `json:"account_bank"`
}

// --- Interface ---

// PaymentService wraps the Flutterwave v3 REST API with strongly typed
// requests and responses.
type PaymentService interface {
	InitializePayment(ctx context.Context, req InitializePaymentRequest) (*PaymentInitResult, error)
	VerifyPayment(ctx context.Context, transactionID string) (*PaymentVerification, error)
	InitiateTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
	VerifyTransfer(ctx context.Context, transferID string) (*TransferResult, error)
	ListBanks(ctx context.Context) ([]Bank, error)
	ValidateAccount(ctx context.Context, accountNumber, bankCode string) (*AccountValidation, error)
}

type paymentService struct {
	config FlutterwaveConfig
	client *http.Client
}

func NewPaymentService(config FlutterwaveConfig) PaymentService {
	if config.BaseURL == "" {
		config.BaseURL = flutterwaveBaseURL
	}
	return &paymentService{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// --- Implementation ---

func (s *paymentService) InitializePayment(ctx context.Context, req InitializePaymentRequest) (*PaymentInitResult, error) {
	currency := req.Currency
	if currency == "" {
		currency = "NGN"
	}

	txRef := uuid.NewString()
	payload := flwPaymentPayload{
		TxRef:       txRef,
		Amount:      req.Amount.StringFixed(2),
		Currency:    currency,
		RedirectURL: s.config.CallbackURL,
		Customer: flwCustomer{
			Email: req.CustomerEmail,
			Name:  req.CustomerName,
		},
	}
	if req.Title != "" || req.Description != "" {
		payload.Customizations = &flwCustomizations{Title: req.Title, Description: req.Description}
	}

	var data flwPaymentLinkData
	if err := s.post(ctx, "/payments", payload, &data); err != nil {
		return nil, err
	}

	return &PaymentInitResult{PaymentLink: data.Link, TxRef: txRef}, nil
}

func (s *paymentService) VerifyPayment(ctx context.Context, transactionID string) (*PaymentVerification, error) {
	var data flwVerifyData
	if err := s.get(ctx, "/transactions/"+transactionID+"/verify", &data); err != nil {
		return nil, err
	}

	return &PaymentVerification{
		IsSuccessful: data.Status == "successful",
		Amount:       data.Amount,
		Currency:     data.Currency,
		Status:       data.Status,
	}, nil
}

func (s *paymentService) InitiateTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	payload := flwTransferPayload{
		AccountBank:   req.BankCode,
		AccountNumber: req.RecipientAccount,
		Amount:        req.Amount.StringFixed(2),
		Narration:     req.Narration,
		Currency:      "NGN",
		Reference:     "DISB-" + uuid.NewString(),
		Beneficiary:   req.RecipientName,
	}

	var data flwTransferData
	if err := s.post(ctx, "/transfers", payload, &data); err != nil {
		return nil, err
	}

	return &TransferResult{
		TransferID: fmt.Sprintf("%d", data.ID),
		Reference:  data.Reference,
		Status:     data.Status,
	}, nil
}

func (s *paymentService) VerifyTransfer(ctx context.Context, transferID string) (*TransferResult, error) {
	var data flwTransferData
	if err := s.get(ctx, "/transfers/"+transferID, &data); err != nil {
		return nil, err
	}

	return &TransferResult{
		TransferID: fmt.Sprintf("%d", data.ID),
		Reference:  data.Reference,
		Status:     data.Status,
	}, nil
}

func (s *paymentService) ListBanks(ctx context.Context) ([]Bank, error) {
	var data flwBankData
	if err := s.get(ctx, "/banks/NG", &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *paymentService) ValidateAccount(ctx context.Context, accountNumber, bankCode string) (*AccountValidation, error) {
	payload := flwAccountPayload{AccountNumber: accountNumber, AccountBank: bankCode}

	var data flwAccountData
	if err := s.post(ctx, "/accounts/resolve", payload, &data); err != nil {
		return nil, err
	}

	return &AccountValidation{
		AccountNumber: data.AccountNumber,
		AccountName:   data.AccountName,
	}, nil
}

// --- HTTP plumbing ---

func (s *paymentService) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode gateway payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return s.do(req, out)
}

func (s *paymentService) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}

	return s.do(req, out)
}

func (s *paymentService) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+s.config.SecretKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %w", err)
	}

	var envelope flwEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}

	if envelope.Status != "success" {
		if envelope.Message != "" {
			return fmt.Errorf("gateway error: %s", envelope.Message)
		}
		return fmt.Errorf("gateway error: HTTP %d", resp.StatusCode)
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode gateway data: %w", err)
		}
	}

	return nil
}
