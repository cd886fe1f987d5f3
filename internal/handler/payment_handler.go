package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/faruq2021/KogiExportHub/internal/middleware"
	"github.com/faruq2021/KogiExportHub/internal/model"
	"github.com/faruq2021/KogiExportHub/internal/repository"
	"github.com/faruq2021/KogiExportHub/internal/service"
	"github.com/faruq2021/KogiExportHub/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PaymentHandler struct {
	marketplaceService service.MarketplaceService
	fundingService     service.FundingService
	paymentService     service.PaymentService
	receiptService     service.ReceiptService
	transactionRepo    repository.TransactionRepository
}

// NewPaymentHandler sets up routing dependencies for checkout and gateway callbacks
func NewPaymentHandler(
	marketplaceService service.MarketplaceService,
	fundingService service.FundingService,
	paymentService service.PaymentService,
	receiptService service.ReceiptService,
	transactionRepo repository.TransactionRepository,
) *PaymentHandler {
	return &PaymentHandler{
		marketplaceService: marketplaceService,
		fundingService:     fundingService,
		paymentService:     paymentService,
		receiptService:     receiptService,
		transactionRepo:    transactionRepo,
	}
}

// RegisterRoutes binds the endpoints to the gin RouterGroup
func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleSeller, model.RoleBuyer, model.RoleInvestor)

	router.POST("/checkout", anyRole, h.Checkout)
	// The gateway redirects the customer here after payment; no auth.
	router.GET("/payments/callback", h.Callback)
	router.GET("/payments/banks", anyRole, h.ListBanks)
	router.GET("/transactions/:id/receipt", anyRole, h.DownloadPaymentReceipt)
}

// Checkout handles POST /checkout to start a marketplace payment
// @Summary      Checkout cart
// @Description  Creates pending transactions for the cart items and returns a hosted payment link
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CheckoutRequest  true  "Cart Items"
// @Success      200      {object}  response.Response{data=service.CheckoutResult}
// @Failure      400      {object}  response.Response
// @Router       /checkout [post]
func (h *PaymentHandler) Checkout(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.marketplaceService.Checkout(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Callback handles GET /payments/callback, the gateway redirect target.
// It verifies the payment, then completes either a funding contribution or a
// marketplace checkout depending on what the reference belongs to.
// @Summary      Payment callback
// @Description  Verifies a gateway payment and finalizes the matching checkout or contribution
// @Tags         payments
// @Produce      json
// @Param        tx_ref          query     string  true   "Gateway transaction reference"
// @Param        transaction_id  query     string  true   "Gateway transaction id"
// @Param        status          query     string  false  "Redirect status"
// @Success      200             {object}  response.Response{data=object}
// @Failure      400             {object}  response.Response
// @Failure      402             {object}  response.Response
// @Router       /payments/callback [get]
func (h *PaymentHandler) Callback(c *gin.Context) {
	txRef := c.Query("tx_ref")
	gatewayTxID := c.Query("transaction_id")
	if txRef == "" || gatewayTxID == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "tx_ref and transaction_id are required"))
		return
	}

	if status := c.Query("status"); status == "cancelled" {
		c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
			"status": "cancelled",
			"tx_ref": txRef,
		}))
		return
	}

	verification, err := h.paymentService.VerifyPayment(c.Request.Context(), gatewayTxID)
	if err != nil {
		c.JSON(http.StatusBadGateway, response.Error(http.StatusBadGateway, "Payment verification failed: "+err.Error()))
		return
	}
	if !verification.IsSuccessful {
		c.JSON(http.StatusPaymentRequired, response.Error(http.StatusPaymentRequired, "Payment was not successful: "+verification.Status))
		return
	}

	// A reference belongs to either a funding contribution or a checkout.
	if contribution, err := h.fundingService.CompleteContributionByReference(c.Request.Context(), txRef); err == nil {
		c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
			"status":          "completed",
			"type":            "contribution",
			"contribution_id": contribution.ID.String(),
		}))
		return
	}

	completed, err := h.marketplaceService.CompleteCheckout(c.Request.Context(), txRef)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"status":          "completed",
		"type":            "checkout",
		"transaction_ids": completed,
	}))
}

// ListBanks handles GET /payments/banks
// @Summary      List Nigerian banks
// @Description  Returns the gateway's bank directory for disbursement setup
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.Bank}
// @Failure      502  {object}  response.Response
// @Router       /payments/banks [get]
func (h *PaymentHandler) ListBanks(c *gin.Context) {
	banks, err := h.paymentService.ListBanks(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, response.Error(http.StatusBadGateway, "Failed to fetch banks: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, banks))
}

// DownloadPaymentReceipt handles GET /transactions/:id/receipt
// @Summary      Download payment receipt
// @Description  Renders the payment receipt for a completed transaction as a printable HTML document
// @Tags         payments
// @Produce      html
// @Security     BearerAuth
// @Param        id   path  int  true  "Transaction ID"
// @Success      200  {string}  string  "HTML receipt"
// @Failure      404  {object}  response.Response
// @Router       /transactions/{id}/receipt [get]
func (h *PaymentHandler) DownloadPaymentReceipt(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid transaction id"))
		return
	}

	tx, err := h.transactionRepo.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Transaction not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch transaction"))
		return
	}

	html, err := h.receiptService.RenderPaymentReceipt(tx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=PaymentReceipt_%d.html", tx.ID))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
