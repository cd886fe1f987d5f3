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
	"github.com/faruq2021/KogiExportHub/pkg/pagination"
	"github.com/faruq2021/KogiExportHub/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TaxationHandler struct {
	taxService     service.TaxService
	revenueService service.RevenueService
	receiptService service.ReceiptService
	recordRepo     repository.TaxRecordRepository
}

// NewTaxationHandler sets up routing dependencies for tax administration,
// the revenue dashboard and receipt retrieval.
func NewTaxationHandler(
	taxService service.TaxService,
	revenueService service.RevenueService,
	receiptService service.ReceiptService,
	recordRepo repository.TaxRecordRepository,
) *TaxationHandler {
	return &TaxationHandler{
		taxService:     taxService,
		revenueService: revenueService,
		receiptService: receiptService,
		recordRepo:     recordRepo,
	}
}

// RegisterRoutes binds the endpoints to the gin RouterGroup
func (h *TaxationHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := middleware.RequireRole(model.RoleAdmin)
	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleSeller, model.RoleBuyer, model.RoleInvestor)

	rules := router.Group("/tax-rules")
	{
		rules.GET("", admin, h.ListTaxRules)
		rules.POST("", admin, h.CreateTaxRule)
		rules.PUT("/:id", admin, h.UpdateTaxRule)
	}

	revenue := router.Group("/revenue")
	{
		revenue.GET("/dashboard", admin, h.RevenueDashboard)
		revenue.GET("/reports", admin, h.RevenueReport)
		revenue.GET("/categories", admin, h.RevenueCategories)
	}

	router.GET("/transactions/:id/tax-receipt", anyRole, h.GetTaxReceipt)
	router.GET("/transactions/:id/tax-receipt/download", anyRole, h.DownloadTaxReceipt)
}

// ListTaxRules handles GET /tax-rules
// @Summary      List tax rules
// @Description  Retrieves a paginated list of tax rules, active and inactive
// @Tags         taxation
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /tax-rules [get]
func (h *TaxationHandler) ListTaxRules(c *gin.Context) {
	params := pagination.Parse(c)

	rules, total, err := h.taxService.ListTaxRules(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch tax rules"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"tax_rules": rules,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}

// CreateTaxRule handles POST /tax-rules
// @Summary      Create a tax rule
// @Description  Creates a new tax rule; the rule becomes active immediately unless its effective date is in the future
// @Tags         taxation
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateTaxRuleRequest  true  "Tax Rule Payload"
// @Success      201      {object}  response.Response{data=service.TaxRuleResponse}
// @Failure      400      {object}  response.Response
// @Router       /tax-rules [post]
func (h *TaxationHandler) CreateTaxRule(c *gin.Context) {
	var req service.CreateTaxRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rule, err := h.taxService.CreateTaxRule(c.Request.Context(), req, middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rule))
}

// UpdateTaxRule handles PUT /tax-rules/:id
// @Summary      Update a tax rule
// @Description  Updates an existing tax rule; historical calculations keep their snapshotted rates
// @Tags         taxation
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Tax Rule ID"
// @Param        payload  body      service.UpdateTaxRuleRequest  true  "Tax Rule Payload"
// @Success      200      {object}  response.Response{data=service.TaxRuleResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /tax-rules/{id} [put]
func (h *TaxationHandler) UpdateTaxRule(c *gin.Context) {
	var req service.UpdateTaxRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rule, err := h.taxService.UpdateTaxRule(c.Request.Context(), c.Param("id"), req, middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rule))
}

// RevenueDashboard handles GET /revenue/dashboard
// @Summary      Revenue dashboard
// @Description  Aggregated government revenue: today, month, year, all time, category rollups, trend and recent entries
// @Tags         taxation
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.RevenueDashboard}
// @Failure      500  {object}  response.Response
// @Router       /revenue/dashboard [get]
func (h *TaxationHandler) RevenueDashboard(c *gin.Context) {
	dashboard, err := h.revenueService.Dashboard(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to build dashboard"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, dashboard))
}

// RevenueReport handles GET /revenue/reports
// @Summary      Revenue report
// @Description  Lists recognized revenue entries within a date range, optionally filtered by category
// @Tags         taxation
// @Produce      json
// @Security     BearerAuth
// @Param        start_date  query     string  true   "Start date (YYYY-MM-DD)"
// @Param        end_date    query     string  true   "End date (YYYY-MM-DD)"
// @Param        category    query     string  false  "Tax type filter"
// @Success      200         {object}  response.Response{data=service.RevenueReport}
// @Failure      400         {object}  response.Response
// @Router       /revenue/reports [get]
func (h *TaxationHandler) RevenueReport(c *gin.Context) {
	start := c.Query("start_date")
	end := c.Query("end_date")
	if start == "" || end == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "start_date and end_date are required"))
		return
	}

	report, err := h.revenueService.Report(c.Request.Context(), start, end, c.Query("category"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// RevenueCategories handles GET /revenue/categories
// @Summary      Revenue categories
// @Description  Distinct tax types present in the revenue ledger, for report filters
// @Tags         taxation
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]string}
// @Failure      500  {object}  response.Response
// @Router       /revenue/categories [get]
func (h *TaxationHandler) RevenueCategories(c *gin.Context) {
	categories, err := h.revenueService.Categories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch categories"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, categories))
}

// GetTaxReceipt handles GET /transactions/:id/tax-receipt
// @Summary      Get tax receipt
// @Description  Returns the latest tax receipt issued for a transaction
// @Tags         taxation
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Transaction ID"
// @Success      200  {object}  response.Response{data=model.TaxReceipt}
// @Failure      404  {object}  response.Response
// @Router       /transactions/{id}/tax-receipt [get]
func (h *TaxationHandler) GetTaxReceipt(c *gin.Context) {
	receipt, ok := h.findReceipt(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, receipt))
}

// DownloadTaxReceipt handles GET /transactions/:id/tax-receipt/download
// @Summary      Download tax receipt
// @Description  Renders the tax receipt as a printable HTML document
// @Tags         taxation
// @Produce      html
// @Security     BearerAuth
// @Param        id   path  int  true  "Transaction ID"
// @Success      200  {string}  string  "HTML receipt"
// @Failure      404  {object}  response.Response
// @Router       /transactions/{id}/tax-receipt/download [get]
func (h *TaxationHandler) DownloadTaxReceipt(c *gin.Context) {
	receipt, ok := h.findReceipt(c)
	if !ok {
		return
	}

	html, err := h.receiptService.RenderTaxReceipt(receipt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=TaxReceipt_%s.html", receipt.ReceiptNumber))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (h *TaxationHandler) findReceipt(c *gin.Context) (*model.TaxReceipt, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid transaction id"))
		return nil, false
	}

	receipt, err := h.recordRepo.FindReceiptByTransaction(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "No tax receipt found for this transaction"))
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch tax receipt"))
		return nil, false
	}

	return receipt, true
}
