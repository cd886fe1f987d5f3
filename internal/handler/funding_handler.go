package handler

import (
	"net/http"

	"github.com/faruq2021/KogiExportHub/internal/middleware"
	"github.com/faruq2021/KogiExportHub/internal/model"
	"github.com/faruq2021/KogiExportHub/internal/service"
	"github.com/faruq2021/KogiExportHub/pkg/pagination"
	"github.com/faruq2021/KogiExportHub/pkg/response"

	"github.com/gin-gonic/gin"
)

type FundingHandler struct {
	fundingService service.FundingService
}

// NewFundingHandler sets up routing dependencies for civic funding endpoints
func NewFundingHandler(fundingService service.FundingService) *FundingHandler {
	return &FundingHandler{fundingService: fundingService}
}

// RegisterRoutes binds the endpoints to the gin RouterGroup
func (h *FundingHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := middleware.RequireRole(model.RoleAdmin)
	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleSeller, model.RoleBuyer, model.RoleInvestor)

	proposals := router.Group("/proposals")
	{
		proposals.GET("", h.ListProposals)
		proposals.GET("/:id", h.GetProposal)
		proposals.POST("", anyRole, h.CreateProposal)
		proposals.POST("/:id/approve", admin, h.ApproveProposal)
		proposals.POST("/:id/reject", admin, h.RejectProposal)
		proposals.GET("/:id/requests", h.ListRequestsByProposal)
	}

	funding := router.Group("/funding-requests")
	{
		funding.POST("", anyRole, h.CreateFundingRequest)
		funding.GET("/:id/progress", h.GetFundingProgress)
		funding.POST("/:id/disburse", admin, h.Disburse)
		funding.POST("/:id/disburse/refresh", admin, h.RefreshDisbursement)
	}

	router.POST("/contributions", middleware.RequireRole(model.RoleInvestor, model.RoleBuyer, model.RoleSeller, model.RoleAdmin), h.Contribute)
}

// ListProposals handles GET /proposals with an optional status filter
// @Summary      List infrastructure proposals
// @Tags         funding
// @Produce      json
// @Param        status  query     string  false  "Filter by status (Pending, Approved, Rejected, Funded)"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /proposals [get]
func (h *FundingHandler) ListProposals(c *gin.Context) {
	params := pagination.Parse(c)

	proposals, total, err := h.fundingService.ListProposals(c.Request.Context(), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch proposals"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"proposals": proposals,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}

// GetProposal handles GET /proposals/:id
// @Summary      Get proposal by ID
// @Tags         funding
// @Produce      json
// @Param        id   path      string  true  "Proposal ID"
// @Success      200  {object}  response.Response{data=model.InfrastructureProposal}
// @Failure      404  {object}  response.Response
// @Router       /proposals/{id} [get]
func (h *FundingHandler) GetProposal(c *gin.Context) {
	proposal, err := h.fundingService.GetProposal(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, proposal))
}

// CreateProposal handles POST /proposals
// @Summary      Submit an infrastructure proposal
// @Tags         funding
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateProposalRequest  true  "Proposal Payload"
// @Success      201      {object}  response.Response{data=model.InfrastructureProposal}
// @Failure      400      {object}  response.Response
// @Router       /proposals [post]
func (h *FundingHandler) CreateProposal(c *gin.Context) {
	var req service.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	proposal, err := h.fundingService.CreateProposal(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, proposal))
}

// ApproveProposal handles POST /proposals/:id/approve
// @Summary      Approve a proposal
// @Tags         funding
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true   "Proposal ID"
// @Param        payload  body      service.ReviewProposalRequest  false  "Review Comments"
// @Success      200      {object}  response.Response{data=model.InfrastructureProposal}
// @Failure      400      {object}  response.Response
// @Router       /proposals/{id}/approve [post]
func (h *FundingHandler) ApproveProposal(c *gin.Context) {
	var req service.ReviewProposalRequest
	_ = c.ShouldBindJSON(&req)

	proposal, err := h.fundingService.ApproveProposal(c.Request.Context(), c.Param("id"), middleware.UserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, proposal))
}

// RejectProposal handles POST /proposals/:id/reject
// @Summary      Reject a proposal
// @Tags         funding
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true   "Proposal ID"
// @Param        payload  body      service.ReviewProposalRequest  false  "Review Comments"
// @Success      200      {object}  response.Response{data=model.InfrastructureProposal}
// @Failure      400      {object}  response.Response
// @Router       /proposals/{id}/reject [post]
func (h *FundingHandler) RejectProposal(c *gin.Context) {
	var req service.ReviewProposalRequest
	_ = c.ShouldBindJSON(&req)

	proposal, err := h.fundingService.RejectProposal(c.Request.Context(), c.Param("id"), middleware.UserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, proposal))
}

// ListRequestsByProposal handles GET /proposals/:id/requests
// @Summary      List funding requests for a proposal
// @Tags         funding
// @Produce      json
// @Param        id   path      string  true  "Proposal ID"
// @Success      200  {object}  response.Response{data=[]model.FundingRequest}
// @Failure      400  {object}  response.Response
// @Router       /proposals/{id}/requests [get]
func (h *FundingHandler) ListRequestsByProposal(c *gin.Context) {
	requests, err := h.fundingService.ListRequestsByProposal(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, requests))
}

// CreateFundingRequest handles POST /funding-requests
// @Summary      Open a funding request against an approved proposal
// @Tags         funding
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateFundingRequestRequest  true  "Funding Request Payload"
// @Success      201      {object}  response.Response{data=model.FundingRequest}
// @Failure      400      {object}  response.Response
// @Router       /funding-requests [post]
func (h *FundingHandler) CreateFundingRequest(c *gin.Context) {
	var req service.CreateFundingRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	request, err := h.fundingService.CreateFundingRequest(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, request))
}

// GetFundingProgress handles GET /funding-requests/:id/progress
// @Summary      Funding progress
// @Description  Shows the raised amount against the approved target
// @Tags         funding
// @Produce      json
// @Param        id   path      string  true  "Funding Request ID"
// @Success      200  {object}  response.Response{data=service.FundingProgress}
// @Failure      404  {object}  response.Response
// @Router       /funding-requests/{id}/progress [get]
func (h *FundingHandler) GetFundingProgress(c *gin.Context) {
	progress, err := h.fundingService.GetFundingProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, progress))
}

// Contribute handles POST /contributions
// @Summary      Contribute to a funding request
// @Description  Records a pending contribution and returns a hosted payment link
// @Tags         funding
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ContributeRequest  true  "Contribution Payload"
// @Success      200      {object}  response.Response{data=service.ContributeResult}
// @Failure      400      {object}  response.Response
// @Router       /contributions [post]
func (h *FundingHandler) Contribute(c *gin.Context) {
	var req service.ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.fundingService.Contribute(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Disburse handles POST /funding-requests/:id/disburse
// @Summary      Disburse raised funds
// @Description  Validates the recipient account and initiates a bank transfer for a fully funded request
// @Tags         funding
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Funding Request ID"
// @Param        payload  body      service.DisburseRequest  true  "Recipient Account"
// @Success      200      {object}  response.Response{data=model.FundingRequest}
// @Failure      400      {object}  response.Response
// @Router       /funding-requests/{id}/disburse [post]
func (h *FundingHandler) Disburse(c *gin.Context) {
	var req service.DisburseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	request, err := h.fundingService.Disburse(c.Request.Context(), c.Param("id"), middleware.UserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

// RefreshDisbursement handles POST /funding-requests/:id/disburse/refresh
// @Summary      Refresh disbursement status
// @Description  Re-checks the transfer status with the payment gateway
// @Tags         funding
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Funding Request ID"
// @Success      200  {object}  response.Response{data=model.FundingRequest}
// @Failure      400  {object}  response.Response
// @Router       /funding-requests/{id}/disburse/refresh [post]
func (h *FundingHandler) RefreshDisbursement(c *gin.Context) {
	request, err := h.fundingService.RefreshDisbursement(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}
