package handler

import (
	"net/http"

	"github.com/faruq2021/KogiExportHub/internal/middleware"
	"github.com/faruq2021/KogiExportHub/internal/model"
	"github.com/faruq2021/KogiExportHub/internal/repository"
	"github.com/faruq2021/KogiExportHub/internal/service"
	"github.com/faruq2021/KogiExportHub/pkg/pagination"
	"github.com/faruq2021/KogiExportHub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MarketplaceHandler struct {
	marketplaceService service.MarketplaceService
}

// NewMarketplaceHandler sets up routing dependencies for the product catalog
func NewMarketplaceHandler(marketplaceService service.MarketplaceService) *MarketplaceHandler {
	return &MarketplaceHandler{marketplaceService: marketplaceService}
}

// RegisterRoutes binds the endpoints to the gin RouterGroup
func (h *MarketplaceHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.GET("/:id", h.GetProduct)
		products.POST("", middleware.RequireRole(model.RoleSeller, model.RoleAdmin), h.CreateProduct)
	}

	router.GET("/categories", h.ListCategories)
	router.GET("/locations", h.ListLocations)

	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleSeller, model.RoleBuyer, model.RoleInvestor)
	router.GET("/transactions/purchases", anyRole, h.ListPurchases)
	router.GET("/transactions/sales", middleware.RequireRole(model.RoleSeller, model.RoleAdmin), h.ListSales)
}

// ListProducts handles GET /products with optional filters
// @Summary      List products
// @Description  Retrieves a paginated product catalog with optional category, location, seller and search filters
// @Tags         marketplace
// @Produce      json
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Items per page (default 20)"
// @Param        category_id  query     string  false  "Filter by category UUID"
// @Param        location_id  query     string  false  "Filter by location UUID"
// @Param        seller_id    query     string  false  "Filter by seller UUID"
// @Param        search       query     string  false  "Search in product names"
// @Success      200          {object}  response.Response{data=object}
// @Failure      500          {object}  response.Response
// @Router       /products [get]
func (h *MarketplaceHandler) ListProducts(c *gin.Context) {
	params := pagination.Parse(c)

	var filter repository.ProductFilter
	if v := c.Query("category_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.CategoryID = &id
		}
	}
	if v := c.Query("location_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.LocationID = &id
		}
	}
	if v := c.Query("seller_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.SellerID = &id
		}
	}
	filter.Search = c.Query("search")

	products, total, err := h.marketplaceService.ListProducts(c.Request.Context(), filter, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch products"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"products": products,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// GetProduct handles GET /products/:id
// @Summary      Get product by ID
// @Description  Fetch a single product with its category and location resolved
// @Tags         marketplace
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=service.ProductResponse}
// @Failure      404  {object}  response.Response
// @Router       /products/{id} [get]
func (h *MarketplaceHandler) GetProduct(c *gin.Context) {
	product, err := h.marketplaceService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// CreateProduct handles POST /products
// @Summary      Create a product
// @Description  Lists a new product for sale under the authenticated seller
// @Tags         marketplace
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateProductRequest  true  "Product Payload"
// @Success      201      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Router       /products [post]
func (h *MarketplaceHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.marketplaceService.CreateProduct(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// ListCategories handles GET /categories
// @Summary      List product categories
// @Tags         marketplace
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.ProductCategory}
// @Failure      500  {object}  response.Response
// @Router       /categories [get]
func (h *MarketplaceHandler) ListCategories(c *gin.Context) {
	categories, err := h.marketplaceService.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch categories"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, categories))
}

// ListLocations handles GET /locations
// @Summary      List locations
// @Tags         marketplace
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Location}
// @Failure      500  {object}  response.Response
// @Router       /locations [get]
func (h *MarketplaceHandler) ListLocations(c *gin.Context) {
	locations, err := h.marketplaceService.ListLocations(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch locations"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, locations))
}

// ListPurchases handles GET /transactions/purchases for the current buyer
// @Summary      List my purchases
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /transactions/purchases [get]
func (h *MarketplaceHandler) ListPurchases(c *gin.Context) {
	params := pagination.Parse(c)

	txs, total, err := h.marketplaceService.ListPurchases(c.Request.Context(), middleware.UserID(c), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch purchases"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"total":        total,
		"page":         params.Page,
		"limit":        params.Limit,
	}))
}

// ListSales handles GET /transactions/sales for the current seller
// @Summary      List my sales
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /transactions/sales [get]
func (h *MarketplaceHandler) ListSales(c *gin.Context) {
	params := pagination.Parse(c)

	txs, total, err := h.marketplaceService.ListSales(c.Request.Context(), middleware.UserID(c), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch sales"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"total":        total,
		"page":         params.Page,
		"limit":        params.Limit,
	}))
}
