package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/faruq2021/KogiExportHub/internal/model"
	"github.com/faruq2021/KogiExportHub/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       string `json:"price" binding:"required"` // decimal string
	Quantity    int    `json:"quantity" binding:"required,min=0"`
	Unit        string `json:"unit"`
	ImageURL    string `json:"image_url"`
	CategoryID  string `json:"category_id" binding:"required"`
	LocationID  string `json:"location_id" binding:"required"`
}

type ProductResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Quantity    int    `json:"quantity"`
	Unit        string `json:"unit"`
	ImageURL    string `json:"image_url"`
	SellerID    string `json:"seller_id"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	CreatedAt   string `json:"created_at"`
}

type CheckoutItem struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type CheckoutRequest struct {
	Items []CheckoutItem `json:"items" binding:"required,min=1,dive"`
}

type CheckoutResult struct {
	PaymentLink    string  `json:"payment_link"`
	TxRef          string  `json:"tx_ref"`
	TransactionIDs []int64 `json:"transaction_ids"`
	Total          string  `json:"total"`
}

type TransactionResponse struct {
	ID                   int64  `json:"id"`
	ProductID            string `json:"product_id"`
	ProductName          string `json:"product_name,omitempty"`
	Quantity             int    `json:"quantity"`
	TotalAmount          string `json:"total_amount"`
	Status               string `json:"status"`
	PaymentMethod        string `json:"payment_method"`
	TransactionReference string `json:"transaction_reference"`
	CreatedAt            string `json:"created_at"`
}

// --- Interface ---

// MarketplaceService covers product listings, checkout and the
// payment-callback completion that feeds the tax pipeline.
type MarketplaceService interface {
	CreateProduct(ctx context.Context, sellerID string, req CreateProductRequest) (ProductResponse, error)
	ListProducts(ctx context.Context, filter repository.ProductFilter, page, limit int) ([]ProductResponse, int64, error)
	GetProduct(ctx context.Context, id string) (ProductResponse, error)
	ListCategories(ctx context.Context) ([]model.ProductCategory, error)
	ListLocations(ctx context.Context) ([]model.Location, error)

	Checkout(ctx context.Context, buyerID string, req CheckoutRequest) (CheckoutResult, error)
	// CompleteCheckout marks the pending transactions for a verified gateway
	// reference as completed, decrements stock and runs the tax pipeline for
	// each. Returns the completed transaction ids.
	CompleteCheckout(ctx context.Context, txRef string) ([]int64, error)

	ListPurchases(ctx context.Context, buyerID string, page, limit int) ([]TransactionResponse, int64, error)
	ListSales(ctx context.Context, sellerID string, page, limit int) ([]TransactionResponse, int64, error)
}

type marketplaceService struct {
	productRepo     repository.ProductRepository
	transactionRepo repository.TransactionRepository
	userRepo        repository.UserRepository
	paymentService  PaymentService
	taxService      TaxService
	txManager       repository.TransactionManager
}

func NewMarketplaceService(
	productRepo repository.ProductRepository,
	transactionRepo repository.TransactionRepository,
	userRepo repository.UserRepository,
	paymentService PaymentService,
	taxService TaxService,
	txManager repository.TransactionManager,
) MarketplaceService {
	return &marketplaceService{
		productRepo:     productRepo,
		transactionRepo: transactionRepo,
		userRepo:        userRepo,
		paymentService:  paymentService,
		taxService:      taxService,
		txManager:       txManager,
	}
}

// --- Products ---

func (s *marketplaceService) CreateProduct(ctx context.Context, sellerID string, req CreateProductRequest) (ProductResponse, error) {
	seller, err := uuid.Parse(sellerID)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid seller id: %w", err)
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid price: %w", err)
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid category_id: %w", err)
	}

	locationID, err := uuid.Parse(req.LocationID)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid location_id: %w", err)
	}

	product := model.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		ImageURL:    req.ImageURL,
		SellerID:    seller,
		CategoryID:  categoryID,
		LocationID:  &locationID,
	}

	if err := s.productRepo.Create(ctx, &product); err != nil {
		return ProductResponse{}, fmt.Errorf("failed to create product: %w", err)
	}

	created, err := s.productRepo.FindByIDWithRefs(ctx, product.ID)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("failed to reload product: %w", err)
	}

	return toProductResponse(*created), nil
}

func (s *marketplaceService) ListProducts(ctx context.Context, filter repository.ProductFilter, page, limit int) ([]ProductResponse, int64, error) {
	products, total, err := s.productRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	res := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		res = append(res, toProductResponse(p))
	}

	return res, total, nil
}

func (s *marketplaceService) GetProduct(ctx context.Context, id string) (ProductResponse, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid product id: %w", err)
	}

	product, err := s.productRepo.FindByIDWithRefs(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductResponse{}, fmt.Errorf("product not found")
		}
		return ProductResponse{}, fmt.Errorf("failed to fetch product: %w", err)
	}

	return toProductResponse(*product), nil
}

func (s *marketplaceService) ListCategories(ctx context.Context) ([]model.ProductCategory, error) {
	return s.productRepo.ListCategories(ctx)
}

func (s *marketplaceService) ListLocations(ctx context.Context) ([]model.Location, error) {
	return s.productRepo.ListLocations(ctx)
}

// --- Checkout ---

func (s *marketplaceService) Checkout(ctx context.Context, buyerID string, req CheckoutRequest) (CheckoutResult, error) {
	buyer, err := uuid.Parse(buyerID)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("invalid buyer id: %w", err)
	}

	profile, err := s.userRepo.GetByID(ctx, buyer)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("buyer profile not found: %w", err)
	}

	type line struct {
		product *model.Product
		qty     int
		total   decimal.Decimal
	}

	total := decimal.Zero
	lines := make([]line, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return CheckoutResult{}, fmt.Errorf("invalid product id %q: %w", item.ProductID, err)
		}

		product, err := s.productRepo.FindByID(ctx, productID)
		if err != nil {
			return CheckoutResult{}, fmt.Errorf("product %s not found: %w", item.ProductID, err)
		}
		if product.Quantity < item.Quantity {
			return CheckoutResult{}, fmt.Errorf("insufficient stock for %s: %d available", product.Name, product.Quantity)
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(lineTotal)
		lines = append(lines, line{product: product, qty: item.Quantity, total: lineTotal})
	}

	init, err := s.paymentService.InitializePayment(ctx, InitializePaymentRequest{
		Amount:        total,
		Currency:      "NGN",
		CustomerEmail: profile.Email,
		CustomerName:  profile.FullName(),
		Title:         "KogiExportHub Payment",
		Description:   "Payment for products",
	})
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("payment initialization failed: %w", err)
	}

	ids := make([]int64, 0, len(lines))
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, l := range lines {
			tx := model.Transaction{
				ProductID:            l.product.ID,
				BuyerID:              buyer,
				Quantity:             l.qty,
				TotalAmount:          l.total,
				Status:               model.TransactionPending,
				PaymentMethod:        "Flutterwave",
				TransactionReference: init.TxRef,
			}
			if err := s.transactionRepo.Create(txCtx, &tx); err != nil {
				return fmt.Errorf("failed to create transaction: %w", err)
			}
			ids = append(ids, tx.ID)
		}
		return nil
	})
	if err != nil {
		return CheckoutResult{}, err
	}

	return CheckoutResult{
		PaymentLink:    init.PaymentLink,
		TxRef:          init.TxRef,
		TransactionIDs: ids,
		Total:          total.StringFixed(2),
	}, nil
}

func (s *marketplaceService) CompleteCheckout(ctx context.Context, txRef string) ([]int64, error) {
	txs, err := s.transactionRepo.FindByReference(ctx, txRef)
	if err != nil {
		return nil, fmt.Errorf("failed to look up transactions for %s: %w", txRef, err)
	}
	if len(txs) == 0 {
		return nil, fmt.Errorf("no transactions found for reference %s", txRef)
	}

	completed := make([]int64, 0, len(txs))
	for i := range txs {
		tx := &txs[i]
		if tx.Status != model.TransactionPending {
			continue
		}

		tx.Status = model.TransactionCompleted
		if err := s.transactionRepo.Update(ctx, tx); err != nil {
			return completed, fmt.Errorf("failed to complete transaction %d: %w", tx.ID, err)
		}

		if err := s.productRepo.DecrementStock(ctx, tx.ProductID, tx.Quantity); err != nil {
			return completed, fmt.Errorf("failed to decrement stock for product %s: %w", tx.ProductID, err)
		}

		// Tax processing runs after payment confirmation; a failure here
		// leaves the sale completed and is surfaced to the caller.
		if err := s.taxService.ProcessTaxesForTransaction(ctx, tx); err != nil {
			return completed, fmt.Errorf("payment succeeded but tax processing failed for transaction %d: %w", tx.ID, err)
		}

		completed = append(completed, tx.ID)
	}

	return completed, nil
}

// --- Dashboards ---

func (s *marketplaceService) ListPurchases(ctx context.Context, buyerID string, page, limit int) ([]TransactionResponse, int64, error) {
	id, err := uuid.Parse(buyerID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid buyer id: %w", err)
	}

	txs, total, err := s.transactionRepo.ListByBuyer(ctx, id, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list purchases: %w", err)
	}

	return toTransactionResponses(txs), total, nil
}

func (s *marketplaceService) ListSales(ctx context.Context, sellerID string, page, limit int) ([]TransactionResponse, int64, error) {
	id, err := uuid.Parse(sellerID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid seller id: %w", err)
	}

	txs, total, err := s.transactionRepo.ListBySeller(ctx, id, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sales: %w", err)
	}

	return toTransactionResponses(txs), total, nil
}

// --- Helpers ---

func toProductResponse(p model.Product) ProductResponse {
	resp := ProductResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Quantity:    p.Quantity,
		Unit:        p.Unit,
		ImageURL:    p.ImageURL,
		SellerID:    p.SellerID.String(),
		CreatedAt:   p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if p.Category != nil {
		resp.Category = p.Category.Name
	}
	if p.Location != nil {
		resp.Location = p.Location.Name
	}
	return resp
}

func toTransactionResponses(txs []model.Transaction) []TransactionResponse {
	res := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		r := TransactionResponse{
			ID:                   tx.ID,
			ProductID:            tx.ProductID.String(),
			Quantity:             tx.Quantity,
			TotalAmount:          tx.TotalAmount.StringFixed(2),
			Status:               tx.Status,
			PaymentMethod:        tx.PaymentMethod,
			TransactionReference: tx.TransactionReference,
			CreatedAt:            tx.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if tx.Product != nil {
			r.ProductName = tx.Product.Name
		}
		res = append(res, r)
	}
	return res
}
