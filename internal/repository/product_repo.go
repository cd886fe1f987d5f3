package repository

import (
	"context"

	"github.com/faruq2021/KogiExportHub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductFilter narrows marketplace listings
type ProductFilter struct {
	CategoryID *uuid.UUID
	LocationID *uuid.UUID
	SellerID   *uuid.UUID
	Search     string
}

// ProductRepository defines data access for the product catalog
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// FindByIDWithRefs loads the product together with its category and
	// location, which tax-rule matching needs resolved.
	FindByIDWithRefs(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter, page, limit int) ([]model.Product, int64, error)
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error

	ListCategories(ctx context.Context) ([]model.ProductCategory, error)
	ListLocations(ctx context.Context) ([]model.Location, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Save(product).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByIDWithRefs(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).
		Preload("Category").
		Preload("Location").
		Preload("Seller").
		First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter, page, limit int) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Product{})
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.LocationID != nil {
		query = query.Where("location_id = ?", *filter.LocationID)
	}
	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("Category").
		Preload("Location").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *productRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	return GetDB(ctx, r.db).Model(&model.Product{}).
		Where("id = ? AND quantity >= ?", id, quantity).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", quantity)).Error
}

func (r *productRepository) ListCategories(ctx context.Context) ([]model.ProductCategory, error) {
	var categories []model.ProductCategory
	if err := GetDB(ctx, r.db).Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *productRepository) ListLocations(ctx context.Context) ([]model.Location, error) {
	var locations []model.Location
	if err := GetDB(ctx, r.db).Order("name").Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}
