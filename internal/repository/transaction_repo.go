package repository

import (
	"context"

	"github.com/faruq2021/KogiExportHub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionRepository defines data access for marketplace transactions
type TransactionRepository interface {
	Create(ctx context.Context, tx *model.Transaction) error
	Update(ctx context.Context, tx *model.Transaction) error
	FindByID(ctx context.Context, id int64) (*model.Transaction, error)
	FindByReference(ctx context.Context, reference string) ([]model.Transaction, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, page, limit int) ([]model.Transaction, int64, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, page, limit int) ([]model.Transaction, int64, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *transactionRepository) Update(ctx context.Context, tx *model.Transaction) error {
	return GetDB(ctx, r.db).Save(tx).Error
}

func (r *transactionRepository) FindByID(ctx context.Context, id int64) (*model.Transaction, error) {
	var tx model.Transaction
	if err := GetDB(ctx, r.db).Preload("Product").Preload("Buyer").First(&tx, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) FindByReference(ctx context.Context, reference string) ([]model.Transaction, error) {
	var txs []model.Transaction
	if err := GetDB(ctx, r.db).
		Where("transaction_reference = ?", reference).
		Order("id").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *transactionRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, page, limit int) ([]model.Transaction, int64, error) {
	return r.list(ctx, "buyer_id = ?", buyerID, page, limit)
}

func (r *transactionRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, page, limit int) ([]model.Transaction, int64, error) {
	var txs []model.Transaction
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Transaction{}).
		Joins("JOIN products ON products.id = transactions.product_id").
		Where("products.seller_id = ?", sellerID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Product").Preload("Buyer").
		Order("transactions.created_at desc").
		Offset(offset).Limit(limit).
		Find(&txs).Error; err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}

func (r *transactionRepository) list(ctx context.Context, cond string, arg interface{}, page, limit int) ([]model.Transaction, int64, error) {
	var txs []model.Transaction
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Transaction{}).Where(cond, arg)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Product").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&txs).Error; err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}
