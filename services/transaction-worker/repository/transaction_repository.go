package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/udofia2/migrating-to-microservice/services/transaction-worker/models"
)

// TransactionRepository defines the interface for ledger data access.
// The ledger is insert-only; there is deliberately no update operation.
type TransactionRepository interface {
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error)
	Create(ctx context.Context, txn *models.Transaction) error
}

type GormTransactionRepository struct {
	db *gorm.DB
}

func NewGormTransactionRepository(db *gorm.DB) TransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) FindByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *GormTransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}
