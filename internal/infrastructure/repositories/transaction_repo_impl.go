package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"ptradoor.backend/internal/domain/entities"
	domainerrors "ptradoor.backend/internal/domain/errors"
	"ptradoor.backend/internal/infrastructure/models"
	"ptradoor.backend/pkg/utils"
)

// TransactionRepository implements append-only transaction storage
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create records a transaction. A hash that is already stored yields ErrAlreadyProcessed.
func (r *TransactionRepository) Create(ctx context.Context, tx *entities.Transaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = utils.GenerateUUIDv7()
	}
	m, err := r.toModel(tx)
	if err != nil {
		return err
	}

	result := GetDB(ctx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(m)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("hash %s: %w", tx.Hash.String, domainerrors.ErrAlreadyProcessed)
	}
	return nil
}

// GetByUser returns the most recent transactions of an address
func (r *TransactionRepository) GetByUser(ctx context.Context, address string, limit int) ([]*entities.Transaction, error) {
	var ms []models.Transaction
	if err := GetDB(ctx, r.db).WithContext(ctx).
		Where("user_address = ?", address).
		Order("created_at DESC").
		Limit(limit).
		Find(&ms).Error; err != nil {
		return nil, err
	}

	txs := make([]*entities.Transaction, 0, len(ms))
	for i := range ms {
		tx, err := r.toEntity(&ms[i])
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// ExistsByHash reports whether a hash is already recorded
func (r *TransactionRepository) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Transaction{}).
		Where("hash = ?", hash).Count(&count).Error
	return count > 0, err
}

// Count returns the number of recorded transactions
func (r *TransactionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Transaction{}).Count(&count).Error
	return count, err
}

func (r *TransactionRepository) toModel(tx *entities.Transaction) (*models.Transaction, error) {
	var metadata string
	if len(tx.Metadata) > 0 {
		b, err := json.Marshal(tx.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		metadata = string(b)
	}
	return &models.Transaction{
		ID:          tx.ID,
		UserAddress: tx.UserAddress,
		Type:        string(tx.Type),
		Amount:      tx.Amount,
		Price:       tx.Price,
		USDAmount:   tx.USDAmount,
		Points:      tx.Points,
		Status:      string(tx.Status),
		Hash:        tx.Hash.Ptr(),
		Metadata:    metadata,
		CreatedAt:   tx.CreatedAt,
	}, nil
}

func (r *TransactionRepository) toEntity(m *models.Transaction) (*entities.Transaction, error) {
	tx := &entities.Transaction{
		ID:          m.ID,
		UserAddress: m.UserAddress,
		Type:        entities.TransactionType(m.Type),
		Amount:      m.Amount,
		Price:       m.Price,
		USDAmount:   m.USDAmount,
		Points:      m.Points,
		Status:      entities.TransactionStatus(m.Status),
		Hash:        null.StringFromPtr(m.Hash),
		CreatedAt:   m.CreatedAt,
	}
	if m.Metadata != "" {
		if err := json.Unmarshal([]byte(m.Metadata), &tx.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return tx, nil
}
