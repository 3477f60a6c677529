package repository

import (
	"context"
	"errors"

	"did-backend/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrNonceExists is returned by MarkUsed when the nonce row already exists.
// The unique index makes the single-use guarantee hold even if two reveals
// race on separate connections.
var ErrNonceExists = errors.New("nonce already recorded")

// NonceRepository is the data access layer for consumed whitelist nonces.
type NonceRepository interface {
	IsUsed(ctx context.Context, nonce string) (bool, error)
	MarkUsed(ctx context.Context, nonce, userAddress string, usedAt int64) error

	WithTx(tx *gorm.DB) NonceRepository
}

type nonceRepository struct {
	db *gorm.DB
}

// NewNonceRepository creates a new NonceRepository instance
func NewNonceRepository(db *gorm.DB) NonceRepository {
	return &nonceRepository{db: db}
}

func (r *nonceRepository) WithTx(tx *gorm.DB) NonceRepository {
	if tx == nil {
		return r
	}
	return &nonceRepository{db: tx}
}

func (r *nonceRepository) IsUsed(ctx context.Context, nonce string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WhitelistNonce{}).
		Where("nonce = ?", nonce).
		Count(&count).Error
	return count > 0, err
}

func (r *nonceRepository) MarkUsed(ctx context.Context, nonce, userAddress string, usedAt int64) error {
	entry := models.WhitelistNonce{
		ID:          uuid.NewString(),
		Nonce:       nonce,
		UserAddress: userAddress,
		UsedAt:      usedAt,
	}
	err := r.db.WithContext(ctx).Create(&entry).Error
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
		return ErrNonceExists
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrNonceExists
	}
	return err
}
