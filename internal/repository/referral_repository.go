package repository

import (
	"context"
	"errors"
	"time"

	"did-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReferralRepository is the data access layer for the commission ledger:
// per-name referral records and per-referrer accrued balances.
type ReferralRepository interface {
	GetRecord(ctx context.Context, tokenID string) (*models.ReferralRecord, error)
	SaveRecord(ctx context.Context, record *models.ReferralRecord) error

	GetBalance(ctx context.Context, address string) (*models.ReferralBalance, error)
	SaveBalance(ctx context.Context, balance *models.ReferralBalance) error

	WithTx(tx *gorm.DB) ReferralRepository
}

type referralRepository struct {
	db *gorm.DB
}

// NewReferralRepository creates a new ReferralRepository instance
func NewReferralRepository(db *gorm.DB) ReferralRepository {
	return &referralRepository{db: db}
}

func (r *referralRepository) WithTx(tx *gorm.DB) ReferralRepository {
	if tx == nil {
		return r
	}
	return &referralRepository{db: tx}
}

// GetRecord retrieves the per-name referral record; nil without error when
// the name has never been referred or configured.
func (r *referralRepository) GetRecord(ctx context.Context, tokenID string) (*models.ReferralRecord, error) {
	var record models.ReferralRecord
	err := r.db.WithContext(ctx).Where("token_id = ?", tokenID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// SaveRecord creates or updates a referral record.
func (r *referralRepository) SaveRecord(ctx context.Context, record *models.ReferralRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
		return r.db.WithContext(ctx).Create(record).Error
	}
	record.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(record).Error
}

// GetBalance retrieves a referrer's accrued balance; nil without error when
// the address has never been credited.
func (r *referralRepository) GetBalance(ctx context.Context, address string) (*models.ReferralBalance, error) {
	var balance models.ReferralBalance
	err := r.db.WithContext(ctx).Where("address = ?", address).First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

// SaveBalance creates or updates a referrer balance row.
func (r *referralRepository) SaveBalance(ctx context.Context, balance *models.ReferralBalance) error {
	if balance.ID == "" {
		balance.ID = uuid.NewString()
		return r.db.WithContext(ctx).Create(balance).Error
	}
	balance.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(balance).Error
}
