package repository

import (
	"context"
	"errors"
	"time"

	"did-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResolverRepository is the data access layer for public resolver records.
type ResolverRepository interface {
	Get(ctx context.Context, tokenID string) (*models.ResolverRecord, error)
	Save(ctx context.Context, record *models.ResolverRecord) error

	WithTx(tx *gorm.DB) ResolverRepository
}

type resolverRepository struct {
	db *gorm.DB
}

// NewResolverRepository creates a new ResolverRepository instance
func NewResolverRepository(db *gorm.DB) ResolverRepository {
	return &resolverRepository{db: db}
}

func (r *resolverRepository) WithTx(tx *gorm.DB) ResolverRepository {
	if tx == nil {
		return r
	}
	return &resolverRepository{db: tx}
}

// Get retrieves a resolver record; nil without error when absent.
func (r *resolverRepository) Get(ctx context.Context, tokenID string) (*models.ResolverRecord, error) {
	var record models.ResolverRecord
	err := r.db.WithContext(ctx).Where("token_id = ?", tokenID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Save creates or updates a resolver record.
func (r *resolverRepository) Save(ctx context.Context, record *models.ResolverRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
		return r.db.WithContext(ctx).Create(record).Error
	}
	record.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(record).Error
}
