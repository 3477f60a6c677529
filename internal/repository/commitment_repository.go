package repository

import (
	"context"
	"errors"

	"did-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommitmentRepository is the data access layer for commit-reveal entries.
type CommitmentRepository interface {
	GetByHash(ctx context.Context, hash string) (*models.Commitment, error)
	// Record stores a fresh pending commitment, or re-arms an existing
	// row (expired or consumed) with a new submission time.
	Record(ctx context.Context, hash string, submittedAt int64) error
	// Consume marks a pending commitment as spent so the hash can never
	// be revealed twice.
	Consume(ctx context.Context, hash string, consumedAt int64) error

	WithTx(tx *gorm.DB) CommitmentRepository
}

type commitmentRepository struct {
	db *gorm.DB
}

// NewCommitmentRepository creates a new CommitmentRepository instance
func NewCommitmentRepository(db *gorm.DB) CommitmentRepository {
	return &commitmentRepository{db: db}
}

func (r *commitmentRepository) WithTx(tx *gorm.DB) CommitmentRepository {
	if tx == nil {
		return r
	}
	return &commitmentRepository{db: tx}
}

// GetByHash retrieves a commitment by hash; nil without error when absent.
func (r *commitmentRepository) GetByHash(ctx context.Context, hash string) (*models.Commitment, error) {
	var commitment models.Commitment
	err := r.db.WithContext(ctx).Where("hash = ?", hash).First(&commitment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &commitment, nil
}

func (r *commitmentRepository) Record(ctx context.Context, hash string, submittedAt int64) error {
	var existing models.Commitment
	err := r.db.WithContext(ctx).Where("hash = ?", hash).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		commitment := models.Commitment{
			ID:          uuid.NewString(),
			Hash:        hash,
			SubmittedAt: submittedAt,
			Status:      models.CommitmentStatusPending,
		}
		return r.db.WithContext(ctx).Create(&commitment).Error
	}
	if err != nil {
		return err
	}
	existing.SubmittedAt = submittedAt
	existing.Status = models.CommitmentStatusPending
	existing.ConsumedAt = nil
	return r.db.WithContext(ctx).Save(&existing).Error
}

func (r *commitmentRepository) Consume(ctx context.Context, hash string, consumedAt int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Commitment{}).
		Where("hash = ?", hash).
		Updates(map[string]interface{}{
			"status":      models.CommitmentStatusConsumed,
			"consumed_at": consumedAt,
		}).Error
}
