package repository

import (
	"context"
	"errors"
	"time"

	"did-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NameRepository is the data access layer for the registrar's name
// lifecycle records and the protected-domain set.
type NameRepository interface {
	GetByTokenID(ctx context.Context, tokenID string) (*models.NameRecord, error)
	Upsert(ctx context.Context, record *models.NameRecord) error
	SetExpiry(ctx context.Context, tokenID string, expiresAt int64) error

	IsProtected(ctx context.Context, rootName string) (bool, error)
	SetProtected(ctx context.Context, rootName string, protected bool) error

	WithTx(tx *gorm.DB) NameRepository
}

type nameRepository struct {
	db *gorm.DB
}

// NewNameRepository creates a new NameRepository instance
func NewNameRepository(db *gorm.DB) NameRepository {
	return &nameRepository{db: db}
}

func (r *nameRepository) WithTx(tx *gorm.DB) NameRepository {
	if tx == nil {
		return r
	}
	return &nameRepository{db: tx}
}

// GetByTokenID retrieves a name record; nil without error when absent.
func (r *nameRepository) GetByTokenID(ctx context.Context, tokenID string) (*models.NameRecord, error) {
	var record models.NameRecord
	err := r.db.WithContext(ctx).Where("token_id = ?", tokenID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Upsert creates the record on first registration or overwrites the
// surviving row on re-registration after expiry.
func (r *nameRepository) Upsert(ctx context.Context, record *models.NameRecord) error {
	var existing models.NameRecord
	err := r.db.WithContext(ctx).Where("token_id = ?", record.TokenID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if record.ID == "" {
			record.ID = uuid.NewString()
		}
		return r.db.WithContext(ctx).Create(record).Error
	}
	if err != nil {
		return err
	}
	existing.RootName = record.RootName
	existing.SecondaryName = record.SecondaryName
	existing.ExpiresAt = record.ExpiresAt
	existing.UpdatedAt = time.Now()
	*record = existing
	return r.db.WithContext(ctx).Save(&existing).Error
}

// SetExpiry updates only the expiry of an existing record.
func (r *nameRepository) SetExpiry(ctx context.Context, tokenID string, expiresAt int64) error {
	return r.db.WithContext(ctx).
		Model(&models.NameRecord{}).
		Where("token_id = ?", tokenID).
		Update("expires_at", expiresAt).Error
}

// IsProtected reports whether a root label is closed to public
// registration.
func (r *nameRepository) IsProtected(ctx context.Context, rootName string) (bool, error) {
	var entry models.ProtectedDomain
	err := r.db.WithContext(ctx).Where("root_name = ?", rootName).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return entry.Protected, nil
}

// SetProtected marks or unmarks a root label as protected.
func (r *nameRepository) SetProtected(ctx context.Context, rootName string, protected bool) error {
	var entry models.ProtectedDomain
	err := r.db.WithContext(ctx).Where("root_name = ?", rootName).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		entry = models.ProtectedDomain{
			ID:        uuid.NewString(),
			RootName:  rootName,
			Protected: protected,
		}
		return r.db.WithContext(ctx).Create(&entry).Error
	}
	if err != nil {
		return err
	}
	entry.Protected = protected
	entry.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(&entry).Error
}
