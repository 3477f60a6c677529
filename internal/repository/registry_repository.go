package repository

import (
	"context"
	"errors"
	"time"

	"did-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegistryRepository is the data access layer for the ownership registry:
// the token id -> owner map and the per-root sub-root creator map.
type RegistryRepository interface {
	GetEntry(ctx context.Context, tokenID string) (*models.RegistryEntry, error)
	UpsertOwner(ctx context.Context, tokenID, owner string) error

	GetSubRootCreator(ctx context.Context, rootName string) (*models.SubRootCreator, error)
	SetSubRootCreator(ctx context.Context, rootName, creatorID string) error

	// WithTx returns a repository bound to the given transaction.
	WithTx(tx *gorm.DB) RegistryRepository
}

type registryRepository struct {
	db *gorm.DB
}

// NewRegistryRepository creates a new RegistryRepository instance
func NewRegistryRepository(db *gorm.DB) RegistryRepository {
	return &registryRepository{db: db}
}

func (r *registryRepository) WithTx(tx *gorm.DB) RegistryRepository {
	if tx == nil {
		return r
	}
	return &registryRepository{db: tx}
}

// GetEntry retrieves an ownership entry; nil without error when absent.
func (r *registryRepository) GetEntry(ctx context.Context, tokenID string) (*models.RegistryEntry, error) {
	var entry models.RegistryEntry
	err := r.db.WithContext(ctx).Where("token_id = ?", tokenID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpsertOwner writes the owner for a token id, creating the entry on first
// registration and overwriting unconditionally afterwards.
func (r *registryRepository) UpsertOwner(ctx context.Context, tokenID, owner string) error {
	var entry models.RegistryEntry
	err := r.db.WithContext(ctx).Where("token_id = ?", tokenID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		entry = models.RegistryEntry{
			ID:      uuid.NewString(),
			TokenID: tokenID,
			Owner:   owner,
		}
		return r.db.WithContext(ctx).Create(&entry).Error
	}
	if err != nil {
		return err
	}
	entry.Owner = owner
	entry.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(&entry).Error
}

// GetSubRootCreator retrieves the creator record for a root label; nil
// without error when the root is unclaimed.
func (r *registryRepository) GetSubRootCreator(ctx context.Context, rootName string) (*models.SubRootCreator, error) {
	var entry models.SubRootCreator
	err := r.db.WithContext(ctx).Where("root_name = ?", rootName).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// SetSubRootCreator records or replaces the creator id for a root label.
func (r *registryRepository) SetSubRootCreator(ctx context.Context, rootName, creatorID string) error {
	var entry models.SubRootCreator
	err := r.db.WithContext(ctx).Where("root_name = ?", rootName).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		entry = models.SubRootCreator{
			ID:        uuid.NewString(),
			RootName:  rootName,
			CreatorID: creatorID,
		}
		return r.db.WithContext(ctx).Create(&entry).Error
	}
	if err != nil {
		return err
	}
	entry.CreatorID = creatorID
	entry.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(&entry).Error
}
