package repository

import (
	"context"
	"errors"

	"did-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ControllerRepository is the data access layer for the role ACL.
type ControllerRepository interface {
	HasRole(ctx context.Context, address string, role models.ControllerRole) (bool, error)
	Grant(ctx context.Context, address string, role models.ControllerRole) error
	Revoke(ctx context.Context, address string, role models.ControllerRole) error
	ListByRole(ctx context.Context, role models.ControllerRole) ([]*models.Controller, error)

	WithTx(tx *gorm.DB) ControllerRepository
}

type controllerRepository struct {
	db *gorm.DB
}

// NewControllerRepository creates a new ControllerRepository instance
func NewControllerRepository(db *gorm.DB) ControllerRepository {
	return &controllerRepository{db: db}
}

func (r *controllerRepository) WithTx(tx *gorm.DB) ControllerRepository {
	if tx == nil {
		return r
	}
	return &controllerRepository{db: tx}
}

// HasRole reports whether the address holds the role.
func (r *controllerRepository) HasRole(ctx context.Context, address string, role models.ControllerRole) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Controller{}).
		Where("address = ? AND role = ?", address, role).
		Count(&count).Error
	return count > 0, err
}

// Grant adds a role to an address. Granting an already-held role is a
// successful no-op at the storage level; the notification behavior on
// re-grant is the caller's concern.
func (r *controllerRepository) Grant(ctx context.Context, address string, role models.ControllerRole) error {
	var existing models.Controller
	err := r.db.WithContext(ctx).Where("address = ? AND role = ?", address, role).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	grant := models.Controller{
		ID:      uuid.NewString(),
		Address: address,
		Role:    role,
	}
	return r.db.WithContext(ctx).Create(&grant).Error
}

// Revoke removes a role from an address.
func (r *controllerRepository) Revoke(ctx context.Context, address string, role models.ControllerRole) error {
	return r.db.WithContext(ctx).
		Where("address = ? AND role = ?", address, role).
		Delete(&models.Controller{}).Error
}

// ListByRole lists all grants for one role.
func (r *controllerRepository) ListByRole(ctx context.Context, role models.ControllerRole) ([]*models.Controller, error) {
	var grants []*models.Controller
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("created_at ASC").
		Find(&grants).Error
	return grants, err
}
