package services

import (
	"context"

	"did-backend/internal/models"
	"did-backend/internal/repository"
	"did-backend/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ResolverService stores per-name resolution data: the forward address and
// the commission accept address a referrer gets paid at. Writes are gated
// on name ownership; the register controller additionally acts through its
// registrar-controller role during registerWithConfig.
type ResolverService struct {
	resolverRepo   repository.ResolverRepository
	controllerRepo repository.ControllerRepository
	registry       *RegistryService
	log            *logrus.Logger
}

// NewResolverService creates a new ResolverService instance
func NewResolverService(
	resolverRepo repository.ResolverRepository,
	controllerRepo repository.ControllerRepository,
	registry *RegistryService,
	log *logrus.Logger,
) *ResolverService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ResolverService{
		resolverRepo:   resolverRepo,
		controllerRepo: controllerRepo,
		registry:       registry,
		log:            log,
	}
}

// authorised reports whether caller may modify a name's resolver state:
// the recorded owner, or a registrar controller acting on the owner's
// behalf during registration.
func (s *ResolverService) authorised(ctx context.Context, tx *gorm.DB, caller, tokenID string) (bool, error) {
	owner, err := s.registry.GetOwner(ctx, tokenID)
	if err != nil {
		return false, err
	}
	if owner == caller {
		return true, nil
	}
	return s.controllerRepo.WithTx(tx).HasRole(ctx, caller, models.RoleRegistrarController)
}

// SetAddr sets the forward address a name resolves to.
func (s *ResolverService) SetAddr(ctx context.Context, tx *gorm.DB, caller, tokenID, addr string) error {
	caller, err := normalizeAddress(caller)
	if err != nil {
		return err
	}
	addr, err = normalizeAddress(addr)
	if err != nil {
		return err
	}
	tokenID, valid := utils.NormalizeTokenID(tokenID)
	if !valid {
		return ErrInvalidAddress
	}

	ok, err := s.authorised(ctx, tx, caller, tokenID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}

	repo := s.resolverRepo.WithTx(tx)
	record, err := repo.Get(ctx, tokenID)
	if err != nil {
		return err
	}
	if record == nil {
		record = &models.ResolverRecord{TokenID: tokenID}
	}
	record.Addr = addr
	return repo.Save(ctx, record)
}

// Addr returns the forward address for a name, empty when unset.
func (s *ResolverService) Addr(ctx context.Context, tokenID string) (string, error) {
	tokenID, valid := utils.NormalizeTokenID(tokenID)
	if !valid {
		return "", ErrInvalidAddress
	}
	record, err := s.resolverRepo.Get(ctx, tokenID)
	if err != nil {
		return "", err
	}
	if record == nil {
		return "", nil
	}
	return record.Addr, nil
}

// SetCommissionAcceptAddress sets where commissions referred through this
// name are paid. Owner only; controllers may not redirect payouts.
func (s *ResolverService) SetCommissionAcceptAddress(ctx context.Context, caller, tokenID, addr string) error {
	caller, err := normalizeAddress(caller)
	if err != nil {
		return err
	}
	addr, err = normalizeAddress(addr)
	if err != nil {
		return err
	}
	tokenID, valid := utils.NormalizeTokenID(tokenID)
	if !valid {
		return ErrInvalidAddress
	}

	owner, err := s.registry.GetOwner(ctx, tokenID)
	if err != nil {
		return err
	}
	if owner != caller {
		return ErrUnauthorized
	}

	record, err := s.resolverRepo.Get(ctx, tokenID)
	if err != nil {
		return err
	}
	if record == nil {
		record = &models.ResolverRecord{TokenID: tokenID}
	}
	record.CommissionAcceptAddress = addr
	if err := s.resolverRepo.Save(ctx, record); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"token_id": tokenID, "addr": addr}).Info("💰 Commission accept address updated")
	return nil
}

// CommissionAcceptAddress returns the payout address for a referring name.
// Falls back to the name's owner when none was set explicitly.
func (s *ResolverService) CommissionAcceptAddress(ctx context.Context, tokenID string) (string, error) {
	tokenID, valid := utils.NormalizeTokenID(tokenID)
	if !valid {
		return "", ErrInvalidAddress
	}
	record, err := s.resolverRepo.Get(ctx, tokenID)
	if err != nil {
		return "", err
	}
	if record != nil && record.CommissionAcceptAddress != "" {
		return record.CommissionAcceptAddress, nil
	}
	return s.registry.GetOwner(ctx, tokenID)
}
