package services

import (
	"context"
	"strings"

	"did-backend/internal/events"
	"did-backend/internal/models"
	"did-backend/internal/repository"
	"did-backend/internal/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RegistryService is the authoritative ownership registry: the token id ->
// owner mapping, the per-root sub-root creator map, and the ACLs guarding
// both. Mutations are role-gated; the serialized execution model means no
// additional locking is needed here.
type RegistryService struct {
	registryRepo   repository.RegistryRepository
	controllerRepo repository.ControllerRepository
	settingsRepo   repository.SettingsRepository
	publisher      *events.Publisher
	log            *logrus.Logger
}

// NewRegistryService creates a new RegistryService instance
func NewRegistryService(
	registryRepo repository.RegistryRepository,
	controllerRepo repository.ControllerRepository,
	settingsRepo repository.SettingsRepository,
	publisher *events.Publisher,
	log *logrus.Logger,
) *RegistryService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RegistryService{
		registryRepo:   registryRepo,
		controllerRepo: controllerRepo,
		settingsRepo:   settingsRepo,
		publisher:      publisher,
		log:            log,
	}
}

// normalizeAddress validates and lowercases a 20-byte hex address.
func normalizeAddress(addr string) (string, error) {
	if !common.IsHexAddress(addr) {
		return "", ErrInvalidAddress
	}
	return strings.ToLower(common.HexToAddress(addr).Hex()), nil
}

// SetOwner overwrites the owner of a token id. Restricted to addresses
// holding the owner-controller role. Runs inside the caller's transaction
// when tx is non-nil; the returned Transfer event must be published by the
// caller only after that transaction commits.
func (s *RegistryService) SetOwner(ctx context.Context, tx *gorm.DB, caller, tokenID, newOwner string) (events.Event, error) {
	caller, err := normalizeAddress(caller)
	if err != nil {
		return nil, err
	}
	newOwner, err = normalizeAddress(newOwner)
	if err != nil {
		return nil, err
	}

	ok, err := s.controllerRepo.WithTx(tx).HasRole(ctx, caller, models.RoleOwnerController)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnauthorized
	}

	if err := s.registryRepo.WithTx(tx).UpsertOwner(ctx, tokenID, newOwner); err != nil {
		return nil, err
	}

	return events.Transfer{TokenID: tokenID, Owner: newOwner}, nil
}

// GetOwner returns the recorded owner for a token id, or the zero address
// when no entry exists. Expiry is not consulted here; that is the
// registrar's concern.
func (s *RegistryService) GetOwner(ctx context.Context, tokenID string) (string, error) {
	entry, err := s.registryRepo.GetEntry(ctx, tokenID)
	if err != nil {
		return "", err
	}
	if entry == nil {
		return strings.ToLower(common.Address{}.Hex()), nil
	}
	return entry.Owner, nil
}

// AddOwnerController grants the owner-controller role. Re-adding an
// existing controller still emits the added notification.
func (s *RegistryService) AddOwnerController(ctx context.Context, address string) error {
	return s.addController(ctx, address, models.RoleOwnerController)
}

// RemoveOwnerController revokes the owner-controller role.
func (s *RegistryService) RemoveOwnerController(ctx context.Context, address string) error {
	return s.removeController(ctx, address, models.RoleOwnerController)
}

// AddCreatorController grants the creator-controller role.
func (s *RegistryService) AddCreatorController(ctx context.Context, address string) error {
	return s.addController(ctx, address, models.RoleCreatorController)
}

// RemoveCreatorController revokes the creator-controller role.
func (s *RegistryService) RemoveCreatorController(ctx context.Context, address string) error {
	return s.removeController(ctx, address, models.RoleCreatorController)
}

func (s *RegistryService) addController(ctx context.Context, address string, role models.ControllerRole) error {
	address, err := normalizeAddress(address)
	if err != nil {
		return err
	}
	if err := s.controllerRepo.Grant(ctx, address, role); err != nil {
		return err
	}
	s.publisher.Publish(events.ControllerAdded{Address: address, Role: string(role)})
	return nil
}

func (s *RegistryService) removeController(ctx context.Context, address string, role models.ControllerRole) error {
	address, err := normalizeAddress(address)
	if err != nil {
		return err
	}
	if err := s.controllerRepo.Revoke(ctx, address, role); err != nil {
		return err
	}
	s.publisher.Publish(events.ControllerRemoved{Address: address, Role: string(role)})
	return nil
}

// CheckRootDomainValidity reports whether a root label is still unclaimed:
// true only while no sub-root creator is recorded for it. Established
// namespaces ("did" is seeded at install) therefore report false.
func (s *RegistryService) CheckRootDomainValidity(ctx context.Context, rootName string) (bool, error) {
	entry, err := s.registryRepo.GetSubRootCreator(ctx, rootName)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return true, nil
	}
	return utils.IsZeroTokenID(entry.CreatorID), nil
}

// GetSubRootDomainCreator returns the creator id recorded for a root, or
// the zero hash when the root is unclaimed.
func (s *RegistryService) GetSubRootDomainCreator(ctx context.Context, rootName string) (string, error) {
	entry, err := s.registryRepo.GetSubRootCreator(ctx, rootName)
	if err != nil {
		return "", err
	}
	if entry == nil {
		return common.Hash{}.Hex(), nil
	}
	return entry.CreatorID, nil
}

// SetSubRootDomainCreator records which identifier may create names under
// a root. Restricted to the creator-controller role.
func (s *RegistryService) SetSubRootDomainCreator(ctx context.Context, caller, rootName, creatorID string) error {
	caller, err := normalizeAddress(caller)
	if err != nil {
		return err
	}
	ok, err := s.controllerRepo.HasRole(ctx, caller, models.RoleCreatorController)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}

	creatorID, valid := utils.NormalizeTokenID(creatorID)
	if !valid {
		return ErrInvalidAddress
	}

	if err := s.registryRepo.SetSubRootCreator(ctx, rootName, creatorID); err != nil {
		return err
	}

	s.publisher.Publish(events.NewSubRootDomainCreator{RootName: rootName, CreatorID: creatorID})
	return nil
}

// SetResolver records the default resolver address.
func (s *RegistryService) SetResolver(ctx context.Context, address string) error {
	address, err := normalizeAddress(address)
	if err != nil {
		return err
	}
	return s.settingsRepo.Set(ctx, models.ConfigKeyDefaultResolver, address, "admin")
}

// GetResolver returns the default resolver address, empty when unset.
func (s *RegistryService) GetResolver(ctx context.Context) (string, error) {
	return s.settingsRepo.Get(ctx, models.ConfigKeyDefaultResolver)
}
