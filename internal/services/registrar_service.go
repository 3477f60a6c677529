package services

import (
	"context"
	"strings"
	"time"

	"did-backend/internal/events"
	"did-backend/internal/models"
	"did-backend/internal/repository"
	"did-backend/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RegistrarService owns the name lifecycle: registration, renewal, expiry
// and the grace period. It never deletes records; an expired name keeps its
// row and becomes registrable again, at which point the row is overwritten.
type RegistrarService struct {
	nameRepo       repository.NameRepository
	controllerRepo repository.ControllerRepository
	registry       *RegistryService
	publisher      *events.Publisher
	log            *logrus.Logger

	gracePeriod time.Duration
	now         func() time.Time
}

// NewRegistrarService creates a new RegistrarService instance
func NewRegistrarService(
	nameRepo repository.NameRepository,
	controllerRepo repository.ControllerRepository,
	registry *RegistryService,
	publisher *events.Publisher,
	gracePeriodSeconds int64,
	log *logrus.Logger,
) *RegistrarService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RegistrarService{
		nameRepo:       nameRepo,
		controllerRepo: controllerRepo,
		registry:       registry,
		publisher:      publisher,
		log:            log,
		gracePeriod:    time.Duration(gracePeriodSeconds) * time.Second,
		now:            time.Now,
	}
}

// validLabel rejects empty labels and labels containing the hierarchy
// separator. Everything else is legal; pricing handles length tiers.
func validLabel(label string) bool {
	return label != "" && !strings.Contains(label, ".")
}

// Available reports whether a name can be registered right now: never
// registered, or registered and past its expiry.
func (s *RegistrarService) Available(ctx context.Context, rootName, secondaryName string) (bool, error) {
	record, err := s.nameRepo.GetByTokenID(ctx, utils.CalTokenIDHex(rootName, secondaryName))
	if err != nil {
		return false, err
	}
	if record == nil {
		return true, nil
	}
	return s.now().Unix() >= record.ExpiresAt, nil
}

// Register creates or overwrites a name record and assigns ownership.
// Restricted to registrar-controller callers; the controller address also
// holds the owner-controller role so the registry write succeeds. The
// returned events must be published by the caller after its transaction
// commits.
func (s *RegistrarService) Register(ctx context.Context, tx *gorm.DB, caller, rootName, secondaryName, owner string, duration int64) (*models.NameRecord, []events.Event, error) {
	if duration <= 0 {
		return nil, nil, ErrInvalidDuration
	}
	if !validLabel(rootName) || !validLabel(secondaryName) {
		return nil, nil, ErrNameUnavailable
	}
	caller, err := normalizeAddress(caller)
	if err != nil {
		return nil, nil, err
	}
	owner, err = normalizeAddress(owner)
	if err != nil {
		return nil, nil, err
	}

	ok, err := s.controllerRepo.WithTx(tx).HasRole(ctx, caller, models.RoleRegistrarController)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrUnauthorized
	}

	nameRepo := s.nameRepo.WithTx(tx)

	protected, err := nameRepo.IsProtected(ctx, rootName)
	if err != nil {
		return nil, nil, err
	}
	if protected {
		return nil, nil, ErrDomainProtected
	}

	// Names can only live under an established namespace: a root with a
	// recorded sub-root creator.
	valid, err := s.registry.CheckRootDomainValidity(ctx, rootName)
	if err != nil {
		return nil, nil, err
	}
	if valid {
		return nil, nil, ErrRootDomainInvalid
	}

	tokenID := utils.CalTokenIDHex(rootName, secondaryName)
	nowUnix := s.now().Unix()

	existing, err := nameRepo.GetByTokenID(ctx, tokenID)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil && nowUnix < existing.ExpiresAt {
		return nil, nil, ErrNameUnavailable
	}

	record := &models.NameRecord{
		TokenID:       tokenID,
		RootName:      rootName,
		SecondaryName: secondaryName,
		ExpiresAt:     nowUnix + duration,
	}
	if err := nameRepo.Upsert(ctx, record); err != nil {
		return nil, nil, err
	}

	transferEv, err := s.registry.SetOwner(ctx, tx, caller, tokenID, owner)
	if err != nil {
		return nil, nil, err
	}

	s.log.WithFields(logrus.Fields{
		"root":      rootName,
		"secondary": secondaryName,
		"owner":     owner,
		"expires":   record.ExpiresAt,
	}).Info("✅ Name registered")

	evs := []events.Event{
		events.NameRegistered{
			RootName:      rootName,
			SecondaryName: secondaryName,
			Owner:         owner,
			Expires:       record.ExpiresAt,
			TokenID:       tokenID,
		},
		transferEv,
	}
	return record, evs, nil
}

// Renew extends a name. A renewal before expiry extends from the current
// expiry; a renewal within the grace period extends from now. Past the
// grace period the name must be re-registered instead.
func (s *RegistrarService) Renew(ctx context.Context, tx *gorm.DB, caller, rootName, secondaryName string, duration int64) (int64, []events.Event, error) {
	if duration <= 0 {
		return 0, nil, ErrInvalidDuration
	}
	caller, err := normalizeAddress(caller)
	if err != nil {
		return 0, nil, err
	}

	ok, err := s.controllerRepo.WithTx(tx).HasRole(ctx, caller, models.RoleRegistrarController)
	if err != nil {
		return 0, nil, err
	}
	if !ok {
		return 0, nil, ErrUnauthorized
	}

	nameRepo := s.nameRepo.WithTx(tx)
	tokenID := utils.CalTokenIDHex(rootName, secondaryName)

	record, err := nameRepo.GetByTokenID(ctx, tokenID)
	if err != nil {
		return 0, nil, err
	}
	if record == nil {
		return 0, nil, ErrNameNotFound
	}

	nowUnix := s.now().Unix()
	if nowUnix >= record.ExpiresAt+int64(s.gracePeriod.Seconds()) {
		return 0, nil, ErrNameExpired
	}

	base := record.ExpiresAt
	if nowUnix > base {
		base = nowUnix
	}
	newExpiry := base + duration

	if err := nameRepo.SetExpiry(ctx, tokenID, newExpiry); err != nil {
		return 0, nil, err
	}

	s.log.WithFields(logrus.Fields{
		"root":      rootName,
		"secondary": secondaryName,
		"expires":   newExpiry,
	}).Info("🔄 Name renewed")

	return newExpiry, []events.Event{events.NameRenewed{TokenID: tokenID, Expires: newExpiry}}, nil
}

// OwnerOf returns the owner of a live name. Expired names report
// ErrNameExpired even though the ownership row survives.
func (s *RegistrarService) OwnerOf(ctx context.Context, rootName, secondaryName string) (string, error) {
	tokenID := utils.CalTokenIDHex(rootName, secondaryName)
	record, err := s.nameRepo.GetByTokenID(ctx, tokenID)
	if err != nil {
		return "", err
	}
	if record == nil {
		return "", ErrNameNotFound
	}
	if s.now().Unix() >= record.ExpiresAt {
		return "", ErrNameExpired
	}
	return s.registry.GetOwner(ctx, tokenID)
}

// NameExpires returns the expiry timestamp of a name, expired or not.
func (s *RegistrarService) NameExpires(ctx context.Context, rootName, secondaryName string) (int64, error) {
	record, err := s.nameRepo.GetByTokenID(ctx, utils.CalTokenIDHex(rootName, secondaryName))
	if err != nil {
		return 0, err
	}
	if record == nil {
		return 0, ErrNameNotFound
	}
	return record.ExpiresAt, nil
}

// Record returns the raw lifecycle record for a name, nil when never
// registered.
func (s *RegistrarService) Record(ctx context.Context, rootName, secondaryName string) (*models.NameRecord, error) {
	return s.nameRepo.GetByTokenID(ctx, utils.CalTokenIDHex(rootName, secondaryName))
}

// AddController grants the registrar-controller role.
func (s *RegistrarService) AddController(ctx context.Context, address string) error {
	address, err := normalizeAddress(address)
	if err != nil {
		return err
	}
	if err := s.controllerRepo.Grant(ctx, address, models.RoleRegistrarController); err != nil {
		return err
	}
	s.publisher.Publish(events.ControllerAdded{Address: address, Role: string(models.RoleRegistrarController)})
	return nil
}

// RemoveController revokes the registrar-controller role.
func (s *RegistrarService) RemoveController(ctx context.Context, address string) error {
	address, err := normalizeAddress(address)
	if err != nil {
		return err
	}
	if err := s.controllerRepo.Revoke(ctx, address, models.RoleRegistrarController); err != nil {
		return err
	}
	s.publisher.Publish(events.ControllerRemoved{Address: address, Role: string(models.RoleRegistrarController)})
	return nil
}

// SetProtectedDomain closes or reopens a root label for registration.
func (s *RegistrarService) SetProtectedDomain(ctx context.Context, rootName string, protected bool) error {
	if err := s.nameRepo.SetProtected(ctx, rootName, protected); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"root": rootName, "protected": protected}).Info("🛡️ Protected domain updated")
	return nil
}

// IsProtectedDomain reports whether a root label is closed.
func (s *RegistrarService) IsProtectedDomain(ctx context.Context, rootName string) (bool, error) {
	return s.nameRepo.IsProtected(ctx, rootName)
}

// GracePeriod exposes the configured post-expiry renewal window.
func (s *RegistrarService) GracePeriod() time.Duration {
	return s.gracePeriod
}
