package services

import (
	"context"
	"math/big"

	"did-backend/internal/events"
	"did-backend/internal/metrics"
	"did-backend/internal/models"
	"did-backend/internal/repository"
	"did-backend/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const bpsDenominator = 10000

// ReferralService is the commission ledger. Each name can carry a partner
// commission chart overriding the global rate; credits accrue on the
// referrer's balance as wei decimal strings.
type ReferralService struct {
	referralRepo   repository.ReferralRepository
	controllerRepo repository.ControllerRepository
	publisher      *events.Publisher
	log            *logrus.Logger

	defaultRateBps int64
	maxRateBps     int64
}

// NewReferralService creates a new ReferralService instance
func NewReferralService(
	referralRepo repository.ReferralRepository,
	controllerRepo repository.ControllerRepository,
	publisher *events.Publisher,
	defaultRateBps, maxRateBps int64,
	log *logrus.Logger,
) *ReferralService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReferralService{
		referralRepo:   referralRepo,
		controllerRepo: controllerRepo,
		publisher:      publisher,
		log:            log,
		defaultRateBps: defaultRateBps,
		maxRateBps:     maxRateBps,
	}
}

// GetReferralCommisionFee splits a payment into the commission owed to the
// referring name and the remainder. Rate is the name's override when one is
// configured, otherwise the global default, in basis points of 10000.
func (s *ReferralService) GetReferralCommisionFee(ctx context.Context, totalPrice *big.Int, tokenID string) (*big.Int, *big.Int, error) {
	return s.feeWithRepo(ctx, s.referralRepo, totalPrice, tokenID)
}

// CreditReferral accrues the commission for one paid registration on the
// payee's balance and bumps the referring name's counter. Restricted to
// referral-controller callers; the returned event is the caller's to
// publish after commit.
func (s *ReferralService) CreditReferral(ctx context.Context, tx *gorm.DB, caller, tokenID, payee string, totalPrice *big.Int) (*big.Int, events.Event, error) {
	caller, err := normalizeAddress(caller)
	if err != nil {
		return nil, nil, err
	}
	payee, err = normalizeAddress(payee)
	if err != nil {
		return nil, nil, err
	}

	ok, err := s.controllerRepo.WithTx(tx).HasRole(ctx, caller, models.RoleReferralController)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrUnauthorized
	}

	repo := s.referralRepo.WithTx(tx)

	fee, _, err := s.feeWithRepo(ctx, repo, totalPrice, tokenID)
	if err != nil {
		return nil, nil, err
	}

	// The counter tracks referred registrations regardless of fee; free
	// registrations still count.
	record, err := repo.GetRecord(ctx, tokenID)
	if err != nil {
		return nil, nil, err
	}
	if record == nil {
		record = &models.ReferralRecord{TokenID: tokenID}
	}
	record.ReferralCount++
	if err := repo.SaveRecord(ctx, record); err != nil {
		return nil, nil, err
	}

	if fee.Sign() == 0 {
		return fee, nil, nil
	}

	balance, err := repo.GetBalance(ctx, payee)
	if err != nil {
		return nil, nil, err
	}
	if balance == nil {
		balance = &models.ReferralBalance{Address: payee, Balance: "0"}
	}
	current, ok2 := new(big.Int).SetString(balance.Balance, 10)
	if !ok2 {
		current = new(big.Int)
	}
	balance.Balance = new(big.Int).Add(current, fee).String()
	if err := repo.SaveBalance(ctx, balance); err != nil {
		return nil, nil, err
	}

	metrics.ReferralsCredited.Inc()
	s.log.WithFields(logrus.Fields{
		"token_id": tokenID,
		"payee":    payee,
		"fee":      fee.String(),
	}).Info("💸 Referral commission credited")

	return fee, events.ReferralAccrued{TokenID: tokenID, Payee: payee, Amount: fee.String()}, nil
}

func (s *ReferralService) feeWithRepo(ctx context.Context, repo repository.ReferralRepository, totalPrice *big.Int, tokenID string) (*big.Int, *big.Int, error) {
	rateBps := s.defaultRateBps
	record, err := repo.GetRecord(ctx, tokenID)
	if err != nil {
		return nil, nil, err
	}
	if record != nil && record.HasOverride {
		rateBps = record.OverrideBps
	}
	fee := new(big.Int).Mul(totalPrice, big.NewInt(rateBps))
	fee.Div(fee, big.NewInt(bpsDenominator))
	return fee, new(big.Int).Sub(totalPrice, fee), nil
}

// SetPartnerComissionChart installs a per-name commission override. Rates
// above the configured ceiling are rejected.
func (s *ReferralService) SetPartnerComissionChart(ctx context.Context, tokenID string, tier, rateBps, flag int64) error {
	tokenID, valid := utils.NormalizeTokenID(tokenID)
	if !valid {
		return ErrInvalidAddress
	}
	if rateBps < 0 || rateBps > s.maxRateBps {
		return ErrCommissionRateOutOfRange
	}

	record, err := s.referralRepo.GetRecord(ctx, tokenID)
	if err != nil {
		return err
	}
	if record == nil {
		record = &models.ReferralRecord{TokenID: tokenID}
	}
	record.HasOverride = true
	record.OverrideBps = rateBps
	record.OverrideTier = tier
	record.OverrideFlag = flag
	if err := s.referralRepo.SaveRecord(ctx, record); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"token_id": tokenID,
		"rate_bps": rateBps,
		"tier":     tier,
	}).Info("🤝 Partner commission chart updated")
	return nil
}

// ReferralBalance returns the accrued wei balance for a referrer address.
func (s *ReferralService) ReferralBalance(ctx context.Context, address string) (*big.Int, error) {
	address, err := normalizeAddress(address)
	if err != nil {
		return nil, err
	}
	balance, err := s.referralRepo.GetBalance(ctx, address)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return new(big.Int), nil
	}
	value, ok := new(big.Int).SetString(balance.Balance, 10)
	if !ok {
		return new(big.Int), nil
	}
	return value, nil
}

// ReferralCount returns how many registrations a name has referred.
func (s *ReferralService) ReferralCount(ctx context.Context, tokenID string) (int64, error) {
	record, err := s.referralRepo.GetRecord(ctx, tokenID)
	if err != nil {
		return 0, err
	}
	if record == nil {
		return 0, nil
	}
	return record.ReferralCount, nil
}

// AddController grants the referral-controller role.
func (s *ReferralService) AddController(ctx context.Context, address string) error {
	address, err := normalizeAddress(address)
	if err != nil {
		return err
	}
	if err := s.controllerRepo.Grant(ctx, address, models.RoleReferralController); err != nil {
		return err
	}
	s.publisher.Publish(events.ControllerAdded{Address: address, Role: string(models.RoleReferralController)})
	return nil
}

// RemoveController revokes the referral-controller role.
func (s *ReferralService) RemoveController(ctx context.Context, address string) error {
	address, err := normalizeAddress(address)
	if err != nil {
		return err
	}
	if err := s.controllerRepo.Revoke(ctx, address, models.RoleReferralController); err != nil {
		return err
	}
	s.publisher.Publish(events.ControllerRemoved{Address: address, Role: string(models.RoleReferralController)})
	return nil
}
