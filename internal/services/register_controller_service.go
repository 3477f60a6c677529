package services

import (
	"context"
	"errors"
	"math/big"
	"time"
	"unicode/utf8"

	"did-backend/internal/events"
	"did-backend/internal/metrics"
	"did-backend/internal/models"
	"did-backend/internal/repository"
	"did-backend/internal/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RegisterParams carries one registration request through the reveal phase.
// Payment is the attached native amount in wei; anything above the quoted
// price is reported back as a refund.
type RegisterParams struct {
	RootName        string
	SecondaryName   string
	Owner           string
	Secret          string // 32-byte hex, as used in the commitment
	Duration        int64
	Payment         *big.Int
	ReferralTokenID string // optional referring name
}

// RegisterWithConfigParams additionally configures the resolver forward
// address in the same transaction.
type RegisterWithConfigParams struct {
	RegisterParams
	ResolverTarget string
}

// RegisterResult reports the outcome of a successful registration.
type RegisterResult struct {
	TokenID string   `json:"token_id"`
	Expires int64    `json:"expires"`
	Base    *big.Int `json:"base"`
	Premium *big.Int `json:"premium"`
	Fee     *big.Int `json:"referral_fee"`
	Refund  *big.Int `json:"refund"`
}

// RenewResult reports the outcome of a successful renewal.
type RenewResult struct {
	TokenID string   `json:"token_id"`
	Expires int64    `json:"expires"`
	Cost    *big.Int `json:"cost"`
	Refund  *big.Int `json:"refund"`
}

// RegisterControllerService drives the public registration protocol:
// commit, wait out the minimum age, reveal-and-pay. It is the only caller
// that composes the registrar, oracle, referral hub and resolver inside
// one transaction, acting under its own controller identity.
type RegisterControllerService struct {
	db *gorm.DB
	// txRunner wraps the reveal-phase writes; tests swap it for a
	// pass-through that hands the services a nil tx.
	txRunner func(fn func(tx *gorm.DB) error) error

	commitmentRepo repository.CommitmentRepository
	nonceRepo      repository.NonceRepository
	settingsRepo   repository.SettingsRepository

	registrar *RegistrarService
	oracle    *PriceOracleService
	referral  *ReferralService
	resolver  *ResolverService
	verifier  *VoucherVerifier
	publisher *events.Publisher
	log       *logrus.Logger

	identity string // controller address all role checks run against
	minAge   int64  // seconds a commitment must rest before reveal
	maxAge   int64  // seconds until a commitment expires

	now func() time.Time
}

// NewRegisterControllerService creates a new RegisterControllerService instance
func NewRegisterControllerService(
	db *gorm.DB,
	commitmentRepo repository.CommitmentRepository,
	nonceRepo repository.NonceRepository,
	settingsRepo repository.SettingsRepository,
	registrar *RegistrarService,
	oracle *PriceOracleService,
	referral *ReferralService,
	resolver *ResolverService,
	verifier *VoucherVerifier,
	publisher *events.Publisher,
	identity string,
	minCommitmentAge, maxCommitmentAge int64,
	log *logrus.Logger,
) *RegisterControllerService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &RegisterControllerService{
		db:             db,
		commitmentRepo: commitmentRepo,
		nonceRepo:      nonceRepo,
		settingsRepo:   settingsRepo,
		registrar:      registrar,
		oracle:         oracle,
		referral:       referral,
		resolver:       resolver,
		verifier:       verifier,
		publisher:      publisher,
		identity:       normalizedOrZero(identity),
		minAge:         minCommitmentAge,
		maxAge:         maxCommitmentAge,
		log:            log,
		now:            time.Now,
	}
	s.txRunner = func(fn func(tx *gorm.DB) error) error {
		if s.db == nil {
			return fn(nil)
		}
		return s.db.Transaction(fn)
	}
	return s
}

func normalizedOrZero(addr string) string {
	normalized, err := normalizeAddress(addr)
	if err != nil {
		return ""
	}
	return normalized
}

// parseSecret decodes a 32-byte hex commitment secret.
func parseSecret(secret string) ([]byte, error) {
	raw, err := hexutil.Decode(secret)
	if err != nil || len(raw) != 32 {
		return nil, ErrInvalidSecret
	}
	return raw, nil
}

// MakeCommitment computes the commitment hash a registrant submits ahead
// of the reveal: keccak256(tokenId || pad32(owner) || secret).
func (s *RegisterControllerService) MakeCommitment(rootName, secondaryName, owner, secret string) (string, error) {
	owner, err := normalizeAddress(owner)
	if err != nil {
		return "", err
	}
	secretBytes, err := parseSecret(secret)
	if err != nil {
		return "", err
	}
	tokenID := utils.CalTokenID(rootName, secondaryName)
	return crypto.Keccak256Hash(
		tokenID.Bytes(),
		common.LeftPadBytes(common.HexToAddress(owner).Bytes(), 32),
		secretBytes,
	).Hex(), nil
}

// MakeCommitmentWithConfig is the commitment variant that also binds the
// resolver forward address, for use with RegisterWithConfig.
func (s *RegisterControllerService) MakeCommitmentWithConfig(rootName, secondaryName, owner, resolverTarget, secret string) (string, error) {
	owner, err := normalizeAddress(owner)
	if err != nil {
		return "", err
	}
	resolverTarget, err = normalizeAddress(resolverTarget)
	if err != nil {
		return "", err
	}
	secretBytes, err := parseSecret(secret)
	if err != nil {
		return "", err
	}
	tokenID := utils.CalTokenID(rootName, secondaryName)
	return crypto.Keccak256Hash(
		tokenID.Bytes(),
		common.LeftPadBytes(common.HexToAddress(owner).Bytes(), 32),
		common.LeftPadBytes(common.HexToAddress(resolverTarget).Bytes(), 32),
		secretBytes,
	).Hex(), nil
}

// Commit records a commitment hash. An identical commitment that is still
// within its validity window cannot be re-armed; once it has aged out it
// can be committed again.
func (s *RegisterControllerService) Commit(ctx context.Context, hash string) error {
	hash, valid := utils.NormalizeTokenID(hash)
	if !valid {
		return ErrInvalidSecret
	}

	nowUnix := s.now().Unix()

	existing, err := s.commitmentRepo.GetByHash(ctx, hash)
	if err != nil {
		return err
	}
	if existing != nil && existing.Status == models.CommitmentStatusPending && nowUnix-existing.SubmittedAt <= s.maxAge {
		return ErrUnexpiredCommitmentExists
	}

	if err := s.commitmentRepo.Record(ctx, hash, nowUnix); err != nil {
		return err
	}

	metrics.CommitmentsRecorded.Inc()
	s.publisher.Publish(events.CommitmentRecorded{Hash: hash})
	s.log.WithFields(logrus.Fields{"hash": hash}).Info("📝 Commitment recorded")
	return nil
}

// checkCommitment validates that a pending commitment exists and sits
// inside its age window.
func (s *RegisterControllerService) checkCommitment(ctx context.Context, tx *gorm.DB, hash string) error {
	commitment, err := s.commitmentRepo.WithTx(tx).GetByHash(ctx, hash)
	if err != nil {
		return err
	}
	if commitment == nil || commitment.Status != models.CommitmentStatusPending {
		return ErrCommitmentNotFound
	}

	age := s.now().Unix() - commitment.SubmittedAt
	if age < s.minAge {
		return ErrCommitmentTooNew
	}
	if age > s.maxAge {
		return ErrCommitmentTooOld
	}
	return nil
}

// consumeCommitment re-validates the commitment age window and marks the
// commitment consumed, all inside the reveal transaction.
func (s *RegisterControllerService) consumeCommitment(ctx context.Context, tx *gorm.DB, hash string) error {
	if err := s.checkCommitment(ctx, tx, hash); err != nil {
		return err
	}
	return s.commitmentRepo.WithTx(tx).Consume(ctx, hash, s.now().Unix())
}

// Register is the reveal phase: checks payment against the live quote,
// consumes the matching commitment and registers the name atomically,
// crediting the referrer when one was named.
func (s *RegisterControllerService) Register(ctx context.Context, params *RegisterParams) (*RegisterResult, error) {
	result, err := s.register(ctx, params, "")
	if err != nil {
		metrics.RegistrationFailures.WithLabelValues("register", failureReason(err)).Inc()
		return nil, err
	}
	metrics.RegistrationsTotal.WithLabelValues("register").Inc()
	return result, nil
}

// RegisterWithConfig is Register plus resolver configuration: the resolver
// forward address is bound into the commitment and set in the same
// transaction as the registration.
func (s *RegisterControllerService) RegisterWithConfig(ctx context.Context, params *RegisterWithConfigParams) (*RegisterResult, error) {
	resolverTarget, err := normalizeAddress(params.ResolverTarget)
	if err != nil {
		metrics.RegistrationFailures.WithLabelValues("register_with_config", failureReason(err)).Inc()
		return nil, err
	}
	result, err := s.register(ctx, &params.RegisterParams, resolverTarget)
	if err != nil {
		metrics.RegistrationFailures.WithLabelValues("register_with_config", failureReason(err)).Inc()
		return nil, err
	}
	metrics.RegistrationsTotal.WithLabelValues("register_with_config").Inc()
	return result, nil
}

func (s *RegisterControllerService) register(ctx context.Context, params *RegisterParams, resolverTarget string) (*RegisterResult, error) {
	var commitment string
	var err error
	if resolverTarget == "" {
		commitment, err = s.MakeCommitment(params.RootName, params.SecondaryName, params.Owner, params.Secret)
	} else {
		commitment, err = s.MakeCommitmentWithConfig(params.RootName, params.SecondaryName, params.Owner, resolverTarget, params.Secret)
	}
	if err != nil {
		return nil, err
	}

	// Commitment problems are reported before payment problems; the
	// transaction re-checks the window before consuming.
	if err := s.checkCommitment(ctx, nil, commitment); err != nil {
		return nil, err
	}

	price, err := s.oracle.RentPrice(ctx, params.RootName, params.SecondaryName, params.Duration)
	if err != nil {
		return nil, err
	}
	total := price.Total()
	if params.Payment == nil || params.Payment.Cmp(total) < 0 {
		return nil, ErrInsufficientPayment
	}

	result := &RegisterResult{
		Base:    price.Base,
		Premium: price.Premium,
		Fee:     new(big.Int),
		Refund:  new(big.Int).Sub(params.Payment, total),
	}

	var pending []events.Event
	err = s.txRunner(func(tx *gorm.DB) error {
		if err := s.consumeCommitment(ctx, tx, commitment); err != nil {
			return err
		}

		record, evs, err := s.registrar.Register(ctx, tx, s.identity, params.RootName, params.SecondaryName, params.Owner, params.Duration)
		if err != nil {
			return err
		}
		result.TokenID = record.TokenID
		result.Expires = record.ExpiresAt
		pending = append(pending, evs...)

		if resolverTarget != "" {
			if err := s.resolver.SetAddr(ctx, tx, s.identity, record.TokenID, resolverTarget); err != nil {
				return err
			}
		}

		if params.ReferralTokenID != "" {
			fee, ev, err := s.creditReferrer(ctx, tx, params.ReferralTokenID, total)
			if err != nil {
				return err
			}
			result.Fee = fee
			if ev != nil {
				pending = append(pending, ev)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, ev := range pending {
		s.publisher.Publish(ev)
	}
	return result, nil
}

// creditReferrer resolves the referrer's payout address and credits the
// commission on it.
func (s *RegisterControllerService) creditReferrer(ctx context.Context, tx *gorm.DB, referralTokenID string, total *big.Int) (*big.Int, events.Event, error) {
	referralTokenID, valid := utils.NormalizeTokenID(referralTokenID)
	if !valid {
		return nil, nil, ErrInvalidAddress
	}
	payee, err := s.resolver.CommissionAcceptAddress(ctx, referralTokenID)
	if err != nil {
		return nil, nil, err
	}
	if payee == "" || common.HexToAddress(payee) == (common.Address{}) {
		// Referrer never registered a payout target and owns nothing.
		return new(big.Int), nil, nil
	}
	return s.referral.CreditReferral(ctx, tx, s.identity, referralTokenID, payee, total)
}

// Renew extends a registration at the full quoted price, base plus any
// premium still decaying at renewal time.
func (s *RegisterControllerService) Renew(ctx context.Context, rootName, secondaryName string, duration int64, payment *big.Int) (*RenewResult, error) {
	price, err := s.oracle.RentPrice(ctx, rootName, secondaryName, duration)
	if err != nil {
		metrics.RegistrationFailures.WithLabelValues("renew", failureReason(err)).Inc()
		return nil, err
	}
	cost := price.Total()
	if payment == nil || payment.Cmp(cost) < 0 {
		metrics.RegistrationFailures.WithLabelValues("renew", failureReason(ErrInsufficientPayment)).Inc()
		return nil, ErrInsufficientPayment
	}

	result := &RenewResult{
		TokenID: utils.CalTokenIDHex(rootName, secondaryName),
		Cost:    cost,
		Refund:  new(big.Int).Sub(payment, cost),
	}

	var pending []events.Event
	err = s.txRunner(func(tx *gorm.DB) error {
		expires, evs, err := s.registrar.Renew(ctx, tx, s.identity, rootName, secondaryName, duration)
		if err != nil {
			return err
		}
		result.Expires = expires
		pending = evs
		return nil
	})
	if err != nil {
		metrics.RegistrationFailures.WithLabelValues("renew", failureReason(err)).Inc()
		return nil, err
	}

	for _, ev := range pending {
		s.publisher.Publish(ev)
	}
	metrics.RenewalsTotal.Inc()
	return result, nil
}

// WhitelistRegister registers a name for free against a voucher signed by
// the sign checker. The voucher fixes root, owner, duration and the length
// of the secondary name; its nonce is burned on success.
func (s *RegisterControllerService) WhitelistRegister(ctx context.Context, voucher *WhitelistVoucher, secondaryName, referralTokenID string) (*RegisterResult, error) {
	result, err := s.whitelistRegister(ctx, voucher, secondaryName, referralTokenID)
	if err != nil {
		metrics.RegistrationFailures.WithLabelValues("whitelist", failureReason(err)).Inc()
		return nil, err
	}
	metrics.RegistrationsTotal.WithLabelValues("whitelist").Inc()
	return result, nil
}

func (s *RegisterControllerService) whitelistRegister(ctx context.Context, voucher *WhitelistVoucher, secondaryName, referralTokenID string) (*RegisterResult, error) {
	if int64(utf8.RuneCountInString(secondaryName)) != voucher.SecondaryNameLength {
		return nil, ErrSecondaryLengthMismatch
	}

	signChecker, err := s.settingsRepo.Get(ctx, models.ConfigKeySignChecker)
	if err != nil {
		return nil, err
	}
	if signChecker == "" {
		return nil, ErrInvalidSignature
	}
	if err := s.verifier.Verify(voucher, signChecker); err != nil {
		return nil, err
	}

	nonce, err := canonicalNonce(voucher.Nonce)
	if err != nil {
		return nil, ErrInvalidSignature
	}

	used, err := s.nonceRepo.IsUsed(ctx, nonce)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, ErrNonceAlreadyUsed
	}

	owner, err := normalizeAddress(voucher.UserAddress)
	if err != nil {
		return nil, err
	}

	result := &RegisterResult{
		Base:    new(big.Int),
		Premium: new(big.Int),
		Fee:     new(big.Int),
		Refund:  new(big.Int),
	}

	var pending []events.Event
	err = s.txRunner(func(tx *gorm.DB) error {
		// The unique index on the nonce makes concurrent double-spends
		// lose here, not at the availability check.
		if err := s.nonceRepo.WithTx(tx).MarkUsed(ctx, nonce, owner, s.now().Unix()); err != nil {
			if errors.Is(err, repository.ErrNonceExists) {
				return ErrNonceAlreadyUsed
			}
			return err
		}

		record, evs, err := s.registrar.Register(ctx, tx, s.identity, voucher.RootName, secondaryName, owner, voucher.Duration)
		if err != nil {
			return err
		}
		result.TokenID = record.TokenID
		result.Expires = record.ExpiresAt
		pending = append(pending, evs...)

		if referralTokenID != "" {
			fee, ev, err := s.creditReferrer(ctx, tx, referralTokenID, new(big.Int))
			if err != nil {
				return err
			}
			result.Fee = fee
			if ev != nil {
				pending = append(pending, ev)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, ev := range pending {
		s.publisher.Publish(ev)
	}
	return result, nil
}

// SetSignChecker rotates the whitelist voucher signing authority.
func (s *RegisterControllerService) SetSignChecker(ctx context.Context, address string) error {
	address, err := normalizeAddress(address)
	if err != nil {
		return err
	}
	if err := s.settingsRepo.Set(ctx, models.ConfigKeySignChecker, address, "admin"); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"sign_checker": address}).Info("🔑 Sign checker rotated")
	return nil
}

// SignChecker returns the current voucher signing authority.
func (s *RegisterControllerService) SignChecker(ctx context.Context) (string, error) {
	return s.settingsRepo.Get(ctx, models.ConfigKeySignChecker)
}

// MinCommitmentAge returns the commit-reveal minimum wait in seconds.
func (s *RegisterControllerService) MinCommitmentAge() int64 { return s.minAge }

// MaxCommitmentAge returns the commitment validity window in seconds.
func (s *RegisterControllerService) MaxCommitmentAge() int64 { return s.maxAge }

// failureReason maps sentinel errors onto stable metric labels.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInvalidDuration):
		return "invalid_duration"
	case errors.Is(err, ErrDomainProtected):
		return "protected_domain"
	case errors.Is(err, ErrRootDomainInvalid):
		return "root_invalid"
	case errors.Is(err, ErrNameUnavailable):
		return "unavailable"
	case errors.Is(err, ErrCommitmentTooNew):
		return "commitment_too_new"
	case errors.Is(err, ErrCommitmentTooOld):
		return "commitment_too_old"
	case errors.Is(err, ErrCommitmentNotFound):
		return "commitment_not_found"
	case errors.Is(err, ErrUnexpiredCommitmentExists):
		return "commitment_pending"
	case errors.Is(err, ErrInsufficientPayment):
		return "insufficient_payment"
	case errors.Is(err, ErrOracleUnavailable):
		return "oracle_unavailable"
	case errors.Is(err, ErrNonceAlreadyUsed):
		return "nonce_used"
	case errors.Is(err, ErrInvalidSignature):
		return "bad_signature"
	case errors.Is(err, ErrSecondaryLengthMismatch):
		return "length_mismatch"
	case errors.Is(err, ErrNameNotFound):
		return "not_found"
	case errors.Is(err, ErrNameExpired):
		return "expired"
	case errors.Is(err, ErrInvalidAddress), errors.Is(err, ErrInvalidSecret):
		return "bad_input"
	default:
		return "internal"
	}
}
