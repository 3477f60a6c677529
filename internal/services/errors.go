package services

import "errors"

// Registration and registry errors. Handlers map these onto HTTP status
// codes and machine-readable code strings; services only ever return
// sentinels (possibly wrapped) so callers can errors.Is them.
var (
	// authorization
	ErrUnauthorized = errors.New("caller lacks the required controller role")

	// validation
	ErrInvalidDuration          = errors.New("duration must be positive")
	ErrDomainProtected          = errors.New("root domain is protected")
	ErrRootDomainInvalid        = errors.New("root domain has no registered namespace creator")
	ErrNameUnavailable          = errors.New("name is currently owned and unexpired")
	ErrSecondaryLengthMismatch  = errors.New("secondary name length does not match the voucher")
	ErrInvalidAddress           = errors.New("malformed address")
	ErrCommissionRateOutOfRange = errors.New("commission rate exceeds the configured ceiling")
	ErrInvalidSecret            = errors.New("secret must be 32 bytes of hex")

	// timing
	ErrCommitmentTooNew = errors.New("commitment is younger than the minimum age")
	ErrCommitmentTooOld = errors.New("commitment is older than the maximum age")

	// payment
	ErrInsufficientPayment = errors.New("attached payment below base + premium")

	// replay
	ErrCommitmentNotFound        = errors.New("no matching pending commitment")
	ErrUnexpiredCommitmentExists = errors.New("an identical commitment is already pending")
	ErrNonceAlreadyUsed          = errors.New("voucher nonce already consumed")
	ErrInvalidSignature          = errors.New("voucher signature not produced by the sign checker")

	// upstream
	ErrOracleUnavailable = errors.New("exchange-rate feed unavailable or stale")

	// lookups
	ErrNameNotFound = errors.New("name is not registered")
	ErrNameExpired  = errors.New("name registration has expired")
)
