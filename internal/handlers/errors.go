package handlers

import (
	"errors"
	"net/http"

	"did-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps service sentinels onto HTTP status codes and
// stable machine-readable code strings.
func respondServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"

	switch {
	case errors.Is(err, services.ErrUnauthorized):
		status, code = http.StatusForbidden, "UNAUTHORIZED"
	case errors.Is(err, services.ErrInvalidDuration):
		status, code = http.StatusBadRequest, "INVALID_DURATION"
	case errors.Is(err, services.ErrInvalidAddress):
		status, code = http.StatusBadRequest, "INVALID_ADDRESS"
	case errors.Is(err, services.ErrInvalidSecret):
		status, code = http.StatusBadRequest, "INVALID_SECRET"
	case errors.Is(err, services.ErrDomainProtected):
		status, code = http.StatusForbidden, "DOMAIN_PROTECTED"
	case errors.Is(err, services.ErrRootDomainInvalid):
		status, code = http.StatusBadRequest, "ROOT_DOMAIN_INVALID"
	case errors.Is(err, services.ErrNameUnavailable):
		status, code = http.StatusConflict, "NAME_UNAVAILABLE"
	case errors.Is(err, services.ErrSecondaryLengthMismatch):
		status, code = http.StatusBadRequest, "NAME_LENGTH_MISMATCH"
	case errors.Is(err, services.ErrCommissionRateOutOfRange):
		status, code = http.StatusBadRequest, "COMMISSION_RATE_OUT_OF_RANGE"
	case errors.Is(err, services.ErrCommitmentTooNew):
		status, code = http.StatusConflict, "COMMITMENT_TOO_NEW"
	case errors.Is(err, services.ErrCommitmentTooOld):
		status, code = http.StatusGone, "COMMITMENT_TOO_OLD"
	case errors.Is(err, services.ErrCommitmentNotFound):
		status, code = http.StatusNotFound, "COMMITMENT_NOT_FOUND"
	case errors.Is(err, services.ErrUnexpiredCommitmentExists):
		status, code = http.StatusConflict, "COMMITMENT_PENDING"
	case errors.Is(err, services.ErrInsufficientPayment):
		status, code = http.StatusPaymentRequired, "INSUFFICIENT_PAYMENT"
	case errors.Is(err, services.ErrNonceAlreadyUsed):
		status, code = http.StatusConflict, "NONCE_ALREADY_USED"
	case errors.Is(err, services.ErrInvalidSignature):
		status, code = http.StatusUnauthorized, "INVALID_SIGNATURE"
	case errors.Is(err, services.ErrOracleUnavailable):
		status, code = http.StatusServiceUnavailable, "ORACLE_UNAVAILABLE"
	case errors.Is(err, services.ErrNameNotFound):
		status, code = http.StatusNotFound, "NAME_NOT_FOUND"
	case errors.Is(err, services.ErrNameExpired):
		status, code = http.StatusGone, "NAME_EXPIRED"
	}

	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
		"code":    code,
	})
}
