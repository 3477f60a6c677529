package handlers

import (
	"math/big"
	"net/http"

	"did-backend/internal/dto"
	"did-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// RegistrationHandler handles the commit-reveal registration protocol
type RegistrationHandler struct {
	controller *services.RegisterControllerService
}

// NewRegistrationHandler creates a new RegistrationHandler instance
func NewRegistrationHandler(controller *services.RegisterControllerService) *RegistrationHandler {
	return &RegistrationHandler{controller: controller}
}

func parseWei(raw string) (*big.Int, bool) {
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok || value.Sign() < 0 {
		return nil, false
	}
	return value, true
}

func registrationResponse(result *services.RegisterResult) dto.RegistrationResponse {
	return dto.RegistrationResponse{
		TokenID:     result.TokenID,
		Expires:     result.Expires,
		Base:        result.Base.String(),
		Premium:     result.Premium.String(),
		ReferralFee: result.Fee.String(),
		Refund:      result.Refund.String(),
	}
}

// MakeCommitmentHandler computes a commitment hash server-side
// POST /api/v1/commitments/make
func (h *RegistrationHandler) MakeCommitmentHandler(c *gin.Context) {
	var req dto.MakeCommitmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body", "code": "INVALID_REQUEST"})
		return
	}

	var hash string
	var err error
	if req.ResolverTarget == "" {
		hash, err = h.controller.MakeCommitment(req.RootName, req.SecondaryName, req.Owner, req.Secret)
	} else {
		hash, err = h.controller.MakeCommitmentWithConfig(req.RootName, req.SecondaryName, req.Owner, req.ResolverTarget, req.Secret)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "commitment": hash})
}

// CommitHandler records a commitment hash
// POST /api/v1/commitments
func (h *RegistrationHandler) CommitHandler(c *gin.Context) {
	var req dto.CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body", "code": "INVALID_REQUEST"})
		return
	}

	if err := h.controller.Commit(c.Request.Context(), req.Commitment); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":            true,
		"min_commitment_age": h.controller.MinCommitmentAge(),
		"max_commitment_age": h.controller.MaxCommitmentAge(),
	})
}

// RegisterHandler is the reveal phase
// POST /api/v1/registrations
func (h *RegistrationHandler) RegisterHandler(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body", "code": "INVALID_REQUEST"})
		return
	}
	payment, ok := parseWei(req.Payment)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid payment amount", "code": "INVALID_PAYMENT"})
		return
	}

	params := services.RegisterParams{
		RootName:        req.RootName,
		SecondaryName:   req.SecondaryName,
		Owner:           req.Owner,
		Secret:          req.Secret,
		Duration:        req.Duration,
		Payment:         payment,
		ReferralTokenID: req.ReferralTokenID,
	}

	var result *services.RegisterResult
	var err error
	if req.ResolverTarget == "" {
		result, err = h.controller.Register(c.Request.Context(), &params)
	} else {
		result, err = h.controller.RegisterWithConfig(c.Request.Context(), &services.RegisterWithConfigParams{
			RegisterParams: params,
			ResolverTarget: req.ResolverTarget,
		})
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "registration": registrationResponse(result)})
}

// WhitelistRegisterHandler registers against a signed voucher
// POST /api/v1/registrations/whitelist
func (h *RegistrationHandler) WhitelistRegisterHandler(c *gin.Context) {
	var req dto.WhitelistRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body", "code": "INVALID_REQUEST"})
		return
	}

	voucher := services.WhitelistVoucher{
		UserAddress:         req.Voucher.UserAddress,
		RootName:            req.Voucher.RootName,
		SecondaryNameLength: req.Voucher.SecondaryNameLength,
		Nonce:               req.Voucher.Nonce,
		Duration:            req.Voucher.Duration,
		Signature:           req.Voucher.Signature,
	}

	result, err := h.controller.WhitelistRegister(c.Request.Context(), &voucher, req.SecondaryName, req.ReferralTokenID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "registration": registrationResponse(result)})
}

// RenewHandler extends a registration
// POST /api/v1/renewals
func (h *RegistrationHandler) RenewHandler(c *gin.Context) {
	var req dto.RenewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body", "code": "INVALID_REQUEST"})
		return
	}
	payment, ok := parseWei(req.Payment)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid payment amount", "code": "INVALID_PAYMENT"})
		return
	}

	result, err := h.controller.Renew(c.Request.Context(), req.RootName, req.SecondaryName, req.Duration, payment)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"renewal": dto.RenewalResponse{
			TokenID: result.TokenID,
			Expires: result.Expires,
			Cost:    result.Cost.String(),
			Refund:  result.Refund.String(),
		},
	})
}
