package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"did-backend/internal/dto"
	"did-backend/internal/services"
	"did-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

// QueryHandler serves the read side: name lookups, price quotes, namespace
// and referral state.
type QueryHandler struct {
	registrar *services.RegistrarService
	registry  *services.RegistryService
	oracle    *services.PriceOracleService
	referral  *services.ReferralService
}

// NewQueryHandler creates a new QueryHandler instance
func NewQueryHandler(
	registrar *services.RegistrarService,
	registry *services.RegistryService,
	oracle *services.PriceOracleService,
	referral *services.ReferralService,
) *QueryHandler {
	return &QueryHandler{registrar: registrar, registry: registry, oracle: oracle, referral: referral}
}

// GetNameHandler returns the public view of a name
// GET /api/v1/names/:root/:secondary
func (h *QueryHandler) GetNameHandler(c *gin.Context) {
	root := c.Param("root")
	secondary := c.Param("secondary")
	ctx := c.Request.Context()

	response := dto.NameResponse{
		TokenID:       utils.CalTokenIDHex(root, secondary),
		RootName:      root,
		SecondaryName: secondary,
	}

	available, err := h.registrar.Available(ctx, root, secondary)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Available = available

	record, err := h.registrar.Record(ctx, root, secondary)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if record != nil {
		response.Expires = record.ExpiresAt
	}

	owner, err := h.registrar.OwnerOf(ctx, root, secondary)
	switch {
	case err == nil:
		response.Owner = owner
	case errors.Is(err, services.ErrNameExpired):
		response.Expired = true
	case errors.Is(err, services.ErrNameNotFound):
		// never registered, nothing more to report
	default:
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "name": response})
}

// GetPriceHandler quotes the live rent price for a name
// GET /api/v1/names/:root/:secondary/price?duration=31536000
func (h *QueryHandler) GetPriceHandler(c *gin.Context) {
	duration, err := strconv.ParseInt(c.DefaultQuery("duration", "0"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid duration", "code": "INVALID_DURATION"})
		return
	}

	price, err := h.oracle.RentPrice(c.Request.Context(), c.Param("root"), c.Param("secondary"), duration)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"price": dto.PriceResponse{
			Base:    price.Base.String(),
			Premium: price.Premium.String(),
			Total:   price.Total().String(),
		},
	})
}

// GetTokenIDHandler derives the token id for a name pair
// GET /api/v1/token-id/:root/:secondary
func (h *QueryHandler) GetTokenIDHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"token_id": utils.CalTokenIDHex(c.Param("root"), c.Param("secondary")),
	})
}

// GetRootValidityHandler reports whether a root namespace is unclaimed
// GET /api/v1/roots/:root/validity
func (h *QueryHandler) GetRootValidityHandler(c *gin.Context) {
	valid, err := h.registry.CheckRootDomainValidity(c.Request.Context(), c.Param("root"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "root": c.Param("root"), "valid": valid})
}

// GetRootCreatorHandler returns the recorded namespace creator for a root
// GET /api/v1/roots/:root/creator
func (h *QueryHandler) GetRootCreatorHandler(c *gin.Context) {
	creator, err := h.registry.GetSubRootDomainCreator(c.Request.Context(), c.Param("root"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "root": c.Param("root"), "creator_id": creator})
}

// GetReferralHandler returns the referral stats for a name
// GET /api/v1/referrals/:token_id
func (h *QueryHandler) GetReferralHandler(c *gin.Context) {
	tokenID, valid := utils.NormalizeTokenID(c.Param("token_id"))
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid token id", "code": "INVALID_TOKEN_ID"})
		return
	}
	count, err := h.referral.ReferralCount(c.Request.Context(), tokenID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token_id": tokenID, "referral_count": count})
}

// GetReferralBalanceHandler returns the accrued commission for an address
// GET /api/v1/referrals/balance/:address
func (h *QueryHandler) GetReferralBalanceHandler(c *gin.Context) {
	balance, err := h.referral.ReferralBalance(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "balance": balance.String()})
}
