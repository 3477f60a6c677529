package handlers

import (
	"net/http"

	"did-backend/internal/dto"
	"did-backend/internal/services"
	"did-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

// ResolverHandler serves per-name resolution records
type ResolverHandler struct {
	resolver *services.ResolverService
}

// NewResolverHandler creates a new ResolverHandler instance
func NewResolverHandler(resolver *services.ResolverService) *ResolverHandler {
	return &ResolverHandler{resolver: resolver}
}

// GetRecordHandler returns the resolver record for a name
// GET /api/v1/resolver/:token_id
func (h *ResolverHandler) GetRecordHandler(c *gin.Context) {
	tokenID, valid := utils.NormalizeTokenID(c.Param("token_id"))
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid token id", "code": "INVALID_TOKEN_ID"})
		return
	}

	addr, err := h.resolver.Addr(c.Request.Context(), tokenID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	payee, err := h.resolver.CommissionAcceptAddress(c.Request.Context(), tokenID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":                   true,
		"token_id":                  tokenID,
		"addr":                      addr,
		"commission_accept_address": payee,
	})
}

// SetAddrHandler points a name at an address
// POST /api/v1/resolver/addr
func (h *ResolverHandler) SetAddrHandler(c *gin.Context) {
	var req dto.SetResolverAddrRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body", "code": "INVALID_REQUEST"})
		return
	}

	if err := h.resolver.SetAddr(c.Request.Context(), nil, req.Caller, req.TokenID, req.Addr); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SetCommissionAcceptHandler redirects a name's referral payouts
// POST /api/v1/resolver/commission-accept
func (h *ResolverHandler) SetCommissionAcceptHandler(c *gin.Context) {
	var req dto.SetCommissionAcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body", "code": "INVALID_REQUEST"})
		return
	}

	if err := h.resolver.SetCommissionAcceptAddress(c.Request.Context(), req.Caller, req.TokenID, req.Addr); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
