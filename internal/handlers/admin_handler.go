package handlers

import (
	"net/http"

	"did-backend/internal/config"
	"did-backend/internal/dto"
	"did-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminHandler exposes the privileged registry operations: role grants,
// protected domains, namespace delegation, sign-checker rotation and
// partner commission charts. All routes sit behind IP restriction and
// admin JWT auth.
type AdminHandler struct {
	registry   *services.RegistryService
	registrar  *services.RegistrarService
	referral   *services.ReferralService
	controller *services.RegisterControllerService
	log        *logrus.Logger
}

// NewAdminHandler creates a new AdminHandler instance
func NewAdminHandler(
	registry *services.RegistryService,
	registrar *services.RegistrarService,
	referral *services.ReferralService,
	controller *services.RegisterControllerService,
	log *logrus.Logger,
) *AdminHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AdminHandler{
		registry:   registry,
		registrar:  registrar,
		referral:   referral,
		controller: controller,
		log:        log,
	}
}

// AddControllerHandler grants a controller role
// POST /api/v1/admin/controllers
func (h *AdminHandler) AddControllerHandler(c *gin.Context) {
	h.controllerAction(c, true)
}

// RemoveControllerHandler revokes a controller role
// DELETE /api/v1/admin/controllers
func (h *AdminHandler) RemoveControllerHandler(c *gin.Context) {
	h.controllerAction(c, false)
}

func (h *AdminHandler) controllerAction(c *gin.Context, grant bool) {
	var req dto.ControllerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body", "code": "INVALID_REQUEST"})
		return
	}

	ctx := c.Request.Context()
	var err error
	switch req.Role {
	case "owner_controller":
		if grant {
			err = h.registry.AddOwnerController(ctx, req.Address)
		} else {
			err = h.registry.RemoveOwnerController(ctx, req.Address)
		}
	case "creator_controller":
		if grant {
			err = h.registry.AddCreatorController(ctx, req.Address)
		} else {
			err = h.registry.RemoveCreatorController(ctx, req.Address)
		}
	case "registrar_controller":
		if grant {
			err = h.registrar.AddController(ctx, req.Address)
		} else {
			err = h.registrar.RemoveController(ctx, req.Address)
		}
	case "referral_controller":
		if grant {
			err = h.referral.AddController(ctx, req.Address)
		} else {
			err = h.referral.RemoveController(ctx, req.Address)
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Unknown role", "code": "UNKNOWN_ROLE"})
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.log.WithFields(logrus.Fields{"address": req.Address, "role": req.Role, "grant": grant}).Info("🔐 Controller role updated")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SetProtectedDomainHandler closes or reopens a root label
// POST /api/v1/admin/protected-domains
func (h *AdminHandler) SetProtectedDomainHandler(c *gin.Context) {
	var req dto.ProtectedDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body", "code": "INVALID_REQUEST"})
		return
	}

	if err := h.registrar.SetProtectedDomain(c.Request.Context(), req.RootName, *req.Protected); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SetSubRootCreatorHandler delegates a root namespace. The write runs
// under the service's own controller identity.
// POST /api/v1/admin/sub-root-creators
func (h *AdminHandler) SetSubRootCreatorHandler(c *gin.Context) {
	var req dto.SubRootCreatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body", "code": "INVALID_REQUEST"})
		return
	}

	caller := config.AppConfig.Registration.ControllerAddress
	if err := h.registry.SetSubRootDomainCreator(c.Request.Context(), caller, req.RootName, req.CreatorID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SetSignCheckerHandler rotates the whitelist voucher signing authority
// POST /api/v1/admin/sign-checker
func (h *AdminHandler) SetSignCheckerHandler(c *gin.Context) {
	var req dto.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body", "code": "INVALID_REQUEST"})
		return
	}

	if err := h.controller.SetSignChecker(c.Request.Context(), req.Address); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SetDefaultResolverHandler records the default resolver address
// POST /api/v1/admin/resolver
func (h *AdminHandler) SetDefaultResolverHandler(c *gin.Context) {
	var req dto.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body", "code": "INVALID_REQUEST"})
		return
	}

	if err := h.registry.SetResolver(c.Request.Context(), req.Address); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SetPartnerCommissionHandler installs a per-name commission override
// POST /api/v1/admin/partner-commissions
func (h *AdminHandler) SetPartnerCommissionHandler(c *gin.Context) {
	var req dto.PartnerCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body", "code": "INVALID_REQUEST"})
		return
	}

	if err := h.referral.SetPartnerComissionChart(c.Request.Context(), req.TokenID, req.Tier, req.RateBps, req.Flag); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
