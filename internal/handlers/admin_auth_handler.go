package handlers

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"os"
	"time"

	"did-backend/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"github.com/sirupsen/logrus"
)

// AdminAuthHandler issues and validates admin JWT tokens. Login requires
// the shared password plus a TOTP code when a TOTP secret is configured.
type AdminAuthHandler struct {
	jwtSecret  []byte
	totpSecret string
	tokenTTL   time.Duration
}

// AdminLoginRequest admin login request
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totp_code"`
}

// AdminJWTClaims admin JWT claims
type AdminJWTClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

var adminJWTSecret []byte

// NewAdminAuthHandler creates a new AdminAuthHandler instance
func NewAdminAuthHandler() *AdminAuthHandler {
	cfg := config.AppConfig.Admin

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		jwtSecret = "did-backend-admin-jwt-secret-change-me"
		logrus.Warn("⚠️ Using the default ADMIN_JWT_SECRET, set one for production")
	}
	if cfg.TOTPSecret == "" {
		logrus.Warn("⚠️ ADMIN_TOTP_SECRET not set, admin login skips the TOTP check")
	}

	ttl := time.Duration(cfg.TokenTTL) * time.Minute
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	adminJWTSecret = []byte(jwtSecret)
	return &AdminAuthHandler{
		jwtSecret:  []byte(jwtSecret),
		totpSecret: cfg.TOTPSecret,
		tokenTTL:   ttl,
	}
}

// AdminLoginHandler authenticates an admin and issues a JWT
// POST /api/v1/admin/login
func (h *AdminAuthHandler) AdminLoginHandler(c *gin.Context) {
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Server misconfiguration: ADMIN_PASSWORD not set",
		})
		return
	}

	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": fmt.Sprintf("Invalid request: %v", err)})
		return
	}

	expectedUsername := os.Getenv("ADMIN_USERNAME")
	if expectedUsername == "" {
		expectedUsername = "admin"
	}

	// Generic message on every credential failure.
	if subtle.ConstantTimeCompare([]byte(req.Username), []byte(expectedUsername)) != 1 ||
		subtle.ConstantTimeCompare([]byte(req.Password), []byte(adminPassword)) != 1 {
		logrus.WithFields(logrus.Fields{"username": req.Username}).Warn("🚫 Admin login rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid credentials"})
		return
	}

	if h.totpSecret != "" {
		if req.TOTPCode == "" || !totp.Validate(req.TOTPCode, h.totpSecret) {
			logrus.WithFields(logrus.Fields{"username": req.Username}).Warn("🚫 Admin TOTP rejected")
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid credentials"})
			return
		}
	}

	now := time.Now()
	claims := AdminJWTClaims{
		Username: req.Username,
		Role:     "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.tokenTTL)),
			Issuer:    "did-backend",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to issue token"})
		return
	}

	logrus.WithFields(logrus.Fields{"username": req.Username}).Info("🔓 Admin login succeeded")
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"token":      token,
		"expires_at": now.Add(h.tokenTTL).Unix(),
	})
}

// ValidateAdminJWTToken parses and validates an admin token. Used by the
// admin auth middleware.
func ValidateAdminJWTToken(tokenString string) (*AdminJWTClaims, error) {
	if len(adminJWTSecret) == 0 {
		return nil, fmt.Errorf("admin auth not initialized")
	}

	token, err := jwt.ParseWithClaims(tokenString, &AdminJWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return adminJWTSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AdminJWTClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Role != "admin" {
		return nil, fmt.Errorf("insufficient role")
	}
	return claims, nil
}
