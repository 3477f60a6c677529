package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// IPRestrict middleware - only allow localhost or whitelisted IPs access.
// Used on the admin route group.
type IPRestrict struct {
	logger     *logrus.Logger
	allowedIPs []string // IP addresses or CIDR ranges
}

// NewIPRestrict creates a new IPRestrict instance
func NewIPRestrict(logger *logrus.Logger, allowedIPs []string) *IPRestrict {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &IPRestrict{logger: logger, allowedIPs: allowedIPs}
}

// Restrict rejects requests from addresses outside the whitelist.
func (m *IPRestrict) Restrict() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		if !m.allowed(clientIP) {
			m.logger.WithFields(logrus.Fields{
				"client_ip": clientIP,
				"path":      c.Request.URL.Path,
			}).Warn("🚫 Admin route access denied")

			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Access restricted",
				"code":    "IP_NOT_ALLOWED",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (m *IPRestrict) allowed(clientIP string) bool {
	ip := net.ParseIP(clientIP)
	if ip == nil {
		return false
	}
	if ip.IsLoopback() {
		return true
	}

	for _, allowed := range m.allowedIPs {
		if _, cidr, err := net.ParseCIDR(allowed); err == nil {
			if cidr.Contains(ip) {
				return true
			}
			continue
		}
		if allowedIP := net.ParseIP(allowed); allowedIP != nil && allowedIP.Equal(ip) {
			return true
		}
	}
	return false
}
