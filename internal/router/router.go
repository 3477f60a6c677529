package router

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"did-backend/internal/app"
	"did-backend/internal/config"
	"did-backend/internal/handlers"
	"did-backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// corsMiddleware CORS middleware
// Priority: Environment Variable > YAML Config > Default (*)
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		var allowedOrigins []string
		allowCredentials := true
		maxAge := 3600

		envOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if envOrigins != "" {
			for _, o := range strings.Split(envOrigins, ",") {
				if trimmed := strings.TrimSpace(o); trimmed != "" {
					allowedOrigins = append(allowedOrigins, trimmed)
				}
			}
		} else if config.AppConfig != nil && len(config.AppConfig.CORS.AllowedOrigins) > 0 {
			allowedOrigins = config.AppConfig.CORS.AllowedOrigins
			allowCredentials = config.AppConfig.CORS.AllowCredentials
			if config.AppConfig.CORS.MaxAge > 0 {
				maxAge = config.AppConfig.CORS.MaxAge
			}
		} else {
			allowedOrigins = []string{"*"}
		}

		if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			for _, allowedOrigin := range allowedOrigins {
				if strings.TrimSpace(allowedOrigin) == origin {
					c.Header("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}

		if allowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", strconv.Itoa(maxAge))

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SetupRouter wires every route against the service container.
func SetupRouter(container *app.ServiceContainer, log *logrus.Logger) *gin.Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// Probes and metrics sit outside the API version prefix.
	r.GET("/ping", handlers.PingHandler)
	r.GET("/health", handlers.HealthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	registrationHandler := handlers.NewRegistrationHandler(container.RegisterControllerService)
	queryHandler := handlers.NewQueryHandler(container.RegistrarService, container.RegistryService, container.PriceOracleService, container.ReferralService)
	resolverHandler := handlers.NewResolverHandler(container.ResolverService)
	adminHandler := handlers.NewAdminHandler(container.RegistryService, container.RegistrarService, container.ReferralService, container.RegisterControllerService, log)
	adminAuthHandler := handlers.NewAdminAuthHandler()
	eventStream := handlers.NewEventStreamHandler(container.EventPublisher, log)

	api := r.Group("/api/v1")
	{
		// Commit-reveal registration
		api.POST("/commitments", registrationHandler.CommitHandler)
		api.POST("/commitments/make", registrationHandler.MakeCommitmentHandler)
		api.POST("/registrations", registrationHandler.RegisterHandler)
		api.POST("/registrations/whitelist", registrationHandler.WhitelistRegisterHandler)
		api.POST("/renewals", registrationHandler.RenewHandler)

		// Read side
		api.GET("/names/:root/:secondary", queryHandler.GetNameHandler)
		api.GET("/names/:root/:secondary/price", queryHandler.GetPriceHandler)
		api.GET("/token-id/:root/:secondary", queryHandler.GetTokenIDHandler)
		api.GET("/roots/:root/validity", queryHandler.GetRootValidityHandler)
		api.GET("/roots/:root/creator", queryHandler.GetRootCreatorHandler)
		api.GET("/referrals/balance/:address", queryHandler.GetReferralBalanceHandler)
		api.GET("/referrals/:token_id", queryHandler.GetReferralHandler)

		// Resolver
		api.GET("/resolver/:token_id", resolverHandler.GetRecordHandler)
		api.POST("/resolver/addr", resolverHandler.SetAddrHandler)
		api.POST("/resolver/commission-accept", resolverHandler.SetCommissionAcceptHandler)

		// Event stream
		api.GET("/ws/events", eventStream.StreamHandler)
	}

	// Admin routes: IP whitelist first, then JWT.
	ipRestrict := middleware.NewIPRestrict(log, config.AppConfig.Admin.AllowedIPs)
	adminAuth := middleware.NewAdminAuthMiddleware(log)

	admin := r.Group("/api/v1/admin")
	admin.Use(ipRestrict.Restrict())
	{
		admin.POST("/login", adminAuthHandler.AdminLoginHandler)

		protected := admin.Group("")
		protected.Use(adminAuth.RequireAdminAuth())
		{
			protected.POST("/controllers", adminHandler.AddControllerHandler)
			protected.DELETE("/controllers", adminHandler.RemoveControllerHandler)
			protected.POST("/protected-domains", adminHandler.SetProtectedDomainHandler)
			protected.POST("/sub-root-creators", adminHandler.SetSubRootCreatorHandler)
			protected.POST("/sign-checker", adminHandler.SetSignCheckerHandler)
			protected.POST("/resolver", adminHandler.SetDefaultResolverHandler)
			protected.POST("/partner-commissions", adminHandler.SetPartnerCommissionHandler)
		}
	}

	log.Info("🛣️ Router initialized")
	return r
}
