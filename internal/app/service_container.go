package app

import (
	"fmt"
	"log"
	"sync"

	"did-backend/internal/clients"
	"did-backend/internal/config"
	"did-backend/internal/db"
	"did-backend/internal/events"
	"did-backend/internal/repository"
	"did-backend/internal/services"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ServiceContainer holds every repository and service the API serves from.
type ServiceContainer struct {
	// Database
	DB *gorm.DB

	// Repositories
	RegistryRepo   repository.RegistryRepository
	ControllerRepo repository.ControllerRepository
	NameRepo       repository.NameRepository
	CommitmentRepo repository.CommitmentRepository
	ReferralRepo   repository.ReferralRepository
	NonceRepo      repository.NonceRepository
	ResolverRepo   repository.ResolverRepository
	SettingsRepo   repository.SettingsRepository

	// Eventing
	NATSConn       *nats.Conn
	EventPublisher *events.Publisher

	// Core services
	RegistryService           *services.RegistryService
	RegistrarService          *services.RegistrarService
	PriceOracleService        *services.PriceOracleService
	ReferralService           *services.ReferralService
	ResolverService           *services.ResolverService
	RegisterControllerService *services.RegisterControllerService

	Logger *logrus.Logger
}

// Global service container instance
var Container *ServiceContainer
var containerOnce sync.Once

// InitializeContainer builds the container once. Assumes config and the
// database are already initialized.
func InitializeContainer(logger *logrus.Logger) (*ServiceContainer, error) {
	var initErr error

	containerOnce.Do(func() {
		log.Println("🚀 Initializing Service Container...")
		if logger == nil {
			logger = logrus.StandardLogger()
		}

		container := &ServiceContainer{
			DB:     db.DB,
			Logger: logger,
		}

		container.initRepositories()

		if err := container.initEventing(); err != nil {
			// Eventing is optional; the registry works without a broker.
			log.Printf("⚠️ NATS unavailable, continuing without broker: %v", err)
		}

		if err := container.initServices(); err != nil {
			initErr = fmt.Errorf("failed to initialize services: %w", err)
			return
		}

		Container = container
		log.Println("✅ Service Container initialized successfully")
	})

	return Container, initErr
}

func (c *ServiceContainer) initRepositories() {
	log.Println("📦 Initializing Repositories...")

	c.RegistryRepo = repository.NewRegistryRepository(c.DB)
	c.ControllerRepo = repository.NewControllerRepository(c.DB)
	c.NameRepo = repository.NewNameRepository(c.DB)
	c.CommitmentRepo = repository.NewCommitmentRepository(c.DB)
	c.ReferralRepo = repository.NewReferralRepository(c.DB)
	c.NonceRepo = repository.NewNonceRepository(c.DB)
	c.ResolverRepo = repository.NewResolverRepository(c.DB)
	c.SettingsRepo = repository.NewSettingsRepository(c.DB)
}

func (c *ServiceContainer) initEventing() error {
	conn, err := clients.ConnectNATS(config.AppConfig.NATS)
	if err != nil {
		c.EventPublisher = events.NewPublisher(nil, config.AppConfig.NATS.SubjectPrefix, c.Logger)
		return err
	}
	c.NATSConn = conn
	c.EventPublisher = events.NewPublisher(conn, config.AppConfig.NATS.SubjectPrefix, c.Logger)
	return nil
}

func (c *ServiceContainer) initServices() error {
	log.Println("⚙️ Initializing Services...")
	cfg := config.AppConfig

	c.RegistryService = services.NewRegistryService(c.RegistryRepo, c.ControllerRepo, c.SettingsRepo, c.EventPublisher, c.Logger)
	c.RegistrarService = services.NewRegistrarService(c.NameRepo, c.ControllerRepo, c.RegistryService, c.EventPublisher, cfg.Registrar.GracePeriodSeconds, c.Logger)

	feed, err := buildRateFeed(cfg.RateFeed)
	if err != nil {
		return err
	}
	c.PriceOracleService, err = services.NewPriceOracleService(cfg.Pricing, cfg.RateFeed, feed, c.Logger)
	if err != nil {
		return err
	}

	c.ReferralService = services.NewReferralService(c.ReferralRepo, c.ControllerRepo, c.EventPublisher, cfg.Referral.DefaultRateBps, cfg.Referral.MaxRateBps, c.Logger)
	c.ResolverService = services.NewResolverService(c.ResolverRepo, c.ControllerRepo, c.RegistryService, c.Logger)

	verifier, err := services.NewVoucherVerifier(cfg.Registration.ChainID, cfg.Registration.ControllerAddress)
	if err != nil {
		return err
	}

	c.RegisterControllerService = services.NewRegisterControllerService(
		c.DB,
		c.CommitmentRepo, c.NonceRepo, c.SettingsRepo,
		c.RegistrarService, c.PriceOracleService, c.ReferralService, c.ResolverService,
		verifier, c.EventPublisher,
		cfg.Registration.ControllerAddress,
		cfg.Registration.MinCommitmentAge, cfg.Registration.MaxCommitmentAge,
		c.Logger,
	)
	return nil
}

// buildRateFeed picks the configured rate source: a fixed dev rate or the
// HTTP feed.
func buildRateFeed(cfg config.RateFeedConfig) (services.RateFeed, error) {
	if cfg.FixedRate != "" {
		log.Printf("💱 Using fixed exchange rate: %s", cfg.FixedRate)
		return clients.NewFixedRateFeed(cfg.FixedRate)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("rate feed base URL not configured")
	}
	return clients.NewRateFeedClient(cfg.BaseURL, cfg.Timeout), nil
}

// Shutdown releases external connections.
func (c *ServiceContainer) Shutdown() {
	if c.NATSConn != nil {
		c.NATSConn.Close()
		log.Println("🔌 NATS connection closed")
	}
}
