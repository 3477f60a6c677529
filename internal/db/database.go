package db

import (
	"log"
	"strings"
	"time"

	"did-backend/internal/config"
	"did-backend/internal/models"
	"did-backend/internal/utils"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB() {
	var err error

	if config.AppConfig == nil || config.AppConfig.Database.DSN == "" {
		log.Fatalf("Database DSN is required")
	}

	dsn := config.AppConfig.Database.DSN

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
		PrepareStmt:                              true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	log.Println("✅ Database connected successfully")

	log.Println("🚀 Starting database schema migration with GORM AutoMigrate...")

	if err := DB.AutoMigrate(
		&models.RegistryEntry{},
		&models.NameRecord{},
		&models.Commitment{},
		&models.Controller{},
		&models.ProtectedDomain{},
		&models.SubRootCreator{},
		&models.ReferralRecord{},
		&models.ReferralBalance{},
		&models.WhitelistNonce{},
		&models.ResolverRecord{},
		&models.GlobalConfig{},
	); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	seedRegistryState(DB)

	log.Println("✅ Database schema migrated successfully")
}

// seedRegistryState installs the initial registry state on first boot:
// established root namespaces, protected roots, the register controller's
// role grants, and the sign checker address. Every step is idempotent.
func seedRegistryState(db *gorm.DB) {
	cfg := config.AppConfig

	// Root namespaces open for public registration. The sub-root creator
	// defaults to keccak256 of the root label itself.
	for _, root := range cfg.Registrar.SeedRootDomains {
		root = strings.ToLower(strings.TrimSpace(root))
		if root == "" {
			continue
		}
		var existing models.SubRootCreator
		if err := db.Where("root_name = ?", root).First(&existing).Error; err == gorm.ErrRecordNotFound {
			entry := models.SubRootCreator{
				ID:        uuid.NewString(),
				RootName:  root,
				CreatorID: utils.RootLabelHash(root).Hex(),
			}
			if err := db.Create(&entry).Error; err != nil {
				log.Printf("⚠️ Failed to seed root domain %q: %v", root, err)
			} else {
				log.Printf("🌱 Seeded root domain %q (creator %s)", root, entry.CreatorID)
			}
		}
	}

	// Protected roots (closed to the public registration path).
	for _, root := range cfg.Registrar.ProtectedDomains {
		root = strings.ToLower(strings.TrimSpace(root))
		if root == "" {
			continue
		}
		var existing models.ProtectedDomain
		if err := db.Where("root_name = ?", root).First(&existing).Error; err == gorm.ErrRecordNotFound {
			entry := models.ProtectedDomain{
				ID:        uuid.NewString(),
				RootName:  root,
				Protected: true,
			}
			if err := db.Create(&entry).Error; err != nil {
				log.Printf("⚠️ Failed to seed protected domain %q: %v", root, err)
			} else {
				log.Printf("🌱 Seeded protected domain %q", root)
			}
		}
	}

	// The register controller needs the registrar and referral roles, and
	// the registrar itself writes owners, so grant all three to the
	// configured controller identity.
	controller := strings.ToLower(cfg.Registration.ControllerAddress)
	if controller != "" {
		for _, role := range []models.ControllerRole{
			models.RoleRegistrarController,
			models.RoleReferralController,
			models.RoleOwnerController,
		} {
			var existing models.Controller
			err := db.Where("address = ? AND role = ?", controller, role).First(&existing).Error
			if err == gorm.ErrRecordNotFound {
				grant := models.Controller{
					ID:        uuid.NewString(),
					Address:   controller,
					Role:      role,
					CreatedAt: time.Now(),
				}
				if err := db.Create(&grant).Error; err != nil {
					log.Printf("⚠️ Failed to grant %s to %s: %v", role, controller, err)
				}
			}
		}
		log.Printf("🔑 Register controller identity: %s", controller)
	}

	// Sign checker lives in global config so admins can rotate it at
	// runtime without a restart.
	if cfg.Registration.SignChecker != "" {
		var existing models.GlobalConfig
		if err := db.Where("config_key = ?", models.ConfigKeySignChecker).First(&existing).Error; err == gorm.ErrRecordNotFound {
			entry := models.GlobalConfig{
				ConfigKey:   models.ConfigKeySignChecker,
				ConfigValue: strings.ToLower(cfg.Registration.SignChecker),
				Description: "Whitelist voucher signing authority",
				UpdatedBy:   "system",
			}
			if err := db.Create(&entry).Error; err != nil {
				log.Printf("⚠️ Failed to seed sign checker: %v", err)
			}
		}
	}
}
