package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config application configuration structure
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	NATS         NATSConfig         `yaml:"nats"`
	Registrar    RegistrarConfig    `yaml:"registrar"`
	Registration RegistrationConfig `yaml:"registration"`
	Pricing      PricingConfig      `yaml:"pricing"`
	RateFeed     RateFeedConfig     `yaml:"rate_feed"`
	Referral     ReferralConfig     `yaml:"referral"`
	CORS         CORSConfig         `yaml:"cors"`
	Admin        AdminConfig        `yaml:"admin"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig database configuration
type DatabaseConfig struct {
	DSN    string `yaml:"dsn"`
	Driver string `yaml:"driver"`
}

// NATSConfig NATS message server configuration
type NATSConfig struct {
	URL           string `yaml:"url"`
	Timeout       int    `yaml:"timeout"`
	ReconnectWait int    `yaml:"reconnect_wait"`
	MaxReconnects int    `yaml:"max_reconnects"`
	SubjectPrefix string `yaml:"subject_prefix"` // default "did.registry"
	Enabled       bool   `yaml:"enabled"`
}

// RegistrarConfig name lifecycle configuration
type RegistrarConfig struct {
	// Roots seeded with a sub-root creator at migration; public
	// registration is only possible under an established root.
	SeedRootDomains []string `yaml:"seedRootDomains"`
	// Roots closed to public registration (e.g. the reverse namespace).
	ProtectedDomains   []string `yaml:"protectedDomains"`
	GracePeriodSeconds int64    `yaml:"gracePeriodSeconds"`
}

// RegistrationConfig commit-reveal protocol configuration
type RegistrationConfig struct {
	ChainID           int64  `yaml:"chainId"`
	ControllerAddress string `yaml:"controllerAddress"` // identity of the register controller, bound into voucher digests
	SignChecker       string `yaml:"signChecker"`       // whitelist voucher signing authority
	MinCommitmentAge  int64  `yaml:"minCommitmentAge"`  // seconds, must be >= 1
	MaxCommitmentAge  int64  `yaml:"maxCommitmentAge"`  // seconds
}

// PricingConfig rent pricing configuration. USD amounts are attoUSD
// (1e-18 USD) decimal strings, the unit the price oracle works in.
type PricingConfig struct {
	// Per-second rent by secondary-name length; lengths >= 5 use Tier5.
	Tier1 string `yaml:"tier1"`
	Tier2 string `yaml:"tier2"`
	Tier3 string `yaml:"tier3"`
	Tier4 string `yaml:"tier4"`
	Tier5 string `yaml:"tier5"`

	PremiumStart        string `yaml:"premiumStart"`        // attoUSD premium at launch
	PremiumDecaySeconds int64  `yaml:"premiumDecaySeconds"` // decay window length
	PremiumCurve        string `yaml:"premiumCurve"`        // "linear" or "exponential"
	LaunchTimestamp     int64  `yaml:"launchTimestamp"`     // unix seconds the decay starts from
}

// RateFeedConfig native/USD exchange-rate feed configuration
type RateFeedConfig struct {
	BaseURL          string `yaml:"baseUrl"`
	Timeout          int    `yaml:"timeout"`          // request timeout (seconds)
	StalenessSeconds int64  `yaml:"stalenessSeconds"` // older quotes are treated as feed-down
	// FixedRate short-circuits the HTTP feed with a constant 8-decimal
	// native/USD rate. Dev and test environments only.
	FixedRate string `yaml:"fixedRate"`
}

// ReferralConfig commission ledger configuration
type ReferralConfig struct {
	DefaultRateBps int64 `yaml:"defaultRateBps"` // global commission rate, basis points of 10000
	MaxRateBps     int64 `yaml:"maxRateBps"`     // upper bound accepted from partner charts
}

// CORSConfig CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowedOrigins"`
	AllowCredentials bool     `yaml:"allowCredentials"`
	MaxAge           int      `yaml:"maxAge"`
}

// AdminConfig admin API access control configuration
type AdminConfig struct {
	AllowedIPs []string `yaml:"allowedIPs"` // IP addresses or CIDR ranges allowed on admin routes
	JWTSecret  string   `yaml:"jwtSecret"`
	TOTPSecret string   `yaml:"totpSecret"` // base32 secret; empty disables the TOTP check
	TokenTTL   int      `yaml:"tokenTTL"`   // minutes an issued admin token stays valid
}

var AppConfig *Config

// LoadConfig loads the configuration file, then applies environment
// variable overrides.
func LoadConfig(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
		if _, err := os.Stat("config.local.yaml"); err == nil {
			configPath = "config.local.yaml"
			fmt.Printf("🔧 Using local configuration file: config.local.yaml\n")
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	fmt.Printf("✅ [%s] Loading configuration from config file: %s\n", time.Now().Format("2006-01-02 15:04:05"), configPath)

	overrideFromEnv(&config)
	applyDefaults(&config)

	if err := validate(&config); err != nil {
		return err
	}

	AppConfig = &config
	return nil
}

// overrideFromEnv overrides configuration from environment variables
func overrideFromEnv(config *Config) {
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		config.NATS.URL = natsURL
		config.NATS.Enabled = true
	}
	if natsTimeout := os.Getenv("NATS_TIMEOUT"); natsTimeout != "" {
		if t, err := strconv.Atoi(natsTimeout); err == nil {
			config.NATS.Timeout = t
		}
	}

	if feedURL := os.Getenv("RATE_FEED_URL"); feedURL != "" {
		config.RateFeed.BaseURL = feedURL
	}
	if fixedRate := os.Getenv("RATE_FEED_FIXED_RATE"); fixedRate != "" {
		config.RateFeed.FixedRate = fixedRate
	}

	if signChecker := os.Getenv("SIGN_CHECKER"); signChecker != "" {
		config.Registration.SignChecker = signChecker
	}
	if controller := os.Getenv("CONTROLLER_ADDRESS"); controller != "" {
		config.Registration.ControllerAddress = controller
	}
	if chainID := os.Getenv("CHAIN_ID"); chainID != "" {
		if id, err := strconv.ParseInt(chainID, 10, 64); err == nil {
			config.Registration.ChainID = id
		}
	}

	if jwtSecret := os.Getenv("ADMIN_JWT_SECRET"); jwtSecret != "" {
		config.Admin.JWTSecret = jwtSecret
	}
	if totpSecret := os.Getenv("ADMIN_TOTP_SECRET"); totpSecret != "" {
		config.Admin.TOTPSecret = totpSecret
	}

	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		origins := strings.Split(corsOrigins, ",")
		config.CORS.AllowedOrigins = make([]string, 0, len(origins))
		for _, origin := range origins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				config.CORS.AllowedOrigins = append(config.CORS.AllowedOrigins, trimmed)
			}
		}
	}
}

func applyDefaults(config *Config) {
	if config.Server.Port == 0 {
		config.Server.Port = 18090
	}
	if config.NATS.SubjectPrefix == "" {
		config.NATS.SubjectPrefix = "did.registry"
	}
	if config.Registrar.GracePeriodSeconds == 0 {
		config.Registrar.GracePeriodSeconds = 90 * 24 * 3600
	}
	if config.Registration.MaxCommitmentAge == 0 {
		config.Registration.MaxCommitmentAge = 86400
	}
	if config.Pricing.PremiumCurve == "" {
		config.Pricing.PremiumCurve = "linear"
	}
	if config.RateFeed.StalenessSeconds == 0 {
		config.RateFeed.StalenessSeconds = 3600
	}
	if config.Referral.MaxRateBps == 0 {
		config.Referral.MaxRateBps = 10000
	}
	if config.Admin.TokenTTL == 0 {
		config.Admin.TokenTTL = 60
	}
}

func validate(config *Config) error {
	// The reveal transaction must not be able to land in the same second
	// as the commit, or commit-reveal stops defending against
	// front-running.
	if config.Registration.MinCommitmentAge < 1 {
		return fmt.Errorf("registration.minCommitmentAge must be >= 1 second, got %d", config.Registration.MinCommitmentAge)
	}
	if config.Registration.MaxCommitmentAge <= config.Registration.MinCommitmentAge {
		return fmt.Errorf("registration.maxCommitmentAge (%d) must exceed minCommitmentAge (%d)",
			config.Registration.MaxCommitmentAge, config.Registration.MinCommitmentAge)
	}
	if config.Referral.DefaultRateBps < 0 || config.Referral.DefaultRateBps > config.Referral.MaxRateBps {
		return fmt.Errorf("referral.defaultRateBps %d outside [0, %d]", config.Referral.DefaultRateBps, config.Referral.MaxRateBps)
	}
	switch config.Pricing.PremiumCurve {
	case "linear", "exponential":
	default:
		return fmt.Errorf("pricing.premiumCurve must be linear or exponential, got %q", config.Pricing.PremiumCurve)
	}
	return nil
}
