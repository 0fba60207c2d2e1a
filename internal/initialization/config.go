package initialization

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all vault configuration.
type Config struct {
	// Server settings
	HTTPAddress string

	// Vault keys. VaultKey is the base64-encoded 256-bit key every
	// credential blob is encrypted under; LegacyVaultKey only decrypts
	// records from before the vault owned encryption.
	VaultKey       string
	LegacyVaultKey string

	// Access gate secrets
	AutomationSecret  string
	IdentityJWTSecret string

	// Storage
	MongoURI      string
	MongoDatabase string

	// Rate limiting. RedisAddr switches the counter to the shared
	// backend for multi-instance deployments.
	RedisAddr              string
	RateLimitMax           int
	RateLimitWindowSeconds int

	// Per-platform OAuth clients, used when an integration's metadata
	// does not carry its own pair.
	LinkedInClientID      string
	LinkedInClientSecret  string
	FacebookClientID      string
	FacebookClientSecret  string
	InstagramClientID     string
	InstagramClientSecret string
	YoutubeClientID       string
	YoutubeClientSecret   string
	TwitterClientID       string
	TwitterClientSecret   string
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

// LoadConfig loads configuration from files and environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Configure environment variables before reading the config file
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envMappings := map[string]string{
		"HTTPAddress":            "HTTP_ADDRESS",
		"VaultKey":               "VAULT_KEY",
		"LegacyVaultKey":         "LEGACY_VAULT_KEY",
		"AutomationSecret":       "AUTOMATION_SECRET",
		"IdentityJWTSecret":      "IDENTITY_JWT_SECRET",
		"MongoURI":               "MONGO_URI",
		"MongoDatabase":          "MONGO_DATABASE",
		"RedisAddr":              "REDIS_ADDR",
		"RateLimitMax":           "RATE_LIMIT_MAX",
		"RateLimitWindowSeconds": "RATE_LIMIT_WINDOW_SECONDS",
		"LinkedInClientID":       "LINKEDIN_CLIENT_ID",
		"LinkedInClientSecret":   "LINKEDIN_CLIENT_SECRET",
		"FacebookClientID":       "FACEBOOK_CLIENT_ID",
		"FacebookClientSecret":   "FACEBOOK_CLIENT_SECRET",
		"InstagramClientID":      "INSTAGRAM_CLIENT_ID",
		"InstagramClientSecret":  "INSTAGRAM_CLIENT_SECRET",
		"YoutubeClientID":        "YOUTUBE_CLIENT_ID",
		"YoutubeClientSecret":    "YOUTUBE_CLIENT_SECRET",
		"TwitterClientID":        "TWITTER_CLIENT_ID",
		"TwitterClientSecret":    "TWITTER_CLIENT_SECRET",
	}

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	v.SetConfigName("publora_config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.publora")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTPAddress", ":8080")
	v.SetDefault("MongoDatabase", "publora")
	v.SetDefault("RateLimitMax", 100)
	v.SetDefault("RateLimitWindowSeconds", 60)
}

// validateConfig collects every missing required variable into one error.
// A missing vault key or gate secret is fatal at startup, never a
// per-request failure.
func validateConfig(config *Config) error {
	var missingVars []string

	if config.VaultKey == "" {
		missingVars = append(missingVars, "VAULT_KEY")
	}

	if config.AutomationSecret == "" {
		missingVars = append(missingVars, "AUTOMATION_SECRET")
	}

	if config.IdentityJWTSecret == "" {
		missingVars = append(missingVars, "IDENTITY_JWT_SECRET")
	}

	if config.MongoURI == "" {
		missingVars = append(missingVars, "MONGO_URI")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %s\n\nGenerate a vault key with: publora generate-key",
			strings.Join(missingVars, ", "))
	}

	return nil
}
