package initialization

import (
	"context"
	"fmt"
	"time"

	"github.com/publora/publora/internal/auth"
	"github.com/publora/publora/internal/controllers"
	"github.com/publora/publora/internal/domain"
	"github.com/publora/publora/internal/managers"
	"github.com/publora/publora/internal/ratelimit"
	"github.com/publora/publora/internal/storage/mongodb"
	"github.com/publora/publora/internal/vault"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Container wires the vault's services from configuration. One container
// serves one process.
type Container struct {
	Config *Config

	mongoClient *mongo.Client

	Repository      domain.IntegrationRepository
	Store           *managers.CredentialStore
	RefreshManager  *managers.TokenRefreshManager
	Aggregator      *managers.ActivityAggregator
	Sweep           *managers.MigrationSweep
	Gate            *auth.Gate
	RateCounter     domain.RateCounter
	VaultController *controllers.VaultController
}

func NewContainer(ctx context.Context, config *Config) (*Container, error) {
	codec, err := vault.NewCipherCodec(config.VaultKey)
	if err != nil {
		return nil, fmt.Errorf("invalid vault key: %w", err)
	}

	var legacy domain.LegacyDecrypter
	if config.LegacyVaultKey != "" {
		legacyDecrypter, err := vault.NewLegacyDecrypter(config.LegacyVaultKey)
		if err != nil {
			return nil, fmt.Errorf("invalid legacy vault key: %w", err)
		}
		legacy = legacyDecrypter
	}

	resolver := vault.NewResolver(codec, legacy)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(config.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := mongoClient.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repository := mongodb.NewIntegrationStore(mongoClient.Database(config.MongoDatabase))

	store := managers.NewCredentialStore(managers.CredentialStoreDependencies{
		Repository: repository,
		Resolver:   resolver,
		Codec:      codec,
	})

	refreshManager := managers.NewTokenRefreshManager(managers.TokenRefreshManagerDependencies{
		Store:      store,
		Refreshers: RegisterRefreshers(),
		Clients:    OAuthClients(config),
	})

	aggregator := managers.NewActivityAggregator(managers.ActivityAggregatorDependencies{
		Store:    store,
		Fetchers: RegisterActivityFetchers(),
	})

	sweep := managers.NewMigrationSweep(managers.MigrationSweepDependencies{
		Repository: repository,
		Resolver:   resolver,
		Codec:      codec,
	})

	gate, err := auth.NewGate(config.AutomationSecret, config.IdentityJWTSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to build access gate: %w", err)
	}

	rateCounter := buildRateCounter(config)

	vaultController := controllers.NewVaultController(controllers.VaultControllerDependencies{
		Repository:     repository,
		Store:          store,
		RefreshManager: refreshManager,
		Aggregator:     aggregator,
		Sweep:          sweep,
	})

	return &Container{
		Config:          config,
		mongoClient:     mongoClient,
		Repository:      repository,
		Store:           store,
		RefreshManager:  refreshManager,
		Aggregator:      aggregator,
		Sweep:           sweep,
		Gate:            gate,
		RateCounter:     rateCounter,
		VaultController: vaultController,
	}, nil
}

func buildRateCounter(config *Config) domain.RateCounter {
	if config.RedisAddr != "" {
		log.Info().Str("addr", config.RedisAddr).Msg("Using shared redis rate counter")
		client := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
		return ratelimit.NewRedisCounter(client, config.RateLimitMax, config.RateLimitWindow())
	}

	return ratelimit.NewMemoryCounter(config.RateLimitMax, config.RateLimitWindow())
}

// Shutdown releases the container's connections.
func (c *Container) Shutdown(ctx context.Context) error {
	if c.mongoClient == nil {
		return nil
	}

	return c.mongoClient.Disconnect(ctx)
}
