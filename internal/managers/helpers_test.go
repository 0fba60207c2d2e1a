package managers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/publora/publora/internal/domain"
	"github.com/publora/publora/internal/vault"

	"github.com/stretchr/testify/require"
)

// fakeRepository is an in-memory domain.IntegrationRepository for manager
// tests.
type fakeRepository struct {
	mu               sync.Mutex
	integrations     map[string]*domain.PlatformIntegration
	nextID           int
	credentialWrites int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{integrations: map[string]*domain.PlatformIntegration{}}
}

func (r *fakeRepository) Create(ctx context.Context, integration *domain.PlatformIntegration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.integrations {
		if existing.UserID == integration.UserID &&
			existing.Platform == integration.Platform &&
			existing.Status == domain.IntegrationStatusActive {
			existing.Status = domain.IntegrationStatusRevoked
		}
	}

	if integration.ID == "" {
		r.nextID++
		integration.ID = fmt.Sprintf("integration-%d", r.nextID)
	}
	integration.Status = domain.IntegrationStatusActive
	integration.CreatedAt = time.Now().UTC()
	integration.UpdatedAt = integration.CreatedAt

	r.integrations[integration.ID] = integration
	return nil
}

func (r *fakeRepository) GetActive(ctx context.Context, userID string, platform domain.PlatformType) (*domain.PlatformIntegration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, integration := range r.integrations {
		if integration.UserID == userID &&
			integration.Platform == platform &&
			integration.Status == domain.IntegrationStatusActive {
			return integration, nil
		}
	}

	return nil, domain.ErrIntegrationNotFound
}

func (r *fakeRepository) ListActive(ctx context.Context, userID string) ([]*domain.PlatformIntegration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var active []*domain.PlatformIntegration
	for _, integration := range r.integrations {
		if integration.UserID == userID && integration.Status == domain.IntegrationStatusActive {
			active = append(active, integration)
		}
	}

	return active, nil
}

func (r *fakeRepository) ForEach(ctx context.Context, fn func(*domain.PlatformIntegration) error) error {
	r.mu.Lock()
	snapshot := make([]*domain.PlatformIntegration, 0, len(r.integrations))
	for _, integration := range r.integrations {
		snapshot = append(snapshot, integration)
	}
	r.mu.Unlock()

	for _, integration := range snapshot {
		if err := fn(integration); err != nil {
			return err
		}
	}

	return nil
}

func (r *fakeRepository) UpdateCredentials(ctx context.Context, id string, credentials any, encrypted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	integration, ok := r.integrations[id]
	if !ok {
		return domain.ErrIntegrationNotFound
	}

	integration.Credentials = credentials
	integration.CredentialsEncrypted = encrypted
	integration.UpdatedAt = time.Now().UTC()
	r.credentialWrites++
	return nil
}

func (r *fakeRepository) UpdateMetadata(ctx context.Context, id string, metadata map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	integration, ok := r.integrations[id]
	if !ok {
		return domain.ErrIntegrationNotFound
	}

	integration.Metadata = metadata
	integration.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeRepository) Revoke(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	integration, ok := r.integrations[id]
	if !ok {
		return domain.ErrIntegrationNotFound
	}

	integration.Status = domain.IntegrationStatusRevoked
	return nil
}

func (r *fakeRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.integrations[id]; !ok {
		return domain.ErrIntegrationNotFound
	}

	delete(r.integrations, id)
	return nil
}

func testCodec(t *testing.T) *vault.CipherCodec {
	t.Helper()

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	codec, err := vault.NewCipherCodec(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)

	return codec
}

func testStore(t *testing.T, repo *fakeRepository) *CredentialStore {
	t.Helper()

	codec := testCodec(t)

	return NewCredentialStore(CredentialStoreDependencies{
		Repository: repo,
		Resolver:   vault.NewResolver(codec, nil),
		Codec:      codec,
	})
}
