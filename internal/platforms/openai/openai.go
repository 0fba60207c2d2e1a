package openai

import (
	"context"
	"time"

	"github.com/publora/publora/internal/domain"

	openaiapi "github.com/sashabaranov/go-openai"
)

// KeyValidator implements the refresh contract for the OpenAI integration.
// There is no OAuth flow to refresh: the stored API key is long-lived, so a
// "refresh" verifies the key still works and stamps the check time into
// metadata.
type KeyValidator struct {
	baseURL string
	now     func() time.Time
}

func NewKeyValidator() *KeyValidator {
	return &KeyValidator{now: time.Now}
}

func (v *KeyValidator) Refresh(ctx context.Context, req domain.RefreshRequest) (domain.RefreshOutcome, error) {
	apiKey := req.Credentials.APIKey()
	if apiKey == "" {
		return domain.RefreshOutcome{}, domain.NewValidationError("openai integration has no api key")
	}

	config := openaiapi.DefaultConfig(apiKey)
	if v.baseURL != "" {
		config.BaseURL = v.baseURL
	}

	client := openaiapi.NewClientWithConfig(config)

	if _, err := client.ListModels(ctx); err != nil {
		return domain.RefreshOutcome{}, &domain.UpstreamError{
			Platform: domain.PlatformOpenAI,
			Message:  "api key was rejected: " + err.Error(),
		}
	}

	return domain.RefreshOutcome{
		MetadataUpdates: map[string]any{
			domain.MetadataKeyKeyCheckedAt: v.now().UTC().Format(time.RFC3339),
		},
	}, nil
}
