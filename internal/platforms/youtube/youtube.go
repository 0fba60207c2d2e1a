package youtube

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/publora/publora/internal/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	youtubeapi "google.golang.org/api/youtube/v3"
)

// Refresher exchanges the stored Google refresh token for a new access
// token. Google keeps the refresh token stable, so the outcome never rotates
// it and its expiry anchor stays untouched.
type Refresher struct {
	endpoint oauth2.Endpoint
}

func NewRefresher() *Refresher {
	return &Refresher{endpoint: google.Endpoint}
}

func (r *Refresher) Refresh(ctx context.Context, req domain.RefreshRequest) (domain.RefreshOutcome, error) {
	refreshToken := req.Credentials.RefreshToken()
	if refreshToken == "" {
		return domain.RefreshOutcome{}, domain.NewValidationError("youtube integration has no refresh token, reconnect the account")
	}

	config := oauth2.Config{
		ClientID:     req.Client.ClientID,
		ClientSecret: req.Client.ClientSecret,
		Endpoint:     r.endpoint,
	}

	source := config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	token, err := source.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return domain.RefreshOutcome{}, &domain.UpstreamError{
				Platform: domain.PlatformYoutube,
				Message:  retrieveErr.ErrorDescription,
			}
		}
		return domain.RefreshOutcome{}, fmt.Errorf("google token request failed: %w", err)
	}

	return domain.RefreshOutcome{
		AccessToken:         token.AccessToken,
		AccessTokenLifetime: time.Until(token.Expiry),
	}, nil
}

// ActivityFetcher lists the channel's most recent uploads through the
// YouTube Data API.
type ActivityFetcher struct {
	clientOptions []option.ClientOption
}

func NewActivityFetcher() *ActivityFetcher {
	return &ActivityFetcher{}
}

func (f *ActivityFetcher) FetchActivity(ctx context.Context, req domain.FetchActivityRequest) ([]domain.ActivityItem, error) {
	accessToken := req.Credentials.AccessToken()
	if accessToken == "" {
		return nil, domain.ErrNoCredentials
	}

	token := &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}

	options := append([]option.ClientOption{option.WithTokenSource(oauth2.StaticTokenSource(token))}, f.clientOptions...)

	service, err := youtubeapi.NewService(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	response, err := service.Search.List([]string{"snippet"}).
		ForMine(true).
		Type("video").
		Order("date").
		MaxResults(10).
		Context(ctx).
		Do()
	if err != nil {
		return nil, &domain.UpstreamError{
			Platform: domain.PlatformYoutube,
			Message:  err.Error(),
		}
	}

	accountName, _ := req.Metadata[domain.MetadataKeyAccountName].(string)

	items := make([]domain.ActivityItem, 0, len(response.Items))
	for _, result := range response.Items {
		if result.Id == nil || result.Snippet == nil {
			continue
		}

		publishedAt, _ := time.Parse(time.RFC3339, result.Snippet.PublishedAt)

		mediaURL := ""
		if result.Snippet.Thumbnails != nil && result.Snippet.Thumbnails.High != nil {
			mediaURL = result.Snippet.Thumbnails.High.Url
		}

		items = append(items, domain.ActivityItem{
			Platform:    domain.PlatformYoutube,
			ID:          result.Id.VideoId,
			AccountName: accountName,
			Content:     result.Snippet.Title,
			MediaURL:    mediaURL,
			Permalink:   "https://www.youtube.com/watch?v=" + result.Id.VideoId,
			PublishedAt: publishedAt.UTC(),
		})
	}

	return items, nil
}
