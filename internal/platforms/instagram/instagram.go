package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/publora/publora/internal/domain"
)

const defaultGraphBaseURL = "https://graph.instagram.com"

// Refresher extends an Instagram long-lived token. The token refreshes
// itself: the endpoint takes the current token and returns the extended one,
// no client secret involved.
type Refresher struct {
	httpClient *http.Client
	baseURL    string
}

func NewRefresher() *Refresher {
	return &Refresher{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultGraphBaseURL,
	}
}

func (r *Refresher) Refresh(ctx context.Context, req domain.RefreshRequest) (domain.RefreshOutcome, error) {
	accessToken := req.Credentials.AccessToken()
	if accessToken == "" {
		return domain.RefreshOutcome{}, domain.NewValidationError("instagram integration has no access token, reconnect the account")
	}

	query := url.Values{
		"grant_type":   {"ig_refresh_token"},
		"access_token": {accessToken},
	}

	endpoint := r.baseURL + "/refresh_access_token?" + query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.RefreshOutcome{}, fmt.Errorf("failed to build refresh request: %w", err)
	}

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return domain.RefreshOutcome{}, fmt.Errorf("instagram refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.RefreshOutcome{}, fmt.Errorf("failed to read refresh response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return domain.RefreshOutcome{}, &domain.UpstreamError{
			Platform: domain.PlatformInstagram,
			Message:  graphErrorMessage(body, resp.StatusCode),
		}
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &token); err != nil {
		return domain.RefreshOutcome{}, fmt.Errorf("failed to decode refresh response: %w", err)
	}

	return domain.RefreshOutcome{
		AccessToken:         token.AccessToken,
		AccessTokenLifetime: time.Duration(token.ExpiresIn) * time.Second,
	}, nil
}

func graphErrorMessage(body []byte, statusCode int) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}

	return fmt.Sprintf("graph api returned status %d", statusCode)
}

// ActivityFetcher reads the account's recent media.
type ActivityFetcher struct {
	httpClient *http.Client
	baseURL    string
}

func NewActivityFetcher() *ActivityFetcher {
	return &ActivityFetcher{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultGraphBaseURL,
	}
}

func (f *ActivityFetcher) FetchActivity(ctx context.Context, req domain.FetchActivityRequest) ([]domain.ActivityItem, error) {
	accessToken := req.Credentials.AccessToken()
	if accessToken == "" {
		return nil, domain.ErrNoCredentials
	}

	query := url.Values{
		"fields":       {"id,caption,media_url,permalink,timestamp,like_count,comments_count"},
		"limit":        {"10"},
		"access_token": {accessToken},
	}

	endpoint := f.baseURL + "/me/media?" + query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build media request: %w", err)
	}

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("instagram media request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read media response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.UpstreamError{
			Platform: domain.PlatformInstagram,
			Message:  graphErrorMessage(body, resp.StatusCode),
		}
	}

	var payload struct {
		Data []struct {
			ID            string `json:"id"`
			Caption       string `json:"caption"`
			MediaURL      string `json:"media_url"`
			Permalink     string `json:"permalink"`
			Timestamp     string `json:"timestamp"`
			LikeCount     int    `json:"like_count"`
			CommentsCount int    `json:"comments_count"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode media response: %w", err)
	}

	accountName, _ := req.Metadata[domain.MetadataKeyAccountName].(string)

	items := make([]domain.ActivityItem, 0, len(payload.Data))
	for _, media := range payload.Data {
		publishedAt, _ := time.Parse("2006-01-02T15:04:05-0700", media.Timestamp)

		items = append(items, domain.ActivityItem{
			Platform:    domain.PlatformInstagram,
			ID:          media.ID,
			AccountName: accountName,
			Content:     media.Caption,
			MediaURL:    media.MediaURL,
			Permalink:   media.Permalink,
			PublishedAt: publishedAt.UTC(),
			Likes:       media.LikeCount,
			Comments:    media.CommentsCount,
		})
	}

	return items, nil
}
