package facebook

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

const defaultGraphBaseURL = "https://graph.facebook.com/v19.0"

// Refresher exchanges the stored user token for a fresh long-lived token.
// Facebook has no refresh-token concept: the current access token itself is
// the exchangeable credential.
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
		return domain.RefreshOutcome{}, domain.NewValidationError("facebook integration has no access token, reconnect the account")
	}

	query := url.Values{
		"grant_type":        {"fb_exchange_token"},
		"client_id":         {req.Client.ClientID},
		"client_secret":     {req.Client.ClientSecret},
		"fb_exchange_token": {accessToken},
	}

	endpoint := r.baseURL + "/oauth/access_token?" + query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.RefreshOutcome{}, fmt.Errorf("failed to build exchange request: %w", err)
	}

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return domain.RefreshOutcome{}, fmt.Errorf("facebook exchange request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.RefreshOutcome{}, fmt.Errorf("failed to read exchange response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return domain.RefreshOutcome{}, &domain.UpstreamError{
			Platform: domain.PlatformFacebook,
			Message:  graphErrorMessage(body, resp.StatusCode),
		}
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &token); err != nil {
		return domain.RefreshOutcome{}, fmt.Errorf("failed to decode exchange response: %w", err)
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

// ActivityFetcher reads the account's recent posts from the Graph API.
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
		"fields":       {"id,message,permalink_url,full_picture,created_time,shares,likes.summary(true),comments.summary(true)"},
		"limit":        {"10"},
		"access_token": {accessToken},
	}

	endpoint := f.baseURL + "/me/posts?" + query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build posts request: %w", err)
	}

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("facebook posts request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read posts response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.UpstreamError{
			Platform: domain.PlatformFacebook,
			Message:  graphErrorMessage(body, resp.StatusCode),
		}
	}

	var payload struct {
		Data []struct {
			ID           string `json:"id"`
			Message      string `json:"message"`
			PermalinkURL string `json:"permalink_url"`
			FullPicture  string `json:"full_picture"`
			CreatedTime  string `json:"created_time"`
			Likes        struct {
				Summary struct {
					TotalCount int `json:"total_count"`
				} `json:"summary"`
			} `json:"likes"`
			Comments struct {
				Summary struct {
					TotalCount int `json:"total_count"`
				} `json:"summary"`
			} `json:"comments"`
			Shares struct {
				Count int `json:"count"`
			} `json:"shares"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode posts response: %w", err)
	}

	accountName, _ := req.Metadata[domain.MetadataKeyAccountName].(string)

	items := make([]domain.ActivityItem, 0, len(payload.Data))
	for _, post := range payload.Data {
		publishedAt, _ := time.Parse("2006-01-02T15:04:05-0700", post.CreatedTime)

		items = append(items, domain.ActivityItem{
			Platform:    domain.PlatformFacebook,
			ID:          post.ID,
			AccountName: accountName,
			Content:     post.Message,
			MediaURL:    post.FullPicture,
			Permalink:   post.PermalinkURL,
			PublishedAt: publishedAt.UTC(),
			Likes:       post.Likes.Summary.TotalCount,
			Comments:    post.Comments.Summary.TotalCount,
			Shares:      post.Shares.Count,
		})
	}

	return items, nil
}
