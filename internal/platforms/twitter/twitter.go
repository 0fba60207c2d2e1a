package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/publora/publora/internal/domain"
)

const (
	defaultTokenEndpoint = "https://api.twitter.com/2/oauth2/token"
	defaultAPIBaseURL    = "https://api.twitter.com/2"
)

// Refresher exchanges an X/Twitter OAuth2 refresh token. Twitter rotates the
// refresh token on every exchange, so the outcome always carries the
// replacement.
type Refresher struct {
	httpClient    *http.Client
	tokenEndpoint string
}

func NewRefresher() *Refresher {
	return &Refresher{
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		tokenEndpoint: defaultTokenEndpoint,
	}
}

func (r *Refresher) Refresh(ctx context.Context, req domain.RefreshRequest) (domain.RefreshOutcome, error) {
	refreshToken := req.Credentials.RefreshToken()
	if refreshToken == "" {
		return domain.RefreshOutcome{}, domain.NewValidationError("twitter integration has no refresh token, reconnect the account")
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.RefreshOutcome{}, fmt.Errorf("failed to build token request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(req.Client.ClientID, req.Client.ClientSecret)

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return domain.RefreshOutcome{}, fmt.Errorf("twitter token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.RefreshOutcome{}, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return domain.RefreshOutcome{}, &domain.UpstreamError{
			Platform: domain.PlatformTwitter,
			Message:  apiErrorMessage(body, resp.StatusCode),
		}
	}

	var token struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &token); err != nil {
		return domain.RefreshOutcome{}, fmt.Errorf("failed to decode token response: %w", err)
	}

	return domain.RefreshOutcome{
		AccessToken:         token.AccessToken,
		AccessTokenLifetime: time.Duration(token.ExpiresIn) * time.Second,
		RotatedRefreshToken: token.RefreshToken,
	}, nil
}

func apiErrorMessage(body []byte, statusCode int) string {
	var payload struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Detail           string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.ErrorDescription != "":
			return payload.ErrorDescription
		case payload.Detail != "":
			return payload.Detail
		case payload.Error != "":
			return payload.Error
		}
	}

	return fmt.Sprintf("twitter api returned status %d", statusCode)
}

// ActivityFetcher reads the account's recent tweets.
type ActivityFetcher struct {
	httpClient *http.Client
	baseURL    string
}

func NewActivityFetcher() *ActivityFetcher {
	return &ActivityFetcher{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultAPIBaseURL,
	}
}

func (f *ActivityFetcher) FetchActivity(ctx context.Context, req domain.FetchActivityRequest) ([]domain.ActivityItem, error) {
	accessToken := req.Credentials.AccessToken()
	if accessToken == "" {
		return nil, domain.ErrNoCredentials
	}

	me, err := f.getJSON(ctx, accessToken, f.baseURL+"/users/me?user.fields=username")
	if err != nil {
		return nil, err
	}

	var user struct {
		Data struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"data"`
	}
	if err := json.Unmarshal(me, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}

	endpoint := fmt.Sprintf("%s/users/%s/tweets?max_results=10&tweet.fields=created_at,public_metrics", f.baseURL, user.Data.ID)

	tweetsBody, err := f.getJSON(ctx, accessToken, endpoint)
	if err != nil {
		return nil, err
	}

	var tweets struct {
		Data []struct {
			ID            string `json:"id"`
			Text          string `json:"text"`
			CreatedAt     string `json:"created_at"`
			PublicMetrics struct {
				LikeCount    int `json:"like_count"`
				ReplyCount   int `json:"reply_count"`
				RetweetCount int `json:"retweet_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	if err := json.Unmarshal(tweetsBody, &tweets); err != nil {
		return nil, fmt.Errorf("failed to decode tweets response: %w", err)
	}

	items := make([]domain.ActivityItem, 0, len(tweets.Data))
	for _, tweet := range tweets.Data {
		publishedAt, _ := time.Parse(time.RFC3339, tweet.CreatedAt)

		items = append(items, domain.ActivityItem{
			Platform:    domain.PlatformTwitter,
			ID:          tweet.ID,
			AccountName: user.Data.Username,
			Content:     tweet.Text,
			Permalink:   fmt.Sprintf("https://x.com/%s/status/%s", user.Data.Username, tweet.ID),
			PublishedAt: publishedAt.UTC(),
			Likes:       tweet.PublicMetrics.LikeCount,
			Comments:    tweet.PublicMetrics.ReplyCount,
			Shares:      tweet.PublicMetrics.RetweetCount,
		})
	}

	return items, nil
}

func (f *ActivityFetcher) getJSON(ctx context.Context, accessToken, endpoint string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("twitter request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.UpstreamError{
			Platform: domain.PlatformTwitter,
			Message:  apiErrorMessage(body, resp.StatusCode),
		}
	}

	return body, nil
}
