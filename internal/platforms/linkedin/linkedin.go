package linkedin

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
	defaultTokenEndpoint = "https://www.linkedin.com/oauth/v2/accessToken"
	defaultPostsEndpoint = "https://api.linkedin.com/v2/ugcPosts"
)

// Refresher exchanges a LinkedIn refresh token for a new access token.
// LinkedIn may rotate the refresh token on programmatic refresh.
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
		return domain.RefreshOutcome{}, domain.NewValidationError("linkedin integration has no refresh token, reconnect the account")
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {req.Client.ClientID},
		"client_secret": {req.Client.ClientSecret},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.RefreshOutcome{}, fmt.Errorf("failed to build token request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return domain.RefreshOutcome{}, fmt.Errorf("linkedin token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.RefreshOutcome{}, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return domain.RefreshOutcome{}, &domain.UpstreamError{
			Platform: domain.PlatformLinkedIn,
			Message:  upstreamMessage(body, resp.StatusCode),
		}
	}

	var token struct {
		AccessToken           string `json:"access_token"`
		ExpiresIn             int64  `json:"expires_in"`
		RefreshToken          string `json:"refresh_token"`
		RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
	}
	if err := json.Unmarshal(body, &token); err != nil {
		return domain.RefreshOutcome{}, fmt.Errorf("failed to decode token response: %w", err)
	}

	outcome := domain.RefreshOutcome{
		AccessToken:         token.AccessToken,
		AccessTokenLifetime: time.Duration(token.ExpiresIn) * time.Second,
	}

	if token.RefreshToken != "" && token.RefreshToken != refreshToken {
		outcome.RotatedRefreshToken = token.RefreshToken
		outcome.RefreshTokenLifetime = time.Duration(token.RefreshTokenExpiresIn) * time.Second
	}

	return outcome, nil
}

func upstreamMessage(body []byte, statusCode int) string {
	var payload struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.ErrorDescription != "" {
		return payload.ErrorDescription
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}

	return fmt.Sprintf("token endpoint returned status %d", statusCode)
}

// ActivityFetcher reads the account's recent UGC posts.
type ActivityFetcher struct {
	httpClient    *http.Client
	postsEndpoint string
}

func NewActivityFetcher() *ActivityFetcher {
	return &ActivityFetcher{
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		postsEndpoint: defaultPostsEndpoint,
	}
}

func (f *ActivityFetcher) FetchActivity(ctx context.Context, req domain.FetchActivityRequest) ([]domain.ActivityItem, error) {
	accessToken := req.Credentials.AccessToken()
	if accessToken == "" {
		return nil, domain.ErrNoCredentials
	}

	authorURN, _ := req.Metadata["author_urn"].(string)
	if authorURN == "" {
		return nil, domain.NewValidationError("linkedin integration has no author urn in metadata")
	}

	endpoint := fmt.Sprintf("%s?q=authors&authors=List(%s)&count=10", f.postsEndpoint, url.QueryEscape(authorURN))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build posts request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("linkedin posts request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read posts response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.UpstreamError{
			Platform: domain.PlatformLinkedIn,
			Message:  upstreamMessage(body, resp.StatusCode),
		}
	}

	var payload struct {
		Elements []struct {
			ID             string `json:"id"`
			FirstPublished int64  `json:"firstPublishedAt"`
			SpecificContent struct {
				ShareContent struct {
					ShareCommentary struct {
						Text string `json:"text"`
					} `json:"shareCommentary"`
				} `json:"com.linkedin.ugc.ShareContent"`
			} `json:"specificContent"`
		} `json:"elements"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode posts response: %w", err)
	}

	accountName, _ := req.Metadata[domain.MetadataKeyAccountName].(string)

	items := make([]domain.ActivityItem, 0, len(payload.Elements))
	for _, element := range payload.Elements {
		items = append(items, domain.ActivityItem{
			Platform:    domain.PlatformLinkedIn,
			ID:          element.ID,
			AccountName: accountName,
			Content:     element.SpecificContent.ShareContent.ShareCommentary.Text,
			Permalink:   "https://www.linkedin.com/feed/update/" + element.ID,
			PublishedAt: time.UnixMilli(element.FirstPublished).UTC(),
		})
	}

	return items, nil
}
