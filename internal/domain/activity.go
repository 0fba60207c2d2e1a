package domain

import (
	"context"
	"time"
)

// ActivityItem is one normalized entry of a user's recent activity on a
// connected platform.
type ActivityItem struct {
	Platform    PlatformType `json:"platform"`
	ID          string       `json:"id"`
	AccountName string       `json:"account_name,omitempty"`
	Content     string       `json:"content"`
	MediaURL    string       `json:"media_url,omitempty"`
	Permalink   string       `json:"permalink,omitempty"`
	PublishedAt time.Time    `json:"published_at"`
	Likes       int          `json:"likes,omitempty"`
	Comments    int          `json:"comments,omitempty"`
	Shares      int          `json:"shares,omitempty"`
}

// FetchActivityRequest carries the decrypted credentials and non-secret
// metadata of one integration into its platform fetcher.
type FetchActivityRequest struct {
	UserID      string
	Credentials CredentialPayload
	Metadata    map[string]any
}

// ActivityFetcher is the per-platform read-only activity strategy.
type ActivityFetcher interface {
	FetchActivity(ctx context.Context, req FetchActivityRequest) ([]ActivityItem, error)
}
