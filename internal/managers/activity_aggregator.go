package managers

import (
	"context"
	"sort"
	"sync"

	"github.com/publora/publora/internal/domain"

	"github.com/rs/zerolog/log"
)

const maxActivityItems = 10

// ActivityAggregator fans out to every connected platform's recent-activity
// endpoint for a user and merges the results. Read-only: it never mutates
// stored credentials.
type ActivityAggregator struct {
	store    *CredentialStore
	fetchers map[domain.PlatformType]domain.ActivityFetcher
}

type ActivityAggregatorDependencies struct {
	Store    *CredentialStore
	Fetchers map[domain.PlatformType]domain.ActivityFetcher
}

func NewActivityAggregator(deps ActivityAggregatorDependencies) *ActivityAggregator {
	return &ActivityAggregator{
		store:    deps.Store,
		fetchers: deps.Fetchers,
	}
}

// Fetch returns the user's most recent activity across all active
// integrations, newest first, capped at ten items. Platform fetches run
// concurrently and failures are isolated: one platform's error or slowness
// never cancels the others.
func (a *ActivityAggregator) Fetch(ctx context.Context, userID string) ([]domain.ActivityItem, error) {
	platforms, err := a.connectedPlatforms(ctx, userID)
	if err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		items []domain.ActivityItem
		wg    sync.WaitGroup
	)

	for _, platform := range platforms {
		fetcher, ok := a.fetchers[platform]
		if !ok {
			continue
		}

		wg.Add(1)
		go func(platform domain.PlatformType, fetcher domain.ActivityFetcher) {
			defer wg.Done()

			fetched, err := a.fetchPlatform(ctx, userID, platform, fetcher)
			if err != nil {
				log.Warn().
					Err(err).
					Str("platform", string(platform)).
					Msg("Skipping platform that failed to return activity")
				return
			}

			mu.Lock()
			items = append(items, fetched...)
			mu.Unlock()
		}(platform, fetcher)
	}

	wg.Wait()

	sort.Slice(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})

	if len(items) > maxActivityItems {
		items = items[:maxActivityItems]
	}

	return items, nil
}

func (a *ActivityAggregator) connectedPlatforms(ctx context.Context, userID string) ([]domain.PlatformType, error) {
	integrations, err := a.store.repository.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	platforms := make([]domain.PlatformType, 0, len(integrations))
	for _, integration := range integrations {
		platforms = append(platforms, integration.Platform)
	}

	return platforms, nil
}

func (a *ActivityAggregator) fetchPlatform(ctx context.Context, userID string, platform domain.PlatformType, fetcher domain.ActivityFetcher) ([]domain.ActivityItem, error) {
	payload, handle, err := a.store.FetchDecrypted(ctx, userID, platform)
	if err != nil {
		return nil, err
	}

	return fetcher.FetchActivity(ctx, domain.FetchActivityRequest{
		UserID:      userID,
		Credentials: payload,
		Metadata:    handle.Metadata,
	})
}
