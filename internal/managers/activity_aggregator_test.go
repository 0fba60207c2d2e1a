package managers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/publora/publora/internal/domain"

	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	items []domain.ActivityItem
	err   error
	delay time.Duration
}

func (s *stubFetcher) FetchActivity(ctx context.Context, req domain.FetchActivityRequest) ([]domain.ActivityItem, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.items, s.err
}

func activityAt(platform domain.PlatformType, offset time.Duration) domain.ActivityItem {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	return domain.ActivityItem{
		Platform:    platform,
		ID:          fmt.Sprintf("%s-%d", platform, offset/time.Minute),
		Content:     "post",
		PublishedAt: base.Add(offset),
	}
}

func connect(t *testing.T, repo *fakeRepository, platform domain.PlatformType) {
	t.Helper()

	require.NoError(t, repo.Create(context.Background(), &domain.PlatformIntegration{
		UserID:      "user-1",
		Platform:    platform,
		Credentials: map[string]any{"access_token": "abc"},
	}))
}

func TestActivityAggregator_MergesNewestFirst(t *testing.T) {
	repo := newFakeRepository()
	connect(t, repo, domain.PlatformLinkedIn)
	connect(t, repo, domain.PlatformTwitter)

	aggregator := NewActivityAggregator(ActivityAggregatorDependencies{
		Store: testStore(t, repo),
		Fetchers: map[domain.PlatformType]domain.ActivityFetcher{
			domain.PlatformLinkedIn: &stubFetcher{items: []domain.ActivityItem{
				activityAt(domain.PlatformLinkedIn, 10*time.Minute),
				activityAt(domain.PlatformLinkedIn, 30*time.Minute),
			}},
			domain.PlatformTwitter: &stubFetcher{items: []domain.ActivityItem{
				activityAt(domain.PlatformTwitter, 20*time.Minute),
			}},
		},
	})

	items, err := aggregator.Fetch(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, items, 3)

	require.Equal(t, domain.PlatformLinkedIn, items[0].Platform)
	require.Equal(t, domain.PlatformTwitter, items[1].Platform)
	for i := 1; i < len(items); i++ {
		require.False(t, items[i].PublishedAt.After(items[i-1].PublishedAt))
	}
}

func TestActivityAggregator_CapsAtTenItems(t *testing.T) {
	repo := newFakeRepository()
	connect(t, repo, domain.PlatformLinkedIn)

	var many []domain.ActivityItem
	for i := 0; i < 25; i++ {
		many = append(many, activityAt(domain.PlatformLinkedIn, time.Duration(i)*time.Minute))
	}

	aggregator := NewActivityAggregator(ActivityAggregatorDependencies{
		Store: testStore(t, repo),
		Fetchers: map[domain.PlatformType]domain.ActivityFetcher{
			domain.PlatformLinkedIn: &stubFetcher{items: many},
		},
	})

	items, err := aggregator.Fetch(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, items, maxActivityItems)

	// The cap keeps the newest items, not an arbitrary prefix.
	require.Equal(t, "linkedin-24", items[0].ID)
}

func TestActivityAggregator_IsolatesFailures(t *testing.T) {
	repo := newFakeRepository()
	connect(t, repo, domain.PlatformLinkedIn)
	connect(t, repo, domain.PlatformFacebook)

	aggregator := NewActivityAggregator(ActivityAggregatorDependencies{
		Store: testStore(t, repo),
		Fetchers: map[domain.PlatformType]domain.ActivityFetcher{
			domain.PlatformLinkedIn: &stubFetcher{items: []domain.ActivityItem{
				activityAt(domain.PlatformLinkedIn, time.Minute),
			}},
			domain.PlatformFacebook: &stubFetcher{err: &domain.UpstreamError{
				Platform: domain.PlatformFacebook,
				Message:  "rate limited",
			}},
		},
	})

	items, err := aggregator.Fetch(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, domain.PlatformLinkedIn, items[0].Platform)
}

func TestActivityAggregator_SkipsPlatformsWithoutFetcher(t *testing.T) {
	repo := newFakeRepository()
	connect(t, repo, domain.PlatformOpenAI)
	connect(t, repo, domain.PlatformTwitter)

	aggregator := NewActivityAggregator(ActivityAggregatorDependencies{
		Store: testStore(t, repo),
		Fetchers: map[domain.PlatformType]domain.ActivityFetcher{
			domain.PlatformTwitter: &stubFetcher{items: []domain.ActivityItem{
				activityAt(domain.PlatformTwitter, time.Minute),
			}},
		},
	})

	items, err := aggregator.Fetch(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestActivityAggregator_NoIntegrations(t *testing.T) {
	aggregator := NewActivityAggregator(ActivityAggregatorDependencies{
		Store:    testStore(t, newFakeRepository()),
		Fetchers: map[domain.PlatformType]domain.ActivityFetcher{},
	})

	items, err := aggregator.Fetch(context.Background(), "user-1")
	require.NoError(t, err)
	require.Empty(t, items)
}
