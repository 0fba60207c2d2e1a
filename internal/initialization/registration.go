package initialization

import (
	"github.com/publora/publora/internal/domain"
	"github.com/publora/publora/internal/platforms/facebook"
	"github.com/publora/publora/internal/platforms/instagram"
	"github.com/publora/publora/internal/platforms/linkedin"
	"github.com/publora/publora/internal/platforms/openai"
	"github.com/publora/publora/internal/platforms/twitter"
	"github.com/publora/publora/internal/platforms/youtube"
)

// RegisterRefreshers builds the closed dispatch table of per-platform token
// refresh strategies. Platforms outside this table reject refresh requests
// at the boundary.
func RegisterRefreshers() map[domain.PlatformType]domain.TokenRefresher {
	return map[domain.PlatformType]domain.TokenRefresher{
		domain.PlatformLinkedIn:  linkedin.NewRefresher(),
		domain.PlatformFacebook:  facebook.NewRefresher(),
		domain.PlatformInstagram: instagram.NewRefresher(),
		domain.PlatformYoutube:   youtube.NewRefresher(),
		domain.PlatformTwitter:   twitter.NewRefresher(),
		domain.PlatformOpenAI:    openai.NewKeyValidator(),
	}
}

// RegisterActivityFetchers builds the activity dispatch table. The OpenAI
// integration has no activity feed and is deliberately absent.
func RegisterActivityFetchers() map[domain.PlatformType]domain.ActivityFetcher {
	return map[domain.PlatformType]domain.ActivityFetcher{
		domain.PlatformLinkedIn:  linkedin.NewActivityFetcher(),
		domain.PlatformFacebook:  facebook.NewActivityFetcher(),
		domain.PlatformInstagram: instagram.NewActivityFetcher(),
		domain.PlatformYoutube:   youtube.NewActivityFetcher(),
		domain.PlatformTwitter:   twitter.NewActivityFetcher(),
	}
}

// OAuthClients maps the configured fallback client pairs per platform.
func OAuthClients(config *Config) map[domain.PlatformType]domain.OAuthClientConfig {
	return map[domain.PlatformType]domain.OAuthClientConfig{
		domain.PlatformLinkedIn:  {ClientID: config.LinkedInClientID, ClientSecret: config.LinkedInClientSecret},
		domain.PlatformFacebook:  {ClientID: config.FacebookClientID, ClientSecret: config.FacebookClientSecret},
		domain.PlatformInstagram: {ClientID: config.InstagramClientID, ClientSecret: config.InstagramClientSecret},
		domain.PlatformYoutube:   {ClientID: config.YoutubeClientID, ClientSecret: config.YoutubeClientSecret},
		domain.PlatformTwitter:   {ClientID: config.TwitterClientID, ClientSecret: config.TwitterClientSecret},
	}
}
