package domain

import (
	"fmt"
	"strings"
)

// PlatformType is the closed set of platforms the vault manages. Unknown
// names are rejected at the boundary instead of silently no-op-ing.
type PlatformType string

const (
	PlatformLinkedIn  PlatformType = "linkedin"
	PlatformFacebook  PlatformType = "facebook"
	PlatformInstagram PlatformType = "instagram"
	PlatformYoutube   PlatformType = "youtube"
	PlatformTwitter   PlatformType = "twitter"
	PlatformOpenAI    PlatformType = "openai"
)

var knownPlatforms = map[PlatformType]struct{}{
	PlatformLinkedIn:  {},
	PlatformFacebook:  {},
	PlatformInstagram: {},
	PlatformYoutube:   {},
	PlatformTwitter:   {},
	PlatformOpenAI:    {},
}

func ParsePlatform(name string) (PlatformType, error) {
	platform := PlatformType(strings.ToLower(strings.TrimSpace(name)))

	if _, ok := knownPlatforms[platform]; !ok {
		return "", NewValidationError(fmt.Sprintf("unknown platform %q", name))
	}

	return platform, nil
}
