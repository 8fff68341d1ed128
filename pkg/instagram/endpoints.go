package instagram

import (
	"fmt"
	"net/url"
)

const (
	// BaseURL is the base URL for Instagram
	BaseURL = "https://www.instagram.com"

	// ProfileEndpoint is the endpoint for profile metadata by username
	ProfileEndpoint = "/api/v1/users/web_profile_info/"

	// FeedEndpoint is the endpoint pattern for a user's feed by ID
	FeedEndpoint = "/api/v1/feed/user/%s/"

	// CurrentUserEndpoint answers only for authenticated sessions and is
	// used as a lightweight session check
	CurrentUserEndpoint = "/api/v1/accounts/current_user/"
)

// ProfileURL constructs the URL for fetching a user's profile metadata
func ProfileURL(base, username string) string {
	params := url.Values{}
	params.Set("username", username)

	return fmt.Sprintf("%s%s?%s", base, ProfileEndpoint, params.Encode())
}

// FeedURL constructs the URL for fetching a user's feed by profile ID
func FeedURL(base, userID string, count int) string {
	params := url.Values{}
	params.Set("count", fmt.Sprintf("%d", count))

	return fmt.Sprintf("%s%s?%s", base, fmt.Sprintf(FeedEndpoint, userID), params.Encode())
}

// CurrentUserURL constructs the URL for the session validation endpoint
func CurrentUserURL(base string) string {
	return base + CurrentUserEndpoint
}

// PostPermalink constructs the public URL for a post. Permalinks always
// point at the real site, regardless of any API base override.
func PostPermalink(shortcode string) string {
	if shortcode == "" {
		return ""
	}
	return fmt.Sprintf("%s/p/%s/", BaseURL, shortcode)
}

// IsValidUsername checks if a username is valid according to Instagram rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}

	// Instagram usernames can only contain letters, numbers, periods, and underscores
	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}

	return true
}

// IsValidShortcode checks if a post shortcode is non-empty and safe to use
// as a cache file name
func IsValidShortcode(shortcode string) bool {
	if shortcode == "" || len(shortcode) > 64 {
		return false
	}

	for _, char := range shortcode {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '-' || char == '_') {
			return false
		}
	}

	return true
}

// SanitizeUsername removes any invalid characters from a username
func SanitizeUsername(username string) string {
	if username == "" {
		return ""
	}

	// Remove @ symbol if present at the beginning
	if username[0] == '@' {
		username = username[1:]
	}

	// Remove any trailing slashes or spaces
	for len(username) > 0 && (username[len(username)-1] == '/' || username[len(username)-1] == ' ') {
		username = username[:len(username)-1]
	}

	return username
}
