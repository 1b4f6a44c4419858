package gamefaqs

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the site root used when none is configured
	DefaultBaseURL = "https://gamefaqs.gamespot.com"

	// ProfilePath is the path pattern of a contributor page, relative to the base URL
	ProfilePath = "/community/%s/contributions"

	// MapsSuffix is appended to the contributor page to reach its maps listing
	MapsSuffix = "/maps"
)

// ProfileURL returns the contributor page of username
func ProfileURL(baseURL, username string) string {
	return strings.TrimRight(baseURL, "/") + fmt.Sprintf(ProfilePath, url.PathEscape(username))
}

// MapsURL returns the maps and charts listing of username
func MapsURL(baseURL, username string) string {
	return ProfileURL(baseURL, username) + MapsSuffix
}
