// Package platform knows which external platforms take part in stats sync
// and how to pick their links out of an item.
package platform

import (
	"regexp"
	"strings"

	"EngagementSync/internal/domain"
)

const (
	TikTok    = "tiktok"
	Instagram = "instagram"
	Other     = "other"
)

// Supported lists the platforms whose links are synchronized, in request order.
var Supported = []string{TikTok, Instagram}

var patterns = map[string][]*regexp.Regexp{
	TikTok: {
		regexp.MustCompile(`tiktok\.com/@[\w.-]+/video/\d+`),
		regexp.MustCompile(`vm\.tiktok\.com/\w+`),
		regexp.MustCompile(`tiktok\.com/t/\w+`),
	},
	Instagram: {
		regexp.MustCompile(`instagram\.com/p/[\w-]+`),
		regexp.MustCompile(`instagram\.com/reels?/[\w-]+`),
		regexp.MustCompile(`instagram\.com/tv/[\w-]+`),
	},
}

// SelectLinks returns the trimmed, non-blank links of the supported platforms
// in Supported order. Every other key is ignored.
func SelectLinks(links domain.Links) []string {
	selected := make([]string, 0, len(Supported))
	for _, key := range Supported {
		if url := strings.TrimSpace(links[key]); url != "" {
			selected = append(selected, url)
		}
	}
	return selected
}

// Eligible reports whether an item takes part in a sync cycle.
func Eligible(item domain.Item) bool {
	return item.Status == domain.StatusPublished && len(SelectLinks(item.Links)) > 0
}

// Detect returns the supported platform a URL belongs to, or "" when none match.
func Detect(url string) string {
	for _, key := range Supported {
		for _, re := range patterns[key] {
			if re.MatchString(url) {
				return key
			}
		}
	}
	return ""
}
