package entity

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	bareShortcode = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	postURL       = regexp.MustCompile(`instagram\.com/(?:p|reel|tv)/([a-zA-Z0-9_-]+)`)
)

// EmbedPost describes an Instagram post shown in place of an uploaded video.
type EmbedPost struct {
	Shortcode string
	Permalink string
}

// ParseInstagram accepts a bare 11 character shortcode or a post, reel or tv
// URL and returns the canonical embed descriptor.
func ParseInstagram(input string) (*EmbedPost, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, false
	}

	code := ""
	if bareShortcode.MatchString(input) {
		code = input
	} else if m := postURL.FindStringSubmatch(input); m != nil {
		code = m[1]
	}
	if code == "" {
		return nil, false
	}

	return &EmbedPost{Shortcode: code, Permalink: InstagramPermalink(code)}, true
}

func InstagramPermalink(shortcode string) string {
	return fmt.Sprintf("https://www.instagram.com/p/%s/", shortcode)
}
