package media

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// InvalidURLMessage is shown next to a deck whose reference did not parse.
const InvalidURLMessage = "Invalid YouTube URL"

var ErrInvalidVideoURL = errors.New("invalid video url")

var (
	videoIDPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	embedPathPattern = regexp.MustCompile(`/(embed|shorts)/([A-Za-z0-9_-]{11})`)
)

// ParseVideoID extracts a video id from a bare id or a watch, short-link,
// embed or shorts URL. Blank input returns "" and no error.
func ParseVideoID(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", nil
	}
	if videoIDPattern.MatchString(trimmed) {
		return trimmed, nil
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", ErrInvalidVideoURL
	}
	host := u.Hostname()

	if strings.Contains(host, "youtube.com") && u.Query().Has("v") {
		id := u.Query().Get("v")
		if videoIDPattern.MatchString(id) {
			return id, nil
		}
		return "", ErrInvalidVideoURL
	}

	if host == "youtu.be" {
		id := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)[0]
		if videoIDPattern.MatchString(id) {
			return id, nil
		}
		return "", ErrInvalidVideoURL
	}

	if strings.Contains(host, "youtube.com") {
		if m := embedPathPattern.FindStringSubmatch(u.Path); m != nil {
			return m[2], nil
		}
	}
	return "", ErrInvalidVideoURL
}
