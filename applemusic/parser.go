package applemusic

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
)

var (
	albumRegex    = regexp.MustCompile(`/album/[^/]+/(\d+)`)
	playlistRegex = regexp.MustCompile(`/playlist/[^/]+/(pl\.[a-zA-Z0-9-]+)`)
	artistRegex   = regexp.MustCompile(`/artist/[^/]+/(\d+)`)
)

func IsAppleMusicURL(rawURL string) bool {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return parsedURL.Host == "music.apple.com" || parsedURL.Host == "itunes.apple.com"
}

// ParseAppleMusicURL extracts the country and the track, album, playlist or artist ID.
func ParseAppleMusicURL(rawURL string) (AppleMusicRequest, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return AppleMusicRequest{}, err
	}

	if !strings.HasSuffix(parsedURL.Host, "apple.com") {
		return AppleMusicRequest{}, errors.New("not an Apple Music URL")
	}

	request := AppleMusicRequest{}

	// /us/album/...
	pathParts := strings.Split(strings.TrimPrefix(parsedURL.Path, "/"), "/")
	if len(pathParts) > 0 {
		request.Country = pathParts[0]
	}

	// album links with ?i= point at a single song on that album
	if trackID := parsedURL.Query().Get("i"); trackID != "" {
		request.TrackID = trackID
		if matches := albumRegex.FindStringSubmatch(parsedURL.Path); len(matches) > 1 {
			request.AlbumID = matches[1]
		}
		return request, nil
	}

	switch {
	case strings.Contains(parsedURL.Path, "/album/"):
		if matches := albumRegex.FindStringSubmatch(parsedURL.Path); len(matches) > 1 {
			request.AlbumID = matches[1]
		}
	case strings.Contains(parsedURL.Path, "/playlist/"):
		if matches := playlistRegex.FindStringSubmatch(parsedURL.Path); len(matches) > 1 {
			request.PlaylistID = matches[1]
		}
	case strings.Contains(parsedURL.Path, "/artist/"):
		if matches := artistRegex.FindStringSubmatch(parsedURL.Path); len(matches) > 1 {
			request.ArtistID = matches[1]
		}
	}

	if request.TrackID == "" && request.AlbumID == "" &&
		request.PlaylistID == "" && request.ArtistID == "" {
		log.Warnf("Could not parse Apple Music URL (no IDs extracted): %s", rawURL)
		return AppleMusicRequest{}, errors.New("could not parse Apple Music URL")
	}

	return request, nil
}
