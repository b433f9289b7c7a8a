package applemusic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://music.apple.com"

// Client scrapes public Apple Music pages; there is no API key involved.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) GetTrack(ctx context.Context, country, albumID, trackID string) (*TrackInfo, error) {
	span := sentry.StartSpan(ctx, "applemusic.get_track")
	span.Description = "Get track from Apple Music via web scraping"
	span.SetTag("track_id", trackID)
	defer span.Finish()

	if country == "" {
		country = "us"
	}
	if albumID == "" || trackID == "" {
		span.Status = sentry.SpanStatusInvalidArgument
		return nil, errors.New("albumID and trackID are required")
	}

	doc, err := c.fetchDocument(ctx, fmt.Sprintf("/%s/album/%s?i=%s", country, albumID, trackID))
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}

	track, err := extractTrackFromJSONLD(doc)
	if err != nil {
		log.Debugf("JSON-LD extraction failed (%v), trying Open Graph fallback", err)
		track, err = extractFromOpenGraph(doc)
		if err != nil {
			span.Status = sentry.SpanStatusInternalError
			return nil, fmt.Errorf("failed to extract metadata: %w", err)
		}
	}

	span.Status = sentry.SpanStatusOK
	return track, nil
}

func (c *Client) GetAlbumTracks(ctx context.Context, country, albumID string, limit int) (*CollectionResult, error) {
	return c.getCollection(ctx, "applemusic.get_album_tracks", fmt.Sprintf("/%s/album/x/%s", countryOrDefault(country), albumID), "MusicAlbum", limit)
}

func (c *Client) GetPlaylistTracks(ctx context.Context, country, playlistID string, limit int) (*CollectionResult, error) {
	return c.getCollection(ctx, "applemusic.get_playlist_tracks", fmt.Sprintf("/%s/playlist/x/%s", countryOrDefault(country), playlistID), "MusicPlaylist", limit)
}

func (c *Client) getCollection(ctx context.Context, op, path, kind string, limit int) (*CollectionResult, error) {
	span := sentry.StartSpan(ctx, op)
	span.SetTag("path", path)
	defer span.Finish()

	doc, err := c.fetchDocument(ctx, path)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}

	result, err := extractCollectionFromJSONLD(doc, kind, limit)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}
	if len(result.Tracks) == 0 {
		span.Status = sentry.SpanStatusNotFound
		return nil, errors.New("collection has no playable tracks")
	}

	log.Debugf("Fetched Apple Music %s '%s' (%d tracks)", kind, result.Name, len(result.Tracks))
	span.Status = sentry.SpanStatusOK
	span.SetData("tracks_count", len(result.Tracks))
	return result, nil
}

func countryOrDefault(country string) string {
	if country == "" {
		return "us"
	}
	return country
}
