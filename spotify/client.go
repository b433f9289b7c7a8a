package spotify

import (
	"context"
	"errors"
	"strings"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	spotifyclient "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

type SpotifyRequest struct {
	TrackID    string
	PlaylistID string
	AlbumID    string
	ArtistID   string
}

type TrackInfo struct {
	Title   string
	Artists []string
}

// Query is the search text used to find this track on the audio node.
func (t TrackInfo) Query() string {
	if len(t.Artists) == 0 {
		return t.Title
	}
	return strings.Join(t.Artists, ", ") + " - " + t.Title
}

type CollectionResult struct {
	Name   string
	Tracks []TrackInfo
}

type Client struct {
	api *spotifyclient.Client
}

func NewClient(ctx context.Context, clientID, clientSecret string) (*Client, error) {
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := config.Token(ctx)
	if err != nil {
		sentry.CaptureException(err)
		return nil, err
	}

	httpClient := spotifyauth.New().Client(ctx, token)
	return &Client{api: spotifyclient.New(httpClient)}, nil
}

func artistNames(artists []spotifyclient.SimpleArtist) []string {
	names := make([]string, 0, len(artists))
	for _, artist := range artists {
		names = append(names, artist.Name)
	}
	return names
}

func (c *Client) GetTrack(ctx context.Context, trackID string) (*TrackInfo, error) {
	span := sentry.StartSpan(ctx, "spotify.get_track")
	span.SetTag("track_id", trackID)
	defer span.Finish()

	track, err := c.api.GetTrack(ctx, spotifyclient.ID(trackID))
	if err != nil {
		log.Errorf("Failed to fetch Spotify track %s: %v", trackID, err)
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}

	span.Status = sentry.SpanStatusOK
	return &TrackInfo{
		Title:   track.Name,
		Artists: artistNames(track.Artists),
	}, nil
}

func (c *Client) GetPlaylistTracks(ctx context.Context, playlistID string, limit int) (*CollectionResult, error) {
	span := sentry.StartSpan(ctx, "spotify.get_playlist_tracks")
	span.SetTag("playlist_id", playlistID)
	defer span.Finish()

	playlist, err := c.api.GetPlaylist(ctx, spotifyclient.ID(playlistID))
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, describeError(err, "playlist")
	}

	items, err := c.api.GetPlaylistItems(ctx, spotifyclient.ID(playlistID), spotifyclient.Limit(limit))
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}

	result := &CollectionResult{Name: playlist.Name}
	for _, item := range items.Items {
		// podcasts and episodes have no Track
		if item.Track.Track == nil {
			continue
		}
		result.Tracks = append(result.Tracks, TrackInfo{
			Title:   item.Track.Track.Name,
			Artists: artistNames(item.Track.Track.Artists),
		})
	}

	if len(result.Tracks) == 0 {
		span.Status = sentry.SpanStatusNotFound
		return nil, errors.New("playlist contains no playable tracks")
	}

	span.Status = sentry.SpanStatusOK
	span.SetData("tracks_count", len(result.Tracks))
	return result, nil
}

func (c *Client) GetAlbumTracks(ctx context.Context, albumID string, limit int) (*CollectionResult, error) {
	span := sentry.StartSpan(ctx, "spotify.get_album_tracks")
	span.SetTag("album_id", albumID)
	defer span.Finish()

	album, err := c.api.GetAlbum(ctx, spotifyclient.ID(albumID))
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, describeError(err, "album")
	}

	result := &CollectionResult{Name: album.Name}
	for i, track := range album.Tracks.Tracks {
		if i >= limit {
			break
		}
		result.Tracks = append(result.Tracks, TrackInfo{
			Title:   track.Name,
			Artists: artistNames(track.Artists),
		})
	}

	span.Status = sentry.SpanStatusOK
	return result, nil
}

func (c *Client) GetArtistTopTracks(ctx context.Context, artistID string, limit int) (*CollectionResult, error) {
	span := sentry.StartSpan(ctx, "spotify.get_artist_top_tracks")
	span.SetTag("artist_id", artistID)
	defer span.Finish()

	artist, err := c.api.GetArtist(ctx, spotifyclient.ID(artistID))
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, describeError(err, "artist")
	}

	tracks, err := c.api.GetArtistsTopTracks(ctx, spotifyclient.ID(artistID), "US")
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}

	result := &CollectionResult{Name: artist.Name + " top tracks"}
	for i, track := range tracks {
		if i >= limit {
			break
		}
		result.Tracks = append(result.Tracks, TrackInfo{
			Title:   track.Name,
			Artists: artistNames(track.Artists),
		})
	}

	span.Status = sentry.SpanStatusOK
	return result, nil
}

// describeError turns the client's stringly typed HTTP errors into something a user can read.
func describeError(err error, kind string) error {
	errStr := err.Error()
	if strings.Contains(errStr, "404") || strings.Contains(errStr, "Not Found") {
		return errors.New(kind + " not found")
	}
	if strings.Contains(errStr, "403") || strings.Contains(errStr, "Forbidden") {
		return errors.New(kind + " is private or not accessible")
	}
	return err
}

func IsSpotifyURL(url string) bool {
	return strings.HasPrefix(url, "https://open.spotify.com/")
}

func ParseSpotifyURL(url string) (SpotifyRequest, error) {
	if !IsSpotifyURL(url) {
		return SpotifyRequest{}, errors.New("invalid Spotify URL")
	}

	parts := strings.Split(strings.TrimPrefix(url, "https://open.spotify.com/"), "/")
	// localized links look like open.spotify.com/intl-de/track/<id>
	if len(parts) > 0 && strings.HasPrefix(parts[0], "intl-") {
		parts = parts[1:]
	}
	if len(parts) < 2 {
		return SpotifyRequest{}, errors.New("invalid Spotify URL")
	}

	request := SpotifyRequest{}
	id := strings.Split(parts[1], "?")[0]

	switch parts[0] {
	case "playlist":
		request.PlaylistID = id
	case "album":
		request.AlbumID = id
	case "artist":
		request.ArtistID = id
	case "track":
		request.TrackID = id
	}

	return request, nil
}
