package audio

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"wavebot/applemusic"
	"wavebot/spotify"
)

type searcher interface {
	Search(ctx context.Context, query string) (SearchResult, error)
}

type spotifyClient interface {
	GetTrack(ctx context.Context, trackID string) (*spotify.TrackInfo, error)
	GetPlaylistTracks(ctx context.Context, playlistID string, limit int) (*spotify.CollectionResult, error)
	GetAlbumTracks(ctx context.Context, albumID string, limit int) (*spotify.CollectionResult, error)
	GetArtistTopTracks(ctx context.Context, artistID string, limit int) (*spotify.CollectionResult, error)
}

type appleMusicClient interface {
	GetTrack(ctx context.Context, country, albumID, trackID string) (*applemusic.TrackInfo, error)
	GetAlbumTracks(ctx context.Context, country, albumID string, limit int) (*applemusic.CollectionResult, error)
	GetPlaylistTracks(ctx context.Context, country, playlistID string, limit int) (*applemusic.CollectionResult, error)
}

// Resolver searches the node, first rewriting Spotify and Apple Music links the
// node cannot play into searches for each track they point at.
type Resolver struct {
	search     searcher
	spotify    spotifyClient
	appleMusic appleMusicClient

	spotifyLimit    int
	appleMusicLimit int
	logger          *log.Entry
}

func NewResolver(search searcher) *Resolver {
	return &Resolver{
		search: search,
		logger: log.WithFields(log.Fields{
			"module": "resolver",
		}),
	}
}

func (r *Resolver) UseSpotify(client *spotify.Client, limit int) {
	r.spotify = client
	r.spotifyLimit = limit
}

func (r *Resolver) UseAppleMusic(client *applemusic.Client, limit int) {
	r.appleMusic = client
	r.appleMusicLimit = limit
}

func (r *Resolver) Search(ctx context.Context, query string) (SearchResult, error) {
	if r.spotify != nil && spotify.IsSpotifyURL(query) {
		return r.resolveSpotify(ctx, query)
	}
	if r.appleMusic != nil && applemusic.IsAppleMusicURL(query) {
		return r.resolveAppleMusic(ctx, query)
	}
	return r.search.Search(ctx, query)
}

func (r *Resolver) resolveSpotify(ctx context.Context, link string) (SearchResult, error) {
	request, err := spotify.ParseSpotifyURL(link)
	if err != nil {
		return SearchResult{}, err
	}

	var collection *spotify.CollectionResult
	switch {
	case request.TrackID != "":
		track, err := r.spotify.GetTrack(ctx, request.TrackID)
		if err != nil {
			return SearchResult{}, fmt.Errorf("spotify track: %w", err)
		}
		return r.search.Search(ctx, track.Query())
	case request.PlaylistID != "":
		collection, err = r.spotify.GetPlaylistTracks(ctx, request.PlaylistID, r.spotifyLimit)
	case request.AlbumID != "":
		collection, err = r.spotify.GetAlbumTracks(ctx, request.AlbumID, r.spotifyLimit)
	case request.ArtistID != "":
		collection, err = r.spotify.GetArtistTopTracks(ctx, request.ArtistID, r.spotifyLimit)
	default:
		return SearchResult{}, fmt.Errorf("unsupported spotify link: %s", link)
	}
	if err != nil {
		return SearchResult{}, fmt.Errorf("spotify collection: %w", err)
	}

	queries := make([]string, 0, len(collection.Tracks))
	for _, track := range collection.Tracks {
		queries = append(queries, track.Query())
	}
	return r.searchEach(ctx, collection.Name, queries), nil
}

func (r *Resolver) resolveAppleMusic(ctx context.Context, link string) (SearchResult, error) {
	request, err := applemusic.ParseAppleMusicURL(link)
	if err != nil {
		return SearchResult{}, err
	}

	var collection *applemusic.CollectionResult
	switch {
	case request.TrackID != "":
		track, err := r.appleMusic.GetTrack(ctx, request.Country, request.AlbumID, request.TrackID)
		if err != nil {
			return SearchResult{}, fmt.Errorf("apple music track: %w", err)
		}
		return r.search.Search(ctx, track.Query())
	case request.AlbumID != "":
		collection, err = r.appleMusic.GetAlbumTracks(ctx, request.Country, request.AlbumID, r.appleMusicLimit)
	case request.PlaylistID != "":
		collection, err = r.appleMusic.GetPlaylistTracks(ctx, request.Country, request.PlaylistID, r.appleMusicLimit)
	default:
		return SearchResult{}, fmt.Errorf("unsupported apple music link: %s", link)
	}
	if err != nil {
		return SearchResult{}, fmt.Errorf("apple music collection: %w", err)
	}

	queries := make([]string, 0, len(collection.Tracks))
	for _, track := range collection.Tracks {
		queries = append(queries, track.Query())
	}
	return r.searchEach(ctx, collection.Name, queries), nil
}

// searchEach keeps the best match of every query, in order. Misses are logged
// and skipped so one unavailable song does not sink the whole playlist.
func (r *Resolver) searchEach(ctx context.Context, name string, queries []string) SearchResult {
	if name == "" {
		name = "Untitled playlist"
	}
	result := SearchResult{PlaylistName: name}
	for _, query := range queries {
		if ctx.Err() != nil {
			break
		}
		found, err := r.search.Search(ctx, query)
		if err != nil {
			r.logger.Warnf("search failed for %q: %v", query, err)
			continue
		}
		if found.Empty() {
			r.logger.Debugf("no match for %q", query)
			continue
		}
		result.Tracks = append(result.Tracks, found.Tracks[0])
	}
	return result
}
