package audio

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	sentry "github.com/getsentry/sentry-go"
)

var ErrNoNode = errors.New("no lavalink node available")

// searchIdentifier turns user input into something the node can load: links go
// through untouched, anything else becomes a "<prefix>:<query>" search.
func searchIdentifier(prefix, query string) string {
	query = strings.TrimSpace(query)
	if isURL(query) {
		return query
	}
	if prefix == "" {
		prefix = "ytsearch"
	}
	return prefix + ":" + query
}

func isURL(query string) bool {
	parsed, err := url.Parse(query)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// recommendationIdentifier picks the seed for autoplay. YouTube tracks use the
// video's mix playlist; other sources fall back to searching the author.
func recommendationIdentifier(seed Track) string {
	if seed.SourceName == "youtube" && seed.Identifier != "" {
		return fmt.Sprintf("https://www.youtube.com/watch?v=%s&list=RD%s", seed.Identifier, seed.Identifier)
	}
	if seed.Author != "" {
		return "ytsearch:" + seed.Author
	}
	return "ytsearch:" + seed.Title
}

// load resolves identifier on the best node. A single track comes back as a
// one-element search result so callers only deal with one shape.
func (e *Engine) load(ctx context.Context, identifier string) (SearchResult, error) {
	node := e.client.BestNode()
	if node == nil {
		return SearchResult{}, ErrNoNode
	}

	span := sentry.StartSpan(ctx, "lavalink.load_tracks")
	span.Description = "Load tracks from lavalink node"
	span.SetTag("identifier", identifier)
	defer span.Finish()

	var (
		result  SearchResult
		loadErr error
	)
	node.LoadTracksHandler(ctx, identifier, disgolink.NewResultHandler(
		func(track lavalink.Track) {
			result.Tracks = []Track{newTrack(track)}
		},
		func(playlist lavalink.Playlist) {
			result.PlaylistName = playlist.Info.Name
			result.Tracks = newTracks(playlist.Tracks)
		},
		func(tracks []lavalink.Track) {
			result.Tracks = newTracks(tracks)
		},
		func() {},
		func(err error) {
			loadErr = err
		},
	))

	if loadErr != nil {
		span.Status = sentry.SpanStatusInternalError
		return SearchResult{}, loadErr
	}
	span.Status = sentry.SpanStatusOK
	span.SetData("tracks_count", len(result.Tracks))
	return result, nil
}

// Search resolves a user query. Searches keep only the best match; links keep
// everything the node returned (a playlist link yields the whole playlist).
func (e *Engine) Search(ctx context.Context, query string) (SearchResult, error) {
	identifier := searchIdentifier(e.searchPrefix, query)
	result, err := e.load(ctx, identifier)
	if err != nil {
		return SearchResult{}, err
	}
	if !result.IsPlaylist() && !isURL(query) && len(result.Tracks) > 1 {
		result.Tracks = result.Tracks[:1]
	}
	return result, nil
}
