package applemusic

import "strings"

// AppleMusicRequest is a parsed Apple Music link
type AppleMusicRequest struct {
	TrackID    string
	AlbumID    string
	PlaylistID string
	ArtistID   string
	Country    string
}

type TrackInfo struct {
	Title   string
	Artists []string
	Album   string
}

// Query is the search text used to find this track on the audio node.
func (t TrackInfo) Query() string {
	if len(t.Artists) == 0 {
		return t.Title
	}
	return strings.Join(t.Artists, ", ") + " - " + t.Title
}

// CollectionResult is an album or playlist
type CollectionResult struct {
	Name   string
	Artist string
	Tracks []TrackInfo
}
