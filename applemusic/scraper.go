package applemusic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

func (c *Client) fetchDocument(ctx context.Context, path string) (*goquery.Document, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	// the default Go user agent gets a stripped page without JSON-LD
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	log.Tracef("Fetching Apple Music page: %s", url)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// jsonLDBlocks returns every JSON-LD object on the page, skipping blocks that do not parse.
func jsonLDBlocks(doc *goquery.Document) []map[string]any {
	var blocks []map[string]any
	doc.Find("script[type='application/ld+json']").Each(func(i int, s *goquery.Selection) {
		var data map[string]any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			log.Tracef("Failed to parse JSON-LD block %d: %v", i, err)
			return
		}
		blocks = append(blocks, data)
	})
	return blocks
}

func trackFromRecording(data map[string]any) (TrackInfo, bool) {
	title := getString(data, "name")
	if title == "" {
		return TrackInfo{}, false
	}
	track := TrackInfo{
		Title:   title,
		Artists: artistsOf(data),
	}
	if album, ok := data["inAlbum"].(map[string]any); ok {
		track.Album = getString(album, "name")
	}
	return track, true
}

// artistsOf reads byArtist, which is either one object or a list.
func artistsOf(data map[string]any) []string {
	switch artist := data["byArtist"].(type) {
	case map[string]any:
		if name := getString(artist, "name"); name != "" {
			return []string{name}
		}
	case []any:
		var names []string
		for _, a := range artist {
			if m, ok := a.(map[string]any); ok {
				if name := getString(m, "name"); name != "" {
					names = append(names, name)
				}
			}
		}
		return names
	}
	return nil
}

func extractTrackFromJSONLD(doc *goquery.Document) (*TrackInfo, error) {
	for _, data := range jsonLDBlocks(doc) {
		if getString(data, "@type") != "MusicRecording" {
			continue
		}
		track, ok := trackFromRecording(data)
		if !ok {
			continue
		}
		if len(track.Artists) == 0 {
			return nil, errors.New("no artist data found in JSON-LD")
		}
		return &track, nil
	}
	return nil, errors.New("no JSON-LD MusicRecording data found")
}

// extractCollectionFromJSONLD reads a MusicAlbum or MusicPlaylist block. Tracks
// without their own byArtist inherit the album artist.
func extractCollectionFromJSONLD(doc *goquery.Document, kind string, limit int) (*CollectionResult, error) {
	for _, data := range jsonLDBlocks(doc) {
		if getString(data, "@type") != kind {
			continue
		}

		result := &CollectionResult{Name: getString(data, "name")}
		if artists := artistsOf(data); len(artists) > 0 {
			result.Artist = strings.Join(artists, ", ")
		}

		entries, _ := data["track"].([]any)
		for _, entry := range entries {
			if limit > 0 && len(result.Tracks) >= limit {
				break
			}
			recording, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			track, ok := trackFromRecording(recording)
			if !ok {
				continue
			}
			if len(track.Artists) == 0 && result.Artist != "" {
				track.Artists = []string{result.Artist}
			}
			if track.Album == "" && kind == "MusicAlbum" {
				track.Album = result.Name
			}
			result.Tracks = append(result.Tracks, track)
		}
		return result, nil
	}
	return nil, fmt.Errorf("no JSON-LD %s data found", kind)
}

func extractFromOpenGraph(doc *goquery.Document) (*TrackInfo, error) {
	title, _ := doc.Find("meta[property='og:title']").Attr("content")
	if title == "" {
		title, _ = doc.Find("meta[name='twitter:title']").Attr("content")
	}
	if title == "" {
		return nil, errors.New("no title found in Open Graph tags")
	}

	artist, _ := doc.Find("meta[property='music:musician']").Attr("content")
	if artist == "" {
		artist, _ = doc.Find("meta[property='music:musician_description']").Attr("content")
	}
	if artist == "" {
		// page titles look like "Song - Artist on Apple Music"
		pageTitle := doc.Find("title").First().Text()
		if parts := strings.SplitN(pageTitle, " - ", 2); len(parts) == 2 {
			artist = strings.TrimSuffix(strings.TrimSpace(parts[1]), " on Apple Music")
		}
	}
	if artist == "" {
		return nil, errors.New("no artist found in Open Graph tags or page title")
	}

	album, _ := doc.Find("meta[property='music:album']").Attr("content")

	return &TrackInfo{
		Title:   title,
		Artists: []string{artist},
		Album:   album,
	}, nil
}

func getString(data map[string]any, key string) string {
	if val, ok := data[key].(string); ok {
		return val
	}
	return ""
}
