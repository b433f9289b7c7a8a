package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"wavebot/audio"
	"wavebot/controller"
)

const (
	colorPlaying = 0x1DB954
	colorInfo    = 0x5865F2
)

// BuildNowPlayingEmbed renders the message posted when a track starts.
func BuildNowPlayingEmbed(n controller.Notification) *discordgo.MessageEmbed {
	author := n.Author
	if author == "" {
		author = ExtractArtistFromTitle(n.Title)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Now Playing",
		URL:         n.URI,
		Description: fmt.Sprintf("**%s** by `%s`", n.Title, author),
		Color:       colorPlaying,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Duration",
				Value:  formatLength(n.Length, n.IsStream),
				Inline: true,
			},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	if n.ArtworkURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: n.ArtworkURL}
	}
	if n.Album != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Album",
			Value:  n.Album,
			Inline: true,
		})
	}
	if n.RecommendedVia != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: "This track was recommended via " + n.RecommendedVia,
		}
	}

	return embed
}

// BuildQueueEmbed lists the current track and up to limit pending ones.
func BuildQueueEmbed(current *audio.Track, pending []audio.Track, limit int) *discordgo.MessageEmbed {
	var desc strings.Builder
	if current != nil {
		desc.WriteString(fmt.Sprintf("**Now:** %s\n\n", trackLine(*current)))
	}
	if len(pending) == 0 {
		desc.WriteString("The queue is empty.")
	}
	for i, t := range pending {
		if i >= limit {
			desc.WriteString(fmt.Sprintf("…and %d more", len(pending)-limit))
			break
		}
		desc.WriteString(fmt.Sprintf("%d. %s\n", i+1, trackLine(t)))
	}

	return &discordgo.MessageEmbed{
		Title:       "Queue",
		Description: desc.String(),
		Color:       colorInfo,
	}
}

func trackLine(t audio.Track) string {
	line := t.Title
	if t.URI != "" {
		line = fmt.Sprintf("[%s](%s)", t.Title, t.URI)
	}
	return fmt.Sprintf("%s `%s`", line, formatLength(t.Length, t.IsStream))
}

func formatLength(d time.Duration, stream bool) string {
	if stream {
		return "🔴 Live"
	}
	return FormatDuration(d)
}

// FormatDuration formats duration as MM:SS or HH:MM:SS
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ExtractArtistFromTitle guesses the artist from a "Artist - Song" style title.
func ExtractArtistFromTitle(title string) string {
	cleaned := title
	suffixes := []string{
		"(Official Video)", "(Official Music Video)", "(Official Audio)",
		"(Lyrics)", "(Lyric Video)", "(Audio)", "(Visualizer)",
		"[Official Video]", "[Official Music Video]", "[Official Audio]",
		"[Lyrics]", "[Lyric Video]", "[Audio]",
	}
	for _, suffix := range suffixes {
		cleaned = strings.Replace(cleaned, suffix, "", 1)
	}
	cleaned = strings.TrimSpace(cleaned)

	parts := strings.SplitN(cleaned, " - ", 2)
	if len(parts) == 2 {
		artist := strings.TrimSpace(parts[0])
		for _, feat := range []string{" ft.", " feat.", " ft ", " feat ", " featuring "} {
			if idx := strings.Index(strings.ToLower(artist), feat); idx != -1 {
				artist = strings.TrimSpace(artist[:idx])
			}
		}
		if artist != "" {
			return artist
		}
	}

	return cleaned
}
