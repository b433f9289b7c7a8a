package handlers

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Hints appends an occasional tip to successful play replies.
type Hints struct {
	cooldowns   map[string]time.Time // guildID -> last hint time
	cooldownMu  sync.Mutex
	cooldownDur time.Duration
	hintChance  float32
	hints       []string
}

func NewHints() *Hints {
	return &Hints{
		cooldowns:   make(map[string]time.Time),
		cooldownDur: 5 * time.Minute,
		hintChance:  0.15,
		hints: []string{
			"Pro tip: /play with autoplay keeps the music going when the queue runs out",
			"Pro tip: /queue shows what is coming up next",
			"Pro tip: /history shows recently played songs",
			"Pro tip: /nightcore speeds things up, /defaultfilters puts them back",
			"Pro tip: /sound_controls sets pitch, speed and rate",
			"Pro tip: Spotify and Apple Music links work with /play",
			"Pro tip: the buttons under Now Playing pause and skip",
			"Pro tip: ?p works as a shortcut for ?play",
		},
	}
}

// ShouldShowHint rolls for a hint and applies the guild cooldown.
func (h *Hints) ShouldShowHint(guildID string) (string, bool) {
	if len(h.hints) == 0 || rand.Float32() >= h.hintChance {
		return "", false
	}

	now := time.Now()
	h.cooldownMu.Lock()
	defer h.cooldownMu.Unlock()
	if lastHint, ok := h.cooldowns[guildID]; ok && now.Sub(lastHint) < h.cooldownDur {
		return "", false
	}
	for id, lastHint := range h.cooldowns {
		if now.Sub(lastHint) >= h.cooldownDur {
			delete(h.cooldowns, id)
		}
	}
	h.cooldowns[guildID] = now

	hint := h.hints[rand.IntN(len(h.hints))]
	log.Debugf("Showing hint for guild %s: %s", guildID, hint)
	return hint, true
}

// ShowIfApplicable returns a formatted hint, or "" most of the time.
func (h *Hints) ShowIfApplicable(guildID string) string {
	hint, show := h.ShouldShowHint(guildID)
	if show {
		return fmt.Sprintf("\n\n💡 %s", hint)
	}
	return ""
}
