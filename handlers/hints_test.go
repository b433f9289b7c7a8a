package handlers

import (
	"strings"
	"testing"
	"time"
)

func newTestHints(chance float32) *Hints {
	return &Hints{
		cooldowns:   make(map[string]time.Time),
		cooldownDur: 5 * time.Minute,
		hintChance:  chance,
		hints:       []string{"Test hint"},
	}
}

func TestHints_ShouldShowHint(t *testing.T) {
	hints := newTestHints(1.0)

	if _, show := hints.ShouldShowHint("guild-1"); !show {
		t.Error("Expected hint to show with 100% chance")
	}
	if _, show := hints.ShouldShowHint("guild-1"); show {
		t.Error("Expected no hint due to cooldown")
	}
}

func TestHints_CooldownExpires(t *testing.T) {
	hints := newTestHints(1.0)
	hints.cooldowns["guild-old"] = time.Now().Add(-10 * time.Minute)
	hints.cooldowns["guild-recent"] = time.Now().Add(-time.Minute)

	if hint := hints.ShowIfApplicable("guild-old"); hint == "" {
		t.Error("Expected hint after the cooldown expired")
	}
	if _, show := hints.ShouldShowHint("guild-recent"); show {
		t.Error("Expected no hint inside the cooldown")
	}
	if _, show := hints.ShouldShowHint("guild-new"); !show {
		t.Error("Expected hint for a new guild")
	}
	if len(hints.cooldowns) != 3 {
		t.Errorf("len(cooldowns) = %d; want 3", len(hints.cooldowns))
	}
}

func TestHints_DropsExpiredCooldowns(t *testing.T) {
	hints := newTestHints(1.0)
	hints.cooldowns["guild-stale"] = time.Now().Add(-time.Hour)

	hints.ShouldShowHint("guild-1")

	if _, ok := hints.cooldowns["guild-stale"]; ok {
		t.Error("expired cooldown was kept")
	}
}

func TestHints_DifferentGuilds(t *testing.T) {
	hints := newTestHints(1.0)

	if _, show := hints.ShouldShowHint("guild-1"); !show {
		t.Error("Expected hint for guild-1")
	}
	if _, show := hints.ShouldShowHint("guild-2"); !show {
		t.Error("guild-1 cooldown blocked guild-2")
	}
}

func TestHints_Probability(t *testing.T) {
	hints := newTestHints(0.0)

	for i := 0; i < 10; i++ {
		if hint := hints.ShowIfApplicable("prob-guild"); hint != "" {
			t.Errorf("Expected no hint with 0%% chance, got: %s", hint)
		}
	}
	if _, ok := hints.cooldowns["prob-guild"]; ok {
		t.Error("a skipped roll set a cooldown")
	}
}

func TestHints_Format(t *testing.T) {
	hints := newTestHints(1.0)

	hint := hints.ShowIfApplicable("format-guild")
	if !strings.HasPrefix(hint, "\n\n💡 ") || !strings.HasSuffix(hint, "Test hint") {
		t.Errorf("ShowIfApplicable() = %q", hint)
	}
}

func TestNewHints(t *testing.T) {
	hints := NewHints()

	if hints.cooldownDur != 5*time.Minute {
		t.Errorf("cooldownDur = %v; want 5m", hints.cooldownDur)
	}
	if hints.hintChance != 0.15 {
		t.Errorf("hintChance = %v; want 0.15", hints.hintChance)
	}
	for _, hint := range hints.hints {
		if !strings.HasPrefix(hint, "Pro tip: ") {
			t.Errorf("hint %q lacks the Pro tip prefix", hint)
		}
	}
}
