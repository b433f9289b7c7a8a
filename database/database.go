package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"wavebot/audio"
)

// Database keeps the per-guild play history. It is not session state: a
// restart drops every session but history survives.
type Database struct {
	db     *sql.DB
	logger *log.Entry
}

type SongHistoryRecord struct {
	ID              int64
	GuildID         string
	Identifier      string
	Title           string
	Author          string
	URI             string
	SourceName      string
	Recommended     bool
	PlayedAt        time.Time
	DurationSeconds int
}

type MostPlayedRecord struct {
	Identifier string
	Title      string
	URI        string
	PlayCount  int
	LastPlayed time.Time
}

// New opens (or creates) the sqlite file at path. ":memory:" is accepted.
func New(path string) (*Database, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps ":memory:" databases from splitting per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	d := &Database{
		db: db,
		logger: log.WithFields(log.Fields{
			"module": "database",
		}),
	}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	d.logger.Infof("Database initialized at %s", path)
	return d, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS song_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id TEXT NOT NULL,
			identifier TEXT NOT NULL,
			title TEXT NOT NULL,
			author TEXT NOT NULL DEFAULT '',
			uri TEXT NOT NULL DEFAULT '',
			source_name TEXT NOT NULL DEFAULT '',
			recommended INTEGER NOT NULL DEFAULT 0,
			played_at TEXT NOT NULL,
			duration_seconds INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_song_history_played_at ON song_history(guild_id, played_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_song_history_identifier ON song_history(guild_id, identifier)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}

// RecordPlay inserts a row for a track that started playing in guildID.
func (d *Database) RecordPlay(ctx context.Context, guildID string, track audio.Track) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO song_history (guild_id, identifier, title, author, uri, source_name, recommended, played_at, duration_seconds)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		guildID, track.Identifier, track.Title, track.Author, track.URI, track.SourceName, track.Recommended,
		time.Now().UTC().Format(time.RFC3339Nano), int(track.Length.Seconds()),
	)
	if err != nil {
		return fmt.Errorf("failed to record play: %w", err)
	}
	return nil
}

// GetHistory returns the most recent plays for a guild, newest first.
func (d *Database) GetHistory(ctx context.Context, guildID string, limit int) ([]SongHistoryRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, guild_id, identifier, title, author, uri, source_name, recommended, played_at, duration_seconds
		 FROM song_history
		 WHERE guild_id = ?
		 ORDER BY played_at DESC, id DESC
		 LIMIT ?`,
		guildID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []SongHistoryRecord
	for rows.Next() {
		var r SongHistoryRecord
		var playedAt string
		if err := rows.Scan(&r.ID, &r.GuildID, &r.Identifier, &r.Title, &r.Author, &r.URI,
			&r.SourceName, &r.Recommended, &playedAt, &r.DurationSeconds); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		r.PlayedAt = d.parseTimestamp(playedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetMostPlayed returns the most played tracks for a guild.
func (d *Database) GetMostPlayed(ctx context.Context, guildID string, limit int) ([]MostPlayedRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT identifier, MAX(title), MAX(uri), COUNT(*) as play_count, MAX(played_at) as last_played
		 FROM song_history
		 WHERE guild_id = ?
		 GROUP BY identifier
		 ORDER BY play_count DESC, last_played DESC
		 LIMIT ?`,
		guildID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query most played: %w", err)
	}
	defer rows.Close()

	var records []MostPlayedRecord
	for rows.Next() {
		var r MostPlayedRecord
		var lastPlayed string
		if err := rows.Scan(&r.Identifier, &r.Title, &r.URI, &r.PlayCount, &lastPlayed); err != nil {
			return nil, fmt.Errorf("failed to scan most played row: %w", err)
		}
		r.LastPlayed = d.parseTimestamp(lastPlayed)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (d *Database) parseTimestamp(value string) time.Time {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	d.logger.Warnf("failed to parse timestamp '%s' with all known formats", value)
	return time.Time{}
}
