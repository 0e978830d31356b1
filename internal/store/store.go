// Package store persists strip configuration and the notification log in
// SQLite. The core never waits on it: callers treat persistence as
// best-effort and log failures instead of propagating them into the tick.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sweeney/powerstrip/internal/core"
)

// Store wraps the database connection.
type Store struct {
	conn *sql.DB
}

// Open creates a store at the given path and initializes the schema.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		unit_price REAL NOT NULL
	);
	CREATE TABLE IF NOT EXISTS channel_settings (
		channel INTEGER PRIMARY KEY CHECK (channel BETWEEN 1 AND 4),
		limit_sec INTEGER NOT NULL,
		timer_min INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts TEXT NOT NULL,
		text TEXT NOT NULL
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// SaveSettings writes the shared price and per-channel configuration.
// Called after every configuration-changing command.
func (s *Store) SaveSettings(cfg core.Settings) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO settings (id, unit_price) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET unit_price = excluded.unit_price`,
		cfg.UnitPrice,
	); err != nil {
		return fmt.Errorf("save price: %w", err)
	}

	for i, ch := range cfg.Channels {
		if _, err := tx.Exec(
			`INSERT INTO channel_settings (channel, limit_sec, timer_min) VALUES (?, ?, ?)
			 ON CONFLICT(channel) DO UPDATE SET limit_sec = excluded.limit_sec, timer_min = excluded.timer_min`,
			i+1, ch.UsageLimitSeconds, ch.TimerMinutes,
		); err != nil {
			return fmt.Errorf("save channel %d: %w", i+1, err)
		}
	}

	return tx.Commit()
}

// LoadSettings reads persisted configuration. ok is false when nothing has
// been saved yet (first boot); the caller keeps its runtime defaults.
func (s *Store) LoadSettings() (cfg core.Settings, ok bool, err error) {
	err = s.conn.QueryRow(`SELECT unit_price FROM settings WHERE id = 1`).Scan(&cfg.UnitPrice)
	if err == sql.ErrNoRows {
		return core.Settings{}, false, nil
	}
	if err != nil {
		return core.Settings{}, false, fmt.Errorf("load price: %w", err)
	}

	rows, err := s.conn.Query(`SELECT channel, limit_sec, timer_min FROM channel_settings`)
	if err != nil {
		return core.Settings{}, false, fmt.Errorf("load channels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var channel, timerMin int
		var limitSec uint64
		if err := rows.Scan(&channel, &limitSec, &timerMin); err != nil {
			return core.Settings{}, false, fmt.Errorf("scan channel: %w", err)
		}
		if channel < 1 || channel > core.NumChannels {
			continue
		}
		cfg.Channels[channel-1] = core.ChannelSettings{
			UsageLimitSeconds: limitSec,
			TimerMinutes:      timerMin,
		}
	}
	if err := rows.Err(); err != nil {
		return core.Settings{}, false, fmt.Errorf("load channels: %w", err)
	}

	return cfg, true, nil
}

// AppendNotification appends one entry to the notification log.
// Growth is unbounded here; retention is an operator decision, cleared only
// by an explicit clear command.
func (s *Store) AppendNotification(ev core.Event) error {
	_, err := s.conn.Exec(
		`INSERT INTO notifications (ts, text) VALUES (?, ?)`,
		ev.Timestamp.UTC().Format(time.RFC3339), ev.Text,
	)
	if err != nil {
		return fmt.Errorf("append notification: %w", err)
	}
	return nil
}

// Notifications returns the full log, oldest first.
func (s *Store) Notifications() ([]core.Event, error) {
	rows, err := s.conn.Query(`SELECT ts, text FROM notifications ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var events []core.Event
	for rows.Next() {
		var ts, text string
		if err := rows.Scan(&ts, &text); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		when, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parse notification time %q: %w", ts, err)
		}
		events = append(events, core.Event{Timestamp: when, Text: text})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return events, nil
}

// ClearNotifications empties the log.
func (s *Store) ClearNotifications() error {
	if _, err := s.conn.Exec(`DELETE FROM notifications`); err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}
	return nil
}
