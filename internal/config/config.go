// Package config persists daemon settings in a small sqlite database
// under the user config directory.
package config

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/coursedl/coursedl/pkg/courselib"
)

// ConfigDirEnv overrides the directory the settings database lives in.
const ConfigDirEnv = "COURSEDL_CONFIG_DIR"

const dbFileName = "coursedl.db"

// Settings are the daemon-level knobs the client can read and write.
type Settings struct {
	SavePath      string `json:"save_path"`
	ToPDF         bool   `json:"to_pdf"`
	MaxConcurrent int    `json:"max_concurrent"`
}

// Store is the sqlite-backed settings store. Safe for concurrent use;
// database/sql serializes access to the single connection.
type Store struct {
	db *sql.DB
}

// Dir resolves the config directory, honoring ConfigDirEnv and falling
// back to <user-config-dir>/coursedl.
func Dir() (string, error) {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "coursedl"), nil
}

// Open opens (creating if needed) the settings database in dir. An
// empty dir resolves through Dir.
func Open(dir string) (*Store, error) {
	if dir == "" {
		var err error
		dir, err = Dir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, dbFileName))
	if err != nil {
		return nil, fmt.Errorf("open settings db: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping settings db: %w", err)
	}
	if _, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init settings db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`,
		key, value,
	)
	return err
}

const (
	keySavePath      = "save_path"
	keyToPDF         = "to_pdf"
	keyMaxConcurrent = "max_concurrent"
)

// Settings reads the current settings, filling in defaults for keys
// never written: downloads go to <home>/Downloads/coursedl, slides are
// assembled into PDFs, and concurrency follows the scheduler default.
func (s *Store) Settings() (Settings, error) {
	out := Settings{
		ToPDF:         true,
		MaxConcurrent: courselib.DefaultMaxConcurrent,
	}
	if home, err := os.UserHomeDir(); err == nil {
		out.SavePath = filepath.Join(home, "Downloads", "coursedl")
	}
	if v, ok, err := s.get(keySavePath); err != nil {
		return out, err
	} else if ok {
		out.SavePath = v
	}
	if v, ok, err := s.get(keyToPDF); err != nil {
		return out, err
	} else if ok {
		out.ToPDF = v == "1"
	}
	if v, ok, err := s.get(keyMaxConcurrent); err != nil {
		return out, err
	} else if ok {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			out.MaxConcurrent = n
		}
	}
	return out, nil
}

// SetSavePath persists the download root directory.
func (s *Store) SetSavePath(path string) error {
	return s.set(keySavePath, path)
}

// SetToPDF persists whether slide decks are assembled into PDFs.
func (s *Store) SetToPDF(toPDF bool) error {
	v := "0"
	if toPDF {
		v = "1"
	}
	return s.set(keyToPDF, v)
}

// SetMaxConcurrent persists the scheduler concurrency limit.
func (s *Store) SetMaxConcurrent(n int) error {
	if n < 1 {
		return fmt.Errorf("max concurrent must be positive, got %d", n)
	}
	return s.set(keyMaxConcurrent, fmt.Sprintf("%d", n))
}
