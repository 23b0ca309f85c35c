// Package store keeps the last successful fetch on disk so the UI has
// something to show before the server answers.
package store

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/peterbourgon/diskv/v3"

	"tableflip.dev/zeit/pkg/entry"
)

const (
	keyEntries  = "entries"
	keyProjects = "projects"
)

// ErrEmpty is returned when nothing was saved yet.
var ErrEmpty = errors.New("store: no snapshot")

// Snapshot is a diskv-backed cache of one server's entries and projects.
type Snapshot struct {
	d      *diskv.Diskv
	server string
}

type record struct {
	SavedAt time.Time       `json:"saved_at"`
	Data    json.RawMessage `json:"data"`
}

// Open returns the snapshot of server under basePath. Each server gets its
// own directory.
func Open(basePath, server string) (*Snapshot, error) {
	if basePath == "" {
		return nil, errors.New("store: base path required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}
	return &Snapshot{
		d: diskv.New(diskv.Options{
			BasePath:          basePath,
			AdvancedTransform: keyToPathTransform,
			InverseTransform:  pathToKeyTransform,
			CacheSizeMax:      1024 * 1024, // 1MB
		}),
		server: toDir(server),
	}, nil
}

// SaveEntries replaces the saved entries.
func (s *Snapshot) SaveEntries(entries []entry.Entry) error {
	return s.write(keyEntries, entries)
}

// SaveProjects replaces the saved projects.
func (s *Snapshot) SaveProjects(projects []entry.Project) error {
	return s.write(keyProjects, projects)
}

// LoadEntries returns the saved entries.
func (s *Snapshot) LoadEntries() ([]entry.Entry, error) {
	var out []entry.Entry
	if _, err := s.read(keyEntries, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadProjects returns the saved projects.
func (s *Snapshot) LoadProjects() ([]entry.Project, error) {
	var out []entry.Project
	if _, err := s.read(keyProjects, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SavedAt reports when the entries were last saved.
func (s *Snapshot) SavedAt() (time.Time, error) {
	var discard json.RawMessage
	return s.read(keyEntries, &discard)
}

// Clear removes this server's snapshot.
func (s *Snapshot) Clear() error {
	for _, k := range []string{keyEntries, keyProjects} {
		if !s.d.Has(s.key(k)) {
			continue
		}
		if err := s.d.Erase(s.key(k)); err != nil {
			return fmt.Errorf("store: erase %s: %w", k, err)
		}
	}
	return nil
}

func (s *Snapshot) key(name string) string {
	return s.server + "-" + name
}

func (s *Snapshot) write(name string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", name, err)
	}
	rec, err := json.Marshal(record{SavedAt: time.Now(), Data: data})
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", name, err)
	}
	if err := s.d.Write(s.key(name), rec); err != nil {
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	return nil
}

func (s *Snapshot) read(name string, v interface{}) (time.Time, error) {
	key := s.key(name)
	if !s.d.Has(key) {
		return time.Time{}, ErrEmpty
	}
	raw, err := s.d.Read(key)
	if err != nil {
		return time.Time{}, fmt.Errorf("store: read %s: %w", name, err)
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return time.Time{}, fmt.Errorf("store: decode %s: %w", name, err)
	}
	if err := json.Unmarshal(rec.Data, v); err != nil {
		return time.Time{}, fmt.Errorf("store: decode %s: %w", name, err)
	}
	return rec.SavedAt, nil
}

func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, "-")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1] + ".json",
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return fmt.Sprintf("%s-%s", strings.Join(pathKey.Path, "-"), strings.TrimSuffix(pathKey.FileName, ".json"))
}

// toDir encodes a server url into a single path element without dashes.
func toDir(server string) string {
	return strings.ReplaceAll(base64.RawURLEncoding.EncodeToString([]byte(server)), "-", "_")
}
