// Package corpus persists decoded flag dumps, one file per Bazel
// version. Files hold the raw decoded bytes with no framing or
// checksum; the version identifier is the file name.
package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"flagdump/internal/version"
)

// ErrDumpNotFound is returned when no dump exists for a version.
var ErrDumpNotFound = errors.New("flag dump not found")

// FileExt is the suffix of every dump file in the corpus directory.
const FileExt = ".data"

// Store manages flag-dump persistence.
type Store struct {
	Dir string // Base directory for dump files
}

// NewStore creates a store with the given directory.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// DefaultDir returns the default corpus directory, relative to the
// working directory.
func DefaultDir() string {
	return filepath.Join("proto", "flag-dumps")
}

// Entry is a lightweight view of one stored dump, for listings.
type Entry struct {
	Version string    `json:"version"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// Save stores the decoded payload for a version, creating the corpus
// directory if needed. An existing dump for the same version is
// truncated and overwritten. Returns the file path.
func (s *Store) Save(ver string, data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", err
	}

	path := s.Path(ver)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// Load retrieves the decoded payload for a version.
func (s *Store) Load(ver string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(ver))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrDumpNotFound
		}
		return nil, err
	}
	return data, nil
}

// List returns all stored dumps, ordered ascending by parsed version.
func (s *Store) List() ([]Entry, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}

	versions := make([]string, 0, len(entries))
	byVersion := make(map[string]Entry)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), FileExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue // Skip files racing with deletion
		}
		ver := strings.TrimSuffix(entry.Name(), FileExt)
		versions = append(versions, ver)
		byVersion[ver] = Entry{
			Version: ver,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
	}

	version.Sort(versions)
	sorted := make([]Entry, 0, len(versions))
	for _, ver := range versions {
		sorted = append(sorted, byVersion[ver])
	}
	return sorted, nil
}

// Versions returns the stored version identifiers, ordered ascending
// by parsed version.
func (s *Store) Versions() ([]string, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	versions := make([]string, 0, len(entries))
	for _, e := range entries {
		versions = append(versions, e.Version)
	}
	return versions, nil
}

// Delete removes the dump for a version.
func (s *Store) Delete(ver string) error {
	err := os.Remove(s.Path(ver))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrDumpNotFound
		}
		return err
	}
	return nil
}

// Exists checks if a dump exists for a version.
func (s *Store) Exists(ver string) bool {
	_, err := os.Stat(s.Path(ver))
	return err == nil
}

// Path returns the file path for a version. Characters that are
// hostile to file systems are replaced with '_'.
func (s *Store) Path(ver string) string {
	return filepath.Join(s.Dir, sanitizeName(ver)+FileExt)
}

// sanitizeName makes a version identifier safe to use as a file name.
func sanitizeName(ver string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, ver)
}
