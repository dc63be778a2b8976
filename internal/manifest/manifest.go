// Package manifest fingerprints the dump corpus. The manifest records
// a sha256 per stored dump plus a corpus-level hash over the sorted
// entries, so downstream tooling can detect stale or modified dumps
// without re-running Bazel.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"time"

	"flagdump/internal/corpus"
)

// FileName is the manifest file name inside the corpus directory.
const FileName = "manifest.json"

// ErrManifestNotFound is returned when no manifest exists.
var ErrManifestNotFound = errors.New("manifest not found")

// Manifest maps each dumped version to the sha256 of its decoded
// payload.
type Manifest struct {
	CorpusHash string            `json:"corpusHash"` // sha256:hex over canonical entries
	Dumps      map[string]string `json:"dumps"`      // version -> sha256:hex
	Timestamp  time.Time         `json:"timestamp"`
}

// Build hashes every dump in the store and assembles a manifest.
func Build(store *corpus.Store) (Manifest, error) {
	versions, err := store.Versions()
	if err != nil {
		return Manifest{}, err
	}

	dumps := make(map[string]string, len(versions))
	for _, version := range versions {
		data, err := store.Load(version)
		if err != nil {
			return Manifest{}, err
		}
		dumps[version] = HashBytes(data)
	}

	return Manifest{
		CorpusHash: ComputeCorpusHash(dumps),
		Dumps:      dumps,
		Timestamp:  time.Now().UTC(),
	}, nil
}

// HashBytes returns the sha256 of a payload, prefixed with "sha256:".
func HashBytes(data []byte) string {
	hash := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(hash[:])
}

// ComputeCorpusHash computes the sha256 of the dump hashes in
// canonical form (sorted keys, no whitespace). Returns the hash
// prefixed with "sha256:".
func ComputeCorpusHash(dumps map[string]string) string {
	canonical := canonicalDumpsJSON(dumps)
	hash := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(hash[:])
}

// canonicalDumpsJSON produces canonical JSON for the dumps map.
// Keys are sorted alphabetically, no whitespace.
func canonicalDumpsJSON(dumps map[string]string) []byte {
	if len(dumps) == 0 {
		return []byte("{}")
	}

	keys := make([]string, 0, len(dumps))
	for k := range dumps {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}
		keyJSON, _ := json.Marshal(k)
		valueJSON, _ := json.Marshal(dumps[k])
		result = append(result, keyJSON...)
		result = append(result, ':')
		result = append(result, valueJSON...)
	}
	result = append(result, '}')
	return result
}

// WriteToFile writes the manifest as pretty-printed JSON, creating
// parent directories if needed.
func (m Manifest) WriteToFile(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads a manifest from disk.
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{}, ErrManifestNotFound
		}
		return Manifest{}, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}
