package manifest

import (
	"sort"

	"flagdump/internal/corpus"
)

// DriftType represents how a dump diverged from the manifest.
type DriftType string

const (
	DriftAdded   DriftType = "added"   // Dump on disk but not in manifest
	DriftRemoved DriftType = "removed" // Dump in manifest but not on disk
	DriftChanged DriftType = "changed" // Dump in both with different hashes
)

// DumpDrift represents a single version's drift.
type DumpDrift struct {
	Version      string    `json:"version"`
	Type         DriftType `json:"type"`
	ManifestHash string    `json:"manifestHash,omitempty"`
	CurrentHash  string    `json:"currentHash,omitempty"`
}

// DriftReport contains the full comparison of manifest vs. disk.
type DriftReport struct {
	HasDrift     bool        `json:"hasDrift"`
	ManifestHash string      `json:"manifestHash"`
	CurrentHash  string      `json:"currentHash"`
	Changes      []DumpDrift `json:"changes"`
}

// Verify re-hashes the dumps on disk and compares them against the
// manifest. It reports drift; it never modifies anything.
func Verify(m Manifest, store *corpus.Store) (DriftReport, error) {
	current, err := Build(store)
	if err != nil {
		return DriftReport{}, err
	}

	report := DriftReport{
		ManifestHash: m.CorpusHash,
		CurrentHash:  current.CorpusHash,
		Changes:      []DumpDrift{},
	}

	// Quick check: if corpus hashes match, nothing drifted.
	if m.CorpusHash == current.CorpusHash {
		return report, nil
	}

	versions := make(map[string]bool)
	for v := range m.Dumps {
		versions[v] = true
	}
	for v := range current.Dumps {
		versions[v] = true
	}

	for v := range versions {
		manifestHash, inManifest := m.Dumps[v]
		currentHash, onDisk := current.Dumps[v]

		switch {
		case inManifest && !onDisk:
			report.Changes = append(report.Changes, DumpDrift{
				Version:      v,
				Type:         DriftRemoved,
				ManifestHash: manifestHash,
			})
		case !inManifest && onDisk:
			report.Changes = append(report.Changes, DumpDrift{
				Version:     v,
				Type:        DriftAdded,
				CurrentHash: currentHash,
			})
		case manifestHash != currentHash:
			report.Changes = append(report.Changes, DumpDrift{
				Version:      v,
				Type:         DriftChanged,
				ManifestHash: manifestHash,
				CurrentHash:  currentHash,
			})
		}
	}

	sort.Slice(report.Changes, func(i, j int) bool {
		return report.Changes[i].Version < report.Changes[j].Version
	})
	report.HasDrift = len(report.Changes) > 0
	return report, nil
}
