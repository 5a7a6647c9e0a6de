// Package roster supplies optional identity metadata for scans: a read-only
// badge → employee map loaded once at startup. Sync correctness never
// depends on it; an unmatched badge is stored and uploaded all the same.
package roster

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"attendance-kiosk/internal/storage"
)

type Roster struct {
	entries map[string]storage.Identity
}

// rosterEntry is the YAML representation of one employee.
type rosterEntry struct {
	BadgeID      string `yaml:"badge_id"`
	FullName     string `yaml:"full_name"`
	BusinessUnit string `yaml:"business_unit"`
	Position     string `yaml:"position"`
}

// Load reads a roster file. YAML (.yaml/.yml) and tab-separated CSV exports
// are supported; CSV files may be UTF-16 with a BOM, as spreadsheet tools
// commonly produce.
func Load(path string) (*Roster, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadYAML(path)
	case ".csv", ".tsv", ".txt":
		return loadCSV(path)
	default:
		return nil, fmt.Errorf("unsupported roster format: %s", path)
	}
}

func loadYAML(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}

	var entries []rosterEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse roster YAML: %w", err)
	}

	r := &Roster{entries: make(map[string]storage.Identity, len(entries))}
	for _, e := range entries {
		badge := strings.TrimSpace(e.BadgeID)
		if badge == "" {
			continue
		}
		r.entries[badge] = storage.Identity{
			FullName:     strings.TrimSpace(e.FullName),
			BusinessUnit: strings.TrimSpace(e.BusinessUnit),
			Position:     strings.TrimSpace(e.Position),
		}
	}

	slog.Info("Loaded roster", "entries", len(r.entries), "file", path)
	return r, nil
}

// Lookup returns the identity for a badge, if the roster knows it.
func (r *Roster) Lookup(badgeID string) (storage.Identity, bool) {
	if r == nil {
		return storage.Identity{}, false
	}
	ident, ok := r.entries[strings.TrimSpace(badgeID)]
	return ident, ok
}

// Len returns the number of roster entries.
func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}
