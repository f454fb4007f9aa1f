package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// WatchlistEntry is one token the monitor rescans on every cycle
type WatchlistEntry struct {
	Address string `yaml:"address"`
	Label   string `yaml:"label"`
	// MinScore overrides ALERT_MIN_SCORE for this token when set
	MinScore int `yaml:"min_score,omitempty"`
}

type watchlistFile struct {
	Tokens []WatchlistEntry `yaml:"tokens"`
}

// LoadWatchlist reads the watchlist YAML file. Duplicate addresses are dropped,
// keeping the first entry.
func LoadWatchlist(path string) ([]WatchlistEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}

	var wf watchlistFile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse watchlist %s: %w", path, err)
	}

	seen := make(map[string]bool, len(wf.Tokens))
	entries := make([]WatchlistEntry, 0, len(wf.Tokens))
	for i, e := range wf.Tokens {
		e.Address = strings.TrimSpace(e.Address)
		if e.Address == "" {
			return nil, fmt.Errorf("watchlist entry %d has no address", i)
		}
		if e.MinScore < 0 || e.MinScore > 100 {
			return nil, fmt.Errorf("watchlist entry %s: min_score %d outside 0-100", e.Address, e.MinScore)
		}
		if seen[e.Address] {
			continue
		}
		seen[e.Address] = true
		entries = append(entries, e)
	}

	return entries, nil
}
