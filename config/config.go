package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"marketsky/harvest"
)

// TomlHarvest represents harvest run configuration from TOML
type TomlHarvest struct {
	SearchTerms      []string `toml:"search_terms,omitempty"`
	Actors           []string `toml:"actors,omitempty"`
	PageLimit        int      `toml:"page_limit,omitempty"`
	MaxPostsPerActor int      `toml:"max_posts_per_actor,omitempty"`
	StartDate        string   `toml:"start_date,omitempty"` // YYYY-MM-DD
	EndDate          string   `toml:"end_date,omitempty"`   // YYYY-MM-DD
	Workers          int      `toml:"workers,omitempty"`
	Output           string   `toml:"output,omitempty"`
}

// TomlConfig represents the top-level configuration
type TomlConfig struct {
	Harvest TomlHarvest `toml:"harvest"`
}

func LoadConfig(path string) (*TomlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config TomlConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}

// HarvestConfig converts the TOML representation into a harvest.Config,
// expanding date strings to inclusive UTC day bounds.
func (c *TomlConfig) HarvestConfig() (harvest.Config, error) {
	cfg := harvest.Config{
		SearchTerms:      c.Harvest.SearchTerms,
		Actors:           c.Harvest.Actors,
		PageLimit:        c.Harvest.PageLimit,
		MaxPostsPerActor: c.Harvest.MaxPostsPerActor,
		Workers:          c.Harvest.Workers,
	}

	if c.Harvest.StartDate != "" {
		start, err := time.Parse("2006-01-02", c.Harvest.StartDate)
		if err != nil {
			return harvest.Config{}, fmt.Errorf("invalid start_date: %w", err)
		}
		cfg.StartDate = start
	}

	if c.Harvest.EndDate != "" {
		end, err := time.Parse("2006-01-02", c.Harvest.EndDate)
		if err != nil {
			return harvest.Config{}, fmt.Errorf("invalid end_date: %w", err)
		}
		// End of day so the bound is inclusive.
		cfg.EndDate = end.Add(24*time.Hour - time.Nanosecond)
	}

	if !cfg.StartDate.IsZero() && !cfg.EndDate.IsZero() && cfg.EndDate.Before(cfg.StartDate) {
		return harvest.Config{}, fmt.Errorf("end_date %s is before start_date %s", c.Harvest.EndDate, c.Harvest.StartDate)
	}

	return cfg, nil
}
