package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketsky/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "harvest.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[harvest]
search_terms = ["bloomberg", "economist"]
actors = ["unusualwhales.bsky.social"]
page_limit = 50
max_posts_per_actor = 500
start_date = "2025-06-01"
end_date = "2025-06-30"
workers = 3
output = "out/posts_bluesky.csv"
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"bloomberg", "economist"}, cfg.Harvest.SearchTerms)
	assert.Equal(t, []string{"unusualwhales.bsky.social"}, cfg.Harvest.Actors)
	assert.Equal(t, 50, cfg.Harvest.PageLimit)
	assert.Equal(t, "out/posts_bluesky.csv", cfg.Harvest.Output)

	harvestCfg, err := cfg.HarvestConfig()
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), harvestCfg.StartDate)
	// End bound is inclusive of the whole end day.
	assert.True(t, harvestCfg.EndDate.After(time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC)))
	assert.True(t, harvestCfg.EndDate.Before(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 3, harvestCfg.Workers)
	assert.Equal(t, 500, harvestCfg.MaxPostsPerActor)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestHarvestConfigInvalidDates(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "malformed start date",
			content: `
[harvest]
start_date = "June 1st"
`,
		},
		{
			name: "end before start",
			content: `
[harvest]
start_date = "2025-06-30"
end_date = "2025-06-01"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.LoadConfig(writeConfig(t, tt.content))
			require.NoError(t, err)

			_, err = cfg.HarvestConfig()
			assert.Error(t, err)
		})
	}
}
