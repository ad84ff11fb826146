package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 2, cfg.Scheduling.OccurrencesPerItem)
	assert.Equal(t, 1, cfg.Scheduling.ApplyWorkers)
	assert.Equal(t, 7, cfg.Scheduling.DefaultReminderDays)
	assert.Equal(t, 10*time.Minute, cfg.ItemCache.TTL)
	assert.True(t, cfg.Exports.Enabled)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("SCHEDULING_APPLY_WORKERS", "4")
	t.Setenv("SCHEDULING_OCCURRENCES_PER_ITEM", "0")
	t.Setenv("ITEM_CACHE_TTL", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Scheduling.ApplyWorkers)
	assert.Equal(t, 2, cfg.Scheduling.OccurrencesPerItem, "non-positive values fall back")
	assert.Equal(t, 10*time.Minute, cfg.ItemCache.TTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}
