package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildhall/cachekit/manager"
)

func findPreset(t *testing.T, presets []manager.Preset, name string) manager.Preset {
	t.Helper()
	for _, preset := range presets {
		if preset.Name == name {
			return preset
		}
	}
	t.Fatalf("preset %s not found", name)
	return manager.Preset{}
}

func TestParseEmptyKeepsDefaults(t *testing.T) {
	presets, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, manager.DefaultPresets(), presets)
}

func TestParseOverridesPreset(t *testing.T) {
	presets, err := Parse([]byte(`
presets:
  user:
    tiers:
      - name: memory
        ttl: 2m
        max_size_bytes: 2048
        priority: 1
      - name: distributed
        ttl: 1h
        priority: 2
    smart_ttl:
      base_ttl: 2m
      access_frequency_multiplier: 0.2
      data_age_multiplier: 0.1
      min_ttl: 30s
      max_ttl: 2h
`))
	require.NoError(t, err)

	user := findPreset(t, presets, manager.PresetUser)
	require.Len(t, user.Tiers, 2)
	assert.Equal(t, 2*time.Minute, user.Tiers[0].TTL)
	assert.Equal(t, int64(2048), user.Tiers[0].MaxSizeBytes)
	assert.Equal(t, 2*time.Minute, user.SmartTTL.BaseTTL)
	assert.Equal(t, 0.2, user.SmartTTL.AccessFrequencyMultiplier)
	assert.Equal(t, 2*time.Hour, user.SmartTTL.MaxTTL)

	// Untouched presets keep their defaults.
	assert.Equal(t, findPreset(t, manager.DefaultPresets(), manager.PresetGuild),
		findPreset(t, presets, manager.PresetGuild))
}

func TestParsePartialOverrideMergesDefaults(t *testing.T) {
	presets, err := Parse([]byte(`
presets:
  user:
    smart_ttl:
      max_ttl: 3h
`))
	require.NoError(t, err)

	def := findPreset(t, manager.DefaultPresets(), manager.PresetUser)
	user := findPreset(t, presets, manager.PresetUser)
	assert.Equal(t, def.Tiers, user.Tiers)
	assert.Equal(t, def.SmartTTL.BaseTTL, user.SmartTTL.BaseTTL)
	assert.Equal(t, 3*time.Hour, user.SmartTTL.MaxTTL)
}

func TestParseExtendedDurations(t *testing.T) {
	presets, err := Parse([]byte(`
presets:
  archive:
    tiers:
      - name: memory
        ttl: 1d
        priority: 1
    smart_ttl:
      base_ttl: 1d
      min_ttl: 12h
      max_ttl: 1w
`))
	require.NoError(t, err)

	archive := findPreset(t, presets, "archive")
	assert.Equal(t, 24*time.Hour, archive.Tiers[0].TTL)
	assert.Equal(t, 7*24*time.Hour, archive.SmartTTL.MaxTTL)
}

func TestParseBadDuration(t *testing.T) {
	_, err := Parse([]byte(`
presets:
  user:
    smart_ttl:
      base_ttl: soon
`))
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cachekit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
presets:
  realtime:
    smart_ttl:
      min_ttl: 2s
`), 0o600))

	presets, err := Load(path)
	require.NoError(t, err)
	realtime := findPreset(t, presets, manager.PresetRealtime)
	assert.Equal(t, 2*time.Second, realtime.SmartTTL.MinTTL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
