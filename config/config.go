// Package config loads preset overrides from YAML. The preset table ships
// with working defaults; a config file adjusts TTLs and limits per
// deployment without touching code.
//
//	presets:
//	  user:
//	    tiers:
//	      - name: memory
//	        ttl: 5m
//	        max_size_bytes: 1048576
//	        priority: 1
//	      - name: distributed
//	        ttl: 30m
//	        priority: 2
//	    smart_ttl:
//	      base_ttl: 5m
//	      access_frequency_multiplier: 0.1
//	      data_age_multiplier: 0.05
//	      min_ttl: 1m
//	      max_ttl: 1h
//
// Durations accept the extended syntax of str2duration, so "1d" and "2w"
// work alongside the stdlib forms.
package config

import (
	"fmt"
	"os"
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"
	"gopkg.in/yaml.v3"

	"github.com/guildhall/cachekit/cache"
	"github.com/guildhall/cachekit/manager"
)

type TierConfig struct {
	Name         string `yaml:"name"`
	TTL          string `yaml:"ttl"`
	MaxSizeBytes int64  `yaml:"max_size_bytes"`
	Priority     int    `yaml:"priority"`
}

type SmartTTLConfig struct {
	BaseTTL                   string  `yaml:"base_ttl"`
	AccessFrequencyMultiplier float64 `yaml:"access_frequency_multiplier"`
	DataAgeMultiplier         float64 `yaml:"data_age_multiplier"`
	MinTTL                    string  `yaml:"min_ttl"`
	MaxTTL                    string  `yaml:"max_ttl"`
}

type PresetConfig struct {
	Tiers    []TierConfig   `yaml:"tiers"`
	SmartTTL SmartTTLConfig `yaml:"smart_ttl"`
}

// File is the root of a cachekit YAML config document.
type File struct {
	Presets map[string]PresetConfig `yaml:"presets"`
}

// Load reads a YAML file and returns the default preset table with the
// file's overrides applied. Preset names outside the default table are
// appended as new presets.
func Load(path string) ([]manager.Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse applies YAML overrides from data to the default preset table.
func Parse(data []byte) ([]manager.Preset, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	presets := manager.DefaultPresets()
	index := make(map[string]int, len(presets))
	for i, preset := range presets {
		index[preset.Name] = i
	}

	for name, pc := range file.Presets {
		preset, err := buildPreset(name, pc)
		if err != nil {
			return nil, err
		}
		if i, ok := index[name]; ok {
			presets[i] = mergePreset(presets[i], preset)
		} else {
			presets = append(presets, preset)
		}
	}
	return presets, nil
}

func buildPreset(name string, pc PresetConfig) (manager.Preset, error) {
	preset := manager.Preset{Name: name}
	for _, tc := range pc.Tiers {
		ttl, err := parseTTL(name, "tier "+tc.Name, tc.TTL)
		if err != nil {
			return preset, err
		}
		preset.Tiers = append(preset.Tiers, cache.Tier{
			Name:         tc.Name,
			TTL:          ttl,
			MaxSizeBytes: tc.MaxSizeBytes,
			Priority:     tc.Priority,
		})
	}
	smart, err := buildSmartTTL(name, pc.SmartTTL)
	if err != nil {
		return preset, err
	}
	preset.SmartTTL = smart
	return preset, nil
}

func buildSmartTTL(preset string, sc SmartTTLConfig) (cache.SmartTTLConfig, error) {
	var out cache.SmartTTLConfig
	var err error
	if out.BaseTTL, err = parseTTL(preset, "base_ttl", sc.BaseTTL); err != nil {
		return out, err
	}
	if out.MinTTL, err = parseTTL(preset, "min_ttl", sc.MinTTL); err != nil {
		return out, err
	}
	if out.MaxTTL, err = parseTTL(preset, "max_ttl", sc.MaxTTL); err != nil {
		return out, err
	}
	out.AccessFrequencyMultiplier = sc.AccessFrequencyMultiplier
	out.DataAgeMultiplier = sc.DataAgeMultiplier
	return out, nil
}

// mergePreset fills holes in an override with the default preset's values so
// a file can adjust one knob without restating the whole profile.
func mergePreset(def, override manager.Preset) manager.Preset {
	if len(override.Tiers) == 0 {
		override.Tiers = def.Tiers
	}
	if override.SmartTTL.BaseTTL == 0 {
		override.SmartTTL.BaseTTL = def.SmartTTL.BaseTTL
	}
	if override.SmartTTL.AccessFrequencyMultiplier == 0 {
		override.SmartTTL.AccessFrequencyMultiplier = def.SmartTTL.AccessFrequencyMultiplier
	}
	if override.SmartTTL.DataAgeMultiplier == 0 {
		override.SmartTTL.DataAgeMultiplier = def.SmartTTL.DataAgeMultiplier
	}
	if override.SmartTTL.MinTTL == 0 {
		override.SmartTTL.MinTTL = def.SmartTTL.MinTTL
	}
	if override.SmartTTL.MaxTTL == 0 {
		override.SmartTTL.MaxTTL = def.SmartTTL.MaxTTL
	}
	return override
}

func parseTTL(preset, field, val string) (time.Duration, error) {
	if val == "" {
		return 0, nil
	}
	d, err := str2duration.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("config: preset %s %s: %w", preset, field, err)
	}
	return d, nil
}
