// Package demcfg loads digital elevation model configuration files. The
// config carries the WGS-84 origin every pose is expressed relative to.
package demcfg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// ErrIncomplete reports a DEM config that parses but is missing the
// origin or one of its fields.
var ErrIncomplete = errors.New("demcfg: incomplete DEM config")

// Origin is the WGS-84 reference point of a DEM tile.
type Origin struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// Config is the root DEM configuration document.
type Config struct {
	OriginWGS84 Origin `json:"origin_wgs84"`
}

// rawConfig keeps field presence visible so a config missing any origin
// field is rejected instead of silently zero-filled.
type rawConfig struct {
	OriginWGS84 *struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Altitude  *float64 `json:"altitude"`
	} `json:"origin_wgs84"`
}

// Load reads a DEM config from a JSON file. Every origin field must be
// present; a partial config fails with ErrIncomplete.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("demcfg: config file must have .json extension, got %q", ext)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("demcfg: read %s: %w", cleanPath, err)
	}
	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("demcfg: parse %s: %w", cleanPath, err)
	}
	if raw.OriginWGS84 == nil {
		return nil, fmt.Errorf("%w: %s has no origin_wgs84", ErrIncomplete, cleanPath)
	}
	origin := raw.OriginWGS84
	switch {
	case origin.Latitude == nil:
		return nil, fmt.Errorf("%w: %s origin has no latitude", ErrIncomplete, cleanPath)
	case origin.Longitude == nil:
		return nil, fmt.Errorf("%w: %s origin has no longitude", ErrIncomplete, cleanPath)
	case origin.Altitude == nil:
		return nil, fmt.Errorf("%w: %s origin has no altitude", ErrIncomplete, cleanPath)
	}
	return &Config{OriginWGS84: Origin{
		Latitude:  *origin.Latitude,
		Longitude: *origin.Longitude,
		Altitude:  *origin.Altitude,
	}}, nil
}

// LoadOrZero loads a DEM config, falling back to a zero origin when the
// file is missing or unreadable. Missing configs are common for flights
// without an elevation model; poses then come out relative to sea level
// at the null island.
func LoadOrZero(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		return &Config{}
	}
	return cfg
}
