package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if cfg.Cache.Backend != "filesystem" {
		t.Errorf("cache backend = %s", cfg.Cache.Backend)
	}
	if cfg.Cache.MaxMemoryMB != 64 || cfg.Cache.MaxDiskMB != 512 {
		t.Errorf("cache sizes = %d/%d MB", cfg.Cache.MaxMemoryMB, cfg.Cache.MaxDiskMB)
	}
	if cfg.Cache.DefaultExpiry != 168*time.Hour {
		t.Errorf("default expiry = %s", cfg.Cache.DefaultExpiry)
	}
	if cfg.OSM.DefaultZoom != 15 {
		t.Errorf("default zoom = %d", cfg.OSM.DefaultZoom)
	}
	if cfg.World.Scale != 1 {
		t.Errorf("world scale = %f", cfg.World.Scale)
	}
	if cfg.Streamer.LoadRadius != 2 || cfg.Streamer.UnloadRadius != 3 {
		t.Errorf("streamer radii = %d/%d", cfg.Streamer.LoadRadius, cfg.Streamer.UnloadRadius)
	}
	if cfg.Streamer.LoadTimeout != 2*time.Minute {
		t.Errorf("load timeout = %s", cfg.Streamer.LoadTimeout)
	}
	if cfg.Debug.Port != "8090" {
		t.Errorf("debug port = %s", cfg.Debug.Port)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "sqlite")
	t.Setenv("CACHE_REDIS_ENABLED", "true")
	t.Setenv("WORLD_SCALE", "2.5")
	t.Setenv("WORLD_PROCESS_ELEVATION", "false")
	t.Setenv("STREAMER_MAX_CONCURRENT_LOADS", "8")
	t.Setenv("LOGGER_LEVEL", "debug")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if cfg.Cache.Backend != "sqlite" {
		t.Errorf("cache backend = %s", cfg.Cache.Backend)
	}
	if !cfg.Cache.Redis.Enabled {
		t.Error("redis not enabled")
	}
	if cfg.World.Scale != 2.5 {
		t.Errorf("world scale = %f", cfg.World.Scale)
	}
	if cfg.World.ProcessElevation {
		t.Error("elevation processing still on")
	}
	if cfg.Streamer.MaxConcurrentLoads != 8 {
		t.Errorf("max concurrent loads = %d", cfg.Streamer.MaxConcurrentLoads)
	}
	if cfg.Logger.Level != "debug" {
		t.Errorf("log level = %s", cfg.Logger.Level)
	}
}

func TestValidationRejectsBadValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"CACHE_BACKEND", "memcached"},
		{"CACHE_MAX_MEMORY_MB", "0"},
		{"OSM_DEFAULT_ZOOM", "25"},
		{"OSM_OVERPASS_ENDPOINT", "not-a-url"},
		{"WORLD_ORIGIN_LAT", "120"},
		{"WORLD_SCALE", "0"},
		{"STREAMER_MAX_CONCURRENT_LOADS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := New(); err == nil {
				t.Errorf("%s=%s accepted", tt.key, tt.value)
			}
		})
	}
}

func TestLoadJSONOverlay(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path := filepath.Join(t.TempDir(), "config.json")
	overlay := `{
		"world": {"originLat": 52.5, "originLon": 13.4, "scale": 2},
		"streamer": {"loadRadius": 4, "unloadRadius": 5}
	}`
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatal(err)
	}

	if err := cfg.LoadJSON(path); err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}

	if cfg.World.OriginLat != 52.5 || cfg.World.OriginLon != 13.4 {
		t.Errorf("origin = %f, %f", cfg.World.OriginLat, cfg.World.OriginLon)
	}
	if cfg.World.Scale != 2 {
		t.Errorf("scale = %f", cfg.World.Scale)
	}
	if cfg.Streamer.LoadRadius != 4 || cfg.Streamer.UnloadRadius != 5 {
		t.Errorf("radii = %d/%d", cfg.Streamer.LoadRadius, cfg.Streamer.UnloadRadius)
	}

	// Untouched sections keep their environment defaults.
	if cfg.Cache.Backend != "filesystem" {
		t.Errorf("cache backend = %s after overlay", cfg.Cache.Backend)
	}
}

func TestLoadJSONMissingFileIsNotAnError(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := cfg.LoadJSON(filepath.Join(t.TempDir(), "absent.json")); err != nil {
		t.Errorf("missing overlay returned %v", err)
	}
}

func TestLoadJSONRejectsInvalidContent(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := cfg.LoadJSON(path); err == nil {
		t.Error("invalid JSON accepted")
	}

	// Overlays are validated like everything else.
	invalid := filepath.Join(t.TempDir(), "invalid.json")
	if err := os.WriteFile(invalid, []byte(`{"world": {"scale": -1}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := cfg.LoadJSON(invalid); err == nil {
		t.Error("invalid overlay value accepted")
	}
}

func TestSaveJSONRoundTrip(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cfg.World.OriginLat = 40.7
	cfg.World.OriginLon = -74.0

	path := filepath.Join(t.TempDir(), "saved.json")
	if err := cfg.SaveJSON(path); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}

	loaded, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := loaded.LoadJSON(path); err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}

	if loaded.World.OriginLat != 40.7 || loaded.World.OriginLon != -74.0 {
		t.Errorf("origin = %f, %f", loaded.World.OriginLat, loaded.World.OriginLon)
	}
}
