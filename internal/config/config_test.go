package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	e := cfg.Exploration
	if e.ExplorationRadiusMeters != DefaultExplorationRadiusMeters {
		t.Errorf("exploration radius = %f", e.ExplorationRadiusMeters)
	}
	if e.ClusteringRadiusMeters != DefaultExplorationRadiusMeters/2 {
		t.Errorf("clustering radius = %f, want half of exploration radius", e.ClusteringRadiusMeters)
	}
	if e.MinFixInterval != 5*time.Second {
		t.Errorf("min fix interval = %v", e.MinFixInterval)
	}
	if !e.AutoEnrichNewRegions {
		t.Error("auto enrich should default to true")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("EXPLORATION_RADIUS_METERS", "400")
	t.Setenv("MAX_REGIONS_IN_MEMORY", "25")
	t.Setenv("AUTO_ENRICH_NEW_REGIONS", "false")
	t.Setenv("MIN_FIX_INTERVAL", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	e := cfg.Exploration
	if e.ExplorationRadiusMeters != 400 || e.ClusteringRadiusMeters != 200 {
		t.Errorf("radii = %f/%f", e.ExplorationRadiusMeters, e.ClusteringRadiusMeters)
	}
	if e.MaxRegionsInMemory != 25 {
		t.Errorf("max regions = %d", e.MaxRegionsInMemory)
	}
	if e.AutoEnrichNewRegions {
		t.Error("auto enrich should be disabled")
	}
	if e.MinFixInterval != 2*time.Second {
		t.Errorf("min fix interval = %v", e.MinFixInterval)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roqua.yaml")
	if err := os.WriteFile(path, []byte("TRACKING_DISTANCE_METERS: 80\nCLUSTERING_RADIUS_METERS: 60\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Exploration.TrackingDistanceMeters != 80 {
		t.Errorf("tracking distance = %f", cfg.Exploration.TrackingDistanceMeters)
	}
	if cfg.Exploration.ClusteringRadiusMeters != 60 {
		t.Errorf("explicit clustering radius overridden: %f", cfg.Exploration.ClusteringRadiusMeters)
	}
}

func TestNormalizeRepairsInvalidValues(t *testing.T) {
	e := Exploration{ExplorationRadiusMeters: -3, PercentageDecimalPlaces: 99}
	e.Normalize()
	if e.ExplorationRadiusMeters != DefaultExplorationRadiusMeters {
		t.Errorf("exploration radius = %f", e.ExplorationRadiusMeters)
	}
	if e.PercentageDecimalPlaces != DefaultPercentageDecimalPlaces {
		t.Errorf("decimal places = %d", e.PercentageDecimalPlaces)
	}
}
