package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/badursun/Roqua-sub000/internal/achievement"
	"github.com/badursun/Roqua-sub000/internal/config"
	"github.com/badursun/Roqua-sub000/internal/coverage"
	"github.com/badursun/Roqua-sub000/internal/ingest"
	"github.com/badursun/Roqua-sub000/internal/models"
	"github.com/badursun/Roqua-sub000/internal/region"
)

// CoverageSummary describes the coverage index state
type CoverageSummary struct {
	Percentage          float64 `json:"percentage"`
	FormattedPercentage string  `json:"formattedPercentage"`
	Cells               int     `json:"cells"`
	TotalWorldCells     float64 `json:"totalWorldCells"`
	CellSizeDegrees     float64 `json:"cellSizeDegrees"`
}

// Summary is the overall exploration state
type Summary struct {
	Regions      region.Stats      `json:"regions"`
	Coverage     CoverageSummary   `json:"coverage"`
	Achievements achievement.Stats `json:"achievements"`
}

// ExplorationService coordinates operations spanning several components
type ExplorationService struct {
	store    *region.Store
	coverage *coverage.Index
	engine   *achievement.Engine
	pipeline *ingest.Pipeline
}

// NewExplorationService creates a new exploration service
func NewExplorationService(store *region.Store, index *coverage.Index, engine *achievement.Engine, pipeline *ingest.Pipeline) *ExplorationService {
	return &ExplorationService{store: store, coverage: index, engine: engine, pipeline: pipeline}
}

// Settings returns the active exploration settings
func (s *ExplorationService) Settings() config.Exploration {
	return s.store.Settings()
}

// ApplySettings pushes new settings to every component and returns the
// normalized result. Changing the exploration radius changes the cell size.
func (s *ExplorationService) ApplySettings(settings config.Exploration) config.Exploration {
	settings.Normalize()
	s.store.ApplySettings(settings)
	s.pipeline.ApplySettings(settings)
	s.coverage.SetExplorationRadius(settings.ExplorationRadiusMeters)
	s.coverage.SetDecimalPlaces(settings.PercentageDecimalPlaces)
	return settings
}

// Recompute re-evaluates the full achievement catalog
func (s *ExplorationService) Recompute(ctx context.Context) []models.AchievementProgress {
	return s.engine.RecomputeAll(ctx)
}

// Reset clears regions, coverage and achievement progress
func (s *ExplorationService) Reset(ctx context.Context) error {
	var errs []error
	if err := s.engine.Reset(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Reset(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to reset regions: %w", err))
	}
	if err := s.coverage.Reset(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Coverage returns the coverage summary
func (s *ExplorationService) Coverage() CoverageSummary {
	return CoverageSummary{
		Percentage:          s.coverage.Percentage(),
		FormattedPercentage: s.coverage.FormattedPercentage(),
		Cells:               s.coverage.CellCount(),
		TotalWorldCells:     s.coverage.TotalWorldCells(),
		CellSizeDegrees:     s.coverage.CellSizeDegrees(),
	}
}

// Summary returns region, coverage and achievement counts
func (s *ExplorationService) Summary() Summary {
	return Summary{
		Regions:      s.store.Stats(),
		Coverage:     s.Coverage(),
		Achievements: s.engine.Stats(),
	}
}

// Cells returns the sorted visited cell keys
func (s *ExplorationService) Cells() []string {
	return s.coverage.ExportCells()
}
