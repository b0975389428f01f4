// Package coverage maintains the quantized world grid of visited cells and
// derives the exploration percentage from it.
package coverage

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/badursun/Roqua-sub000/internal/events"
	"github.com/badursun/Roqua-sub000/internal/metrics"
	"github.com/badursun/Roqua-sub000/internal/models"
	"github.com/badursun/Roqua-sub000/internal/spatial"
)

// Store persists the visited cell set as a flat list
type Store interface {
	SaveCells(ctx context.Context, cells []string) error
	LoadCells(ctx context.Context) ([]string, error)
	DeleteAll(ctx context.Context) error
}

// Index is the grid coverage index. The cell size is always half the
// exploration radius so coverage and clustering stay consistent.
type Index struct {
	mu    sync.RWMutex
	cells map[string]struct{}

	explorationRadius float64
	cellSizeDeg       float64
	totalCells        float64
	decimalPlaces     int

	store     Store
	publisher events.Publisher
	logger    *slog.Logger
}

// NewIndex creates a coverage index. store and publisher may be nil.
func NewIndex(explorationRadiusMeters float64, decimalPlaces int, store Store, publisher events.Publisher, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	x := &Index{
		cells:         make(map[string]struct{}),
		decimalPlaces: decimalPlaces,
		store:         store,
		publisher:     publisher,
		logger:        logger,
	}
	x.setExplorationRadiusLocked(explorationRadiusMeters)
	return x
}

func (x *Index) setExplorationRadiusLocked(meters float64) {
	if meters <= 0 {
		meters = 150
	}
	x.explorationRadius = meters
	x.cellSizeDeg = spatial.MetersToDegrees(meters / 2)
	x.totalCells = (180 / x.cellSizeDeg) * (360 / x.cellSizeDeg)
}

// SetExplorationRadius changes the cell size and recomputes the world total.
// Existing keys are kept; percentages before and after are not comparable.
func (x *Index) SetExplorationRadius(meters float64) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.setExplorationRadiusLocked(meters)
}

// SetDecimalPlaces changes the precision of FormattedPercentage
func (x *Index) SetDecimalPlaces(places int) {
	x.mu.Lock()
	x.decimalPlaces = places
	x.mu.Unlock()
}

// CellSizeDegrees returns the current cell edge in degrees
func (x *Index) CellSizeDegrees() float64 {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.cellSizeDeg
}

// TotalWorldCells returns the fixed estimate of cells covering the globe
func (x *Index) TotalWorldCells() float64 {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.totalCells
}

// Register rasterizes the region footprint into the cell set. When the set
// grows the full set is persisted and a percentage event is published.
// Returns the number of newly visited cells.
func (x *Index) Register(ctx context.Context, region models.VisitedRegion) int {
	x.mu.Lock()
	keys := CellsForRegion(region.Latitude, region.Longitude, region.Radius, x.cellSizeDeg)

	oldPct := x.percentageLocked()
	added := 0
	for _, k := range keys {
		if _, ok := x.cells[k]; !ok {
			x.cells[k] = struct{}{}
			added++
		}
	}
	if added == 0 {
		x.mu.Unlock()
		return 0
	}

	newPct := x.percentageLocked()
	if x.store != nil {
		if err := x.store.SaveCells(ctx, x.sortedLocked()); err != nil {
			x.logger.Error("coverage_persist_failed", "cells", len(x.cells), "err", err)
		}
	}
	x.mu.Unlock()

	metrics.CoveragePercentage.Set(newPct)
	metrics.CoverageCellsTotal.Add(float64(added))
	x.logger.Debug("coverage_registered", "added", added, "percentage", newPct)

	if x.publisher != nil {
		x.publisher.Publish(events.NewPercentageEvent(oldPct, newPct))
	}
	return added
}

// Percentage returns visited / total * 100
func (x *Index) Percentage() float64 {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.percentageLocked()
}

func (x *Index) percentageLocked() float64 {
	if x.totalCells <= 0 {
		return 0
	}
	return float64(len(x.cells)) / x.totalCells * 100
}

// FormattedPercentage renders the percentage with the configured decimal places
func (x *Index) FormattedPercentage() string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return strconv.FormatFloat(x.percentageLocked(), 'f', x.decimalPlaces, 64)
}

// CellCount returns the number of visited cells
func (x *Index) CellCount() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.cells)
}

// ExportCells returns the visited cell keys in sorted order
func (x *Index) ExportCells() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.sortedLocked()
}

func (x *Index) sortedLocked() []string {
	out := make([]string, 0, len(x.cells))
	for k := range x.cells {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ImportCells replaces the visited set with the given keys
func (x *Index) ImportCells(cells []string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.cells = make(map[string]struct{}, len(cells))
	for _, k := range cells {
		if k != "" {
			x.cells[k] = struct{}{}
		}
	}
	metrics.CoveragePercentage.Set(x.percentageLocked())
}

// Load imports the persisted cell set
func (x *Index) Load(ctx context.Context) error {
	if x.store == nil {
		return nil
	}
	cells, err := x.store.LoadCells(ctx)
	if err != nil {
		return fmt.Errorf("failed to load coverage cells: %w", err)
	}
	x.ImportCells(cells)
	x.logger.Info("coverage_loaded", "cells", len(cells))
	return nil
}

// Reset clears the visited set in memory and in the store
func (x *Index) Reset(ctx context.Context) error {
	x.mu.Lock()
	oldPct := x.percentageLocked()
	x.cells = make(map[string]struct{})
	x.mu.Unlock()

	metrics.CoveragePercentage.Set(0)
	if x.publisher != nil && oldPct > 0 {
		x.publisher.Publish(events.NewPercentageEvent(oldPct, 0))
	}
	if x.store == nil {
		return nil
	}
	if err := x.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to clear coverage cells: %w", err)
	}
	return nil
}

// CellKey returns the key of the cell containing the coordinate
func CellKey(lat, lon, cellSizeDeg float64) string {
	i := int64(math.Floor(lat / cellSizeDeg))
	j := int64(math.Floor(spatial.NormalizeLongitude(lon) / cellSizeDeg))
	return cellKey(i, j)
}

func cellKey(i, j int64) string {
	return strconv.FormatInt(i, 10) + "_" + strconv.FormatInt(j, 10)
}

// CellsForRegion walks a square lattice of ceil(radius/cellSize)+1 steps around
// the center cell and keeps every cell whose center lies within radius.
func CellsForRegion(lat, lon, radius, cellSizeDeg float64) []string {
	if radius <= 0 || cellSizeDeg <= 0 {
		return nil
	}
	cellMeters := spatial.DegreesToMeters(cellSizeDeg)
	steps := int64(math.Ceil(radius/cellMeters)) + 1

	ci := int64(math.Floor(lat / cellSizeDeg))
	cj := int64(math.Floor(lon / cellSizeDeg))

	seen := make(map[string]struct{})
	keys := make([]string, 0, (2*steps+1)*(2*steps+1))
	for di := -steps; di <= steps; di++ {
		i := ci + di
		cellLat := (float64(i) + 0.5) * cellSizeDeg
		if cellLat < -90 || cellLat > 90 {
			continue
		}
		for dj := -steps; dj <= steps; dj++ {
			cellLon := spatial.NormalizeLongitude((float64(cj+dj) + 0.5) * cellSizeDeg)
			if spatial.HaversineDistance(cellLat, cellLon, lat, lon) > radius {
				continue
			}
			k := cellKey(i, int64(math.Floor(cellLon/cellSizeDeg)))
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}
