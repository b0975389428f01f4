package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/badursun/Roqua-sub000/internal/database"
	"github.com/badursun/Roqua-sub000/internal/logger"
	"github.com/badursun/Roqua-sub000/internal/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.NewMigrationManager(db, logger.Discard()).RunMigrations(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func TestRegionRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRegionRepository(setupTestDB(t))

	first := time.Date(2024, 4, 1, 8, 30, 0, 0, time.UTC)
	acc := 12.5
	region := models.VisitedRegion{
		Latitude: 41.0082, Longitude: 28.9784, Radius: 150,
		FirstVisitAt: first, VisitCount: 1, Geohash: "sxk973m", Accuracy: &acc,
	}

	id, err := repo.Insert(ctx, region)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id <= 0 {
		t.Fatalf("id = %d", id)
	}

	last := first.Add(time.Hour)
	region.ID = &id
	region.LastVisitAt = &last
	region.VisitCount = 2
	region.City = "Istanbul"
	region.CountryCode = "tr"
	if err := repo.Update(ctx, region); err != nil {
		t.Fatalf("Update: %v", err)
	}

	all, err := repo.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("len = %d", len(all))
	}
	got := all[0]
	if *got.ID != id || got.VisitCount != 2 || got.City != "Istanbul" || got.District != "" {
		t.Errorf("got %+v", got)
	}
	if !got.FirstVisitAt.Equal(first) || got.LastVisitAt == nil || !got.LastVisitAt.Equal(last) {
		t.Errorf("timestamps = %v / %v", got.FirstVisitAt, got.LastVisitAt)
	}
	if got.Accuracy == nil || *got.Accuracy != acc || got.Area != nil {
		t.Errorf("optional floats = %v / %v", got.Accuracy, got.Area)
	}

	n, _ := repo.Count(ctx)
	if n != 1 {
		t.Errorf("count = %d", n)
	}
	if err := repo.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if all, _ := repo.FetchAll(ctx); len(all) != 0 {
		t.Errorf("rows after delete = %d", len(all))
	}
}

func TestRegionRepositoryUpdateMissing(t *testing.T) {
	repo := NewRegionRepository(setupTestDB(t))
	id := int64(99)
	err := repo.Update(context.Background(), models.VisitedRegion{ID: &id, Radius: 1, VisitCount: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := repo.Update(context.Background(), models.VisitedRegion{Radius: 1, VisitCount: 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("nil id err = %v", err)
	}
}

func TestRegionRepositoryRejectsInvalidRadius(t *testing.T) {
	repo := NewRegionRepository(setupTestDB(t))
	_, err := repo.Insert(context.Background(), models.VisitedRegion{Radius: 0, VisitCount: 1, FirstVisitAt: time.Now()})
	if err == nil {
		t.Error("expected check constraint failure")
	}
}

func TestCoverageRepositoryReplacesSet(t *testing.T) {
	ctx := context.Background()
	repo := NewCoverageRepository(setupTestDB(t))

	if err := repo.SaveCells(ctx, []string{"1_2", "1_3"}); err != nil {
		t.Fatalf("SaveCells: %v", err)
	}
	if err := repo.SaveCells(ctx, []string{"1_2", "1_3", "2_3", "2_3"}); err != nil {
		t.Fatalf("SaveCells: %v", err)
	}
	cells, err := repo.LoadCells(ctx)
	if err != nil {
		t.Fatalf("LoadCells: %v", err)
	}
	if len(cells) != 3 || cells[0] != "1_2" || cells[2] != "2_3" {
		t.Errorf("cells = %v", cells)
	}

	if err := repo.DeleteAll(ctx); err != nil {
		t.Fatal(err)
	}
	if cells, _ := repo.LoadCells(ctx); len(cells) != 0 {
		t.Errorf("cells after delete = %v", cells)
	}
}

func TestProgressRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewProgressRepository(setupTestDB(t))

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	progress := []models.AchievementProgress{
		{AchievementID: "first_step", CurrentProgress: 1, TargetProgress: 1, IsUnlocked: true, UnlockedAt: &now, LastUpdated: now},
		{AchievementID: "explorer_10", CurrentProgress: 3, TargetProgress: 10, LastUpdated: now},
	}
	if err := repo.SaveProgress(ctx, progress); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}
	progress[1].CurrentProgress = 4
	if err := repo.SaveProgress(ctx, progress[1:]); err != nil {
		t.Fatalf("SaveProgress upsert: %v", err)
	}

	loaded, err := repo.LoadProgress(ctx)
	if err != nil {
		t.Fatalf("LoadProgress: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("len = %d", len(loaded))
	}
	byID := map[string]models.AchievementProgress{}
	for _, p := range loaded {
		byID[p.AchievementID] = p
	}
	if p := byID["explorer_10"]; p.CurrentProgress != 4 || p.IsUnlocked || p.UnlockedAt != nil {
		t.Errorf("explorer_10 = %+v", p)
	}
	if p := byID["first_step"]; !p.IsUnlocked || p.UnlockedAt == nil || !p.UnlockedAt.Equal(now) {
		t.Errorf("first_step = %+v", p)
	}

	unlocks := []models.RecentUnlock{
		{ID: "b", AchievementID: "explorer_10", Title: "Wanderer", Rarity: "common", UnlockedAt: now.Add(time.Hour)},
		{ID: "a", AchievementID: "first_step", Title: "First Step", Rarity: "common", UnlockedAt: now},
	}
	if err := repo.SaveRecentUnlocks(ctx, unlocks); err != nil {
		t.Fatalf("SaveRecentUnlocks: %v", err)
	}
	recent, err := repo.LoadRecentUnlocks(ctx)
	if err != nil {
		t.Fatalf("LoadRecentUnlocks: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "b" || recent[1].ID != "a" {
		t.Errorf("recent = %+v", recent)
	}

	if err := repo.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if p, _ := repo.LoadProgress(ctx); len(p) != 0 {
		t.Errorf("progress after delete = %d", len(p))
	}
	if r, _ := repo.LoadRecentUnlocks(ctx); len(r) != 0 {
		t.Errorf("recent after delete = %d", len(r))
	}
}
