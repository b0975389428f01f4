package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/badursun/Roqua-sub000/internal/database"
	"github.com/badursun/Roqua-sub000/internal/models"
)

// ProgressRepository persists achievement progress and recent unlocks
type ProgressRepository struct {
	db *sql.DB
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *sql.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// SaveProgress upserts a batch of progress records
func (r *ProgressRepository) SaveProgress(ctx context.Context, progress []models.AchievementProgress) error {
	if len(progress) == 0 {
		return nil
	}
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO achievement_progress
			(achievement_id, current_progress, target_progress, is_unlocked, unlocked_at, last_updated)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(achievement_id) DO UPDATE SET
				current_progress = excluded.current_progress,
				target_progress = excluded.target_progress,
				is_unlocked = excluded.is_unlocked,
				unlocked_at = excluded.unlocked_at,
				last_updated = excluded.last_updated`)
		if err != nil {
			return fmt.Errorf("failed to prepare progress upsert: %w", err)
		}
		defer stmt.Close()

		for _, p := range progress {
			var unlockedAt interface{}
			if p.UnlockedAt != nil {
				unlockedAt = toMillis(*p.UnlockedAt)
			}
			_, err := stmt.ExecContext(ctx, p.AchievementID, p.CurrentProgress, p.TargetProgress,
				p.IsUnlocked, unlockedAt, toMillis(p.LastUpdated))
			if err != nil {
				return fmt.Errorf("failed to save progress %s: %w", p.AchievementID, err)
			}
		}
		return nil
	})
}

// LoadProgress returns every stored progress record
func (r *ProgressRepository) LoadProgress(ctx context.Context) ([]models.AchievementProgress, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT achievement_id, current_progress, target_progress,
		is_unlocked, unlocked_at, last_updated FROM achievement_progress ORDER BY achievement_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	var out []models.AchievementProgress
	for rows.Next() {
		var (
			p          models.AchievementProgress
			unlockedAt sql.NullInt64
			updated    int64
		)
		if err := rows.Scan(&p.AchievementID, &p.CurrentProgress, &p.TargetProgress,
			&p.IsUnlocked, &unlockedAt, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		if unlockedAt.Valid {
			t := fromMillis(unlockedAt.Int64)
			p.UnlockedAt = &t
		}
		p.LastUpdated = fromMillis(updated)
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveRecentUnlocks replaces the recent unlock list; order is preserved
func (r *ProgressRepository) SaveRecentUnlocks(ctx context.Context, unlocks []models.RecentUnlock) error {
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM recent_unlocks"); err != nil {
			return fmt.Errorf("failed to clear recent unlocks: %w", err)
		}
		for i, u := range unlocks {
			_, err := tx.ExecContext(ctx, `INSERT INTO recent_unlocks
				(id, position, achievement_id, title, rarity, unlocked_at) VALUES (?, ?, ?, ?, ?, ?)`,
				u.ID, i, u.AchievementID, u.Title, u.Rarity, toMillis(u.UnlockedAt))
			if err != nil {
				return fmt.Errorf("failed to save recent unlock %s: %w", u.ID, err)
			}
		}
		return nil
	})
}

// LoadRecentUnlocks returns the stored recent unlocks, newest first
func (r *ProgressRepository) LoadRecentUnlocks(ctx context.Context) ([]models.RecentUnlock, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, achievement_id, title, rarity, unlocked_at
		FROM recent_unlocks ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent unlocks: %w", err)
	}
	defer rows.Close()

	var out []models.RecentUnlock
	for rows.Next() {
		var (
			u  models.RecentUnlock
			at int64
		)
		if err := rows.Scan(&u.ID, &u.AchievementID, &u.Title, &u.Rarity, &at); err != nil {
			return nil, fmt.Errorf("failed to scan recent unlock: %w", err)
		}
		u.UnlockedAt = fromMillis(at)
		out = append(out, u)
	}
	return out, rows.Err()
}

// DeleteAll clears progress and recent unlocks
func (r *ProgressRepository) DeleteAll(ctx context.Context) error {
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM achievement_progress"); err != nil {
			return fmt.Errorf("failed to delete progress: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM recent_unlocks"); err != nil {
			return fmt.Errorf("failed to delete recent unlocks: %w", err)
		}
		return nil
	})
}
