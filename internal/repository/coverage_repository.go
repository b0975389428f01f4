package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/badursun/Roqua-sub000/internal/database"
)

// CoverageRepository persists the visited coverage cell set
type CoverageRepository struct {
	db *sql.DB
}

// NewCoverageRepository creates a new coverage repository
func NewCoverageRepository(db *sql.DB) *CoverageRepository {
	return &CoverageRepository{db: db}
}

// SaveCells replaces the stored cell set in one transaction
func (r *CoverageRepository) SaveCells(ctx context.Context, cells []string) error {
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM coverage_cells"); err != nil {
			return fmt.Errorf("failed to clear coverage cells: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO coverage_cells (cell_key) VALUES (?)")
		if err != nil {
			return fmt.Errorf("failed to prepare coverage insert: %w", err)
		}
		defer stmt.Close()

		for _, key := range cells {
			if _, err := stmt.ExecContext(ctx, key); err != nil {
				return fmt.Errorf("failed to insert coverage cell %s: %w", key, err)
			}
		}
		return nil
	})
}

// LoadCells returns the stored cell keys in sorted order
func (r *CoverageRepository) LoadCells(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT cell_key FROM coverage_cells ORDER BY cell_key")
	if err != nil {
		return nil, fmt.Errorf("failed to query coverage cells: %w", err)
	}
	defer rows.Close()

	var cells []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan coverage cell: %w", err)
		}
		cells = append(cells, key)
	}
	return cells, rows.Err()
}

// DeleteAll removes every stored cell
func (r *CoverageRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM coverage_cells"); err != nil {
		return fmt.Errorf("failed to delete coverage cells: %w", err)
	}
	return nil
}
