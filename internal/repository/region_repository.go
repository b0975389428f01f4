package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/badursun/Roqua-sub000/internal/models"
)

// ErrNotFound is returned when an update matches no row
var ErrNotFound = errors.New("record not found")

// RegionRepository handles database operations for visited regions
type RegionRepository struct {
	db *sql.DB
}

// NewRegionRepository creates a new region repository
func NewRegionRepository(db *sql.DB) *RegionRepository {
	return &RegionRepository{db: db}
}

const regionColumns = `latitude, longitude, radius, first_visit_at, last_visit_at, visit_count,
	city, district, country, country_code, poi_name, poi_category, geohash, accuracy, area`

// Insert stores a new region and returns its id
func (r *RegionRepository) Insert(ctx context.Context, region models.VisitedRegion) (int64, error) {
	query := `INSERT INTO visited_regions (` + regionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, regionArgs(region)...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert region: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get region id: %w", err)
	}
	return id, nil
}

// Update overwrites a persisted region
func (r *RegionRepository) Update(ctx context.Context, region models.VisitedRegion) error {
	if region.ID == nil {
		return fmt.Errorf("failed to update region: %w", ErrNotFound)
	}
	query := `UPDATE visited_regions SET
		latitude = ?, longitude = ?, radius = ?, first_visit_at = ?, last_visit_at = ?, visit_count = ?,
		city = ?, district = ?, country = ?, country_code = ?, poi_name = ?, poi_category = ?,
		geohash = ?, accuracy = ?, area = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	args := append(regionArgs(region), *region.ID)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update region %d: %w", *region.ID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update region %d: %w", *region.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("failed to update region %d: %w", *region.ID, ErrNotFound)
	}
	return nil
}

// FetchAll returns every region ordered by first visit
func (r *RegionRepository) FetchAll(ctx context.Context) ([]models.VisitedRegion, error) {
	query := `SELECT id, ` + regionColumns + ` FROM visited_regions ORDER BY first_visit_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query regions: %w", err)
	}
	defer rows.Close()

	var regions []models.VisitedRegion
	for rows.Next() {
		var (
			region   models.VisitedRegion
			id       int64
			first    int64
			last     sql.NullInt64
			city     sql.NullString
			district sql.NullString
			country  sql.NullString
			code     sql.NullString
			poiName  sql.NullString
			poiCat   sql.NullString
			geohash  sql.NullString
			accuracy sql.NullFloat64
			area     sql.NullFloat64
		)
		err := rows.Scan(&id, &region.Latitude, &region.Longitude, &region.Radius, &first, &last, &region.VisitCount,
			&city, &district, &country, &code, &poiName, &poiCat, &geohash, &accuracy, &area)
		if err != nil {
			return nil, fmt.Errorf("failed to scan region: %w", err)
		}

		region.ID = &id
		region.FirstVisitAt = fromMillis(first)
		if last.Valid {
			t := fromMillis(last.Int64)
			region.LastVisitAt = &t
		}
		region.City = city.String
		region.District = district.String
		region.Country = country.String
		region.CountryCode = code.String
		region.POIName = poiName.String
		region.POICategory = poiCat.String
		region.Geohash = geohash.String
		region.Accuracy = floatPtr(accuracy)
		region.Area = floatPtr(area)

		regions = append(regions, region)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate regions: %w", err)
	}
	return regions, nil
}

// DeleteAll removes every region
func (r *RegionRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM visited_regions"); err != nil {
		return fmt.Errorf("failed to delete regions: %w", err)
	}
	return nil
}

// Count returns the number of stored regions
func (r *RegionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM visited_regions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count regions: %w", err)
	}
	return n, nil
}

func regionArgs(region models.VisitedRegion) []interface{} {
	var last interface{}
	if region.LastVisitAt != nil {
		last = toMillis(*region.LastVisitAt)
	}
	return []interface{}{
		region.Latitude, region.Longitude, region.Radius,
		toMillis(region.FirstVisitAt), last, region.VisitCount,
		nullString(region.City), nullString(region.District), nullString(region.Country),
		nullString(region.CountryCode), nullString(region.POIName), nullString(region.POICategory),
		nullString(region.Geohash), nullFloat(region.Accuracy), nullFloat(region.Area),
	}
}
