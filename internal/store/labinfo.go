package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/immersive-lab/lab-api/internal/models"
)

// LabInfoStore persists the single lab description row.
type LabInfoStore struct {
	db *sql.DB
}

func NewLabInfoStore(db *sql.DB) *LabInfoStore {
	return &LabInfoStore{db: db}
}

const labInfoColumns = `id, lab_name, description, COALESCE(research_areas,''), COALESCE(facilities,''),
	location, COALESCE(contact_email,''), COALESCE(contact_phone,''), director_id, created_at, updated_at`

func scanLabInfo(row interface{ Scan(...any) error }) (*models.LabInfo, error) {
	var li models.LabInfo
	err := row.Scan(&li.ID, &li.LabName, &li.Description, &li.ResearchAreas, &li.Facilities,
		&li.Location, &li.ContactEmail, &li.ContactPhone, &li.DirectorID, &li.CreatedAt, &li.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &li, nil
}

// Get returns the first (and only expected) lab_info row, (nil, nil) when the
// table is empty.
func (s *LabInfoStore) Get(ctx context.Context) (*models.LabInfo, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+labInfoColumns+` FROM lab_info ORDER BY id ASC LIMIT 1`)
	return scanLabInfo(row)
}

// Upsert writes the lab description, creating the row on first use.
func (s *LabInfoStore) Upsert(ctx context.Context, li *models.LabInfo) (*models.LabInfo, error) {
	existing, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		row := s.db.QueryRowContext(ctx, `
			INSERT INTO lab_info (lab_name, description, research_areas, facilities, location, contact_email, contact_phone, director_id)
			VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), $5, NULLIF($6,''), NULLIF($7,''), $8)
			RETURNING `+labInfoColumns+`
		`, li.LabName, li.Description, li.ResearchAreas, li.Facilities, li.Location, li.ContactEmail, li.ContactPhone, li.DirectorID)
		return scanLabInfo(row)
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE lab_info
		SET lab_name = $2, description = $3, research_areas = NULLIF($4,''), facilities = NULLIF($5,''),
			location = $6, contact_email = NULLIF($7,''), contact_phone = NULLIF($8,''), director_id = $9,
			updated_at = now()
		WHERE id = $1
		RETURNING `+labInfoColumns+`
	`, existing.ID, li.LabName, li.Description, li.ResearchAreas, li.Facilities, li.Location, li.ContactEmail, li.ContactPhone, li.DirectorID)
	return scanLabInfo(row)
}
