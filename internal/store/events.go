package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/immersive-lab/lab-api/internal/models"
)

// EventStore persists calendar entries.
type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

const eventColumns = `id, title, start_at, end_at, created_by, COALESCE(category,'')`

func scanEvent(row interface{ Scan(...any) error }) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Title, &e.StartAt, &e.EndAt, &e.CreatedByID, &e.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListBetween returns every event overlapping the [from, to) window, ordered
// by start time.
func (s *EventStore) ListBetween(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+eventColumns+` FROM events
		WHERE start_at < $2 AND end_at >= $1
		ORDER BY start_at ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *EventStore) Get(ctx context.Context, id int64) (*models.Event, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

func (s *EventStore) Create(ctx context.Context, e *models.Event) (*models.Event, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO events (title, start_at, end_at, created_by, category)
		VALUES ($1, $2, $3, $4, NULLIF($5,''))
		RETURNING `+eventColumns+`
	`, e.Title, e.StartAt, e.EndAt, e.CreatedByID, e.Category)
	return scanEvent(row)
}

func (s *EventStore) Update(ctx context.Context, e *models.Event) (*models.Event, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE events SET title = $2, start_at = $3, end_at = $4, category = NULLIF($5,'')
		WHERE id = $1
		RETURNING `+eventColumns+`
	`, e.ID, e.Title, e.StartAt, e.EndAt, e.Category)
	return scanEvent(row)
}

func (s *EventStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	return err
}
