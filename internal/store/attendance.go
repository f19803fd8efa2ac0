package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/immersive-lab/lab-api/internal/models"
)

// AttendanceStore persists daily attendance rows. The (member_id, work_date)
// unique constraint serializes concurrent writes for the same day.
type AttendanceStore struct {
	db *sql.DB
}

func NewAttendanceStore(db *sql.DB) *AttendanceStore {
	return &AttendanceStore{db: db}
}

func (s *AttendanceStore) FindByMemberAndDate(ctx context.Context, memberID int64, workDate string) (*models.Attendance, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, member_id, to_char(work_date, 'YYYY-MM-DD'), check_in_at, check_out_at
		FROM attendance
		WHERE member_id = $1 AND work_date = $2
	`, memberID, workDate)

	var a models.Attendance
	err := row.Scan(&a.ID, &a.MemberID, &a.WorkDate, &a.CheckInAt, &a.CheckOutAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Upsert writes the record for (member, date). Check-in is first-write-wins
// and check-out is last-non-null-write-wins, so a late concurrent check-in
// can never clobber an earlier timestamp.
func (s *AttendanceStore) Upsert(ctx context.Context, record *models.Attendance) (*models.Attendance, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO attendance (member_id, work_date, check_in_at, check_out_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (member_id, work_date) DO UPDATE
		SET check_in_at = COALESCE(attendance.check_in_at, EXCLUDED.check_in_at),
			check_out_at = COALESCE(EXCLUDED.check_out_at, attendance.check_out_at)
		RETURNING id, member_id, to_char(work_date, 'YYYY-MM-DD'), check_in_at, check_out_at
	`, record.MemberID, record.WorkDate, record.CheckInAt, record.CheckOutAt)

	var a models.Attendance
	if err := row.Scan(&a.ID, &a.MemberID, &a.WorkDate, &a.CheckInAt, &a.CheckOutAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByDateRange returns all records in the inclusive date range.
func (s *AttendanceStore) FindByDateRange(ctx context.Context, start, end string) ([]models.Attendance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, member_id, to_char(work_date, 'YYYY-MM-DD'), check_in_at, check_out_at
		FROM attendance
		WHERE work_date BETWEEN $1 AND $2
		ORDER BY work_date ASC, member_id ASC
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Attendance
	for rows.Next() {
		var a models.Attendance
		if err := rows.Scan(&a.ID, &a.MemberID, &a.WorkDate, &a.CheckInAt, &a.CheckOutAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
