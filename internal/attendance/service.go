package attendance

import (
	"context"
	"regexp"
	"time"

	"github.com/immersive-lab/lab-api/internal/models"
	apperrors "github.com/immersive-lab/lab-api/pkg/errors"
)

// dateLayout is the wire and storage format for work dates.
const dateLayout = "2006-01-02"

// Store is the persistence collaborator. FindByMemberAndDate returns
// (nil, nil) when no row exists. Upsert must be backed by a unique constraint
// on (member, date) so two concurrent first check-ins cannot produce
// duplicate rows.
type Store interface {
	FindByMemberAndDate(ctx context.Context, memberID int64, workDate string) (*models.Attendance, error)
	Upsert(ctx context.Context, record *models.Attendance) (*models.Attendance, error)
	FindByDateRange(ctx context.Context, start, end string) ([]models.Attendance, error)
}

// Service records daily check-ins and check-outs. "Today" is always computed
// in the configured lab timezone, regardless of the server clock's zone.
type Service struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

func NewService(store Store, loc *time.Location) *Service {
	return &Service{store: store, loc: loc, now: time.Now}
}

func (s *Service) today() string {
	return s.now().In(s.loc).Format(dateLayout)
}

// CheckIn records the first arrival of the day. Calling it again on the same
// day is a no-op on the timestamp, so retries and double-taps are harmless.
func (s *Service) CheckIn(ctx context.Context, member *models.Member) (*models.Attendance, error) {
	today := s.today()
	record, err := s.store.FindByMemberAndDate(ctx, member.ID, today)
	if err != nil {
		return nil, apperrors.Internal("failed to load attendance record", err)
	}
	if record == nil {
		record = &models.Attendance{MemberID: member.ID, WorkDate: today}
	}
	if record.CheckInAt == nil {
		now := s.now()
		record.CheckInAt = &now
	}
	saved, err := s.store.Upsert(ctx, record)
	if err != nil {
		return nil, apperrors.Internal("failed to save attendance record", err)
	}
	return saved, nil
}

// CheckOut stamps the departure time. It requires a check-in earlier the same
// day and overwrites any previous check-out (last write wins).
func (s *Service) CheckOut(ctx context.Context, member *models.Member) (*models.Attendance, error) {
	today := s.today()
	record, err := s.store.FindByMemberAndDate(ctx, member.ID, today)
	if err != nil {
		return nil, apperrors.Internal("failed to load attendance record", err)
	}
	if record == nil {
		return nil, apperrors.Conflict("No check-in record for today.")
	}
	now := s.now()
	record.CheckOutAt = &now
	saved, err := s.store.Upsert(ctx, record)
	if err != nil {
		return nil, apperrors.Internal("failed to save attendance record", err)
	}
	return saved, nil
}

// RecordsBetween returns every record whose date falls in the inclusive range.
func (s *Service) RecordsBetween(ctx context.Context, start, end string) ([]models.Attendance, error) {
	records, err := s.store.FindByDateRange(ctx, start, end)
	if err != nil {
		return nil, apperrors.Internal("failed to load attendance records", err)
	}
	return records, nil
}

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// MonthRange resolves an optional YYYY-MM parameter into the first and last
// day of that month. Anything unparseable falls back to the current month in
// the lab timezone.
func (s *Service) MonthRange(month string) (start, end string) {
	now := s.now().In(s.loc)
	year, m := now.Year(), now.Month()
	if monthPattern.MatchString(month) {
		if t, err := time.ParseInLocation("2006-01", month, s.loc); err == nil {
			year, m = t.Year(), t.Month()
		}
	}
	first := time.Date(year, m, 1, 0, 0, 0, 0, s.loc)
	last := first.AddDate(0, 1, -1)
	return first.Format(dateLayout), last.Format(dateLayout)
}
