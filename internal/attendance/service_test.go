package attendance

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immersive-lab/lab-api/internal/models"
	apperrors "github.com/immersive-lab/lab-api/pkg/errors"
)

// memStore is an in-memory Store keyed by (member, date).
type memStore struct {
	records map[string]*models.Attendance
	nextID  int64
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*models.Attendance)}
}

func key(memberID int64, workDate string) string {
	return workDate + "#" + strconv.FormatInt(memberID, 10)
}

func (s *memStore) FindByMemberAndDate(_ context.Context, memberID int64, workDate string) (*models.Attendance, error) {
	if r, ok := s.records[key(memberID, workDate)]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, nil
}

func (s *memStore) Upsert(_ context.Context, record *models.Attendance) (*models.Attendance, error) {
	k := key(record.MemberID, record.WorkDate)
	existing, ok := s.records[k]
	if !ok {
		s.nextID++
		saved := *record
		saved.ID = s.nextID
		s.records[k] = &saved
		copied := saved
		return &copied, nil
	}
	if existing.CheckInAt == nil {
		existing.CheckInAt = record.CheckInAt
	}
	if record.CheckOutAt != nil {
		existing.CheckOutAt = record.CheckOutAt
	}
	copied := *existing
	return &copied, nil
}

func (s *memStore) FindByDateRange(_ context.Context, start, end string) ([]models.Attendance, error) {
	var out []models.Attendance
	for _, r := range s.records {
		if r.WorkDate >= start && r.WorkDate <= end {
			out = append(out, *r)
		}
	}
	return out, nil
}

func seoul(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	return loc
}

// newTestService pins the clock so "today" is deterministic.
func newTestService(t *testing.T, store Store, at time.Time) *Service {
	t.Helper()
	svc := NewService(store, seoul(t))
	svc.now = func() time.Time { return at }
	return svc
}

func TestCheckIn_FirstOfTheDay(t *testing.T) {
	store := newMemStore()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, seoul(t))
	svc := newTestService(t, store, at)
	member := &models.Member{ID: 7, StudentID: "20204400"}

	record, err := svc.CheckIn(context.Background(), member)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", record.WorkDate)
	require.NotNil(t, record.CheckInAt)
	assert.True(t, record.CheckInAt.Equal(at))
	assert.Nil(t, record.CheckOutAt)
}

func TestCheckIn_RepeatKeepsFirstTimestamp(t *testing.T) {
	store := newMemStore()
	first := time.Date(2024, 3, 1, 9, 0, 0, 0, seoul(t))
	svc := newTestService(t, store, first)
	member := &models.Member{ID: 7}

	_, err := svc.CheckIn(context.Background(), member)
	require.NoError(t, err)

	// Same member taps again two hours later.
	svc.now = func() time.Time { return first.Add(2 * time.Hour) }
	record, err := svc.CheckIn(context.Background(), member)
	require.NoError(t, err)
	assert.True(t, record.CheckInAt.Equal(first), "second check-in must not move the timestamp")
}

func TestCheckOut_WithoutCheckInConflicts(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store, time.Date(2024, 3, 1, 18, 0, 0, 0, seoul(t)))

	_, err := svc.CheckOut(context.Background(), &models.Member{ID: 7})
	require.Error(t, err)

	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code)
}

func TestCheckOut_LastWriteWins(t *testing.T) {
	store := newMemStore()
	morning := time.Date(2024, 3, 1, 9, 0, 0, 0, seoul(t))
	svc := newTestService(t, store, morning)
	member := &models.Member{ID: 7}

	_, err := svc.CheckIn(context.Background(), member)
	require.NoError(t, err)

	svc.now = func() time.Time { return morning.Add(8 * time.Hour) }
	record, err := svc.CheckOut(context.Background(), member)
	require.NoError(t, err)
	assert.True(t, record.CheckOutAt.Equal(morning.Add(8*time.Hour)))

	// A later check-out replaces the earlier one.
	svc.now = func() time.Time { return morning.Add(10 * time.Hour) }
	record, err = svc.CheckOut(context.Background(), member)
	require.NoError(t, err)
	assert.True(t, record.CheckOutAt.Equal(morning.Add(10*time.Hour)))
}

func TestToday_UsesLabTimezone(t *testing.T) {
	store := newMemStore()
	// 16:30 UTC on Feb 29 is already 01:30 on Mar 1 in Seoul.
	at := time.Date(2024, 2, 29, 16, 30, 0, 0, time.UTC)
	svc := newTestService(t, store, at)

	record, err := svc.CheckIn(context.Background(), &models.Member{ID: 7})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", record.WorkDate)
}

func TestMonthRange(t *testing.T) {
	svc := newTestService(t, newMemStore(), time.Date(2024, 3, 15, 12, 0, 0, 0, seoul(t)))

	start, end := svc.MonthRange("2024-02")
	assert.Equal(t, "2024-02-01", start)
	assert.Equal(t, "2024-02-29", end)

	// Missing or malformed input falls back to the current month.
	start, end = svc.MonthRange("")
	assert.Equal(t, "2024-03-01", start)
	assert.Equal(t, "2024-03-31", end)

	start, end = svc.MonthRange("bogus")
	assert.Equal(t, "2024-03-01", start)
	assert.Equal(t, "2024-03-31", end)
}

func TestRecordsBetween(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store, time.Date(2024, 3, 1, 9, 0, 0, 0, seoul(t)))

	_, err := svc.CheckIn(context.Background(), &models.Member{ID: 7})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Date(2024, 4, 2, 9, 0, 0, 0, seoul(t)) }
	_, err = svc.CheckIn(context.Background(), &models.Member{ID: 7})
	require.NoError(t, err)

	records, err := svc.RecordsBetween(context.Background(), "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, "2024-03-01", records[0].WorkDate)
}
