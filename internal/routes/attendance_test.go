package routes

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immersive-lab/lab-api/internal/attendance"
	"github.com/immersive-lab/lab-api/internal/auth"
	"github.com/immersive-lab/lab-api/internal/models"
)

// stubAttendanceStore keeps one record per (member, date) in memory.
type stubAttendanceStore struct {
	records map[string]*models.Attendance
}

func newStubAttendanceStore() *stubAttendanceStore {
	return &stubAttendanceStore{records: make(map[string]*models.Attendance)}
}

func (s *stubAttendanceStore) FindByMemberAndDate(_ context.Context, memberID int64, workDate string) (*models.Attendance, error) {
	if r, ok := s.records[workDate]; ok && r.MemberID == memberID {
		copied := *r
		return &copied, nil
	}
	return nil, nil
}

func (s *stubAttendanceStore) Upsert(_ context.Context, record *models.Attendance) (*models.Attendance, error) {
	saved := *record
	saved.ID = 1
	s.records[record.WorkDate] = &saved
	copied := saved
	return &copied, nil
}

func (s *stubAttendanceStore) FindByDateRange(_ context.Context, start, end string) ([]models.Attendance, error) {
	var out []models.Attendance
	for _, r := range s.records {
		if r.WorkDate >= start && r.WorkDate <= end {
			out = append(out, *r)
		}
	}
	return out, nil
}

func newAttendanceApp(t *testing.T, allowedIPs []string, principal auth.Principal) *fiber.App {
	t.Helper()

	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	service := attendance.NewService(newStubAttendanceStore(), loc)

	handler := NewAttendanceHandler(service, nil, allowedIPs, discardLogger())
	app := newTestApp()
	withPrincipal(app, principal)
	app.Post("/api/attendance/check-in", handler.CheckIn)
	app.Post("/api/attendance/check-out", handler.CheckOut)
	app.Get("/api/attendance/stats", handler.Stats)
	return app
}

func labMember() auth.Principal {
	return auth.Principal{
		Member: &models.Member{ID: 7, Name: "Hong", LoginID: "hong", Role: models.RoleMember},
		Method: auth.MethodToken,
	}
}

func TestCheckIn_RequiresAuthentication(t *testing.T) {
	app := newAttendanceApp(t, nil, auth.Principal{Method: auth.MethodNone})

	req := httptest.NewRequest("POST", "/api/attendance/check-in", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCheckIn_FromAllowedNetwork(t *testing.T) {
	app := newAttendanceApp(t, []string{"203.0.113.5"}, labMember())

	req := httptest.NewRequest("POST", "/api/attendance/check-in", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCheckIn_OutsideAllowedNetworkGetsGenericError(t *testing.T) {
	app := newAttendanceApp(t, []string{"203.0.113.5"}, labMember())

	req := httptest.NewRequest("POST", "/api/attendance/check-in", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.9")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	// The rejection must not leak the allow-list or the caller's address.
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Attendance is only available from the lab network.", body["message"])
}

func TestCheckOut_WithoutCheckInIsConflict(t *testing.T) {
	app := newAttendanceApp(t, nil, labMember())

	status, body := postJSON(t, app, "/api/attendance/check-out", nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "No check-in record for today.", body["message"])
}

func TestCheckInThenCheckOut(t *testing.T) {
	app := newAttendanceApp(t, nil, labMember())

	status, _ := postJSON(t, app, "/api/attendance/check-in", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = postJSON(t, app, "/api/attendance/check-out", nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestStats_RequiresAdmin(t *testing.T) {
	app := newAttendanceApp(t, nil, labMember())

	req := httptest.NewRequest("GET", "/api/attendance/stats", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
