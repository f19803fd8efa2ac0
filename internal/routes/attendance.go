package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/immersive-lab/lab-api/internal/attendance"
	"github.com/immersive-lab/lab-api/internal/auth"
	"github.com/immersive-lab/lab-api/internal/metrics"
	"github.com/immersive-lab/lab-api/internal/middleware"
	"github.com/immersive-lab/lab-api/internal/models"
	"github.com/immersive-lab/lab-api/internal/store"
	apperrors "github.com/immersive-lab/lab-api/pkg/errors"
)

// AttendanceHandler exposes check-in/check-out and the monthly views.
type AttendanceHandler struct {
	service    *attendance.Service
	members    *store.MemberStore
	allowedIPs []string
	logger     *logrus.Logger
}

func NewAttendanceHandler(service *attendance.Service, members *store.MemberStore, allowedIPs []string, logger *logrus.Logger) *AttendanceHandler {
	return &AttendanceHandler{service: service, members: members, allowedIPs: allowedIPs, logger: logger}
}

// checkNetwork enforces the optional IP allow-list. The rejection message is
// deliberately generic: it must not reveal which networks are allowed.
func (h *AttendanceHandler) checkNetwork(c *fiber.Ctx) error {
	if len(h.allowedIPs) == 0 {
		return nil
	}
	ip := middleware.ClientIP(c)
	for _, allowed := range h.allowedIPs {
		if ip == allowed {
			return nil
		}
	}
	h.logger.WithFields(logrus.Fields{
		"ip":   ip,
		"path": c.Path(),
	}).Warn("Attendance rejected from outside the allowed network")
	return apperrors.BadRequest("Attendance is only available from the lab network.")
}

// CheckIn records today's arrival. Repeating it on the same day returns the
// existing record unchanged.
func (h *AttendanceHandler) CheckIn(c *fiber.Ctx) error {
	member, err := middleware.PrincipalFrom(c).Require()
	if err != nil {
		return err
	}
	if err := h.checkNetwork(c); err != nil {
		metrics.AttendanceEvent("check_in", false)
		return err
	}

	record, err := h.service.CheckIn(c.Context(), member)
	if err != nil {
		metrics.AttendanceEvent("check_in", false)
		return err
	}
	metrics.AttendanceEvent("check_in", true)
	return c.JSON(record)
}

// CheckOut records today's departure; it requires an earlier check-in.
func (h *AttendanceHandler) CheckOut(c *fiber.Ctx) error {
	member, err := middleware.PrincipalFrom(c).Require()
	if err != nil {
		return err
	}
	if err := h.checkNetwork(c); err != nil {
		metrics.AttendanceEvent("check_out", false)
		return err
	}

	record, err := h.service.CheckOut(c.Context(), member)
	if err != nil {
		metrics.AttendanceEvent("check_out", false)
		return err
	}
	metrics.AttendanceEvent("check_out", true)
	return c.JSON(record)
}

// MyRecords returns the caller's records for the requested month (YYYY-MM,
// defaulting to the current month).
func (h *AttendanceHandler) MyRecords(c *fiber.Ctx) error {
	member, err := middleware.PrincipalFrom(c).Require()
	if err != nil {
		return err
	}

	start, end := h.service.MonthRange(c.Query("month"))
	records, err := h.service.RecordsBetween(c.Context(), start, end)
	if err != nil {
		return err
	}

	mine := []models.Attendance{}
	for _, r := range records {
		if r.MemberID == member.ID {
			mine = append(mine, r)
		}
	}
	return c.JSON(fiber.Map{
		"start":   start,
		"end":     end,
		"records": mine,
	})
}

// Stats is the admin monthly report: every member plus every record in range.
func (h *AttendanceHandler) Stats(c *fiber.Ctx) error {
	member, err := middleware.PrincipalFrom(c).Require()
	if err != nil {
		return err
	}
	if err := auth.RequireAdmin(member); err != nil {
		return err
	}

	start, end := h.service.MonthRange(c.Query("month"))
	records, err := h.service.RecordsBetween(c.Context(), start, end)
	if err != nil {
		return err
	}
	all, err := h.members.List(c.Context())
	if err != nil {
		return apperrors.Internal("failed to load members", err)
	}
	members := []models.Member{}
	for _, m := range all {
		if m.Role == models.RoleMember {
			members = append(members, m)
		}
	}

	return c.JSON(models.AttendanceStats{
		Start:   start,
		End:     end,
		Members: members,
		Records: records,
	})
}
