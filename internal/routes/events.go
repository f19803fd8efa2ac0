package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/immersive-lab/lab-api/internal/middleware"
	"github.com/immersive-lab/lab-api/internal/models"
	"github.com/immersive-lab/lab-api/internal/store"
	apperrors "github.com/immersive-lab/lab-api/pkg/errors"
)

// EventHandler handles the shared lab calendar.
type EventHandler struct {
	events *store.EventStore
	logger *logrus.Logger
}

func NewEventHandler(events *store.EventStore, logger *logrus.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

// List returns events overlapping the requested window. Without from/to query
// parameters it defaults to a window around the current month.
func (h *EventHandler) List(c *fiber.Ctx) error {
	now := time.Now()
	from := now.AddDate(0, -1, 0)
	to := now.AddDate(0, 2, 0)

	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return apperrors.BadRequest("Invalid 'from' timestamp.")
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return apperrors.BadRequest("Invalid 'to' timestamp.")
		}
		to = t
	}

	events, err := h.events.ListBetween(c.Context(), from, to)
	if err != nil {
		return apperrors.Internal("failed to load events", err)
	}
	return c.JSON(events)
}

func (h *EventHandler) Create(c *fiber.Ctx) error {
	member, err := middleware.PrincipalFrom(c).Require()
	if err != nil {
		return err
	}

	req, err := parseEventRequest(c)
	if err != nil {
		return err
	}

	event, err := h.events.Create(c.Context(), &models.Event{
		Title:       req.Title,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		CreatedByID: &member.ID,
		Category:    req.Category,
	})
	if err != nil {
		return apperrors.Internal("failed to create event", err)
	}

	h.logger.WithFields(logrus.Fields{
		"event_id":  event.ID,
		"member_id": member.ID,
	}).Info("Event created")
	return c.Status(fiber.StatusCreated).JSON(event)
}

// loadOwned fetches the event and checks the caller created it or is admin.
func (h *EventHandler) loadOwned(c *fiber.Ctx, member *models.Member) (*models.Event, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}
	event, err := h.events.Get(c.Context(), id)
	if err != nil {
		return nil, apperrors.Internal("failed to load event", err)
	}
	if event == nil {
		return nil, apperrors.NotFound("Event not found.")
	}
	if !member.Admin && (event.CreatedByID == nil || *event.CreatedByID != member.ID) {
		return nil, apperrors.Forbidden("Only the creator or an administrator can modify this event.")
	}
	return event, nil
}

func (h *EventHandler) Update(c *fiber.Ctx) error {
	member, err := middleware.PrincipalFrom(c).Require()
	if err != nil {
		return err
	}
	event, err := h.loadOwned(c, member)
	if err != nil {
		return err
	}

	req, err := parseEventRequest(c)
	if err != nil {
		return err
	}

	event.Title = req.Title
	event.StartAt = req.StartAt
	event.EndAt = req.EndAt
	event.Category = req.Category

	updated, err := h.events.Update(c.Context(), event)
	if err != nil {
		return apperrors.Internal("failed to update event", err)
	}
	return c.JSON(updated)
}

func (h *EventHandler) Delete(c *fiber.Ctx) error {
	member, err := middleware.PrincipalFrom(c).Require()
	if err != nil {
		return err
	}
	event, err := h.loadOwned(c, member)
	if err != nil {
		return err
	}

	if err := h.events.Delete(c.Context(), event.ID); err != nil {
		return apperrors.Internal("failed to delete event", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseEventRequest(c *fiber.Ctx) (*models.EventRequest, error) {
	var req models.EventRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, apperrors.BadRequest("Invalid request body.")
	}
	if req.Title == "" {
		return nil, apperrors.BadRequest("Title is required.")
	}
	if req.StartAt.IsZero() || req.EndAt.IsZero() || req.EndAt.Before(req.StartAt) {
		return nil, apperrors.BadRequest("Invalid event time range.")
	}
	return &req, nil
}
