package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/immersive-lab/lab-api/internal/auth"
	"github.com/immersive-lab/lab-api/internal/middleware"
	"github.com/immersive-lab/lab-api/internal/models"
	"github.com/immersive-lab/lab-api/internal/store"
	apperrors "github.com/immersive-lab/lab-api/pkg/errors"
)

// LabInfoHandler serves the public lab description and its admin upsert.
type LabInfoHandler struct {
	labInfo *store.LabInfoStore
	logger  *logrus.Logger
}

func NewLabInfoHandler(labInfo *store.LabInfoStore, logger *logrus.Logger) *LabInfoHandler {
	return &LabInfoHandler{labInfo: labInfo, logger: logger}
}

func (h *LabInfoHandler) Get(c *fiber.Ctx) error {
	info, err := h.labInfo.Get(c.Context())
	if err != nil {
		return apperrors.Internal("failed to load lab info", err)
	}
	if info == nil {
		return apperrors.NotFound("Lab info has not been set up yet.")
	}
	return c.JSON(info)
}

// Update upserts the single lab description row. Admin only.
func (h *LabInfoHandler) Update(c *fiber.Ctx) error {
	member, err := middleware.PrincipalFrom(c).Require()
	if err != nil {
		return err
	}
	if err := auth.RequireAdmin(member); err != nil {
		return err
	}

	var req models.LabInfoRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.BadRequest("Invalid request body.")
	}
	if req.LabName == "" || req.Description == "" {
		return apperrors.BadRequest("Lab name and description are required.")
	}

	info, err := h.labInfo.Upsert(c.Context(), &models.LabInfo{
		LabName:       req.LabName,
		Description:   req.Description,
		ResearchAreas: req.ResearchAreas,
		Facilities:    req.Facilities,
		Location:      req.Location,
		ContactEmail:  req.ContactEmail,
		ContactPhone:  req.ContactPhone,
		DirectorID:    req.DirectorID,
	})
	if err != nil {
		return apperrors.Internal("failed to save lab info", err)
	}

	h.logger.WithField("member_id", member.ID).Info("Lab info updated")
	return c.JSON(info)
}
