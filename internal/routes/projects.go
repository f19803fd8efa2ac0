package routes

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/immersive-lab/lab-api/internal/middleware"
	"github.com/immersive-lab/lab-api/internal/models"
	"github.com/immersive-lab/lab-api/internal/store"
	apperrors "github.com/immersive-lab/lab-api/pkg/errors"
)

// ProjectHandler handles the research project endpoints.
type ProjectHandler struct {
	projects *store.ProjectStore
	logger   *logrus.Logger
}

func NewProjectHandler(projects *store.ProjectStore, logger *logrus.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

// List returns a page of projects, optionally filtered by status.
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "0"))
	size, _ := strconv.Atoi(c.Query("size", "10"))

	status := models.ProjectStatus(c.Query("status"))
	if status != "" && !models.ValidProjectStatus(status) {
		return apperrors.BadRequest("Unknown project status.")
	}

	result, err := h.projects.List(c.Context(), status, page, size)
	if err != nil {
		return apperrors.Internal("failed to load projects", err)
	}
	return c.JSON(result)
}

func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	project, err := h.projects.Get(c.Context(), id)
	if err != nil {
		return apperrors.Internal("failed to load project", err)
	}
	if project == nil {
		return apperrors.NotFound("Project not found.")
	}
	return c.JSON(project)
}

// Create adds a project; any signed-in member can create one.
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	member, err := middleware.PrincipalFrom(c).Require()
	if err != nil {
		return err
	}

	var req models.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.BadRequest("Invalid request body.")
	}
	if req.Title == "" || req.Description == "" {
		return apperrors.BadRequest("Title and description are required.")
	}
	if req.Status == "" {
		req.Status = models.ProjectOngoing
	}
	if !models.ValidProjectStatus(req.Status) {
		return apperrors.BadRequest("Unknown project status.")
	}

	project, err := h.projects.Create(c.Context(), &models.Project{
		Title:       req.Title,
		Description: req.Description,
		Summary:     req.Summary,
		Status:      req.Status,
		Members:     req.Members,
		CreatedByID: &member.ID,
	})
	if err != nil {
		return apperrors.Internal("failed to create project", err)
	}

	h.logger.WithFields(logrus.Fields{
		"project_id": project.ID,
		"member_id":  member.ID,
	}).Info("Project created")
	return c.Status(fiber.StatusCreated).JSON(project)
}

func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	if _, err := middleware.PrincipalFrom(c).Require(); err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	existing, err := h.projects.Get(c.Context(), id)
	if err != nil {
		return apperrors.Internal("failed to load project", err)
	}
	if existing == nil {
		return apperrors.NotFound("Project not found.")
	}

	var req models.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.BadRequest("Invalid request body.")
	}
	if req.Title == "" || req.Description == "" {
		return apperrors.BadRequest("Title and description are required.")
	}
	if req.Status == "" {
		req.Status = existing.Status
	}
	if !models.ValidProjectStatus(req.Status) {
		return apperrors.BadRequest("Unknown project status.")
	}

	existing.Title = req.Title
	existing.Description = req.Description
	existing.Summary = req.Summary
	existing.Status = req.Status
	existing.Members = req.Members

	project, err := h.projects.Update(c.Context(), existing)
	if err != nil {
		return apperrors.Internal("failed to update project", err)
	}
	return c.JSON(project)
}

// UpdateStatus changes only the lifecycle state.
func (h *ProjectHandler) UpdateStatus(c *fiber.Ctx) error {
	if _, err := middleware.PrincipalFrom(c).Require(); err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req models.UpdateProjectStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.BadRequest("Invalid request body.")
	}
	if !models.ValidProjectStatus(req.Status) {
		return apperrors.BadRequest("Unknown project status.")
	}

	project, err := h.projects.UpdateStatus(c.Context(), id, req.Status)
	if err != nil {
		return apperrors.Internal("failed to update project status", err)
	}
	if project == nil {
		return apperrors.NotFound("Project not found.")
	}
	return c.JSON(project)
}

func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	if _, err := middleware.PrincipalFrom(c).Require(); err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	existing, err := h.projects.Get(c.Context(), id)
	if err != nil {
		return apperrors.Internal("failed to load project", err)
	}
	if existing == nil {
		return apperrors.NotFound("Project not found.")
	}

	if err := h.projects.Delete(c.Context(), id); err != nil {
		return apperrors.Internal("failed to delete project", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
