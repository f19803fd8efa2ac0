package routes

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/immersive-lab/lab-api/internal/auth"
	"github.com/immersive-lab/lab-api/internal/middleware"
	"github.com/immersive-lab/lab-api/internal/models"
	"github.com/immersive-lab/lab-api/internal/store"
	apperrors "github.com/immersive-lab/lab-api/pkg/errors"
)

// MemberHandler handles the member roster and self-service profile endpoints.
type MemberHandler struct {
	members *store.MemberStore
	logger  *logrus.Logger
}

func NewMemberHandler(members *store.MemberStore, logger *logrus.Logger) *MemberHandler {
	return &MemberHandler{members: members, logger: logger}
}

func pathID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.BadRequest("Invalid id.")
	}
	return id, nil
}

// List returns the roster in display order. It is public; the password column
// never serializes.
func (h *MemberHandler) List(c *fiber.Ctx) error {
	members, err := h.members.List(c.Context())
	if err != nil {
		return apperrors.Internal("failed to load members", err)
	}
	return c.JSON(members)
}

func (h *MemberHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	member, err := h.members.FindByID(c.Context(), id)
	if err != nil {
		return apperrors.Internal("failed to load member", err)
	}
	if member == nil {
		return apperrors.NotFound("Member not found.")
	}
	return c.JSON(member)
}

// Create adds a member. Admin only. Name and login ID collisions surface as
// conflicts rather than opaque database errors.
func (h *MemberHandler) Create(c *fiber.Ctx) error {
	actor, err := middleware.PrincipalFrom(c).Require()
	if err != nil {
		return err
	}
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}

	var req models.CreateMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.BadRequest("Invalid request body.")
	}
	if req.Name == "" {
		return apperrors.BadRequest("Name is required.")
	}
	if req.Role == "" {
		req.Role = models.RoleMember
	}

	if existing, err := h.members.FindByName(c.Context(), req.Name); err != nil {
		return apperrors.Internal("failed to check member name", err)
	} else if existing != nil {
		return apperrors.Conflict("A member with that name already exists.")
	}
	if req.LoginID != "" {
		if existing, err := h.members.FindByLoginID(c.Context(), req.LoginID); err != nil {
			return apperrors.Internal("failed to check login ID", err)
		} else if existing != nil {
			return apperrors.Conflict("That login ID is already in use.")
		}
	}

	password := ""
	if req.Password != "" {
		password, err = auth.HashPassword(req.Password)
		if err != nil {
			return apperrors.Internal("failed to hash password", err)
		}
	}

	member := &models.Member{
		Name:      req.Name,
		LoginID:   req.LoginID,
		Password:  password,
		Role:      req.Role,
		Email:     req.Email,
		Phone:     req.Phone,
		Degree:    req.Degree,
		StudentID: req.StudentID,
		SortOrder: 1000,
	}
	if req.Admin != nil {
		member.Admin = *req.Admin
	}

	created, err := h.members.Create(c.Context(), member)
	if err != nil {
		return apperrors.Internal("failed to create member", err)
	}

	h.logger.WithFields(logrus.Fields{
		"member_id": created.ID,
		"actor_id":  actor.ID,
	}).Info("Member created")
	return c.Status(fiber.StatusCreated).JSON(created)
}

// Update modifies a member's roster fields. Admin only. Pointer fields in the
// payload distinguish "leave unchanged" from "clear".
func (h *MemberHandler) Update(c *fiber.Ctx) error {
	actor, err := middleware.PrincipalFrom(c).Require()
	if err != nil {
		return err
	}
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	member, err := h.members.FindByID(c.Context(), id)
	if err != nil {
		return apperrors.Internal("failed to load member", err)
	}
	if member == nil {
		return apperrors.NotFound("Member not found.")
	}

	var req models.UpdateMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.BadRequest("Invalid request body.")
	}

	if req.Name != nil && *req.Name != member.Name {
		if existing, err := h.members.FindByName(c.Context(), *req.Name); err != nil {
			return apperrors.Internal("failed to check member name", err)
		} else if existing != nil {
			return apperrors.Conflict("A member with that name already exists.")
		}
		member.Name = *req.Name
	}
	if req.Degree != nil {
		member.Degree = *req.Degree
	}
	if req.Role != nil {
		member.Role = *req.Role
	}
	if req.Admin != nil {
		member.Admin = *req.Admin
	}
	if req.Email != nil {
		member.Email = *req.Email
	}

	if err := h.members.Update(c.Context(), member); err != nil {
		return apperrors.Internal("failed to update member", err)
	}
	return c.JSON(member)
}

// Delete removes a member and every reference other records hold to them.
// Admin accounts cannot be deleted; demote first.
func (h *MemberHandler) Delete(c *fiber.Ctx) error {
	actor, err := middleware.PrincipalFrom(c).Require()
	if err != nil {
		return err
	}
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	member, err := h.members.FindByID(c.Context(), id)
	if err != nil {
		return apperrors.Internal("failed to load member", err)
	}
	if member == nil {
		return apperrors.NotFound("Member not found.")
	}
	if member.Admin {
		return apperrors.BadRequest("Administrator accounts cannot be deleted.")
	}

	if err := h.members.Delete(c.Context(), id); err != nil {
		return apperrors.Internal("failed to delete member", err)
	}

	h.logger.WithFields(logrus.Fields{
		"member_id": id,
		"actor_id":  actor.ID,
	}).Info("Member deleted")
	return c.SendStatus(fiber.StatusNoContent)
}

// SaveOrder persists the roster display order. Admin only.
func (h *MemberHandler) SaveOrder(c *fiber.Ctx) error {
	actor, err := middleware.PrincipalFrom(c).Require()
	if err != nil {
		return err
	}
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}

	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.BadRequest("Invalid request body.")
	}
	if len(req.IDs) == 0 {
		return apperrors.BadRequest("ids is required.")
	}

	if err := h.members.SaveOrder(c.Context(), req.IDs); err != nil {
		return apperrors.Internal("failed to save member order", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateProfile lets a member edit their own contact fields.
func (h *MemberHandler) UpdateProfile(c *fiber.Ctx) error {
	member, err := middleware.PrincipalFrom(c).Require()
	if err != nil {
		return err
	}

	var req models.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.BadRequest("Invalid request body.")
	}

	member.Email = req.Email
	member.Phone = req.Phone
	member.Degree = req.Degree
	member.PhotoURL = req.PhotoURL

	if err := h.members.Update(c.Context(), member); err != nil {
		return apperrors.Internal("failed to update profile", err)
	}
	return c.JSON(member)
}

// ChangePassword verifies the old password and stores a bcrypt hash of the
// new one.
func (h *MemberHandler) ChangePassword(c *fiber.Ctx) error {
	member, err := middleware.PrincipalFrom(c).Require()
	if err != nil {
		return err
	}

	var req models.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.BadRequest("Invalid request body.")
	}
	if req.NewPassword == "" {
		return apperrors.BadRequest("New password is required.")
	}

	if ok, _ := auth.VerifyPassword(member.Password, req.OldPassword); !ok {
		return apperrors.BadRequest("Current password is incorrect.")
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return apperrors.Internal("failed to hash password", err)
	}
	member.Password = hashed

	if err := h.members.Update(c.Context(), member); err != nil {
		return apperrors.Internal("failed to change password", err)
	}

	h.logger.WithField("member_id", member.ID).Info("Password changed")
	return c.SendStatus(fiber.StatusNoContent)
}
