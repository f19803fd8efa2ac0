package routes

import (
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/immersive-lab/lab-api/internal/config"
	"github.com/immersive-lab/lab-api/internal/middleware"
	"github.com/immersive-lab/lab-api/internal/models"
	"github.com/immersive-lab/lab-api/internal/store"
	apperrors "github.com/immersive-lab/lab-api/pkg/errors"
)

// NoticeHandler handles the board: posts, attachments, downloads.
type NoticeHandler struct {
	notices *store.NoticeStore
	upload  *config.UploadConfig
	baseURL string
	logger  *logrus.Logger
}

func NewNoticeHandler(notices *store.NoticeStore, upload *config.UploadConfig, baseURL string, logger *logrus.Logger) *NoticeHandler {
	return &NoticeHandler{notices: notices, upload: upload, baseURL: baseURL, logger: logger}
}

func (h *NoticeHandler) downloadURL(fileKey string) string {
	return h.baseURL + "/api/notices/files/" + fileKey
}

// List returns a page of notices, optionally filtered by category.
func (h *NoticeHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "0"))
	size, _ := strconv.Atoi(c.Query("size", "10"))

	result, err := h.notices.List(c.Context(), c.Query("category"), page, size)
	if err != nil {
		return apperrors.Internal("failed to load notices", err)
	}
	return c.JSON(result)
}

// Get returns the detail view with author and attachment download URLs.
func (h *NoticeHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	detail, err := h.notices.Get(c.Context(), id)
	if err != nil {
		return apperrors.Internal("failed to load notice", err)
	}
	if detail == nil {
		return apperrors.NotFound("Notice not found.")
	}
	for i := range detail.Attachments {
		detail.Attachments[i].URL = h.downloadURL(detail.Attachments[i].FileKey)
	}
	return c.JSON(detail)
}

// Create accepts a multipart form: title, content, category, pinned plus zero
// or more "attachments" files. Attachments land on disk under an opaque UUID
// name; the original name survives only in the database.
func (h *NoticeHandler) Create(c *fiber.Ctx) error {
	member, err := middleware.PrincipalFrom(c).Require()
	if err != nil {
		return err
	}

	title := strings.TrimSpace(c.FormValue("title"))
	content := c.FormValue("content")
	if title == "" || content == "" {
		return apperrors.BadRequest("Title and content are required.")
	}
	category := c.FormValue("category", "NOTICE")
	pinned := c.FormValue("pinned") == "true"

	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		files = form.File["attachments"]
	}

	attachments := make([]models.NoticeAttachment, 0, len(files))
	var storedPaths []string
	cleanup := func() {
		for _, p := range storedPaths {
			_ = os.Remove(p)
		}
	}

	for _, file := range files {
		if file.Size > h.upload.MaxSizeBytes {
			cleanup()
			return apperrors.New(apperrors.CodePayloadTooLarge, "Attachment is too large.")
		}
		fileKey := uuid.NewString()
		stored := filepath.Join(h.upload.Dir, fileKey+filepath.Ext(file.Filename))
		if err := c.SaveFile(file, stored); err != nil {
			cleanup()
			return apperrors.Internal("failed to store attachment", err)
		}
		storedPaths = append(storedPaths, stored)
		attachments = append(attachments, models.NoticeAttachment{
			StoredPath:   stored,
			OriginalName: filepath.Base(file.Filename),
			ContentType:  file.Header.Get("Content-Type"),
			SizeBytes:    file.Size,
			FileKey:      fileKey,
		})
	}

	notice := &models.Notice{
		Title:    title,
		Content:  content,
		AuthorID: &member.ID,
		Category: category,
		Pinned:   pinned,
	}
	id, err := h.notices.Create(c.Context(), notice, attachments)
	if err != nil {
		cleanup()
		return apperrors.Internal("failed to create notice", err)
	}

	h.logger.WithFields(logrus.Fields{
		"notice_id":   id,
		"author_id":   member.ID,
		"attachments": len(attachments),
	}).Info("Notice created")

	detail, err := h.notices.Get(c.Context(), id)
	if err != nil || detail == nil {
		return apperrors.Internal("failed to load created notice", err)
	}
	for i := range detail.Attachments {
		detail.Attachments[i].URL = h.downloadURL(detail.Attachments[i].FileKey)
	}
	return c.Status(fiber.StatusCreated).JSON(detail)
}

// loadOwned fetches the notice and checks the caller is its author or an
// admin.
func (h *NoticeHandler) loadOwned(c *fiber.Ctx, member *models.Member) (*models.NoticeDetail, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}
	detail, err := h.notices.Get(c.Context(), id)
	if err != nil {
		return nil, apperrors.Internal("failed to load notice", err)
	}
	if detail == nil {
		return nil, apperrors.NotFound("Notice not found.")
	}
	if !member.Admin && (detail.AuthorID == nil || *detail.AuthorID != member.ID) {
		return nil, apperrors.Forbidden("Only the author or an administrator can modify this notice.")
	}
	return detail, nil
}

func (h *NoticeHandler) Update(c *fiber.Ctx) error {
	member, err := middleware.PrincipalFrom(c).Require()
	if err != nil {
		return err
	}
	detail, err := h.loadOwned(c, member)
	if err != nil {
		return err
	}

	var req struct {
		Title    string `json:"title"`
		Content  string `json:"content"`
		Category string `json:"category"`
		Pinned   *bool  `json:"pinned"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.BadRequest("Invalid request body.")
	}

	if req.Title != "" {
		detail.Title = req.Title
	}
	if req.Content != "" {
		detail.Content = req.Content
	}
	if req.Category != "" {
		detail.Category = req.Category
	}
	if req.Pinned != nil {
		detail.Pinned = *req.Pinned
	}

	if err := h.notices.Update(c.Context(), &detail.Notice); err != nil {
		return apperrors.Internal("failed to update notice", err)
	}
	return c.JSON(detail)
}

// Delete removes the notice and its stored attachment files.
func (h *NoticeHandler) Delete(c *fiber.Ctx) error {
	member, err := middleware.PrincipalFrom(c).Require()
	if err != nil {
		return err
	}
	detail, err := h.loadOwned(c, member)
	if err != nil {
		return err
	}

	if err := h.notices.Delete(c.Context(), detail.ID); err != nil {
		return apperrors.Internal("failed to delete notice", err)
	}
	for _, a := range detail.Attachments {
		if err := os.Remove(a.StoredPath); err != nil && !os.IsNotExist(err) {
			h.logger.WithError(err).WithField("path", a.StoredPath).Warn("Failed to remove attachment file")
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DownloadAttachment streams a stored file by its opaque key, restoring the
// original filename for the client.
func (h *NoticeHandler) DownloadAttachment(c *fiber.Ctx) error {
	fileKey := c.Params("fileKey")
	attachment, err := h.notices.FindAttachmentByKey(c.Context(), fileKey)
	if err != nil {
		return apperrors.Internal("failed to load attachment", err)
	}
	if attachment == nil {
		return apperrors.NotFound("File not found.")
	}
	return c.Download(attachment.StoredPath, attachment.OriginalName)
}
