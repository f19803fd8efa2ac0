package routes

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/immersive-lab/lab-api/internal/config"
	"github.com/immersive-lab/lab-api/internal/middleware"
	apperrors "github.com/immersive-lab/lab-api/pkg/errors"
)

// allowedUploadExts is the extension allow-list for the generic upload
// endpoint (profile photos and inline images).
var allowedUploadExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".pdf":  true,
}

// UploadHandler stores files for direct static serving under /uploads.
type UploadHandler struct {
	upload  *config.UploadConfig
	baseURL string
	logger  *logrus.Logger
}

func NewUploadHandler(upload *config.UploadConfig, baseURL string, logger *logrus.Logger) *UploadHandler {
	return &UploadHandler{upload: upload, baseURL: baseURL, logger: logger}
}

// Upload accepts a single multipart "file". The stored name is generated
// server-side, so client-supplied names never touch the filesystem.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	member, err := middleware.PrincipalFrom(c).Require()
	if err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return apperrors.BadRequest("A file is required.")
	}
	if file.Size > h.upload.MaxSizeBytes {
		return apperrors.New(apperrors.CodePayloadTooLarge, "File is too large.")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedUploadExts[ext] {
		return apperrors.BadRequest("That file type is not allowed.")
	}

	name := fmt.Sprintf("%d_%s%s", time.Now().Unix(), uuid.NewString(), ext)
	if err := c.SaveFile(file, filepath.Join(h.upload.Dir, name)); err != nil {
		return apperrors.Internal("failed to store file", err)
	}

	h.logger.WithFields(logrus.Fields{
		"member_id": member.ID,
		"file":      name,
		"size":      file.Size,
	}).Info("File uploaded")

	return c.JSON(fiber.Map{
		"url": h.baseURL + "/uploads/" + name,
	})
}
