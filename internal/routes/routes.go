package routes

import (
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/immersive-lab/lab-api/internal/attendance"
	"github.com/immersive-lab/lab-api/internal/config"
	"github.com/immersive-lab/lab-api/internal/metrics"
	"github.com/immersive-lab/lab-api/internal/middleware"
	"github.com/immersive-lab/lab-api/internal/store"
)

// Dependencies carries everything the route handlers need.
type Dependencies struct {
	Config     *config.Config
	Logger     *logrus.Logger
	DB         *sql.DB
	Members    *store.MemberStore
	Notices    *store.NoticeStore
	Projects   *store.ProjectStore
	Events     *store.EventStore
	LabInfo    *store.LabInfoStore
	Attendance *attendance.Service
	Tokens     TokenIssuer
}

// TokenIssuer is the slice of the token service login needs.
type TokenIssuer interface {
	Issue(loginID, clientIP string) (string, error)
}

// Setup configures all API routes
func Setup(app *fiber.App, deps Dependencies, mgr *middleware.Manager) {
	authHandler := NewAuthHandler(deps.Members, deps.Tokens, deps.Logger)
	memberHandler := NewMemberHandler(deps.Members, deps.Logger)
	attendanceHandler := NewAttendanceHandler(deps.Attendance, deps.Members, deps.Config.Attendance.AllowedIPs, deps.Logger)
	noticeHandler := NewNoticeHandler(deps.Notices, &deps.Config.Upload, deps.Config.Server.BaseURL, deps.Logger)
	projectHandler := NewProjectHandler(deps.Projects, deps.Logger)
	eventHandler := NewEventHandler(deps.Events, deps.Logger)
	labInfoHandler := NewLabInfoHandler(deps.LabInfo, deps.Logger)
	uploadHandler := NewUploadHandler(&deps.Config.Upload, deps.Config.Server.BaseURL, deps.Logger)

	// Health and scrape endpoints stay outside the /api pipeline: no rate
	// limiting, no auth.
	app.Get("/healthz", healthCheck)
	app.Get("/readyz", readinessCheck(deps.DB))
	app.Get(deps.Config.Observability.MetricsPath, metrics.PrometheusHandler())

	// Uploaded files are served as-is under a stable public prefix.
	app.Static("/uploads", deps.Config.Upload.Dir)

	api := app.Group("/api")
	api.Use(metrics.HTTPMetricsMiddleware())
	api.Use(mgr.RateLimit.Handle())
	api.Use(mgr.Auth.Handle())
	api.Use(mgr.ErrorLogger.Handle())

	authRoutes := api.Group("/auth")
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authHandler.Me)

	memberRoutes := api.Group("/members")
	memberRoutes.Get("/", memberHandler.List)
	memberRoutes.Get("/:id", memberHandler.Get)
	memberRoutes.Post("/", memberHandler.Create)
	memberRoutes.Put("/order", memberHandler.SaveOrder)
	memberRoutes.Put("/me", memberHandler.UpdateProfile)
	memberRoutes.Put("/me/password", memberHandler.ChangePassword)
	memberRoutes.Put("/:id", memberHandler.Update)
	memberRoutes.Delete("/:id", memberHandler.Delete)

	attendanceRoutes := api.Group("/attendance")
	attendanceRoutes.Post("/check-in", attendanceHandler.CheckIn)
	attendanceRoutes.Post("/check-out", attendanceHandler.CheckOut)
	attendanceRoutes.Get("/me", attendanceHandler.MyRecords)
	attendanceRoutes.Get("/stats", attendanceHandler.Stats)

	noticeRoutes := api.Group("/notices")
	noticeRoutes.Get("/", noticeHandler.List)
	noticeRoutes.Get("/files/:fileKey", noticeHandler.DownloadAttachment)
	noticeRoutes.Get("/:id", noticeHandler.Get)
	noticeRoutes.Post("/", noticeHandler.Create)
	noticeRoutes.Put("/:id", noticeHandler.Update)
	noticeRoutes.Delete("/:id", noticeHandler.Delete)

	projectRoutes := api.Group("/projects")
	projectRoutes.Get("/", projectHandler.List)
	projectRoutes.Get("/:id", projectHandler.Get)
	projectRoutes.Post("/", projectHandler.Create)
	projectRoutes.Put("/:id/status", projectHandler.UpdateStatus)
	projectRoutes.Put("/:id", projectHandler.Update)
	projectRoutes.Delete("/:id", projectHandler.Delete)

	eventRoutes := api.Group("/events")
	eventRoutes.Get("/", eventHandler.List)
	eventRoutes.Post("/", eventHandler.Create)
	eventRoutes.Put("/:id", eventHandler.Update)
	eventRoutes.Delete("/:id", eventHandler.Delete)

	api.Get("/lab-info", labInfoHandler.Get)
	api.Put("/lab-info", labInfoHandler.Update)

	api.Post("/upload", uploadHandler.Upload)

	app.Use(notFoundHandler)
}

func healthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "lab-api",
	})
}

// readinessCheck pings the database; the service is not ready without it.
func readinessCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := db.PingContext(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
			})
		}
		return c.JSON(fiber.Map{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
		})
	}
}

func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"message": "Not found.",
	})
}
