package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"

	"github.com/immersive-lab/lab-api/internal/attendance"
	"github.com/immersive-lab/lab-api/internal/auth"
	"github.com/immersive-lab/lab-api/internal/config"
	"github.com/immersive-lab/lab-api/internal/logging"
	"github.com/immersive-lab/lab-api/internal/metrics"
	"github.com/immersive-lab/lab-api/internal/middleware"
	"github.com/immersive-lab/lab-api/internal/routes"
	"github.com/immersive-lab/lab-api/internal/store"
	apperrors "github.com/immersive-lab/lab-api/pkg/errors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg)

	if err := metrics.Init(); err != nil {
		logger.WithError(err).Fatal("Failed to initialize metrics")
	}

	tracingShutdown, err := middleware.InitTracing(&cfg.Observability, cfg.Server.Environment, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to setup tracing")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingShutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Failed to shutdown tracing")
		}
	}()

	db, err := store.Open(cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open database")
	}
	defer db.Close()

	ctx := context.Background()
	if err := store.EnsureSchema(ctx, db); err != nil {
		logger.WithError(err).Fatal("Failed to ensure database schema")
	}
	if err := store.Seed(ctx, db, cfg.Seed, logger); err != nil {
		logger.WithError(err).Fatal("Failed to seed initial data")
	}

	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		logger.WithError(err).Fatal("Failed to create upload directory")
	}

	loc, err := time.LoadLocation(cfg.Attendance.Timezone)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load attendance timezone")
	}

	members := store.NewMemberStore(db)
	tokens := auth.NewTokenService(cfg.JWT, logger)
	resolver := auth.NewResolver(members)

	app := fiber.New(fiber.Config{
		AppName:      "Lab API",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BodyLimit:    int(cfg.Upload.MaxSizeBytes) + 1<<20,
		ErrorHandler: errorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowOrigins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Requested-With,X-USER",
		MaxAge:       86400,
	}))
	if cfg.Observability.TracingEnabled {
		app.Use(otelfiber.Middleware())
	}

	mgr := middleware.NewManager(cfg, logger, tokens, resolver)
	defer mgr.Close()

	routes.Setup(app, routes.Dependencies{
		Config:     cfg,
		Logger:     logger,
		DB:         db,
		Members:    members,
		Notices:    store.NewNoticeStore(db),
		Projects:   store.NewProjectStore(db),
		Events:     store.NewEventStore(db),
		LabInfo:    store.NewLabInfoStore(db),
		Attendance: attendance.NewService(store.NewAttendanceStore(db), loc),
		Tokens:     tokens,
	}, mgr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		logger.Info("Gracefully shutting down...")
		if err := app.Shutdown(); err != nil {
			logger.WithError(err).Error("Server shutdown failed")
		}
	}()

	logger.WithField("port", cfg.Server.Port).Info("Starting Lab API server")
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}

// errorHandler maps application errors onto their HTTP status with a uniform
// {"message": ...} body. Causes are logged server-side and never serialized.
func errorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "An unexpected error occurred."

		var appErr *apperrors.AppError
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &appErr):
			status = appErr.HTTPStatus()
			message = appErr.Message
			if appErr.Cause != nil {
				logger.WithError(appErr.Cause).WithFields(logrus.Fields{
					"method": c.Method(),
					"path":   c.Path(),
					"code":   string(appErr.Code),
				}).Error("Request failed")
			}
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			message = fiberErr.Message
		default:
			logger.WithError(err).WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
			}).Error("Unhandled request error")
		}

		return c.Status(status).JSON(fiber.Map{
			"message": message,
		})
	}
}
