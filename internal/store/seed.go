package store

import (
	"context"
	"database/sql"

	"github.com/sirupsen/logrus"

	"github.com/immersive-lab/lab-api/internal/auth"
	"github.com/immersive-lab/lab-api/internal/config"
	"github.com/immersive-lab/lab-api/internal/models"
)

// Seed guarantees a usable deployment on an empty database: one admin member
// who can log in and one lab_info row for the public pages. Both steps are
// no-ops when the data already exists.
func Seed(ctx context.Context, db *sql.DB, cfg config.SeedConfig, logger *logrus.Logger) error {
	members := NewMemberStore(db)
	labInfo := NewLabInfoStore(db)

	admin, err := members.FindByLoginID(ctx, cfg.AdminLoginID)
	if err != nil {
		return err
	}
	if admin == nil {
		hashed, err := auth.HashPassword(cfg.AdminPassword)
		if err != nil {
			return err
		}
		created, err := members.Create(ctx, &models.Member{
			Name:      "Administrator",
			LoginID:   cfg.AdminLoginID,
			Password:  hashed,
			Role:      models.RoleProfessor,
			Admin:     true,
			SortOrder: 0,
		})
		if err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{
			"member_id": created.ID,
			"login_id":  cfg.AdminLoginID,
		}).Info("Seeded initial admin member")
	}

	info, err := labInfo.Get(ctx)
	if err != nil {
		return err
	}
	if info == nil {
		if _, err := labInfo.Upsert(ctx, &models.LabInfo{
			LabName:     cfg.LabName,
			Description: "Welcome to " + cfg.LabName + ".",
		}); err != nil {
			return err
		}
		logger.WithField("lab_name", cfg.LabName).Info("Seeded default lab info")
	}
	return nil
}
