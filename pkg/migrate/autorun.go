package migrate

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/workshop-backend/pkg/config"
	"github.com/angelmondragon/workshop-backend/pkg/db"
	"github.com/angelmondragon/workshop-backend/pkg/db/models"
	"github.com/angelmondragon/workshop-backend/pkg/logger"
)

// MaybeRunDev migrates the schema on boot when running in dev mode with the
// auto-migrate flag enabled. Postgres runs the embedded goose migrations;
// sqlite is migrated from the models and seeded with the default devices.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": client.Driver()})

	if client.Driver() == config.DBDriverSQLite {
		logg.Info(ctx, "migrating sqlite schema from models (dev auto-run)")
		return AutoMigrateModels(ctx, client.DB())
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	logg.Info(ctx, "running goose migrations (dev auto-run)")
	if err := Run(ctx, sqlDB, "", "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(ctx, "goose migrations completed")
	return nil
}

// AutoMigrateModels migrates an embedded sqlite database from the models and seeds
// the default device catalogue.
func AutoMigrateModels(ctx context.Context, conn *gorm.DB) error {
	conn = conn.WithContext(ctx)
	if err := conn.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return SeedDevices(ctx, conn)
}

// SeedDevices inserts the default device catalogue, skipping existing names.
func SeedDevices(ctx context.Context, conn *gorm.DB) error {
	devices := make([]models.Device, 0, len(models.DefaultDeviceNames))
	for _, name := range models.DefaultDeviceNames {
		devices = append(devices, models.Device{Name: name, IsActive: true})
	}
	err := conn.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&devices).Error
	if err != nil {
		return fmt.Errorf("seed devices: %w", err)
	}
	return nil
}
