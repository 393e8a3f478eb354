package migrate

import (
	"context"
	"fmt"

	"github.com/yourwae/fastget-backend/pkg/config"
	"github.com/yourwae/fastget-backend/pkg/db"
	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/logger"
)

type strategy string

const (
	strategyNone   strategy = "none"
	strategyModels strategy = "gorm_automigrate"
	strategyGoose  strategy = "goose_up"
)

// planAutoRun decides how the API brings its own schema up to date at boot.
// Only dev with FASTGET_AUTO_MIGRATE migrates; SQLite has no goose history
// and is built from the models instead.
func planAutoRun(cfg *config.Config, sqlite bool) strategy {
	switch {
	case !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate:
		return strategyNone
	case sqlite:
		return strategyModels
	default:
		return strategyGoose
	}
}

// MaybeRunDev applies the schema when planAutoRun says so.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	plan := planAutoRun(cfg, client.IsSQLite())
	if plan == strategyNone {
		return nil
	}
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "strategy": string(plan)})
	logg.Info(ctx, "schema.auto_migrate")

	switch plan {
	case strategyModels:
		if err := client.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("auto-migrating models: %w", err)
		}
	case strategyGoose:
		sqlDB, err := client.DB().DB()
		if err != nil {
			return fmt.Errorf("sql handle: %w", err)
		}
		if err := Run(ctx, sqlDB, Source{}, "up"); err != nil {
			return err
		}
	}

	logg.Info(ctx, "schema.auto_migrate_done")
	return nil
}
