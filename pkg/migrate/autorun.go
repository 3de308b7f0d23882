package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/cafemuji/cafemuji-backend/pkg/config"
	"github.com/cafemuji/cafemuji-backend/pkg/logger"
)

// Source is a database the boot migration can run against.
type Source interface {
	SQL() (*sql.DB, error)
	Dialect() string
}

// MaybeRun applies the embedded migrations on boot when auto-migrate is set.
// A sqlite counter terminal has nobody to run cmd/migrate, so it always does.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, src Source) error {
	if !cfg.DB.AutoMigrate && !cfg.DB.IsSQLite() {
		return nil
	}
	sqlDB, err := src.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	dialect := src.Dialect()
	if err := Up(ctx, sqlDB, dialect); err != nil {
		return fmt.Errorf("boot migration: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"dialect":        dialect,
			"schema_version": version,
		}), "migrate.boot_applied")
	}
	return nil
}
