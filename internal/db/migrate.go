package db

import (
	"context"
	"embed"
	"path"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations
var migrations embed.FS

// Migrate applies every pending migration for the given driver.
func Migrate(ctx context.Context, gormDB *gorm.DB, driver string) error {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return errors.Wrap(err, "get sql.DB")
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(driver); err != nil {
		return errors.Wrapf(err, "set goose dialect %s", driver)
	}
	if err := goose.UpContext(ctx, sqlDB, path.Join("migrations", driver)); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	return nil
}
