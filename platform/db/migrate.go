package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"interview_portal_backend/platform/config"
	"interview_portal_backend/platform/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies all pending goose migrations. When the config names a
// migrations directory it wins over the embedded set.
func RunMigrations(ctx context.Context, cfg config.DatabaseConfig, embedded fs.FS, log *logger.Logger) error {
	fsys := embedded
	if dir := strings.TrimSpace(cfg.GetMigrationsDir()); dir != "" {
		fsys = os.DirFS(dir)
	}
	if fsys == nil {
		return fmt.Errorf("no migrations source configured")
	}

	sqlDB, err := sql.Open("pgx", cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer sqlDB.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, res := range results {
		log.Info("migration applied", "version", res.Source.Version, "path", res.Source.Path, "duration", res.Duration)
	}

	return nil
}
