package database

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"socialfeed/internal/config"
	"socialfeed/internal/middleware"

	"gorm.io/gorm"
)

const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// AutoMigrate can drop or retype columns, so these environments only get it on explicit opt-in.
var protectedEnvs = []string{"production", "prod", "staging", "stage"}

// SchemaPlan is the set of schema steps a config asks for.
type SchemaPlan struct {
	Mode        string
	SQL         bool
	AutoMigrate bool
}

// PlanSchema resolves DB_SCHEMA_MODE (default hybrid) against APP_ENV.
//
//	sql     versioned SQL migrations only
//	auto    GORM AutoMigrate only; protected envs need DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE
//	hybrid  SQL migrations, plus AutoMigrate outside protected envs
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	mode := cmp.Or(strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode)), SchemaModeHybrid)
	protected := slices.Contains(protectedEnvs, strings.ToLower(strings.TrimSpace(cfg.Env)))

	switch mode {
	case SchemaModeSQL:
		return SchemaPlan{Mode: mode, SQL: true}, nil
	case SchemaModeHybrid:
		return SchemaPlan{Mode: mode, SQL: true, AutoMigrate: !protected}, nil
	case SchemaModeAuto:
		if protected && !cfg.DBAutoMigrateAllowDestructive {
			return SchemaPlan{}, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		return SchemaPlan{Mode: mode, AutoMigrate: true}, nil
	}
	return SchemaPlan{}, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
}

// ApplySchema runs the steps PlanSchema selects, SQL migrations first.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}

	if plan.SQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if plan.AutoMigrate {
		middleware.Logger.InfoContext(ctx, "auto-migrating models",
			slog.String("mode", plan.Mode),
			slog.String("env", cfg.Env),
		)
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// PendingMigrations returns the applied versions and the registered migrations
// that have not run yet.
func PendingMigrations(ctx context.Context, db *gorm.DB) ([]int, []Migration, error) {
	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, nil, err
	}
	var pending []Migration
	for _, m := range GetMigrations() {
		if !containsVersion(applied, m.Version) {
			pending = append(pending, m)
		}
	}
	return applied, pending, nil
}
