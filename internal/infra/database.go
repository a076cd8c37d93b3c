package infra

import (
	"fmt"

	"fuelsurcharge/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, creates the
// tables and then applies the idempotent SQL patches GORM cannot express.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates the three tables and applies schema patches. It is
// safe to run on every start.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.PriceRecord{},
		&model.ActivityLog{},
		&model.Settings{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL. Each statement is guarded so
// re-running on an already-patched schema is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// (date, region) uniqueness is the only cross-run invariant; make
		// sure it exists even on tables created before the index was tagged.
		{"unique (date, region) on price_records", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_price_records_date_region') THEN
    CREATE UNIQUE INDEX idx_price_records_date_region ON price_records (date, region);
  END IF;
END $$`},
		{"default id on price_records", `
ALTER TABLE price_records ALTER COLUMN id SET DEFAULT gen_random_uuid()`},
		{"default id on activity_logs", `
ALTER TABLE activity_logs ALTER COLUMN id SET DEFAULT gen_random_uuid()`},
		{"activity_logs (log_type, created_at) index", `
CREATE INDEX IF NOT EXISTS idx_activity_logs_type_created ON activity_logs (log_type, created_at DESC)`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
