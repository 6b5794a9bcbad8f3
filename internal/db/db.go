package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bedflow-backend/config"
	"bedflow-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if err := applyConstraints(db); err != nil {
		return nil, fmt.Errorf("failed to apply constraints: %w", err)
	}

	return db, nil
}

// Migrate runs the schema migrations for all engine tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Department{},
		&model.Room{},
		&model.Bed{},
		&model.Patient{},
		&model.Staff{},
		&model.Equipment{},
		&model.BedTurnover{},
		&model.TurnoverLog{},
		&model.EquipmentTurnover{},
		&model.PatientQueueEntry{},
		&model.PushSubscription{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

// applyConstraints adds the partial unique indexes that back the engine's
// one-active-row invariants. Postgres-only DDL; the same rules are also
// checked inside each transaction so other backends stay correct.
func applyConstraints(db *gorm.DB) error {
	ddls := []string{
		// One non-terminal turnover per bed.
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_bed_turnovers_one_active " +
			"ON bed_turnovers (bed_id) " +
			"WHERE status IN ('initiated', 'cleaning', 'cleaning_complete', 'ready');",

		// One open turnover row per equipment item.
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_equipment_turnovers_one_open " +
			"ON equipment_turnovers (equipment_id) " +
			"WHERE status <> 'returned';",

		// Queue positions are unique within a department.
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_patient_queue_position " +
			"ON patient_queue_entries (department_id, queue_position);",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
