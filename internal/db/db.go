package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/viewing-scheduler/internal/config"
	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
)

func NewDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	return db, nil
}

// Busy windows of non-cancelled appointments may not overlap per agent or
// per customer. The advisory locks keep this from ever firing in normal
// operation.
var constraints = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,
	`DO $$ BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'appointments_agent_window_excl') THEN
			ALTER TABLE appointments ADD CONSTRAINT appointments_agent_window_excl
				EXCLUDE USING gist (agent_id WITH =, tstzrange(departure_time, available_again_time, '[)') WITH &&)
				WHERE (status <> 'CANCELLED');
		END IF;
	END $$`,
	`DO $$ BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'appointments_customer_window_excl') THEN
			ALTER TABLE appointments ADD CONSTRAINT appointments_customer_window_excl
				EXCLUDE USING gist (customer_id WITH =, tstzrange(starts_at, return_time, '[)') WITH &&)
				WHERE (status <> 'CANCELLED');
		END IF;
	END $$`,
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Office{},
		&models.Property{},
		&models.Customer{},
		&models.Appointment{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	for _, stmt := range constraints {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("install constraint: %w", err)
		}
	}
	return nil
}
