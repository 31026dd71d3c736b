package main

import (
	"log"
	"strings"

	"ffstats/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func initDB(cfg Config) *gorm.DB {
	if cfg.DBDSN == "" {
		log.Fatal("DB_DSN is not set. This service requires a Postgres DSN in DB_DSN.")
	}
	db, err := gorm.Open(postgres.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	if cfg.AutoMigrate {
		migrate(db)
	}
	return db
}

// migrate runs AutoMigrate per model so a failure on one does not block the
// others. Permission errors are logged and ignored.
func migrate(db *gorm.DB) {
	if err := db.AutoMigrate(&models.User{}); err != nil {
		log.Printf("migration warning (users): %v", err)
	}
	if err := db.AutoMigrate(&models.Session{}); err != nil {
		log.Printf("migration warning (sessions): %v", err)
	}
}

// isUniqueConstraintError reports whether err comes from a store-level unique
// index rejecting a duplicate row. Registration relies on this rather than
// application-level locking to resolve same-email races.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "UNIQUE constraint") || strings.Contains(s, "already exists")
}
