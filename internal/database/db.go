package database

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"waste-console/internal/models"
)

// Open connects to Postgres and migrates the console-owned tables.
// Tickets, users and reference data live in the store, not here.
func Open(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect database")
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("database connected, migration finished")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.SessionRecord{},
		&models.AuditLog{},
	)
	return errors.Wrap(err, "auto migrate")
}

// PurgeSessions deletes sessions that expired or were revoked before cutoff.
func PurgeSessions(db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.Where("expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)", cutoff, cutoff).
		Delete(&models.SessionRecord{})
	return res.RowsAffected, errors.Wrap(res.Error, "purge sessions")
}
