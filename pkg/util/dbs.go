package util

import (
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDatabase opens the configured database. Driver "" or "sqlite" uses the
// embedded sqlite build; "mysql" and "pg" select the respective servers.
func OpenDatabase(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	return createDatabaseInstance(cfg, driver, dsn)
}
