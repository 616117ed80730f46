package models

import (
	// supported database drivers
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"

	"github.com/stablelink/stablelink/conf"
)

// Namespace puts all table names under a common namespace. This is
// useful if you want to use the same database for several services and
// don't want table names to collide.
var Namespace string

// Connect will connect to the configured storage engine.
func Connect(config *conf.GlobalConfiguration) (*gorm.DB, error) {
	db, err := gorm.Open(config.DB.Driver, config.DB.URL)
	if err != nil {
		return nil, errors.Wrap(err, "opening database connection")
	}

	if err := db.DB().Ping(); err != nil {
		return nil, errors.Wrap(err, "checking database connection")
	}

	if config.DB.Automigrate {
		if err := AutoMigrate(db); err != nil {
			return nil, errors.Wrap(err, "migrating tables")
		}
	}

	return db, nil
}

// AutoMigrate creates any missing tables, columns and indexes.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Link{}, &Product{}, &Sale{}).Error
}

func tableName(defaultName string) string {
	if Namespace != "" {
		return Namespace + "_" + defaultName
	}
	return defaultName
}
