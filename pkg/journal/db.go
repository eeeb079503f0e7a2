// Package journal records frames and transactions in a SQLite database
// and persists the stored text of stations.
package journal

import (
	"database/sql"

	"github.com/golang/glog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Config holds journal configuration.
type Config struct {
	// Path of the SQLite database file.
	Path string
	// Verbose logs SQL warnings through glog.
	Verbose bool
}

// DB is the journal database.
type DB struct {
	db *gorm.DB
}

type glogWriter struct{}

func (glogWriter) Printf(format string, args ...interface{}) {
	glog.Warningf(format, args...)
}

// Open opens or creates the journal with the pure Go SQLite driver.
func Open(conf Config) (*DB, error) {
	gormLog := logger.Default.LogMode(logger.Silent)
	if conf.Verbose {
		gormLog = logger.New(glogWriter{}, logger.Config{
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}
	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        conf.Path,
	}, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := configureSQLite(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := db.AutoMigrate(&FrameRecord{}, &TransactionRecord{}, &StoredText{}); err != nil {
		sqlDB.Close()
		return nil, err
	}
	glog.Infof("journal: %s", conf.Path)
	return &DB{db: db}, nil
}

func configureSQLite(sqlDB *sql.DB) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health pings the database.
func (d *DB) Health() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
