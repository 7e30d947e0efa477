package database

import (
	"database/sql"
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Config holds database configuration. Unlike a single fixed-peer
// network client, rptd runs one StatsRepository/MemoryRepository/
// LinkHistoryRepository set shared by every configured Node goroutine
// against the same SQLite file, so the tunables below are exposed rather
// than baked into configureSQLite's pragma list (spec §3.1's "multiple
// Nodes" topology, unlike the teacher's one-network-per-process shape).
type Config struct {
	Path string // Path to SQLite database file

	BusyTimeoutMS  int // PRAGMA busy_timeout; 0 uses DefaultBusyTimeoutMS
	CacheSizePages int // PRAGMA cache_size; 0 uses DefaultCacheSizePages
	MaxOpenConns   int // sql.DB.SetMaxOpenConns; 0 uses DefaultMaxOpenConns
}

// Defaults applied when the matching Config field is zero.
const (
	DefaultBusyTimeoutMS  = 5000
	DefaultCacheSizePages = 10000
	// DefaultMaxOpenConns is 1: SQLite serializes writers regardless, and
	// capping the pool avoids "database is locked" errors surfacing as
	// driver-level failures instead of busy_timeout retries across the
	// several Nodes that share this one file.
	DefaultMaxOpenConns = 1
)

// DB wraps the GORM database instance
type DB struct {
	db *gorm.DB
}

// NewDB creates a new database connection with pure Go SQLite driver
func NewDB(config Config, log *log.Logger) (*DB, error) {
	if config.BusyTimeoutMS == 0 {
		config.BusyTimeoutMS = DefaultBusyTimeoutMS
	}
	if config.CacheSizePages == 0 {
		config.CacheSizePages = DefaultCacheSizePages
	}
	if config.MaxOpenConns == 0 {
		config.MaxOpenConns = DefaultMaxOpenConns
	}

	// Configure GORM logger
	var gormLog logger.Interface
	if log != nil {
		gormLog = logger.New(
			log,
			logger.Config{
				LogLevel:                  logger.Warn, // Only log warnings and errors
				IgnoreRecordNotFoundError: true,        // Don't log "record not found" errors
				Colorful:                  false,       // No color in logs
			},
		)
	} else {
		gormLog = logger.Default.LogMode(logger.Silent)
	}

	// Create dialector with pure Go SQLite driver
	dialector := sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        config.Path,
	}

	// Open database connection
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLog,
	})
	if err != nil {
		return nil, err
	}

	// Get underlying SQL DB for PRAGMA settings and pool tuning
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := configureSQLite(sqlDB, config); err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)

	// Auto-migrate database schema (spec §3.1 stats, §3.3 memory channels,
	// §7 link connect/disconnect history)
	if err := db.AutoMigrate(&NodeStats{}, &MemoryChannel{}, &LinkEvent{}); err != nil {
		return nil, err
	}

	if log != nil {
		log.Printf("Database initialized: %s", config.Path)
	}

	return &DB{db: db}, nil
}

// configureSQLite applies the PRAGMA set rptd needs for a multi-Node
// writer under WAL: config's BusyTimeoutMS/CacheSizePages drive the two
// pragmas that vary per-deployment, the rest are fixed.
func configureSQLite(sqlDB *sql.DB, config Config) error {
	pragmaSettings := []string{
		"PRAGMA journal_mode=WAL",   // Write-Ahead Logging for better concurrency
		"PRAGMA synchronous=NORMAL", // Balanced safety/performance
		fmt.Sprintf("PRAGMA busy_timeout=%d", config.BusyTimeoutMS),
		fmt.Sprintf("PRAGMA cache_size=%d", config.CacheSizePages),
		"PRAGMA foreign_keys=ON",   // Enable foreign key constraints
		"PRAGMA temp_store=memory", // Store temporary tables in memory
	}

	for _, pragma := range pragmaSettings {
		if _, err := sqlDB.Exec(pragma); err != nil {
			return err
		}
	}

	return nil
}

// GetDB returns the underlying GORM database instance
func (db *DB) GetDB() *gorm.DB {
	return db.db
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks if the database connection is healthy
func (db *DB) Health() error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Stats returns database connection statistics
func (db *DB) Stats() sql.DBStats {
	sqlDB, _ := db.db.DB()
	return sqlDB.Stats()
}
