package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"vehiclemodels/internal/core"
	"vehiclemodels/internal/util"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
)

// DBType names the SQL dialect behind a store.
type DBType string

const (
	DBTypeSQLite   DBType = "sqlite"
	DBTypePostgres DBType = "postgres"

	driverSQLite   = "sqlite3"
	driverPostgres = "pgx"

	sqliteMemory = ":memory:"
)

// OpenStore opens the service database for the given mode: an ephemeral
// SQLite database, a SQLite file at path, or PostgreSQL at databaseURL.
func OpenStore(ctx context.Context, logger core.Logger, mode, path, databaseURL string) (*SQLStore, error) {
	if logger == nil {
		logger = &core.NopLogger{}
	}
	switch mode {
	case core.ServiceDBModeInMemory, "":
		logger.Info("Using in-memory service database (data will be lost on restart)")
		return NewSQLiteStore(ctx, logger, sqliteMemory)

	case core.ServiceDBModeDisk:
		path = strings.TrimSpace(path)
		if path == "" {
			path = core.DefaultServiceDBPath
		}
		return NewSQLiteStore(ctx, logger, path)

	case core.ServiceDBModeExternal:
		return NewExternalStore(ctx, logger, databaseURL)

	default:
		return nil, fmt.Errorf("unknown service database mode %q (valid modes: %s, %s, %s)",
			mode, core.ServiceDBModeInMemory, core.ServiceDBModeDisk, core.ServiceDBModeExternal)
	}
}

// NewSQLiteStore opens a SQLite database at dbPath. ":memory:" or an empty
// path gives an ephemeral database.
func NewSQLiteStore(ctx context.Context, logger core.Logger, dbPath string) (*SQLStore, error) {
	if dbPath == "" {
		dbPath = sqliteMemory
	}

	dsn := dbPath + "?_foreign_keys=on"
	if dbPath != sqliteMemory {
		dsn = dbPath + "?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000"
	}

	db, err := sql.Open(driverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	configureConnectionPool(db, DBTypeSQLite)

	s, err := newSQLStore(ctx, db, DBTypeSQLite, logger)
	if err != nil {
		return nil, err
	}

	if dbPath == sqliteMemory {
		s.logger.Debug("Connected to SQLite in-memory service database")
	} else {
		s.logger.Info("Connected to SQLite service database at %s", dbPath)
	}
	return s, nil
}

// NewExternalStore connects to PostgreSQL. Only postgres:// and
// postgresql:// URLs are accepted.
func NewExternalStore(ctx context.Context, logger core.Logger, databaseURL string) (*SQLStore, error) {
	databaseURL = strings.TrimSpace(databaseURL)
	if !strings.HasPrefix(databaseURL, "postgresql://") && !strings.HasPrefix(databaseURL, "postgres://") {
		return nil, fmt.Errorf("unsupported external database URL %q, expected postgresql://", databaseURL)
	}

	db, err := sql.Open(driverPostgres, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}
	configureConnectionPool(db, DBTypePostgres)

	s, err := newSQLStore(ctx, db, DBTypePostgres, logger)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Connected to external PostgreSQL service database")
	return s, nil
}

func newSQLStore(ctx context.Context, db *sql.DB, dbType DBType, logger core.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = &core.NopLogger{}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dbType, err)
	}

	s := &SQLStore{db: db, dbType: dbType, logger: logger}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// rebind rewrites ? placeholders to $1, $2, ... for PostgreSQL.
func rebind(dbType DBType, query string) string {
	if dbType == DBTypeSQLite {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// configureConnectionPool sizes the pool per database type. SQLite gets a
// single connection, which also keeps an in-memory database alive.
func configureConnectionPool(db *sql.DB, dbType DBType) {
	if dbType == DBTypePostgres {
		maxOpen, _ := util.GetEnvInt("DB_MAX_OPEN_CONNS", core.DBMaxOpenConns)
		maxIdle, _ := util.GetEnvInt("DB_MAX_IDLE_CONNS", core.DBMaxIdleConns)
		lifetime, _ := util.GetEnvDuration("DB_CONN_MAX_LIFETIME", core.DBConnMaxLifetime)

		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxIdle)
		db.SetConnMaxLifetime(lifetime)
		return
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
}

// idColumn is the auto-increment primary key definition per dialect.
func idColumn(dbType DBType) string {
	if dbType == DBTypeSQLite {
		return "id INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return "id BIGSERIAL PRIMARY KEY"
}
