// Package mysql opens the MySQL storage backend. It also serves a Dolt
// sql-server, which speaks the MySQL protocol.
package mysql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-sql-driver/mysql"

	"github.com/steveyegge/redline/internal/storage/sqlstore"
)

// Config holds connection settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	TLS      bool
}

// DefaultPort is the MySQL protocol port.
const DefaultPort = 3306

// Store is the MySQL-backed storage.
type Store struct {
	*sqlstore.Store
	database string
}

// Database returns the schema name in use.
func (s *Store) Database() string {
	return s.database
}

// DSN renders cfg as a go-sql-driver DSN. An empty database connects
// without selecting a schema.
func (cfg Config) DSN(database string) string {
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	mc.DBName = database
	// UPDATE reports matched rows, not changed rows, so unchanged updates
	// are not mistaken for missing records.
	mc.ClientFoundRows = true
	mc.Timeout = 10 * time.Second
	if cfg.TLS {
		mc.TLSConfig = "true"
	}
	return mc.FormatDSN()
}

// New connects to the server, creates the database if needed, and opens
// the store.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return nil, errors.New("mysql backend requires host and database")
	}

	if err := ensureDatabase(ctx, cfg); err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", cfg.DSN(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	inner, err := sqlstore.New(ctx, db, Dialect(), logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Store: inner, database: cfg.Database}, nil
}

func ensureDatabase(ctx context.Context, cfg Config) error {
	db, err := sql.Open("mysql", cfg.DSN(""))
	if err != nil {
		return fmt.Errorf("failed to open server connection: %w", err)
	}
	defer func() { _ = db.Close() }()

	stmt := "CREATE DATABASE IF NOT EXISTS `" + strings.ReplaceAll(cfg.Database, "`", "``") + "`"
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	err = backoff.Retry(func() error {
		_, err := db.ExecContext(ctx, stmt)
		if err != nil && !isRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return fmt.Errorf("failed to create database %s: %w", cfg.Database, err)
	}
	return nil
}

// Dialect returns the MySQL dialect.
func Dialect() sqlstore.Dialect {
	return sqlstore.Dialect{
		Name:              "mysql",
		Schema:            schema,
		IsUniqueViolation: isUniqueViolation,
		IsRetryable:       isRetryableError,
		MaxRetryElapsed:   30 * time.Second,
	}
}

// MySQL error numbers.
const (
	errDupEntry        = 1062
	errLockDeadlock    = 1213
	errLockWaitTimeout = 1205
)

func isUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errDupEntry
}

// isRetryableError returns true if the error is a transient connection
// error or a serialization conflict.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && (me.Number == errLockDeadlock || me.Number == errLockWaitTimeout) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	for _, transient := range []string{
		"driver: bad connection",
		"invalid connection",
		"broken pipe",
		"connection reset",
		// Server restart: may come back within the backoff window
		"connection refused",
		// Dolt can enter read-only mode under load
		"database is read only",
		"lost connection",
		"gone away",
		"i/o timeout",
	} {
		if strings.Contains(errStr, transient) {
			return true
		}
	}
	return false
}
