package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/devandress/Estacion-metereologica/pkg/config"
)

// ErrNotFound is returned when a station, source, record or share link does
// not exist.
var ErrNotFound = errors.New("not found")

// Manager handles all database operations
type Manager struct {
	db            *sql.DB
	healthChecker *HealthChecker
	log           zerolog.Logger
}

// NewManager connects to Postgres and starts connection health checking
func NewManager(cfg config.DatabaseConfig, logger zerolog.Logger) (*Manager, error) {
	db, err := connectDatabase(cfg.ConnString())
	if err != nil {
		return nil, err
	}

	m := &Manager{
		db:            db,
		healthChecker: NewHealthChecker(db, cfg.ConnString(), 30*time.Second, logger),
		log:           logger,
	}

	m.healthChecker.Start()

	return m, nil
}

// GetDB returns the underlying database connection
func (m *Manager) GetDB() *sql.DB {
	return m.db
}

// Close closes the database connection and stops health checking
func (m *Manager) Close() error {
	if m.healthChecker != nil {
		m.healthChecker.Stop()
	}
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// Init initializes the database with migrations
func (m *Manager) Init() error {
	m.log.Info().Msg("Running database migrations...")

	runner, err := NewMigrationsRunner(m.db, m.log)
	if err != nil {
		return fmt.Errorf("failed to create migration runner: %w", err)
	}

	if err := runner.Run(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.log.Info().Msg("Database initialization completed")
	return nil
}

// QueryWithHealthCheck executes a query with connection health verification
func (m *Manager) QueryWithHealthCheck(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	if err := m.healthChecker.EnsureConnection(ctx); err != nil {
		return nil, err
	}

	return m.db.QueryContext(ctx, query, args...)
}

// QueryRowWithHealthCheck executes a query that returns a single row with health check
func (m *Manager) QueryRowWithHealthCheck(ctx context.Context, query string, args ...interface{}) *sql.Row {
	if err := m.healthChecker.EnsureConnection(ctx); err != nil {
		// Return a row that will fail on scan
		return m.db.QueryRowContext(context.Background(), "SELECT NULL WHERE FALSE")
	}

	return m.db.QueryRowContext(ctx, query, args...)
}

// ExecWithHealthCheck executes a statement with connection health verification
func (m *Manager) ExecWithHealthCheck(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if err := m.healthChecker.EnsureConnection(ctx); err != nil {
		return nil, err
	}

	return m.db.ExecContext(ctx, query, args...)
}

// WithTx runs fn inside a transaction, committing on nil and rolling back on
// error or panic. Each request's reads-then-writes against a record go through
// here so they commit atomically.
func (m *Manager) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := m.healthChecker.EnsureConnection(ctx); err != nil {
		return err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// IsConnectionHealthy returns the current health status
func (m *Manager) IsConnectionHealthy() bool {
	return m.healthChecker.IsHealthy()
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// connectDatabase establishes a connection to the database
func connectDatabase(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}
