// Package mssql is a reference Manager implementation backed by
// go-mssqldb: a resource-specific driver the pool treats as an external
// collaborator. Each Manager.Create opens a *sql.DB capped to a single
// physical connection (MaxOpenConns=1), so every pool.Lease[*sql.DB]
// maps 1:1 onto one SQL Server session.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/microsoft/go-mssqldb"
)

// Config describes one SQL Server endpoint a Manager connects to.
type Config struct {
	Host              string
	Port              int
	Database          string
	Username          string
	Password          string
	ConnectionTimeout time.Duration
}

// DSN returns the sqlserver:// connection string for this endpoint.
func (c Config) DSN() string {
	timeout := c.ConnectionTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return fmt.Sprintf("sqlserver://%s:%s@%s:%s?database=%s&connection+timeout=%s",
		c.Username, c.Password, c.Host, strconv.Itoa(c.Port), c.Database,
		strconv.Itoa(int(timeout.Seconds())))
}

// Addr returns the host:port of the endpoint.
func (c Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Manager implements pool.Manager[*sql.DB] against one SQL Server
// endpoint. It satisfies the interface structurally; pool.Manager is
// not imported here so this package stays usable without pulling in
// the pool package, but any pool.Manager[*sql.DB]-typed variable can be
// assigned a *Manager directly.
type Manager struct {
	cfg Config
}

// NewManager returns a Manager for the given endpoint.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg}
}

// Create opens a new *sql.DB pinned to a single physical connection and
// verifies it is reachable before returning it.
func (m *Manager) Create(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlserver", m.cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("mssql: sql.Open: %w", err)
	}

	// A sql.DB capped at one open connection maps 1:1 to one physical
	// SQL Server session, which is what the pool's accounting assumes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mssql: ping: %w", err)
	}

	return db, nil
}

// IsValid pings the connection. It is cheap relative to Create, which
// has to establish a TCP+TLS session and run the TDS login handshake.
func (m *Manager) IsValid(ctx context.Context, conn *sql.DB) bool {
	return conn.PingContext(ctx) == nil
}

// ResetSession runs sp_reset_connection to clear session state
// (temp tables, SET options, transaction context) before a connection
// is handed to a new caller. It is not part of the pool.Manager
// contract — the core pool has no notion of a release hook — so
// callers that want this call it themselves between Checkout and
// Release.
func ResetSession(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, "EXEC sp_reset_connection")
	return err
}
