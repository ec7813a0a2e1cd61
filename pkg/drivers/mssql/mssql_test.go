package mssql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Create and IsValid require a live SQL Server endpoint and are exercised
// by integration tests outside this module; DSN/Addr are the pure parts.

func TestDSNAppliesDefaultTimeout(t *testing.T) {
	c := Config{Host: "db.internal", Port: 1433, Database: "app", Username: "u", Password: "p"}
	assert.Equal(t, "sqlserver://u:p@db.internal:1433?database=app&connection+timeout=30", c.DSN())
}

func TestDSNHonorsExplicitTimeout(t *testing.T) {
	c := Config{
		Host: "db.internal", Port: 1433, Database: "app",
		Username: "u", Password: "p", ConnectionTimeout: 5 * time.Second,
	}
	assert.Equal(t, "sqlserver://u:p@db.internal:1433?database=app&connection+timeout=5", c.DSN())
}

func TestAddr(t *testing.T) {
	c := Config{Host: "rds-primary.internal", Port: 1433}
	assert.Equal(t, "rds-primary.internal:1433", c.Addr())
}

func TestNewManagerStoresConfig(t *testing.T) {
	cfg := Config{Host: "h", Port: 1, Database: "d", Username: "u", Password: "p"}
	m := NewManager(cfg)
	assert.Equal(t, cfg.DSN(), m.cfg.DSN())
}
