// Package config loads and validates the demo application's YAML
// configuration: one or more named pools, each backed by a SQL Server
// endpoint, plus the Redis and metrics settings the demo wires around
// the core pool library.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/evoila/genpool/pkg/drivers/mssql"
	"github.com/evoila/genpool/pkg/pool"
)

// ServerConfig holds the demo binary's own listener settings.
type ServerConfig struct {
	InstanceID      string        `yaml:"instance_id"`
	MetricsPort     int           `yaml:"metrics_port"`
	HealthPort      int           `yaml:"health_port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RedisConfig holds the Redis connection used by the cross-instance
// stats reporter.
type RedisConfig struct {
	Addr              string        `yaml:"addr"`
	Password          string        `yaml:"password"`
	DB                int           `yaml:"db"`
	PoolSize          int           `yaml:"pool_size"`
	DialTimeout       time.Duration `yaml:"dial_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	HeartbeatTTL      time.Duration `yaml:"heartbeat_ttl"`
	ReportInterval    time.Duration `yaml:"report_interval"`
}

// PoolSpec describes one named pool: its sizing/policy knobs (embedded
// pool.Config) plus the SQL Server endpoint its Manager connects to.
type PoolSpec struct {
	ID                string        `yaml:"id"`
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	Database          string        `yaml:"database"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`

	InitialSize      int  `yaml:"initial_size"`
	MaxSize          int  `yaml:"max_size"`
	AcquireIncrement int  `yaml:"acquire_increment"`
	HelperWorkers    int  `yaml:"helper_workers"`
	TestOnCheckout   bool `yaml:"test_on_checkout"`
}

// PoolConfig extracts the pool.Config portion of this spec.
func (s PoolSpec) PoolConfig() pool.Config {
	return pool.Config{
		InitialSize:      s.InitialSize,
		MaxSize:          s.MaxSize,
		AcquireIncrement: s.AcquireIncrement,
		HelperWorkers:    s.HelperWorkers,
		TestOnCheckout:   s.TestOnCheckout,
	}
}

// MSSQLConfig extracts the mssql.Config portion of this spec.
func (s PoolSpec) MSSQLConfig() mssql.Config {
	return mssql.Config{
		Host:              s.Host,
		Port:              s.Port,
		Database:          s.Database,
		Username:          s.Username,
		Password:          s.Password,
		ConnectionTimeout: s.ConnectionTimeout,
	}
}

// Config is the root configuration structure for the demo binary.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Redis  RedisConfig  `yaml:"redis"`
	Pools  []PoolSpec   `yaml:"pools"`
}

// fileConfig mirrors the YAML structure on disk.
type fileConfig struct {
	Server ServerConfig `yaml:"server"`
	Redis  RedisConfig  `yaml:"redis"`
	Pools  []PoolSpec   `yaml:"pools"`
}

// Load reads, parses, defaults, and validates a configuration file.
// Defaults are applied first so that validation sees the defaulted pool
// knobs.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg := &Config{
		Server: file.Server,
		Redis:  file.Redis,
		Pools:  file.Pools,
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// validate checks mandatory fields that have no safe default.
func (c *Config) validate() error {
	if len(c.Pools) == 0 {
		return fmt.Errorf("at least one pool must be configured")
	}
	seen := make(map[string]bool, len(c.Pools))
	for i, p := range c.Pools {
		if p.ID == "" {
			return fmt.Errorf("pools[%d].id is required", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("pools[%d].id %q is duplicated", i, p.ID)
		}
		seen[p.ID] = true
		if p.Host == "" {
			return fmt.Errorf("pool %s: host is required", p.ID)
		}
		if p.Port == 0 {
			return fmt.Errorf("pool %s: port is required", p.ID)
		}
		if err := p.PoolConfig().Validate(); err != nil {
			return fmt.Errorf("pool %s: %w", p.ID, err)
		}
	}
	return nil
}

// applyDefaults fills in reasonable defaults for unset optional fields,
// mirroring pool.DefaultConfig() for the pool knobs that have no
// required value.
func (c *Config) applyDefaults() {
	if c.Server.InstanceID == "" {
		hostname, _ := os.Hostname()
		c.Server.InstanceID = hostname
	}
	if c.Server.MetricsPort == 0 {
		c.Server.MetricsPort = 9090
	}
	if c.Server.HealthPort == 0 {
		c.Server.HealthPort = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	if c.Redis.Addr == "" {
		c.Redis.Addr = "redis:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}
	if c.Redis.HeartbeatInterval == 0 {
		c.Redis.HeartbeatInterval = 10 * time.Second
	}
	if c.Redis.HeartbeatTTL == 0 {
		c.Redis.HeartbeatTTL = 30 * time.Second
	}
	if c.Redis.ReportInterval == 0 {
		c.Redis.ReportInterval = 5 * time.Second
	}

	defaults := pool.DefaultConfig()
	for i := range c.Pools {
		if c.Pools[i].AcquireIncrement == 0 {
			c.Pools[i].AcquireIncrement = defaults.AcquireIncrement
		}
		if c.Pools[i].HelperWorkers == 0 {
			c.Pools[i].HelperWorkers = defaults.HelperWorkers
		}
		if c.Pools[i].MaxSize == 0 {
			c.Pools[i].MaxSize = defaults.MaxSize
		}
		if c.Pools[i].ConnectionTimeout == 0 {
			c.Pools[i].ConnectionTimeout = 30 * time.Second
		}
	}
}

// PoolByID returns the pool spec with the given ID.
func (c *Config) PoolByID(id string) (*PoolSpec, bool) {
	for i := range c.Pools {
		if c.Pools[i].ID == id {
			return &c.Pools[i], true
		}
	}
	return nil, false
}
