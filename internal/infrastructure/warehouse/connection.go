package warehouse

import (
	"context"
	"fmt"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"vossync/internal/shared/config"
	appLogger "vossync/internal/shared/logger"
)

var (
	conn   driver.Conn
	connMu sync.RWMutex
)

// Init initializes the warehouse connection.
func Init(cfg *config.WarehouseConfig) error {
	c, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.GetAddr()},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
	})
	if err != nil {
		return fmt.Errorf("failed to open warehouse connection: %w", err)
	}

	if err := c.Ping(context.Background()); err != nil {
		return fmt.Errorf("failed to ping warehouse: %w", err)
	}

	connMu.Lock()
	conn = c
	connMu.Unlock()

	appLogger.Info("warehouse connection established",
		"database", cfg.Database)

	return nil
}

// Get returns the warehouse connection.
func Get() driver.Conn {
	connMu.RLock()
	defer connMu.RUnlock()
	return conn
}

// Close closes the warehouse connection.
func Close() error {
	connMu.RLock()
	current := conn
	connMu.RUnlock()

	if current == nil {
		return nil
	}
	if err := current.Close(); err != nil {
		return fmt.Errorf("failed to close warehouse connection: %w", err)
	}
	appLogger.Info("warehouse connection closed")
	return nil
}
