package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	_ "github.com/lib/pq"

	"gowalmart_seller/config"
	"gowalmart_seller/pkg/logger"
)

const (
	maxRetries     = 10
	dbMaxOpenConns = 20
	retryDelay     = 5 * time.Second
)

type PostgresDatabase struct {
	config.PostgresConfig
	log logger.Logger

	attempts uint
	delay    time.Duration

	db *sql.DB
	mu sync.Mutex
}

func NewPgConnector(dbConfig config.PostgresConfig, log logger.Logger) *PostgresDatabase {
	return &PostgresDatabase{PostgresConfig: dbConfig, log: log, attempts: maxRetries, delay: retryDelay}
}

// Connect opens the pool once, retrying while Postgres is not reachable yet.
func (pg *PostgresDatabase) Connect(ctx context.Context) (*sql.DB, error) {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db != nil {
		return pg.db, nil
	}

	conStr := pg.GetConnectionString()
	db, err := retry.DoWithData(func() (*sql.DB, error) {
		db, err := sql.Open("postgres", conStr)
		if err != nil {
			return nil, retry.Unrecoverable(fmt.Errorf("failed to open Postgres: %w", err))
		}
		db.SetMaxOpenConns(dbMaxOpenConns)

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping Postgres db: %w", err)
		}
		return db, nil
	},
		retry.Context(ctx),
		retry.Attempts(pg.attempts),
		retry.Delay(pg.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			pg.log.Warn("Failed to connect to Postgres %s:%s (attempt %d/%d): %v", pg.Host, pg.Port, n+1, pg.attempts, err)
		}),
	)
	if err != nil {
		return nil, err
	}

	pg.log.Log("Successfully connected to Postgres %s:%s/%s", pg.Host, pg.Port, pg.DBName)
	pg.db = db
	return pg.db, nil
}

func (pg *PostgresDatabase) Close() error {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db == nil {
		return nil
	}
	err := pg.db.Close()
	pg.db = nil
	return err
}
