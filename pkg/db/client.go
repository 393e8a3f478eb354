package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yourwae/fastget-backend/pkg/config"
	"github.com/yourwae/fastget-backend/pkg/logger"
	"github.com/yourwae/fastget-backend/pkg/retry"
)

// Client owns the shared GORM connection pool.
type Client struct {
	conn    *gorm.DB
	txRetry retry.Policy
}

// Pinger is the readiness probe surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	// Postgres may still be starting when the API boots under compose.
	connectPolicy = retry.Linear(5, 500*time.Millisecond, 15*time.Second)

	// Checkout and fulfillment transactions are replayed when the database
	// aborts them for serialization or deadlock.
	defaultTxRetry = retry.Linear(3, 20*time.Millisecond, 2*time.Second)
)

// New opens Postgres, or the SQLite file at cfg.SQLitePath when useSQLite is
// set, applies the pool settings and waits until the database answers a ping.
func New(ctx context.Context, cfg config.DBConfig, useSQLite bool, logg *logger.Logger) (*Client, error) {
	dialector, err := dialectorFor(cfg, useSQLite)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 newQueryLogger(logg, 200*time.Millisecond),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialector.Name(), err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	client := &Client{conn: conn, txRetry: defaultTxRetry}
	err = connectPolicy.Do(ctx, func(ctx context.Context, attempt int) error {
		pingErr := client.Ping(ctx)
		if pingErr != nil && logg != nil {
			logg.Warn(logg.WithFields(ctx, map[string]any{"attempt": attempt, "error": pingErr.Error()}), "database.ping_failed")
		}
		return pingErr
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", dialector.Name(), err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "dialect", dialector.Name()), "database.connected")
	}
	return client, nil
}

// NewFromGorm wraps an already-open connection, mostly for tests and tools.
func NewFromGorm(conn *gorm.DB) *Client {
	return &Client{conn: conn, txRetry: defaultTxRetry}
}

func dialectorFor(cfg config.DBConfig, useSQLite bool) (gorm.Dialector, error) {
	if useSQLite {
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite path is required")
		}
		return sqlite.Open(cfg.SQLitePath), nil
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}
	return postgres.New(postgres.Config{DSN: cfg.DSN, PreferSimpleProtocol: true}), nil
}

func (c *Client) IsSQLite() bool {
	return c.conn != nil && c.conn.Dialector.Name() == "sqlite"
}

func (c *Client) DB() *gorm.DB {
	return c.conn
}

func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (c *Client) Close() error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTx runs fn in a transaction. The transaction rolls back when fn
// returns an error or panics, and the whole of fn is run again when the
// database reports a serialization failure or deadlock.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return c.txRetry.Do(ctx, func(ctx context.Context, _ int) error {
		err := c.runTx(ctx, fn)
		if v, _ := Classify(err); v == ViolationSerialization {
			return err
		}
		return retry.Permanent(err)
	})
}

func (c *Client) runTx(ctx context.Context, fn func(tx *gorm.DB) error) (err error) {
	tx := c.conn.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil && !errors.Is(rbErr, gorm.ErrInvalidTransaction) {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return tx.Commit().Error
}

// queryLogger routes GORM's own logging into the service logger: failed
// statements at error level, slow ones at warn, nothing else.
type queryLogger struct {
	logg *logger.Logger
	slow time.Duration
}

func newQueryLogger(logg *logger.Logger, slow time.Duration) gormlogger.Interface {
	if logg == nil {
		return gormlogger.Discard
	}
	return &queryLogger{logg: logg, slow: slow}
}

func (q *queryLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface { return q }

func (q *queryLogger) Info(context.Context, string, ...any) {}

func (q *queryLogger) Warn(ctx context.Context, msg string, args ...any) {
	q.logg.Warn(ctx, fmt.Sprintf(msg, args...))
}

func (q *queryLogger) Error(ctx context.Context, msg string, args ...any) {
	q.logg.Error(ctx, "database.error", errors.New(fmt.Sprintf(msg, args...)))
}

func (q *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		err = nil
	}
	if err == nil && elapsed < q.slow {
		return
	}

	sql, rows := fc()
	ctx = q.logg.WithFields(ctx, map[string]any{
		"sql":         sql,
		"rows":        rows,
		"duration_ms": elapsed.Milliseconds(),
	})
	if err != nil {
		q.logg.Error(ctx, "database.query_failed", err)
		return
	}
	q.logg.Warn(ctx, "database.slow_query")
}
