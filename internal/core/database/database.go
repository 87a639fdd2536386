package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// Transactor runs fn inside a database transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Client wraps the shared GORM connection.
type Client struct {
	conn *gorm.DB
}

func NewClient(conn *gorm.DB) *Client {
	return &Client{conn: conn}
}

// OpenPostgres builds a GORM handle on top of an existing pool so the sqlx
// handle used for health checks and the ORM share connections.
func OpenPostgres(sqlDB *sql.DB) (*gorm.DB, error) {
	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening gorm connection: %w", err)
	}
	return conn, nil
}

func (c *Client) DB() *gorm.DB {
	return c.conn
}

// WithTx executes fn inside a transaction, rolling back on error or panic.
// Serialization failures surface as ErrConcurrencyConflict.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := c.conn.WithContext(ctx).Begin()
	if tx.Error != nil {
		return TranslateError(tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return TranslateError(err)
	}

	return TranslateError(tx.Commit().Error)
}

// TranslateError maps driver errors that callers can act on to AppErrors and
// passes everything else through.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return internal.ErrConcurrencyConflict.WithCause(err)
		case pgUniqueViolation:
			return internal.NewConflictError("Resource already exists", "DUPLICATE_RESOURCE").WithCause(err)
		}
	}
	return err
}
