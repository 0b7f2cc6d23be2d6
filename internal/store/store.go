// Package store persists pharmacy records in Postgres. Table names match the
// hosted schema the storefront was built against.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pharmacy-api/internal/models"
	"pharmacy-api/internal/resilience"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflicts with an existing one")
)

type OrderFilter struct {
	UserID string
	Status models.OrderStatus
	Limit  int
}

type PaymentFilter struct {
	UserID string
	Status models.PaymentStatus
}

type PrescriptionFilter struct {
	UserID string
	Status models.PrescriptionStatus
}

type NotificationFilter struct {
	UnreadOnly bool
	Limit      int
}

const defaultListLimit = 200

type Postgres struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Open connects to Postgres, retrying the first ping while the database
// comes up.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	err = resilience.Retry(ctx, 5, 500*time.Millisecond, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	slog.Info("Connected to Postgres")
	return NewPostgres(db), nil
}

func (s *Postgres) DB() *sql.DB {
	return s.db.DB
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Postgres) Close() error {
	return s.db.Close()
}

// mapErr translates driver errors into the package's sentinel errors.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
		case "23503":
			return fmt.Errorf("%w: %s", ErrNotFound, pqErr.Constraint)
		}
	}
	return err
}

func requireRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func limitOrDefault(n int) int {
	if n <= 0 || n > defaultListLimit {
		return defaultListLimit
	}
	return n
}
