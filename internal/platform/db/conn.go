package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const connKey contextKey = "db_conn"

// Conn is a connection checked out of a pool. *pgxpool.Conn satisfies it.
type Conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Release()
}

// Acquirer hands out pooled connections.
type Acquirer interface {
	Acquire(ctx context.Context) (Conn, error)
}

type poolAcquirer struct {
	pool *pgxpool.Pool
}

// PoolAcquirer adapts a pgx pool to Acquirer.
func PoolAcquirer(pool *pgxpool.Pool) Acquirer {
	return poolAcquirer{pool: pool}
}

func (a poolAcquirer) Acquire(ctx context.Context) (Conn, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// WithConn acquires a single connection for the duration of fn and releases
// it on every exit path, including panics. Repositories called from fn pick the
// connection up through ConnFromContext. A nil Acquirer runs fn unscoped, which
// lets repositories fall back to their default pool.
func WithConn(ctx context.Context, acq Acquirer, fn func(ctx context.Context) error) error {
	if acq == nil || ConnFromContext(ctx) != nil {
		return fn(ctx)
	}

	conn, err := acq.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return fn(context.WithValue(ctx, connKey, conn))
}

// ConnFromContext retrieves the scoped database connection from context.
func ConnFromContext(ctx context.Context) Conn {
	if ctx == nil {
		return nil
	}
	conn, _ := ctx.Value(connKey).(Conn)
	return conn
}
