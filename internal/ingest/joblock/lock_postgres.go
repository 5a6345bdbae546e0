package joblock

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"

	"cadlink/pkg/domain"
)

// PostgresLocker holds a named advisory lock for the job's duration.
// Advisory locks are session-scoped, so the locker pins one connection per
// held lock and releases both together.
type PostgresLocker struct {
	db *sql.DB
}

func NewPostgresLocker(db *sql.DB) *PostgresLocker {
	return &PostgresLocker{db: db}
}

// lockKey folds the project UUID into the 64-bit advisory lock keyspace.
func lockKey(projectID domain.ProjectID) int64 {
	h := fnv.New64a()
	h.Write([]byte(projectID.String()))
	return int64(h.Sum64())
}

func (l *PostgresLocker) Acquire(ctx context.Context, projectID domain.ProjectID) (Release, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire lock connection: %w", err)
	}
	key := lockKey(projectID)

	var acquired bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&acquired); err != nil {
		conn.Close()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		conn.Close()
		return nil, ErrProjectBusy
	}

	release := func(ctx context.Context) error {
		defer conn.Close()
		if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, key); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}
	return release, nil
}
