package link

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"cadlink/pkg/domain"
	txcontext "cadlink/pkg/platform/tx"
)

// PostgresStore persists links in the entity_links table. The uniqueness
// invariant rides on a partial unique index over (project_id, cad_handle)
// WHERE status <> 'deleted', so concurrent imports cannot race a duplicate in.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) conn(ctx context.Context) dbConn {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const linkColumns = `
	id, project_id, cad_handle, object_type, object_id, geometry_hash,
	status, deletion_candidate, pending, last_synced_at, created_at, updated_at
`

func (s *PostgresStore) Insert(ctx context.Context, l *EntityLink) error {
	pending, err := marshalPending(l.Pending)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO entity_links (` + linkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.conn(ctx).ExecContext(ctx, query,
		uuid.UUID(l.ID),
		uuid.UUID(l.ProjectID),
		l.CadHandle,
		string(l.ObjectType),
		uuid.UUID(l.ObjectID),
		l.GeometryHash,
		string(l.Status),
		l.DeletionCandidate,
		pending,
		l.LastSyncedAt,
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrHandleTaken
		}
		return fmt.Errorf("insert entity link: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, l *EntityLink) error {
	pending, err := marshalPending(l.Pending)
	if err != nil {
		return err
	}
	query := `
		UPDATE entity_links SET
			geometry_hash = $2,
			status = $3,
			deletion_candidate = $4,
			pending = $5,
			last_synced_at = $6,
			updated_at = $7
		WHERE id = $1
	`
	res, err := s.conn(ctx).ExecContext(ctx, query,
		uuid.UUID(l.ID),
		l.GeometryHash,
		string(l.Status),
		l.DeletionCandidate,
		pending,
		l.LastSyncedAt,
		l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update entity link: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entity link: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.LinkID) (*EntityLink, error) {
	query := `SELECT ` + linkColumns + ` FROM entity_links WHERE id = $1`
	l, err := scanLink(s.conn(ctx).QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find entity link: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) FindActive(ctx context.Context, projectID domain.ProjectID, cadHandle string) (*EntityLink, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM entity_links
		WHERE project_id = $1 AND cad_handle = $2 AND status <> 'deleted'
	`
	l, err := scanLink(s.conn(ctx).QueryRowContext(ctx, query, uuid.UUID(projectID), cadHandle))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find active entity link: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) ListActive(ctx context.Context, projectID domain.ProjectID) ([]*EntityLink, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM entity_links
		WHERE project_id = $1 AND status <> 'deleted'
		ORDER BY created_at, cad_handle
	`
	rows, err := s.conn(ctx).QueryContext(ctx, query, uuid.UUID(projectID))
	if err != nil {
		return nil, fmt.Errorf("list active entity links: %w", err)
	}
	defer rows.Close()

	var out []*EntityLink
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("list active entity links: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func marshalPending(p *PendingChange) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal pending change: %w", err)
	}
	return b, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (*EntityLink, error) {
	var (
		l           EntityLink
		id          uuid.UUID
		projectID   uuid.UUID
		objectID    uuid.UUID
		objectType  string
		status      string
		pendingJSON []byte
	)
	err := row.Scan(&id, &projectID, &l.CadHandle, &objectType, &objectID,
		&l.GeometryHash, &status, &l.DeletionCandidate, &pendingJSON,
		&l.LastSyncedAt, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.ID = domain.LinkID(id)
	l.ProjectID = domain.ProjectID(projectID)
	l.ObjectID = domain.ObjectID(objectID)
	l.ObjectType = domain.ObjectType(objectType)
	l.Status = SyncStatus(status)
	if len(pendingJSON) > 0 {
		var pending PendingChange
		if err := json.Unmarshal(pendingJSON, &pending); err != nil {
			return nil, fmt.Errorf("unmarshal pending change: %w", err)
		}
		l.Pending = &pending
	}
	return &l, nil
}
