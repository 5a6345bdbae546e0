package review

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cadlink/internal/cad"
	"cadlink/internal/classify"
	"cadlink/pkg/domain"
	dErrors "cadlink/pkg/domain-errors"
	txcontext "cadlink/pkg/platform/tx"
)

// PostgresStore persists review items in the review_queue table. The raw
// entity and classification snapshots are jsonb: the queue is a holding
// area, not a query surface.
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

func (s *PostgresStore) Add(ctx context.Context, item *Item) error {
	entityJSON, err := json.Marshal(item.Entity)
	if err != nil {
		return fmt.Errorf("marshal review entity: %w", err)
	}
	classificationJSON, err := json.Marshal(item.Classification)
	if err != nil {
		return fmt.Errorf("marshal review classification: %w", err)
	}
	query := `
		INSERT INTO review_queue (id, project_id, entity, classification, created_at, resolved)
		VALUES ($1, $2, $3, $4, $5, false)
	`
	_, err = s.conn(ctx).ExecContext(ctx, query,
		uuid.UUID(item.ID),
		uuid.UUID(item.ProjectID),
		entityJSON,
		classificationJSON,
		item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review item: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, id domain.ReviewItemID) (*Item, error) {
	query := `
		SELECT id, project_id, entity, classification, created_at, resolved, resolved_at
		FROM review_queue WHERE id = $1
	`
	item, err := scanItem(s.conn(ctx).QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find review item: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) ListOpen(ctx context.Context, projectID domain.ProjectID) ([]*Item, error) {
	query := `
		SELECT id, project_id, entity, classification, created_at, resolved, resolved_at
		FROM review_queue
		WHERE project_id = $1 AND NOT resolved
		ORDER BY created_at
	`
	rows, err := s.conn(ctx).QueryContext(ctx, query, uuid.UUID(projectID))
	if err != nil {
		return nil, fmt.Errorf("list open review items: %w", err)
	}
	defer rows.Close()

	var out []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("list open review items: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkResolved(ctx context.Context, id domain.ReviewItemID, at time.Time) error {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE review_queue SET resolved = true, resolved_at = $2
		WHERE id = $1 AND NOT resolved
	`, uuid.UUID(id), at)
	if err != nil {
		return fmt.Errorf("resolve review item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve review item: %w", err)
	}
	if affected == 0 {
		// Either missing or already resolved; look it up to tell the two apart.
		if _, findErr := s.Find(ctx, id); findErr != nil {
			return findErr
		}
		return dErrors.New(dErrors.CodeInvariantViolation, "review item is already resolved")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		item               Item
		id                 uuid.UUID
		projectID          uuid.UUID
		entityJSON         []byte
		classificationJSON []byte
		resolvedAt         sql.NullTime
	)
	err := row.Scan(&id, &projectID, &entityJSON, &classificationJSON,
		&item.CreatedAt, &item.Resolved, &resolvedAt)
	if err != nil {
		return nil, err
	}
	item.ID = domain.ReviewItemID(id)
	item.ProjectID = domain.ProjectID(projectID)

	var entity cad.RawEntity
	if err := json.Unmarshal(entityJSON, &entity); err != nil {
		return nil, fmt.Errorf("unmarshal review entity: %w", err)
	}
	item.Entity = entity

	var classification classify.Classification
	if err := json.Unmarshal(classificationJSON, &classification); err != nil {
		return nil, fmt.Errorf("unmarshal review classification: %w", err)
	}
	item.Classification = classification

	if resolvedAt.Valid {
		item.ResolvedAt = &resolvedAt.Time
	}
	return &item, nil
}
