package objects

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"cadlink/internal/geometry"
	"cadlink/pkg/domain"
	txcontext "cadlink/pkg/platform/tx"
)

// PostgresStore persists domain objects, one table per object type. All
// tables share the same column shape (id, project_id, discipline, geometry,
// data, created_at, updated_at); the typed payload is the tagged jsonb
// envelope from MarshalData. Schema migration is owned elsewhere.
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

// conn joins an in-flight transaction when one is in context, so each
// entity's object and link writes commit or roll back together.
func (s *PostgresStore) conn(ctx context.Context) dbConn {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// tableFor guards the table name interpolation: only names from the closed
// ObjectType set ever reach the query text.
func tableFor(t domain.ObjectType) (string, error) {
	if !t.IsMaterializable() {
		return "", fmt.Errorf("object type %q has no domain table", t)
	}
	return t.Table(), nil
}

func (s *PostgresStore) Upsert(ctx context.Context, obj *Object) error {
	table, err := tableFor(obj.Type())
	if err != nil {
		return err
	}
	geomJSON, err := json.Marshal(obj.Geometry)
	if err != nil {
		return fmt.Errorf("marshal geometry: %w", err)
	}
	dataJSON, err := MarshalData(obj.Data)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, project_id, discipline, geometry, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			discipline = EXCLUDED.discipline,
			geometry   = EXCLUDED.geometry,
			data       = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`, table)
	_, err = s.conn(ctx).ExecContext(ctx, query,
		uuid.UUID(obj.ID),
		uuid.UUID(obj.ProjectID),
		obj.Discipline,
		geomJSON,
		dataJSON,
		obj.CreatedAt,
		obj.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, t domain.ObjectType, id domain.ObjectID) (*Object, error) {
	table, err := tableFor(t)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT id, project_id, discipline, geometry, data, created_at, updated_at
		FROM %s WHERE id = $1
	`, table)
	obj, err := scanObject(s.conn(ctx).QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find in %s: %w", table, err)
	}
	return obj, nil
}

func (s *PostgresStore) List(ctx context.Context, projectID domain.ProjectID, filter Filter) ([]*Object, error) {
	var out []*Object
	for _, t := range domain.MaterializableTypes() {
		if !filter.wantsType(t) {
			continue
		}
		table, err := tableFor(t)
		if err != nil {
			return nil, err
		}
		query := fmt.Sprintf(`
			SELECT id, project_id, discipline, geometry, data, created_at, updated_at
			FROM %s
			WHERE project_id = $1 AND ($2 = '' OR discipline = $2)
			ORDER BY created_at, id
		`, table)
		rows, err := s.conn(ctx).QueryContext(ctx, query, uuid.UUID(projectID), filter.Discipline)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", table, err)
		}
		objs, err := collectObjects(rows)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", table, err)
		}
		out = append(out, objs...)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, t domain.ObjectType, id domain.ObjectID) error {
	table, err := tableFor(t)
	if err != nil {
		return err
	}
	res, err := s.conn(ctx).ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObject(row rowScanner) (*Object, error) {
	var (
		obj       Object
		id        uuid.UUID
		projectID uuid.UUID
		geomJSON  []byte
		dataJSON  []byte
	)
	if err := row.Scan(&id, &projectID, &obj.Discipline, &geomJSON, &dataJSON, &obj.CreatedAt, &obj.UpdatedAt); err != nil {
		return nil, err
	}
	obj.ID = domain.ObjectID(id)
	obj.ProjectID = domain.ProjectID(projectID)

	var geom geometry.Geometry
	if err := json.Unmarshal(geomJSON, &geom); err != nil {
		return nil, fmt.Errorf("unmarshal geometry: %w", err)
	}
	obj.Geometry = geom

	data, err := UnmarshalData(dataJSON)
	if err != nil {
		return nil, err
	}
	obj.Data = data
	return &obj, nil
}

func collectObjects(rows *sql.Rows) ([]*Object, error) {
	defer rows.Close()
	var out []*Object
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, rows.Err()
}
