// Package postgres implements backend.TableStore over PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sitecrew/sitecrew/internal/backend"
)

// DBInterface is satisfied by pgxpool.Pool, pgx.Tx and pgxmock pools.
type DBInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store maps table operations onto SQL. Column names are stored in camelCase
// and always quoted.
type Store struct {
	db DBInterface
}

// NewStore constructs a Store.
func NewStore(db DBInterface) *Store {
	return &Store{db: db}
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func quote(ident string) (string, error) {
	if !identPattern.MatchString(ident) {
		return "", fmt.Errorf("%w: column %q", backend.ErrInvalidFilter, ident)
	}
	return `"` + ident + `"`, nil
}

func checkTable(table string) error {
	if !backend.KnownTable(table) {
		return fmt.Errorf("%w: %s", backend.ErrUnknownTable, table)
	}
	return nil
}

func where(filters []backend.Filter) (squirrel.And, error) {
	conds := squirrel.And{}
	for _, f := range filters {
		col, err := quote(f.Column)
		if err != nil {
			return nil, err
		}
		switch f.Op {
		case backend.OpEq:
			conds = append(conds, squirrel.Eq{col: f.Value})
		case backend.OpGte:
			conds = append(conds, squirrel.GtOrEq{col: f.Value})
		case backend.OpLte:
			conds = append(conds, squirrel.LtOrEq{col: f.Value})
		default:
			return nil, fmt.Errorf("%w: operator %q", backend.ErrInvalidFilter, f.Op)
		}
	}
	return conds, nil
}

// Select runs q against table.
func (s *Store) Select(ctx context.Context, table string, q backend.Query) (backend.Result, error) {
	if err := checkTable(table); err != nil {
		return backend.Result{}, err
	}
	conds, err := where(q.Filters)
	if err != nil {
		return backend.Result{}, err
	}
	qb := squirrel.Select("*").From(table).Where(conds).PlaceholderFormat(squirrel.Dollar)
	if q.Order != "" {
		col, err := quote(q.Order)
		if err != nil {
			return backend.Result{}, err
		}
		if q.Desc {
			col += " DESC"
		}
		qb = qb.OrderBy(col)
	}
	if q.Limit > 0 {
		qb = qb.Limit(uint64(q.Limit))
	}
	if q.Offset > 0 {
		qb = qb.Offset(uint64(q.Offset))
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return backend.Result{}, fmt.Errorf("building select query: %w", err)
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return backend.Result{}, fmt.Errorf("selecting %s: %w", table, err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return backend.Result{}, fmt.Errorf("scanning %s: %w", table, err)
	}
	res := backend.Result{Rows: make([]backend.Row, 0, len(collected))}
	for _, row := range collected {
		res.Rows = append(res.Rows, normalize(row))
	}
	if !q.Count {
		return res, nil
	}
	countQuery, countArgs, err := squirrel.Select("COUNT(*)").From(table).Where(conds).
		PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return backend.Result{}, fmt.Errorf("building count query: %w", err)
	}
	if err := s.db.QueryRow(ctx, countQuery, countArgs...).Scan(&res.Count); err != nil {
		return backend.Result{}, fmt.Errorf("counting %s: %w", table, err)
	}
	return res, nil
}

// Insert adds row and returns the stored record.
func (s *Store) Insert(ctx context.Context, table string, row backend.Row) (backend.Row, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	values, err := encodeRow(row)
	if err != nil {
		return nil, err
	}
	query, args, err := squirrel.Insert(table).SetMap(values).Suffix("RETURNING *").
		PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert query: %w", err)
	}
	return s.one(ctx, table, query, args)
}

// Update patches the row with id and returns the stored record.
func (s *Store) Update(ctx context.Context, table string, id string, patch backend.Row) (backend.Row, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	delete(patch, "id")
	values, err := encodeRow(patch)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("updating %s: empty patch", table)
	}
	query, args, err := squirrel.Update(table).SetMap(values).Where(squirrel.Eq{`"id"`: id}).
		Suffix("RETURNING *").PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building update query: %w", err)
	}
	return s.one(ctx, table, query, args)
}

// Delete removes the row with id.
func (s *Store) Delete(ctx context.Context, table string, id string) error {
	if err := checkTable(table); err != nil {
		return err
	}
	query, args, err := squirrel.Delete(table).Where(squirrel.Eq{`"id"`: id}).
		PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return backend.ErrNotFound
	}
	return nil
}

func (s *Store) one(ctx context.Context, table, query string, args []any) (backend.Row, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("writing %s: %w", table, err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, backend.ErrNotFound
		}
		return nil, fmt.Errorf("scanning %s: %w", table, err)
	}
	return normalize(row), nil
}

func encodeRow(row backend.Row) (map[string]any, error) {
	out := make(map[string]any, len(row))
	for k, v := range row {
		col, err := quote(k)
		if err != nil {
			return nil, err
		}
		enc, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", k, err)
		}
		out[col] = enc
	}
	return out, nil
}

// encodeValue turns decoded JSON values into types pgx can bind.
func encodeValue(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		return json.Marshal(val)
	case []any:
		strs := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return json.Marshal(val)
			}
			strs = append(strs, s)
		}
		return strs, nil
	}
	return v, nil
}

// normalize converts driver values into JSON friendly ones.
func normalize(row map[string]any) backend.Row {
	for k, v := range row {
		switch val := v.(type) {
		case [16]byte:
			row[k] = uuid.UUID(val).String()
		case pgtype.Numeric:
			f, err := val.Float64Value()
			if err == nil && f.Valid {
				row[k] = f.Float64
			} else {
				row[k] = nil
			}
		}
	}
	return row
}

var _ backend.TableStore = (*Store)(nil)
