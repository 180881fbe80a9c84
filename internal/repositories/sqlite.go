package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/saverpwd/internal/common"
	"github.com/dmitrijs2005/saverpwd/internal/dbx"
	"github.com/dmitrijs2005/saverpwd/internal/models"
)

// SQLiteStore implements Store over a DBTX (either *sql.DB or *sql.Tx).
type SQLiteStore[T models.Record] struct {
	db dbx.DBTX
	s  schema[T]
}

// NewSQLiteStore returns a store for record kind T bound to db.
func NewSQLiteStore[T models.Record](db dbx.DBTX) *SQLiteStore[T] {
	return &SQLiteStore[T]{db: db, s: schemaFor[T]()}
}

func NewUsers(db dbx.DBTX) Store[models.User] { return NewSQLiteStore[models.User](db) }
func NewCategories(db dbx.DBTX) Store[models.Category] { return NewSQLiteStore[models.Category](db) }
func NewUnits(db dbx.DBTX) Store[models.Unit] { return NewSQLiteStore[models.Unit](db) }

func schemaFor[T models.Record]() schema[T] {
	var zero T
	var s any
	switch any(zero).(type) {
	case models.User:
		s = userSchema
	case models.Category:
		s = categorySchema
	case models.Unit:
		s = unitSchema
	}
	return s.(schema[T])
}

func (r *SQLiteStore[T]) Create(ctx context.Context, rec *T) error {
	if err := (*rec).Validate(); err != nil {
		return err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(r.s.columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", r.s.table, strings.Join(r.s.columns, ", "), placeholders)

	if _, err := r.db.ExecContext(ctx, query, r.s.values(rec)...); err != nil {
		return r.classify("create", err)
	}
	return nil
}

func (r *SQLiteStore[T]) GetObjects(ctx context.Context, f Filter) ([]T, error) {
	return r.selectRows(ctx, f, 0)
}

func (r *SQLiteStore[T]) GetObj(ctx context.Context, f Filter) (*T, error) {
	recs, err := r.selectRows(ctx, f, 2)
	if err != nil {
		return nil, err
	}
	switch len(recs) {
	case 0:
		return nil, fmt.Errorf("%s: %w", r.s.kind, common.ErrNotFound)
	case 1:
		return &recs[0], nil
	default:
		return nil, fmt.Errorf("%s: %w", r.s.kind, common.ErrAmbiguousResult)
	}
}

func (r *SQLiteStore[T]) Update(ctx context.Context, f Filter, ch Changes) (int64, error) {
	if len(ch) == 0 {
		return 0, &common.ValidationError{Entity: string(r.s.kind), Reason: "empty change set"}
	}

	fields := sortedKeys(ch)
	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+len(f))
	for _, field := range fields {
		if err, ok := r.s.forbidden[field]; ok {
			return 0, fmt.Errorf("%s.%s cannot be changed: %w", r.s.kind, field, err)
		}
		check, ok := r.s.mutable[field]
		if !ok {
			return 0, common.NewValidationError(string(r.s.kind), field, "unknown or immutable field")
		}
		if check != nil {
			if err := check(ch[field]); err != nil {
				return 0, err
			}
		}
		sets = append(sets, field+" = ?")
		args = append(args, ch[field])
	}

	where, wargs, err := r.where(f)
	if err != nil {
		return 0, err
	}
	args = append(args, wargs...)

	query := fmt.Sprintf("UPDATE %s SET %s%s", r.s.table, strings.Join(sets, ", "), where)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, r.classify("update", err)
	}
	return rowsAffected(res)
}

func (r *SQLiteStore[T]) Delete(ctx context.Context, f Filter) (int64, error) {
	where, args, err := r.where(f)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM "+r.s.table+where, args...)
	if err != nil {
		return 0, r.classify("delete", err)
	}
	return rowsAffected(res)
}

func (r *SQLiteStore[T]) selectRows(ctx context.Context, f Filter, limit int) ([]T, error) {
	where, args, err := r.where(f)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s", strings.Join(r.s.columns, ", "), r.s.table, where, r.s.orderBy)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", r.s.table, err)
	}
	defer rows.Close()

	var result []T
	for rows.Next() {
		rec, err := r.s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", r.s.kind, err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", r.s.table, err)
	}
	return result, nil
}

// where renders f as a WHERE clause. Keys are sorted so equal filters yield equal SQL.
func (r *SQLiteStore[T]) where(f Filter) (string, []any, error) {
	if len(f) == 0 {
		return "", nil, nil
	}
	keys := sortedKeys(f)
	conds := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		if !r.s.hasColumn(k) {
			return "", nil, common.NewValidationError(string(r.s.kind), k, "unknown filter field")
		}
		conds = append(conds, k+" = ?")
		args = append(args, f[k])
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func (r *SQLiteStore[T]) classify(op string, err error) error {
	switch constraintOf(err) {
	case constraintUnique:
		return fmt.Errorf("%s %s: %w", op, r.s.kind, common.ErrAlreadyExists)
	case constraintForeignKey:
		return &common.ValidationError{
			Entity: string(r.s.kind),
			Reason: "references a missing record or a record owned by another user",
		}
	default:
		return fmt.Errorf("failed to %s %s: %w", op, r.s.kind, err)
	}
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
