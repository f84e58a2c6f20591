package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoLogPrefix = "db:repository"

// Repository provides database access to the operation journal.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const operationColumns = `id, connection_id, operation, request_id, error_type, error, duration_ms, started_at, created`

// RecordOperation appends one journal row.
func (r *Repository) RecordOperation(ctx context.Context, params RecordOperationParams) (*Operation, error) {
	if params.Operation == "" {
		return nil, fmt.Errorf("%s - RecordOperation: operation name is required", repoLogPrefix)
	}
	errType := params.ErrorType
	if errType == "" {
		errType = "none"
	}
	var errText *string
	if params.Error != "" {
		errText = &params.Error
	}
	started := params.StartedAt
	if started.IsZero() {
		started = time.Now()
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO operation_journal (connection_id, operation, request_id, error_type, error, duration_ms, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+operationColumns,
		params.ConnectionID, params.Operation, params.RequestID, errType, errText,
		params.Duration.Milliseconds(), started.UTC())

	op, err := scanOperation(row)
	if err != nil {
		return nil, err
	}
	slog.Debug(fmt.Sprintf("%s - recorded %s request %d (%s)", repoLogPrefix, op.Operation, op.RequestID, op.ErrorType))
	return op, nil
}

// ListOperations returns the most recent journal rows, newest first.
func (r *Repository) ListOperations(ctx context.Context, params ListOperationsParams) ([]Operation, error) {
	query, args := buildListQuery(params)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s - ListOperations failed: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	var ops []Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, *op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s - ListOperations rows: %w", repoLogPrefix, err)
	}
	return ops, nil
}

func buildListQuery(params ListOperationsParams) (string, []interface{}) {
	var where []string
	var args []interface{}
	if params.Operation != "" {
		args = append(args, params.Operation)
		where = append(where, fmt.Sprintf("operation = $%d", len(args)))
	}
	if params.ErrorType != "" {
		args = append(args, params.ErrorType)
		where = append(where, fmt.Sprintf("error_type = $%d", len(args)))
	}

	query := `SELECT ` + operationColumns + ` FROM operation_journal`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, params.limit())
	query += fmt.Sprintf(` ORDER BY started_at DESC, id DESC LIMIT $%d`, len(args))
	return query, args
}

// =========================================================================
// SCAN HELPERS
// =========================================================================

func scanOperation(row pgx.Row) (*Operation, error) {
	var op Operation
	err := row.Scan(
		&op.ID, &op.ConnectionID, &op.Operation, &op.RequestID, &op.ErrorType, &op.Error,
		&op.DurationMs, &op.StartedAt, &op.Created,
	)
	if err != nil {
		return nil, fmt.Errorf("%s - scan operation failed: %w", repoLogPrefix, err)
	}
	return &op, nil
}
