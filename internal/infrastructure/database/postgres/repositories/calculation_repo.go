package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/google/uuid"

	"github.com/turtacn/KeyIP-CostEngine/internal/domain/costing"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/database/postgres"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

// CalculationRepo persists calculation records with input and result as JSONB.
type CalculationRepo struct {
	baseRepo
}

var _ costing.ResultStore = (*CalculationRepo)(nil)

func NewCalculationRepo(conn *postgres.Connection, log logging.Logger) *CalculationRepo {
	return &CalculationRepo{baseRepo: newBase(conn, log)}
}

// Save inserts rec and returns its id. An empty id is generated.
func (r *CalculationRepo) Save(ctx context.Context, rec *costing.CalculationRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = costing.StatusComplete
	}
	input, err := json.Marshal(rec.Input)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode calculation input")
	}
	var result []byte
	if rec.Result != nil {
		if result, err = json.Marshal(rec.Result); err != nil {
			return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode calculation result")
		}
	}

	query := `INSERT INTO calculations (id, email, status, input, result, archive_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`
	err = r.executor().QueryRowContext(ctx, query,
		rec.ID, rec.Email, string(rec.Status), input, result, rec.ArchiveKey,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeCalculationSaveFailed, "failed to save calculation")
	}
	return rec.ID, nil
}

// Update applies the non-nil fields of patch.
func (r *CalculationRepo) Update(ctx context.Context, id string, patch costing.CalculationPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	var status sql.NullString
	if patch.Status != nil {
		status = sql.NullString{String: string(*patch.Status), Valid: true}
	}
	query := `UPDATE calculations SET
			email = COALESCE($2, email),
			status = COALESCE($3, status),
			archive_key = COALESCE($4, archive_key),
			updated_at = NOW()
		WHERE id = $1`
	res, err := r.executor().ExecContext(ctx, query, id, nullString(patch.Email), status, nullString(patch.ArchiveKey))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCalculationSaveFailed, "failed to update calculation")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCalculationSaveFailed, "failed to update calculation")
	}
	if n == 0 {
		return errors.New(errors.ErrCodeCalculationNotFound, "calculation not found").WithDetail(id)
	}
	return nil
}

// Get loads one record.
func (r *CalculationRepo) Get(ctx context.Context, id string) (*costing.CalculationRecord, error) {
	query := `SELECT id, email, status, input, result, archive_key, created_at, updated_at
		FROM calculations WHERE id = $1`

	var (
		rec           costing.CalculationRecord
		status        string
		input, result []byte
	)
	err := r.executor().QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.Email, &status, &input, &result, &rec.ArchiveKey, &rec.CreatedAt, &rec.UpdatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.ErrCodeCalculationNotFound, "calculation not found").WithDetail(id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load calculation")
	}
	rec.Status = costing.CalculationStatus(status)
	if err := json.Unmarshal(input, &rec.Input); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode calculation input")
	}
	if len(result) > 0 {
		rec.Result = &costing.Result{}
		if err := json.Unmarshal(result, rec.Result); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode calculation result")
		}
	}
	return &rec, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

//Personal.AI order the ending
