package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/turtacn/KeyIP-CostEngine/internal/domain/costing"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/database/postgres"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

const feeColumns = `id, jurisdiction, ip_type, category, lifecycle_stage, currency,
	amount, standard_amount, small_entity_amount, micro_entity_amount,
	effective_date, expiration_date, year_due, description`

// FeeRepo reads the official fee schedule.
type FeeRepo struct {
	baseRepo
}

var _ costing.FeeStore = (*FeeRepo)(nil)

func NewFeeRepo(conn *postgres.Connection, log logging.Logger) *FeeRepo {
	return &FeeRepo{baseRepo: newBase(conn, log)}
}

// GetFees returns the records for j and ipType active at asOf. Rows that fail
// validation are skipped and logged; the engine then reports the gap.
func (r *FeeRepo) GetFees(ctx context.Context, j costing.Jurisdiction, ipType costing.IPType, asOf time.Time) ([]costing.FeeRecord, error) {
	query := `SELECT ` + feeColumns + `
		FROM fee_schedules
		WHERE jurisdiction = $1 AND ip_type = $2
		  AND effective_date <= $3
		  AND (expiration_date IS NULL OR expiration_date > $3)
		ORDER BY category, lifecycle_stage, year_due NULLS FIRST, id`

	rows, err := r.executor().QueryContext(ctx, query, string(j), string(ipType), asOf)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query fee schedule")
	}
	defer rows.Close()

	var out []costing.FeeRecord
	for rows.Next() {
		rec, err := scanFee(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan fee record")
		}
		if err := rec.Validate(); err != nil {
			r.log.Warn("skipping invalid fee record",
				logging.String("fee_id", rec.ID), logging.Jurisdiction(string(j)), logging.Err(err))
			continue
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate fee records")
	}
	return out, nil
}

func scanFee(s scanner) (costing.FeeRecord, error) {
	var (
		rec                     costing.FeeRecord
		jurisdiction, ipType    string
		category, stage         string
		amount, standard, small sql.NullFloat64
		micro                   sql.NullFloat64
		expiration              sql.NullTime
		yearDue                 sql.NullInt64
	)
	err := s.Scan(&rec.ID, &jurisdiction, &ipType, &category, &stage, &rec.Currency,
		&amount, &standard, &small, &micro,
		&rec.EffectiveDate, &expiration, &yearDue, &rec.Description)
	if err != nil {
		return costing.FeeRecord{}, err
	}
	rec.Jurisdiction = costing.Jurisdiction(jurisdiction)
	rec.IPType = costing.IPType(ipType)
	rec.Category = costing.FeeCategory(category)
	rec.Stage = costing.LifecycleStage(stage)
	rec.Amount = nullFloat(amount)
	rec.StandardAmount = nullFloat(standard)
	rec.SmallEntityAmount = nullFloat(small)
	rec.MicroEntityAmount = nullFloat(micro)
	rec.ExpirationDate = nullTime(expiration)
	rec.YearDue = nullInt(yearDue)
	return rec, nil
}

//Personal.AI order the ending
