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

// GrantRepo reads subsidy programmes.
type GrantRepo struct {
	baseRepo
}

var _ costing.GrantStore = (*GrantRepo)(nil)

func NewGrantRepo(conn *postgres.Connection, log logging.Logger) *GrantRepo {
	return &GrantRepo{baseRepo: newBase(conn, log)}
}

// GetActiveGrants returns the programmes flagged active and in force at asOf,
// ordered by id.
func (r *GrantRepo) GetActiveGrants(ctx context.Context, asOf time.Time) ([]costing.GrantProgram, error) {
	query := `SELECT id, name, country, subsidy_percentage, max_subsidy_amount,
			company_size, sector, is_active, effective_date, expiration_date, description
		FROM grant_programs
		WHERE is_active AND effective_date <= $1
		  AND (expiration_date IS NULL OR expiration_date > $1)
		ORDER BY id`

	rows, err := r.executor().QueryContext(ctx, query, asOf)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query grant programmes")
	}
	defer rows.Close()

	var out []costing.GrantProgram
	for rows.Next() {
		var (
			g          costing.GrantProgram
			expiration sql.NullTime
		)
		if err := rows.Scan(&g.ID, &g.Name, &g.Country, &g.SubsidyPercentage, &g.MaxSubsidyAmount,
			&g.Eligibility.CompanySize, &g.Eligibility.Sector, &g.IsActive,
			&g.EffectiveDate, &expiration, &g.Description); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan grant programme")
		}
		g.ExpirationDate = nullTime(expiration)
		if err := g.Validate(); err != nil {
			r.log.Warn("skipping invalid grant programme", logging.String("grant_id", g.ID), logging.Err(err))
			continue
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate grant programmes")
	}
	return out, nil
}

//Personal.AI order the ending
