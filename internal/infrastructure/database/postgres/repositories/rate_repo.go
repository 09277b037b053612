package repositories

import (
	"context"
	"time"

	"github.com/turtacn/KeyIP-CostEngine/internal/domain/costing"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/database/postgres"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

// RateRepo reads exchange rates.
type RateRepo struct {
	baseRepo
}

var _ costing.RateStore = (*RateRepo)(nil)

func NewRateRepo(conn *postgres.Connection, log logging.Logger) *RateRepo {
	return &RateRepo{baseRepo: newBase(conn, log)}
}

// GetRatesAsOf returns the latest rate per currency pair effective at asOf.
func (r *RateRepo) GetRatesAsOf(ctx context.Context, asOf time.Time) (costing.RateTable, error) {
	query := `SELECT DISTINCT ON (from_currency, to_currency)
			from_currency, to_currency, rate, effective_date
		FROM exchange_rates
		WHERE effective_date <= $1
		ORDER BY from_currency, to_currency, effective_date DESC`

	rows, err := r.executor().QueryContext(ctx, query, asOf)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query exchange rates")
	}
	defer rows.Close()

	var rates []costing.ExchangeRate
	for rows.Next() {
		var er costing.ExchangeRate
		if err := rows.Scan(&er.From, &er.To, &er.Rate, &er.EffectiveDate); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan exchange rate")
		}
		if err := er.Validate(); err != nil {
			r.log.Warn("skipping invalid exchange rate", logging.String("pair", er.From+"/"+er.To), logging.Err(err))
			continue
		}
		rates = append(rates, er)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate exchange rates")
	}
	return costing.NewRateTable(rates, asOf), nil
}

//Personal.AI order the ending
