package postgres

import (
	"context"
	"database/sql"
	"errors"

	"aventon/internal/domain"
	"aventon/internal/repository"
)

// LiquidationRepository is a PostgreSQL implementation of
// repository.LiquidationRepository.
type LiquidationRepository struct {
	q Querier
}

// NewLiquidationRepository creates a new PostgreSQL liquidation repository.
func NewLiquidationRepository(db *sql.DB) *LiquidationRepository {
	return &LiquidationRepository{q: db}
}

// NewLiquidationRepositoryWithTx creates a liquidation repository using a transaction.
func NewLiquidationRepositoryWithTx(tx *sql.Tx) *LiquidationRepository {
	return &LiquidationRepository{q: tx}
}

const liquidationColumns = `
	id, trip_id, phase, service_id, service_name, distance_km,
	gross_usd, gross_ves,
	driver_gross_usd, driver_tax_usd, driver_net_usd,
	driver_gross_ves, driver_tax_ves, driver_net_ves,
	platform_commission_usd, platform_net_usd, platform_vat_usd,
	platform_commission_ves, platform_net_ves, platform_vat_ves,
	tax_income_usd, tax_vat_usd, tax_total_usd, tax_total_ves,
	exchange_rate, valid, computed_at
`

// Create persists a liquidation snapshot.
func (r *LiquidationRepository) Create(ctx context.Context, result *domain.LiquidationResult) error {
	query := `
		INSERT INTO liquidations (` + liquidationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
	`

	_, err := r.q.ExecContext(ctx, query,
		result.ID,
		result.TripID,
		result.Phase,
		result.ServiceID,
		result.ServiceName,
		result.DistanceKm,
		result.GrossUSD,
		result.GrossVES,
		result.Driver.GrossUSD,
		result.Driver.IncomeTaxUSD,
		result.Driver.NetUSD,
		result.Driver.GrossVES,
		result.Driver.IncomeTaxVES,
		result.Driver.NetVES,
		result.Platform.CommissionUSD,
		result.Platform.NetUSD,
		result.Platform.VATUSD,
		result.Platform.CommissionVES,
		result.Platform.NetVES,
		result.Platform.VATVES,
		result.Tax.IncomeTaxUSD,
		result.Tax.VATUSD,
		result.Tax.TotalUSD,
		result.Tax.TotalVES,
		result.Meta.ExchangeRate,
		result.Meta.Valid,
		result.Meta.ComputedAt,
	)

	return err
}

// GetLatestByTripID returns the most recent snapshot for a trip.
func (r *LiquidationRepository) GetLatestByTripID(ctx context.Context, tripID string) (*domain.LiquidationResult, error) {
	query := `
		SELECT ` + liquidationColumns + ` FROM liquidations
		WHERE trip_id = $1 ORDER BY computed_at DESC LIMIT 1
	`

	result, err := scanLiquidation(r.q.QueryRowContext(ctx, query, tripID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return result, nil
}

// ListByTripID returns all snapshots for a trip, oldest first.
func (r *LiquidationRepository) ListByTripID(ctx context.Context, tripID string) ([]*domain.LiquidationResult, error) {
	query := `
		SELECT ` + liquidationColumns + ` FROM liquidations
		WHERE trip_id = $1 ORDER BY computed_at ASC
	`

	rows, err := r.q.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.LiquidationResult
	for rows.Next() {
		result, err := scanLiquidation(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, rows.Err()
}

func scanLiquidation(row rowScanner) (*domain.LiquidationResult, error) {
	var result domain.LiquidationResult

	err := row.Scan(
		&result.ID,
		&result.TripID,
		&result.Phase,
		&result.ServiceID,
		&result.ServiceName,
		&result.DistanceKm,
		&result.GrossUSD,
		&result.GrossVES,
		&result.Driver.GrossUSD,
		&result.Driver.IncomeTaxUSD,
		&result.Driver.NetUSD,
		&result.Driver.GrossVES,
		&result.Driver.IncomeTaxVES,
		&result.Driver.NetVES,
		&result.Platform.CommissionUSD,
		&result.Platform.NetUSD,
		&result.Platform.VATUSD,
		&result.Platform.CommissionVES,
		&result.Platform.NetVES,
		&result.Platform.VATVES,
		&result.Tax.IncomeTaxUSD,
		&result.Tax.VATUSD,
		&result.Tax.TotalUSD,
		&result.Tax.TotalVES,
		&result.Meta.ExchangeRate,
		&result.Meta.Valid,
		&result.Meta.ComputedAt,
	)
	if err != nil {
		return nil, err
	}

	return &result, nil
}
