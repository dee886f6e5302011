package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"aventon/internal/domain"
	"aventon/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

const tripColumns = `
	id, passenger_id, driver_id, origin_address, origin_lat, origin_lng,
	destination_address, destination_lat, destination_lng, service_id, status,
	price_usd, price_ves, distance_km, notified_driver_ids, rejected_driver_ids,
	match_tier, match_radius_km, beneficiary_name, beneficiary_phone,
	progress_lat, progress_lng, eta_minutes, cancel_reason,
	created_at, accepted_at, completed_at, cancelled_at
`

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
	`

	var beneficiaryName, beneficiaryPhone sql.NullString
	if trip.Beneficiary != nil {
		beneficiaryName = sql.NullString{String: trip.Beneficiary.Name, Valid: true}
		beneficiaryPhone = sql.NullString{String: trip.Beneficiary.Phone, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.PassengerID,
		nullString(trip.DriverID),
		trip.Origin.Address,
		trip.Origin.Lat,
		trip.Origin.Lng,
		trip.Destination.Address,
		trip.Destination.Lat,
		trip.Destination.Lng,
		trip.ServiceID,
		trip.Status,
		trip.PriceUSD,
		trip.PriceVES,
		trip.DistanceKm,
		textArray(trip.NotifiedDriverIDs),
		textArray(trip.RejectedDriverIDs),
		trip.MatchTier,
		trip.MatchRadiusKm,
		beneficiaryName,
		beneficiaryPhone,
		trip.ProgressLat,
		trip.ProgressLng,
		trip.ETAMinutes,
		nullString(trip.CancelReason),
		trip.CreatedAt,
		nullTime(trip.AcceptedAt),
		nullTime(trip.CompletedAt),
		nullTime(trip.CancelledAt),
	)

	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return trip, nil
}

// GetAll retrieves recent trips.
func (r *TripRepository) GetAll(ctx context.Context) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips ORDER BY created_at DESC LIMIT 100`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

// Update updates an existing trip.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips SET
			driver_id = $2, status = $3, price_usd = $4, price_ves = $5,
			notified_driver_ids = $6, rejected_driver_ids = $7,
			match_tier = $8, match_radius_km = $9,
			progress_lat = $10, progress_lng = $11, eta_minutes = $12,
			cancel_reason = $13, accepted_at = $14, completed_at = $15, cancelled_at = $16
		WHERE id = $1
	`

	result, err := r.q.ExecContext(ctx, query,
		trip.ID,
		nullString(trip.DriverID),
		trip.Status,
		trip.PriceUSD,
		trip.PriceVES,
		textArray(trip.NotifiedDriverIDs),
		textArray(trip.RejectedDriverIDs),
		trip.MatchTier,
		trip.MatchRadiusKm,
		trip.ProgressLat,
		trip.ProgressLng,
		trip.ETAMinutes,
		nullString(trip.CancelReason),
		nullTime(trip.AcceptedAt),
		nullTime(trip.CompletedAt),
		nullTime(trip.CancelledAt),
	)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// Accept atomically assigns the driver if the trip is still REQUESTED
// and the driver currently holds an offer.
func (r *TripRepository) Accept(ctx context.Context, tripID, driverID string, at time.Time) (bool, error) {
	query := `
		UPDATE trips SET status = $3, driver_id = $2, accepted_at = $4
		WHERE id = $1
		  AND status = $5
		  AND $2 = ANY(COALESCE(notified_driver_ids, '{}'))
		  AND NOT ($2 = ANY(COALESCE(rejected_driver_ids, '{}')))
	`

	result, err := r.q.ExecContext(ctx, query, tripID, driverID,
		domain.TripStatusAccepted, at, domain.TripStatusRequested)
	if err != nil {
		return false, err
	}

	return oneRow(result)
}

// Cancel moves a non-terminal trip to CANCELLED.
func (r *TripRepository) Cancel(ctx context.Context, tripID, reason string, at time.Time) (bool, error) {
	query := `
		UPDATE trips SET status = $2, cancel_reason = $3, cancelled_at = $4
		WHERE id = $1 AND status NOT IN ($5, $6, $7)
	`

	result, err := r.q.ExecContext(ctx, query, tripID,
		domain.TripStatusCancelled, nullString(reason), at,
		domain.TripStatusCompleted, domain.TripStatusCancelled, domain.TripStatusUnassigned)
	if err != nil {
		return false, err
	}

	return oneRow(result)
}

// UpdateStatusIf transitions status from one value to another.
func (r *TripRepository) UpdateStatusIf(ctx context.Context, tripID string, from, to domain.TripStatus) (bool, error) {
	query := `UPDATE trips SET status = $3 WHERE id = $1 AND status = $2`

	result, err := r.q.ExecContext(ctx, query, tripID, from, to)
	if err != nil {
		return false, err
	}

	return oneRow(result)
}

// MarkUnassignedIf moves a still-REQUESTED trip to UNASSIGNED.
func (r *TripRepository) MarkUnassignedIf(ctx context.Context, tripID string) (bool, error) {
	return r.UpdateStatusIf(ctx, tripID, domain.TripStatusRequested, domain.TripStatusUnassigned)
}

// SetNotifiedDrivers records the candidate set currently holding an offer.
func (r *TripRepository) SetNotifiedDrivers(ctx context.Context, tripID string, driverIDs []string) error {
	query := `UPDATE trips SET notified_driver_ids = $2 WHERE id = $1`

	result, err := r.q.ExecContext(ctx, query, tripID, textArray(driverIDs))
	if err != nil {
		return err
	}

	return requireRow(result)
}

// AddRejectedDriver records an explicit rejection by a driver.
func (r *TripRepository) AddRejectedDriver(ctx context.Context, tripID, driverID string) error {
	query := `
		UPDATE trips SET rejected_driver_ids = array_append(COALESCE(rejected_driver_ids, '{}'), $2)
		WHERE id = $1 AND NOT ($2 = ANY(COALESCE(rejected_driver_ids, '{}')))
	`

	_, err := r.q.ExecContext(ctx, query, tripID, driverID)
	return err
}

// SetMatchResult records at which tier and radius the match happened.
func (r *TripRepository) SetMatchResult(ctx context.Context, tripID string, tier int, radiusKm float64) error {
	query := `UPDATE trips SET match_tier = $2, match_radius_km = $3 WHERE id = $1`

	result, err := r.q.ExecContext(ctx, query, tripID, tier, radiusKm)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// UpdateProgress stores the driver's reported position and ETA.
func (r *TripRepository) UpdateProgress(ctx context.Context, tripID string, lat, lng float64, etaMinutes int) error {
	query := `UPDATE trips SET progress_lat = $2, progress_lng = $3, eta_minutes = $4 WHERE id = $1`

	result, err := r.q.ExecContext(ctx, query, tripID, lat, lng, etaMinutes)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// SetCompleted moves an IN_PROGRESS trip to COMPLETED.
func (r *TripRepository) SetCompleted(ctx context.Context, tripID string, at time.Time) (bool, error) {
	query := `
		UPDATE trips SET status = $2, completed_at = $3
		WHERE id = $1 AND status = $4
	`

	result, err := r.q.ExecContext(ctx, query, tripID,
		domain.TripStatusCompleted, at, domain.TripStatusInProgress)
	if err != nil {
		return false, err
	}

	return oneRow(result)
}

// GetOffersForDriver returns REQUESTED trips currently offered to the driver.
func (r *TripRepository) GetOffersForDriver(ctx context.Context, driverID string) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + ` FROM trips
		WHERE status = $2
		  AND $1 = ANY(COALESCE(notified_driver_ids, '{}'))
		  AND NOT ($1 = ANY(COALESCE(rejected_driver_ids, '{}')))
		ORDER BY created_at ASC
	`

	rows, err := r.q.QueryContext(ctx, query, driverID, domain.TripStatusRequested)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*domain.Trip, error) {
	var trip domain.Trip
	var driverID, cancelReason, beneficiaryName, beneficiaryPhone sql.NullString
	var acceptedAt, completedAt, cancelledAt sql.NullTime
	var notified, rejected pq.StringArray

	err := row.Scan(
		&trip.ID,
		&trip.PassengerID,
		&driverID,
		&trip.Origin.Address,
		&trip.Origin.Lat,
		&trip.Origin.Lng,
		&trip.Destination.Address,
		&trip.Destination.Lat,
		&trip.Destination.Lng,
		&trip.ServiceID,
		&trip.Status,
		&trip.PriceUSD,
		&trip.PriceVES,
		&trip.DistanceKm,
		&notified,
		&rejected,
		&trip.MatchTier,
		&trip.MatchRadiusKm,
		&beneficiaryName,
		&beneficiaryPhone,
		&trip.ProgressLat,
		&trip.ProgressLng,
		&trip.ETAMinutes,
		&cancelReason,
		&trip.CreatedAt,
		&acceptedAt,
		&completedAt,
		&cancelledAt,
	)
	if err != nil {
		return nil, err
	}

	trip.NotifiedDriverIDs = notified
	trip.RejectedDriverIDs = rejected
	if driverID.Valid {
		trip.DriverID = driverID.String
	}
	if cancelReason.Valid {
		trip.CancelReason = cancelReason.String
	}
	if beneficiaryName.Valid || beneficiaryPhone.Valid {
		trip.Beneficiary = &domain.Beneficiary{
			Name:  beneficiaryName.String,
			Phone: beneficiaryPhone.String,
		}
	}
	if acceptedAt.Valid {
		trip.AcceptedAt = acceptedAt.Time
	}
	if completedAt.Valid {
		trip.CompletedAt = completedAt.Time
	}
	if cancelledAt.Valid {
		trip.CancelledAt = cancelledAt.Time
	}

	return &trip, nil
}

// textArray maps a string slice to a TEXT[] value, coalescing nil to an
// empty array. A NULL array would make the membership predicates in
// Accept and GetOffersForDriver evaluate to NULL and never match a row.
func textArray(ids []string) pq.StringArray {
	if ids == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(ids)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func oneRow(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
