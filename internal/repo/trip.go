// Package repo contains all database access logic for the TripForge API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jmalhotra/tripforge/backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TripRepo defines the persistence operations for Trips. Every read and
// write is scoped to an owner: a row that exists but belongs to someone
// else yields domain.ErrUnauthorized, a missing row domain.ErrNotFound.
//
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with
	// DB-generated id, created_at, and updated_at populated).
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	GetByID(ctx context.Context, ownerID string, id uuid.UUID) (domain.Trip, error)

	// ListByOwner returns one page of the owner's trips ordered by
	// start_date descending, plus the owner's total trip count.
	ListByOwner(ctx context.Context, ownerID string, p domain.PaginationParams) ([]domain.Trip, int64, error)

	// Update overwrites the mutable parameter fields of an existing trip
	// (not the itinerary) and returns the updated record.
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// ReplaceItinerary overwrites the stored itinerary with the given
	// snapshot — always a whole-document replacement, never a field-level
	// merge — and returns the updated record.
	ReplaceItinerary(ctx context.Context, ownerID string, id uuid.UUID, it domain.Itinerary) (domain.Trip, error)

	// Delete removes a trip by ID.
	Delete(ctx context.Context, ownerID string, id uuid.UUID) error
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, owner_id, name, destination, start_date, end_date,
	travellers, budget, trip_type, status, preferences, itinerary, created_at, updated_at`

// Create inserts a new trip row and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (owner_id, name, destination, start_date, end_date,
		                   travellers, budget, trip_type, status, preferences, itinerary)
		VALUES (@owner_id, @name, @destination, @start_date, @end_date,
		        @travellers, @budget, @trip_type, @status, @preferences, @itinerary)
		RETURNING ` + tripColumns

	itJSON, err := marshalItinerary(trip.Itinerary)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}

	args := pgx.NamedArgs{
		"owner_id":    trip.OwnerID,
		"name":        trip.Name,
		"destination": trip.Destination,
		"start_date":  trip.StartDate,
		"end_date":    trip.EndDate,
		"travellers":  trip.Travellers,
		"budget":      trip.Budget,
		"trip_type":   string(trip.Type),
		"status":      string(trip.Status),
		"preferences": trip.Preferences,
		"itinerary":   itJSON,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key and verifies ownership.
func (r *pgTripRepo) GetByID(ctx context.Context, ownerID string, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	if result.OwnerID != ownerID {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", domain.ErrUnauthorized)
	}
	return result, nil
}

// ListByOwner returns one page of the owner's trips, most recent start date first.
func (r *pgTripRepo) ListByOwner(ctx context.Context, ownerID string, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	const q = `
		SELECT ` + tripColumns + `, count(*) OVER () AS total
		FROM trips
		WHERE owner_id = @owner_id
		ORDER BY start_date DESC
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"owner_id": ownerID,
		"limit":    p.Limit,
		"offset":   p.Offset(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListByOwner: %w", err)
	}
	defer rows.Close()

	var (
		trips []domain.Trip
		total int64
	)
	for rows.Next() {
		t, n, err := scanTripWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.TripRepo.ListByOwner: scan: %w", err)
		}
		trips = append(trips, t)
		total = n
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListByOwner: rows: %w", err)
	}

	return trips, total, nil
}

// Update overwrites the mutable parameter fields of a trip. The itinerary
// column is deliberately untouched — it is only ever written through
// ReplaceItinerary.
func (r *pgTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	if _, err := r.GetByID(ctx, trip.OwnerID, trip.ID); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", err)
	}

	const q = `
		UPDATE trips
		SET name        = @name,
		    destination = @destination,
		    start_date  = @start_date,
		    end_date    = @end_date,
		    travellers  = @travellers,
		    budget      = @budget,
		    trip_type   = @trip_type,
		    status      = @status,
		    preferences = @preferences,
		    updated_at  = now()
		WHERE id = @id AND owner_id = @owner_id
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"id":          trip.ID,
		"owner_id":    trip.OwnerID,
		"name":        trip.Name,
		"destination": trip.Destination,
		"start_date":  trip.StartDate,
		"end_date":    trip.EndDate,
		"travellers":  trip.Travellers,
		"budget":      trip.Budget,
		"trip_type":   string(trip.Type),
		"status":      string(trip.Status),
		"preferences": trip.Preferences,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", err)
	}
	return result, nil
}

// ReplaceItinerary overwrites the itinerary column with the snapshot.
func (r *pgTripRepo) ReplaceItinerary(ctx context.Context, ownerID string, id uuid.UUID, it domain.Itinerary) (domain.Trip, error) {
	if _, err := r.GetByID(ctx, ownerID, id); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.ReplaceItinerary: %w", err)
	}

	const q = `
		UPDATE trips
		SET itinerary  = @itinerary,
		    updated_at = now()
		WHERE id = @id AND owner_id = @owner_id
		RETURNING ` + tripColumns

	itJSON, err := marshalItinerary(it)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.ReplaceItinerary: %w", err)
	}

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "owner_id": ownerID, "itinerary": itJSON})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.ReplaceItinerary: %w", err)
	}
	return result, nil
}

// Delete removes a trip by primary key after verifying ownership.
func (r *pgTripRepo) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	if _, err := r.GetByID(ctx, ownerID, id); err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}

	const q = `DELETE FROM trips WHERE id = @id AND owner_id = @owner_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "owner_id": ownerID})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanTrip to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanTrip maps a single database row into a domain.Trip.
// It handles the UUID, date, and JSONB itinerary conversions.
func scanTrip(s scanner) (domain.Trip, error) {
	t, _, err := scan(s, false)
	return t, err
}

// scanTripWithTotal additionally reads the trailing window-function total
// column produced by ListByOwner.
func scanTripWithTotal(s scanner) (domain.Trip, int64, error) {
	return scan(s, true)
}

func scan(s scanner, withTotal bool) (domain.Trip, int64, error) {
	var (
		t      domain.Trip
		id     pgtype.UUID
		start  pgtype.Date
		end    pgtype.Date
		itJSON []byte
		total  int64
	)

	dest := []any{
		&id, &t.OwnerID, &t.Name, &t.Destination, &start, &end,
		&t.Travellers, &t.Budget, &t.Type, &t.Status, &t.Preferences,
		&itJSON, &t.CreatedAt, &t.UpdatedAt,
	}
	if withTotal {
		dest = append(dest, &total)
	}

	if err := s.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, 0, domain.ErrNotFound
		}
		return domain.Trip{}, 0, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.StartDate = start.Time
	t.EndDate = end.Time

	if err := json.Unmarshal(itJSON, &t.Itinerary); err != nil {
		return domain.Trip{}, 0, fmt.Errorf("decode itinerary: %w", err)
	}
	if t.Itinerary == nil {
		t.Itinerary = domain.Itinerary{}
	}

	return t, total, nil
}

// marshalItinerary encodes an itinerary for the JSONB column. A nil
// itinerary is stored as an empty array, never as SQL NULL.
func marshalItinerary(it domain.Itinerary) ([]byte, error) {
	if it == nil {
		it = domain.Itinerary{}
	}
	b, err := json.Marshal(it)
	if err != nil {
		return nil, fmt.Errorf("encode itinerary: %w", err)
	}
	return b, nil
}
