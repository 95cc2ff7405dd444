// Package reservations provides record CRUD for reservations. The
// availability engine reads these records through the history package; this
// package owns the write path and the request-facing handler.
package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a reservation id does not exist.
var ErrNotFound = errors.New("reservations: not found")

// Reservation is one stored reservation row.
type Reservation struct {
	ID         string    `json:"id"`
	PatientID  string    `json:"patient_id"`
	MenuID     string    `json:"menu_id"`
	RoomID     string    `json:"room_id,omitempty"`
	ReservedOn time.Time `json:"reserved_on"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Querier is the subset of pgx used by the repository.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository persists reservations via pgx.
type Repository struct {
	db Querier
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("reservations: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithQuerier allows injecting mocks for tests.
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{db: q}
}

// Create inserts a confirmed reservation and returns the stored row.
func (r *Repository) Create(ctx context.Context, patientID, menuID, roomID string, reservedOn time.Time) (*Reservation, error) {
	res := Reservation{
		ID:         uuid.NewString(),
		PatientID:  patientID,
		MenuID:     menuID,
		RoomID:     roomID,
		ReservedOn: reservedOn.UTC(),
		Status:     "confirmed",
		CreatedAt:  time.Now().UTC(),
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO reservations (id, patient_id, menu_id, room_id, reserved_on, status, created_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)`,
		res.ID, res.PatientID, res.MenuID, res.RoomID, res.ReservedOn, res.Status, res.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("reservations: insert: %w", err)
	}
	return &res, nil
}

// Get returns one reservation by id.
func (r *Repository) Get(ctx context.Context, id string) (*Reservation, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, patient_id, menu_id, COALESCE(room_id, ''), reserved_on, status, created_at
		 FROM reservations WHERE id = $1`, id)
	var res Reservation
	if err := row.Scan(&res.ID, &res.PatientID, &res.MenuID, &res.RoomID,
		&res.ReservedOn, &res.Status, &res.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reservations: load: %w", err)
	}
	return &res, nil
}

// ListByPatient returns a patient's reservations, newest first.
func (r *Repository) ListByPatient(ctx context.Context, patientID string) ([]Reservation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, patient_id, menu_id, COALESCE(room_id, ''), reserved_on, status, created_at
		 FROM reservations WHERE patient_id = $1 ORDER BY reserved_on DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("reservations: list: %w", err)
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		var res Reservation
		if err := rows.Scan(&res.ID, &res.PatientID, &res.MenuID, &res.RoomID,
			&res.ReservedOn, &res.Status, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("reservations: scan: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reservations: iterate: %w", err)
	}
	return out, nil
}

// Cancel marks a reservation cancelled.
func (r *Repository) Cancel(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE reservations SET status = 'cancelled' WHERE id = $1 AND status <> 'cancelled'`, id)
	if err != nil {
		return fmt.Errorf("reservations: cancel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
