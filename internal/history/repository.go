package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx used by the repository.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository reads visit history and ticket balances from postgres.
type Repository struct {
	db Querier
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("history: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithQuerier allows injecting mocks for tests.
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{db: q}
}

const (
	reservationsQuery = `SELECT id, patient_id, menu_id, reserved_on, status
  FROM reservations WHERE patient_id = $1 ORDER BY reserved_on`

	ticketBalancesQuery = `SELECT ticket_type, balance
  FROM ticket_balances WHERE payer_id = $1 AND period_start <= now() AND period_end > now()`
)

// VisitHistory loads the patient's reservation records and current-period
// ticket balances in one snapshot.
func (r *Repository) VisitHistory(ctx context.Context, patientID string) (*PatientHistory, error) {
	records, err := r.loadReservations(ctx, patientID)
	if err != nil {
		return nil, err
	}
	tickets, err := r.loadTicketBalances(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return &PatientHistory{
		PatientID:    patientID,
		Reservations: records,
		Tickets:      tickets,
	}, nil
}

func (r *Repository) loadReservations(ctx context.Context, patientID string) ([]ReservationRecord, error) {
	rows, err := r.db.Query(ctx, reservationsQuery, patientID)
	if err != nil {
		return nil, fmt.Errorf("history: load reservations: %w", err)
	}
	defer rows.Close()

	var records []ReservationRecord
	for rows.Next() {
		var rec ReservationRecord
		if err := rows.Scan(&rec.ID, &rec.PatientID, &rec.MenuID, &rec.Date, &rec.Status); err != nil {
			return nil, fmt.Errorf("history: scan reservation: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate reservations: %w", err)
	}
	return records, nil
}

func (r *Repository) loadTicketBalances(ctx context.Context, payerID string) (map[string]int, error) {
	rows, err := r.db.Query(ctx, ticketBalancesQuery, payerID)
	if err != nil {
		return nil, fmt.Errorf("history: load ticket balances: %w", err)
	}
	defer rows.Close()

	tickets := make(map[string]int)
	for rows.Next() {
		var ticketType string
		var balance int
		if err := rows.Scan(&ticketType, &balance); err != nil {
			return nil, fmt.Errorf("history: scan ticket balance: %w", err)
		}
		tickets[ticketType] = balance
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate ticket balances: %w", err)
	}
	return tickets, nil
}
