package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrContactNotFound is returned when a patient has no contact row.
var ErrContactNotFound = errors.New("notify: contact not found")

// RowQuerier is the subset of pgx used by the contact repository.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ContactRepository loads patient contact details from Postgres.
type ContactRepository struct {
	db RowQuerier
}

// NewContactRepository creates a repository backed by a pgx pool.
func NewContactRepository(pool *pgxpool.Pool) *ContactRepository {
	if pool == nil {
		panic("notify: pgx pool required")
	}
	return &ContactRepository{db: pool}
}

// NewContactRepositoryWithQuerier allows injecting mocks for tests.
func NewContactRepositoryWithQuerier(q RowQuerier) *ContactRepository {
	return &ContactRepository{db: q}
}

// Contact returns one patient's contact details.
func (r *ContactRepository) Contact(ctx context.Context, patientID string) (*Contact, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, COALESCE(name, ''), COALESCE(email, '') FROM patients WHERE id = $1`, patientID)
	var c Contact
	if err := row.Scan(&c.PatientID, &c.Name, &c.Email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("notify: load contact: %w", err)
	}
	return &c, nil
}

var _ ContactStore = (*ContactRepository)(nil)
