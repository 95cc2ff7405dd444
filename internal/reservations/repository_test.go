package reservations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO reservations").
		WithArgs(pgxmock.AnyArg(), "p1", "hydra_001_first", "r1", pgxmock.AnyArg(), "confirmed", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewRepositoryWithQuerier(mock)
	reservedOn := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	res, err := repo.Create(context.Background(), "p1", "hydra_001_first", "r1", reservedOn)
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "confirmed", res.Status)
	assert.Equal(t, reservedOn, res.ReservedOn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id", "patient_id", "menu_id", "room_id", "reserved_on", "status", "created_at"}))

	repo := NewRepositoryWithQuerier(mock)
	_, err = repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryListByPatient(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "patient_id", "menu_id", "room_id", "reserved_on", "status", "created_at"}).
		AddRow("res-2", "p1", "hydra_001_repeat", "r1", now, "confirmed", now).
		AddRow("res-1", "p1", "hydra_001_first", "r2", now.AddDate(0, 0, -30), "completed", now.AddDate(0, 0, -30))

	mock.ExpectQuery("SELECT (.+) FROM reservations WHERE patient_id").
		WithArgs("p1").
		WillReturnRows(rows)

	repo := NewRepositoryWithQuerier(mock)
	list, err := repo.ListByPatient(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "res-2", list[0].ID)
	assert.Equal(t, "completed", list[1].Status)
}

func TestRepositoryCancel(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE reservations SET status").
		WithArgs("res-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewRepositoryWithQuerier(mock)
	require.NoError(t, repo.Cancel(context.Background(), "res-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCancelMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE reservations SET status").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewRepositoryWithQuerier(mock)
	assert.ErrorIs(t, repo.Cancel(context.Background(), "missing"), ErrNotFound)
}

func TestRepositoryCreateError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO reservations").
		WillReturnError(errors.New("connection refused"))

	repo := NewRepositoryWithQuerier(mock)
	_, err = repo.Create(context.Background(), "p1", "hydra_001_first", "", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reservations: insert")
}
