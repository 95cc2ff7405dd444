package notify

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactRepository(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM patients WHERE id").
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email"}).
			AddRow("p1", "Alex Doe", "alex@example.com"))

	repo := NewContactRepositoryWithQuerier(mock)
	c, err := repo.Contact(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Alex Doe", c.Name)
	assert.Equal(t, "alex@example.com", c.Email)
}

func TestContactRepositoryNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM patients WHERE id").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email"}))

	repo := NewContactRepositoryWithQuerier(mock)
	_, err = repo.Contact(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrContactNotFound)
}
