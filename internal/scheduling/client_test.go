package scheduling

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicbook/reservation-platform/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "test-key"}, logging.Default())
	require.NoError(t, err)
	return client, srv
}

func TestFetchRawTimeUnits(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/open-slots", r.URL.Path)
		assert.Equal(t, "2026-09-01", r.URL.Query().Get("from"))
		assert.Equal(t, "2026-09-08", r.URL.Query().Get("to"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		// Out of order on purpose; the client sorts.
		fmt.Fprint(w, `{"slots":[
			{"date":"2026-09-01","time":"11:00","datetime":"2026-09-01T11:00:00Z"},
			{"date":"2026-09-01","time":"10:30","datetime":"2026-09-01T10:30:00Z"},
			{"date":"2026-09-01","time":"bad","datetime":"not-a-time"}
		]}`)
	})

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	units, err := client.FetchRawTimeUnits(context.Background(), from, from.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, units, 2, "invalid datetimes are skipped")
	assert.Equal(t, "10:30", units[0].Time)
	assert.Equal(t, "11:00", units[1].Time)
	assert.True(t, units[0].DateTime.Before(units[1].DateTime))
}

func TestFetchRawTimeUnitsServerErrorIsUnavailable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.FetchRawTimeUnits(context.Background(), time.Now(), time.Now().AddDate(0, 0, 7))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestFetchRawTimeUnitsClientErrorIsPermanent(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.FetchRawTimeUnits(context.Background(), time.Now(), time.Now().AddDate(0, 0, 7))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnavailable), "4xx should not look retryable")
}

func TestFetchRawTimeUnitsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client, err := NewClient(ClientConfig{BaseURL: srv.URL}, logging.Default())
	require.NoError(t, err)

	_, err = client.FetchRawTimeUnits(context.Background(), time.Now(), time.Now().AddDate(0, 0, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(ClientConfig{}, nil)
	require.Error(t, err)
}
