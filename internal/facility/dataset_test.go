package facility

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/soyeahso/agentchat/internal/cache"
	"github.com/soyeahso/agentchat/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hospitalsCSV = "\ufeffFacility ID,Facility Name,Address,City/Town,State,ZIP Code,County/Parish,Hospital Type\n" +
	"210009,\"JOHNS HOPKINS HOSPITAL, THE\",1800 ORLEANS STREET,BALTIMORE,MD,21287,BALTIMORE CITY,Acute Care Hospitals\n" +
	"220071,MASSACHUSETTS GENERAL HOSPITAL,55 FRUIT STREET,BOSTON,MA,02114,SUFFOLK,Acute Care Hospitals\n"

func csvServer(t *testing.T, body string, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestParseHospitals(t *testing.T) {
	rows, err := ParseHospitals(strings.NewReader(hospitalsCSV))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, Hospital{
		CCN:          "210009",
		Name:         "JOHNS HOPKINS HOSPITAL, THE",
		Address:      "1800 ORLEANS STREET",
		City:         "BALTIMORE",
		State:        "MD",
		ZIP:          "21287",
		HospitalType: "Acute Care Hospitals",
	}, rows[0])
	assert.Equal(t, "02114", rows[1].ZIP)
}

func TestParseHospitalsMissingColumns(t *testing.T) {
	rows, err := ParseHospitals(strings.NewReader("Facility Name,State\nMERCY,MD\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "MERCY", rows[0].Name)
	assert.Empty(t, rows[0].CCN)

	rows, err = ParseHospitals(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDatasetCachesDownload(t *testing.T) {
	srv, hits := csvServer(t, hospitalsCSV, http.StatusOK)
	mem := cache.NewMemory()
	log := logging.New(nil, "silent")
	ctx := context.Background()

	d := NewHospitalDataset(srv.URL, mem, time.Hour, log, nil)
	assert.False(t, d.Loaded())
	assert.Len(t, d.Hospitals(ctx), 2)
	assert.Len(t, d.Hospitals(ctx), 2)
	assert.True(t, d.Loaded())
	assert.Equal(t, int32(1), hits.Load())

	// A fresh dataset sharing the cache does not download again.
	d2 := NewHospitalDataset(srv.URL, mem, time.Hour, log, nil)
	assert.Len(t, d2.Hospitals(ctx), 2)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDatasetRefreshesAfterTTL(t *testing.T) {
	srv, hits := csvServer(t, hospitalsCSV, http.StatusOK)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	d := NewHospitalDataset(srv.URL, nil, time.Hour, logging.New(nil, "silent"), nil)
	d.now = func() time.Time { return now }

	d.Hospitals(context.Background())
	now = now.Add(2 * time.Hour)
	d.Hospitals(context.Background())
	assert.Equal(t, int32(2), hits.Load())
}

func TestDatasetKeepsRowsWhenRefreshFails(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(hospitalsCSV))
	}))
	defer srv.Close()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	d := NewHospitalDataset(srv.URL, nil, time.Hour, logging.New(nil, "silent"), nil)
	d.now = func() time.Time { return now }
	require.Len(t, d.Hospitals(context.Background()), 2)

	now = now.Add(2 * time.Hour)
	status.Store(http.StatusServiceUnavailable)
	assert.Len(t, d.Hospitals(context.Background()), 2)
	assert.True(t, d.Loaded())

	r := NewService(nil, d, logging.New(nil, "silent")).
		CCNByName(context.Background(), "Massachusetts General Hospital", "")
	require.True(t, r.OK(), r.ErrorMessage)
	assert.Equal(t, "220071", r.Data.(CCNData).Matches[0].CCN)

	// stale rows are not treated as fresh, so the next call tries again
	status.Store(http.StatusOK)
	before := hits.Load()
	assert.Len(t, d.Hospitals(context.Background()), 2)
	assert.Equal(t, before+1, hits.Load())
	assert.Len(t, d.Hospitals(context.Background()), 2)
	assert.Equal(t, before+1, hits.Load())
}

func TestDatasetEmptyIsNotCached(t *testing.T) {
	srv, hits := csvServer(t, "Facility ID,Facility Name\n", http.StatusOK)
	mem := cache.NewMemory()

	d := NewHospitalDataset(srv.URL, mem, time.Hour, logging.New(nil, "silent"), nil)
	assert.Empty(t, d.Hospitals(context.Background()))
	assert.Empty(t, d.Hospitals(context.Background()))
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, 0, mem.Len())
	assert.False(t, d.Loaded())
}

func TestDatasetDownloadFailure(t *testing.T) {
	srv, _ := csvServer(t, "boom", http.StatusInternalServerError)

	d := NewHospitalDataset(srv.URL, cache.NewMemory(), time.Hour, logging.New(nil, "silent"), nil)
	assert.Nil(t, d.Hospitals(context.Background()))
}
