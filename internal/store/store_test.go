package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/soyeahso/agentchat/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	log := logging.New(nil, "silent")
	db, err := Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenInMemory(t *testing.T) {
	db := testDB(t)
	require.NotNil(t, db.SQL())

	v, err := db.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(migrations), v)
}

func TestOpenFileKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	db, err := Open(path, logging.New(nil, "silent"))
	require.NoError(t, err)
	require.NoError(t, NewCache(db).Set(context.Background(), "k", []byte("v"), 0))
	require.NoError(t, db.Close())

	db, err = Open(path, logging.New(nil, "silent"))
	require.NoError(t, err)
	defer db.Close()

	v, err := db.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(migrations), v)

	got, ok, err := NewCache(db).Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.migrate(context.Background()))

	v, err := db.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(migrations), v)
}

func TestMigrateRejectsNewerSchema(t *testing.T) {
	db := testDB(t)
	_, err := db.sql.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)

	err = db.migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than this build")
}

// --- Cache tests ---

func TestCache_SetGet(t *testing.T) {
	c := NewCache(testDB(t))
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v1"), 0))
	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), v)

	require.NoError(t, c.Set(ctx, "k", []byte("v2"), time.Hour))
	v, _, _ = c.Get(ctx, "k")
	assert.Equal(t, []byte("v2"), v)
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache(testDB(t))
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "short", []byte("x"), time.Minute))
	require.NoError(t, c.Set(ctx, "forever", []byte("y"), 0))

	now = now.Add(2 * time.Minute)
	_, ok, err := c.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "forever")
	assert.True(t, ok)

	n, err := c.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCache_Delete(t *testing.T) {
	c := NewCache(testDB(t))
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Delete(ctx, "k"))
	require.NoError(t, c.Delete(ctx, "k"))
	_, ok, _ := c.Get(ctx, "k")
	assert.False(t, ok)
}

// --- Lookup log tests ---

func TestLookups(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, db.RecordLookup(ctx, "get_facility_type_by_npi", "1912971421", "success"))
	require.NoError(t, db.RecordLookup(ctx, "get_ccn_by_hospital_name", "Mass General", "error"))

	got, err := db.RecentLookups(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "get_ccn_by_hospital_name", got[0].Tool)
	assert.Equal(t, "error", got[0].Status)
	assert.Equal(t, "1912971421", got[1].Query)

	got, err = db.RecentLookups(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
