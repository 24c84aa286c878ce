package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jwebster45206/artel-village/internal/config"
	"github.com/jwebster45206/artel-village/pkg/state"
	"github.com/jwebster45206/artel-village/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func newRedis(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r, err := NewRedisStorage(mr.Addr(), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func newSQLite(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "village.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// backends runs the same round-trip against every implementation.
func backends(t *testing.T) map[string]storage.Storage {
	r, _ := newRedis(t)
	return map[string]storage.Storage{
		"redis":  r,
		"sqlite": newSQLite(t),
		"memory": storage.NewMemoryStorage(),
	}
}

func TestStorage_RoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Ping(ctx))

			p := state.NewPlayer("Mira")
			p.HP = 42
			p.AddItem("quest-scroll", 1)
			require.NoError(t, p.SetVariable("PHOTO_READY", true))
			before := p.UpdatedAt

			require.NoError(t, s.SavePlayer(ctx, p))
			assert.False(t, p.UpdatedAt.Before(before))

			loaded, err := s.LoadPlayer(ctx, p.ID)
			require.NoError(t, err)
			require.NotNil(t, loaded)
			assert.Equal(t, p.ID, loaded.ID)
			assert.Equal(t, 42, loaded.HP)
			assert.True(t, loaded.HasItem("quest-scroll"))
			assert.True(t, loaded.BoolVar("PHOTO_READY"))

			// overwrite
			loaded.Gold = 77
			require.NoError(t, s.SavePlayer(ctx, loaded))
			again, err := s.LoadPlayer(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, 77, again.Gold)

			require.NoError(t, s.DeletePlayer(ctx, p.ID))
			gone, err := s.LoadPlayer(ctx, p.ID)
			require.NoError(t, err)
			assert.Nil(t, gone)
		})
	}
}

func TestStorage_LoadMissing(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			p, err := s.LoadPlayer(context.Background(), uuid.New())
			assert.NoError(t, err)
			assert.Nil(t, p)
		})
	}
}

func TestRedisStorage_Key(t *testing.T) {
	r, mr := newRedis(t)
	p := state.NewPlayer("Mira")
	require.NoError(t, r.SavePlayer(context.Background(), p))

	assert.True(t, mr.Exists("player:"+p.ID.String()))
	assert.Zero(t, mr.TTL("player:"+p.ID.String()), "players never expire")
}

func TestRedisStorage_CorruptValue(t *testing.T) {
	r, mr := newRedis(t)
	id := uuid.New()
	require.NoError(t, mr.Set("player:"+id.String(), "{not json"))

	_, err := r.LoadPlayer(context.Background(), id)
	assert.Error(t, err)
}

func TestRedisStorage_PingFailure(t *testing.T) {
	r, mr := newRedis(t)
	mr.Close()
	assert.Error(t, r.Ping(context.Background()))
}

func TestRedisStorage_URL(t *testing.T) {
	mr := miniredis.RunT(t)
	r, err := NewRedisStorage("redis://"+mr.Addr()+"/0", testLogger())
	require.NoError(t, err)
	defer r.Close()
	assert.NoError(t, r.Ping(context.Background()))

	_, err = NewRedisStorage("redis://[bad", testLogger())
	assert.Error(t, err)
}

func TestOpenSQLite_RequiresPath(t *testing.T) {
	_, err := OpenSQLite("  ", testLogger())
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	s, err := Open(&config.Config{StorageBackend: config.StorageMemory}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &storage.MemoryStorage{}, s)

	s, err = Open(&config.Config{StorageBackend: config.StorageSQLite, SQLitePath: filepath.Join(t.TempDir(), "v.db")}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStorage{}, s)
	require.NoError(t, s.Close())

	_, err = Open(&config.Config{StorageBackend: "etcd"}, testLogger())
	assert.Error(t, err)
}

// flakyStore fails its first pings.
type flakyStore struct {
	*storage.MemoryStorage
	failures int
	pings    int
}

func (f *flakyStore) Ping(ctx context.Context) error {
	f.pings++
	if f.pings <= f.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestWaitForConnection(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		retries   int
		wantErr   bool
		wantPings int
	}{
		{name: "ready at once", failures: 0, retries: 3, wantPings: 1},
		{name: "ready after retries", failures: 2, retries: 3, wantPings: 3},
		{name: "never ready", failures: 5, retries: 3, wantErr: true, wantPings: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &flakyStore{MemoryStorage: storage.NewMemoryStorage(), failures: tt.failures}
			err := WaitForConnection(context.Background(), s, tt.retries, time.Millisecond, testLogger())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantPings, s.pings)
		})
	}

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s := &flakyStore{MemoryStorage: storage.NewMemoryStorage(), failures: 10}
		err := WaitForConnection(ctx, s, 10, time.Hour, testLogger())
		assert.ErrorIs(t, err, context.Canceled)
	})
}
