package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Names []string `json:"names"`
}

func TestCacheAside(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb, err := NewClient("redis://" + mr.Addr())
	require.NoError(t, err)
	defer rdb.Close()

	ctx := context.Background()
	calls := 0
	fetch := func(dest *payload) func() error {
		return func() error {
			calls++
			dest.Names = []string{"shoes", "bags"}
			return nil
		}
	}

	var first payload
	require.NoError(t, CacheAside(ctx, rdb, CategoriesKey, &first, time.Minute, fetch(&first)))
	var second payload
	require.NoError(t, CacheAside(ctx, rdb, CategoriesKey, &second, time.Minute, fetch(&second)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"shoes", "bags"}, second.Names)

	Invalidate(ctx, rdb, CategoriesKey)
	var third payload
	require.NoError(t, CacheAside(ctx, rdb, CategoriesKey, &third, time.Minute, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestCacheAside_NilClientAlwaysFetches(t *testing.T) {
	calls := 0
	var dest payload
	for i := 0; i < 2; i++ {
		require.NoError(t, CacheAside(context.Background(), nil, "k", &dest, time.Minute, func() error {
			calls++
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
}

func TestCacheAside_FetchErrorIsNotCached(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb, err := NewClient(mr.Addr())
	require.NoError(t, err)

	var dest payload
	err = CacheAside(context.Background(), rdb, "k", &dest, time.Minute, func() error {
		return errors.New("upstream down")
	})
	assert.EqualError(t, err, "upstream down")
	assert.False(t, mr.Exists("k"))
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "session:abc", SessionKey("abc"))
}

func TestNewClient_ParsesAddress(t *testing.T) {
	tests := []struct {
		in       string
		wantAddr string
		wantPass string
		wantDB   int
		wantTLS  bool
	}{
		{"redis://:mypassword@redis:6379/1", "redis:6379", "mypassword", 1, false},
		{"rediss://:s3cret@redis.example.com:6380/2", "redis.example.com:6380", "s3cret", 2, true},
		{"redis:6379", "redis:6379", "", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			rdb, err := NewClient(tc.in)
			require.NoError(t, err)
			defer rdb.Close()

			opts := rdb.Options()
			assert.Equal(t, tc.wantAddr, opts.Addr)
			assert.Equal(t, tc.wantPass, opts.Password)
			assert.Equal(t, tc.wantDB, opts.DB)
			assert.Equal(t, tc.wantTLS, opts.TLSConfig != nil)
		})
	}

	_, err := NewClient("redis://:pw@host:6379/not-a-db")
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	assert.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())
	assert.True(t, mr.Exists("k"))

	addr := mr.Addr()
	mr.Close()
	_, err = Connect(context.Background(), addr)
	assert.Error(t, err)

	_, err = Connect(context.Background(), "redis://:pw@host:6379/not-a-db")
	assert.ErrorContains(t, err, "invalid REDIS_URL")
}
