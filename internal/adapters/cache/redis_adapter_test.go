package cache_test

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonlysoftware/dashboard-intro-week/internal/adapters/cache"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/providers"
)

// fakeRedis answers GET/SET/DEL/EXISTS from a map without a server
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]any
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]any{}}
}

func (f *fakeRedis) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, fmt.Errorf("unexpected dial to %s", addr)
	}
}

func (f *fakeRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (f *fakeRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		f.mu.Lock()
		defer f.mu.Unlock()

		args := cmd.Args()
		key := fmt.Sprint(args[1])
		switch c := cmd.(type) {
		case *redis.StringCmd:
			v, ok := f.data[key]
			if !ok {
				c.SetErr(redis.Nil)
				return redis.Nil
			}
			c.SetVal(v)
		case *redis.StatusCmd:
			switch val := args[2].(type) {
			case []byte:
				f.data[key] = string(val)
			default:
				f.data[key] = fmt.Sprint(val)
			}
			if len(args) > 4 {
				f.ttls[key] = args[4]
			}
			c.SetVal("OK")
		case *redis.IntCmd:
			_, ok := f.data[key]
			if args[0] == "del" {
				delete(f.data, key)
			}
			if ok {
				c.SetVal(1)
			} else {
				c.SetVal(0)
			}
		default:
			return fmt.Errorf("unsupported command %v", args[0])
		}
		return nil
	}
}

func newFakeClient(t *testing.T) (*redis.Client, *fakeRedis) {
	t.Helper()
	fake := newFakeRedis()
	client := redis.NewClient(&redis.Options{Addr: "redis.invalid:6379"})
	client.AddHook(fake)
	t.Cleanup(func() { client.Close() })
	return client, fake
}

func TestRedisAdapter_RoundTripWithPrefix(t *testing.T) {
	ctx := context.Background()
	client, fake := newFakeClient(t)
	c := cache.NewRedisAdapter(client, "dashboard:")

	_, err := c.Get(ctx, "rooms:lobby")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "rooms:lobby", []byte(`{"rooms":[]}`), 30))
	assert.Contains(t, fake.data, "dashboard:rooms:lobby")
	assert.EqualValues(t, 30, fake.ttls["dashboard:rooms:lobby"])

	got, err := c.Get(ctx, "rooms:lobby")
	require.NoError(t, err)
	assert.JSONEq(t, `{"rooms":[]}`, string(got))

	exists, err := c.Exists(ctx, "rooms:lobby")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, c.Delete(ctx, "rooms:lobby"))
	exists, err = c.Exists(ctx, "rooms:lobby")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRedisAdapter_UnreachableServerIsNotAMiss(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	c := cache.NewRedisAdapter(client, "dashboard:")

	_, err := c.Get(ctx, "toggl:report")
	require.Error(t, err)
	assert.NotErrorIs(t, err, providers.ErrCacheMiss)

	assert.Error(t, c.Set(ctx, "toggl:report", []byte("{}"), 60))
}
