package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

const keyPrefix = "surveyplan:"

// LocalTTL bounds how long a read is served from the client-side cache.
// Stored plans are immutable and deletes are pushed to the client by server
// assisted invalidation, so the bound only matters if that push is lost.
var LocalTTL = time.Minute

// Cache implements ports.CacheService on Valkey. Keys are namespaced so
// several services can share one instance.
type Cache struct {
	client valkey.Client
}

// New connects to addr. The client opts into RESP3 client tracking, which
// valkey-go enables unless caching is disabled.
func New(addr string) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:       []string{addr},
		ClientName:        "surveyplan",
		CacheSizeEachConn: 16 << 20,
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect %s: %w", addr, err)
	}
	return &Cache{client: client}, nil
}

// Get reads through the client-side cache.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := c.client.B().Get().Key(keyPrefix + key).Cache()
	return c.client.DoCache(ctx, cmd, LocalTTL).AsBytes()
}

// Set stores a value that expires after ttlSeconds; zero means no expiry.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	set := c.client.B().Set().Key(keyPrefix + key).Value(valkey.BinaryString(value))
	if ttlSeconds > 0 {
		return c.client.Do(ctx, set.Ex(time.Duration(ttlSeconds)*time.Second).Build()).Error()
	}
	return c.client.Do(ctx, set.Build()).Error()
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Do(ctx, c.client.B().Del().Key(keyPrefix+key).Build()).Error()
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

func (c *Cache) Close() { c.client.Close() }
