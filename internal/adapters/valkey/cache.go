package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/lgatracker/internal/pkg/metrics"
)

// Client wraps a Valkey connection. It serves as ports.CacheService for boundary payloads
// and backs the Valkey visit repository.
type Client struct {
	client valkey.Client
	prefix string
}

// New connects to Valkey. Every key is namespaced with prefix.
func New(addr, prefix string) (*Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Client{client: client, prefix: prefix}, nil
}

func (c *Client) key(k string) string { return c.prefix + k }

// Get retrieves a value by key. A missing key is reported as an error.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Do(ctx, c.client.B().Get().Key(c.key(key)).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			metrics.CacheMisses.WithLabelValues("valkey").Inc()
		}
		return nil, err
	}
	metrics.CacheHits.WithLabelValues("valkey").Inc()
	return b, nil
}

// Set stores a value. ttlSeconds <= 0 stores without expiry.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	if ttlSeconds <= 0 {
		return c.client.Do(ctx, c.client.B().Set().Key(c.key(key)).Value(valkey.BinaryString(value)).Build()).Error()
	}
	cmd := c.client.Do(ctx,
		c.client.B().Set().Key(c.key(key)).Value(valkey.BinaryString(value)).Ex(time.Duration(ttlSeconds)*time.Second).Build(),
	)
	return cmd.Error()
}

// Delete removes a key.
func (c *Client) Delete(ctx context.Context, key string) error {
	return c.client.Do(ctx, c.client.B().Del().Key(c.key(key)).Build()).Error()
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (c *Client) Close() {
	c.client.Close()
}
