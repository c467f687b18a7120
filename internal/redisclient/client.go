package redisclient

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-redis/redis/v8"
)

const exportKeyPrefix = "dashboard:export:"

// ErrExportNotFound is returned when a rendered export is missing or has expired.
var ErrExportNotFound = errors.New("export not found")

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client and verifies the connection
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "redis ping failed")
	}

	return &Client{rdb: rdb}, nil
}

// NewWithRedis wraps an existing redis client.
func NewWithRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the Redis connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func exportKey(jobID string) string {
	return exportKeyPrefix + jobID
}

// SaveExport stores rendered CSV bytes until ttl elapses
func (c *Client) SaveExport(ctx context.Context, jobID string, data []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, exportKey(jobID), data, ttl).Err(); err != nil {
		return errors.Wrapf(err, "save export %s", jobID)
	}
	return nil
}

// GetExport loads rendered CSV bytes
func (c *Client) GetExport(ctx context.Context, jobID string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, exportKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errors.Wrapf(ErrExportNotFound, "job %s", jobID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get export %s", jobID)
	}
	return data, nil
}
