package rendersync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/taskcanvas/pkg/observability"
)

// DefaultChannel is the pub/sub channel prefix for sync messages.
const DefaultChannel = "taskcanvas:sync"

// DefaultPublishTimeout bounds a single publish so a slow Redis never stalls
// the event loop that flushed the bridge.
const DefaultPublishTimeout = 2 * time.Second

// Publisher is the subset of *redis.Client used for publishing.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Message is the JSON payload published for every flushed batch.
type Message struct {
	Canvas string    `json:"canvas"`
	Nodes  []string  `json:"nodes"`
	At     time.Time `json:"at"`
}

// RedisPublisher forwards flushed batches to a Redis channel.
type RedisPublisher struct {
	client  Publisher
	channel string
	canvas  string
	timeout time.Duration
	retries int
	backoff time.Duration
	logger  *log.Logger
}

// NewRedisPublisher creates a publisher for one canvas. Messages go to
// "<prefix>:<canvasID>"; an empty prefix uses [DefaultChannel].
func NewRedisPublisher(client Publisher, prefix, canvasID string, logger *log.Logger) *RedisPublisher {
	if prefix == "" {
		prefix = DefaultChannel
	}
	if logger == nil {
		logger = log.Default()
	}
	return &RedisPublisher{
		client:  client,
		channel: Channel(prefix, canvasID),
		canvas:  canvasID,
		timeout: DefaultPublishTimeout,
		backoff: 50 * time.Millisecond,
		logger:  logger,
	}
}

// Channel returns the channel name used for canvasID.
func Channel(prefix, canvasID string) string {
	return prefix + ":" + canvasID
}

// SetTimeout overrides the per-publish timeout.
func (p *RedisPublisher) SetTimeout(d time.Duration) {
	if d > 0 {
		p.timeout = d
	}
}

// SetRetries makes Sync retry a failed publish up to n more times, starting
// with backoff between attempts and doubling it each time.
func (p *RedisPublisher) SetRetries(n int, backoff time.Duration) {
	p.retries = max(n, 0)
	if backoff > 0 {
		p.backoff = backoff
	}
}

// Publish sends one batch.
func (p *RedisPublisher) Publish(ctx context.Context, nodeIDs []string) error {
	data, err := json.Marshal(Message{Canvas: p.canvas, Nodes: nodeIDs, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal sync message: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	return nil
}

// Sync is a [SyncFunc]. All attempts share one publish timeout. Failures are
// logged and reported to the sync hooks; the renderer catches up on the next
// successful flush.
func (p *RedisPublisher) Sync(nodeIDs []string) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	err := retry(ctx, p.retries+1, p.backoff, func(ctx context.Context) error {
		return p.Publish(ctx, nodeIDs)
	})
	if err != nil {
		p.logger.Warn("render sync publish failed", "channel", p.channel, "nodes", len(nodeIDs), "error", err)
		observability.Sync().OnSyncError(err)
	}
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}
