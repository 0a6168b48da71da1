package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis notifier.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Channel prefixes both the pub/sub channel and the history list:
	// "<channel>:<owner>".
	Channel string
	Keep    int
}

// Redis publishes each notification on a per-owner channel and keeps a
// capped history list so clients that were not subscribed can catch up.
type Redis struct {
	client  *redis.Client
	channel string
	keep    int
	log     *slog.Logger
}

var _ Notifier = (*Redis)(nil)

// NewRedis connects and pings.
func NewRedis(ctx context.Context, cfg RedisConfig, log *slog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("notify.NewRedis: ping %s: %w", cfg.Addr, err)
	}

	if cfg.Channel == "" {
		cfg.Channel = "notifications"
	}
	if cfg.Keep <= 0 {
		cfg.Keep = DefaultKeep
	}
	if log == nil {
		log = slog.Default()
	}
	return &Redis{client: client, channel: cfg.Channel, keep: cfg.Keep, log: log}, nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) key(owner string) string {
	return r.channel + ":" + owner
}

// Notify never returns an error: failures are logged.
func (r *Redis) Notify(ctx context.Context, n Notification) {
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}
	logNotification(ctx, r.log, n)

	payload, err := json.Marshal(n)
	if err != nil {
		r.log.Error("notify: marshal", slog.String("error", err.Error()))
		return
	}

	key := r.key(n.Owner)
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, int64(r.keep-1))
	pipe.Publish(ctx, key, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Error("notify: redis delivery failed",
			slog.String("owner", n.Owner),
			slog.String("error", err.Error()))
	}
}

// Recent reads the history list, newest first.
func (r *Redis) Recent(ctx context.Context, owner string, limit int) ([]Notification, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	raw, err := r.client.LRange(ctx, r.key(owner), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("notify.Recent: %w", err)
	}

	out := make([]Notification, 0, len(raw))
	for _, item := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			continue
		}
		n.Owner = owner
		out = append(out, n)
	}
	return out, nil
}
