package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Channel is the pub/sub channel invalidations travel on.
const Channel = "dictionary:invalidate"

// Redis broadcasts invalidations to every node subscribed to Channel.
// Messages published by the same Redis value are not delivered back to it.
type Redis struct {
	client *redis.Client
	origin string
	log    *slog.Logger

	mu     sync.Mutex
	subs   []*redis.PubSub
	closed bool
}

// NewRedis wraps client. The caller keeps ownership of client.
func NewRedis(client *redis.Client, log *slog.Logger) *Redis {
	if log == nil {
		log = slog.Default().With("component", "notify")
	}
	return &Redis{client: client, origin: uuid.NewString(), log: log}
}

// DialRedis connects to addr and checks the connection.
func DialRedis(ctx context.Context, addr string, log *slog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return NewRedis(client, log), nil
}

// Client returns the underlying client.
func (r *Redis) Client() *redis.Client { return r.client }

func (r *Redis) Publish(ctx context.Context, tenant string) error {
	if err := r.client.Publish(ctx, Channel, encodeMessage(r.origin, tenant)).Err(); err != nil {
		return fmt.Errorf("publish invalidation for tenant %q: %w", tenant, err)
	}
	return nil
}

func (r *Redis) Subscribe(ctx context.Context, fn func(tenant string)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	sub := r.client.Subscribe(ctx, Channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", Channel, err)
	}
	r.subs = append(r.subs, sub)
	go r.receive(ctx, sub, fn)
	return nil
}

func (r *Redis) receive(ctx context.Context, sub *redis.PubSub, fn func(string)) {
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			_ = sub.Close()
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			origin, tenant, valid := decodeMessage(msg.Payload)
			if !valid {
				r.log.Warn("dropping malformed invalidation", "payload", msg.Payload)
				continue
			}
			if origin == r.origin {
				continue
			}
			fn(tenant)
		}
	}
}

// Close stops every subscription. The client stays open.
func (r *Redis) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	var errs []error
	for _, sub := range r.subs {
		errs = append(errs, sub.Close())
	}
	r.subs = nil
	return errors.Join(errs...)
}

// encodeMessage joins origin and tenant; tenants may be empty.
func encodeMessage(origin, tenant string) string {
	return origin + "|" + tenant
}

func decodeMessage(payload string) (origin, tenant string, ok bool) {
	origin, tenant, ok = strings.Cut(payload, "|")
	return origin, tenant, ok && origin != ""
}
