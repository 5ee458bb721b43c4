package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eshen7/frc-marketplace/internal/config"
	"github.com/eshen7/frc-marketplace/internal/domain"
	"github.com/eshen7/frc-marketplace/pkg/log"
)

// Redis bridges group fan-out across service instances through Redis
// Pub/Sub. Membership stays local: each instance keeps its own Memory
// broker and subscribes to a channel per group pattern, so a publish on
// any instance reaches every instance's local members.
type Redis struct {
	client *redis.Client
	local  *Memory
	prefix string
	cancel context.CancelFunc
	doneCh chan struct{}
}

func NewRedis(cfg config.BrokerConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	b := &Redis{
		client: client,
		local:  NewMemory(),
		prefix: cfg.ChannelPrefix,
		cancel: runCancel,
		doneCh: make(chan struct{}),
	}
	go b.run(runCtx)
	return b, nil
}

func (b *Redis) channelName(group string) string {
	return b.prefix + ":" + group
}

func (b *Redis) Join(group string, sub Subscriber) {
	b.local.Join(group, sub)
}

func (b *Redis) Leave(group string, sub Subscriber) {
	b.local.Leave(group, sub)
}

// Publish sends the event through Redis; the pattern subscription loop
// republishes it into the local membership table on every instance,
// including this one.
func (b *Redis) Publish(ctx context.Context, group string, event *domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channelName(group), data).Err(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}

// run keeps a pattern subscription on the group channels alive until the
// broker is closed. Reconnects on receive errors.
func (b *Redis) run(ctx context.Context) {
	defer close(b.doneCh)
	l := log.L()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if err := b.runSubscription(ctx); err != nil && ctx.Err() == nil {
				l.Warn().Err(err).Msg("broker pubsub subscription error, reconnecting in 2s")
				select {
				case <-ctx.Done():
					return
				case <-time.After(2 * time.Second):
					continue
				}
			}
			return
		}
	}
}

// errSubscriptionClosed reports a pubsub channel that closed while the
// broker was still supposed to be receiving.
var errSubscriptionClosed = errors.New("pubsub channel closed unexpectedly")

func (b *Redis) runSubscription(ctx context.Context) error {
	pubsub := b.client.PSubscribe(ctx, b.prefix+":*")
	defer pubsub.Close()

	// Wait for subscription to be active
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	return b.consume(ctx, pubsub.Channel())
}

// consume republishes incoming messages into the local membership table
// until ctx is cancelled. A channel closed without cancellation means the
// client dropped the subscription; that is surfaced as an error so the
// reconnect loop re-establishes it instead of going silent.
func (b *Redis) consume(ctx context.Context, ch <-chan *redis.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errSubscriptionClosed
			}
			b.handleMessage(ctx, msg.Channel, msg.Payload)
		}
	}
}

func (b *Redis) handleMessage(ctx context.Context, channel, payload string) {
	l := log.L()

	group := strings.TrimPrefix(channel, b.prefix+":")
	if group == channel || group == "" {
		return
	}

	var event domain.Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		l.Warn().Err(err).Str(log.FieldGroup, group).Msg("broker pubsub: invalid payload")
		return
	}

	if err := b.local.Publish(ctx, group, &event); err != nil {
		l.Warn().Err(err).Str(log.FieldGroup, group).Msg("broker pubsub: local fan-out failed")
	}
}

func (b *Redis) Close() error {
	b.cancel()
	<-b.doneCh
	b.local.Close()
	return b.client.Close()
}
