package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mossy-p/seeforme-signaling/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	// HelpRequestTopic is the notification topic volunteers subscribe to
	HelpRequestTopic = "help-request"

	presencePrefix     = "presence:"
	callPrefix         = "call:"
	notificationPrefix = "notifications:"
	redisOpTimeout     = 2 * time.Second
)

// PresenceKey is the Redis set holding the online names of role
func PresenceKey(role string) string {
	return presencePrefix + role
}

// CallKey is the Redis hash describing call id
func CallKey(id string) string {
	return callPrefix + id
}

// NotificationChannel is the Redis pub/sub channel for topic
func NotificationChannel(topic string) string {
	return notificationPrefix + topic
}

// RedisSink mirrors presence and call records into Redis and publishes
// help requests for the push gateway. Writes happen on a worker goroutine
// so the hub never waits on the network.
type RedisSink struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger

	queue chan Event
	stop  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// NewRedisSink returns a sink writing through client. ttl bounds how long
// call records are kept.
func NewRedisSink(client *redis.Client, ttl time.Duration, buffer int, log *slog.Logger) *RedisSink {
	if log == nil {
		log = slog.Default()
	}
	if buffer <= 0 {
		buffer = 1024
	}
	return &RedisSink{
		client: client,
		ttl:    ttl,
		log:    log,
		queue:  make(chan Event, buffer),
		stop:   make(chan struct{}),
	}
}

// Start launches the worker
func (s *RedisSink) Start() {
	s.wg.Add(1)
	go s.run()
}

// Close stops the worker after it has written everything already queued
func (s *RedisSink) Close() {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
}

// Publish enqueues e, dropping it if the worker is behind
func (s *RedisSink) Publish(e Event) {
	select {
	case s.queue <- e:
	default:
		s.log.Warn("event buffer full, dropping event", "kind", e.Kind, "name", e.Name)
	}
}

func (s *RedisSink) run() {
	defer s.wg.Done()
	for {
		select {
		case e := <-s.queue:
			s.write(e)
		case <-s.stop:
			for {
				select {
				case e := <-s.queue:
					s.write(e)
				default:
					return
				}
			}
		}
	}
}

func (s *RedisSink) write(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := s.Apply(ctx, e); err != nil {
		s.log.Error("failed to mirror event to redis", "kind", e.Kind, "name", e.Name, "error", err)
	}
}

// Apply writes a single event to Redis synchronously
func (s *RedisSink) Apply(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	switch e.Kind {
	case KindOnline:
		// Presence sets carry no TTL: they live as long as their members
		// and are cleared by Reset on startup.
		return s.client.SAdd(ctx, PresenceKey(e.Role), e.Name).Err()

	case KindOffline:
		return s.client.SRem(ctx, PresenceKey(e.Role), e.Name).Err()

	case KindCallStarted:
		pipe := s.client.TxPipeline()
		pipe.HSet(ctx, CallKey(e.CallID),
			"a", e.Name,
			"b", e.Peer,
			"started_at", e.At.Unix(),
		)
		pipe.Expire(ctx, CallKey(e.CallID), s.ttl)
		_, err := pipe.Exec(ctx)
		return err

	case KindCallEnded:
		return s.client.HSet(ctx, CallKey(e.CallID),
			"ended_at", e.At.Unix(),
			"ended_by", e.Name,
			"reason", e.Reason,
		).Err()

	case KindHelpRequested:
		data, err := json.Marshal(map[string]any{
			"requestCreatorId": e.Name,
			"createdAt":        e.At.Unix(),
		})
		if err != nil {
			return err
		}
		return Notify(ctx, s.client, models.Notification{
			Topic:     HelpRequestTopic,
			Data:      data,
			CreatedAt: e.At,
		})

	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
}

// Reset clears presence left behind by a previous process
func (s *RedisSink) Reset(ctx context.Context, roles ...string) error {
	keys := make([]string, 0, len(roles))
	for _, r := range roles {
		keys = append(keys, PresenceKey(r))
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// OnlineCount returns how many names are marked online for role
func OnlineCount(ctx context.Context, client *redis.Client, role string) (int64, error) {
	return client.SCard(ctx, PresenceKey(role)).Result()
}

// Notify publishes n on its topic channel
func Notify(ctx context.Context, client *redis.Client, n models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	if err := client.Publish(ctx, NotificationChannel(n.Topic), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}
