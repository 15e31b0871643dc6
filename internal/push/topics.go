package push

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/artel-team/artel/internal/infra/cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TopicStore remembers the last topic synced for each device token.
type TopicStore interface {
	Get(ctx context.Context, deviceToken string) (string, error)
	Set(ctx context.Context, deviceToken, topic string) error
}

type MemoryTopicStore struct {
	mu     sync.Mutex
	topics map[string]string
}

func NewMemoryTopicStore() *MemoryTopicStore {
	return &MemoryTopicStore{topics: make(map[string]string)}
}

func (s *MemoryTopicStore) Get(_ context.Context, deviceToken string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topics[deviceToken], nil
}

func (s *MemoryTopicStore) Set(_ context.Context, deviceToken, topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if topic == "" {
		delete(s.topics, deviceToken)
		return nil
	}
	s.topics[deviceToken] = topic
	return nil
}

// RedisTopicStore shares device topic state between API instances.
type RedisTopicStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisTopicStore(rdb *redis.Client, ttl time.Duration) *RedisTopicStore {
	return &RedisTopicStore{rdb: rdb, ttl: ttl}
}

func topicKey(deviceToken string) string { return cache.Key("push", "topic", deviceToken) }

func (s *RedisTopicStore) Get(ctx context.Context, deviceToken string) (string, error) {
	v, err := s.rdb.Get(ctx, topicKey(deviceToken)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (s *RedisTopicStore) Set(ctx context.Context, deviceToken, topic string) error {
	if topic == "" {
		return s.rdb.Del(ctx, topicKey(deviceToken)).Err()
	}
	return s.rdb.Set(ctx, topicKey(deviceToken), topic, s.ttl).Err()
}

const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"

	// Android 13 introduced the runtime notification permission.
	androidNotificationPermissionAPI = 33
)

// Device identifies a push registration.
type Device struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform" binding:"omitempty,oneof=android ios"`
	APILevel int    `json:"api_level" binding:"omitempty,min=0"`
}

type SyncResult struct {
	Topic              string `json:"topic"`
	Changed            bool   `json:"changed"`
	PermissionRequired bool   `json:"permission_required"`
}

// TopicSyncer keeps a device subscribed to exactly the topic of its current user.
type TopicSyncer struct {
	messaging Messaging
	store     TopicStore
	prefix    string
	log       *zap.Logger
}

func NewTopicSyncer(m Messaging, store TopicStore, prefix string, log *zap.Logger) *TopicSyncer {
	return &TopicSyncer{messaging: m, store: store, prefix: prefix, log: log}
}

// TopicFor returns the topic of userID, or "" for a signed-out device.
func (s *TopicSyncer) TopicFor(userID string) string {
	if userID == "" {
		return ""
	}
	return s.prefix + userID
}

// Sync moves dev from its last synced topic to the topic of userID. It never
// fails: every step is best-effort and only logged. The new topic is recorded
// only when subscribing succeeded, so a failed sync is retried next time.
func (s *TopicSyncer) Sync(ctx context.Context, dev Device, userID string) SyncResult {
	topic := s.TopicFor(userID)
	res := SyncResult{
		Topic:              topic,
		PermissionRequired: topic != "" && dev.Platform == PlatformAndroid && dev.APILevel >= androidNotificationPermissionAPI,
	}
	if dev.Token == "" {
		return res
	}
	log := s.log.With(zap.String("topic", topic))

	prev, err := s.store.Get(ctx, dev.Token)
	if err != nil {
		log.Warn("read last synced topic", zap.Error(err))
	}
	if err == nil && prev == topic {
		return res
	}
	res.Changed = true

	if err := s.messaging.Validate(ctx, dev.Token); err != nil {
		log.Warn("device registration check failed", zap.Error(err))
	}
	if prev != "" {
		if err := s.messaging.Unsubscribe(ctx, dev.Token, prev); err != nil {
			log.Warn("unsubscribe previous topic", zap.String("previous", prev), zap.Error(err))
		}
	}
	if topic != "" {
		if err := s.messaging.Subscribe(ctx, dev.Token, topic); err != nil {
			log.Warn("subscribe topic", zap.Error(err))
			return res
		}
	}
	if err := s.store.Set(ctx, dev.Token, topic); err != nil {
		log.Warn("record synced topic", zap.Error(err))
	}
	return res
}
