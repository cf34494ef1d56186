package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	// MatchFeedVersionKey is bumped whenever a match is created or changes status
	MatchFeedVersionKey = "matches:version"

	// ChatRecentLimit caps the per-match list of recent chat messages
	ChatRecentLimit = 100

	chatRecentTTL = 7 * 24 * time.Hour
)

// RedisRepository handles all Redis operations
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository creates a new Redis repository
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{
		client: client,
	}
}

func chatRecentKey(matchID uint) string {
	return fmt.Sprintf("chat:match:%d:recent", matchID)
}

// BumpMatchFeedVersion increments the global match feed version
func (r *RedisRepository) BumpMatchFeedVersion(ctx context.Context) (int64, error) {
	return r.client.Incr(ctx, MatchFeedVersionKey).Result()
}

// GetMatchFeedVersion returns the current match feed version, 0 if never bumped
func (r *RedisRepository) GetMatchFeedVersion(ctx context.Context) (int64, error) {
	version, err := r.client.Get(ctx, MatchFeedVersionKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return version, nil
}

// PushChatMessage prepends msg to the match's recent list and trims it
func (r *RedisRepository) PushChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal chat message: %w", err)
	}

	key := chatRecentKey(msg.MatchID)
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, ChatRecentLimit-1)
	pipe.Expire(ctx, key, chatRecentTTL)

	_, err = pipe.Exec(ctx)
	return err
}

// RecentChatMessages returns up to limit cached messages, newest first
func (r *RedisRepository) RecentChatMessages(ctx context.Context, matchID uint, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > ChatRecentLimit {
		limit = ChatRecentLimit
	}

	raw, err := r.client.LRange(ctx, chatRecentKey(matchID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]models.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg models.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue // skip entries written by an older format
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Ping checks if Redis is reachable
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisRepository) Close() error {
	return r.client.Close()
}
