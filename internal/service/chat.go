package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/models"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/repository"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/security"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/worker"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/pkg/apperrors"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/pkg/logger"

	"github.com/google/uuid"
)

const (
	maxChatMessageLen   = 1000
	defaultChatPageSize = 50
)

// ChatStore is the durable message archive
type ChatStore interface {
	GetMatch(ctx context.Context, id uint) (*models.Match, error)
	SaveChatMessage(ctx context.Context, msg *models.ChatMessage) error
	ListChatMessages(ctx context.Context, matchID uint, limit int) ([]models.ChatMessage, error)
}

// ChatCache holds the most recent messages of each match
type ChatCache interface {
	PushChatMessage(ctx context.Context, msg *models.ChatMessage) error
	RecentChatMessages(ctx context.Context, matchID uint, limit int) ([]models.ChatMessage, error)
}

// PersistQueue accepts messages for asynchronous persistence
type PersistQueue interface {
	Submit(task worker.PersistTask) error
}

// ChatService handles per-match chat rooms.
// Messages are written to Redis synchronously and to the database through the worker pool.
type ChatService struct {
	store ChatStore
	cache ChatCache
	queue PersistQueue
	loc   *time.Location
	now   func() time.Time
}

func NewChatService(store ChatStore, cache ChatCache, queue PersistQueue, loc *time.Location) *ChatService {
	if loc == nil {
		loc = time.Local
	}
	return &ChatService{
		store: store,
		cache: cache,
		queue: queue,
		loc:   loc,
		now:   time.Now,
	}
}

// Send posts a message to a match's chat room
func (s *ChatService) Send(ctx context.Context, matchID, senderID uint, content string) (*models.ChatMessageResponse, error) {
	if err := s.ensureMatch(ctx, matchID); err != nil {
		return nil, err
	}

	content = security.SanitizeText(content)
	if content == "" {
		return nil, apperrors.Validation("message content is empty")
	}
	if utf8.RuneCountInString(content) > maxChatMessageLen {
		return nil, apperrors.Validation(fmt.Sprintf("message content exceeds %d characters", maxChatMessageLen))
	}

	msg := &models.ChatMessage{
		ID:        uuid.NewString(),
		MatchID:   matchID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}

	if err := s.cache.PushChatMessage(ctx, msg); err != nil {
		// Without the cache copy the database write must not be deferred
		logger.Warn("Failed to cache chat message", "match_id", matchID, "error", err)
		if err := s.store.SaveChatMessage(ctx, msg); err != nil {
			return nil, fmt.Errorf("failed to save chat message: %w", err)
		}
	} else if err := s.queue.Submit(worker.PersistTask{Message: msg}); err != nil {
		logger.Warn("Persisting chat message synchronously", "match_id", matchID, "reason", err)
		if err := s.store.SaveChatMessage(ctx, msg); err != nil {
			return nil, fmt.Errorf("failed to save chat message: %w", err)
		}
	}

	resp := msg.Response(s.loc)
	return &resp, nil
}

// Recent returns the newest messages of a match, newest first
func (s *ChatService) Recent(ctx context.Context, matchID uint, limit int) ([]models.ChatMessageResponse, error) {
	if limit <= 0 {
		limit = defaultChatPageSize
	}
	if limit > repository.ChatRecentLimit {
		limit = repository.ChatRecentLimit
	}
	if err := s.ensureMatch(ctx, matchID); err != nil {
		return nil, err
	}

	messages, err := s.cache.RecentChatMessages(ctx, matchID, limit)
	if err != nil {
		logger.Warn("Failed to read cached chat messages", "match_id", matchID, "error", err)
	}
	if len(messages) == 0 {
		messages, err = s.store.ListChatMessages(ctx, matchID, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to list chat messages: %w", err)
		}
	}

	out := make([]models.ChatMessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, messages[i].Response(s.loc))
	}
	return out, nil
}

func (s *ChatService) ensureMatch(ctx context.Context, matchID uint) error {
	if _, err := s.store.GetMatch(ctx, matchID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound(fmt.Sprintf("match %d not found", matchID))
		}
		return fmt.Errorf("failed to load match: %w", err)
	}
	return nil
}
