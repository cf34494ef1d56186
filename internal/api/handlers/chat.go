package handlers

import (
	"context"
	"strconv"

	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/api/middleware"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/models"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/pkg/apperrors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ChatRoom posts and reads match chat messages
type ChatRoom interface {
	Send(ctx context.Context, matchID, senderID uint, content string) (*models.ChatMessageResponse, error)
	Recent(ctx context.Context, matchID uint, limit int) ([]models.ChatMessageResponse, error)
}

// ChatHandler handles HTTP requests for match chat rooms
type ChatHandler struct {
	chat      ChatRoom
	validator *validator.Validate
}

func NewChatHandler(chat ChatRoom) *ChatHandler {
	return &ChatHandler{
		chat:      chat,
		validator: validator.New(),
	}
}

// List handles GET /api/v1/matches/:id/messages
// @Summary Recent chat messages
// @Description Newest first
// @Produce json
// @Param id path int true "Match id"
// @Param limit query int false "Max messages" default(50)
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/matches/{id}/messages [get]
func (h *ChatHandler) List(c *fiber.Ctx) error {
	matchID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil {
		limit = 0
	}

	messages, err := h.chat.Recent(c.UserContext(), matchID, limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"messages": messages,
		"size":     len(messages),
	})
}

// Send handles POST /api/v1/matches/:id/messages
// @Summary Post a chat message
// @Accept json
// @Produce json
// @Param id path int true "Match id"
// @Param request body models.ChatMessageRequest true "Message"
// @Success 201 {object} models.ChatMessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/matches/{id}/messages [post]
func (h *ChatHandler) Send(c *fiber.Ctx) error {
	senderID, ok := middleware.UserID(c)
	if !ok {
		return writeError(c, apperrors.Unauthorized("authentication required"))
	}
	matchID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req models.ChatMessageRequest
	if ok, err := parseBody(c, h.validator, &req); !ok {
		return err
	}

	msg, err := h.chat.Send(c.UserContext(), matchID, senderID, req.Content)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(msg)
}
