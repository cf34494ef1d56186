package handlers

import (
	"context"
	"math"
	"strconv"

	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/api/middleware"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/models"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/pkg/apperrors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// MatchSearcher runs match searches
type MatchSearcher interface {
	Search(ctx context.Context, req models.MatchSearchRequest) (*models.MatchListResponse, error)
}

// MatchManager creates, reads and closes matches
type MatchManager interface {
	Create(ctx context.Context, hostID uint, req models.CreateMatchRequest) (*models.MatchDetailResponse, error)
	Get(ctx context.Context, id uint) (*models.MatchDetailResponse, error)
	Close(ctx context.Context, callerID, id uint) (*models.MatchDetailResponse, error)
}

// MatchHandler handles HTTP requests for matches
type MatchHandler struct {
	search    MatchSearcher
	matches   MatchManager
	validator *validator.Validate
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(search MatchSearcher, matches MatchManager) *MatchHandler {
	return &MatchHandler{
		search:    search,
		matches:   matches,
		validator: validator.New(),
	}
}

// Search handles GET /api/v1/matches
// @Summary Search matches
// @Description Lists recruiting matches in a date and hour window, sorted and paged by cursor
// @Produce json
// @Param sort query string false "createdAt, latest, distance or recommend" default(createdAt)
// @Param startDate query string false "yyyy-MM-dd, defaults to today"
// @Param endDate query string false "yyyy-MM-dd" default(2999-12-31)
// @Param startTime query int false "Start hour 0-23" default(0)
// @Param endTime query int false "End hour 1-24" default(24)
// @Param gameType query string false "Game type"
// @Param status query string false "Comma separated statuses" default(RECRUITING)
// @Param latitude query number false "Reference latitude"
// @Param longitude query number false "Reference longitude"
// @Param radius query int false "Radius in km" default(25)
// @Param size query int false "Page size, at most 100" default(10)
// @Param cursor query string false "Cursor from the previous page"
// @Success 200 {object} models.MatchListResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/matches [get]
func (h *MatchHandler) Search(c *fiber.Ctx) error {
	req, err := searchRequestFromQuery(c)
	if err != nil {
		return writeError(c, err)
	}

	resp, err := h.search.Search(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// Create handles POST /api/v1/matches
// @Summary Create a match
// @Accept json
// @Produce json
// @Param request body models.CreateMatchRequest true "Match to create"
// @Success 201 {object} models.MatchDetailResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/matches [post]
func (h *MatchHandler) Create(c *fiber.Ctx) error {
	hostID, ok := middleware.UserID(c)
	if !ok {
		return writeError(c, apperrors.Unauthorized("authentication required"))
	}

	var req models.CreateMatchRequest
	if ok, err := parseBody(c, h.validator, &req); !ok {
		return err
	}

	match, err := h.matches.Create(c.UserContext(), hostID, req)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(match)
}

// Get handles GET /api/v1/matches/:id
// @Summary Get a match
// @Produce json
// @Param id path int true "Match id"
// @Success 200 {object} models.MatchDetailResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/matches/{id} [get]
func (h *MatchHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	match, err := h.matches.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(match)
}

// Close handles PATCH /api/v1/matches/:id/close
// @Summary Close recruiting for a match
// @Produce json
// @Param id path int true "Match id"
// @Success 200 {object} models.MatchDetailResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/v1/matches/{id}/close [patch]
func (h *MatchHandler) Close(c *fiber.Ctx) error {
	callerID, ok := middleware.UserID(c)
	if !ok {
		return writeError(c, apperrors.Unauthorized("authentication required"))
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	match, err := h.matches.Close(c.UserContext(), callerID, id)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(match)
}

// searchRequestFromQuery reads the search query string.
// Numbers that fail to parse are search parameter errors, not defaults.
func searchRequestFromQuery(c *fiber.Ctx) (models.MatchSearchRequest, error) {
	req := models.MatchSearchRequest{
		Sort:      c.Query("sort"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		GameType:  c.Query("gameType"),
		Status:    c.Query("status"),
		Cursor:    c.Query("cursor"),
	}

	var err error
	if req.StartTime, err = queryInt(c, "startTime"); err != nil {
		return req, err
	}
	if req.EndTime, err = queryInt(c, "endTime"); err != nil {
		return req, err
	}
	if req.Latitude, err = queryFloat(c, "latitude"); err != nil {
		return req, err
	}
	if req.Longitude, err = queryFloat(c, "longitude"); err != nil {
		return req, err
	}

	radius, err := queryInt(c, "radius")
	if err != nil {
		return req, err
	}
	if radius != nil {
		req.Radius = *radius
	}
	size, err := queryInt(c, "size")
	if err != nil {
		return req, err
	}
	if size != nil {
		req.Size = *size
	}

	return req, nil
}

func queryInt(c *fiber.Ctx, key string) (*int, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperrors.InvalidSearchParameter("%s must be an integer", key)
	}
	return &v, nil
}

func queryFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, apperrors.InvalidSearchParameter("%s must be a number", key)
	}
	return &v, nil
}
