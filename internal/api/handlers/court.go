package handlers

import (
	"context"
	"strconv"

	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CourtFinder reads the court catalogue
type CourtFinder interface {
	Search(ctx context.Context, keyword string, lat, lon *float64, limit int) ([]models.CourtResponse, error)
	Get(ctx context.Context, id uint) (*models.CourtResponse, error)
}

// CourtHandler handles HTTP requests for courts
type CourtHandler struct {
	courts CourtFinder
}

func NewCourtHandler(courts CourtFinder) *CourtHandler {
	return &CourtHandler{courts: courts}
}

// Search handles GET /api/v1/courts
// @Summary Search courts
// @Produce json
// @Param keyword query string false "Substring of name or address"
// @Param latitude query number false "Reference latitude"
// @Param longitude query number false "Reference longitude"
// @Param limit query int false "Max results" default(20)
// @Success 200 {array} models.CourtResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/courts [get]
func (h *CourtHandler) Search(c *fiber.Ctx) error {
	lat, err := queryFloat(c, "latitude")
	if err != nil {
		return writeError(c, err)
	}
	lon, err := queryFloat(c, "longitude")
	if err != nil {
		return writeError(c, err)
	}

	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil {
		limit = 0
	}

	courts, err := h.courts.Search(c.UserContext(), c.Query("keyword"), lat, lon, limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"courts": courts,
		"size":   len(courts),
	})
}

// Get handles GET /api/v1/courts/:id
// @Summary Get a court
// @Produce json
// @Param id path int true "Court id"
// @Success 200 {object} models.CourtResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/courts/{id} [get]
func (h *CourtHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	court, err := h.courts.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(court)
}
