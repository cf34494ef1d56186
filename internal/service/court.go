package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/models"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/repository"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/pkg/apperrors"
)

const (
	defaultCourtLimit = 20
	maxCourtLimit     = 100
)

// CourtRepository is the court catalogue
type CourtRepository interface {
	GetCourt(ctx context.Context, id uint) (*models.Court, error)
	SearchCourts(ctx context.Context, keyword string, limit int) ([]models.Court, error)
}

// CourtService searches the court catalogue
type CourtService struct {
	repo CourtRepository
}

func NewCourtService(repo CourtRepository) *CourtService {
	return &CourtService{repo: repo}
}

// Search finds courts by keyword. With a reference point the results carry
// their distance and are ordered nearest first.
func (s *CourtService) Search(ctx context.Context, keyword string, lat, lon *float64, limit int) ([]models.CourtResponse, error) {
	if limit <= 0 {
		limit = defaultCourtLimit
	}
	if limit > maxCourtLimit {
		limit = maxCourtLimit
	}
	if (lat == nil) != (lon == nil) {
		return nil, apperrors.Validation("latitude and longitude must be given together")
	}

	if lat == nil {
		courts, err := s.repo.SearchCourts(ctx, keyword, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to search courts: %w", err)
		}
		out := make([]models.CourtResponse, 0, len(courts))
		for i := range courts {
			out = append(out, courts[i].Response())
		}
		return out, nil
	}

	courts, err := s.repo.SearchCourts(ctx, keyword, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to search courts: %w", err)
	}

	out := make([]models.CourtResponse, 0, len(courts))
	for i := range courts {
		r := courts[i].Response()
		d := HaversineKm(*lat, *lon, r.Latitude, r.Longitude)
		r.DistanceKm = &d
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b models.CourtResponse) int {
		if c := cmp.Compare(*a.DistanceKm, *b.DistanceKm); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *CourtService) Get(ctx context.Context, id uint) (*models.CourtResponse, error) {
	court, err := s.repo.GetCourt(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound(fmt.Sprintf("court %d not found", id))
		}
		return nil, fmt.Errorf("failed to load court: %w", err)
	}
	r := court.Response()
	return &r, nil
}
