package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/models"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/repository"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/pkg/apperrors"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/pkg/logger"
)

// MatchRepository is the relational store used by MatchService
type MatchRepository interface {
	CreateMatch(ctx context.Context, match *models.Match) error
	GetMatch(ctx context.Context, id uint) (*models.Match, error)
	UpdateMatchStatus(ctx context.Context, id uint, status models.MatchStatus) error
	GetCourt(ctx context.Context, id uint) (*models.Court, error)
	Ping(ctx context.Context) error
}

// FeedNotifier publishes match feed changes
type FeedNotifier interface {
	BumpMatchFeedVersion(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// MatchService handles the match lifecycle
type MatchService struct {
	repo MatchRepository
	feed FeedNotifier
	loc  *time.Location
	now  func() time.Time
}

// NewMatchService creates a new match service
func NewMatchService(repo MatchRepository, feed FeedNotifier, loc *time.Location) *MatchService {
	if loc == nil {
		loc = time.Local
	}
	return &MatchService{
		repo: repo,
		feed: feed,
		loc:  loc,
		now:  time.Now,
	}
}

// Create opens a new recruiting match hosted by hostID
func (s *MatchService) Create(ctx context.Context, hostID uint, req models.CreateMatchRequest) (*models.MatchDetailResponse, error) {
	if req.StartDateTime.IsZero() || req.EndDateTime.IsZero() {
		return nil, apperrors.Validation("startDateTime and endDateTime are required")
	}
	start := req.StartDateTime.In(s.loc)
	end := req.EndDateTime.In(s.loc)
	if !end.After(start) {
		return nil, apperrors.Validation("endDateTime must be after startDateTime")
	}
	if !start.After(s.now()) {
		return nil, apperrors.Validation("startDateTime must be in the future")
	}

	gameType, err := models.ParseGameType(req.GameType)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	ageRange, err := models.ParseAgeRanges(req.AgeRange)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	period, err := models.ParsePeriods(req.Period)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	court, err := s.repo.GetCourt(ctx, req.CourtID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound(fmt.Sprintf("court %d not found", req.CourtID))
		}
		return nil, fmt.Errorf("failed to load court: %w", err)
	}

	match := &models.Match{
		HostID:             hostID,
		CourtID:            court.ID,
		MatchStartDateTime: start,
		MatchEndDateTime:   end,
		GameType:           gameType,
		Status:             models.StatusRecruiting,
		Fee:                req.Fee,
		AgeRange:           ageRange,
		Period:             period,
		PlayerCountMen:     req.PlayerCountMen,
		PlayerCountWomen:   req.PlayerCountWomen,
		Description:        req.Description,
	}
	if err := s.repo.CreateMatch(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	match.Court = *court

	s.notifyFeed(ctx, "created", match.ID)

	return s.detail(match), nil
}

// Get returns one match with its court
func (s *MatchService) Get(ctx context.Context, id uint) (*models.MatchDetailResponse, error) {
	match, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(match), nil
}

// Close stops recruiting; only the host may close a match
func (s *MatchService) Close(ctx context.Context, callerID, id uint) (*models.MatchDetailResponse, error) {
	match, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if match.HostID != callerID {
		return nil, apperrors.Forbidden("only the host can close this match")
	}
	if match.Status == models.StatusCompleted {
		return nil, apperrors.InvalidStatus("match is already closed")
	}

	if err := s.repo.UpdateMatchStatus(ctx, id, models.StatusCompleted); err != nil {
		return nil, fmt.Errorf("failed to close match: %w", err)
	}
	match.Status = models.StatusCompleted

	s.notifyFeed(ctx, "closed", match.ID)

	return s.detail(match), nil
}

// HealthCheck verifies the database and Redis are reachable
func (s *MatchService) HealthCheck(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("database unhealthy: %w", err)
	}
	if err := s.feed.Ping(ctx); err != nil {
		return fmt.Errorf("redis unhealthy: %w", err)
	}
	return nil
}

func (s *MatchService) load(ctx context.Context, id uint) (*models.Match, error) {
	match, err := s.repo.GetMatch(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound(fmt.Sprintf("match %d not found", id))
		}
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	return match, nil
}

// notifyFeed bumps the feed version; failures are logged only
func (s *MatchService) notifyFeed(ctx context.Context, event string, matchID uint) {
	version, err := s.feed.BumpMatchFeedVersion(ctx)
	if err != nil {
		logger.Warn("Failed to bump match feed version", "event", event, "match_id", matchID, "error", err)
		return
	}
	logger.Info("Match "+event, "match_id", matchID, "feed_version", version)
}

func (s *MatchService) detail(m *models.Match) *models.MatchDetailResponse {
	return &models.MatchDetailResponse{
		MatchListItem: m.ListItem(s.loc),
		Description:   m.Description,
		Court:         m.Court.Response(),
	}
}
