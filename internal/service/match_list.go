package service

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/models"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/pkg/apperrors"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/pkg/logger"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	defaultRadiusKm = 25

	// Normalizer for the distance part of the recommendation score, independent of the request radius
	recommendDistanceKm = 25.0
	recommendHorizonMin = 24 * 60.0
	recommendTimeWeight = 0.7
	recommendDistWeight = 0.3

	dateLayout = "2006-01-02"
)

// farFutureDate stands in for an open-ended search window
var farFutureDate = time.Date(2999, 12, 31, 0, 0, 0, 0, time.UTC)

// MatchStore returns matches starting within [from, to], optionally narrowed
// by game type, with one of the given statuses. Court must be loaded.
type MatchStore interface {
	FindMatchesForSearch(ctx context.Context, from, to time.Time, gameType *models.GameType, statuses []models.MatchStatus) ([]models.Match, error)
}

// SearchOptions configures MatchListService
type SearchOptions struct {
	Location          *time.Location
	FallbackLatitude  float64
	FallbackLongitude float64
	// RestartOnExhaustedCursor returns the whole result list instead of an
	// empty page when a cursor lies past the last result.
	RestartOnExhaustedCursor bool
}

// MatchListService searches matches and pages through them with keyset cursors.
// It keeps no state between calls.
type MatchListService struct {
	store MatchStore
	opts  SearchOptions
	now   func() time.Time
}

// NewMatchListService creates a new match list service
func NewMatchListService(store MatchStore, opts SearchOptions) *MatchListService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &MatchListService{
		store: store,
		opts:  opts,
		now:   time.Now,
	}
}

// WithClock replaces the time source, used by tests
func (s *MatchListService) WithClock(now func() time.Time) *MatchListService {
	s.now = now
	return s
}

// rankedMatch is a candidate with the metrics computed for one search call
type rankedMatch struct {
	match      *models.Match
	distanceKm float64
	score      float64
}

// searchQuery is a normalized, validated search request
type searchQuery struct {
	mode     SortMode
	size     int
	radiusKm float64
	from     time.Time
	to       time.Time
	gameType *models.GameType
	statuses []models.MatchStatus
	refLat   float64
	refLon   float64
	cursor   Cursor
}

// Search returns one page of matches for req
func (s *MatchListService) Search(ctx context.Context, req models.MatchSearchRequest) (*models.MatchListResponse, error) {
	now := s.now()

	q, err := s.normalize(req, now)
	if err != nil {
		return nil, err
	}

	candidates, err := s.store.FindMatchesForSearch(ctx, q.from, q.to, q.gameType, q.statuses)
	if err != nil {
		return nil, err
	}

	ranked := make([]*rankedMatch, 0, len(candidates))
	for i := range candidates {
		m := &candidates[i]
		r := &rankedMatch{
			match:      m,
			distanceKm: HaversineKm(q.refLat, q.refLon, m.Court.Latitude, m.Court.Longitude),
		}
		if r.distanceKm > q.radiusKm {
			continue
		}
		if q.mode == SortRecommend {
			r.score = recommendScore(now, m.MatchStartDateTime, r.distanceKm)
		}
		ranked = append(ranked, r)
	}

	slices.SortFunc(ranked, func(a, b *rankedMatch) int {
		return compareRanked(q.mode, a, b)
	})

	if q.cursor != nil {
		ranked = s.cutAfter(q.mode, ranked, q.cursor.probe())
	}

	hasNext := len(ranked) > q.size
	page := ranked
	if hasNext {
		page = ranked[:q.size]
	}

	resp := &models.MatchListResponse{
		Matches: make([]models.MatchListItem, 0, len(page)),
		Size:    len(page),
		HasNext: hasNext,
	}
	for _, r := range page {
		resp.Matches = append(resp.Matches, r.match.ListItem(s.opts.Location))
	}

	if hasNext {
		next, err := EncodeCursor(cursorFor(q.mode, page[len(page)-1]))
		if err != nil {
			return nil, fmt.Errorf("failed to encode cursor: %w", err)
		}
		resp.Cursor = &next
	}

	logger.Debug("match search",
		"sort", q.mode,
		"candidates", len(candidates),
		"in_radius", len(ranked),
		"returned", len(page),
		"has_next", hasNext,
	)

	return resp, nil
}

// cutAfter keeps the elements strictly after the cursor position
func (s *MatchListService) cutAfter(mode SortMode, ranked []*rankedMatch, probe *rankedMatch) []*rankedMatch {
	for i, r := range ranked {
		if compareRanked(mode, r, probe) > 0 {
			return ranked[i:]
		}
	}
	if s.opts.RestartOnExhaustedCursor {
		return ranked
	}
	return nil
}

// compareRanked orders by the mode's key ascending, then id ascending
func compareRanked(mode SortMode, a, b *rankedMatch) int {
	var c int
	switch mode {
	case SortLatest:
		c = a.match.MatchStartDateTime.Compare(b.match.MatchStartDateTime)
	case SortDistance:
		c = cmp.Compare(a.distanceKm, b.distanceKm)
	case SortRecommend:
		c = cmp.Compare(a.score, b.score)
	default:
		c = a.match.CreatedAt.Compare(b.match.CreatedAt)
	}
	if c != 0 {
		return c
	}
	return cmp.Compare(a.match.ID, b.match.ID)
}

// recommendScore blends time until start and distance; lower ranks first
func recommendScore(now, start time.Time, distanceKm float64) float64 {
	minutesUntil := math.Max(0, math.Trunc(start.Sub(now).Minutes()))
	timeScore := math.Min(minutesUntil/recommendHorizonMin, 1)
	distanceScore := math.Min(distanceKm/recommendDistanceKm, 1)
	return recommendTimeWeight*timeScore + recommendDistWeight*distanceScore
}

func (s *MatchListService) normalize(req models.MatchSearchRequest, now time.Time) (*searchQuery, error) {
	loc := s.opts.Location
	q := &searchQuery{}

	q.mode = SortCreatedAt
	if sort := strings.TrimSpace(req.Sort); sort != "" {
		mode, ok := parseSortMode(sort)
		if !ok {
			return nil, apperrors.InvalidSearchParameter("unknown sort %q", sort)
		}
		q.mode = mode
	}

	q.size = req.Size
	if q.size <= 0 {
		q.size = defaultPageSize
	}
	if q.size > maxPageSize {
		q.size = maxPageSize
	}

	today := now.In(loc)
	startDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
	if req.StartDate != "" {
		d, err := time.ParseInLocation(dateLayout, req.StartDate, loc)
		if err != nil {
			return nil, apperrors.InvalidSearchParameter("startDate must be yyyy-MM-dd, got %q", req.StartDate)
		}
		startDate = d
	}
	endDate := time.Date(farFutureDate.Year(), farFutureDate.Month(), farFutureDate.Day(), 0, 0, 0, 0, loc)
	if req.EndDate != "" {
		d, err := time.ParseInLocation(dateLayout, req.EndDate, loc)
		if err != nil {
			return nil, apperrors.InvalidSearchParameter("endDate must be yyyy-MM-dd, got %q", req.EndDate)
		}
		endDate = d
	}
	if startDate.After(endDate) {
		return nil, apperrors.InvalidSearchParameter("startDate %s is after endDate %s",
			startDate.Format(dateLayout), endDate.Format(dateLayout))
	}

	startHour, endHour := 0, 24
	if req.StartTime != nil {
		startHour = *req.StartTime
	}
	if req.EndTime != nil {
		endHour = *req.EndTime
	}
	if startHour < 0 || startHour > 23 {
		return nil, apperrors.InvalidSearchParameter("startTime must be in [0,23], got %d", startHour)
	}
	if endHour < 1 || endHour > 24 {
		return nil, apperrors.InvalidSearchParameter("endTime must be in [1,24], got %d", endHour)
	}
	if startHour >= endHour {
		return nil, apperrors.InvalidSearchParameter("startTime %d must be before endTime %d", startHour, endHour)
	}

	q.from = time.Date(startDate.Year(), startDate.Month(), startDate.Day(), startHour, 0, 0, 0, loc)
	if endHour == 24 {
		q.to = time.Date(endDate.Year(), endDate.Month(), endDate.Day(), 23, 59, 0, 0, loc)
	} else {
		q.to = time.Date(endDate.Year(), endDate.Month(), endDate.Day(), endHour, 0, 0, 0, loc)
	}
	if q.from.Before(now) {
		q.from = now
	}

	if gt := strings.TrimSpace(req.GameType); gt != "" {
		gameType, err := models.ParseGameType(gt)
		if err != nil {
			return nil, apperrors.InvalidSearchParameter("unknown gameType %q", gt)
		}
		q.gameType = &gameType
	}

	statuses, err := parseStatuses(req.Status)
	if err != nil {
		return nil, err
	}
	q.statuses = statuses

	switch {
	case req.Latitude != nil && req.Longitude != nil:
		q.refLat, q.refLon = *req.Latitude, *req.Longitude
	case q.mode == SortDistance:
		return nil, apperrors.InvalidSearchParameter("latitude and longitude are required for distance sort")
	case req.Latitude == nil && req.Longitude == nil:
		q.refLat, q.refLon = s.opts.FallbackLatitude, s.opts.FallbackLongitude
	default:
		return nil, apperrors.InvalidSearchParameter("latitude and longitude must be given together")
	}

	q.radiusKm = float64(req.Radius)
	if req.Radius <= 0 {
		q.radiusKm = defaultRadiusKm
	}

	if c := strings.TrimSpace(req.Cursor); c != "" {
		cursor, err := DecodeCursor(c, q.mode)
		if err != nil {
			return nil, err
		}
		q.cursor = cursor
	}

	return q, nil
}

func parseSortMode(s string) (SortMode, bool) {
	for _, m := range []SortMode{SortCreatedAt, SortLatest, SortDistance, SortRecommend} {
		if strings.EqualFold(s, string(m)) {
			return m, true
		}
	}
	return "", false
}

func parseStatuses(raw string) ([]models.MatchStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return []models.MatchStatus{models.StatusRecruiting}, nil
	}

	var statuses []models.MatchStatus
	for _, token := range strings.Split(raw, ",") {
		if strings.TrimSpace(token) == "" {
			continue
		}
		st, err := models.ParseMatchStatus(token)
		if err != nil {
			return nil, apperrors.InvalidSearchParameter("unknown status %q", strings.TrimSpace(token))
		}
		if !slices.Contains(statuses, st) {
			statuses = append(statuses, st)
		}
	}
	if len(statuses) == 0 {
		return []models.MatchStatus{models.StatusRecruiting}, nil
	}
	return statuses, nil
}
