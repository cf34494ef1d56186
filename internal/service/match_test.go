package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/models"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/repository"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo is an in-memory stand-in for the relational store
type fakeRepo struct {
	courts   map[uint]models.Court
	matches  map[uint]*models.Match
	messages []models.ChatMessage
	nextID   uint
	saveErr  error
	pingErr  error
	saved    int
}

func newFakeRepo(courts ...models.Court) *fakeRepo {
	r := &fakeRepo{
		courts:  make(map[uint]models.Court),
		matches: make(map[uint]*models.Match),
		nextID:  1,
	}
	for _, c := range courts {
		r.courts[c.ID] = c
	}
	return r
}

func (r *fakeRepo) CreateMatch(_ context.Context, m *models.Match) error {
	m.ID = r.nextID
	r.nextID++
	m.CreatedAt = fixedNow
	cp := *m
	r.matches[m.ID] = &cp
	return nil
}

func (r *fakeRepo) GetMatch(_ context.Context, id uint) (*models.Match, error) {
	m, ok := r.matches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	cp.Court = r.courts[m.CourtID]
	return &cp, nil
}

func (r *fakeRepo) UpdateMatchStatus(_ context.Context, id uint, status models.MatchStatus) error {
	m, ok := r.matches[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.Status = status
	return nil
}

func (r *fakeRepo) GetCourt(_ context.Context, id uint) (*models.Court, error) {
	c, ok := r.courts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *fakeRepo) SearchCourts(_ context.Context, _ string, limit int) ([]models.Court, error) {
	var out []models.Court
	for id := uint(1); id <= uint(len(r.courts)); id++ {
		out = append(out, r.courts[id])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRepo) SaveChatMessage(_ context.Context, msg *models.ChatMessage) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved++
	r.messages = append([]models.ChatMessage{*msg}, r.messages...)
	return nil
}

func (r *fakeRepo) ListChatMessages(_ context.Context, matchID uint, limit int) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	for _, m := range r.messages {
		if m.MatchID == matchID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRepo) Ping(context.Context) error {
	return r.pingErr
}

type fakeFeed struct {
	version int64
	err     error
	pingErr error
}

func (f *fakeFeed) BumpMatchFeedVersion(context.Context) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.version++
	return f.version, nil
}

func (f *fakeFeed) Ping(context.Context) error {
	return f.pingErr
}

func newTestMatchService(repo *fakeRepo, feed *fakeFeed) *MatchService {
	s := NewMatchService(repo, feed, kst)
	s.now = func() time.Time { return fixedNow }
	return s
}

func validCreateRequest() models.CreateMatchRequest {
	start := fixedNow.Add(48 * time.Hour)
	return models.CreateMatchRequest{
		CourtID:        1,
		StartDateTime:  models.NewLocalDateTime(start),
		EndDateTime:    models.NewLocalDateTime(start.Add(2 * time.Hour)),
		GameType:       "mixed_doubles",
		Fee:            5000,
		AgeRange:       []string{models.AgeThirties},
		Period:         []string{models.PeriodUnder3Y},
		PlayerCountMen: 1,
		Description:    "friendly",
	}
}

func TestMatchService_Create(t *testing.T) {
	repo := newFakeRepo(models.Court{ID: 1, Name: "Olympic Park", Latitude: 37.52, Longitude: 127.12})
	feed := &fakeFeed{}
	svc := newTestMatchService(repo, feed)

	got, err := svc.Create(context.Background(), 7, validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, uint(1), got.MatchID)
	assert.Equal(t, uint(7), got.HostID)
	assert.Equal(t, models.GameTypeMixedDoubles, got.GameType)
	assert.Equal(t, "OPEN", got.Status)
	assert.Equal(t, "Olympic Park", got.Court.Name)
	assert.Equal(t, []string{models.AgeThirties}, got.AgeRange)
	assert.Equal(t, int64(1), feed.version)

	stored := repo.matches[1]
	assert.Equal(t, models.StatusRecruiting, stored.Status)
	assert.True(t, stored.MatchStartDateTime.Equal(fixedNow.Add(48*time.Hour)))
}

func TestMatchService_CreateRejects(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(r *models.CreateMatchRequest)
		wantCode string
	}{
		{"end before start", func(r *models.CreateMatchRequest) {
			r.EndDateTime = models.NewLocalDateTime(r.StartDateTime.Add(-time.Hour))
		}, apperrors.CodeValidation},
		{"start in the past", func(r *models.CreateMatchRequest) {
			r.StartDateTime = models.NewLocalDateTime(fixedNow.Add(-time.Hour))
		}, apperrors.CodeValidation},
		{"missing start", func(r *models.CreateMatchRequest) {
			r.StartDateTime = models.LocalDateTime{}
		}, apperrors.CodeValidation},
		{"unknown game type", func(r *models.CreateMatchRequest) { r.GameType = "TRIPLES" }, apperrors.CodeValidation},
		{"unknown age range", func(r *models.CreateMatchRequest) { r.AgeRange = []string{"TEENS"} }, apperrors.CodeValidation},
		{"unknown court", func(r *models.CreateMatchRequest) { r.CourtID = 99 }, apperrors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo(models.Court{ID: 1, Name: "Olympic Park"})
			feed := &fakeFeed{}
			svc := newTestMatchService(repo, feed)

			req := validCreateRequest()
			tt.mutate(&req)
			_, err := svc.Create(context.Background(), 7, req)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.From(err).Code)
			assert.Empty(t, repo.matches)
			assert.Zero(t, feed.version)
		})
	}
}

func TestMatchService_CreateSurvivesFeedFailure(t *testing.T) {
	repo := newFakeRepo(models.Court{ID: 1, Name: "Olympic Park"})
	svc := newTestMatchService(repo, &fakeFeed{err: errors.New("redis down")})

	got, err := svc.Create(context.Background(), 7, validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, uint(1), got.MatchID)
}

func TestMatchService_Close(t *testing.T) {
	repo := newFakeRepo(models.Court{ID: 1, Name: "Olympic Park"})
	feed := &fakeFeed{}
	svc := newTestMatchService(repo, feed)
	ctx := context.Background()

	created, err := svc.Create(ctx, 7, validCreateRequest())
	require.NoError(t, err)

	_, err = svc.Close(ctx, 8, created.MatchID)
	assert.ErrorIs(t, err, apperrors.Forbidden(""))

	closed, err := svc.Close(ctx, 7, created.MatchID)
	require.NoError(t, err)
	assert.Equal(t, "CLOSED", closed.Status)
	assert.Equal(t, models.StatusCompleted, repo.matches[created.MatchID].Status)
	assert.Equal(t, int64(2), feed.version)

	_, err = svc.Close(ctx, 7, created.MatchID)
	assert.Equal(t, apperrors.CodeInvalidStatus, apperrors.From(err).Code)

	_, err = svc.Close(ctx, 7, 404)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.From(err).Code)
}

func TestMatchService_Get(t *testing.T) {
	repo := newFakeRepo(models.Court{ID: 1, Name: "Olympic Park"})
	svc := newTestMatchService(repo, &fakeFeed{})
	ctx := context.Background()

	created, err := svc.Create(ctx, 7, validCreateRequest())
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.MatchID)
	require.NoError(t, err)
	assert.Equal(t, "friendly", got.Description)
	assert.Equal(t, uint(1), got.Court.ID)

	_, err = svc.Get(ctx, 99)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.From(err).Code)
}

func TestMatchService_HealthCheck(t *testing.T) {
	repo := newFakeRepo()
	feed := &fakeFeed{}
	svc := newTestMatchService(repo, feed)

	assert.NoError(t, svc.HealthCheck(context.Background()))

	feed.pingErr = errors.New("connection refused")
	assert.ErrorContains(t, svc.HealthCheck(context.Background()), "redis unhealthy")

	repo.pingErr = errors.New("connection refused")
	assert.ErrorContains(t, svc.HealthCheck(context.Background()), "database unhealthy")
}
