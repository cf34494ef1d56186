package service

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/models"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	kst      = time.FixedZone("KST", 9*3600)
	fixedNow = time.Date(2025, 5, 1, 9, 0, 0, 0, kst)
	refLat   = 37.50
	refLon   = 127.03
)

// kmPerDegreeLat is the length of one degree of latitude on the haversine sphere
const kmPerDegreeLat = earthRadiusKm * math.Pi / 180

type fakeMatchStore struct {
	matches      []models.Match
	err          error
	calls        int
	lastFrom     time.Time
	lastTo       time.Time
	lastGameType *models.GameType
	lastStatuses []models.MatchStatus
}

func (f *fakeMatchStore) FindMatchesForSearch(_ context.Context, from, to time.Time, gameType *models.GameType, statuses []models.MatchStatus) ([]models.Match, error) {
	f.calls++
	f.lastFrom, f.lastTo, f.lastGameType, f.lastStatuses = from, to, gameType, statuses
	if f.err != nil {
		return nil, f.err
	}

	var out []models.Match
	for _, m := range f.matches {
		if m.MatchStartDateTime.Before(from) || m.MatchStartDateTime.After(to) {
			continue
		}
		if gameType != nil && m.GameType != *gameType {
			continue
		}
		if !slices.Contains(statuses, m.Status) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// matchAt builds a recruiting match north of the reference point at distanceKm
func matchAt(id uint, distanceKm float64, startIn, createdAgo time.Duration) models.Match {
	start := fixedNow.Add(startIn)
	return models.Match{
		ID:                 id,
		HostID:             100 + id,
		CourtID:            id,
		Court:              models.Court{ID: id, Latitude: refLat + distanceKm/kmPerDegreeLat, Longitude: refLon},
		MatchStartDateTime: start,
		MatchEndDateTime:   start.Add(2 * time.Hour),
		CreatedAt:          fixedNow.Add(-createdAgo),
		GameType:           models.GameTypeSingles,
		Status:             models.StatusRecruiting,
	}
}

func newTestService(store MatchStore, restart bool) *MatchListService {
	return NewMatchListService(store, SearchOptions{
		Location:                 kst,
		FallbackLatitude:         refLat,
		FallbackLongitude:        refLon,
		RestartOnExhaustedCursor: restart,
	}).WithClock(func() time.Time { return fixedNow })
}

func ptr[T any](v T) *T { return &v }

func ids(resp *models.MatchListResponse) []uint {
	out := make([]uint, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		out = append(out, m.MatchID)
	}
	return out
}

func TestSearch_DistanceScenario(t *testing.T) {
	store := &fakeMatchStore{matches: []models.Match{
		matchAt(5, 8.0, 5*time.Hour, time.Hour),
		matchAt(3, 4.9, 5*time.Hour, time.Hour),
		matchAt(1, 1.2, 5*time.Hour, time.Hour),
		matchAt(4, 6.1, 5*time.Hour, time.Hour),
		matchAt(2, 3.0, 5*time.Hour, time.Hour),
	}}
	svc := newTestService(store, false)

	req := models.MatchSearchRequest{
		Sort:      "distance",
		Latitude:  ptr(refLat),
		Longitude: ptr(refLon),
		Radius:    5,
		Size:      2,
	}
	resp, err := svc.Search(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []uint{1, 2}, ids(resp))
	assert.True(t, resp.HasNext)
	assert.Equal(t, 2, resp.Size)
	require.NotNil(t, resp.Cursor)

	c, err := DecodeCursor(*resp.Cursor, SortDistance)
	require.NoError(t, err)
	dc, ok := c.(DistanceCursor)
	require.True(t, ok)
	assert.Equal(t, uint(2), dc.ID)
	assert.InDelta(t, 3.0, dc.Distance, 1e-6)

	req.Cursor = *resp.Cursor
	resp, err = svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []uint{3}, ids(resp))
	assert.False(t, resp.HasNext)
	assert.Nil(t, resp.Cursor)
}

func TestSearch_DefaultStatusIsRecruiting(t *testing.T) {
	completed := matchAt(2, 1, 3*time.Hour, time.Hour)
	completed.Status = models.StatusCompleted
	store := &fakeMatchStore{matches: []models.Match{matchAt(1, 1, 3*time.Hour, time.Hour), completed}}

	resp, err := newTestService(store, false).Search(context.Background(), models.MatchSearchRequest{})
	require.NoError(t, err)

	assert.Equal(t, []models.MatchStatus{models.StatusRecruiting}, store.lastStatuses)
	assert.Equal(t, []uint{1}, ids(resp))
	assert.Equal(t, "OPEN", resp.Matches[0].Status)

	resp, err = newTestService(store, false).Search(context.Background(), models.MatchSearchRequest{Status: "RECRUITING, CLOSED"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{1, 2}, ids(resp))
}

func TestSearch_InvalidGameTypeSkipsStore(t *testing.T) {
	store := &fakeMatchStore{}

	_, err := newTestService(store, false).Search(context.Background(), models.MatchSearchRequest{GameType: "NOT_A_REAL_TYPE"})

	assert.ErrorIs(t, err, apperrors.ErrInvalidSearchParameter)
	assert.Equal(t, 0, store.calls)
}

func TestSearch_InvalidParameters(t *testing.T) {
	tests := []struct {
		name string
		req  models.MatchSearchRequest
	}{
		{"unknown sort", models.MatchSearchRequest{Sort: "popular"}},
		{"distance without latitude", models.MatchSearchRequest{Sort: "distance", Longitude: ptr(127.0)}},
		{"distance without coordinates", models.MatchSearchRequest{Sort: "distance"}},
		{"only latitude", models.MatchSearchRequest{Latitude: ptr(37.5)}},
		{"only longitude", models.MatchSearchRequest{Sort: "latest", Longitude: ptr(127.0)}},
		{"start after end", models.MatchSearchRequest{StartDate: "2025-05-10", EndDate: "2025-05-09"}},
		{"bad date format", models.MatchSearchRequest{StartDate: "05/10/2025"}},
		{"start hour too large", models.MatchSearchRequest{StartTime: ptr(24)}},
		{"negative start hour", models.MatchSearchRequest{StartTime: ptr(-1)}},
		{"end hour zero", models.MatchSearchRequest{EndTime: ptr(0)}},
		{"end hour too large", models.MatchSearchRequest{EndTime: ptr(25)}},
		{"equal hours", models.MatchSearchRequest{StartTime: ptr(10), EndTime: ptr(10)}},
		{"unknown status", models.MatchSearchRequest{Status: "RECRUITING,PENDING"}},
		{"malformed cursor", models.MatchSearchRequest{Cursor: "!!not-base64!!"}},
		{"cursor not json", models.MatchSearchRequest{Cursor: "bm90IGpzb24="}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeMatchStore{}
			_, err := newTestService(store, false).Search(context.Background(), tt.req)
			assert.ErrorIs(t, err, apperrors.ErrInvalidSearchParameter)
			assert.Equal(t, 0, store.calls)
		})
	}
}

func TestSearch_ZeroLongitudeIsValid(t *testing.T) {
	store := &fakeMatchStore{}

	_, err := newTestService(store, false).Search(context.Background(), models.MatchSearchRequest{
		Sort:      "distance",
		Latitude:  ptr(51.4779),
		Longitude: ptr(0.0),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
}

func TestSearch_TimeWindow(t *testing.T) {
	t.Run("last hour of the day", func(t *testing.T) {
		store := &fakeMatchStore{}
		_, err := newTestService(store, false).Search(context.Background(), models.MatchSearchRequest{
			StartDate: "2025-05-03",
			EndDate:   "2025-05-04",
			StartTime: ptr(23),
			EndTime:   ptr(24),
		})
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 5, 3, 23, 0, 0, 0, kst), store.lastFrom)
		assert.Equal(t, time.Date(2025, 5, 4, 23, 59, 0, 0, kst), store.lastTo)
	})

	t.Run("past start is clamped to now", func(t *testing.T) {
		store := &fakeMatchStore{}
		_, err := newTestService(store, false).Search(context.Background(), models.MatchSearchRequest{
			StartDate: "2025-04-01",
			EndDate:   "2025-05-02",
			EndTime:   ptr(18),
		})
		require.NoError(t, err)
		assert.True(t, store.lastFrom.Equal(fixedNow))
		assert.Equal(t, time.Date(2025, 5, 2, 18, 0, 0, 0, kst), store.lastTo)
	})

	t.Run("defaults to today without upper bound", func(t *testing.T) {
		store := &fakeMatchStore{}
		_, err := newTestService(store, false).Search(context.Background(), models.MatchSearchRequest{})
		require.NoError(t, err)
		assert.True(t, store.lastFrom.Equal(fixedNow))
		assert.Equal(t, 2999, store.lastTo.Year())
		assert.Nil(t, store.lastGameType)
	})
}

func TestSearch_GameTypeFilter(t *testing.T) {
	rally := matchAt(2, 1, 2*time.Hour, time.Hour)
	rally.GameType = models.GameTypeRally
	store := &fakeMatchStore{matches: []models.Match{matchAt(1, 1, 2*time.Hour, time.Hour), rally}}

	resp, err := newTestService(store, false).Search(context.Background(), models.MatchSearchRequest{GameType: "rally"})
	require.NoError(t, err)

	require.NotNil(t, store.lastGameType)
	assert.Equal(t, models.GameTypeRally, *store.lastGameType)
	assert.Equal(t, []uint{2}, ids(resp))
}

func TestSearch_SortOrders(t *testing.T) {
	// id, distance, starts in, created ago
	store := &fakeMatchStore{matches: []models.Match{
		matchAt(1, 20, 30*time.Hour, 1*time.Hour),
		matchAt(2, 2, 3*time.Hour, 5*time.Hour),
		matchAt(3, 10, 3*time.Hour, 3*time.Hour),
		matchAt(4, 2, 12*time.Hour, 5*time.Hour),
		matchAt(5, 30, 1*time.Hour, 9*time.Hour),
	}}
	svc := newTestService(store, false)

	tests := []struct {
		sort string
		want []uint
	}{
		// 5 is outside the default 25 km radius
		{"createdAt", []uint{2, 4, 3, 1}},
		{"", []uint{2, 4, 3, 1}},
		{"latest", []uint{2, 3, 4, 1}},
		{"distance", []uint{2, 4, 3, 1}},
		// scores: 2 -> 0.7*180/1440+0.3*2/25, 3 -> 0.0875+0.12, 4 -> 0.35+0.024, 1 -> 0.7+0.24
		{"recommend", []uint{2, 3, 4, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.sort, func(t *testing.T) {
			req := models.MatchSearchRequest{Sort: tt.sort}
			if tt.sort == "distance" {
				req.Latitude, req.Longitude = ptr(refLat), ptr(refLon)
			}
			resp, err := svc.Search(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(resp))
			assert.False(t, resp.HasNext)
		})
	}
}

func TestSearch_PaginationCoversEveryMatchOnce(t *testing.T) {
	var matches []models.Match
	for i := uint(1); i <= 11; i++ {
		// pairs of equal keys exercise the id tie-break
		d := float64((i+1)/2) * 1.5
		start := time.Duration((i+1)/2) * time.Hour
		created := time.Duration(12-(i+1)/2) * time.Minute
		matches = append(matches, matchAt(i, d, start, created))
	}
	store := &fakeMatchStore{matches: matches}
	svc := newTestService(store, false)

	for _, sort := range []string{"createdAt", "latest", "distance", "recommend"} {
		t.Run(sort, func(t *testing.T) {
			req := models.MatchSearchRequest{Sort: sort, Size: 3, Latitude: ptr(refLat), Longitude: ptr(refLon)}

			full, err := svc.Search(context.Background(), models.MatchSearchRequest{Sort: sort, Size: 100, Latitude: ptr(refLat), Longitude: ptr(refLon)})
			require.NoError(t, err)
			require.Len(t, full.Matches, 11)

			var seen []uint
			for pages := 0; pages < 10; pages++ {
				resp, err := svc.Search(context.Background(), req)
				require.NoError(t, err)
				seen = append(seen, ids(resp)...)
				if !resp.HasNext {
					assert.Nil(t, resp.Cursor)
					break
				}
				require.NotNil(t, resp.Cursor)
				req.Cursor = *resp.Cursor
			}

			assert.Equal(t, ids(full), seen)
		})
	}
}

func TestSearch_ExhaustedCursor(t *testing.T) {
	store := &fakeMatchStore{matches: []models.Match{
		matchAt(1, 1, time.Hour, 2*time.Hour),
		matchAt(2, 1, time.Hour, time.Hour),
	}}
	past, err := EncodeCursor(CreatedAtCursor{CreatedAt: fixedNow, ID: 99})
	require.NoError(t, err)

	// default: restart from the first page
	resp, err := newTestService(store, true).Search(context.Background(), models.MatchSearchRequest{Cursor: past})
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, ids(resp))
	assert.False(t, resp.HasNext)

	resp, err = newTestService(store, true).Search(context.Background(), models.MatchSearchRequest{Cursor: past, Size: 1})
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, ids(resp))
	assert.True(t, resp.HasNext)

	// opt-in: empty page
	resp, err = newTestService(store, false).Search(context.Background(), models.MatchSearchRequest{Cursor: past})
	require.NoError(t, err)
	assert.Empty(t, resp.Matches)
	assert.False(t, resp.HasNext)
	assert.Nil(t, resp.Cursor)
}

func TestSearch_PageSizeCapped(t *testing.T) {
	store := &fakeMatchStore{}
	for i := 1; i <= maxPageSize+5; i++ {
		store.matches = append(store.matches, matchAt(uint(i), 1, time.Hour, time.Duration(maxPageSize+10-i)*time.Minute))
	}

	resp, err := newTestService(store, true).Search(context.Background(), models.MatchSearchRequest{Size: 1_000_000})
	require.NoError(t, err)
	assert.Len(t, resp.Matches, maxPageSize)
	assert.Equal(t, maxPageSize, resp.Size)
	assert.True(t, resp.HasNext)
	require.NotNil(t, resp.Cursor)
}

func TestSearch_CursorSortMismatch(t *testing.T) {
	c, err := EncodeCursor(DistanceCursor{Distance: 3, ID: 2})
	require.NoError(t, err)

	_, err = newTestService(&fakeMatchStore{}, false).Search(context.Background(), models.MatchSearchRequest{
		Sort:   "recommend",
		Cursor: c,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidSearchParameter)
}

func TestSearch_Idempotent(t *testing.T) {
	store := &fakeMatchStore{matches: []models.Match{
		matchAt(1, 3, 2*time.Hour, time.Hour),
		matchAt(2, 1, 4*time.Hour, time.Hour),
		matchAt(3, 2, 6*time.Hour, time.Hour),
	}}
	svc := newTestService(store, false)
	req := models.MatchSearchRequest{Sort: "recommend", Size: 2}

	first, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Search(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSearch_StoreErrorPropagates(t *testing.T) {
	storeErr := errors.New("connection refused")

	_, err := newTestService(&fakeMatchStore{err: storeErr}, false).Search(context.Background(), models.MatchSearchRequest{})

	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, apperrors.ErrInvalidSearchParameter)
}

func TestRecommendScore(t *testing.T) {
	tests := []struct {
		name     string
		startIn  time.Duration
		distance float64
		want     float64
	}{
		{"half day half radius", 12 * time.Hour, 12.5, 0.5},
		{"already started", -time.Hour, 0, 0},
		{"caps both parts", 72 * time.Hour, 80, 1},
		{"partial minutes truncate", 90*time.Second + 14*time.Minute, 0, 0.7 * 15 / 1440},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recommendScore(fixedNow, fixedNow.Add(tt.startIn), tt.distance)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
