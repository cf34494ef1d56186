package service

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/models"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/pkg/apperrors"
)

// SortMode selects the ordering of match search results
type SortMode string

const (
	SortCreatedAt SortMode = "createdAt"
	SortLatest    SortMode = "latest"
	SortDistance  SortMode = "distance"
	SortRecommend SortMode = "recommend"
)

// Cursor marks the last element of a page under one sort mode.
// Implementations are CreatedAtCursor, LatestCursor, DistanceCursor and RecommendCursor.
type Cursor interface {
	Sort() SortMode
	// probe returns a ranked match holding only the fields the mode orders by
	probe() *rankedMatch
}

type CreatedAtCursor struct {
	CreatedAt time.Time
	ID        uint
}

type LatestCursor struct {
	MatchStartDateTime time.Time
	ID                 uint
}

type DistanceCursor struct {
	Distance float64
	ID       uint
}

type RecommendCursor struct {
	Score float64
	ID    uint
}

func (CreatedAtCursor) Sort() SortMode { return SortCreatedAt }
func (LatestCursor) Sort() SortMode    { return SortLatest }
func (DistanceCursor) Sort() SortMode  { return SortDistance }
func (RecommendCursor) Sort() SortMode { return SortRecommend }

func (c CreatedAtCursor) probe() *rankedMatch {
	return &rankedMatch{match: &models.Match{ID: c.ID, CreatedAt: c.CreatedAt}}
}

func (c LatestCursor) probe() *rankedMatch {
	return &rankedMatch{match: &models.Match{ID: c.ID, MatchStartDateTime: c.MatchStartDateTime}}
}

func (c DistanceCursor) probe() *rankedMatch {
	return &rankedMatch{match: &models.Match{ID: c.ID}, distanceKm: c.Distance}
}

func (c RecommendCursor) probe() *rankedMatch {
	return &rankedMatch{match: &models.Match{ID: c.ID}, score: c.Score}
}

// cursorFor builds the cursor pointing at r under mode
func cursorFor(mode SortMode, r *rankedMatch) Cursor {
	switch mode {
	case SortLatest:
		return LatestCursor{MatchStartDateTime: r.match.MatchStartDateTime, ID: r.match.ID}
	case SortDistance:
		return DistanceCursor{Distance: r.distanceKm, ID: r.match.ID}
	case SortRecommend:
		return RecommendCursor{Score: r.score, ID: r.match.ID}
	default:
		return CreatedAtCursor{CreatedAt: r.match.CreatedAt, ID: r.match.ID}
	}
}

// cursorPayload is the wire form; only the field of the tagged mode is set
type cursorPayload struct {
	Sort               SortMode   `json:"sort"`
	CreatedAt          *time.Time `json:"createdAt,omitempty"`
	MatchStartDateTime *time.Time `json:"matchStartDateTime,omitempty"`
	Distance           *float64   `json:"distance,omitempty"`
	Score              *float64   `json:"score,omitempty"`
	ID                 uint       `json:"id"`
}

// EncodeCursor serializes c as base64 of its JSON payload
func EncodeCursor(c Cursor) (string, error) {
	p := cursorPayload{Sort: c.Sort()}
	switch v := c.(type) {
	case CreatedAtCursor:
		p.CreatedAt, p.ID = &v.CreatedAt, v.ID
	case LatestCursor:
		p.MatchStartDateTime, p.ID = &v.MatchStartDateTime, v.ID
	case DistanceCursor:
		p.Distance, p.ID = &v.Distance, v.ID
	case RecommendCursor:
		p.Score, p.ID = &v.Score, v.ID
	}

	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// DecodeCursor parses a cursor produced by EncodeCursor.
// The result must be replayed under the sort mode it carries.
func DecodeCursor(s string, mode SortMode) (Cursor, error) {
	raw, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		// Standard alphabet from clients that re-encoded the token
		if raw, err = base64.StdEncoding.DecodeString(s); err != nil {
			return nil, apperrors.InvalidSearchParameter("cursor is not valid base64")
		}
	}

	var p cursorPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, apperrors.InvalidSearchParameter("cursor payload is malformed")
	}
	if p.Sort != mode {
		return nil, apperrors.InvalidSearchParameter("cursor was issued for sort %q, not %q", p.Sort, mode)
	}
	if p.ID == 0 {
		return nil, apperrors.InvalidSearchParameter("cursor is missing id")
	}

	switch p.Sort {
	case SortCreatedAt:
		if p.CreatedAt != nil {
			return CreatedAtCursor{CreatedAt: *p.CreatedAt, ID: p.ID}, nil
		}
	case SortLatest:
		if p.MatchStartDateTime != nil {
			return LatestCursor{MatchStartDateTime: *p.MatchStartDateTime, ID: p.ID}, nil
		}
	case SortDistance:
		if p.Distance != nil {
			return DistanceCursor{Distance: *p.Distance, ID: p.ID}, nil
		}
	case SortRecommend:
		if p.Score != nil {
			return RecommendCursor{Score: *p.Score, ID: p.ID}, nil
		}
	}
	return nil, apperrors.InvalidSearchParameter("cursor is missing its %s key", p.Sort)
}
