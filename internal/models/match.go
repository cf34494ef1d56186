package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// GameType is the match format
type GameType string

const (
	GameTypeSingles      GameType = "SINGLES"
	GameTypeMenDoubles   GameType = "MEN_DOUBLES"
	GameTypeWomenDoubles GameType = "WOMEN_DOUBLES"
	GameTypeMixedDoubles GameType = "MIXED_DOUBLES"
	GameTypeRally        GameType = "RALLY"
)

var gameTypes = []GameType{GameTypeSingles, GameTypeMenDoubles, GameTypeWomenDoubles, GameTypeMixedDoubles, GameTypeRally}

// ParseGameType accepts the enum name case-insensitively
func ParseGameType(s string) (GameType, error) {
	v := GameType(strings.ToUpper(strings.TrimSpace(s)))
	for _, g := range gameTypes {
		if g == v {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown game type %q", s)
}

// MatchStatus is the stored recruiting state of a match
type MatchStatus string

const (
	StatusRecruiting MatchStatus = "RECRUITING"
	StatusCompleted  MatchStatus = "COMPLETED"
)

// ParseMatchStatus accepts the stored names and their public aliases
func ParseMatchStatus(s string) (MatchStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RECRUITING", "OPEN":
		return StatusRecruiting, nil
	case "COMPLETED", "CLOSED":
		return StatusCompleted, nil
	}
	return "", fmt.Errorf("unknown match status %q", s)
}

// Public returns the name exposed to API clients
func (s MatchStatus) Public() string {
	switch s {
	case StatusRecruiting:
		return "OPEN"
	case StatusCompleted:
		return "CLOSED"
	}
	return string(s)
}

// Age and experience period brackets
const (
	AgeTwenties   = "TWENTIES"
	AgeThirties   = "THIRTIES"
	AgeForties    = "FORTIES"
	AgeFifties    = "FIFTIES"
	AgeSixtiesUp  = "SIXTIES_PLUS"
	PeriodUnder6M = "UNDER_6_MONTHS"
	PeriodUnder1Y = "UNDER_1_YEAR"
	PeriodUnder3Y = "UNDER_3_YEARS"
	PeriodUnder5Y = "UNDER_5_YEARS"
	PeriodOver5Y  = "OVER_5_YEARS"
)

var (
	ageRanges = []string{AgeTwenties, AgeThirties, AgeForties, AgeFifties, AgeSixtiesUp}
	periods   = []string{PeriodUnder6M, PeriodUnder1Y, PeriodUnder3Y, PeriodUnder5Y, PeriodOver5Y}
)

func ParseAgeRanges(values []string) (EnumSet, error) {
	return parseEnumSet(values, ageRanges, "age range")
}

func ParsePeriods(values []string) (EnumSet, error) {
	return parseEnumSet(values, periods, "period")
}

func parseEnumSet(values, allowed []string, kind string) (EnumSet, error) {
	set := make(EnumSet, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, raw := range values {
		v := strings.ToUpper(strings.TrimSpace(raw))
		known := false
		for _, a := range allowed {
			if a == v {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown %s %q", kind, raw)
		}
		if !seen[v] {
			seen[v] = true
			set = append(set, v)
		}
	}
	return set, nil
}

// EnumSet is a set of enum names stored as a JSON array in a text column
type EnumSet []string

func (s EnumSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *EnumSet) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*s = EnumSet{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into EnumSet", value)
	}
	if len(raw) == 0 {
		*s = EnumSet{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*s = out
	return nil
}

// Match represents a tennis match open for players to join
type Match struct {
	ID                 uint        `gorm:"primarykey" json:"id"`
	HostID             uint        `gorm:"not null;index" json:"host_id"`
	CourtID            uint        `gorm:"not null;index" json:"court_id"`
	Court              Court       `gorm:"foreignKey:CourtID" json:"court"`
	MatchStartDateTime time.Time   `gorm:"not null;index" json:"match_start_date_time"`
	MatchEndDateTime   time.Time   `gorm:"not null" json:"match_end_date_time"`
	GameType           GameType    `gorm:"type:varchar(20);not null;index" json:"game_type"`
	Status             MatchStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Fee                int         `gorm:"not null;default:0" json:"fee"`
	AgeRange           EnumSet     `gorm:"type:text" json:"age_range"`
	Period             EnumSet     `gorm:"type:text" json:"period"`
	PlayerCountMen     int         `gorm:"not null;default:0" json:"player_count_men"`
	PlayerCountWomen   int         `gorm:"not null;default:0" json:"player_count_women"`
	Description        string      `gorm:"type:text" json:"description"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Match) TableName() string {
	return "matches"
}

// BeforeSave stores timestamps in UTC so range queries compare like with like
// on drivers that persist times as zoned text
func (m *Match) BeforeSave(*gorm.DB) error {
	m.MatchStartDateTime = m.MatchStartDateTime.UTC()
	m.MatchEndDateTime = m.MatchEndDateTime.UTC()
	return nil
}

// ListItem maps the match to its public view with timestamps rendered in loc
func (m *Match) ListItem(loc *time.Location) MatchListItem {
	return MatchListItem{
		MatchID:          m.ID,
		HostID:           m.HostID,
		StartDateTime:    NewLocalDateTime(m.MatchStartDateTime.In(loc)),
		EndDateTime:      NewLocalDateTime(m.MatchEndDateTime.In(loc)),
		GameType:         m.GameType,
		CourtID:          m.CourtID,
		Period:           nonNil(m.Period),
		PlayerCountMen:   m.PlayerCountMen,
		PlayerCountWomen: m.PlayerCountWomen,
		AgeRange:         nonNil(m.AgeRange),
		Fee:              m.Fee,
		Status:           m.Status.Public(),
		CreatedAt:        NewLocalDateTime(m.CreatedAt.In(loc)),
	}
}

func nonNil(s EnumSet) []string {
	if s == nil {
		return []string{}
	}
	return []string(s)
}
