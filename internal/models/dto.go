package models

// MatchSearchRequest holds the raw query parameters of GET /matches.
// Pointer fields distinguish an absent value from zero.
type MatchSearchRequest struct {
	Sort      string
	StartDate string
	EndDate   string
	StartTime *int
	EndTime   *int
	GameType  string
	Status    string
	Latitude  *float64
	Longitude *float64
	Radius    int
	Cursor    string
	Size      int
}

// MatchListItem is the public view of a match in search results
type MatchListItem struct {
	MatchID          uint          `json:"matchId"`
	HostID           uint          `json:"hostId"`
	StartDateTime    LocalDateTime `json:"startDateTime"`
	EndDateTime      LocalDateTime `json:"endDateTime"`
	GameType         GameType      `json:"gameType"`
	CourtID          uint          `json:"courtId"`
	Period           []string      `json:"period"`
	PlayerCountMen   int           `json:"playerCountMen"`
	PlayerCountWomen int           `json:"playerCountWomen"`
	AgeRange         []string      `json:"ageRange"`
	Fee              int           `json:"fee"`
	Status           string        `json:"status"`
	CreatedAt        LocalDateTime `json:"createdAt"`
}

// MatchListResponse is one page of search results
type MatchListResponse struct {
	Matches []MatchListItem `json:"matches"`
	Size    int             `json:"size"`
	HasNext bool            `json:"hasNext"`
	Cursor  *string         `json:"cursor"`
}

// CreateMatchRequest represents the request payload for creating a match
type CreateMatchRequest struct {
	CourtID          uint          `json:"courtId" validate:"required"`
	StartDateTime    LocalDateTime `json:"startDateTime"`
	EndDateTime      LocalDateTime `json:"endDateTime"`
	GameType         string        `json:"gameType" validate:"required"`
	Fee              int           `json:"fee" validate:"min=0,max=1000000"`
	AgeRange         []string      `json:"ageRange" validate:"omitempty,max=5,dive,required"`
	Period           []string      `json:"period" validate:"omitempty,max=5,dive,required"`
	PlayerCountMen   int           `json:"playerCountMen" validate:"min=0,max=4"`
	PlayerCountWomen int           `json:"playerCountWomen" validate:"min=0,max=4"`
	Description      string        `json:"description" validate:"max=500"`
}

// MatchDetailResponse is a single match with its court
type MatchDetailResponse struct {
	MatchListItem
	Description string        `json:"description"`
	Court       CourtResponse `json:"court"`
}

// CourtResponse represents a court in API responses
type CourtResponse struct {
	ID         uint     `json:"courtId"`
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}

// ChatMessageRequest represents the request payload for posting a chat message
type ChatMessageRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

// ChatMessageResponse represents a chat message in API responses
type ChatMessageResponse struct {
	ID        string        `json:"messageId"`
	MatchID   uint          `json:"matchId"`
	SenderID  uint          `json:"senderId"`
	Content   string        `json:"content"`
	CreatedAt LocalDateTime `json:"createdAt"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}
