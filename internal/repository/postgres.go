package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a looked-up record does not exist
var ErrNotFound = errors.New("record not found")

// PostgresRepository handles all relational operations.
// It runs on PostgreSQL in production and SQLite in development and tests.
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository creates a new Postgres repository
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// FindMatchesForSearch returns matches starting within [from, to] with one of
// the given statuses, narrowed to gameType when set. No paging happens here.
func (r *PostgresRepository) FindMatchesForSearch(ctx context.Context, from, to time.Time, gameType *models.GameType, statuses []models.MatchStatus) ([]models.Match, error) {
	query := r.db.WithContext(ctx).
		Preload("Court").
		Where("match_start_date_time >= ? AND match_start_date_time <= ?", from.UTC(), to.UTC()).
		Where("status IN ?", statusNames(statuses))

	if gameType != nil {
		query = query.Where("game_type = ?", string(*gameType))
	}

	var matches []models.Match
	err := query.Order("id ASC").Find(&matches).Error
	return matches, err
}

// CreateMatch inserts a new match
func (r *PostgresRepository) CreateMatch(ctx context.Context, match *models.Match) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(match).Error
}

// BulkInsertMatches efficiently inserts multiple matches
func (r *PostgresRepository) BulkInsertMatches(ctx context.Context, matches []models.Match, batchSize int) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(matches, batchSize).Error
}

// GetMatch retrieves a match with its court
func (r *PostgresRepository) GetMatch(ctx context.Context, id uint) (*models.Match, error) {
	var match models.Match
	err := r.db.WithContext(ctx).Preload("Court").First(&match, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &match, nil
}

// UpdateMatchStatus sets the status of a match
func (r *PostgresRepository) UpdateMatchStatus(ctx context.Context, id uint, status models.MatchStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Match{}).Where("id = ?", id).Update("status", string(status))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetCourt retrieves a court by id
func (r *PostgresRepository) GetCourt(ctx context.Context, id uint) (*models.Court, error) {
	var court models.Court
	err := r.db.WithContext(ctx).First(&court, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &court, nil
}

// SearchCourts finds courts whose name or address contains keyword.
// A limit of zero returns every match.
func (r *PostgresRepository) SearchCourts(ctx context.Context, keyword string, limit int) ([]models.Court, error) {
	query := r.db.WithContext(ctx).Model(&models.Court{})

	if kw := strings.ToLower(strings.TrimSpace(keyword)); kw != "" {
		pattern := "%" + escapeLike(kw) + "%"
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(address) LIKE ? ESCAPE '\\'", pattern, pattern)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var courts []models.Court
	err := query.Order("id ASC").Find(&courts).Error
	return courts, err
}

// UpsertCourts creates or updates courts keyed by name
// Uses ON CONFLICT so re-running an import refreshes coordinates
func (r *PostgresRepository) UpsertCourts(ctx context.Context, courts []models.Court, batchSize int) error {
	if len(courts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"address", "latitude", "longitude", "updated_at"}),
	}).CreateInBatches(courts, batchSize).Error
}

// SaveChatMessage persists a chat message; saving the same id twice is a no-op
func (r *PostgresRepository) SaveChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(msg).Error
}

// ListChatMessages returns the newest messages of a match, newest first
func (r *PostgresRepository) ListChatMessages(ctx context.Context, matchID uint, limit int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// Ping checks if database is reachable
func (r *PostgresRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate runs database migrations
func (r *PostgresRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&models.Court{}, &models.Match{}, &models.ChatMessage{})
}

func statusNames(statuses []models.MatchStatus) []string {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return names
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
