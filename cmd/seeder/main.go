package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/config"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/database"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/importer"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/models"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/repository"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/security"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const (
	BatchSize      = 500
	SyntheticCourt = 10
	DevTokenTTL    = 30 * 24 * time.Hour
)

func main() {
	courtsFile := flag.String("courts", "", "court list to import (.csv or .xlsx)")
	matchCount := flag.Int("matches", 0, "number of random matches to generate")
	hostID := flag.Uint("host", 1, "host user id for generated matches and the dev token")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	logger.Init()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}
	postgresRepo := repository.NewPostgresRepository(db)
	defer postgresRepo.Close()

	if err := postgresRepo.AutoMigrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	ctx := context.Background()
	rng := rand.New(rand.NewSource(*seed))

	if *courtsFile != "" {
		if err := importCourts(ctx, postgresRepo, *courtsFile); err != nil {
			logger.Fatal("Failed to import courts", err)
		}
	}

	if *matchCount > 0 {
		courts, err := postgresRepo.SearchCourts(ctx, "", 0)
		if err != nil {
			logger.Fatal("Failed to load courts", err)
		}
		if len(courts) == 0 {
			synthetic := syntheticCourts(rng, cfg.Search.FallbackLatitude, cfg.Search.FallbackLongitude, SyntheticCourt)
			if err := postgresRepo.UpsertCourts(ctx, synthetic, BatchSize); err != nil {
				logger.Fatal("Failed to create courts", err)
			}
			if courts, err = postgresRepo.SearchCourts(ctx, "", 0); err != nil {
				logger.Fatal("Failed to load courts", err)
			}
		}

		start := time.Now()
		matches := generateMatches(rng, courts, uint(*hostID), *matchCount, time.Now().In(cfg.Location()))
		if err := postgresRepo.BulkInsertMatches(ctx, matches, BatchSize); err != nil {
			logger.Fatal("Failed to insert matches", err)
		}
		logger.Info("Inserted matches", "count", len(matches), "took", time.Since(start).String())

		notifyFeed(ctx, cfg)
	}

	token, err := security.GenerateJWT(uint(*hostID), cfg.Auth.JWTSecret, DevTokenTTL)
	if err != nil {
		logger.Fatal("Failed to issue dev token", err)
	}
	fmt.Fprintf(os.Stdout, "Authorization: Bearer %s\n", token)
}

func importCourts(ctx context.Context, repo *repository.PostgresRepository, path string) error {
	res, err := importer.LoadCourts(path)
	if err != nil {
		return err
	}
	for _, reason := range res.Skipped {
		logger.Warn("Skipped court row", "file", path, "reason", reason)
	}
	if err := repo.UpsertCourts(ctx, res.Courts, BatchSize); err != nil {
		return fmt.Errorf("upsert failed: %w", err)
	}
	logger.Info("Imported courts", "file", path, "count", len(res.Courts), "skipped", len(res.Skipped))
	return nil
}

// notifyFeed bumps the match feed version so connected clients refetch
func notifyFeed(ctx context.Context, cfg *config.Config) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	redisRepo := repository.NewRedisRepository(client)
	defer redisRepo.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	version, err := redisRepo.BumpMatchFeedVersion(ctx)
	if err != nil {
		logger.Warn("Failed to bump match feed version", "error", err)
		return
	}
	logger.Info("Match feed version bumped", "version", version)
}

// generateMatches creates random matches over the next two weeks.
// About one in ten is already closed.
func generateMatches(rng *rand.Rand, courts []models.Court, hostID uint, count int, now time.Time) []models.Match {
	gameTypes := []models.GameType{
		models.GameTypeSingles, models.GameTypeMenDoubles, models.GameTypeWomenDoubles,
		models.GameTypeMixedDoubles, models.GameTypeRally,
	}
	ageRanges := []string{models.AgeTwenties, models.AgeThirties, models.AgeForties, models.AgeFifties, models.AgeSixtiesUp}
	periods := []string{models.PeriodUnder6M, models.PeriodUnder1Y, models.PeriodUnder3Y, models.PeriodUnder5Y, models.PeriodOver5Y}

	base := now.Truncate(time.Hour).Add(time.Hour)
	matches := make([]models.Match, 0, count)
	for i := 0; i < count; i++ {
		court := courts[rng.Intn(len(courts))]
		start := base.Add(time.Duration(rng.Intn(14*24)) * time.Hour)
		status := models.StatusRecruiting
		if rng.Intn(10) == 0 {
			status = models.StatusCompleted
		}

		matches = append(matches, models.Match{
			HostID:             hostID,
			CourtID:            court.ID,
			MatchStartDateTime: start,
			MatchEndDateTime:   start.Add(time.Duration(1+rng.Intn(3)) * time.Hour),
			GameType:           gameTypes[rng.Intn(len(gameTypes))],
			Status:             status,
			Fee:                rng.Intn(11) * 1000,
			AgeRange:           pick(rng, ageRanges),
			Period:             pick(rng, periods),
			PlayerCountMen:     rng.Intn(3),
			PlayerCountWomen:   rng.Intn(3),
			Description:        fmt.Sprintf("Seeded match #%d", i+1),
		})
	}
	return matches
}

// syntheticCourts scatters courts within about 10 km of the given point
func syntheticCourts(rng *rand.Rand, lat, lon float64, n int) []models.Court {
	courts := make([]models.Court, 0, n)
	for i := 0; i < n; i++ {
		courts = append(courts, models.Court{
			Name:      fmt.Sprintf("Seed Court %02d", i+1),
			Address:   "generated",
			Latitude:  lat + (rng.Float64()-0.5)*0.18,
			Longitude: lon + (rng.Float64()-0.5)*0.22,
		})
	}
	return courts
}

// pick returns a random non-empty ordered subset of values
func pick(rng *rand.Rand, values []string) models.EnumSet {
	var out models.EnumSet
	for _, v := range values {
		if rng.Intn(2) == 0 {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		out = append(out, values[rng.Intn(len(values))])
	}
	return out
}
