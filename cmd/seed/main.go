package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"ticketing/internal/shared/config"
	"ticketing/internal/shared/database"
	"ticketing/internal/shows"
	"ticketing/pkg/logger"

	"github.com/joho/godotenv"
)

type Seeder struct {
	db    *database.DB
	shows shows.Repository
	now   time.Time
}

type seedShow struct {
	name       string
	totalSeats int
	startsIn   time.Duration
}

var defaultShows = []seedShow{
	{name: "City Express", totalSeats: 40, startsIn: 30 * time.Minute},
	{name: "Mountain Line", totalSeats: 32, startsIn: 90 * time.Minute},
	{name: "Evening Shuttle", totalSeats: 24, startsIn: 4 * time.Hour},
}

func main() {
	clean := flag.Bool("clean", false, "truncate shows, bookings and seat claims before seeding")
	flag.Parse()

	fmt.Println("🌱 Starting ticketing database seeder...")

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.InitDB(cfg, logger.GetDefault())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{
		db:    db,
		shows: shows.NewRepository(db.PostgreSQL),
		now:   time.Now().UTC(),
	}

	if *clean {
		fmt.Println("\n🧹 Cleaning database...")
		if err := seeder.CleanDatabase(); err != nil {
			log.Fatalf("Failed to clean database: %v", err)
		}
		fmt.Println("✅ Database cleaned successfully")
	}

	fmt.Println("\n🌱 Seeding shows...")
	if err := seeder.SeedAll(context.Background()); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	fmt.Println("\n🎉 Seeding completed!")
}

// CleanDatabase truncates the ledger tables, children first
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"seat_claims",
		"bookings",
		"shows",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit().Error
}

// SeedAll inserts each default show unless a show with that name already exists
func (s *Seeder) SeedAll(ctx context.Context) error {
	for _, seed := range defaultShows {
		existing, err := s.shows.FindByName(ctx, seed.name)
		if err == nil {
			fmt.Printf("  ⏭️  %s already present (%s)\n", existing.Name, existing.ID)
			continue
		}
		if !errors.Is(err, shows.ErrShowNotFound) {
			return fmt.Errorf("failed to look up show %q: %w", seed.name, err)
		}

		show := &shows.Show{
			Name:       seed.name,
			StartTime:  s.now.Add(seed.startsIn),
			TotalSeats: seed.totalSeats,
		}
		if err := s.shows.Create(ctx, show); err != nil {
			return fmt.Errorf("failed to create show %q: %w", seed.name, err)
		}
		fmt.Printf("  ✅ %s: %d seats, starts %s (%s)\n", show.Name, show.TotalSeats, show.StartTime.Format(time.RFC3339), show.ID)
	}
	return nil
}
