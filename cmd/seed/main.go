package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/consultaflow/practice-scheduling/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	professionals, err := seedProfessionals(context.Background(), pool, 50)
	if err != nil {
		log.Fatalf("seed professionals: %v", err)
	}
	if err := seedPatients(context.Background(), pool, professionals, 40); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedAvailability(context.Background(), pool, professionals); err != nil {
		log.Fatalf("seed availability: %v", err)
	}

	log.Println("seed complete")
}

func seedProfessionals(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d professionals", count)

	zones := []string{
		"America/Sao_Paulo",
		"America/New_York",
		"America/Mexico_City",
		"Europe/Lisbon",
		"Europe/Madrid",
		"America/Argentina/Buenos_Aires",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		email := gofakeit.Email()
		zone := zones[gofakeit.Number(0, len(zones)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO professionals (id, name, email, timezone, created_at)
			VALUES ($1, $2, $3, $4, now())
		`, id, name, email, zone)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("professionals seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, professionals []uuid.UUID, perProfessional int) error {
	log.Printf("seeding %d patients per professional", perProfessional)

	statuses := []string{"active", "active", "active", "active", "paused", "optout"}

	for _, profID := range professionals {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := 0; i < perProfessional; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			phone := gofakeit.Phone()
			status := statuses[gofakeit.Number(0, len(statuses)-1)]

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, professional_id, name, phone, status, created_at)
				VALUES ($1, $2, $3, $4, $5, now())
			`, id, profID, name, phone, status)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}
	}

	log.Println("patients seeded")
	return nil
}

// seedAvailability gives each professional a plausible working week:
// morning and afternoon windows Monday through Friday.
func seedAvailability(ctx context.Context, pool *pgxpool.Pool, professionals []uuid.UUID) error {
	log.Println("seeding availability rules")

	type window struct {
		startMin int
		endMin   int
	}
	windows := []window{
		{9 * 60, 12 * 60},
		{14 * 60, 18 * 60},
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, profID := range professionals {
		session := []int{30, 45, 50, 60}[gofakeit.Number(0, 3)]
		breakMin := []int{0, 10, 15}[gofakeit.Number(0, 2)]

		for weekday := 0; weekday < 5; weekday++ {
			for _, win := range windows {
				_, err := tx.Exec(ctx, `
					INSERT INTO availability_rules (id, professional_id, weekday, start_min, end_min, session_min, break_min, active)
					VALUES ($1, $2, $3, $4, $5, $6, $7, true)
				`, uuid.New(), profID, weekday, win.startMin, win.endMin, session, breakMin)
				if err != nil {
					return err
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("availability rules seeded")
	return nil
}
