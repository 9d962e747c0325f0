package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/consultaflow/practice-scheduling/internal/config"
	"github.com/consultaflow/practice-scheduling/internal/db"
	"github.com/consultaflow/practice-scheduling/internal/outreach"
	"github.com/consultaflow/practice-scheduling/internal/timezone"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("automation-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running automation worker in env=%s interval=%s", cfg.Env, cfg.TickInterval)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	publisher, err := outreach.NewAMQPPublisher(cfg.AMQPURL, cfg.SendQueue)
	if err != nil {
		log.Fatalf("amqp connection error: %v", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Printf("error closing amqp: %v", err)
		}
	}()
	log.Println("connected to RabbitMQ")

	tz := timezone.NewAdapter()
	repo := outreach.NewPgRepository(pgPool)
	scheduler := outreach.NewScheduler(repo, tz)
	dispatcher := outreach.NewDispatcher(publisher, repo, cfg.DispatchWorkers)

	// Run once at startup
	runOnce(rootCtx, scheduler, dispatcher, cfg.TickTimeout)

	ticker := time.NewTicker(cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping automation worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, scheduler, dispatcher, cfg.TickTimeout)
		}
	}
}

// runOnce decides what is due, then delivers. A cancelled tick is safe to
// repeat: each event's marker is set before its intent is emitted, so the
// next run skips whatever this one already claimed.
func runOnce(ctx context.Context, scheduler *outreach.Scheduler, dispatcher *outreach.Dispatcher, timeout time.Duration) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	result, err := scheduler.RunTick(runCtx, start)
	if err != nil {
		log.Printf("tick error: %v", err)
		return
	}

	dispatcher.Dispatch(runCtx, result.Intents)

	log.Printf("tick complete professionals=%d intents=%d failures=%d duration=%s",
		result.Professionals, len(result.Intents), result.Failures, time.Since(start))
}
