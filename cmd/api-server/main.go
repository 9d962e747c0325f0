package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/consultaflow/practice-scheduling/internal/api"
	"github.com/consultaflow/practice-scheduling/internal/config"
	"github.com/consultaflow/practice-scheduling/internal/db"
	"github.com/consultaflow/practice-scheduling/internal/outreach"
	redisclient "github.com/consultaflow/practice-scheduling/internal/redis"
	"github.com/consultaflow/practice-scheduling/internal/scheduling"
	"github.com/consultaflow/practice-scheduling/internal/timezone"
)

const version = "1.0.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s", cfg.Env, cfg.HTTPPort)

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

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	// Connect RabbitMQ for outbound send-intents
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
	locker := redisclient.NewRedisCalendarLocker(rdb, cfg.LockTTL)

	schedulingRepo := scheduling.NewPgRepository(pgPool)
	schedulingSvc := scheduling.NewService(schedulingRepo, locker, tz)

	outreachRepo := outreach.NewPgRepository(pgPool)
	automationSvc := outreach.NewService(outreachRepo)
	scheduler := outreach.NewScheduler(outreachRepo, tz)
	dispatcher := outreach.NewDispatcher(publisher, outreachRepo, cfg.DispatchWorkers)

	router := api.NewRouter(api.RouterConfig{
		Scheduling:      schedulingSvc,
		Automation:      automationSvc,
		Scheduler:       scheduler,
		Dispatcher:      dispatcher,
		TZ:              tz,
		PgPool:          pgPool,
		Redis:           rdb,
		DispatchTimeout: cfg.TickTimeout,
		Env:             cfg.Env,
		Version:         version,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()

	log.Println("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
