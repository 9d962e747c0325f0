// simulate hammers the booking API with deliberately overlapping requests
// to demonstrate that concurrent bookings for the same professional resolve
// to exactly one success per interval.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/consultaflow/practice-scheduling/internal/config"
	"github.com/consultaflow/practice-scheduling/internal/db"
)

type SimConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	Contention  int // distinct start times workers fight over
	PostgresDSN string
}

type DataPool struct {
	mu            sync.RWMutex
	professionals []uuid.UUID
	patients      map[uuid.UUID][]uuid.UUID // keyed by professional
}

func (dp *DataPool) Random() (uuid.UUID, uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.professionals) == 0 {
		return uuid.Nil, uuid.Nil, false
	}
	prof := dp.professionals[rand.Intn(len(dp.professionals))]
	patients := dp.patients[prof]
	if len(patients) == 0 {
		return uuid.Nil, uuid.Nil, false
	}
	return prof, patients[rand.Intn(len(patients))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.latencies))
	copy(latencies, om.latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]
	p95 = latencies[min(len(latencies)*95/100, len(latencies)-1)]
	return avg, p50, p95
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulate starting")

	simCfg := loadSimConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, simCfg.PostgresDSN)
	cancel()
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	data, err := loadPool(context.Background(), pool)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}
	log.Printf("loaded %d professionals", len(data.professionals))

	// All workers book inside the same narrow future window so that
	// overlaps are common and conflicts are the norm, not the exception.
	baseDay := time.Now().AddDate(0, 0, 14)
	starts := make([]string, simCfg.Contention)
	for i := range starts {
		starts[i] = fmt.Sprintf("%sT%02d:00", baseDay.Format("2006-01-02"), 9+i%8)
	}

	var metrics OperationMetrics
	client := &http.Client{Timeout: 10 * time.Second}

	runCtx, cancelRun := context.WithTimeout(context.Background(), simCfg.Duration)
	defer cancelRun()

	var wg sync.WaitGroup
	for i := 0; i < simCfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for runCtx.Err() == nil {
				prof, patient, ok := data.Random()
				if !ok {
					return
				}
				bookOnce(runCtx, client, simCfg.APIBaseURL, prof, patient,
					starts[rand.Intn(len(starts))], &metrics)
			}
		}()
	}
	wg.Wait()

	report(&metrics)
}

func bookOnce(ctx context.Context, client *http.Client, baseURL string, prof, patient uuid.UUID, startLocal string, metrics *OperationMetrics) {
	body, _ := json.Marshal(map[string]any{
		"patient_id":     patient.String(),
		"start_datetime": startLocal,
		"duration_min":   50,
		"mode":           "online",
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Professional-ID", prof.String())

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		if ctx.Err() == nil {
			metrics.Record(latency, false, false)
		}
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	metrics.Record(latency,
		resp.StatusCode == http.StatusCreated,
		resp.StatusCode == http.StatusConflict)
}

func loadPool(ctx context.Context, pool *pgxpool.Pool) (*DataPool, error) {
	data := &DataPool{patients: make(map[uuid.UUID][]uuid.UUID)}

	rows, err := pool.Query(ctx, `SELECT id FROM professionals ORDER BY created_at LIMIT 20`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		data.professionals = append(data.professionals, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, profID := range data.professionals {
		prows, err := pool.Query(ctx, `SELECT id FROM patients WHERE professional_id = $1 AND status = 'active'`, profID)
		if err != nil {
			return nil, err
		}
		for prows.Next() {
			var id uuid.UUID
			if err := prows.Scan(&id); err != nil {
				prows.Close()
				return nil, err
			}
			data.patients[profID] = append(data.patients[profID], id)
		}
		prows.Close()
		if err := prows.Err(); err != nil {
			return nil, err
		}
	}

	return data, nil
}

func report(metrics *OperationMetrics) {
	avg, p50, p95 := metrics.Stats()
	log.Printf("bookings total=%d success=%d conflict=%d error=%d",
		metrics.Total, metrics.Success, metrics.Conflict, metrics.Error)
	log.Printf("latency avg=%s p50=%s p95=%s", avg, p50, p95)

	if metrics.Error > 0 {
		log.Println("result: FAIL (unexpected errors)")
		os.Exit(1)
	}
	log.Println("result: OK (every overlap resolved to one winner)")
}

func loadSimConfig() SimConfig {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	sim := SimConfig{
		APIBaseURL:  getEnv("SIM_API_URL", "http://127.0.0.1:8080"),
		Duration:    30 * time.Second,
		Workers:     16,
		Contention:  8,
		PostgresDSN: cfg.PostgresDSN,
	}
	if v := os.Getenv("SIM_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			sim.Duration = d
		}
	}
	if v := os.Getenv("SIM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			sim.Workers = n
		}
	}
	if v := os.Getenv("SIM_CONTENTION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			sim.Contention = n
		}
	}
	return sim
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
