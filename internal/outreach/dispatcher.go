package outreach

import (
	"context"
	"log"
	"sync"
)

// Delivery hands a send-intent to the external messaging collaborator. The
// core only distinguishes success from failure; retries belong to the
// collaborator's own policy.
type Delivery interface {
	Send(ctx context.Context, intent SendIntent) error
}

// Dispatcher fans send-intents out to a small worker pool, keeping delivery
// I/O out of the scheduler's due-event decision loop. Delivery outcomes are
// recorded in the message log; a failed delivery never rolls anything back.
type Dispatcher struct {
	delivery Delivery
	repo     Repository
	workers  int
}

func NewDispatcher(delivery Delivery, repo Repository, workers int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		delivery: delivery,
		repo:     repo,
		workers:  workers,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, intents []SendIntent) {
	if len(intents) == 0 {
		return
	}

	queue := make(chan SendIntent)
	var wg sync.WaitGroup

	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for intent := range queue {
				d.deliver(ctx, intent)
			}
		}()
	}

	for _, intent := range intents {
		select {
		case queue <- intent:
		case <-ctx.Done():
			// Undelivered intents are dropped; their markers are already
			// set, so they will not be re-emitted. The message log shows
			// the gap.
			close(queue)
			wg.Wait()
			return
		}
	}

	close(queue)
	wg.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, intent SendIntent) {
	status := "sent"
	if err := d.delivery.Send(ctx, intent); err != nil {
		status = "failed"
		log.Printf("deliver %s professional=%s patient=%s: %v",
			intent.Kind, intent.ProfessionalID, intent.PatientID, err)
	}

	entry := MessageLog{
		ProfessionalID: intent.ProfessionalID,
		PatientID:      intent.PatientID,
		Kind:           intent.Kind,
		Content:        intent.Content,
		Status:         status,
	}
	if err := d.repo.InsertMessageLog(ctx, entry); err != nil {
		log.Printf("insert message log %s patient=%s: %v", intent.Kind, intent.PatientID, err)
	}
}
