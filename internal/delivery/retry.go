package delivery

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tabibah/clinic-platform/pkg/logging"
)

// RetrySender periodically re-enqueues deliveries whose retry window has
// opened. The worker decides sent/retry/dead; this loop only feeds it.
type RetrySender struct {
	queue     Queue
	journal   journalStore
	logger    *logging.Logger
	interval  time.Duration
	batchSize int
}

// NewRetrySender creates a retry loop over the journal.
func NewRetrySender(queue Queue, journal journalStore, logger *logging.Logger) *RetrySender {
	if logger == nil {
		logger = logging.Default()
	}
	return &RetrySender{
		queue:     queue,
		journal:   journal,
		logger:    logger,
		interval:  time.Minute,
		batchSize: 25,
	}
}

func (r *RetrySender) WithInterval(d time.Duration) *RetrySender {
	if d > 0 {
		r.interval = d
	}
	return r
}

func (r *RetrySender) WithBatchSize(n int) *RetrySender {
	if n > 0 {
		r.batchSize = n
	}
	return r
}

// Run blocks until ctx is canceled.
func (r *RetrySender) Run(ctx context.Context) {
	if r.queue == nil || r.journal == nil {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.drain(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.drain(ctx)
		}
	}
}

func (r *RetrySender) drain(ctx context.Context) {
	candidates, err := r.journal.ListRetryCandidates(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("retry fetch failed", "error", err)
		return
	}
	for _, d := range candidates {
		payload, err := json.Marshal(Job{
			DeliveryID:   d.ID,
			PhoneNumber:  d.PhoneNumber,
			PhoneNumber2: d.PhoneNumber2,
			Body:         d.Body,
			Attempts:     d.Attempts,
		})
		if err != nil {
			r.logger.Error("marshal retry job failed", "error", err, "delivery_id", d.ID)
			continue
		}
		if err := r.queue.Send(ctx, string(payload)); err != nil {
			r.logger.Error("re-enqueue failed", "error", err, "delivery_id", d.ID)
			continue
		}
		// Flip the row off retry_pending so a backlog between passes does not
		// enqueue the same delivery twice.
		if err := r.journal.Requeue(ctx, d.ID); err != nil {
			r.logger.Error("requeue status update failed", "error", err, "delivery_id", d.ID)
		}
		r.logger.Debug("delivery re-enqueued", "delivery_id", d.ID, "attempts", d.Attempts)
	}
}
