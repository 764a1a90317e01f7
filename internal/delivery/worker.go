package delivery

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tabibah/clinic-platform/internal/observability/metrics"
	"github.com/tabibah/clinic-platform/internal/whatsapp"
	"github.com/tabibah/clinic-platform/pkg/logging"
)

// journalStore is the slice of Journal the worker and retry sender need.
type journalStore interface {
	MarkSent(ctx context.Context, id uuid.UUID, attempts int) error
	ScheduleRetry(ctx context.Context, id uuid.UUID, attempts int, nextRetry time.Time, lastError string) error
	MarkDead(ctx context.Context, id uuid.UUID, attempts int, lastError string) error
	Requeue(ctx context.Context, id uuid.UUID) error
	ListRetryCandidates(ctx context.Context, limit int) ([]Delivery, error)
}

// Worker drains the delivery queue and pushes messages through the gateway.
// A failed send is scheduled for retry in the journal; after maxAttempts the
// delivery is parked as dead.
type Worker struct {
	queue       Queue
	journal     journalStore
	sender      whatsapp.Sender
	logger      *logging.Logger
	metrics     *metrics.NotificationMetrics
	maxAttempts int
	baseDelay   time.Duration
	waitSeconds int
	batchSize   int
	workerCount int
}

// NewWorker creates a delivery worker.
func NewWorker(queue Queue, journal journalStore, sender whatsapp.Sender, logger *logging.Logger, m *metrics.NotificationMetrics) *Worker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		queue:       queue,
		journal:     journal,
		sender:      sender,
		logger:      logger,
		metrics:     m,
		maxAttempts: 5,
		baseDelay:   2 * time.Minute,
		waitSeconds: 10,
		batchSize:   10,
		workerCount: 1,
	}
}

func (w *Worker) WithMaxAttempts(n int) *Worker {
	if n > 0 {
		w.maxAttempts = n
	}
	return w
}

func (w *Worker) WithBaseDelay(d time.Duration) *Worker {
	if d > 0 {
		w.baseDelay = d
	}
	return w
}

func (w *Worker) WithWorkerCount(n int) *Worker {
	if n > 0 {
		w.workerCount = n
	}
	return w
}

// Run drains the queue with workerCount goroutines and blocks until ctx is
// canceled.
func (w *Worker) Run(ctx context.Context) {
	if w.queue == nil || w.sender == nil {
		w.logger.Warn("delivery worker not started: queue or sender missing")
		return
	}
	var wg sync.WaitGroup
	for i := 0; i < w.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}
	wg.Wait()
}

func (w *Worker) loop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		msgs, err := w.queue.Receive(ctx, w.batchSize, w.waitSeconds)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("queue receive failed", "error", err)
			continue
		}
		for _, msg := range msgs {
			w.process(ctx, msg)
		}
	}
}

func (w *Worker) process(ctx context.Context, msg Message) {
	var job Job
	if err := json.Unmarshal([]byte(msg.Body), &job); err != nil {
		w.logger.Error("malformed delivery job dropped", "error", err, "message_id", msg.ID)
		_ = w.queue.Delete(ctx, msg.ReceiptHandle)
		return
	}

	attempts := job.Attempts + 1
	err := w.sender.SendMessage(ctx, whatsapp.Message{
		PhoneNumber:  job.PhoneNumber,
		PhoneNumber2: job.PhoneNumber2,
		Message:      job.Body,
	})
	switch {
	case err == nil:
		w.metrics.ObserveDeliveryAttempt("sent")
		if w.journal != nil {
			if jerr := w.journal.MarkSent(ctx, job.DeliveryID, attempts); jerr != nil {
				w.logger.Error("mark sent failed", "error", jerr, "delivery_id", job.DeliveryID)
			}
		}
		w.logger.Info("whatsapp delivery sent", "delivery_id", job.DeliveryID, "attempts", attempts)
	case attempts >= w.maxAttempts:
		w.metrics.ObserveDeliveryAttempt("dead")
		if w.journal != nil {
			if jerr := w.journal.MarkDead(ctx, job.DeliveryID, attempts, err.Error()); jerr != nil {
				w.logger.Error("mark dead failed", "error", jerr, "delivery_id", job.DeliveryID)
			}
		}
		w.logger.Error("whatsapp delivery exhausted", "delivery_id", job.DeliveryID, "attempts", attempts, "error", err)
	default:
		w.metrics.ObserveDeliveryAttempt("retry")
		next := time.Now().Add(w.nextDelay(job.Attempts))
		if w.journal != nil {
			if jerr := w.journal.ScheduleRetry(ctx, job.DeliveryID, attempts, next, err.Error()); jerr != nil {
				w.logger.Error("schedule retry failed", "error", jerr, "delivery_id", job.DeliveryID)
			}
		}
		w.logger.Warn("whatsapp delivery failed, retry scheduled",
			"delivery_id", job.DeliveryID,
			"attempts", attempts,
			"next_retry_at", next,
			"error", err,
		)
	}

	if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		w.logger.Error("queue delete failed", "error", err, "message_id", msg.ID)
	}
}

func (w *Worker) nextDelay(attempts int) time.Duration {
	delay := w.baseDelay * time.Duration(1<<attempts)
	if delay > 6*time.Hour {
		delay = 6 * time.Hour
	}
	return delay
}
