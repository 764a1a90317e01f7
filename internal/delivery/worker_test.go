package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tabibah/clinic-platform/internal/whatsapp"
	"github.com/tabibah/clinic-platform/pkg/logging"
)

type memJournal struct {
	mu         sync.Mutex
	sent       []uuid.UUID
	retries    []Delivery
	dead       []uuid.UUID
	requeued   []uuid.UUID
	candidates []Delivery
}

func (j *memJournal) MarkSent(_ context.Context, id uuid.UUID, _ int) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.sent = append(j.sent, id)
	return nil
}

func (j *memJournal) ScheduleRetry(_ context.Context, id uuid.UUID, attempts int, nextRetry time.Time, lastError string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.retries = append(j.retries, Delivery{ID: id, Attempts: attempts, NextRetryAt: &nextRetry, LastError: lastError})
	return nil
}

func (j *memJournal) MarkDead(_ context.Context, id uuid.UUID, _ int, _ string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.dead = append(j.dead, id)
	return nil
}

// Requeue mirrors the journal: the row leaves retry_pending, so it stops
// showing up as a candidate.
func (j *memJournal) Requeue(_ context.Context, id uuid.UUID) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.requeued = append(j.requeued, id)
	kept := j.candidates[:0]
	for _, d := range j.candidates {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	j.candidates = kept
	return nil
}

func (j *memJournal) ListRetryCandidates(_ context.Context, _ int) ([]Delivery, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Delivery, len(j.candidates))
	copy(out, j.candidates)
	return out, nil
}

func (j *memJournal) sentCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.sent)
}

func mustJob(t *testing.T, job Job) string {
	t.Helper()
	data, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("marshal job: %v", err)
	}
	return string(data)
}

func TestWorkerMarksSentOnSuccess(t *testing.T) {
	queue := NewMemoryQueue(4)
	journal := &memJournal{}
	sender := &whatsapp.StubSender{}
	w := NewWorker(queue, journal, sender, logging.New("error"), nil)

	id := uuid.New()
	msg := Message{ID: "m1", Body: mustJob(t, Job{DeliveryID: id, PhoneNumber: "201012345678", Body: "hello"})}
	w.process(context.Background(), msg)

	if len(sender.Sent) != 1 || sender.Sent[0].PhoneNumber != "201012345678" {
		t.Fatalf("sent = %+v, want one message", sender.Sent)
	}
	if len(journal.sent) != 1 || journal.sent[0] != id {
		t.Errorf("journal.sent = %v, want [%s]", journal.sent, id)
	}
}

func TestWorkerSchedulesRetryWithDoublingDelay(t *testing.T) {
	queue := NewMemoryQueue(4)
	journal := &memJournal{}
	sender := &whatsapp.StubSender{Err: errors.New("gateway down")}
	w := NewWorker(queue, journal, sender, logging.New("error"), nil).
		WithBaseDelay(2 * time.Minute).
		WithMaxAttempts(5)

	id := uuid.New()
	before := time.Now()
	w.process(context.Background(), Message{Body: mustJob(t, Job{DeliveryID: id, PhoneNumber: "201012345678", Body: "x", Attempts: 2})})

	if len(journal.retries) != 1 {
		t.Fatalf("retries = %d, want 1", len(journal.retries))
	}
	got := journal.retries[0]
	if got.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", got.Attempts)
	}
	// base 2m << 2 = 8m
	wantDelay := 8 * time.Minute
	delay := got.NextRetryAt.Sub(before)
	if delay < wantDelay-time.Second || delay > wantDelay+time.Second {
		t.Errorf("retry delay = %v, want ~%v", delay, wantDelay)
	}
	if got.LastError == "" {
		t.Error("last error not recorded")
	}
}

func TestWorkerParksDeliveryAfterMaxAttempts(t *testing.T) {
	queue := NewMemoryQueue(4)
	journal := &memJournal{}
	sender := &whatsapp.StubSender{Err: errors.New("gateway down")}
	w := NewWorker(queue, journal, sender, logging.New("error"), nil).WithMaxAttempts(3)

	id := uuid.New()
	w.process(context.Background(), Message{Body: mustJob(t, Job{DeliveryID: id, PhoneNumber: "201012345678", Body: "x", Attempts: 2})})

	if len(journal.dead) != 1 || journal.dead[0] != id {
		t.Fatalf("dead = %v, want [%s]", journal.dead, id)
	}
	if len(journal.retries) != 0 {
		t.Errorf("retries = %d, want 0", len(journal.retries))
	}
}

func TestWorkerBackoffCap(t *testing.T) {
	w := NewWorker(NewMemoryQueue(1), nil, &whatsapp.StubSender{}, logging.New("error"), nil).
		WithBaseDelay(time.Hour)

	if got := w.nextDelay(10); got != 6*time.Hour {
		t.Errorf("nextDelay(10) = %v, want 6h cap", got)
	}
}

func TestRetrySenderReenqueuesDueDeliveries(t *testing.T) {
	queue := NewMemoryQueue(4)
	id := uuid.New()
	journal := &memJournal{candidates: []Delivery{{
		ID:          id,
		PhoneNumber: "201012345678",
		Body:        "try again",
		Attempts:    1,
	}}}

	r := NewRetrySender(queue, journal, logging.New("error"))
	r.drain(context.Background())

	msgs, err := queue.Receive(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("queued = %d, want 1", len(msgs))
	}
	var job Job
	if err := json.Unmarshal([]byte(msgs[0].Body), &job); err != nil {
		t.Fatalf("unmarshal job: %v", err)
	}
	if job.DeliveryID != id || job.Attempts != 1 {
		t.Errorf("job = %+v, want delivery %s with attempts 1", job, id)
	}
}

func TestRetrySenderDoesNotDuplicateBackloggedDeliveries(t *testing.T) {
	queue := NewMemoryQueue(4)
	id := uuid.New()
	journal := &memJournal{candidates: []Delivery{{
		ID:          id,
		PhoneNumber: "201012345678",
		Body:        "try again",
		Attempts:    1,
	}}}

	r := NewRetrySender(queue, journal, logging.New("error"))
	// Two ticker passes before any worker drains the queue must still yield
	// exactly one queued copy.
	r.drain(context.Background())
	r.drain(context.Background())

	msgs, err := queue.Receive(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("queued = %d, want 1", len(msgs))
	}
	if len(journal.requeued) != 1 || journal.requeued[0] != id {
		t.Errorf("requeued = %v, want [%s]", journal.requeued, id)
	}
}

type countingSender struct {
	mu sync.Mutex
	n  int
}

func (c *countingSender) SendMessage(_ context.Context, _ whatsapp.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return nil
}

func TestWorkerRunFansOutAcrossWorkers(t *testing.T) {
	queue := NewMemoryQueue(4)
	journal := &memJournal{}
	sender := &countingSender{}
	w := NewWorker(queue, journal, sender, logging.New("error"), nil).WithWorkerCount(2)

	for i := 0; i < 2; i++ {
		body := mustJob(t, Job{DeliveryID: uuid.New(), PhoneNumber: "201012345678", Body: "hi"})
		if err := queue.Send(context.Background(), body); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for journal.sentCount() < 2 {
		select {
		case <-deadline:
			cancel()
			t.Fatalf("processed %d deliveries, want 2", journal.sentCount())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestMemoryQueueRoundTrip(t *testing.T) {
	q := NewMemoryQueue(2)
	if err := q.Send(context.Background(), "a"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := q.Send(context.Background(), "b"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	msgs, err := q.Receive(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Body != "a" || msgs[1].Body != "b" {
		t.Errorf("messages = %+v, want a then b", msgs)
	}
}
