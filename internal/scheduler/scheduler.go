// Package scheduler runs the recurring reminder scan: query overdue
// tasks, hand each to the delivery sender, and complete the ones that
// were sent. A manual trigger runs the identical scan on demand.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"remindbot/internal/task"
)

// Sender delivers one reminder to the user. A nil error means the
// message went out; the scheduler never retries within a scan, the next
// scan picks failures up again.
type Sender interface {
	IsConfigured() bool
	SendReminder(ctx context.Context, text string, dueDisplay string, taskID int64) error
}

type Config struct {
	Interval        time.Duration
	DeliveryTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		// Short interval keeps delivery latency after a due time tight.
		Interval:        10 * time.Second,
		DeliveryTimeout: 30 * time.Second,
	}
}

type ItemStatus string

const (
	// StatusDelivered: sent and completed (or already completed by the user).
	StatusDelivered ItemStatus = "delivered"
	// StatusFailed: the sender reported failure; the task stays pending.
	StatusFailed ItemStatus = "failed"
	// StatusSkipped: duplicate id within this pass.
	StatusSkipped ItemStatus = "skipped"
	// StatusError: sent, but the completion write failed; the task may be
	// re-sent on the next scan (at-least-once delivery).
	StatusError ItemStatus = "error"
)

type ItemResult struct {
	TaskID int64
	Status ItemStatus
	Err    error
}

// ScanResult is the batch outcome of one scan pass.
type ScanResult struct {
	Sent  int
	Items []ItemResult
}

// Scheduler owns the scan loop. One Scheduler per task store; scanMu
// guarantees a scheduled tick and a manual trigger never scan
// concurrently.
type Scheduler struct {
	store  task.Store
	sender Sender
	cfg    Config

	scanMu sync.Mutex

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(store task.Store, sender Sender, cfg Config) *Scheduler {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = def.DeliveryTimeout
	}
	return &Scheduler{store: store, sender: sender, cfg: cfg}
}

// Start launches the tick loop. Calling Start on a running scheduler is
// a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		log.Println("Scheduler already running; start skipped")
		return
	}
	s.running = true

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(loopCtx)
	}()
	log.Println("Reminder scheduler started")
}

func (s *Scheduler) run(ctx context.Context) {
	log.Println("Reminder scheduler loop starting")
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Reminder scheduler loop stopping")
			return
		case <-ticker.C:
			// A scan already in flight when the loop is cancelled runs to
			// completion; each send is bounded by the delivery timeout.
			if _, err := s.RunScanNow(context.Background()); err != nil {
				log.Printf("Scan failed: %v", err)
			}
		}
	}
}

// Stop signals the loop and waits for an in-flight scan to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	log.Println("Reminder scheduler stopped")
}

// RunScanNow runs one scan pass synchronously. It blocks while another
// scan (tick or manual) is in progress, so scans never overlap. The
// returned error covers only the overdue query; per-task failures are
// reported in the ScanResult and never abort the pass.
func (s *Scheduler) RunScanNow(ctx context.Context) (ScanResult, error) {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	var result ScanResult

	if !s.sender.IsConfigured() {
		log.Println("Scan skipped: sender not configured")
		return result, nil
	}

	now := time.Now().UTC()
	overdue, err := s.store.ListOverdue(ctx, now)
	if err != nil {
		return result, err
	}
	if len(overdue) == 0 {
		return result, nil
	}
	log.Printf("Found %d due reminders to send", len(overdue))

	seen := make(map[int64]bool, len(overdue))
	for _, t := range overdue {
		if seen[t.ID] {
			result.Items = append(result.Items, ItemResult{TaskID: t.ID, Status: StatusSkipped})
			continue
		}
		seen[t.ID] = true
		result.Items = append(result.Items, s.deliver(ctx, t))
	}

	for _, item := range result.Items {
		if item.Status == StatusDelivered || item.Status == StatusError {
			result.Sent++
		}
	}
	if result.Sent > 0 {
		log.Printf("Successfully sent %d reminders", result.Sent)
	}
	return result, nil
}

func (s *Scheduler) deliver(ctx context.Context, t task.Task) ItemResult {
	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.DeliveryTimeout)
	defer cancel()

	if err := s.sender.SendReminder(sendCtx, t.Text, t.DueDisplay, t.ID); err != nil {
		log.Printf("Failed to send reminder for task %d: %v", t.ID, err)
		return ItemResult{TaskID: t.ID, Status: StatusFailed, Err: err}
	}

	// Mark completed after sending to avoid duplicate sends. A user who
	// completed the task between the query and the send makes Complete a
	// no-op, which still counts as delivered.
	done, err := s.store.Complete(ctx, t.ID)
	if err != nil {
		log.Printf("Failed to mark task %d as completed: %v", t.ID, err)
		return ItemResult{TaskID: t.ID, Status: StatusError, Err: err}
	}
	if done {
		log.Printf("Task %d marked as completed after reminder sent", t.ID)
	}
	return ItemResult{TaskID: t.ID, Status: StatusDelivered}
}
