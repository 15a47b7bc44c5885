package importer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gomarketplace_vendor/config"
	"gomarketplace_vendor/internal/vendorpanel/business/notify"
	"gomarketplace_vendor/internal/vendorpanel/models"
	"gomarketplace_vendor/internal/vendorpanel/storage"
	"gomarketplace_vendor/metrics"
	"gomarketplace_vendor/pkg/logger"
)

const (
	terminalNotificationDuration = 10 * time.Second
	defaultFailureDescription    = "An error occurred during import."
)

type StatusFetcher interface {
	Status(ctx context.Context, transactionID string) (*models.JobStatus, error)
}

type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhasePolling  Phase = "polling"
	PhaseTerminal Phase = "terminal"
)

type WatchSnapshot struct {
	Phase         Phase  `json:"phase"`
	TransactionID string `json:"transaction_id,omitempty"`
	Attempts      int    `json:"attempts"`
}

type WatcherConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

func (c *WatcherConfig) normalize() {
	if c.Interval <= 0 {
		c.Interval = config.DefaultPollInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = config.DefaultMaxAttempts
	}
}

// Watcher polls the status of one import job at a time until the job is completed
// or failed, or the attempt budget runs out. It belongs to the application, not to
// whoever started it: the loop keeps going after the caller returns.
//
// Every loop gets a generation number. Start, Stop and the terminal transition all
// bump it, so a status response that arrives for an older generation is dropped.
type Watcher struct {
	base      context.Context
	fetcher   StatusFetcher
	store     storage.WatchStateStore
	notifier  notify.Notifier
	scheduler Scheduler
	cfg       WatcherConfig
	log       logger.Logger
	metrics   *metrics.WatchMetrics

	mu         sync.Mutex
	generation uint64
	cancelTick func()
	snapshot   WatchSnapshot
	done       chan struct{}
}

// NewWatcher binds status queries to base; cancel base to abort in-flight queries on shutdown.
func NewWatcher(
	base context.Context,
	fetcher StatusFetcher,
	store storage.WatchStateStore,
	notifier notify.Notifier,
	scheduler Scheduler,
	cfg WatcherConfig,
	log logger.Logger,
) *Watcher {
	cfg.normalize()
	return &Watcher{
		base:      base,
		fetcher:   fetcher,
		store:     store,
		notifier:  notifier,
		scheduler: scheduler,
		cfg:       cfg,
		log:       log,
		metrics:   &metrics.WatchMetrics{},
		snapshot:  WatchSnapshot{Phase: PhaseIdle},
	}
}

// Start begins watching transactionID from attempt zero. A loop that is already
// running, for this id or another, is cancelled first.
func (w *Watcher) Start(transactionID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopLocked()

	w.generation++
	gen := w.generation
	w.snapshot = WatchSnapshot{Phase: PhasePolling, TransactionID: transactionID}
	w.done = make(chan struct{})
	w.metrics.Started()
	w.log.Log("watching import %s every %s, at most %d attempts", transactionID, w.cfg.Interval, w.cfg.MaxAttempts)

	w.cancelTick = w.scheduler.Every(w.cfg.Interval, func() {
		w.tick(gen, transactionID)
	})
}

// Stop cancels the running loop. The persisted marker is kept, so Recover resumes it later.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
}

func (w *Watcher) stopLocked() {
	if w.snapshot.Phase != PhasePolling {
		return
	}
	w.releaseLocked()
	w.snapshot.Phase = PhaseIdle
	if w.done != nil {
		close(w.done)
		w.done = nil
	}
	w.metrics.Finished(metrics.OutcomeStopped)
	w.log.Log("stopped watching import %s after %d attempts", w.snapshot.TransactionID, w.snapshot.Attempts)
}

// releaseLocked drops the timer and invalidates the current generation.
func (w *Watcher) releaseLocked() {
	if w.cancelTick != nil {
		w.cancelTick()
		w.cancelTick = nil
	}
	w.generation++
}

// Recover resumes the watch recorded in the store, if any.
func (w *Watcher) Recover(ctx context.Context) (bool, error) {
	transactionID, ok, err := w.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("recover pending import: %w", err)
	}
	if !ok {
		return false, nil
	}
	w.log.Log("found pending import %s", transactionID)
	w.Start(transactionID)
	return true, nil
}

func (w *Watcher) Snapshot() WatchSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot
}

// Metrics exposes the process-local counters of this watcher.
func (w *Watcher) Metrics() *metrics.WatchMetrics {
	return w.metrics
}

// Wait blocks until the watcher is no longer polling and the terminal notification,
// if any, has been published. It returns the state at that moment.
func (w *Watcher) Wait(ctx context.Context) (WatchSnapshot, error) {
	for {
		w.mu.Lock()
		done := w.done
		snap := w.snapshot
		w.mu.Unlock()
		if done == nil {
			return snap, nil
		}

		select {
		case <-done:
		case <-ctx.Done():
			return w.Snapshot(), ctx.Err()
		}
	}
}

func (w *Watcher) tick(gen uint64, transactionID string) {
	w.mu.Lock()
	if gen != w.generation {
		w.mu.Unlock()
		return
	}
	w.snapshot.Attempts++
	attempt := w.snapshot.Attempts
	w.mu.Unlock()

	w.metrics.Poll()
	status, err := w.fetcher.Status(w.base, transactionID)

	w.mu.Lock()
	if gen != w.generation {
		w.mu.Unlock()
		w.log.Log("dropping stale status of %s (attempt %d)", transactionID, attempt)
		return
	}

	var note *models.Notification
	outcome := ""
	switch {
	case err != nil:
		w.metrics.TransientError()
		w.log.Warn("status of %s, attempt %d/%d: %s", transactionID, attempt, w.cfg.MaxAttempts, err)
	case status == nil:
	case status.Status == models.JobCompleted:
		outcome = metrics.OutcomeCompleted
		note = completedNotification(transactionID, status.Summary)
	case status.Status == models.JobFailed:
		outcome = metrics.OutcomeFailed
		note = failedNotification(transactionID, status.Error)
	}
	if outcome == "" && attempt >= w.cfg.MaxAttempts {
		outcome = metrics.OutcomeAbandoned
		w.log.Warn("import %s still not finished after %d attempts, giving up on the client side", transactionID, attempt)
	}
	var done chan struct{}
	if outcome != "" {
		done = w.finishLocked(outcome)
	}
	w.mu.Unlock()

	if note != nil {
		w.notifier.Notify(*note)
	}
	if done != nil {
		w.mu.Lock()
		if w.done == done {
			w.done = nil
		}
		w.mu.Unlock()
		close(done)
	}
}

// finishLocked moves to Terminal and clears the marker of the finished job. A marker
// already saved for the next job is left alone. The returned channel is closed by the
// caller once the outcome has been published.
func (w *Watcher) finishLocked(outcome string) chan struct{} {
	w.releaseLocked()
	w.snapshot.Phase = PhaseTerminal
	w.metrics.Finished(outcome)
	if err := w.store.Clear(w.base, w.snapshot.TransactionID); err != nil {
		w.log.Error("clear pending import %s: %s", w.snapshot.TransactionID, err)
	}
	w.log.Log("import %s: %s after %d attempts", w.snapshot.TransactionID, outcome, w.snapshot.Attempts)
	return w.done
}

func completedNotification(transactionID string, summary *models.JobSummary) *models.Notification {
	description := "Your products have been imported."
	if summary != nil {
		description = fmt.Sprintf("Successfully imported %d of %d products.", summary.Created, summary.Total)
		if summary.Errors > 0 {
			description += fmt.Sprintf(" %d errors occurred.", summary.Errors)
		}
	}
	return &models.Notification{
		Level:         models.LevelSuccess,
		Title:         "Import completed!",
		Description:   description,
		Duration:      terminalNotificationDuration,
		TransactionID: transactionID,
	}
}

func failedNotification(transactionID, message string) *models.Notification {
	if message == "" {
		message = defaultFailureDescription
	}
	return &models.Notification{
		Level:         models.LevelError,
		Title:         "Import failed",
		Description:   message,
		Duration:      terminalNotificationDuration,
		TransactionID: transactionID,
	}
}
