package importer

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gomarketplace_vendor/internal/vendorpanel/business/notify"
	"gomarketplace_vendor/internal/vendorpanel/models"
	"gomarketplace_vendor/internal/vendorpanel/storage"
	"gomarketplace_vendor/pkg/logger"
)

// manualScheduler never ticks on its own; tests call fire.
type manualScheduler struct {
	mu       sync.Mutex
	live     map[int]func()
	next     int
	acquired int
	released int
	maxLive  int
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{live: make(map[int]func())}
}

func (s *manualScheduler) Every(_ time.Duration, tick func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	s.live[id] = tick
	s.acquired++
	if len(s.live) > s.maxLive {
		s.maxLive = len(s.live)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.live, id)
			s.released++
		})
	}
}

func (s *manualScheduler) liveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// fire runs the live tick, if any, and reports whether there was one.
func (s *manualScheduler) fire() bool {
	s.mu.Lock()
	var tick func()
	for _, t := range s.live {
		tick = t
	}
	s.mu.Unlock()

	if tick == nil {
		return false
	}
	tick()
	return true
}

// fireAll ticks until the loop ends or limit ticks ran; it returns the number of ticks.
func (s *manualScheduler) fireAll(limit int) int {
	n := 0
	for n < limit && s.fire() {
		n++
	}
	return n
}

type statusResult struct {
	status *models.JobStatus
	err    error
}

// scriptedFetcher answers from script, repeating the last entry once it runs out.
type scriptedFetcher struct {
	mu     sync.Mutex
	script []statusResult
	calls  int
	ids    []string
	onCall func(call int)
}

func (f *scriptedFetcher) Status(_ context.Context, transactionID string) (*models.JobStatus, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.ids = append(f.ids, transactionID)
	idx := call - 1
	if idx >= len(f.script) {
		idx = len(f.script) - 1
	}
	res := f.script[idx]
	hook := f.onCall
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	return res.status, res.err
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func processing() statusResult {
	return statusResult{status: &models.JobStatus{Status: models.JobProcessing}}
}

func completed(created, total, errs int) statusResult {
	return statusResult{status: &models.JobStatus{
		Status:  models.JobCompleted,
		Summary: &models.JobSummary{Created: created, Total: total, Errors: errs},
	}}
}

func failed(message string) statusResult {
	return statusResult{status: &models.JobStatus{Status: models.JobFailed, Error: message}}
}

func networkError() statusResult {
	return statusResult{err: errors.New("dial tcp 127.0.0.1:9000: connection refused")}
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []models.Notification
}

func (r *recordingNotifier) Notify(n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recordingNotifier) all() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notification(nil), r.notes...)
}

var _ notify.Notifier = (*recordingNotifier)(nil)

type watcherFixture struct {
	watcher   *Watcher
	scheduler *manualScheduler
	fetcher   *scriptedFetcher
	store     *storage.MemoryStore
	notes     *recordingNotifier
}

func newWatcherFixture(t *testing.T, maxAttempts int, script ...statusResult) *watcherFixture {
	t.Helper()
	f := &watcherFixture{
		scheduler: newManualScheduler(),
		fetcher:   &scriptedFetcher{script: script},
		store:     storage.NewMemoryStore(),
		notes:     &recordingNotifier{},
	}
	f.watcher = NewWatcher(context.Background(), f.fetcher, f.store, f.notes, f.scheduler,
		WatcherConfig{Interval: 2 * time.Second, MaxAttempts: maxAttempts}, logger.Discard())
	return f
}

func (f *watcherFixture) persisted(t *testing.T) (string, bool) {
	t.Helper()
	id, ok, err := f.store.Load(context.Background())
	require.NoError(t, err)
	return id, ok
}

type fakeImportAPI struct {
	mu           sync.Mutex
	uploadResult *models.ImportPreview
	uploadErr    error
	uploaded     []string
	confirmErr   error
	confirmMsg   string
	confirmed    []string
}

func (a *fakeImportAPI) Upload(_ context.Context, filename string, content io.Reader) (*models.ImportPreview, error) {
	body, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.uploaded = append(a.uploaded, string(body))
	if a.uploadErr != nil {
		return nil, a.uploadErr
	}
	return a.uploadResult, nil
}

func (a *fakeImportAPI) Confirm(_ context.Context, transactionID string) (*models.ConfirmResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.confirmed = append(a.confirmed, transactionID)
	if a.confirmErr != nil {
		return nil, a.confirmErr
	}
	return &models.ConfirmResult{Message: a.confirmMsg, TransactionID: transactionID}, nil
}
