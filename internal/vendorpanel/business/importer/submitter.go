package importer

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"gomarketplace_vendor/internal/vendorpanel/business/notify"
	"gomarketplace_vendor/internal/vendorpanel/models"
	"gomarketplace_vendor/internal/vendorpanel/storage"
	"gomarketplace_vendor/pkg/logger"
)

const (
	startedNotificationDuration = 5 * time.Second
	defaultStartedDescription   = "Your products are being imported in the background."
)

type ImportAPI interface {
	Upload(ctx context.Context, filename string, content io.Reader) (*models.ImportPreview, error)
	Confirm(ctx context.Context, transactionID string) (*models.ConfirmResult, error)
}

type JobWatcher interface {
	Start(transactionID string)
}

// Selection is the file the vendor picked and what the backend said about it.
type Selection struct {
	Filename string
	Preview  *models.ImportPreview
	Pending  bool
}

type SubmitterOptions struct {
	// SourceEncoding of uploaded files; windows-1251 is transcoded to UTF-8.
	SourceEncoding string
	// OnConfirmed runs last on a successful confirmation, after the watcher started.
	OnConfirmed func(result *models.ConfirmResult)
}

// Submitter turns a file into a running backend import job and hands the job over
// to the watcher.
type Submitter struct {
	api      ImportAPI
	store    storage.WatchStateStore
	watcher  JobWatcher
	notifier notify.Notifier
	log      logger.Logger
	opts     SubmitterOptions

	mu        sync.Mutex
	selection Selection
}

func NewSubmitter(
	api ImportAPI,
	store storage.WatchStateStore,
	watcher JobWatcher,
	notifier notify.Notifier,
	log logger.Logger,
	opts SubmitterOptions,
) *Submitter {
	return &Submitter{
		api:      api,
		store:    store,
		watcher:  watcher,
		notifier: notifier,
		log:      log,
		opts:     opts,
	}
}

func (s *Submitter) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// Clear drops the selected file and its preview.
func (s *Submitter) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = Selection{}
}

// Upload sends the file for preprocessing. On failure the selection is cleared so the
// vendor can pick the file again.
func (s *Submitter) Upload(ctx context.Context, filename string, content io.Reader) (*models.ImportPreview, error) {
	s.mu.Lock()
	s.selection = Selection{Filename: filename, Pending: true}
	s.mu.Unlock()

	preview, err := s.api.Upload(ctx, filename, decodeSource(content, s.opts.SourceEncoding))

	s.mu.Lock()
	current := s.selection.Filename == filename && s.selection.Pending
	if current {
		if err != nil {
			s.selection = Selection{}
		} else {
			s.selection.Pending = false
			s.selection.Preview = preview
		}
	}
	s.mu.Unlock()

	if err != nil {
		// A selection cleared or replaced meanwhile has nobody left to tell.
		if current {
			s.notifyError(userMessage(err), "")
		}
		s.log.Error("upload %s: %s", filename, err)
		return nil, classify("upload", err)
	}

	s.log.Log("preview %s for %s: create %d, update %d, skip %d, %d row errors",
		preview.TransactionID, filename, preview.Summary.ToCreate, preview.Summary.ToUpdate,
		preview.Summary.ToSkip, len(preview.ErrorDetails))
	return preview, nil
}

// Confirm starts the previewed job; transactionID must be the one of the current
// preview. On success it persists the transaction id, starts
// the watcher and runs OnConfirmed, in that order, before returning. On failure the
// preview is kept so the vendor can retry.
func (s *Submitter) Confirm(ctx context.Context, transactionID string) (*models.ConfirmResult, error) {
	s.mu.Lock()
	sel := s.selection
	s.mu.Unlock()
	if transactionID == "" || sel.Filename == "" || sel.Pending || sel.Preview == nil {
		return nil, ErrNothingToConfirm
	}
	if sel.Preview.TransactionID != transactionID {
		return nil, fmt.Errorf("%w: %s is not the previewed transaction %s",
			ErrNothingToConfirm, transactionID, sel.Preview.TransactionID)
	}

	result, err := s.api.Confirm(ctx, transactionID)
	if err != nil {
		s.notifyError(userMessage(err), transactionID)
		s.log.Error("confirm %s: %s", transactionID, err)
		return nil, classify("confirm", err)
	}
	if result.TransactionID == "" {
		result.TransactionID = transactionID
	}

	description := result.Message
	if description == "" {
		description = defaultStartedDescription
	}
	s.notifier.Notify(models.Notification{
		Level:         models.LevelInfo,
		Title:         "Import started!",
		Description:   description,
		Duration:      startedNotificationDuration,
		TransactionID: transactionID,
	})

	// The job is already running on the backend, so a lost marker only costs the
	// recovery after a restart.
	if err := s.store.Save(ctx, transactionID); err != nil {
		s.log.Error("persist pending import %s: %s", transactionID, err)
	}
	s.watcher.Start(transactionID)

	s.mu.Lock()
	s.selection = Selection{}
	s.mu.Unlock()

	if s.opts.OnConfirmed != nil {
		s.opts.OnConfirmed(result)
	}
	return result, nil
}

// Submit is Upload followed by Confirm of the returned preview.
func (s *Submitter) Submit(ctx context.Context, filename string, content io.Reader) (*models.ImportPreview, *models.ConfirmResult, error) {
	preview, err := s.Upload(ctx, filename, content)
	if err != nil {
		return nil, nil, err
	}
	result, err := s.Confirm(ctx, preview.TransactionID)
	if err != nil {
		return preview, nil, fmt.Errorf("confirm %s: %w", preview.TransactionID, err)
	}
	return preview, result, nil
}

func (s *Submitter) notifyError(message, transactionID string) {
	s.notifier.Notify(models.Notification{
		Level:         models.LevelError,
		Title:         message,
		TransactionID: transactionID,
	})
}
