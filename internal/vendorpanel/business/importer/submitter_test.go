package importer

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"gomarketplace_vendor/internal/vendorpanel/models"
	"gomarketplace_vendor/internal/vendorpanel/pkg/clients"
	"gomarketplace_vendor/pkg/logger"
)

type submitterFixture struct {
	*watcherFixture
	api       *fakeImportAPI
	submitter *Submitter
}

func newSubmitterFixture(t *testing.T, opts SubmitterOptions) *submitterFixture {
	t.Helper()
	wf := newWatcherFixture(t, 150, processing())
	api := &fakeImportAPI{
		uploadResult: &models.ImportPreview{
			TransactionID: "tx_1",
			Summary:       models.PreviewSummary{ToCreate: 3, ToUpdate: 1},
		},
		confirmMsg: "Import queued",
	}
	return &submitterFixture{
		watcherFixture: wf,
		api:            api,
		submitter:      NewSubmitter(api, wf.store, wf.watcher, wf.notes, logger.Discard(), opts),
	}
}

func TestSubmitter_UploadStoresPreview(t *testing.T) {
	f := newSubmitterFixture(t, SubmitterOptions{})

	preview, err := f.submitter.Upload(context.Background(), "products.csv", strings.NewReader("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, "tx_1", preview.TransactionID)

	sel := f.submitter.Selection()
	assert.Equal(t, "products.csv", sel.Filename)
	assert.False(t, sel.Pending)
	assert.Same(t, preview, sel.Preview)
	assert.Empty(t, f.notes.all())
}

func TestSubmitter_UploadRejected(t *testing.T) {
	f := newSubmitterFixture(t, SubmitterOptions{})
	f.api.uploadErr = &clients.APIError{StatusCode: http.StatusBadRequest, Message: "Missing column Product Title"}

	_, err := f.submitter.Upload(context.Background(), "products.csv", strings.NewReader("a,b\n"))

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "Missing column Product Title", validation.Message)
	assert.Equal(t, Selection{}, f.submitter.Selection())

	notes := f.notes.all()
	require.Len(t, notes, 1)
	assert.Equal(t, models.LevelError, notes[0].Level)
	assert.Equal(t, "Missing column Product Title", notes[0].Title)
}

func TestSubmitter_UploadTransportError(t *testing.T) {
	f := newSubmitterFixture(t, SubmitterOptions{})
	f.api.uploadErr = errors.New("connection reset by peer")

	_, err := f.submitter.Upload(context.Background(), "products.csv", strings.NewReader("a,b\n"))

	require.Error(t, err)
	var validation *ValidationError
	assert.False(t, errors.As(err, &validation))
	assert.Equal(t, Selection{}, f.submitter.Selection())
	require.Len(t, f.notes.all(), 1)
}

func TestSubmitter_UploadTranscodesWindows1251(t *testing.T) {
	f := newSubmitterFixture(t, SubmitterOptions{SourceEncoding: "windows-1251"})

	encoded, err := charmap.Windows1251.NewEncoder().String("Футболка,Черный\n")
	require.NoError(t, err)

	_, err = f.submitter.Upload(context.Background(), "supplier.csv", strings.NewReader(encoded))
	require.NoError(t, err)
	require.Len(t, f.api.uploaded, 1)
	assert.Equal(t, "Футболка,Черный\n", f.api.uploaded[0])
}

func TestSubmitter_ConfirmRequiresPreview(t *testing.T) {
	f := newSubmitterFixture(t, SubmitterOptions{})

	_, err := f.submitter.Confirm(context.Background(), "tx_1")
	assert.ErrorIs(t, err, ErrNothingToConfirm)

	_, err = f.submitter.Upload(context.Background(), "products.csv", strings.NewReader("a,b\n"))
	require.NoError(t, err)
	_, err = f.submitter.Confirm(context.Background(), "")
	assert.ErrorIs(t, err, ErrNothingToConfirm)
	_, err = f.submitter.Confirm(context.Background(), "tx_stale")
	assert.ErrorIs(t, err, ErrNothingToConfirm)
	assert.Equal(t, "products.csv", f.submitter.Selection().Filename, "a stale id keeps the preview")

	assert.Empty(t, f.api.confirmed)
}

func TestSubmitter_ConfirmHandsOverBeforeReturning(t *testing.T) {
	var (
		called       bool
		markerAtCb   string
		snapshotAtCb WatchSnapshot
	)
	f := newSubmitterFixture(t, SubmitterOptions{})
	f.submitter.opts.OnConfirmed = func(result *models.ConfirmResult) {
		called = true
		markerAtCb, _ = f.persisted(t)
		snapshotAtCb = f.watcher.Snapshot()
		assert.Equal(t, "tx_1", result.TransactionID)
	}

	_, err := f.submitter.Upload(context.Background(), "products.csv", strings.NewReader("a,b\n"))
	require.NoError(t, err)
	result, err := f.submitter.Confirm(context.Background(), "tx_1")
	require.NoError(t, err)

	assert.True(t, called)
	assert.Equal(t, "tx_1", markerAtCb)
	assert.Equal(t, WatchSnapshot{Phase: PhasePolling, TransactionID: "tx_1"}, snapshotAtCb)
	assert.Equal(t, "Import queued", result.Message)
	assert.Equal(t, Selection{}, f.submitter.Selection())

	notes := f.notes.all()
	require.Len(t, notes, 1)
	assert.Equal(t, models.LevelInfo, notes[0].Level)
	assert.Equal(t, "Import started!", notes[0].Title)
	assert.Equal(t, "Import queued", notes[0].Description)
}

func TestSubmitter_ConfirmFailureKeepsPreview(t *testing.T) {
	f := newSubmitterFixture(t, SubmitterOptions{})
	_, err := f.submitter.Upload(context.Background(), "products.csv", strings.NewReader("a,b\n"))
	require.NoError(t, err)

	f.api.confirmErr = &clients.APIError{StatusCode: http.StatusUnprocessableEntity, Message: "Transaction expired"}
	_, err = f.submitter.Confirm(context.Background(), "tx_1")

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "confirm", validation.Op)

	sel := f.submitter.Selection()
	assert.Equal(t, "products.csv", sel.Filename)
	require.NotNil(t, sel.Preview)

	notes := f.notes.all()
	require.Len(t, notes, 1)
	assert.Equal(t, "Transaction expired", notes[0].Title)

	_, ok := f.persisted(t)
	assert.False(t, ok)
	assert.Equal(t, PhaseIdle, f.watcher.Snapshot().Phase)
}

func TestSubmitter_Submit(t *testing.T) {
	f := newSubmitterFixture(t, SubmitterOptions{})
	f.api.confirmMsg = ""

	preview, result, err := f.submitter.Submit(context.Background(), "products.csv", strings.NewReader("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, "tx_1", preview.TransactionID)
	assert.Equal(t, "tx_1", result.TransactionID)
	assert.Equal(t, []string{"tx_1"}, f.api.confirmed)

	notes := f.notes.all()
	require.Len(t, notes, 1)
	assert.Equal(t, "Your products are being imported in the background.", notes[0].Description)
	assert.Equal(t, PhasePolling, f.watcher.Snapshot().Phase)
}
