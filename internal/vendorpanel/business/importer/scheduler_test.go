package importer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomarketplace_vendor/internal/vendorpanel/pkg/clients"
	"gomarketplace_vendor/internal/vendorpanel/storage"
	"gomarketplace_vendor/pkg/logger"
)

func TestClockScheduler_TicksUntilCancelled(t *testing.T) {
	mock := clock.NewMock()
	s := NewClockScheduler(mock)

	var ticks atomic.Int32
	cancel := s.Every(2*time.Second, func() { ticks.Add(1) })

	mock.Add(2 * time.Second)
	require.Eventually(t, func() bool { return ticks.Load() == 1 }, time.Second, time.Millisecond)

	mock.Add(2 * time.Second)
	require.Eventually(t, func() bool { return ticks.Load() == 2 }, time.Second, time.Millisecond)

	cancel()
	cancel()
	mock.Add(10 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 2, ticks.Load())
}

func TestWatcher_AgainstBackend(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vendor/products/import/tx_9/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) < 2 {
			_, _ = w.Write([]byte(`{"status":"processing"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"completed","summary":{"total":4,"created":4,"errors":0}}`))
	}))
	defer srv.Close()

	client := clients.NewImportClient(clients.ClientConfig{BaseURL: srv.URL}, "", logger.Discard())
	store := storage.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), "tx_9"))
	notes := &recordingNotifier{}
	mock := clock.NewMock()

	w := NewWatcher(context.Background(), client, store, notes, NewClockScheduler(mock),
		WatcherConfig{Interval: 2 * time.Second}, logger.Discard())
	w.Start("tx_9")

	for i := 0; i < 2; i++ {
		want := int32(i + 1)
		mock.Add(2 * time.Second)
		require.Eventually(t, func() bool { return calls.Load() == want }, 2*time.Second, time.Millisecond)
	}

	snap, err := waitWithTimeout(w, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, PhaseTerminal, snap.Phase)
	require.Len(t, notes.all(), 1)
	assert.Equal(t, "Successfully imported 4 of 4 products.", notes.all()[0].Description)

	_, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func waitWithTimeout(w *Watcher, d time.Duration) (WatchSnapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return w.Wait(ctx)
}
