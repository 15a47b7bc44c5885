package notify

import (
	"sync"

	"gomarketplace_vendor/internal/vendorpanel/models"
	"gomarketplace_vendor/pkg/logger"
)

type Notifier interface {
	Notify(n models.Notification)
}

// NotifierFunc adapts a plain function.
type NotifierFunc func(n models.Notification)

func (f NotifierFunc) Notify(n models.Notification) { f(n) }

// Hub fans notifications out to subscribers without ever blocking the sender:
// a subscriber whose buffer is full misses the notification.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]chan models.Notification
	nextID int
	log    logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		subs: make(map[int]chan models.Notification),
		log:  log,
	}
}

// Subscribe returns the receive side and an idempotent unsubscribe func that closes it.
func (h *Hub) Subscribe(buffer int) (<-chan models.Notification, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan models.Notification, buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Notify(n models.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- n:
		default:
			h.log.Warn("subscriber %d is full, dropped %q", id, n.Title)
		}
	}
}
