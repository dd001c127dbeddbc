// Package notify is the outbound notification port. Sends are fire-and-
// forget: a slow or failing channel must never hold up a decision cycle.
package notify

import (
	"sync"

	"solhelm/internal/logger"
)

// TextNotifier is a minimal text notification interface so components can
// depend on it without importing concrete transports.
type TextNotifier interface {
	SendText(text string) error
}

// Nop discards all notifications.
type Nop struct{}

func (Nop) SendText(string) error { return nil }

// Async decouples senders from the underlying transport through a bounded
// queue. When the queue is full the message is dropped and counted; trading
// never blocks on notification delivery.
type Async struct {
	next  TextNotifier
	queue chan string

	mu      sync.Mutex
	dropped int64
	done    chan struct{}
}

func NewAsync(next TextNotifier, depth int) *Async {
	if depth <= 0 {
		depth = 64
	}
	a := &Async{
		next:  next,
		queue: make(chan string, depth),
		done:  make(chan struct{}),
	}
	go a.drain()
	return a
}

func (a *Async) SendText(text string) error {
	select {
	case a.queue <- text:
	default:
		a.mu.Lock()
		a.dropped++
		n := a.dropped
		a.mu.Unlock()
		logger.Warnf("notify: queue full, dropped message (%d total)", n)
	}
	return nil
}

// Dropped reports how many messages were discarded on a full queue.
func (a *Async) Dropped() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Close stops the drain loop after the queued messages are flushed.
func (a *Async) Close() {
	close(a.queue)
	<-a.done
}

func (a *Async) drain() {
	defer close(a.done)
	for text := range a.queue {
		if err := a.next.SendText(text); err != nil {
			logger.Warnf("notify: send failed: %v", err)
		}
	}
}
