package monitor

import (
	"sync"
)

// PendingBook tracks outstanding sell volume per asset so that two exit
// triggers firing close together (say, a stop loss and a risk reduction)
// never double-sell the same balance. Acquire before submitting a sell and
// release on every outcome, success or failure.
type PendingBook struct {
	mu      sync.Mutex
	pending map[string]float64
}

func NewPendingBook() *PendingBook {
	return &PendingBook{pending: make(map[string]float64)}
}

// Pending returns the currently outstanding sell volume for asset.
func (b *PendingBook) Pending(asset string) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending[asset]
}

// Acquire reserves amount of pending sell volume for asset and returns the
// release function. Release is idempotent and clamps at zero, so calling it
// on both a success and a deferred cleanup path cannot drive the counter
// negative.
func (b *PendingBook) Acquire(asset string, amount float64) func() {
	if amount <= 0 {
		return func() {}
	}
	b.mu.Lock()
	b.pending[asset] += amount
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			next := b.pending[asset] - amount
			if next <= 0 {
				delete(b.pending, asset)
				return
			}
			b.pending[asset] = next
		})
	}
}
