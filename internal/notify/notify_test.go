package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	block    chan struct{}
}

func (r *recordingNotifier) SendText(text string) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, text)
	return nil
}

func (r *recordingNotifier) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func TestAsyncDeliversInOrder(t *testing.T) {
	rec := &recordingNotifier{}
	a := NewAsync(rec, 8)
	require.NoError(t, a.SendText("one"))
	require.NoError(t, a.SendText("two"))
	a.Close()
	assert.Equal(t, []string{"one", "two"}, rec.all())
}

func TestAsyncDropsWhenFull(t *testing.T) {
	rec := &recordingNotifier{block: make(chan struct{})}
	a := NewAsync(rec, 1)

	// First message occupies the drain goroutine, second fills the queue,
	// third has nowhere to go.
	require.NoError(t, a.SendText("one"))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, a.SendText("two"))
	require.NoError(t, a.SendText("three"))
	assert.Equal(t, int64(1), a.Dropped())

	close(rec.block)
	a.Close()
	assert.Equal(t, []string{"one", "two"}, rec.all())
}

func TestAsyncSendNeverBlocks(t *testing.T) {
	rec := &recordingNotifier{block: make(chan struct{})}
	a := NewAsync(rec, 1)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			_ = a.SendText("x")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SendText blocked on a slow transport")
	}
	close(rec.block)
	a.Close()
}

func TestTelegramRequiresConfiguration(t *testing.T) {
	err := NewTelegram("", "").SendText("hello")
	require.Error(t, err)
}
