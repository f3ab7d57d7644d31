package eventbus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingHandler struct {
	mu    sync.Mutex
	count int
	done  chan struct{}
}

func newCountingHandler() *countingHandler {
	return &countingHandler{done: make(chan struct{}, 16)}
}

func (h *countingHandler) HandleEvent(_ Event) error {
	h.mu.Lock()
	h.count++
	h.mu.Unlock()
	h.done <- struct{}{}
	return nil
}

func (h *countingHandler) wait(t *testing.T) {
	t.Helper()
	select {
	case <-h.done:
	case <-time.After(time.Second):
		t.Fatal("事件分发超时")
	}
}

func (h *countingHandler) total() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

func TestPublishSubscribe(t *testing.T) {
	bus := NewEventBus()
	handler := newCountingHandler()

	assert.NoError(t, bus.Subscribe(handler))
	assert.NoError(t, bus.Publish(NewBaseEvent(EventTypeVisit, map[string]interface{}{"ip": "1.2.3.4"})))

	handler.wait(t)
	assert.Equal(t, 1, handler.total())
}

func TestUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	handler := newCountingHandler()

	assert.NoError(t, bus.Subscribe(handler))
	assert.NoError(t, bus.Unsubscribe(handler))
	assert.NoError(t, bus.Publish(NewBaseEvent(EventTypeVisit, nil)))

	// 已退订的处理器不应再收到事件
	select {
	case <-handler.done:
		t.Fatal("退订后仍收到事件")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPublishNilEvent(t *testing.T) {
	bus := NewEventBus()
	assert.Error(t, bus.Publish(nil))
	assert.Error(t, bus.Subscribe(nil))
	assert.Error(t, bus.Unsubscribe(nil))
}
