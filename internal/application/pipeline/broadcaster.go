package pipeline

import (
	"sync"

	"yt-ebook-api/internal/domain/entity"
)

const subscriberBuffer = 64

// broadcaster 把日志条目扇出给订阅者；订阅者队列满时丢弃，不阻塞流水线
type broadcaster struct {
	mu     sync.Mutex
	subs   map[chan entity.GenerationLogEntry]struct{}
	closed bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[chan entity.GenerationLogEntry]struct{})}
}

func (b *broadcaster) subscribe() (<-chan entity.GenerationLogEntry, func()) {
	ch := make(chan entity.GenerationLogEntry, subscriberBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
		})
	}
}

func (b *broadcaster) publish(entry entity.GenerationLogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- entry:
		default:
		}
	}
}

// close 关闭全部订阅通道，之后的订阅立即得到已关闭的通道
func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		close(ch)
		delete(b.subs, ch)
	}
}
