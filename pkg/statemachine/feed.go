package statemachine

import (
	"context"
	"sync"
)

// changeFeed fans change events out to channel subscribers.
// Events are dropped for a subscriber whose buffer is full rather than blocking the transition.
// All methods are safe for concurrent use.
type changeFeed struct {
	subscribers map[*feedSubscriber]struct{}
	bufferSize  int
	closed      bool
	done        chan struct{}
	mu          sync.RWMutex
	cleanupWg   sync.WaitGroup
}

type feedSubscriber struct {
	ch     chan StateChangeEvent
	closed bool
	mu     sync.Mutex
}

func newChangeFeed(bufferSize int) *changeFeed {
	return &changeFeed{
		subscribers: make(map[*feedSubscriber]struct{}),
		bufferSize:  max(bufferSize, 1),
		done:        make(chan struct{}),
	}
}

// subscribe returns a channel that is closed when ctx is cancelled or the feed closes.
func (f *changeFeed) subscribe(ctx context.Context) <-chan StateChangeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	sub := &feedSubscriber{ch: make(chan StateChangeEvent, f.bufferSize)}
	if f.closed {
		sub.close()
		return sub.ch
	}
	f.subscribers[sub] = struct{}{}

	if ctx.Done() != nil {
		f.cleanupWg.Add(1)
		go func() {
			defer f.cleanupWg.Done()
			select {
			case <-ctx.Done():
				f.unsubscribe(sub)
			case <-f.done:
			}
		}()
	}

	return sub.ch
}

// publish returns the number of subscribers that missed evt because their buffer was full.
func (f *changeFeed) publish(evt StateChangeEvent) int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return 0
	}

	dropped := 0
	for sub := range f.subscribers {
		if !sub.send(evt) {
			dropped++
		}
	}
	return dropped
}

func (f *changeFeed) size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers)
}

func (f *changeFeed) close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	close(f.done)
	for sub := range f.subscribers {
		sub.close()
	}
	clear(f.subscribers)
	f.mu.Unlock()

	f.cleanupWg.Wait()
}

func (f *changeFeed) unsubscribe(sub *feedSubscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.subscribers, sub)
	sub.close()
}

func (s *feedSubscriber) send(evt StateChangeEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.ch <- evt:
		return true
	default:
		return false
	}
}

func (s *feedSubscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		s.closed = true
	}
}
