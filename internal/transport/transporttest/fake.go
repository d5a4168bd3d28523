// Package transporttest provides a Transport double that records every
// batch it is given.
package transporttest

import (
	"context"
	"errors"
	"sync"

	"github.com/leshachaplin/nomad/internal/domain"
)

var ErrFailing = errors.New("transporttest: send failed")

type Fake struct {
	mu      sync.Mutex
	batches [][]domain.Event
	fail    bool
	block   chan struct{}
	entered chan struct{}
}

func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) Send(ctx context.Context, batch []domain.Event) error {
	f.mu.Lock()
	sent := make([]domain.Event, len(batch))
	copy(sent, batch)
	f.batches = append(f.batches, sent)
	fail, block, entered := f.fail, f.block, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if fail {
		return ErrFailing
	}
	return nil
}

// SetFail makes subsequent sends report failure.
func (f *Fake) SetFail(fail bool) {
	f.mu.Lock()
	f.fail = fail
	f.mu.Unlock()
}

// Block makes subsequent sends signal on the returned entered channel and
// then wait until release is called.
func (f *Fake) Block() (entered <-chan struct{}, release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	block := make(chan struct{})
	ch := make(chan struct{}, 16)
	f.block = block
	f.entered = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			f.block = nil
			f.entered = nil
			f.mu.Unlock()
			close(block)
		})
	}
}

func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func (f *Fake) Batches() [][]domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]domain.Event, len(f.batches))
	copy(out, f.batches)
	return out
}

func (f *Fake) LastBatch() []domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		return nil
	}
	return f.batches[len(f.batches)-1]
}
