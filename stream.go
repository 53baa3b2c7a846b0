package watchpager

import (
	"context"
	"sync"
)

// Stream subscribes to the pager and returns the deliveries as a channel.
// The channel is closed once ctx is done or the pager is closed; the pager
// is cancelled at that point. A slow reader holds up the goroutine
// delivering results, not the pager state.
//
// Stream replaces any previous subscriber, the same way Subscribe does.
func (p *Pager[IQ, PQ, ID, PD, P]) Stream(ctx context.Context) <-chan Result[ID, PD] {
	var (
		ch     = make(chan Result[ID, PD], 1)
		mu     sync.Mutex
		closed bool
	)

	stop := p.Subscribe(func(r Result[ID, PD]) {
		mu.Lock()
		defer mu.Unlock()

		if closed {
			return
		}

		select {
		case ch <- r:
		case <-ctx.Done():
		case <-p.done:
		}
	})

	go func() {
		select {
		case <-ctx.Done():
		case <-p.done:
		}
		stop()

		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()

	return ch
}
