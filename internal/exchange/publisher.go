package exchange

import (
	"fmt"
	"sync"

	"corvusdb/internal/cluster"
)

// MaxListeners bounds committed-cluster-changed listener registrations.
const MaxListeners = 7

// ClusterChangedEvent is delivered to listeners after every committed
// round. Succession is owned by the publisher; listeners must copy it to
// retain it.
type ClusterChangedEvent struct {
	ClusterKey cluster.Key
	Succession []cluster.NodeID
}

// ListenerFunc receives committed cluster change events on the publisher
// worker, outside the exchange lock.
type ListenerFunc func(ClusterChangedEvent)

// eventPublisher delivers committed-cluster-changed events from its own
// worker. It holds a single pending slot: queueing while an event is
// pending replaces it, so only the latest membership is ever published.
type eventPublisher struct {
	mu      sync.Mutex
	pending *sync.Cond

	state  sysState
	queued bool

	toPublish ClusterChangedEvent

	// published is the stable succession snapshot handed to listeners; the
	// dispatcher may overwrite the live succession list immediately after
	// queueing.
	published []cluster.NodeID

	listeners []ListenerFunc

	stopped sync.WaitGroup
}

func newEventPublisher() *eventPublisher {
	p := &eventPublisher{}
	p.pending = sync.NewCond(&p.mu)
	return p
}

func (p *eventPublisher) register(fn ListenerFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.listeners) >= MaxListeners {
		panic(fmt.Sprintf("exchange: cannot register more than %d event listeners", MaxListeners))
	}
	p.listeners = append(p.listeners, fn)
}

// queue stores ev as the pending event, replacing any queued predecessor,
// and wakes the worker.
func (p *eventPublisher) queue(ev ClusterChangedEvent) {
	p.mu.Lock()
	p.published = p.published[:0]
	p.published = append(p.published, ev.Succession...)
	p.toPublish = ClusterChangedEvent{
		ClusterKey: ev.ClusterKey,
		Succession: p.published,
	}
	p.queued = true
	p.mu.Unlock()

	p.pending.Signal()
}

func (p *eventPublisher) start() {
	p.mu.Lock()
	p.state = sysRunning
	p.mu.Unlock()

	p.stopped.Add(1)
	go func() {
		defer p.stopped.Done()
		p.run()
	}()
}

func (p *eventPublisher) run() {
	p.mu.Lock()
	for {
		for p.state == sysRunning && !p.queued {
			p.pending.Wait()
		}
		if p.state != sysRunning {
			p.mu.Unlock()
			return
		}

		p.queued = false
		ev := p.toPublish
		listeners := p.listeners

		// Listeners run outside the publisher lock so they may re-enter
		// exchange accessors.
		p.mu.Unlock()
		for _, fn := range listeners {
			fn(ev)
		}
		p.mu.Lock()
	}
}

func (p *eventPublisher) stop() {
	p.mu.Lock()
	if p.state != sysRunning {
		p.mu.Unlock()
		return
	}
	p.state = sysShuttingDown
	p.mu.Unlock()

	p.pending.Signal()
	p.stopped.Wait()

	p.mu.Lock()
	p.state = sysStopped
	p.queued = false
	p.mu.Unlock()
}
