// Package exchange implements the per-cluster-change partition version
// exchange. After every membership change announced by the clustering
// layer, all members trade their per-namespace partition versions, the
// principal coordinates a lockstep commit, and the committed tables are
// handed to the partition-balance engine.
package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"corvusdb/internal/balance"
	"corvusdb/internal/cluster"
	"corvusdb/internal/fabric"
	"corvusdb/internal/metrics"
	"corvusdb/internal/namespace"
)

// ProtocolIdentifier tags every exchange message on the fabric.
const ProtocolIdentifier = 1

// State is the exchange position in the round life cycle.
type State int

const (
	// StateRest: last round committed, nothing in flight.
	StateRest State = iota

	// StateExchanging: data exchange in progress.
	StateExchanging

	// StateReadyToCommit: all data sent and received, waiting for the
	// principal's commit.
	StateReadyToCommit

	// StateOrphaned: this node belongs to no cluster.
	StateOrphaned
)

func (s State) String() string {
	switch s {
	case StateRest:
		return "rest"
	case StateExchanging:
		return "exchanging"
	case StateReadyToCommit:
		return "ready to commit"
	case StateOrphaned:
		return "orphaned"
	default:
		return "unknown"
	}
}

type sysState int

const (
	sysUninitialized sysState = iota
	sysRunning
	sysShuttingDown
	sysStopped
)

// Transport is the fabric surface the exchange drives. Sends must be
// non-blocking or bounded-latency; they are issued while the exchange lock
// is held.
type Transport interface {
	Send(dest cluster.NodeID, msg *fabric.Message) error
	SendList(dests []cluster.NodeID, msg *fabric.Message) error
}

// Heartbeat exposes the heartbeat transmit interval the retransmit
// timeouts are derived from.
type Heartbeat interface {
	TxInterval() time.Duration
}

// Clustering exposes the membership service's quantum interval, which
// sizes the orphan transaction-block timeout.
type Clustering interface {
	QuantumInterval() time.Duration
}

// Params carries the collaborators an Exchange is built around.
type Params struct {
	Self       cluster.NodeID
	Registry   *namespace.Registry
	Transport  Transport
	Balance    balance.Engine
	Heartbeat  Heartbeat
	Clustering Clustering
}

// Exchange is the subsystem singleton. One mutex serializes every event
// (clustering, fabric message, timer); helpers suffixed Locked assume it
// is held. The committed snapshot has its own lock so accessors stay safe
// from listener callbacks while a round is being processed.
type Exchange struct {
	mu sync.Mutex

	self       cluster.NodeID
	registry   *namespace.Registry
	transport  Transport
	balance    balance.Engine
	heartbeat  Heartbeat
	clustering Clustering

	// now is the clock; replaced in tests.
	now func() time.Time

	sysState sysState
	state    State

	clusterKey cluster.Key
	succession []cluster.NodeID
	principal  cluster.NodeID

	sendTS            time.Time
	readyToCommitTS   time.Time
	orphanSince       time.Time
	orphanTxnsBlocked bool

	peers map[cluster.NodeID]*peerState

	// selfPayload is this node's serialized namespaces payload for the
	// current round; the buffer is reused across rounds.
	selfPayload []byte

	committedMu         sync.RWMutex
	committedKey        cluster.Key
	committedSuccession []cluster.NodeID
	committedPrincipal  cluster.NodeID

	publisher *eventPublisher

	timerDone chan struct{}
	stopped   sync.WaitGroup
}

// New builds the exchange in the orphaned state with client transactions
// blocked, and registers its message handler with the fabric transport.
func New(p Params, register func(fabric.Handler)) *Exchange {
	e := &Exchange{
		self:       p.Self,
		registry:   p.Registry,
		transport:  p.Transport,
		balance:    p.Balance,
		heartbeat:  p.Heartbeat,
		clustering: p.Clustering,
		now:        time.Now,
		state:      StateOrphaned,
		peers:      make(map[cluster.NodeID]*peerState),
		publisher:  newEventPublisher(),
	}
	e.orphanSince = e.now()
	e.orphanTxnsBlocked = true
	metrics.ExchangeState.Set(float64(StateOrphaned))

	if register != nil {
		register(e.HandleFabricMessage)
	}

	slog.Debug("exchange initialized", "node_id", e.self)
	return e
}

// Start spawns the timer and publisher workers.
func (e *Exchange) Start() {
	e.mu.Lock()
	if e.sysState == sysRunning {
		e.mu.Unlock()
		return
	}
	e.sysState = sysRunning
	e.timerDone = make(chan struct{})
	e.mu.Unlock()

	e.stopped.Add(1)
	go func() {
		defer e.stopped.Done()
		e.runTimer()
	}()

	e.publisher.start()

	slog.Debug("exchange started", "node_id", e.self)
}

// Stop joins the timer worker, then the publisher. Idempotent.
func (e *Exchange) Stop() {
	e.mu.Lock()
	if e.sysState != sysRunning {
		e.mu.Unlock()
		slog.Warn("exchange is already stopped")
		return
	}
	e.sysState = sysShuttingDown
	close(e.timerDone)
	e.mu.Unlock()

	e.stopped.Wait()

	e.mu.Lock()
	e.sysState = sysStopped
	e.mu.Unlock()

	e.publisher.stop()

	slog.Debug("exchange stopped", "node_id", e.self)
}

func (e *Exchange) isRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sysState == sysRunning
}

// RegisterListener adds a committed-cluster-changed listener. At most
// MaxListeners may register; exceeding that is a programming error and
// panics.
func (e *Exchange) RegisterListener(fn ListenerFunc) {
	e.publisher.register(fn)
}

// HandleClusteringEvent is the entry point for the clustering layer.
func (e *Exchange) HandleClusteringEvent(ev cluster.Event) {
	if !e.isRunning() {
		slog.Debug("exchange stopped - ignoring cluster change event")
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch ev.Kind {
	case cluster.EventOrphaned:
		e.handleOrphanedLocked()
	case cluster.EventChanged:
		e.handleClusterChangedLocked(ev)
	}
}

// HandleFabricMessage is the entry point for inbound fabric messages.
func (e *Exchange) HandleFabricMessage(source cluster.NodeID, msg *fabric.Message) {
	if !e.isRunning() {
		slog.Debug("exchange stopped - ignoring message", "source", source)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.msgIsSaneLocked(source, msg) {
		return
	}
	metrics.ExchangeMessagesTotal.WithLabelValues("in", msgTypeName(msg.Type)).Inc()

	switch e.state {
	case StateRest:
		e.restMsgLocked(source, msg)
	case StateExchanging:
		e.exchangingMsgLocked(source, msg)
	case StateReadyToCommit:
		e.readyToCommitMsgLocked(source, msg)
	case StateOrphaned:
		// No messages are expected while orphaned; the sanity gate already
		// rejected them (cluster key is zero).
	}
}

func (e *Exchange) handleTimerEvent() {
	if !e.isRunning() {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateExchanging:
		e.exchangingTimerLocked()
	case StateReadyToCommit:
		e.readyToCommitTimerLocked()
	case StateOrphaned:
		e.orphanTimerLocked()
	case StateRest:
	}
}

func (e *Exchange) setStateLocked(s State) {
	e.state = s
	metrics.ExchangeState.Set(float64(s))
}

func (e *Exchange) selfIsPrincipalLocked() bool {
	return e.self == e.principal
}

// resetRoundLocked rewires the round state for a new succession list.
// succession is nil and key zero for the orphaned state.
func (e *Exchange) resetRoundLocked(succession []cluster.NodeID, key cluster.Key) {
	e.succession = e.succession[:0]
	e.principal = 0

	if len(succession) > 0 {
		e.succession = append(e.succession, succession...)
		e.principal = e.succession[0]
	}

	e.resetPeersLocked()
	e.clusterKey = key
}

// Committed snapshot accessors. These take only the snapshot lock so
// listener callbacks and administrative surfaces can call them while an
// exchange event is being processed.

// CommittedClusterKey returns the cluster key of the last committed round.
func (e *Exchange) CommittedClusterKey() cluster.Key {
	e.committedMu.RLock()
	defer e.committedMu.RUnlock()
	return e.committedKey
}

// CommittedClusterSize returns the size of the last committed succession
// list.
func (e *Exchange) CommittedClusterSize() int {
	e.committedMu.RLock()
	defer e.committedMu.RUnlock()
	return len(e.committedSuccession)
}

// CommittedSuccession returns a copy of the last committed succession list.
func (e *Exchange) CommittedSuccession() []cluster.NodeID {
	e.committedMu.RLock()
	defer e.committedMu.RUnlock()
	return cluster.CopyNodes(e.committedSuccession)
}

// CommittedPrincipal returns the principal of the last committed round.
func (e *Exchange) CommittedPrincipal() cluster.NodeID {
	e.committedMu.RLock()
	defer e.committedMu.RUnlock()
	return e.committedPrincipal
}

// InfoSuccession renders the committed succession list for the info
// surface: comma separated hex node ids followed by "\nok".
func (e *Exchange) InfoSuccession() string {
	e.committedMu.RLock()
	defer e.committedMu.RUnlock()

	var b strings.Builder
	b.WriteString(cluster.FormatNodes(e.committedSuccession))
	b.WriteString("\nok")
	return b.String()
}

// Dump logs the current exchange state at the requested severity.
func (e *Exchange) Dump(level slog.Level, verbose bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	log := func(msg string, args ...any) {
		slog.Default().Log(context.Background(), level, msg, args...)
	}

	log("EXG: state", "state", e.state.String())

	if e.state == StateOrphaned {
		log("EXG: orphan",
			"transactions_blocked", e.orphanTxnsBlocked,
			"orphan_since_ms", e.now().Sub(e.orphanSince).Milliseconds(),
		)
		return
	}

	log("EXG: cluster", "cluster_key", e.clusterKey, "succession", cluster.FormatNodes(e.succession))

	if verbose {
		log("EXG: send pending", "nodes", cluster.FormatNodes(e.sendUnackedLocked()))
		log("EXG: receive pending", "nodes", cluster.FormatNodes(e.notReceivedLocked()))
		if e.selfIsPrincipalLocked() {
			log("EXG: ready to commit pending", "nodes", cluster.FormatNodes(e.notReadyToCommitLocked()))
		}
	}
}

// String summarizes the exchange for debugging.
func (e *Exchange) String() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fmt.Sprintf("exchange{node=%s state=%s key=%s}", e.self, e.state, e.clusterKey)
}
