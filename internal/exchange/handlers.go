package exchange

import (
	"log/slog"
	"time"

	"corvusdb/internal/cluster"
	"corvusdb/internal/fabric"
	"corvusdb/internal/metrics"
)

const (
	// timerTickInterval paces the timer worker.
	timerTickInterval = 75 * time.Millisecond

	// sendTimeoutFloor bounds the send timeout from below regardless of
	// the heartbeat interval.
	sendTimeoutFloor = 75 * time.Millisecond

	// sendTimeoutCeiling bounds the send timeout from above.
	sendTimeoutCeiling = 30 * time.Second

	// orphanBlockIntervals is how many quantum intervals a node may stay
	// orphaned before client transactions are blocked.
	orphanBlockIntervals = 5

	// orphanBlockRounding rounds the orphan block timeout up.
	orphanBlockRounding = 5 * time.Second
)

func (e *Exchange) sendMinTimeout() time.Duration {
	return max(sendTimeoutFloor, e.heartbeat.TxInterval()/2)
}

func (e *Exchange) sendStepInterval() time.Duration {
	return max(e.sendMinTimeout(), e.heartbeat.TxInterval())
}

func (e *Exchange) readyToCommitTimeout() time.Duration {
	return e.sendMinTimeout()
}

func (e *Exchange) orphanBlockTimeout() time.Duration {
	timeout := e.clustering.QuantumInterval() * orphanBlockIntervals
	return ((timeout + orphanBlockRounding - 1) / orphanBlockRounding) * orphanBlockRounding
}

/*
 * Clustering events, common to all states.
 */

// handleOrphanedLocked aborts any round in flight and parks the node in
// the orphaned state.
func (e *Exchange) handleOrphanedLocked() {
	slog.Debug("got orphaned event")

	if e.state != StateRest && e.state != StateOrphaned {
		slog.Info("aborting partition exchange", "cluster_key", e.clusterKey)
		metrics.ExchangeRoundsAborted.Inc()
	}

	e.setStateLocked(StateOrphaned)
	e.resetRoundLocked(nil, 0)

	e.balance.DisallowMigrations()
	e.balance.SynchronizeMigrations()

	// Transactions have not yet been blocked for this orphan transition.
	e.orphanTxnsBlocked = false
	e.orphanSince = e.now()
}

// handleClusterChangedLocked starts a new exchange round for the announced
// membership, pre-empting whatever round was in flight.
func (e *Exchange) handleClusterChangedLocked(ev cluster.Event) {
	slog.Debug("got cluster change event")

	if e.state != StateRest && e.state != StateOrphaned {
		slog.Info("aborting partition exchange", "cluster_key", e.clusterKey)
		metrics.ExchangeRoundsAborted.Inc()
	}

	e.resetRoundLocked(ev.Succession, ev.ClusterKey)
	e.setStateLocked(StateExchanging)

	slog.Info("data exchange started", "cluster_key", e.clusterKey)
	metrics.ExchangeRoundsStarted.Inc()

	e.prepareSelfPayloadLocked()
	e.sendDataToUnackedLocked()
}

// prepareSelfPayloadLocked freezes partition versions and rebuilds this
// node's payload for the round.
func (e *Exchange) prepareSelfPayloadLocked() {
	e.balance.DisallowMigrations()
	e.balance.SynchronizeMigrations()

	e.selfPayload = buildNamespacesPayload(e.registry, e.selfPayload[:0])
}

/*
 * Orphaned state.
 */

// orphanTimerLocked blocks client transactions once the node has been
// orphaned longer than the block timeout, exactly once per orphan
// transition.
func (e *Exchange) orphanTimerLocked() {
	timeout := e.orphanBlockTimeout()

	if e.orphanTxnsBlocked || e.now().Sub(e.orphanSince) <= timeout {
		return
	}
	e.orphanTxnsBlocked = true

	slog.Warn("blocking client transactions - in orphan state too long",
		"timeout_ms", timeout.Milliseconds())
	metrics.ExchangeOrphanBlocks.Inc()
	e.balance.RevertToOrphan()
}

/*
 * Rest state.
 */

func (e *Exchange) restMsgLocked(source cluster.NodeID, msg *fabric.Message) {
	if e.selfIsPrincipalLocked() && msg.Type == msgTypeReadyToCommit {
		// The commit message did not make it to the source node; resend it.
		slog.Debug("received ready to commit at rest", "source", source)
		e.sendCommitLocked(source)
		return
	}

	slog.Debug("rest state received unexpected message",
		"type", msgTypeName(msg.Type), "source", source)
}

/*
 * Exchanging state.
 */

func (e *Exchange) exchangingMsgLocked(source cluster.NodeID, msg *fabric.Message) {
	switch msg.Type {
	case msgTypeData:
		e.exchangingDataLocked(source, msg)
	case msgTypeDataAck:
		e.exchangingDataAckLocked(source)
	default:
		slog.Debug("exchanging state received unexpected message",
			"type", msgTypeName(msg.Type), "source", source)
	}
}

func (e *Exchange) exchangingDataLocked(source cluster.NodeID, msg *fabric.Message) {
	slog.Debug("received exchange data", "source", source)

	st := e.peerStateLocked(source)
	if !st.received {
		if err := validatePayload(msg.Payload); err != nil {
			slog.Warn("received invalid exchange data payload", "source", source, "error", err)
			return
		}
		st.setData(msg.Payload)
		st.received = true
	} else {
		slog.Info("received duplicate exchange data", "source", source)
	}

	e.sendDataAckLocked(source)
	e.checkSwitchReadyToCommitLocked()
}

func (e *Exchange) exchangingDataAckLocked(source cluster.NodeID) {
	slog.Debug("received exchange data ack", "source", source)

	st := e.peerStateLocked(source)
	if !st.sendAcked {
		st.sendAcked = true
	} else {
		slog.Debug("received duplicate data ack", "source", source)
	}

	e.checkSwitchReadyToCommitLocked()
}

// checkSwitchReadyToCommitLocked moves to ready-to-commit once all data is
// sent and received, and reports completion to the principal.
func (e *Exchange) checkSwitchReadyToCommitLocked() {
	if e.state == StateRest || e.clusterKey == 0 {
		return
	}

	if len(e.sendUnackedLocked()) > 0 || len(e.notReceivedLocked()) > 0 {
		return
	}

	e.setStateLocked(StateReadyToCommit)
	slog.Debug("ready to commit exchange data", "cluster_key", e.clusterKey)

	e.sendReadyToCommitLocked()
}

// exchangingTimerLocked retransmits data to laggards. The timeout is a
// linear step function of the time since the last send, clamped between
// the floor and ceiling.
func (e *Exchange) exchangingTimerLocked() {
	now := e.now()

	minTimeout := e.sendMinTimeout()
	step := e.sendStepInterval()
	elapsed := now.Sub(e.sendTS)

	timeout := max(minTimeout, min(sendTimeoutCeiling, minTimeout*time.Duration(elapsed/step)))

	if e.sendTS.Add(timeout).Before(now) {
		metrics.ExchangeSendRetries.Inc()
		e.sendDataToUnackedLocked()
	}
}

/*
 * Ready-to-commit state.
 */

func (e *Exchange) readyToCommitMsgLocked(source cluster.NodeID, msg *fabric.Message) {
	switch msg.Type {
	case msgTypeReadyToCommit:
		e.readyToCommitRtcLocked(source)
	case msgTypeCommit:
		e.readyToCommitCommitLocked(source)
	case msgTypeData:
		// The source missed self's data ack; re-ack the retransmission.
		slog.Debug("received exchange data while ready to commit", "source", source)
		e.sendDataAckLocked(source)
	default:
		slog.Debug("ready to commit state received unexpected message",
			"type", msgTypeName(msg.Type), "source", source)
	}
}

// readyToCommitRtcLocked, principal only: tracks which members are ready
// and broadcasts the commit once everyone is.
func (e *Exchange) readyToCommitRtcLocked(source cluster.NodeID) {
	if !e.selfIsPrincipalLocked() {
		slog.Warn("non-principal received ready to commit message - ignoring", "source", source)
		return
	}

	slog.Debug("received ready to commit", "source", source)

	st := e.peerStateLocked(source)
	if !st.readyToCommit {
		st.readyToCommit = true
	} else {
		slog.Info("received duplicate ready to commit message", "source", source)
	}

	if len(e.notReadyToCommitLocked()) == 0 {
		e.sendCommitAllLocked()
	}
}

// readyToCommitCommitLocked applies the round on the principal's order.
func (e *Exchange) readyToCommitCommitLocked(source cluster.NodeID) {
	if source != e.principal {
		slog.Warn("ignoring commit message from non-principal",
			"source", source, "principal", e.principal)
		return
	}

	slog.Info("received commit command from principal", "source", source)

	e.commitDataLocked()
	e.setStateLocked(StateRest)

	e.publisher.queue(ClusterChangedEvent{
		ClusterKey: e.committedKey,
		Succession: e.committedSuccession,
	})
}

func (e *Exchange) readyToCommitTimerLocked() {
	if e.readyToCommitTS.Add(e.readyToCommitTimeout()).Before(e.now()) {
		// The principal has not sent a commit in a while; the ready to
		// commit message may have been lost. Retransmit it.
		e.sendReadyToCommitLocked()
	}
}
