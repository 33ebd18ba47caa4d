package exchange

import (
	"log/slog"

	"corvusdb/internal/cluster"
	"corvusdb/internal/fabric"
	"corvusdb/internal/metrics"
)

// Exchange message types. DataNack is reserved and never sent.
const (
	msgTypeData uint32 = iota
	msgTypeDataAck
	msgTypeDataNack
	msgTypeReadyToCommit
	msgTypeCommit
	msgTypeSentinel
)

func msgTypeName(t uint32) string {
	switch t {
	case msgTypeData:
		return "data"
	case msgTypeDataAck:
		return "data_ack"
	case msgTypeDataNack:
		return "data_nack"
	case msgTypeReadyToCommit:
		return "ready_to_commit"
	case msgTypeCommit:
		return "commit"
	default:
		return "unknown"
	}
}

// newMessageLocked builds an outbound message stamped with the current
// cluster key.
func (e *Exchange) newMessageLocked(msgType uint32) *fabric.Message {
	return &fabric.Message{
		ProtocolID: ProtocolIdentifier,
		Type:       msgType,
		ClusterKey: e.clusterKey,
	}
}

// msgIsSaneLocked gates every inbound message. A passing message has the
// right protocol identifier, a defined type, a source inside the current
// succession list and a matching non-zero cluster key.
func (e *Exchange) msgIsSaneLocked(source cluster.NodeID, msg *fabric.Message) bool {
	if msg.ProtocolID != ProtocolIdentifier {
		slog.Debug("exchange message with mismatching identifier",
			"expected", ProtocolIdentifier, "got", msg.ProtocolID, "source", source)
		metrics.ExchangeMessagesDropped.WithLabelValues("protocol_id").Inc()
		return false
	}

	if msg.Type >= msgTypeSentinel {
		slog.Warn("exchange message with invalid type", "type", msg.Type, "source", source)
		metrics.ExchangeMessagesDropped.WithLabelValues("type").Inc()
		return false
	}

	if !cluster.ContainsNode(e.succession, source) {
		slog.Debug("exchange message from node not in cluster", "source", source)
		metrics.ExchangeMessagesDropped.WithLabelValues("membership").Inc()
		return false
	}

	if e.clusterKey == 0 || msg.ClusterKey != e.clusterKey {
		slog.Debug("exchange message with mismatching cluster key",
			"expected", e.clusterKey, "got", msg.ClusterKey, "source", source)
		metrics.ExchangeMessagesDropped.WithLabelValues("cluster_key").Inc()
		return false
	}

	return true
}

func (e *Exchange) sendLocked(dest cluster.NodeID, msg *fabric.Message, errMsg string) {
	metrics.ExchangeMessagesTotal.WithLabelValues("out", msgTypeName(msg.Type)).Inc()
	if err := e.transport.Send(dest, msg); err != nil {
		slog.Warn(errMsg, "dest", dest, "error", err)
	}
}

func (e *Exchange) sendListLocked(dests []cluster.NodeID, msg *fabric.Message, errMsg string) {
	for range dests {
		metrics.ExchangeMessagesTotal.WithLabelValues("out", msgTypeName(msg.Type)).Inc()
	}
	if err := e.transport.SendList(dests, msg); err != nil {
		slog.Warn(errMsg, "dests", cluster.FormatNodes(dests), "error", err)
	}
}

// sendDataToUnackedLocked (re)sends this node's payload to every member
// that has not acked it yet and restamps the send timestamp.
func (e *Exchange) sendDataToUnackedLocked() {
	e.sendTS = e.now()

	unacked := e.sendUnackedLocked()
	if len(unacked) == 0 {
		return
	}

	msg := e.newMessageLocked(msgTypeData)
	msg.Payload = e.selfPayload

	slog.Debug("sending exchange data", "nodes", cluster.FormatNodes(unacked))
	e.sendListLocked(unacked, msg, "error sending exchange data")
}

func (e *Exchange) sendDataAckLocked(dest cluster.NodeID) {
	slog.Debug("sending data ack", "dest", dest)
	e.sendLocked(dest, e.newMessageLocked(msgTypeDataAck), "error sending data ack message")
}

// sendReadyToCommitLocked reports completion to the principal and restamps
// the ready-to-commit timestamp.
func (e *Exchange) sendReadyToCommitLocked() {
	e.readyToCommitTS = e.now()

	slog.Debug("sending ready to commit", "dest", e.principal)
	e.sendLocked(e.principal, e.newMessageLocked(msgTypeReadyToCommit),
		"error sending ready to commit message")
}

func (e *Exchange) sendCommitLocked(dest cluster.NodeID) {
	slog.Debug("sending commit message", "dest", dest)
	e.sendLocked(dest, e.newMessageLocked(msgTypeCommit), "error sending commit message")
}

func (e *Exchange) sendCommitAllLocked() {
	slog.Debug("sending commit message", "dests", cluster.FormatNodes(e.succession))
	e.sendListLocked(e.succession, e.newMessageLocked(msgTypeCommit),
		"error sending commit message")
}
