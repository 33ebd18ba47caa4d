// Package fabric is the node-to-node messaging transport. It delivers small
// control messages between cluster members over per-peer gRPC connections,
// queueing outbound messages so callers never block on the network.
package fabric

import (
	"corvusdb/internal/cluster"
)

// Message is one fabric control message. Field order mirrors the wire
// envelope and must not change.
type Message struct {
	// ProtocolID identifies the owning protocol.
	ProtocolID uint32

	// Type is interpreted by the owning protocol.
	Type uint32

	// ClusterKey is the sender's current cluster key.
	ClusterKey cluster.Key

	// Payload is optional opaque bytes.
	Payload []byte
}

// Handler consumes inbound messages. It is invoked on a transport goroutine
// and must not retain msg or its payload past the call.
type Handler func(source cluster.NodeID, msg *Message)
