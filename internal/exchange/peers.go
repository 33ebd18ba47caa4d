package exchange

import (
	"fmt"

	"corvusdb/internal/cluster"
)

// peerState tracks one member of the current succession list for the
// round in flight.
type peerState struct {
	// sendAcked: this peer acked self's data message.
	sendAcked bool

	// received: this peer's payload arrived and validated.
	received bool

	// readyToCommit: this peer reported ready to commit. Only meaningful
	// at the principal.
	readyToCommit bool

	// data is the peer's last received payload. The backing array is
	// reused across rounds and grown in 1 KiB steps.
	data []byte
}

func (p *peerState) reset() {
	p.sendAcked = false
	p.received = false
	p.readyToCommit = false
	p.data = p.data[:0]
}

// setData copies payload into the peer's owned buffer.
func (p *peerState) setData(payload []byte) {
	if cap(p.data) < len(payload) {
		alloc := (len(payload) + 1023) / 1024 * 1024
		p.data = make([]byte, 0, alloc)
	}
	p.data = p.data[:len(payload)]
	copy(p.data, payload)
}

// resetPeersLocked adjusts the peer table to have exactly one reset entry
// per node in the current succession list: entries for departed nodes are
// dropped, retained entries keep their buffers with flags cleared, new
// nodes get zero entries.
func (e *Exchange) resetPeersLocked() {
	for node, st := range e.peers {
		if !cluster.ContainsNode(e.succession, node) {
			delete(e.peers, node)
			continue
		}
		st.reset()
	}

	for _, node := range e.succession {
		if _, ok := e.peers[node]; !ok {
			e.peers[node] = &peerState{}
		}
	}
}

// peerStateLocked returns the entry for node. A missing entry means the
// table fell out of sync with the succession list, which breaks the state
// machine's invariants; that is unrecoverable.
func (e *Exchange) peerStateLocked(node cluster.NodeID) *peerState {
	st, ok := e.peers[node]
	if !ok {
		panic(fmt.Sprintf("exchange: node %s missing from peer state table", node))
	}
	return st
}

func (e *Exchange) sendUnackedLocked() []cluster.NodeID {
	var nodes []cluster.NodeID
	for node, st := range e.peers {
		if !st.sendAcked {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

func (e *Exchange) notReceivedLocked() []cluster.NodeID {
	var nodes []cluster.NodeID
	for node, st := range e.peers {
		if !st.received {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

func (e *Exchange) notReadyToCommitLocked() []cluster.NodeID {
	var nodes []cluster.NodeID
	for node, st := range e.peers {
		if !st.readyToCommit {
			nodes = append(nodes, node)
		}
	}
	return nodes
}
