package exchange

import (
	"testing"
	"time"

	"corvusdb/internal/cluster"
	"corvusdb/internal/fabric"

	"github.com/stretchr/testify/require"
)

func changedEvent(key cluster.Key, nodes ...cluster.NodeID) cluster.Event {
	return cluster.Event{Kind: cluster.EventChanged, ClusterKey: key, Succession: nodes}
}

func orphanedEvent() cluster.Event {
	return cluster.Event{Kind: cluster.EventOrphaned}
}

func dataMsg(key cluster.Key, payload []byte) *fabric.Message {
	return &fabric.Message{ProtocolID: ProtocolIdentifier, Type: msgTypeData, ClusterKey: key, Payload: payload}
}

func ackMsg(key cluster.Key) *fabric.Message {
	return &fabric.Message{ProtocolID: ProtocolIdentifier, Type: msgTypeDataAck, ClusterKey: key}
}

func TestClusterChangeStartsExchange(t *testing.T) {
	n := newTestNode(t, 1)

	n.ex.HandleClusteringEvent(changedEvent(0x10, 1, 2, 3))

	require.Equal(t, StateExchanging, n.state())
	requirePeerParity(t, n.ex)

	// Data goes to every member, self included.
	sent := n.transport.take()
	dests := map[cluster.NodeID]bool{}
	for _, s := range sent {
		require.Equal(t, msgTypeData, s.msg.Type)
		require.Equal(t, cluster.Key(0x10), s.msg.ClusterKey)
		require.NoError(t, validatePayload(s.msg.Payload))
		dests[s.dest] = true
	}
	require.Len(t, dests, 3)
}

func TestIdempotentDataReceipt(t *testing.T) {
	n := newTestNode(t, 1)
	n.ex.HandleClusteringEvent(changedEvent(0x10, 1, 2, 3))
	n.transport.take()

	payload := buildNamespacesPayload(newTestRegistry(t, "ns1"), nil)

	const k = 4
	for i := 0; i < k; i++ {
		n.ex.HandleFabricMessage(2, dataMsg(0x10, payload))
	}

	// Exactly k acks, state unchanged, still exchanging.
	require.Equal(t, k, n.transport.countTo(2, msgTypeDataAck))
	require.Equal(t, StateExchanging, n.state())

	n.ex.mu.Lock()
	require.True(t, n.ex.peers[2].received)
	require.False(t, n.ex.peers[3].received)
	n.ex.mu.Unlock()
	requirePeerParity(t, n.ex)
}

func TestIdempotentDataAck(t *testing.T) {
	n := newTestNode(t, 1)
	n.ex.HandleClusteringEvent(changedEvent(0x10, 1, 2))
	n.transport.take()

	for i := 0; i < 3; i++ {
		n.ex.HandleFabricMessage(2, ackMsg(0x10))
	}

	n.ex.mu.Lock()
	require.True(t, n.ex.peers[2].sendAcked)
	n.ex.mu.Unlock()
	require.Equal(t, StateExchanging, n.state())
}

func TestClusterKeyGating(t *testing.T) {
	n := newTestNode(t, 1)
	n.ex.HandleClusteringEvent(changedEvent(0x10, 1, 2))
	n.transport.take()

	payload := buildNamespacesPayload(newTestRegistry(t, "ns1"), nil)

	// Stale key, wrong protocol, unknown sender, bad type: all dropped
	// without observable effect.
	n.ex.HandleFabricMessage(2, dataMsg(0x11, payload))
	n.ex.HandleFabricMessage(2, &fabric.Message{ProtocolID: 9, Type: msgTypeData, ClusterKey: 0x10})
	n.ex.HandleFabricMessage(7, dataMsg(0x10, payload))
	n.ex.HandleFabricMessage(2, &fabric.Message{ProtocolID: ProtocolIdentifier, Type: msgTypeSentinel, ClusterKey: 0x10})

	require.Empty(t, n.transport.take())
	n.ex.mu.Lock()
	require.False(t, n.ex.peers[2].received)
	n.ex.mu.Unlock()
	require.Equal(t, StateExchanging, n.state())
}

func TestInvalidPayloadNotMarkedReceived(t *testing.T) {
	n := newTestNode(t, 1)
	n.ex.HandleClusteringEvent(changedEvent(0x10, 1, 2))
	n.transport.take()

	payload := buildNamespacesPayload(newTestRegistry(t, "ns1"), nil)
	n.ex.HandleFabricMessage(2, dataMsg(0x10, payload[:len(payload)-1]))

	n.ex.mu.Lock()
	require.False(t, n.ex.peers[2].received)
	n.ex.mu.Unlock()
	// No ack for an invalid payload.
	require.Zero(t, n.transport.countTo(2, msgTypeDataAck))

	// A later valid retransmission is accepted.
	n.ex.HandleFabricMessage(2, dataMsg(0x10, payload))
	n.ex.mu.Lock()
	require.True(t, n.ex.peers[2].received)
	n.ex.mu.Unlock()
	require.Equal(t, 1, n.transport.countTo(2, msgTypeDataAck))
}

func TestCompletionSendsReadyToCommitToPrincipal(t *testing.T) {
	n := newTestNode(t, 2)
	n.ex.HandleClusteringEvent(changedEvent(0x10, 1, 2))
	n.transport.take()

	payload := buildNamespacesPayload(newTestRegistry(t, "ns1"), nil)

	n.ex.HandleFabricMessage(1, dataMsg(0x10, payload))
	n.ex.HandleFabricMessage(2, dataMsg(0x10, payload))
	n.ex.HandleFabricMessage(1, ackMsg(0x10))
	require.Equal(t, StateExchanging, n.state())
	n.ex.HandleFabricMessage(2, ackMsg(0x10))

	require.Equal(t, StateReadyToCommit, n.state())
	require.Equal(t, 1, n.transport.countTo(1, msgTypeReadyToCommit))
}

func TestNonPrincipalIgnoresReadyToCommit(t *testing.T) {
	n := newTestNode(t, 2)
	n.ex.HandleClusteringEvent(changedEvent(0x10, 1, 2, 3))
	n.transport.take()

	// Force ready-to-commit state on a non-principal, then feed it a
	// stray ready-to-commit message.
	n.ex.mu.Lock()
	n.ex.state = StateReadyToCommit
	n.ex.mu.Unlock()

	n.ex.HandleFabricMessage(3, &fabric.Message{ProtocolID: ProtocolIdentifier, Type: msgTypeReadyToCommit, ClusterKey: 0x10})

	// No commit may ever leave a non-principal.
	require.Zero(t, n.transport.countTo(1, msgTypeCommit))
	require.Zero(t, n.transport.countTo(2, msgTypeCommit))
	require.Zero(t, n.transport.countTo(3, msgTypeCommit))
}

func TestCommitOnlyAcceptedFromPrincipal(t *testing.T) {
	n := newTestNode(t, 2)
	n.ex.HandleClusteringEvent(changedEvent(0x10, 1, 2, 3))
	n.transport.take()

	n.ex.mu.Lock()
	n.ex.state = StateReadyToCommit
	for _, st := range n.ex.peers {
		st.received = true
	}
	n.ex.mu.Unlock()

	n.ex.HandleFabricMessage(3, &fabric.Message{ProtocolID: ProtocolIdentifier, Type: msgTypeCommit, ClusterKey: 0x10})
	require.Equal(t, StateReadyToCommit, n.state())
	require.Equal(t, cluster.Key(0), n.ex.CommittedClusterKey())

	n.ex.HandleFabricMessage(1, &fabric.Message{ProtocolID: ProtocolIdentifier, Type: msgTypeCommit, ClusterKey: 0x10})
	require.Equal(t, StateRest, n.state())
	require.Equal(t, cluster.Key(0x10), n.ex.CommittedClusterKey())
	require.Equal(t, 1, n.balance.balances())
}

func TestSendTimeoutRetransmitsToUnacked(t *testing.T) {
	n := newTestNode(t, 1)
	n.ex.HandleClusteringEvent(changedEvent(0x10, 1, 2, 3))
	n.transport.take()

	n.ex.HandleFabricMessage(2, ackMsg(0x10))
	n.transport.take()

	// Under the minimum timeout nothing is resent.
	n.clock.advance(50 * time.Millisecond)
	n.ex.handleTimerEvent()
	require.Empty(t, n.transport.take())

	// Past the minimum timeout data goes to the still unacked members
	// only.
	n.clock.advance(60 * time.Millisecond)
	n.ex.handleTimerEvent()

	sent := n.transport.take()
	dests := map[cluster.NodeID]int{}
	for _, s := range sent {
		require.Equal(t, msgTypeData, s.msg.Type)
		dests[s.dest]++
	}
	require.Zero(t, dests[2])
	require.Equal(t, 1, dests[1])
	require.Equal(t, 1, dests[3])
}

func TestReadyToCommitTimerResends(t *testing.T) {
	n := newTestNode(t, 2)
	n.ex.HandleClusteringEvent(changedEvent(0x10, 1, 2))
	n.transport.take()

	payload := buildNamespacesPayload(newTestRegistry(t, "ns1"), nil)
	n.ex.HandleFabricMessage(1, dataMsg(0x10, payload))
	n.ex.HandleFabricMessage(2, dataMsg(0x10, payload))
	n.ex.HandleFabricMessage(1, ackMsg(0x10))
	n.ex.HandleFabricMessage(2, ackMsg(0x10))
	require.Equal(t, StateReadyToCommit, n.state())
	require.Equal(t, 1, n.transport.countTo(1, msgTypeReadyToCommit))

	// Ready-to-commit timeout is the send minimum timeout: 75ms here.
	n.clock.advance(80 * time.Millisecond)
	n.ex.handleTimerEvent()
	require.Equal(t, 2, n.transport.countTo(1, msgTypeReadyToCommit))
}

func TestRestStateResendsCommitToLaggard(t *testing.T) {
	n := newTestNode(t, 1)
	n.ex.HandleClusteringEvent(changedEvent(0x10, 1, 2))
	n.transport.take()

	n.ex.mu.Lock()
	n.ex.state = StateRest
	n.ex.mu.Unlock()

	n.ex.HandleFabricMessage(2, &fabric.Message{ProtocolID: ProtocolIdentifier, Type: msgTypeReadyToCommit, ClusterKey: 0x10})
	require.Equal(t, 1, n.transport.countTo(2, msgTypeCommit))
	require.Equal(t, StateRest, n.state())
}

func TestOrphanBlockFiresExactlyOnce(t *testing.T) {
	n := newTestNode(t, 1)

	n.ex.HandleClusteringEvent(orphanedEvent())
	require.Equal(t, StateOrphaned, n.state())
	require.Zero(t, n.balance.reverts())

	// Quantum 1s: block timeout rounds up to 5s.
	n.clock.advance(4900 * time.Millisecond)
	n.ex.handleTimerEvent()
	require.Zero(t, n.balance.reverts())

	n.clock.advance(200 * time.Millisecond)
	n.ex.handleTimerEvent()
	require.Equal(t, 1, n.balance.reverts())

	for i := 0; i < 10; i++ {
		n.clock.advance(time.Second)
		n.ex.handleTimerEvent()
	}
	require.Equal(t, 1, n.balance.reverts())
}

func TestOrphanResetsOneShot(t *testing.T) {
	n := newTestNode(t, 1)

	n.ex.HandleClusteringEvent(orphanedEvent())
	n.clock.advance(6 * time.Second)
	n.ex.handleTimerEvent()
	require.Equal(t, 1, n.balance.reverts())

	// Entering a cluster and orphaning again rearms the one-shot.
	n.ex.HandleClusteringEvent(changedEvent(0x10, 1))
	n.ex.HandleClusteringEvent(orphanedEvent())
	n.clock.advance(6 * time.Second)
	n.ex.handleTimerEvent()
	require.Equal(t, 2, n.balance.reverts())
}

func TestOrphanedInvariant(t *testing.T) {
	n := newTestNode(t, 1)

	n.ex.HandleClusteringEvent(changedEvent(0x10, 1, 2))
	n.ex.HandleClusteringEvent(orphanedEvent())

	n.ex.mu.Lock()
	require.Equal(t, StateOrphaned, n.ex.state)
	require.Equal(t, cluster.Key(0), n.ex.clusterKey)
	require.Empty(t, n.ex.succession)
	n.ex.mu.Unlock()
	requirePeerParity(t, n.ex)
}

func TestClusterChangePreemptsRound(t *testing.T) {
	n := newTestNode(t, 1)
	n.ex.HandleClusteringEvent(changedEvent(0x10, 1, 2))
	n.transport.take()

	payload := buildNamespacesPayload(newTestRegistry(t, "ns1"), nil)
	n.ex.HandleFabricMessage(2, dataMsg(0x10, payload))

	n.ex.HandleClusteringEvent(changedEvent(0x11, 1, 2, 3))

	require.Equal(t, StateExchanging, n.state())
	n.ex.mu.Lock()
	require.Equal(t, cluster.Key(0x11), n.ex.clusterKey)
	require.False(t, n.ex.peers[2].received)
	n.ex.mu.Unlock()
	requirePeerParity(t, n.ex)

	// Messages from the old round no longer pass the gate.
	n.transport.take()
	n.ex.HandleFabricMessage(2, dataMsg(0x10, payload))
	require.Empty(t, n.transport.take())
}

func TestStopIsIdempotent(t *testing.T) {
	reg := newTestRegistry(t, "ns1")
	ex := New(Params{
		Self:       1,
		Registry:   reg,
		Transport:  &fakeTransport{},
		Balance:    &fakeBalance{},
		Heartbeat:  &fakeHeartbeat{interval: 150 * time.Millisecond},
		Clustering: &fakeClustering{quantum: time.Second},
	}, nil)

	ex.Start()
	ex.Stop()
	ex.Stop()

	// Events after stop are ignored.
	ex.HandleClusteringEvent(changedEvent(0x10, 1))
	require.Equal(t, cluster.Key(0), ex.CommittedClusterKey())
}

func TestInfoSuccession(t *testing.T) {
	n := newTestNode(t, 1)
	require.Equal(t, "\nok", n.ex.InfoSuccession())

	n.ex.committedMu.Lock()
	n.ex.committedSuccession = []cluster.NodeID{0xab, 0xcd}
	n.ex.committedMu.Unlock()

	require.Equal(t, "ab,cd\nok", n.ex.InfoSuccession())
}
