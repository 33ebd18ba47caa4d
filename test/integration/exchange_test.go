package integration

import (
	"testing"
	"time"

	"corvusdb/internal/balance"
	"corvusdb/internal/cluster"
	"corvusdb/internal/configuration"
	"corvusdb/internal/exchange"
	"corvusdb/internal/fabric"
	"corvusdb/internal/namespace"

	"github.com/stretchr/testify/require"
)

type node struct {
	id       cluster.NodeID
	registry *namespace.Registry
	fabric   *fabric.Service
	source   *cluster.ManualSource
	exchange *exchange.Exchange
}

func newNode(t *testing.T, id cluster.NodeID, vinfo namespace.VersionInfo) *node {
	t.Helper()

	registry, err := namespace.NewRegistry([]string{"test"})
	require.NoError(t, err)

	ns := registry.Get("test")
	for pid := 0; pid < namespace.PartitionCount; pid++ {
		ns.Partitions[pid] = vinfo
	}

	clusterCfg := &configuration.ClusterConfigurationProperties{
		NodeID:              uint64(id),
		HeartbeatTxInterval: 150,
		QuantumInterval:     1000,
	}
	transportCfg := &configuration.TransportConfigurationProperties{
		Address:       "127.0.0.1",
		Port:          "0",
		Network:       "tcp",
		Timeout:       2,
		SendQueueSize: 64,
	}

	fab := fabric.NewService(id, transportCfg)
	source := cluster.NewManualSource(clusterCfg.QuantumDuration())

	ex := exchange.New(exchange.Params{
		Self:       id,
		Registry:   registry,
		Transport:  fab,
		Balance:    balance.NewDefaultEngine(registry),
		Heartbeat:  clusterCfg,
		Clustering: source,
	}, fab.RegisterHandler)

	source.Subscribe(ex.HandleClusteringEvent)

	return &node{id: id, registry: registry, fabric: fab, source: source, exchange: ex}
}

func TestThreeNodeExchangeOverFabric(t *testing.T) {
	var vinfo namespace.VersionInfo
	vinfo[0] = 0x42

	succession := []cluster.NodeID{1, 2, 3}
	nodes := make(map[cluster.NodeID]*node, len(succession))
	for _, id := range succession {
		nodes[id] = newNode(t, id, vinfo)
	}

	for _, n := range nodes {
		require.NoError(t, n.fabric.Start())
	}
	defer func() {
		for _, n := range nodes {
			n.fabric.Stop()
		}
	}()

	// Everyone learns everyone's bound address.
	for _, n := range nodes {
		for _, peer := range nodes {
			if peer.id != n.id {
				n.fabric.AddPeer(peer.id, peer.fabric.Addr())
			}
		}
	}

	for _, n := range nodes {
		n.exchange.Start()
	}
	defer func() {
		for _, n := range nodes {
			n.exchange.Stop()
		}
	}()

	events := make(chan exchange.ClusterChangedEvent, 8)
	nodes[2].exchange.RegisterListener(func(ev exchange.ClusterChangedEvent) {
		events <- exchange.ClusterChangedEvent{
			ClusterKey: ev.ClusterKey,
			Succession: cluster.CopyNodes(ev.Succession),
		}
	})

	ev := cluster.Event{Kind: cluster.EventChanged, ClusterKey: 0x10, Succession: succession}
	for _, n := range nodes {
		n.source.Publish(ev)
	}

	require.Eventually(t, func() bool {
		for _, n := range nodes {
			if n.exchange.CommittedClusterKey() != 0x10 {
				return false
			}
		}
		return true
	}, 15*time.Second, 50*time.Millisecond, "exchange did not commit")

	for _, n := range nodes {
		require.Equal(t, succession, n.exchange.CommittedSuccession())
		require.Equal(t, cluster.NodeID(1), n.exchange.CommittedPrincipal())
		require.Equal(t, len(succession), n.exchange.CommittedClusterSize())

		ns := n.registry.Get("test")
		require.Equal(t, len(succession), ns.ClusterSize)
		require.Equal(t, succession, ns.Succession)
		for i := range succession {
			for pid := 0; pid < namespace.PartitionCount; pid++ {
				if ns.ClusterVersions[i][pid] != vinfo {
					t.Fatalf("node %d row %d pid %d has wrong version", n.id, i, pid)
				}
			}
		}

		require.Equal(t, "1,2,3\nok", n.exchange.InfoSuccession())
	}

	select {
	case got := <-events:
		require.Equal(t, cluster.Key(0x10), got.ClusterKey)
		require.Equal(t, succession, got.Succession)
	case <-time.After(5 * time.Second):
		t.Fatal("cluster changed event not delivered")
	}
}

func TestOrphanThenRejoinOverFabric(t *testing.T) {
	var vinfo namespace.VersionInfo
	vinfo[0] = 1

	n := newNode(t, 1, vinfo)
	require.NoError(t, n.fabric.Start())
	defer n.fabric.Stop()
	n.exchange.Start()
	defer n.exchange.Stop()

	n.source.Publish(cluster.Event{
		Kind:       cluster.EventChanged,
		ClusterKey: 0x20,
		Succession: []cluster.NodeID{1},
	})

	require.Eventually(t, func() bool {
		return n.exchange.CommittedClusterKey() == 0x20
	}, 10*time.Second, 50*time.Millisecond)

	n.source.Publish(cluster.Event{Kind: cluster.EventOrphaned})

	// A later membership commits again with a fresh key.
	n.source.Publish(cluster.Event{
		Kind:       cluster.EventChanged,
		ClusterKey: 0x21,
		Succession: []cluster.NodeID{1},
	})

	require.Eventually(t, func() bool {
		return n.exchange.CommittedClusterKey() == 0x21
	}, 10*time.Second, 50*time.Millisecond)
}
