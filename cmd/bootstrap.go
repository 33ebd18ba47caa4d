package main

import (
	"encoding/binary"
	"errors"
	"hash/fnv"
	"log/slog"
	"sort"

	"corvusdb/internal/balance"
	"corvusdb/internal/cluster"
	"corvusdb/internal/configuration"
	"corvusdb/internal/exchange"
	"corvusdb/internal/fabric"
	"corvusdb/internal/metrics"
	"corvusdb/internal/namespace"
)

// Node wires the subsystems for one process.
type Node struct {
	cfg *configuration.Properties

	registry   *namespace.Registry
	balance    *balance.DefaultEngine
	fabric     *fabric.Service
	clustering *cluster.ManualSource
	exchange   *exchange.Exchange
	metricsSrv *metrics.Server
}

func NewNode(cfg *configuration.Properties) (*Node, error) {
	registry, err := namespace.NewRegistry(cfg.Cluster.Namespaces)
	if err != nil {
		return nil, err
	}

	self := cluster.NodeID(cfg.Cluster.NodeID)

	fab := fabric.NewService(self, &cfg.Transport)
	for id, addr := range cfg.Cluster.Peers {
		fab.AddPeer(cluster.NodeID(id), addr)
	}

	engine := balance.NewDefaultEngine(registry)
	source := cluster.NewManualSource(cfg.Cluster.QuantumDuration())

	ex := exchange.New(exchange.Params{
		Self:       self,
		Registry:   registry,
		Transport:  fab,
		Balance:    engine,
		Heartbeat:  &cfg.Cluster,
		Clustering: source,
	}, fab.RegisterHandler)

	source.Subscribe(ex.HandleClusteringEvent)

	ex.RegisterListener(func(ev exchange.ClusterChangedEvent) {
		slog.Info("cluster changed",
			"cluster_key", ev.ClusterKey,
			"succession", cluster.FormatNodes(ev.Succession),
		)
	})

	health := func() error {
		if ex.CommittedClusterKey() == 0 {
			return errors.New("no committed cluster membership")
		}
		return nil
	}

	return &Node{
		cfg:        cfg,
		registry:   registry,
		balance:    engine,
		fabric:     fab,
		clustering: source,
		exchange:   ex,
		metricsSrv: metrics.NewServer(cfg.Metrics.Address, health, ex.InfoSuccession),
	}, nil
}

func (n *Node) Start() error {
	if err := n.metricsSrv.Start(); err != nil {
		return err
	}
	if err := n.fabric.Start(); err != nil {
		return err
	}
	n.exchange.Start()

	// Without an external membership service, derive a static membership
	// from the configured peer list: succession sorted by node id, cluster
	// key hashed from the members.
	n.clustering.Publish(staticMembershipEvent(n.cfg.Cluster.Peers))
	return nil
}

func (n *Node) Stop() {
	n.exchange.Stop()
	n.fabric.Stop()
	n.metricsSrv.Stop()
}

func staticMembershipEvent(peers map[uint64]string) cluster.Event {
	ids := make([]uint64, 0, len(peers))
	for id := range peers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	h := fnv.New64a()
	succession := make([]cluster.NodeID, 0, len(ids))
	for _, id := range ids {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], id)
		h.Write(b[:])
		succession = append(succession, cluster.NodeID(id))
	}

	key := cluster.Key(h.Sum64())
	if key == 0 {
		key = 1
	}

	return cluster.Event{
		Kind:       cluster.EventChanged,
		ClusterKey: key,
		Succession: succession,
	}
}
