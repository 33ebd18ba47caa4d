package exchange

import (
	"log/slog"
	"time"

	"corvusdb/internal/cluster"
	"corvusdb/internal/metrics"
)

// commitDataLocked applies the accumulated peer payloads into the
// namespace tables in succession order, then swaps the committed snapshot
// and kicks the balance engine.
func (e *Exchange) commitDataLocked() {
	start := time.Now()

	slog.Info("data exchange completed", "cluster_key", e.clusterKey)

	for _, ns := range e.registry.All() {
		ns.ResetClusterData()
	}

	for _, node := range e.succession {
		e.commitNodeLocked(node)
	}

	e.committedMu.Lock()
	e.committedKey = e.clusterKey
	e.committedPrincipal = e.principal
	e.committedSuccession = e.committedSuccession[:0]
	e.committedSuccession = append(e.committedSuccession, e.succession...)
	e.committedMu.Unlock()

	metrics.ExchangeCommitsTotal.Inc()
	metrics.ExchangeCommitDuration.Observe(time.Since(start).Seconds())
	metrics.ExchangeClusterSize.Set(float64(len(e.succession)))

	e.balance.Balance()
}

// commitNodeLocked applies one node's payload. Namespaces the local node
// does not serve are skipped with a warning; their bytes were already
// parsed past by the decoder.
func (e *Exchange) commitNodeLocked(node cluster.NodeID) {
	st := e.peerStateLocked(node)

	decoded, err := decodePayload(st.data)
	if err != nil {
		slog.Warn("skipping undecodable payload at commit", "node", node, "error", err)
		return
	}

	for _, nsp := range decoded {
		ns := e.registry.Get(nsp.name)
		if ns == nil {
			// Possibly a rolling namespace addition on the peer.
			slog.Warn("ignoring unknown namespace in partition info",
				"namespace", nsp.name, "node", node)
			continue
		}

		row := ns.AppendNode(node)
		for _, group := range nsp.groups {
			for _, pid := range group.pids {
				row[pid] = group.vinfo
			}
		}

		slog.Debug("committed data", "node", node, "namespace", ns.Name)
	}
}
