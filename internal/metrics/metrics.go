package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExchangeState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "corvusdb",
		Subsystem: "exchange",
		Name:      "state",
		Help:      "Current exchange state (0=rest, 1=exchanging, 2=ready_to_commit, 3=orphaned)",
	})

	ExchangeRoundsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "corvusdb",
		Subsystem: "exchange",
		Name:      "rounds_started_total",
		Help:      "Exchange rounds started",
	})

	ExchangeRoundsAborted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "corvusdb",
		Subsystem: "exchange",
		Name:      "rounds_aborted_total",
		Help:      "Exchange rounds aborted by a newer cluster change or orphan event",
	})

	ExchangeCommitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "corvusdb",
		Subsystem: "exchange",
		Name:      "commits_total",
		Help:      "Committed exchange rounds",
	})

	ExchangeCommitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "corvusdb",
		Subsystem: "exchange",
		Name:      "commit_duration_seconds",
		Help:      "Time to apply accumulated peer payloads",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 15),
	})

	ExchangeMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "corvusdb",
		Subsystem: "exchange",
		Name:      "messages_total",
		Help:      "Exchange protocol messages by direction and type",
	}, []string{"direction", "type"})

	ExchangeMessagesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "corvusdb",
		Subsystem: "exchange",
		Name:      "messages_dropped_total",
		Help:      "Inbound exchange messages dropped by the sanity gate",
	}, []string{"reason"})

	ExchangeSendRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "corvusdb",
		Subsystem: "exchange",
		Name:      "send_retries_total",
		Help:      "Data retransmissions triggered by the send timeout",
	})

	ExchangeOrphanBlocks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "corvusdb",
		Subsystem: "exchange",
		Name:      "orphan_blocks_total",
		Help:      "Times client transactions were blocked after a prolonged orphan state",
	})

	ExchangeClusterSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "corvusdb",
		Subsystem: "exchange",
		Name:      "committed_cluster_size",
		Help:      "Size of the last committed succession list",
	})

	FabricSendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "corvusdb",
		Subsystem: "fabric",
		Name:      "sends_total",
		Help:      "Fabric message sends by outcome",
	}, []string{"outcome"})

	FabricSendQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "corvusdb",
		Subsystem: "fabric",
		Name:      "send_queue_depth",
		Help:      "Pending messages in a peer send queue",
	}, []string{"peer_id"})

	FabricDeliveriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "corvusdb",
		Subsystem: "fabric",
		Name:      "deliveries_total",
		Help:      "Inbound fabric envelopes delivered to the handler",
	})

	FabricDeliveryResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "corvusdb",
		Subsystem: "fabric",
		Name:      "delivery_results_total",
		Help:      "Inbound fabric Deliver RPCs by gRPC status code",
	}, []string{"code"})

	FabricDeliveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "corvusdb",
		Subsystem: "fabric",
		Name:      "delivery_duration_seconds",
		Help:      "Inbound fabric Deliver RPC duration",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 20),
	})

	BalanceMigrationsAllowed = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "corvusdb",
		Subsystem: "balance",
		Name:      "migrations_allowed",
		Help:      "Whether partition migrations are currently allowed (1=yes)",
	})

	BalanceRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "corvusdb",
		Subsystem: "balance",
		Name:      "runs_total",
		Help:      "Partition balance invocations",
	})
)
