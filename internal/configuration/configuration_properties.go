package configuration

import (
	"time"
)

type Properties struct {
	App       AppConfigurationProperties       `yaml:"app"`
	Transport TransportConfigurationProperties `yaml:"transport"`
	Cluster   ClusterConfigurationProperties   `yaml:"cluster"`
	Metrics   MetricsConfigurationProperties   `yaml:"metrics"`
}

type AppConfigurationProperties struct {
	Profile  string `yaml:"profile"`
	LogLevel string `yaml:"log-level"`
}

type TransportConfigurationProperties struct {
	Address       string `yaml:"address"`
	Port          string `yaml:"port"`
	Network       string `yaml:"network"`
	Timeout       uint64 `yaml:"timeout"`
	SendQueueSize int    `yaml:"send-queue-size"`
}

type ClusterConfigurationProperties struct {
	NodeID uint64 `yaml:"node-id"`

	// Peers maps node id to fabric address for every node this one may
	// exchange with, self included.
	Peers map[uint64]string `yaml:"peers"`

	// Namespaces this node serves, in declaration order.
	Namespaces []string `yaml:"namespaces"`

	// HeartbeatTxInterval is the heartbeat transmit interval in
	// milliseconds; the exchange derives its retransmit timeouts from it.
	HeartbeatTxInterval uint64 `yaml:"heartbeat-tx-interval"`

	// QuantumInterval is the membership service's quantum interval in
	// milliseconds.
	QuantumInterval uint64 `yaml:"quantum-interval"`
}

type MetricsConfigurationProperties struct {
	Address string `yaml:"address"`
}

func (c *TransportConfigurationProperties) FabricAddr() string {
	return c.Address + ":" + c.Port
}

func (c *ClusterConfigurationProperties) HeartbeatTxDuration() time.Duration {
	return time.Duration(c.HeartbeatTxInterval) * time.Millisecond
}

func (c *ClusterConfigurationProperties) QuantumDuration() time.Duration {
	return time.Duration(c.QuantumInterval) * time.Millisecond
}

// TxInterval satisfies the heartbeat interval accessor the exchange
// consumes.
func (c *ClusterConfigurationProperties) TxInterval() time.Duration {
	return c.HeartbeatTxDuration()
}
