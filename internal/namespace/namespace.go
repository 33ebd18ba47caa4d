// Package namespace holds the per-namespace partition version tables shared
// between the exchange and partition-balance subsystems.
package namespace

import (
	"fmt"

	"corvusdb/internal/cluster"
)

const (
	// PartitionCount is the system wide number of partitions per namespace.
	PartitionCount = 4096

	// NameSize is the fixed on-wire size of a namespace name, including the
	// NUL terminator.
	NameSize = 32

	// MaxNamespaces bounds how many namespaces a node may configure.
	MaxNamespaces = 32

	// VersionInfoSize is the on-wire size of one partition version record.
	VersionInfoSize = 16
)

// VersionInfo is the opaque per-partition version record. The exchange
// treats it as bytes; its internal structure belongs to the partition
// subsystem. The zero value is the distinguished "null" version.
type VersionInfo [VersionInfoSize]byte

// IsNull reports whether v is the distinguished null version.
func (v VersionInfo) IsNull() bool {
	return v == VersionInfo{}
}

// Namespace is a named data scope owning PartitionCount partitions. The
// Partitions slots carry the node's current versions. Succession,
// ClusterVersions and ClusterSize are rewritten wholesale by the exchange
// commit engine after every committed round and are read by the
// partition-balance engine.
type Namespace struct {
	Name string

	// Partitions[pid] is this node's current version for pid.
	Partitions [PartitionCount]VersionInfo

	// Succession lists, in cluster succession order, the nodes that
	// reported this namespace in the last committed round.
	Succession []cluster.NodeID

	// ClusterVersions[nodeIndex][pid] is the version nodeIndex reported for
	// pid in the last committed round. Row order matches Succession.
	ClusterVersions [][]VersionInfo

	// ClusterSize is len(Succession), kept explicit because the balance
	// engine consumes it as a scalar.
	ClusterSize int
}

// ResetClusterData clears the committed tables ahead of a fresh commit.
func (ns *Namespace) ResetClusterData() {
	ns.Succession = ns.Succession[:0]
	ns.ClusterVersions = ns.ClusterVersions[:0]
	ns.ClusterSize = 0
}

// AppendNode adds node as the next row of the committed tables and returns
// the row for the caller to fill. The row starts out all-null.
func (ns *Namespace) AppendNode(node cluster.NodeID) []VersionInfo {
	ns.Succession = append(ns.Succession, node)
	row := make([]VersionInfo, PartitionCount)
	ns.ClusterVersions = append(ns.ClusterVersions, row)
	ns.ClusterSize++
	return row
}

// Registry holds the configured namespaces in configuration order.
type Registry struct {
	namespaces []*Namespace
	byName     map[string]*Namespace
}

// NewRegistry builds a registry for the given namespace names,
// preserving order.
func NewRegistry(names []string) (*Registry, error) {
	if len(names) > MaxNamespaces {
		return nil, fmt.Errorf("too many namespaces: %d > %d", len(names), MaxNamespaces)
	}

	r := &Registry{byName: make(map[string]*Namespace, len(names))}
	for _, name := range names {
		if len(name) == 0 || len(name) >= NameSize {
			return nil, fmt.Errorf("invalid namespace name %q", name)
		}
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("duplicate namespace %q", name)
		}
		ns := &Namespace{Name: name}
		r.namespaces = append(r.namespaces, ns)
		r.byName[name] = ns
	}
	return r, nil
}

// All returns the namespaces in configuration order.
func (r *Registry) All() []*Namespace {
	return r.namespaces
}

// Get returns the namespace with the given name, or nil.
func (r *Registry) Get(name string) *Namespace {
	return r.byName[name]
}

// Len returns the number of configured namespaces.
func (r *Registry) Len() int {
	return len(r.namespaces)
}
