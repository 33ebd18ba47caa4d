package cluster

import (
	"fmt"
	"strings"
)

// NodeID identifies a member node. Zero is never a valid node id.
type NodeID uint64

// Key identifies a membership generation. Zero means "no cluster".
type Key uint64

// MaxSizeSoft is the soft limit on cluster size. Larger memberships are not
// rejected, and no table or buffer in this module is sized by it.
const MaxSizeSoft = 200

func (n NodeID) String() string {
	return fmt.Sprintf("%x", uint64(n))
}

func (k Key) String() string {
	return fmt.Sprintf("%x", uint64(k))
}

// FormatNodes renders a succession list as comma separated hex node ids.
func FormatNodes(nodes []NodeID) string {
	var b strings.Builder
	for i, n := range nodes {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(n.String())
	}
	return b.String()
}

// ContainsNode reports whether node is present in nodes.
func ContainsNode(nodes []NodeID, node NodeID) bool {
	for _, n := range nodes {
		if n == node {
			return true
		}
	}
	return false
}

// CopyNodes returns an owned copy of nodes.
func CopyNodes(nodes []NodeID) []NodeID {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]NodeID, len(nodes))
	copy(out, nodes)
	return out
}
