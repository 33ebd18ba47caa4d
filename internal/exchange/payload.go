package exchange

import (
	"bytes"
	"encoding/binary"

	"corvusdb/internal/namespace"
)

// The namespaces payload is a packed little-endian byte stream:
//
//	namespaces_payload := u32 num_namespaces, namespace_payload...
//	namespace_payload  := name[32] (NUL terminated), u32 num_vinfos, vinfo_payload...
//	vinfo_payload      := vinfo[16], u32 num_pids, u16 pid...
//
// A completely empty buffer is accepted as zero namespaces for
// compatibility with nodes that serve no namespaces.

// buildNamespacesPayload serializes the registry's current partition
// versions into buf (appending; pass buf[:0] to reuse) and returns the
// result. Partitions carrying the null version are omitted; within a
// namespace the vinfo groups appear in first-seen partition order.
func buildNamespacesPayload(reg *namespace.Registry, buf []byte) []byte {
	buf = appendU32(buf, uint32(reg.Len()))

	for _, ns := range reg.All() {
		buf = appendNamespacePayload(ns, buf)
	}
	return buf
}

func appendNamespacePayload(ns *namespace.Namespace, buf []byte) []byte {
	// Group pids by vinfo. The map keys the grouping; order is the order
	// each vinfo was first seen while scanning pids.
	groups := make(map[namespace.VersionInfo][]uint16)
	var order []namespace.VersionInfo

	for pid := 0; pid < namespace.PartitionCount; pid++ {
		vinfo := ns.Partitions[pid]
		if vinfo.IsNull() {
			continue
		}
		if _, seen := groups[vinfo]; !seen {
			order = append(order, vinfo)
		}
		groups[vinfo] = append(groups[vinfo], uint16(pid))
	}

	buf = appendName(buf, ns.Name)
	buf = appendU32(buf, uint32(len(order)))

	for _, vinfo := range order {
		pids := groups[vinfo]
		buf = append(buf, vinfo[:]...)
		buf = appendU32(buf, uint32(len(pids)))
		for _, pid := range pids {
			buf = appendU16(buf, pid)
		}
	}
	return buf
}

func appendU32(buf []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(buf, v)
}

func appendU16(buf []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(buf, v)
}

func appendName(buf []byte, name string) []byte {
	var fixed [namespace.NameSize]byte
	copy(fixed[:], name)
	return append(buf, fixed[:]...)
}

// payloadReader walks a namespaces payload with bounds checks on every
// field access. The validator and the decoder share it so they cannot
// disagree about the layout.
type payloadReader struct {
	buf []byte
	off int
}

func (r *payloadReader) remaining() int {
	return len(r.buf) - r.off
}

func (r *payloadReader) u32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, ErrInvalidPayload
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *payloadReader) u16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, ErrInvalidPayload
	}
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

func (r *payloadReader) vinfo() (namespace.VersionInfo, error) {
	var v namespace.VersionInfo
	if r.remaining() < namespace.VersionInfoSize {
		return v, ErrInvalidPayload
	}
	copy(v[:], r.buf[r.off:])
	r.off += namespace.VersionInfoSize
	return v, nil
}

func (r *payloadReader) name() (string, error) {
	if r.remaining() < namespace.NameSize {
		return "", ErrInvalidPayload
	}
	raw := r.buf[r.off : r.off+namespace.NameSize]
	nul := bytes.IndexByte(raw, 0)
	if nul < 0 {
		// Name not NUL terminated within the fixed array.
		return "", ErrInvalidPayload
	}
	r.off += namespace.NameSize
	return string(raw[:nul]), nil
}

// vinfoGroup is one decoded (vinfo, pids) run.
type vinfoGroup struct {
	vinfo namespace.VersionInfo
	pids  []uint16
}

// nsPayload is one decoded namespace payload.
type nsPayload struct {
	name   string
	groups []vinfoGroup
}

// walkPayload drives the shared layout walk. visit is nil when only
// validating.
func walkPayload(buf []byte, visit func(nsPayload)) error {
	// Leniency: an empty buffer stands for zero namespaces.
	if len(buf) == 0 {
		return nil
	}

	r := payloadReader{buf: buf}

	numNamespaces, err := r.u32()
	if err != nil {
		return err
	}
	if numNamespaces > namespace.MaxNamespaces {
		return ErrInvalidPayload
	}

	for i := uint32(0); i < numNamespaces; i++ {
		name, err := r.name()
		if err != nil {
			return err
		}

		numVinfos, err := r.u32()
		if err != nil {
			return err
		}
		if numVinfos > namespace.PartitionCount {
			return ErrInvalidPayload
		}

		var groups []vinfoGroup
		if visit != nil {
			groups = make([]vinfoGroup, 0, numVinfos)
		}

		for j := uint32(0); j < numVinfos; j++ {
			vinfo, err := r.vinfo()
			if err != nil {
				return err
			}

			numPids, err := r.u32()
			if err != nil {
				return err
			}
			if numPids > namespace.PartitionCount {
				return ErrInvalidPayload
			}

			var pids []uint16
			if visit != nil {
				pids = make([]uint16, 0, numPids)
			}
			for k := uint32(0); k < numPids; k++ {
				pid, err := r.u16()
				if err != nil {
					return err
				}
				if int(pid) >= namespace.PartitionCount {
					return ErrInvalidPayload
				}
				if visit != nil {
					pids = append(pids, pid)
				}
			}

			if visit != nil {
				groups = append(groups, vinfoGroup{vinfo: vinfo, pids: pids})
			}
		}

		if visit != nil {
			visit(nsPayload{name: name, groups: groups})
		}
	}

	// The payload must be consumed exactly.
	if r.remaining() != 0 {
		return ErrInvalidPayload
	}
	return nil
}

// validatePayload checks inbound payload bytes without materializing them.
func validatePayload(buf []byte) error {
	return walkPayload(buf, nil)
}

// decodePayload materializes a payload, applying the same checks as
// validatePayload.
func decodePayload(buf []byte) ([]nsPayload, error) {
	var out []nsPayload
	if err := walkPayload(buf, func(p nsPayload) {
		out = append(out, p)
	}); err != nil {
		return nil, err
	}
	return out, nil
}
