package fabric

import "errors"

var (
	// ErrUnknownPeer marks a send to a node id with no registered address.
	ErrUnknownPeer = errors.New("unknown fabric peer")

	// ErrLoopbackFull marks a self-send dropped on a full loopback queue.
	ErrLoopbackFull = errors.New("loopback queue full")
)
