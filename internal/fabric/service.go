package fabric

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"corvusdb/internal/cluster"
	"corvusdb/internal/configuration"
	"corvusdb/internal/fabric/gen/fabricpb"
	"corvusdb/internal/metrics"

	"google.golang.org/grpc"
)

const loopbackQueueSize = 1024

type inboundEnvelope struct {
	source cluster.NodeID
	msg    *Message
}

// Service owns the fabric server, the peer client pool and the loopback
// queue. One instance per process.
type Service struct {
	self    cluster.NodeID
	network string
	address string
	timeout time.Duration

	queueSize int

	mu      sync.Mutex
	peers   map[cluster.NodeID]*peerSender
	handler Handler

	loopback chan inboundEnvelope
	stopCh   chan struct{}
	stopped  sync.WaitGroup

	server *grpc.Server
	lis    net.Listener
}

func NewService(self cluster.NodeID, cfg *configuration.TransportConfigurationProperties) *Service {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = time.Second
	}

	return &Service{
		self:      self,
		network:   cfg.Network,
		address:   cfg.FabricAddr(),
		timeout:   timeout,
		queueSize: cfg.SendQueueSize,
		peers:     make(map[cluster.NodeID]*peerSender),
		loopback:  make(chan inboundEnvelope, loopbackQueueSize),
		stopCh:    make(chan struct{}),
	}
}

// RegisterHandler installs the single inbound message handler. Must be
// called before Start.
func (s *Service) RegisterHandler(h Handler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// AddPeer registers the fabric address for a node. Connections are dialed
// lazily on first send.
func (s *Service) AddPeer(node cluster.NodeID, addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.peers[node]; ok {
		return
	}
	s.peers[node] = newPeerSender(s, node, addr, s.queueSize)
}

// Start begins serving inbound messages and dispatching loopback sends.
func (s *Service) Start() error {
	lis, err := net.Listen(s.network, s.address)
	if err != nil {
		return fmt.Errorf("fabric listen: %w", err)
	}
	s.lis = lis

	s.server = grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			deliveryInterceptor(),
			timeoutInterceptor(s.timeout),
		),
	)
	fabricpb.RegisterFabricServiceServer(s.server, &deliverEndpoint{service: s})

	slog.Info("fabric listening", "addr", lis.Addr().String(), "node_id", s.self)

	s.stopped.Add(2)
	go func() {
		defer s.stopped.Done()
		if err := s.server.Serve(lis); err != nil {
			slog.Error("fabric serve failed", "error", err)
		}
	}()
	go func() {
		defer s.stopped.Done()
		s.runLoopback()
	}()

	return nil
}

// Stop stops the peer senders, discarding messages still queued for them,
// and shuts the server down.
func (s *Service) Stop() {
	close(s.stopCh)

	s.mu.Lock()
	for _, p := range s.peers {
		p.stop()
	}
	s.mu.Unlock()

	if s.server != nil {
		s.server.GracefulStop()
	}
	s.stopped.Wait()
	slog.Info("fabric stopped", "node_id", s.self)
}

// Addr returns the bound listen address, valid after Start.
func (s *Service) Addr() string {
	if s.lis == nil {
		return s.address
	}
	return s.lis.Addr().String()
}

// Send queues msg for delivery to dest. Messages to self are delivered
// through the loopback queue. Send never blocks on the network; a full
// queue drops the message, relying on protocol level retransmission.
func (s *Service) Send(dest cluster.NodeID, msg *Message) error {
	if dest == s.self {
		return s.sendLoopback(msg)
	}

	s.mu.Lock()
	p, ok := s.peers[dest]
	s.mu.Unlock()

	if !ok {
		metrics.FabricSendsTotal.WithLabelValues("no_peer").Inc()
		return fmt.Errorf("%w: %s", ErrUnknownPeer, dest)
	}
	return p.enqueue(msg)
}

// SendList queues msg for every node in dests, reporting the first error
// but attempting all sends.
func (s *Service) SendList(dests []cluster.NodeID, msg *Message) error {
	var firstErr error
	for _, dest := range dests {
		if err := s.Send(dest, msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Service) sendLoopback(msg *Message) error {
	select {
	case s.loopback <- inboundEnvelope{source: s.self, msg: cloneMessage(msg)}:
		metrics.FabricSendsTotal.WithLabelValues("loopback").Inc()
		return nil
	default:
		metrics.FabricSendsTotal.WithLabelValues("loopback_full").Inc()
		return ErrLoopbackFull
	}
}

func (s *Service) runLoopback() {
	for {
		select {
		case <-s.stopCh:
			return
		case env := <-s.loopback:
			s.dispatch(env.source, env.msg)
		}
	}
}

func (s *Service) dispatch(source cluster.NodeID, msg *Message) {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()

	if h == nil {
		slog.Debug("fabric message dropped, no handler registered", "source", source)
		return
	}
	metrics.FabricDeliveriesTotal.Inc()
	h(source, msg)
}

func cloneMessage(msg *Message) *Message {
	out := &Message{
		ProtocolID: msg.ProtocolID,
		Type:       msg.Type,
		ClusterKey: msg.ClusterKey,
	}
	if len(msg.Payload) > 0 {
		out.Payload = make([]byte, len(msg.Payload))
		copy(out.Payload, msg.Payload)
	}
	return out
}

type deliverEndpoint struct {
	fabricpb.UnimplementedFabricServiceServer
	service *Service
}

func (e *deliverEndpoint) Deliver(_ context.Context, env *fabricpb.Envelope) (*fabricpb.DeliverAck, error) {
	m := env.GetMessage()
	if m == nil {
		slog.Debug("fabric envelope without message", "source", env.GetSourceNode())
		return &fabricpb.DeliverAck{}, nil
	}

	e.service.dispatch(cluster.NodeID(env.GetSourceNode()), &Message{
		ProtocolID: m.GetProtocolId(),
		Type:       m.GetMsgType(),
		ClusterKey: cluster.Key(m.GetClusterKey()),
		Payload:    m.GetNamespacesPayload(),
	})

	return &fabricpb.DeliverAck{}, nil
}
