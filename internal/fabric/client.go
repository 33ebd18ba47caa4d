package fabric

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"corvusdb/internal/cluster"
	"corvusdb/internal/fabric/gen/fabricpb"
	"corvusdb/internal/metrics"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// peerSender owns one peer's connection and outbound queue. A single
// goroutine drains the queue so sends from the protocol layer return
// immediately.
type peerSender struct {
	service *Service
	node    cluster.NodeID
	addr    string

	queue chan *Message
	done  chan struct{}
	once  sync.Once

	dialOnce sync.Once
	conn     *grpc.ClientConn
	client   fabricpb.FabricServiceClient
	dialErr  error
}

func newPeerSender(s *Service, node cluster.NodeID, addr string, queueSize int) *peerSender {
	p := &peerSender{
		service: s,
		node:    node,
		addr:    addr,
		queue:   make(chan *Message, queueSize),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *peerSender) enqueue(msg *Message) error {
	select {
	case p.queue <- cloneMessage(msg):
		metrics.FabricSendsTotal.WithLabelValues("queued").Inc()
		metrics.FabricSendQueueDepth.WithLabelValues(p.node.String()).Set(float64(len(p.queue)))
		return nil
	default:
		metrics.FabricSendsTotal.WithLabelValues("queue_full").Inc()
		slog.Warn("fabric send queue full, dropping message", "peer_id", p.node)
		return nil
	}
}

func (p *peerSender) run() {
	for {
		select {
		case <-p.done:
			return
		case msg := <-p.queue:
			metrics.FabricSendQueueDepth.WithLabelValues(p.node.String()).Set(float64(len(p.queue)))
			p.deliver(msg)
		}
	}
}

func (p *peerSender) deliver(msg *Message) {
	client, err := p.dial()
	if err != nil {
		metrics.FabricSendsTotal.WithLabelValues("dial_error").Inc()
		slog.Warn("fabric dial failed", "peer_id", p.node, "addr", p.addr, "error", err)
		return
	}

	env := &fabricpb.Envelope{
		SourceNode: uint64(p.service.self),
		Message: &fabricpb.ExchangeMessage{
			ProtocolId:        msg.ProtocolID,
			MsgType:           msg.Type,
			ClusterKey:        uint64(msg.ClusterKey),
			NamespacesPayload: msg.Payload,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.service.timeout)
	_, err = client.Deliver(ctx, env)
	cancel()

	if err != nil {
		metrics.FabricSendsTotal.WithLabelValues("send_error").Inc()
		slog.Warn("fabric send failed", "peer_id", p.node, "error", err)
		return
	}
	metrics.FabricSendsTotal.WithLabelValues("sent").Inc()
}

func (p *peerSender) dial() (fabricpb.FabricServiceClient, error) {
	p.dialOnce.Do(func() {
		conn, err := grpc.NewClient(p.addr,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithKeepaliveParams(keepalive.ClientParameters{
				Time:                30 * time.Second,
				Timeout:             5 * time.Second,
				PermitWithoutStream: true,
			}),
		)
		if err != nil {
			p.dialErr = err
			return
		}
		p.conn = conn
		p.client = fabricpb.NewFabricServiceClient(conn)
	})
	return p.client, p.dialErr
}

func (p *peerSender) stop() {
	p.once.Do(func() {
		close(p.done)
		if p.conn != nil {
			if err := p.conn.Close(); err != nil {
				slog.Debug("fabric conn close", "peer_id", p.node, "error", err)
			}
		}
	})
}
