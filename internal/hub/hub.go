package hub

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/pawhncho/futurepulse/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second  // Actor command timeout
	stopTimeout    = 10 * time.Second // Graceful shutdown timeout
)

type topicClients map[*websocket.Conn]*clientWriter

// hubCmd is the command interface for the Hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type subscribeCmd struct {
	baseHubCmd
	topic        string
	connection   *websocket.Conn
	errorChannel chan error
}

type unsubscribeCmd struct {
	baseHubCmd
	topic      string
	connection *websocket.Conn
}

type publishCmd struct {
	baseHubCmd
	topic string
	data  []byte
}

type subscriberCountCmd struct {
	baseHubCmd
	topic        string
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// Hub is the topic registry: it tracks which live connections are subscribed to
// which broadcast topic and fans published payloads out to them. Topics are
// created lazily on first subscribe and removed when their last subscriber leaves.
type Hub struct {
	cmdCh         chan hubCmd
	clock         clockwork.Clock
	topics        map[string]topicClients
	subscriptions map[*websocket.Conn]string
	done          chan struct{}
	stopTimeout   time.Duration
}

// NewHub creates the hub and starts its actor goroutine.
func NewHub(clock clockwork.Clock) *Hub {
	h := &Hub{
		cmdCh:         make(chan hubCmd, 256),
		clock:         clock,
		topics:        make(map[string]topicClients),
		subscriptions: make(map[*websocket.Conn]string),
		done:          make(chan struct{}),
		stopTimeout:   stopTimeout,
	}
	go h.run()
	return h
}

// Subscribe registers a connection under a topic. Unknown topics are created
// lazily; subscribing an already-subscribed connection is a no-op. A connection
// subscribed to a different topic is moved to the new one.
func (h *Hub) Subscribe(topic string, conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- subscribeCmd{topic: topic, connection: conn, errorChannel: errCh}

	// Use timeout to prevent blocking forever if the hub is stuck
	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("subscribe command timed out after %v", commandTimeout)
	}
}

// Unsubscribe removes a connection from a topic. Unknown topic or
// never-subscribed connection is a no-op, not an error.
func (h *Hub) Unsubscribe(topic string, conn *websocket.Conn) {
	h.cmdCh <- unsubscribeCmd{topic: topic, connection: conn}
}

// Publish delivers data to every connection currently subscribed to topic.
// Delivery is best-effort: subscribers whose outbound buffer is full are
// evicted, and publishing to zero subscribers is success. Publish never fails.
func (h *Hub) Publish(topic string, data []byte) {
	h.cmdCh <- publishCmd{topic: topic, data: data}
}

// SubscriberCount returns the number of connections subscribed to topic.
// Returns -1 if the command times out.
func (h *Hub) SubscriberCount(topic string) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- subscriberCountCmd{topic: topic, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("SubscriberCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts down the hub, closing all subscriber connections.
// Blocks until the hub goroutine has exited or timeout is reached.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timeout := h.clock.NewTimer(h.stopTimeout)
	defer timeout.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timeout.Chan():
		slog.Warn("Hub stop timeout exceeded, forcing exit", "timeout", h.stopTimeout)
		metrics.HubStopTimeoutsTotal.Inc()
		close(h.done)
	}
}

func (h *Hub) run() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Hub panic recovered", "panic", r)
			metrics.HubPanicsTotal.Inc()
			h.closeAllClients("hub panic")
		}
	}()

	// Track command channel depth every second
	depthTicker := h.clock.NewTicker(1 * time.Second)
	defer depthTicker.Stop()
	defer close(h.done)

	for {
		select {
		case <-depthTicker.Chan():
			depth := len(h.cmdCh)
			metrics.HubCommandChannelDepth.Set(float64(depth))
			if depth > 200 { // 80% of 256
				slog.Warn("Hub command channel near capacity", "depth", depth, "capacity", cap(h.cmdCh))
			}

		case cmd := <-h.cmdCh:
			switch c := cmd.(type) {
			case subscribeCmd:
				h.handleSubscribe(c)
			case unsubscribeCmd:
				h.handleUnsubscribe(c)
			case publishCmd:
				h.handlePublish(c)
			case subscriberCountCmd:
				c.replyChannel <- len(h.topics[c.topic])
			case stopCmd:
				h.handleStop()
				return
			default:
				slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
			}
		}
	}
}

func (h *Hub) handleSubscribe(c subscribeCmd) {
	if current, ok := h.subscriptions[c.connection]; ok {
		if current == c.topic {
			// Already subscribed - idempotent
			c.errorChannel <- nil
			return
		}
		// A connection belongs to at most one topic at a time; its writer
		// travels with it so the socket stays live.
		h.moveClient(c.connection, current, c.topic)
		c.errorChannel <- nil
		return
	}

	clients, exists := h.topics[c.topic]
	if !exists {
		clients = make(topicClients)
		h.topics[c.topic] = clients
	}

	cw := newClientWriter(c.connection, h.clock)
	clients[c.connection] = cw
	h.subscriptions[c.connection] = c.topic

	metrics.HubSubscribers.WithLabelValues(c.topic).Set(float64(len(clients)))
	slog.Debug("Client subscribed", "topic", c.topic, "total_subscribers", len(clients))
	c.errorChannel <- nil
}

// moveClient reattaches a connection's writer under a new topic. The writer
// keeps running throughout; only the registry entries change.
func (h *Hub) moveClient(conn *websocket.Conn, from, to string) {
	old := h.topics[from]
	cw := old[conn]
	delete(old, conn)

	if len(old) == 0 {
		delete(h.topics, from)
		metrics.HubSubscribers.DeleteLabelValues(from)
	} else {
		metrics.HubSubscribers.WithLabelValues(from).Set(float64(len(old)))
	}

	clients, exists := h.topics[to]
	if !exists {
		clients = make(topicClients)
		h.topics[to] = clients
	}
	clients[conn] = cw
	h.subscriptions[conn] = to

	metrics.HubSubscribers.WithLabelValues(to).Set(float64(len(clients)))
	slog.Debug("Client moved between topics", "from", from, "to", to)
}

func (h *Hub) handleUnsubscribe(c unsubscribeCmd) {
	clients, exists := h.topics[c.topic]
	if !exists {
		return
	}

	cw, exists := clients[c.connection]
	if !exists {
		return
	}

	cw.stop()
	delete(clients, c.connection)
	delete(h.subscriptions, c.connection)

	if len(clients) == 0 {
		delete(h.topics, c.topic)
		metrics.HubSubscribers.DeleteLabelValues(c.topic)
		slog.Info("Last subscriber left topic", "topic", c.topic)
	} else {
		metrics.HubSubscribers.WithLabelValues(c.topic).Set(float64(len(clients)))
		slog.Debug("Client unsubscribed", "topic", c.topic, "remaining_subscribers", len(clients))
	}
}

func (h *Hub) handlePublish(c publishCmd) {
	metrics.HubBroadcastsTotal.WithLabelValues(c.topic).Inc()

	clients, exists := h.topics[c.topic]
	if !exists {
		return
	}

	var slow []*websocket.Conn
	for conn, writer := range clients {
		select {
		case writer.sendChannel <- c.data:
			metrics.HubDeliveriesTotal.WithLabelValues(c.topic).Inc()
		default:
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		slog.Warn("Disconnecting slow client", "topic", c.topic)
		metrics.HubSlowClientsEvicted.Inc()
		h.handleUnsubscribe(unsubscribeCmd{topic: c.topic, connection: conn})
	}
}

func (h *Hub) handleStop() {
	totalClients := 0
	for _, clients := range h.topics {
		totalClients += len(clients)
	}

	slog.Info("Hub shutting down", "topics", len(h.topics), "total_subscribers", totalClients)
	h.closeAllClients("Server shutting down")
	slog.Info("Hub shutdown complete", "disconnected_clients", totalClients)
}

// closeAllClients closes all subscriber connections with the given reason.
// Used during panic recovery and graceful shutdown.
func (h *Hub) closeAllClients(reason string) {
	for topic, clients := range h.topics {
		for conn, cw := range clients {
			cw.stopGraceful(reason)
			delete(h.subscriptions, conn)
		}
		delete(h.topics, topic)
		metrics.HubSubscribers.DeleteLabelValues(topic)
	}
}
