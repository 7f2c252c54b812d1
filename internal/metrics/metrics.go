package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Hub metrics
var (
	// HubSubscribers tracks current subscribers per topic
	HubSubscribers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hub_subscribers",
			Help: "Current WebSocket subscribers per topic",
		},
		[]string{"topic"},
	)

	// HubBroadcastsTotal tracks broadcasts published per topic
	HubBroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_broadcasts_total",
			Help: "Total broadcasts published per topic",
		},
		[]string{"topic"},
	)

	// HubDeliveriesTotal tracks per-subscriber deliveries per topic
	HubDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_deliveries_total",
			Help: "Total per-subscriber deliveries per topic",
		},
		[]string{"topic"},
	)

	// HubSlowClientsEvicted tracks subscribers dropped because their buffer filled
	HubSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_slow_clients_evicted_total",
			Help: "Total WebSocket subscribers evicted due to full outbound buffer",
		},
	)

	// HubCommandChannelDepth tracks current command channel depth
	HubCommandChannelDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_command_channel_depth",
			Help: "Current hub command channel depth",
		},
	)

	// HubStopTimeoutsTotal tracks hub stops that exceeded timeout
	HubStopTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_stop_timeouts_total",
			Help: "Hub stops that exceeded timeout",
		},
	)

	// HubPanicsTotal tracks hub panic recoveries
	HubPanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_panics_total",
			Help: "Total hub panic recoveries",
		},
	)
)

// WebSocket metrics
var (
	// WebSocketMessageSendDuration tracks outbound send latency
	WebSocketMessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "WebSocket message send duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// WebSocketPingFailures tracks keepalive ping write failures
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Total WebSocket keepalive ping failures",
		},
	)

	// WebSocketConnectionsRejected tracks connections rejected by limits
	WebSocketConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_rejected_total",
			Help: "WebSocket connections rejected by connection limits, by reason",
		},
		[]string{"reason"},
	)

	// WebSocketActiveConnections tracks all live WebSocket connections (feeds and notifications)
	WebSocketActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_active_connections",
			Help: "Current live WebSocket connections",
		},
	)
)

// Feed metrics
var (
	// FeedSnapshotDuration tracks snapshot query+serialize latency per feed
	FeedSnapshotDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_snapshot_duration_seconds",
			Help:    "Feed snapshot computation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"feed"},
	)

	// FeedSnapshotErrors tracks snapshot query failures per feed
	FeedSnapshotErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_snapshot_errors_total",
			Help: "Total feed snapshot failures",
		},
		[]string{"feed"},
	)
)

// Notification metrics
var (
	// NotificationsPublishedTotal tracks event-trigger invocations by payload kind
	NotificationsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Total notifications published, by payload kind",
		},
		[]string{"kind"},
	)
)

// Database metrics
var (
	// DBQueryDuration tracks query latency per repository operation
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"operation"},
	)
)
