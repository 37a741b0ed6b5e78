// Package gateway implements the session gateway of spec.md §4.6: it
// accepts persistent WebSocket connections, identifies each by an opaque
// session handle, routes inbound JSON frames to the room registry, the game
// engine, or the acknowledgement coordinator, and fans engine-emitted
// effects back out to every socket in a room. It replaces the teacher's
// gRPC bidirectional-stream registry (Server.notificationStreams /
// Server.gameStreams in pkg/server/server.go) with a per-room broadcast
// group of *websocket.Conn keyed by session handle, carried over
// gorilla/websocket instead of gRPC streams.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/decred/slog"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dicearena/server/internal/ack"
	"github.com/dicearena/server/internal/metrics"
	"github.com/dicearena/server/internal/registry"
	"github.com/dicearena/server/pkg/timer"
)

// Config configures one Hub.
type Config struct {
	Registry    *registry.Registry
	Log         slog.Logger
	Metrics     *metrics.Metrics
	CORSOrigins []string
	Version     string
	Environment string
}

// Hub is the session gateway: it owns every live WebSocket connection, the
// per-room broadcast groups, and the per-room timer.Scheduler instances
// that drive auto-actions.
type Hub struct {
	registry *registry.Registry
	log      slog.Logger
	metrics  *metrics.Metrics
	ack      *ack.Coordinator
	validate *validator.Validate

	corsOrigins map[string]bool
	corsAny     bool
	version     string
	environment string
	startedAt   time.Time

	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*session
	rooms    map[string]*roomState

	draining atomic.Bool
}

// roomState is the gateway's per-room bookkeeping: the broadcast group and
// the countdown scheduler driving that room's auto-actions.
type roomState struct {
	conns     map[string]*session
	scheduler *timer.Scheduler
}

// New builds a Hub. cfg.Registry and cfg.Log must be non-nil.
func New(cfg Config) *Hub {
	origins := make(map[string]bool, len(cfg.CORSOrigins))
	any := false
	for _, o := range cfg.CORSOrigins {
		if o == "*" {
			any = true
		}
		origins[o] = true
	}
	h := &Hub{
		registry:    cfg.Registry,
		log:         cfg.Log,
		metrics:     cfg.Metrics,
		ack:         ack.New(),
		validate:    newValidator(),
		corsOrigins: origins,
		corsAny:     any,
		version:     cfg.Version,
		environment: cfg.Environment,
		startedAt:   time.Now(),
		sessions:    make(map[string]*session),
		rooms:       make(map[string]*roomState),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	return h
}

// Router builds the HTTP mux serving health probes, metrics, and the
// WebSocket upgrade endpoint, per spec.md §6.
func (h *Hub) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.corsMiddleware)
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/ready", h.handleReady).Methods(http.MethodGet, http.MethodOptions)
	r.Handle("/metrics", promhttp.HandlerFor(h.metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/ws", h.handleWebSocket)
	return r
}

func (h *Hub) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if h.corsAny {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if h.corsOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Hub) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"timestamp":   time.Now().UTC(),
		"uptime":      time.Since(h.startedAt).String(),
		"version":     h.version,
		"environment": h.environment,
	})
}

func (h *Hub) handleReady(w http.ResponseWriter, r *http.Request) {
	ready := !h.draining.Load()
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{"ready": ready})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Drain flips GET /ready to false and stops new room:create requests from
// succeeding, per SPEC_FULL.md §6.8's graceful-shutdown addition. In-flight
// events keep running to completion; existing rooms are left alone.
func (h *Hub) Drain() { h.draining.Store(true) }

// Shutdown cancels every room's timers, the last step of graceful
// shutdown once the process is about to exit.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, rs := range h.rooms {
		rs.scheduler.CancelAll()
	}
	return nil
}

// session is one live WebSocket connection and the player/room it is
// currently associated with, per spec.md §4.6's per-session state
// `{playerId?, roomCode?, reconnectToken?}`.
type session struct {
	handle string
	conn   *websocket.Conn
	mu     sync.Mutex // serializes writes; gorilla/websocket forbids concurrent writers

	playerID       string
	roomCode       string
	reconnectToken string
}

func (s *session) writeJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// inboundFrame is the wire envelope for every client->server event, per
// spec.md §6's event table.
type inboundFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// outboundFrame is the wire envelope for every server->client event.
type outboundFrame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("gateway: upgrade failed: %v", err)
		return
	}
	sess := &session{handle: uuid.NewString(), conn: conn}

	h.mu.Lock()
	h.sessions[sess.handle] = sess
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.ConnectedSessions.Inc()
	}

	defer h.handleDisconnect(sess)

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		h.dispatch(sess, frame)
	}
}

func (h *Hub) handleDisconnect(sess *session) {
	_ = sess.conn.Close()

	h.mu.Lock()
	delete(h.sessions, sess.handle)
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.ConnectedSessions.Dec()
	}

	if sess.roomCode == "" || sess.playerID == "" {
		return
	}
	roomCode, playerID := sess.roomCode, sess.playerID
	h.leaveBroadcastGroup(roomCode, sess)

	ctx := context.Background()
	if err := h.registry.MarkPlayerDisconnected(ctx, roomCode, playerID); err != nil {
		return
	}
	h.broadcastAll(roomCode, "player:disconnected", map[string]interface{}{"playerId": playerID})

	// A player mid-reveal/summary who disconnects must never block the
	// others, per spec.md §4.7 ("disconnected players never block
	// progression"). Re-evaluate the outstanding set against the now-
	// smaller connected roster and advance if that alone completed it.
	h.reconcileAckAfterDisconnect(roomCode)
}
