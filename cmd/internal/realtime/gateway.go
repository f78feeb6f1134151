package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"taskward/cmd/identity/ids"
)

// GatewayConfig controls per-connection behavior of the websocket gateway.
type GatewayConfig struct {
	WriteTimeout    time.Duration
	ReadIdleTimeout time.Duration
	SendQueueSize   int

	HeartbeatEvery   time.Duration
	HeartbeatTimeout time.Duration

	// OriginPatterns authorizes cross-origin upgrades (host patterns).
	// Empty means same-host only, which websocket.Accept allows by default.
	OriginPatterns []string
}

// LoadGatewayConfigFromEnv loads gateway config from environment variables
// with safe defaults.
func LoadGatewayConfigFromEnv() GatewayConfig {
	cfg := GatewayConfig{
		WriteTimeout:     envDurationWS("TASKWARD_WS_WRITE_TIMEOUT", wsDefaultWriteTimeout),
		ReadIdleTimeout:  envDurationWS("TASKWARD_WS_READ_IDLE_TIMEOUT", wsDefaultReadIdle),
		SendQueueSize:    envIntWS("TASKWARD_WS_SEND_QUEUE", wsDefaultSendQueueSize),
		HeartbeatEvery:   envDurationWS("TASKWARD_WS_HEARTBEAT_INTERVAL", heartbeatInterval),
		HeartbeatTimeout: envDurationWS("TASKWARD_WS_HEARTBEAT_TIMEOUT", heartbeatTimeout),
		OriginPatterns:   envCSVWS("TASKWARD_WS_ORIGIN_PATTERNS", ""),
	}
	if cfg.SendQueueSize < wsMinSendQueueSize {
		cfg.SendQueueSize = wsMinSendQueueSize
	}
	return cfg
}

// Gateway is the websocket entrypoint for the broadcast channel.
//
// Access control happens before the upgrade: the route is mounted behind the
// bearer gate, so only holders of a valid access token reach HandleWS.
type Gateway struct {
	log     *slog.Logger
	channel *Channel
	cfg     GatewayConfig

	// connections tracks live sessions when metrics are wired.
	connections prometheus.Gauge
}

// GatewayOption configures optional gateway dependencies.
type GatewayOption func(*Gateway)

// WithConnectionsGauge wires a gauge of live websocket sessions.
func WithConnectionsGauge(g prometheus.Gauge) GatewayOption {
	return func(gw *Gateway) {
		if gw == nil || g == nil {
			return
		}
		gw.connections = g
	}
}

// NewGateway constructs a Gateway.
func NewGateway(log *slog.Logger, channel *Channel, cfg GatewayConfig, opts ...GatewayOption) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	if channel == nil {
		channel = NewChannel(log)
	}
	if cfg.SendQueueSize < wsMinSendQueueSize {
		cfg.SendQueueSize = wsMinSendQueueSize
	}

	g := &Gateway{log: log, channel: channel, cfg: cfg}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(g)
	}
	return g
}

// ServeHTTP adapter so the gateway can be mounted as an http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.HandleWS(w, r)
}

// HandleWS upgrades the request and runs the chat loop: every text frame is
// echoed back personally ("You wrote: ...") and fanned out to the channel
// ("Client #N says: ..."); disconnects are announced to the remaining members.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	clientID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/ws/init/"), "/")
	if clientID == "" {
		clientID = "0"
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: g.cfg.OriginPatterns,
	})
	if err != nil {
		g.log.Error("ws.accept.fail", "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	conn.SetReadLimit(maxFrameBytes)

	sessionID, err := ids.NewULID(time.Now().UTC())
	if err != nil {
		g.log.Error("ws.session_id.fail", "err", err)
		_ = conn.Close(websocket.StatusInternalError, "session setup failed")
		return
	}
	client := NewClient(clientID, sessionID, g.cfg.SendQueueSize)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	g.channel.Join(client)
	if g.connections != nil {
		g.connections.Inc()
	}

	var closeOnce sync.Once

	// shutdown is idempotent. It does NOT close client.Send.
	// Membership removal happens before client.Close so broadcasters never
	// see a closing client, and the departure announcement never reaches the
	// departing client itself.
	shutdown := func(code websocket.StatusCode, reason string) {
		closeOnce.Do(func() {
			g.channel.Leave(sessionID)
			g.channel.Broadcast(fmt.Sprintf("Client #%s left the chat", clientID))

			client.Close()
			_ = conn.Close(code, reason)
			cancel()

			if g.connections != nil {
				g.connections.Dec()
			}
		})
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)

		for {
			select {
			case <-ctx.Done():
				return
			case <-client.Done():
				return
			case msg := <-client.Send:
				if err := g.writeText(ctx, conn, msg); err != nil {
					g.log.Info("ws.write.fail", "session_id", sessionID, "close_status", websocket.CloseStatus(err), "err", err)
					shutdown(websocket.StatusAbnormalClosure, "write failed")
					return
				}
			}
		}
	}()

	heartbeatDone := make(chan struct{})
	go func() {
		defer close(heartbeatDone)

		t := time.NewTicker(g.cfg.HeartbeatEvery)
		defer t.Stop()

		failures := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-client.Done():
				return
			case <-t.C:
				hbCtx, hbCancel := context.WithTimeout(ctx, g.cfg.HeartbeatTimeout)
				err := conn.Ping(hbCtx)
				hbCancel()

				if err != nil {
					failures++
					g.log.Info("ws.ping.fail", "session_id", sessionID, "failures", failures, "err", err)
					if failures >= maxPingFailures {
						shutdown(websocket.StatusGoingAway, "heartbeat failed")
						return
					}
					continue
				}
				failures = 0
			}
		}
	}()

	for {
		readCtx, readCancel := context.WithTimeout(ctx, g.cfg.ReadIdleTimeout)
		typ, data, err := conn.Read(readCtx)
		readCancel()

		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				shutdown(websocket.StatusNormalClosure, "peer closed")
			} else if ctx.Err() != nil {
				shutdown(websocket.StatusNormalClosure, "context done")
			} else {
				g.log.Info("ws.read.fail", "session_id", sessionID, "err", err)
				shutdown(websocket.StatusAbnormalClosure, "read failed")
			}
			break
		}
		if typ != websocket.MessageText {
			continue
		}

		text := string(data)
		client.TrySend(fmt.Sprintf("You wrote: %s", text))
		g.channel.Broadcast(fmt.Sprintf("Client #%s says: %s", clientID, text))
	}

	<-writerDone

	select {
	case <-heartbeatDone:
	case <-time.After(time.Second):
	}
}

func (g *Gateway) writeText(ctx context.Context, conn *websocket.Conn, msg string) error {
	wctx, cancel := context.WithTimeout(ctx, g.cfg.WriteTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, []byte(msg))
}

// ---- env helpers ----

func envDurationWS(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envIntWS(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envCSVWS(key, def string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		v = def
	}
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
