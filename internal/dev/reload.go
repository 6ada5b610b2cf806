package dev

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ReloadPath is the live channel endpoint.
const ReloadPath = "/_chen/reload"

// ReloadMessageType represents the type of live channel message.
type ReloadMessageType string

const (
	ReloadTypeFull  ReloadMessageType = "reload"
	ReloadTypeError ReloadMessageType = "error"
	ReloadTypeClear ReloadMessageType = "clear"
)

// ReloadMessage is sent to browsers over the live channel.
type ReloadMessage struct {
	Type  ReloadMessageType `json:"type"`
	Error string            `json:"error,omitempty"`
}

const writeTimeout = 5 * time.Second

// reloadClient serializes writes to one connection.
type reloadClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *reloadClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// ReloadServer is the live development channel. It holds the websocket
// connections of open browser tabs and broadcasts reload signals to them.
type ReloadServer struct {
	clients  map[*reloadClient]struct{}
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *zap.Logger
	metrics  *Metrics
}

// NewReloadServer creates a new reload server. Metrics may be nil.
func NewReloadServer(logger *zap.Logger, metrics *Metrics) *ReloadServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReloadServer{
		clients: make(map[*reloadClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // dev only
			},
		},
		logger:  logger.Named("reload"),
		metrics: metrics,
	}
}

// HandleWebSocket upgrades the request and keeps the connection registered
// until the client goes away.
func (r *ReloadServer) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &reloadClient{conn: conn}
	r.mu.Lock()
	r.clients[client] = struct{}{}
	count := len(r.clients)
	r.metrics.setClients(count)
	r.mu.Unlock()
	r.logger.Debug("client connected", zap.Int("clients", count))

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	r.remove(client)
}

// NotifyReload asks every client for a full page reload.
func (r *ReloadServer) NotifyReload() {
	r.metrics.incReloads()
	r.broadcast(ReloadMessage{Type: ReloadTypeFull})
}

// NotifyError shows an error overlay on every client.
func (r *ReloadServer) NotifyError(errMsg string) {
	r.broadcast(ReloadMessage{Type: ReloadTypeError, Error: errMsg})
}

// ClearError removes the error overlay on every client.
func (r *ReloadServer) ClearError() {
	r.broadcast(ReloadMessage{Type: ReloadTypeClear})
}

func (r *ReloadServer) broadcast(msg ReloadMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	r.mu.RLock()
	clients := make([]*reloadClient, 0, len(r.clients))
	for client := range r.clients {
		clients = append(clients, client)
	}
	r.mu.RUnlock()

	for _, client := range clients {
		if err := client.write(data); err != nil {
			r.logger.Debug("dropping client", zap.Error(err))
			r.remove(client)
		}
	}
}

func (r *ReloadServer) remove(client *reloadClient) {
	r.mu.Lock()
	_, ok := r.clients[client]
	delete(r.clients, client)
	if ok {
		r.metrics.setClients(len(r.clients))
	}
	r.mu.Unlock()

	if ok {
		client.conn.Close()
	}
}

// ClientCount returns the number of connected clients.
func (r *ReloadServer) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Close closes all client connections.
func (r *ReloadServer) Close() {
	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[*reloadClient]struct{})
	r.metrics.setClients(0)
	r.mu.Unlock()

	for client := range clients {
		client.conn.Close()
	}
}

// DevClientScript is injected into HTML documents served in development.
const DevClientScript = `
<script>
(function() {
    'use strict';

    var delay = 1000;
    var maxDelay = 30000;

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        var ws = new WebSocket(protocol + '//' + location.host + '` + ReloadPath + `');

        ws.onopen = function() {
            delay = 1000;
        };

        ws.onmessage = function(e) {
            var msg;
            try {
                msg = JSON.parse(e.data);
            } catch (err) {
                return;
            }

            switch (msg.type) {
                case 'reload':
                    location.reload();
                    break;
                case 'error':
                    console.error('[chen] route generation failed:', msg.error);
                    showOverlay(msg.error);
                    break;
                case 'clear':
                    clearOverlay();
                    break;
            }
        };

        ws.onclose = function() {
            setTimeout(function() {
                delay = Math.min(delay * 2, maxDelay);
                connect();
            }, delay);
        };

        ws.onerror = function() {
            ws.close();
        };
    }

    function showOverlay(error) {
        clearOverlay();
        var overlay = document.createElement('div');
        overlay.id = 'chen-error-overlay';
        overlay.style.cssText = 'position:fixed;inset:0;background:rgba(0,0,0,0.9);color:#fff;font:14px monospace;padding:20px;overflow:auto;z-index:999999;';
        var pre = document.createElement('pre');
        pre.style.cssText = 'white-space:pre-wrap;max-width:800px;margin:0 auto;';
        pre.textContent = error;
        overlay.appendChild(pre);
        document.body.appendChild(overlay);
    }

    function clearOverlay() {
        var overlay = document.getElementById('chen-error-overlay');
        if (overlay) {
            overlay.remove();
        }
    }

    if (document.readyState === 'loading') {
        document.addEventListener('DOMContentLoaded', connect);
    } else {
        connect();
    }
})();
</script>
`
