package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"farmconnect/internal/util"
	"farmconnect/pkg/domain"
	"farmconnect/pkg/feed"
)

var watchUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Browsers cannot set Authorization on websocket requests, so the
	// session token is checked before the upgrade; origin stays open the
	// same way the CORS layer does.
	CheckOrigin: func(*http.Request) bool { return true },
}

const (
	watchWriteTimeout = 5 * time.Second
	watchPongTimeout  = 60 * time.Second
	watchPingInterval = 30 * time.Second
)

func (s *Server) handleWatchProduce(w http.ResponseWriter, r *http.Request, user domain.User) {
	_ = user
	s.serveWatch(w, r, feed.CollectionProduce, func() (any, error) {
		return s.app.ListProduce(r.Context())
	})
}

func (s *Server) handleWatchMarketItems(w http.ResponseWriter, r *http.Request, user domain.User) {
	_ = user
	category := domain.MarketCategory(strings.TrimSpace(r.URL.Query().Get("category")))
	s.serveWatch(w, r, feed.CollectionMarketItems, func() (any, error) {
		return s.app.ListMarketItems(r.Context(), category)
	})
}

func (s *Server) handleWatchInventory(w http.ResponseWriter, r *http.Request, user domain.User) {
	s.serveWatch(w, r, feed.CollectionFarmInventories, func() (any, error) {
		return s.app.ListInventory(r.Context(), user)
	})
}

type watchMessage struct {
	Type  string `json:"type"`
	Items any    `json:"items"`
}

// serveWatch upgrades to a websocket and streams a full collection snapshot
// on connect and after every change. A client that cannot keep up or fails a
// write is dropped; writers are never blocked on it.
func (s *Server) serveWatch(w http.ResponseWriter, r *http.Request, collection string, snapshot func() (any, error)) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	conn, err := watchUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	defer conn.Close()
	logger := util.LoggerFromContext(r.Context())

	signals, cancel := s.app.Hub().Subscribe(collection)
	defer cancel()

	send := func() bool {
		items, err := snapshot()
		if err != nil {
			logger.Warn("watch snapshot failed", "collection", collection, "error", err)
			return false
		}
		conn.SetWriteDeadline(time.Now().Add(watchWriteTimeout))
		if err := conn.WriteJSON(watchMessage{Type: "snapshot", Items: items}); err != nil {
			return false
		}
		return true
	}
	if !send() {
		return
	}

	// Reader goroutine: consume control frames and notice the client leaving.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(watchPongTimeout))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(watchPongTimeout))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pings := time.NewTicker(watchPingInterval)
	defer pings.Stop()
	for {
		select {
		case <-signals:
			if !send() {
				return
			}
		case <-pings.C:
			conn.SetWriteDeadline(time.Now().Add(watchWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
