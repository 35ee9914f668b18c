// internal/handlers/admin.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/daylight021/lily/internal/auth"
	"github.com/daylight021/lily/internal/middleware"
	"github.com/daylight021/lily/internal/uno"
)

// AdminServer exposes the operator surface: a session snapshot endpoint and a
// live feed of room announcements over WebSocket. All routes require a bearer
// token minted at startup.
type AdminServer struct {
	logger *logrus.Logger
	reg    *uno.Registry
	feed   *EventFeed
}

func NewAdminServer(logger *logrus.Logger, reg *uno.Registry, feed *EventFeed) *AdminServer {
	return &AdminServer{logger: logger, reg: reg, feed: feed}
}

// Routes builds the admin mux with request logging and token auth applied.
func (s *AdminServer) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/sessions", s.requireAuth(s.handleSessions))
	mux.HandleFunc("GET /admin/ws", s.requireAuth(s.handleWS))
	return middleware.LogMiddleware(s.logger)(mux)
}

// requireAuth accepts the token as an Authorization bearer header or, for
// WebSocket clients, a "token" query parameter.
func (s *AdminServer) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		if _, err := auth.AuthenticateJWT(token); err != nil {
			s.logger.WithError(err).Warn("admin auth failed")
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *AdminServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.reg.Snapshot()); err != nil {
		s.logger.WithError(err).Warn("failed to encode session snapshot")
	}
}

// handleWS streams room announcements to the client as JSON frames until the
// client goes away.
func (s *AdminServer) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")
	middleware.LogWebSocketConnect(s.logger, r.RemoteAddr, r.URL.Path)

	ctx := c.CloseRead(r.Context())
	ch := s.feed.subscribe()
	defer s.feed.unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			middleware.LogWebSocketDisconnect(s.logger, r.RemoteAddr, r.URL.Path, ctx.Err())
			c.Close(websocket.StatusNormalClosure, "bye")
			return
		case ev := <-ch:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := c.Write(ctx, websocket.MessageText, data); err != nil {
				middleware.LogWebSocketDisconnect(s.logger, r.RemoteAddr, r.URL.Path, err)
				return
			}
		}
	}
}
