// Package server exposes the icon editor over HTTP and streams change
// events to websocket clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"mindicons/internal/app"
	"mindicons/internal/controller"
	"mindicons/internal/icons"
	"mindicons/internal/mindmap"
)

// Server serves the JSON API and the /ws event stream.
type Server struct {
	app        *app.App
	logger     *zap.Logger
	websockets *WebSocketManager

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// New creates a server for a
func New(a *app.App, logger *zap.Logger) *Server {
	return &Server{
		app:        a,
		logger:     logger,
		websockets: NewWebSocketManager(a.Bus(), logger.Named("ws")),
	}
}

// WebSockets returns the websocket manager
func (s *Server) WebSockets() *WebSocketManager { return s.websockets }

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		s.websockets.HandleWebSocket(w, r, r.URL.Query().Get("map"))
	})

	mux.HandleFunc("GET /api/icons", s.handleSearchIcons)
	mux.HandleFunc("GET /api/toolbar", s.handleToolbar)
	mux.HandleFunc("GET /api/menu", s.handleMenu)
	mux.HandleFunc("GET /api/shortcuts", s.handleShortcuts)

	mux.HandleFunc("GET /api/maps", s.handleListMaps)
	mux.HandleFunc("GET /api/maps/{map}", s.handleGetMap)
	mux.HandleFunc("POST /api/maps/{map}/nodes/{node}/actions/{action}", s.handlePerform)
	mux.HandleFunc("PUT /api/maps/{map}/nodes/{node}/icon-size", s.handleIconSize)
	mux.HandleFunc("POST /api/maps/{map}/undo", s.handleUndo)
	mux.HandleFunc("POST /api/maps/{map}/redo", s.handleRedo)
	mux.HandleFunc("POST /api/maps/{map}/save", s.handleSave)
	mux.HandleFunc("POST /api/maps/{map}/close", s.handleClose)
	mux.HandleFunc("DELETE /api/maps/{map}", s.handleDelete)
	mux.HandleFunc("GET /api/maps/{map}/styles", s.handleListStyles)
	mux.HandleFunc("POST /api/maps/{map}/styles", s.handleAddStyle)

	return s.logging(mux)
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status_code", rw.statusCode),
			zap.Duration("duration", time.Since(start)),
		}
		if rw.statusCode >= 400 {
			s.logger.Warn("Request completed with error", fields...)
			return
		}
		s.logger.Debug("Request completed", fields...)
	})
}

// Start listens on addr and serves until Shutdown. It returns once the
// listener is bound; serve errors are logged.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("HTTP server listening", zap.String("address", ln.Addr().String()))
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address, or "" before Start
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Warn("HTTP server forced shutdown", zap.Error(err))
		return srv.Close()
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode    int
	headerWritten bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.headerWritten {
		rw.statusCode = code
		rw.headerWritten = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, app.ErrMapNotFound),
		errors.Is(err, mindmap.ErrNodeNotFound),
		errors.Is(err, controller.ErrUnknownAction),
		errors.Is(err, icons.ErrUnknownIcon):
		status = http.StatusNotFound
	case errors.Is(err, errBadRequest), errors.Is(err, app.ErrInvalidRule):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
}

var errBadRequest = errors.New("bad request")

func (s *Server) handleSearchIcons(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, fmt.Errorf("%w: invalid limit %q", errBadRequest, v))
			return
		}
		limit = n
	}
	results, err := s.app.Search(r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (s *Server) handleToolbar(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": s.app.Toolbar()})
}

func (s *Server) handleMenu(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Menu())
}

func (s *Server) handleShortcuts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"shortcuts": s.app.Actions().Shortcuts()})
}

func (s *Server) handleListMaps(w http.ResponseWriter, _ *http.Request) {
	ids, err := s.app.ListMaps()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"maps": ids})
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	s.writeSnapshot(w, r.PathValue("map"))
}

func (s *Server) writeSnapshot(w http.ResponseWriter, mapID string) {
	view, err := s.app.Snapshot(mapID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handlePerform(w http.ResponseWriter, r *http.Request) {
	mapID := r.PathValue("map")
	if err := s.app.Perform(mapID, r.PathValue("node"), r.PathValue("action")); err != nil {
		writeError(w, err)
		return
	}
	s.writeSnapshot(w, mapID)
}

func (s *Server) handleIconSize(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Size string `json:"size"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err))
		return
	}
	mapID := r.PathValue("map")
	if err := s.app.ChangeIconSize(mapID, r.PathValue("node"), body.Size); err != nil {
		if !errors.Is(err, app.ErrMapNotFound) && !errors.Is(err, mindmap.ErrNodeNotFound) {
			err = fmt.Errorf("%w: %v", errBadRequest, err)
		}
		writeError(w, err)
		return
	}
	s.writeSnapshot(w, mapID)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.handleHistory(w, r, s.app.Undo)
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.handleHistory(w, r, s.app.Redo)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, step func(string) (bool, error)) {
	mapID := r.PathValue("map")
	changed, err := step(mapID)
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := s.app.Snapshot(mapID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"changed": changed,
		"map":     view,
	})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.app.SaveMap(r.PathValue("map")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if err := s.app.CloseMap(r.PathValue("map")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.app.DeleteMap(r.PathValue("map")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handleListStyles(w http.ResponseWriter, r *http.Request) {
	rules, err := s.app.StyleRules(r.PathValue("map"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rules": rules})
}

func (s *Server) handleAddStyle(w http.ResponseWriter, r *http.Request) {
	var rule app.StyleRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err))
		return
	}
	mapID := r.PathValue("map")
	if err := s.app.AddStyleRule(mapID, rule); err != nil {
		writeError(w, err)
		return
	}
	s.writeSnapshot(w, mapID)
}
