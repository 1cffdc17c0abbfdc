package webserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/psidex/bmmap/internal/bmmap"
	"github.com/psidex/bmmap/internal/display"
	"github.com/psidex/bmmap/internal/display/visws"
	"github.com/psidex/bmmap/internal/graph"
	"github.com/psidex/bmmap/internal/lib"
)

type renderRequest struct {
	UserName string `json:"userName"`
	// Depth defaults to bmmap.ExpandDepth when omitted.
	Depth *int `json:"depth"`
}

type expandRequest struct {
	UserID *int `json:"userId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type snapshotResponse struct {
	Nodes []display.Node `json:"nodes"`
	Edges []display.Edge `json:"edges"`
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserName == "" {
		s.writeError(w, http.StatusBadRequest, "userName is required")
		return
	}
	depth := bmmap.ExpandDepth
	if req.Depth != nil {
		depth = *req.Depth
	}

	res, err := s.explorer.Render(req.UserName, depth)
	if err != nil {
		s.writeExplorerError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) expand(w http.ResponseWriter, r *http.Request) {
	var req expandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == nil {
		s.writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	res, err := s.explorer.Expand(*req.UserID)
	if err != nil {
		s.writeExplorerError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	s.explorer.Reset()
	s.writeJSON(w, http.StatusOK, s.explorer.Stats())
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	nodes, edges, err := s.explorer.Snapshot()
	if err != nil {
		s.writeError(w, http.StatusNotImplemented, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, snapshotResponse{Nodes: nodes, Edges: edges})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.explorer.Stats())
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": lib.Version})
}

// session attaches a websocket client to the broadcaster. The client first gets
// the current display, taken while no render can run, then every change.
func (s *Server) session(w http.ResponseWriter, r *http.Request) {
	if s.broadcaster == nil {
		s.writeError(w, http.StatusNotFound, "websocket updates are disabled")
		return
	}

	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer c.Close()

	ws := lib.NewThreadSafeWebSocket(c).WithWriteTimeout(s.wsWriteTimeout)

	var id string
	err = s.explorer.WithSnapshot(func(nodes []display.Node, edges []display.Edge) error {
		var attachErr error
		id, attachErr = s.broadcaster.Attach(ws, visws.Message{Nodes: nodes, Edges: edges})
		return attachErr
	})
	if errors.Is(err, bmmap.ErrNoSnapshot) {
		id, err = s.broadcaster.Attach(ws, visws.Message{})
	}
	if err != nil {
		s.logger.Warn("websocket attach failed", "error", err)
		return
	}
	s.metrics.Clients(s.broadcaster.Clients())

	defer func() {
		s.broadcaster.Detach(id)
		s.metrics.Clients(s.broadcaster.Clients())
	}()

	// Clients only listen. Reading keeps control frames flowing and tells us when
	// the page goes away.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeExplorerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, graph.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, graph.ErrInvalidDepth):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("explorer request failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}
