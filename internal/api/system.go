package api

import (
	"net/http"
)

// handleStats returns cumulative operational counters from every
// subsystem the server can see.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	stats := map[string]any{
		"connected":  s.deviceConnected(),
		"dispatcher": s.dispatcher.Stats(),
		"perception": s.engine.Stats(),
	}
	s.pollerMu.RLock()
	poller := s.poller
	s.pollerMu.RUnlock()
	if poller != nil {
		stats["poller"] = poller.Stats()
	}
	if s.tracker != nil {
		stats["tracking"] = s.tracker.Stats()
	}
	if s.hub != nil {
		stats["websocket_clients"] = s.hub.ClientCount()
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleTracking returns the external tracker's latest state.
func (s *Server) handleTracking(w http.ResponseWriter, _ *http.Request) {
	if s.tracker == nil {
		writeNotFound(w, "tracking not enabled")
		return
	}

	resp := map[string]any{
		"stats": s.tracker.Stats(),
	}
	tracked, ok := s.tracker.Tracked()
	resp["detected"] = ok
	if ok {
		resp["angles"] = tracked
	}
	if lm := s.tracker.Landmarks(); len(lm) > 0 {
		resp["landmarks"] = lm
	}
	writeJSON(w, http.StatusOK, resp)
}
