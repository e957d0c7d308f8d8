package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/handsense/handsense-core/internal/dispatch"
	"github.com/handsense/handsense-core/internal/hand"
	"github.com/handsense/handsense-core/internal/perception"
	"github.com/handsense/handsense-core/internal/shape"
)

// timeFormat is the wire format for timestamps in responses.
const timeFormat = time.RFC3339Nano

// regionState is one sensor region in a snapshot response.
type regionState struct {
	Region string   `json:"region"`
	Finger string   `json:"finger"`
	Rows   int      `json:"rows"`
	Cols   int      `json:"cols"`
	Values []uint16 `json:"values"`
}

// snapshotResponse is the full tactile state in one payload.
type snapshotResponse struct {
	Taken   string           `json:"taken"`
	Actual  hand.JointVector `json:"actual"`
	Regions []regionState    `json:"regions"`
}

// snapshotSummary reduces a result to the per-cycle WebSocket payload:
// joint angles plus per-region activity, without the raw grids.
func snapshotSummary(res *perception.Result) map[string]any {
	regions := make(map[string]any, len(res.Analyses))
	for name, a := range res.Analyses {
		regions[name] = map[string]any{
			"contact":        a.Contact,
			"active_cells":   a.ActiveCells,
			"total_pressure": a.TotalPressure,
		}
	}
	return map[string]any{
		"taken":      res.Taken,
		"actual":     res.Actual,
		"in_contact": res.InContact,
		"regions":    regions,
	}
}

// handleSnapshot returns the latest acquisition cycle with raw grids.
func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap := s.latestSnapshot()
	if snap == nil {
		writeNotFound(w, "no snapshot yet")
		return
	}

	resp := snapshotResponse{
		Taken:  snap.Taken.UTC().Format(timeFormat),
		Actual: snap.Actual,
	}
	for _, g := range snap.Grids {
		resp.Regions = append(resp.Regions, regionState{
			Region: g.Region.Name,
			Finger: g.Region.Finger.String(),
			Rows:   g.Region.Rows,
			Cols:   g.Region.Cols,
			Values: g.Values,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTactileRegion returns one sensor region's latest grid.
func (s *Server) handleTactileRegion(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "region")
	if _, ok := hand.RegionByName(name); !ok {
		writeNotFound(w, "unknown region: "+name)
		return
	}

	snap := s.latestSnapshot()
	if snap == nil {
		writeNotFound(w, "no snapshot yet")
		return
	}
	g, ok := snap.Grid(name)
	if !ok {
		writeNotFound(w, "region not in snapshot: "+name)
		return
	}

	writeJSON(w, http.StatusOK, regionState{
		Region: g.Region.Name,
		Finger: g.Region.Finger.String(),
		Rows:   g.Region.Rows,
		Cols:   g.Region.Cols,
		Values: g.Values,
	})
}

// handlePose returns the solved hand geometry for the latest snapshot.
func (s *Server) handlePose(w http.ResponseWriter, _ *http.Request) {
	res := s.engine.Latest()
	if res == nil {
		writeNotFound(w, "no perception result yet")
		return
	}
	writeJSON(w, http.StatusOK, res.Pose)
}

// handleShape returns the latest grasped-object estimate.
func (s *Server) handleShape(w http.ResponseWriter, _ *http.Request) {
	res := s.engine.Latest()
	if res == nil {
		writeNotFound(w, "no perception result yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":       res.Estimate.Kind.String(),
		"confidence": res.Estimate.Confidence,
		"centroid":   res.Estimate.Centroid,
		"extent":     res.Estimate.Extent,
		"radius":     res.Estimate.Radius,
		"in_contact": res.InContact,
	})
}

// handleContacts returns the latest 3D contact cloud.
func (s *Server) handleContacts(w http.ResponseWriter, _ *http.Request) {
	res := s.engine.Latest()
	if res == nil {
		writeNotFound(w, "no perception result yet")
		return
	}
	contacts := res.Contacts
	if contacts == nil {
		contacts = []shape.ContactPoint{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"taken":    res.Taken.UTC().Format(timeFormat),
		"contacts": contacts,
	})
}

// jointsResponse pairs every view of the joint state.
type jointsResponse struct {
	Actual  *hand.JointVector `json:"actual,omitempty"`
	Target  *hand.JointVector `json:"target,omitempty"`
	Tracked *hand.JointVector `json:"tracked,omitempty"`
}

// handleGetJoints returns actual, target and tracked joint vectors.
func (s *Server) handleGetJoints(w http.ResponseWriter, _ *http.Request) {
	var resp jointsResponse

	if snap := s.latestSnapshot(); snap != nil {
		actual := snap.Actual
		resp.Actual = &actual
	}
	if target, ok := s.dispatcher.Target(); ok {
		resp.Target = &target
	}
	if s.tracker != nil {
		if tracked, ok := s.tracker.Tracked(); ok {
			resp.Tracked = &tracked
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// jointCommand is the request body for joint, speed and force writes.
type jointCommand struct {
	Joints *hand.JointVector `json:"joints"`
}

func decodeJointCommand(r *http.Request) (hand.JointVector, error) {
	var cmd jointCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		return hand.JointVector{}, err
	}
	if cmd.Joints == nil {
		return hand.JointVector{}, errors.New("joints field is required")
	}
	return *cmd.Joints, nil
}

// handleSetJoints enqueues a joint command. Out-of-range values are
// clamped, not rejected.
func (s *Server) handleSetJoints(w http.ResponseWriter, r *http.Request) {
	v, err := decodeJointCommand(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	s.dispatcher.Enqueue(v)
	target, _ := s.dispatcher.Target()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"target": target,
	})
}

// handleSetSpeed writes the speed registers immediately, bypassing the
// command queue.
func (s *Server) handleSetSpeed(w http.ResponseWriter, r *http.Request) {
	v, err := decodeJointCommand(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.dispatcher.SetSpeed(r.Context(), v); err != nil {
		s.writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"speed": v.ClampSpeeds()})
}

// handleSetForce writes the force thresholds immediately, bypassing the
// command queue.
func (s *Server) handleSetForce(w http.ResponseWriter, r *http.Request) {
	v, err := decodeJointCommand(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.dispatcher.SetForce(r.Context(), v); err != nil {
		s.writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"force": v.ClampForces()})
}

// writeDispatchError maps dispatcher errors onto HTTP statuses.
func (s *Server) writeDispatchError(w http.ResponseWriter, err error) {
	if errors.Is(err, dispatch.ErrNoConnection) {
		writeConflict(w, "device not connected")
		return
	}
	s.logger.Error("register write failed", "error", err)
	writeInternalError(w, "register write failed")
}

func (s *Server) latestSnapshot() *hand.Snapshot {
	s.pollerMu.RLock()
	p := s.poller
	s.pollerMu.RUnlock()
	if p == nil {
		return nil
	}
	return p.Latest()
}
