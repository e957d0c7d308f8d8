package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/handsense/handsense-core/internal/hand"
	"github.com/handsense/handsense-core/internal/pose"
)

// handleListPoses returns all stored pose presets.
func (s *Server) handleListPoses(w http.ResponseWriter, r *http.Request) {
	if s.poses == nil {
		writeNotFound(w, "pose storage not configured")
		return
	}

	presets, err := s.poses.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list poses", "error", err)
		writeInternalError(w, "failed to list poses")
		return
	}
	if presets == nil {
		presets = []pose.Preset{}
	}
	writeJSON(w, http.StatusOK, presets)
}

// handleCreatePose stores a new pose preset.
func (s *Server) handleCreatePose(w http.ResponseWriter, r *http.Request) {
	if s.poses == nil {
		writeNotFound(w, "pose storage not configured")
		return
	}

	var preset pose.Preset
	if err := json.NewDecoder(r.Body).Decode(&preset); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.poses.Create(r.Context(), &preset); err != nil {
		s.writePoseError(w, err, "failed to create pose")
		return
	}
	writeJSON(w, http.StatusCreated, preset)
}

// handleGetPose returns one pose preset by ID.
func (s *Server) handleGetPose(w http.ResponseWriter, r *http.Request) {
	if s.poses == nil {
		writeNotFound(w, "pose storage not configured")
		return
	}

	preset, err := s.poses.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writePoseError(w, err, "failed to get pose")
		return
	}
	writeJSON(w, http.StatusOK, preset)
}

// handleUpdatePose applies a partial update to a stored preset.
func (s *Server) handleUpdatePose(w http.ResponseWriter, r *http.Request) {
	if s.poses == nil {
		writeNotFound(w, "pose storage not configured")
		return
	}

	ctx := r.Context()
	preset, err := s.poses.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writePoseError(w, err, "failed to get pose")
		return
	}

	// Decode over the existing preset so omitted fields keep their values.
	if err := json.NewDecoder(r.Body).Decode(preset); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.poses.Update(ctx, preset); err != nil {
		s.writePoseError(w, err, "failed to update pose")
		return
	}
	writeJSON(w, http.StatusOK, preset)
}

// handleDeletePose removes a stored preset.
func (s *Server) handleDeletePose(w http.ResponseWriter, r *http.Request) {
	if s.poses == nil {
		writeNotFound(w, "pose storage not configured")
		return
	}

	if err := s.poses.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writePoseError(w, err, "failed to delete pose")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// handleApplyPose sends a stored preset to the hand: speed and force are
// written directly, then the joint vector is enqueued.
func (s *Server) handleApplyPose(w http.ResponseWriter, r *http.Request) {
	if s.poses == nil {
		writeNotFound(w, "pose storage not configured")
		return
	}

	ctx := r.Context()
	preset, err := s.poses.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writePoseError(w, err, "failed to get pose")
		return
	}

	if preset.Speed != (hand.JointVector{}) {
		if err := s.dispatcher.SetSpeed(ctx, preset.Speed); err != nil {
			s.writeDispatchError(w, err)
			return
		}
	}
	if preset.Force != (hand.JointVector{}) {
		if err := s.dispatcher.SetForce(ctx, preset.Force); err != nil {
			s.writeDispatchError(w, err)
			return
		}
	}
	s.dispatcher.Enqueue(preset.Joints)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"applied": preset.Name,
		"target":  preset.Joints,
	})
}

// writePoseError maps repository errors onto HTTP statuses.
func (s *Server) writePoseError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, pose.ErrNotFound):
		writeNotFound(w, "pose not found")
	case errors.Is(err, pose.ErrExists):
		writeConflict(w, "a pose with that name already exists")
	case errors.Is(err, pose.ErrInvalidName):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "pose name is required")
	default:
		s.logger.Error(msg, "error", err)
		writeInternalError(w, msg)
	}
}
