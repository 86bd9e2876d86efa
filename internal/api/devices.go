package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/greyfell/voicebridge/internal/device"
)

// deviceResponse is the REST representation of one device.
type deviceResponse struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Type  device.Type  `json:"type"`
	State device.State `json:"state"`
}

func toDeviceResponse(d device.Device) deviceResponse {
	return deviceResponse{
		ID:    d.ID,
		Name:  d.FriendlyName,
		Type:  d.Type,
		State: d.State,
	}
}

// handleListDevices returns the full fleet as a consistent snapshot,
// sorted by device ID.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.registry.List()
	out := make([]deviceResponse, 0, len(devices))
	for _, d := range devices {
		out = append(out, toDeviceResponse(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": out,
		"count":   len(out),
	})
}

// handleGetDevice returns one device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, err := s.registry.Get(id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found: "+id)
			return
		}
		writeInternalError(w, "looking up device")
		return
	}

	writeJSON(w, http.StatusOK, toDeviceResponse(d))
}

// handleDeviceHistory returns recent state changes for one device,
// newest first. Requires the history store to be enabled.
func (s *Server) handleDeviceHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeNotFound(w, "history is not enabled")
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := s.registry.Get(id); err != nil {
		writeNotFound(w, "device not found: "+id)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := s.history.ListByDevice(r.Context(), id, limit)
	if err != nil {
		s.logger.Error("listing device history", "device_id", id, "error", err)
		writeInternalError(w, "listing device history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": id,
		"entries":   entries,
		"count":     len(entries),
	})
}
