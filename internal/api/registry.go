package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wastemanagement141-bit/garbage-overflow/internal/registry"
)

type registryAddRequest struct {
	DeviceID string `json:"deviceId"`
	Name     string `json:"name"`
	Details  string `json:"details"`
}

type registryUpdateRequest struct {
	ID      string  `json:"id"`
	Name    *string `json:"name"`
	Details *string `json:"details"`
}

type registryDeleteResponse struct {
	Success         bool   `json:"success"`
	DeviceID        string `json:"deviceId"`
	Action          string `json:"action"`
	ReadingsDeleted int64  `json:"readingsDeleted"`
}

// handleRegistryList returns registered bins followed by discovered ones.
func (s *Server) handleRegistryList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.registry.List(r.Context())
	if err != nil {
		s.writeRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleRegistryAdd(w http.ResponseWriter, r *http.Request) {
	var req registryAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.DeviceID == "" || req.Name == "" {
		writeValidation(w, "deviceId and name are required")
		return
	}

	reg, err := s.registry.Add(r.Context(), registry.NewRegistration{
		DeviceID: req.DeviceID,
		Name:     req.Name,
		Details:  req.Details,
	})
	if err != nil {
		s.writeRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg.Entry())
}

func (s *Server) handleRegistryUpdate(w http.ResponseWriter, r *http.Request) {
	var req registryUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.ID == "" {
		writeValidation(w, "ID is required")
		return
	}

	reg, err := s.registry.Update(r.Context(), req.ID, registry.Update{
		Name:    req.Name,
		Details: req.Details,
	})
	if err != nil {
		s.writeRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reg.Entry())
}

// handleRegistryDelete unregisters a real entry or purges a discovered device.
func (s *Server) handleRegistryDelete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeValidation(w, "ID is required")
		return
	}

	res, err := s.registry.Delete(r.Context(), id)
	if err != nil {
		s.writeRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, registryDeleteResponse{
		Success:         true,
		DeviceID:        res.DeviceID,
		Action:          res.Action,
		ReadingsDeleted: res.ReadingsDeleted,
	})
}

// writeRegistryError maps registry errors onto HTTP statuses. Not-found is
// a storage failure (500) and its message is passed through.
func (s *Server) writeRegistryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, registry.ErrMissingField), errors.Is(err, registry.ErrSyntheticID):
		writeValidation(w, err.Error())
	case errors.Is(err, registry.ErrEntryExists):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		s.logger.Error("registry operation failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeInternalError(w, err.Error())
	}
}
