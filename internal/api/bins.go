package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/wastemanagement141-bit/garbage-overflow/internal/telemetry"
)

const msgInvalidIngest = "Invalid input. Ensure deviceId (string) and fillPercentage (number) are provided."

// msgNoData accompanies the status fallback.
const msgNoData = "No data found"

// ingestResponse is returned by POST /bin/update.
type ingestResponse struct {
	Success    bool             `json:"success"`
	Status     telemetry.Status `json:"status"`
	RecordedAt time.Time        `json:"recorded_at"`
}

// handleIngest stores one sensor report.
// Body fields are type-checked by hand so a quoted number is rejected
// instead of coerced.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeValidation(w, msgInvalidIngest)
		return
	}

	deviceID, okID := body["deviceId"].(string)
	fill, okFill := body["fillPercentage"].(float64)
	if !okID || deviceID == "" || !okFill {
		writeValidation(w, msgInvalidIngest)
		return
	}

	reading, err := s.telemetry.Ingest(r.Context(), deviceID, fill)
	if err != nil {
		if errors.Is(err, telemetry.ErrInvalidDeviceID) || errors.Is(err, telemetry.ErrInvalidFill) {
			writeValidation(w, msgInvalidIngest)
			return
		}
		s.logger.Error("ingest failed",
			"device_id", deviceID,
			"error", err,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
		writeInternalError(w, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		Success:    true,
		Status:     reading.Status,
		RecordedAt: reading.CreatedAt,
	})
}

// handleStatus returns the newest reading, or the fallback shape.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("deviceId")

	reading, found, err := s.telemetry.Latest(r.Context(), deviceID)
	if err != nil {
		s.logger.Error("status query failed", "device_id", deviceID, "error", err)
		writeInternalError(w, err.Error())
		return
	}

	if !found {
		writeJSON(w, http.StatusOK, map[string]any{
			"message":        msgNoData,
			"deviceId":       reading.DeviceID,
			"fillPercentage": reading.FillPercentage,
			"status":         reading.Status,
		})
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

// handleHistory returns up to 20 readings, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("deviceId")

	readings, err := s.telemetry.History(r.Context(), deviceID)
	if err != nil {
		s.logger.Error("history query failed", "device_id", deviceID, "error", err)
		writeInternalError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, readings)
}
