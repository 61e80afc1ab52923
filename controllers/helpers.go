package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/forbiddenlink/finance-quest-sub016/calculator"
	"github.com/forbiddenlink/finance-quest-sub016/services"
	"github.com/forbiddenlink/finance-quest-sub016/utils"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// writeJSON encodes v before the status line is sent, so an encoding failure
// still reaches the client as a 500.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		utils.LogError("failed to encode response", zap.Error(err))
		utils.GetMetrics().RecordError(err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		utils.LogError("failed to write response", zap.Error(err))
	}
}

// writeError maps service and calculator errors to HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, calculator.ErrUnknownDebtType),
		errors.Is(err, calculator.ErrUnknownStrategy),
		errors.Is(err, calculator.ErrUnknownField):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrUserExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrAccessDenied):
		http.Error(w, "Access denied", http.StatusForbidden)
	case errors.Is(err, services.ErrScenarioNotFound),
		errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrUserNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		utils.LogError("request failed", zap.Error(err))
		utils.GetMetrics().RecordError(err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil || id == 0 {
		http.Error(w, "Invalid scenario ID", http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}
