package controllers

import (
	"net/http"
	"strconv"

	"github.com/forbiddenlink/finance-quest-sub016/middleware"
	"github.com/forbiddenlink/finance-quest-sub016/models"
	"github.com/forbiddenlink/finance-quest-sub016/services"
)

type ProgressResponse struct {
	Events []models.ProgressEvent `json:"events"`
	Counts map[string]int64       `json:"counts"`
}

// ProgressController reports which calculators the user has used
type ProgressController struct {
	progress *services.ProgressService
}

func NewProgressController(progress *services.ProgressService) *ProgressController {
	return &ProgressController{progress: progress}
}

// GetProgress lists the user's progress events with per-calculator counts
func (c *ProgressController) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	subject := strconv.FormatUint(uint64(userID), 10)

	events, err := c.progress.List(r.Context(), subject)
	if err != nil {
		writeError(w, err)
		return
	}
	counts, err := c.progress.Counts(r.Context(), subject)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProgressResponse{Events: events, Counts: counts})
}
