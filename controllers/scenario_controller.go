package controllers

import (
	"net/http"

	"github.com/forbiddenlink/finance-quest-sub016/calculator"
	"github.com/forbiddenlink/finance-quest-sub016/middleware"
	"github.com/forbiddenlink/finance-quest-sub016/models"
	"github.com/forbiddenlink/finance-quest-sub016/services"
	"github.com/forbiddenlink/finance-quest-sub016/utils"
	"go.uber.org/zap"
)

// ReportSender mails payoff plans
type ReportSender interface {
	SendPlanReport(to, scenarioName string, result calculator.Result) error
}

// ScenarioResultResponse pairs a saved scenario with its calculation
type ScenarioResultResponse struct {
	Scenario *models.Scenario  `json:"scenario"`
	Result   calculator.Result `json:"result"`
}

// ScenarioController serves saved scenarios of the signed-in user
type ScenarioController struct {
	scenarios *services.ScenarioService
	reports   ReportSender
}

func NewScenarioController(scenarios *services.ScenarioService, reports ReportSender) *ScenarioController {
	return &ScenarioController{scenarios: scenarios, reports: reports}
}

// CreateScenario saves a scenario
func (c *ScenarioController) CreateScenario(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var dto services.CreateScenarioDTO
	if !decodeJSON(w, r, &dto) {
		return
	}
	dto.UserID = userID

	scenario, err := c.scenarios.Create(dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, scenario)
}

// GetScenarios lists the user's scenarios
func (c *ScenarioController) GetScenarios(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	scenarios, err := c.scenarios.List(userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scenarios)
}

// GetScenario returns one scenario
func (c *ScenarioController) GetScenario(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	scenario, err := c.scenarios.Get(id, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scenario)
}

// UpdateScenario replaces a scenario
func (c *ScenarioController) UpdateScenario(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var dto services.UpdateScenarioDTO
	if !decodeJSON(w, r, &dto) {
		return
	}
	dto.ID = id
	dto.UserID = userID

	scenario, err := c.scenarios.Update(dto)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scenario)
}

// DeleteScenario removes a scenario
func (c *ScenarioController) DeleteScenario(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := c.scenarios.Delete(id, userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetScenarioResult runs the calculator on a saved scenario
func (c *ScenarioController) GetScenarioResult(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	scenario, result, err := c.scenarios.Evaluate(r.Context(), id, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ScenarioResultResponse{Scenario: scenario, Result: result})
}

// SendScenarioReport mails the plan of a saved scenario to the user
func (c *ScenarioController) SendScenarioReport(w http.ResponseWriter, r *http.Request) {
	userID, email, err := middleware.GetUserFromContext(r)
	if err != nil || email == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	scenario, result, err := c.scenarios.Evaluate(r.Context(), id, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := c.reports.SendPlanReport(email, scenario.Name, result); err != nil {
		utils.LogError("failed to send plan report",
			zap.Uint("scenario", scenario.ID),
			zap.Error(err),
		)
		http.Error(w, "Failed to send report", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent", "to": email})
}
