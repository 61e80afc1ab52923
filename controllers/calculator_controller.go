package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/forbiddenlink/finance-quest-sub016/calculator"
	"github.com/forbiddenlink/finance-quest-sub016/services"
	"github.com/forbiddenlink/finance-quest-sub016/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// RateProvider suggests a consolidation rate
type RateProvider interface {
	SuggestedRate(ctx context.Context) (services.RateQuote, error)
}

// CalculateRequest is the calculator input as posted by clients. Numbers inside
// debts may be strings; they are coerced the same way form input is.
type CalculateRequest struct {
	MonthlyIncome     float64              `json:"monthlyIncome"`
	ExtraPayment      float64              `json:"extraPayment"`
	MonthlyExpenses   float64              `json:"monthlyExpenses"`
	CreditScore       int                  `json:"creditScore" validate:"omitempty,gte=300,lte=850"`
	ConsolidationRate float64              `json:"consolidationRate"`
	PaymentStrategy   string               `json:"paymentStrategy"`
	Debts             []calculator.RawDebt `json:"debts" validate:"max=50"`
}

// Input normalizes the request into calculator input
func (req CalculateRequest) Input() (calculator.Input, error) {
	strategy, err := calculator.ParseStrategy(req.PaymentStrategy)
	if err != nil {
		return calculator.Input{}, err
	}
	debts, err := calculator.NormalizeDebts(req.Debts)
	if err != nil {
		return calculator.Input{}, err
	}

	in := calculator.DefaultInput()
	in.MonthlyIncome = req.MonthlyIncome
	in.ExtraPayment = req.ExtraPayment
	in.MonthlyExpenses = req.MonthlyExpenses
	if req.CreditScore != 0 {
		in.CreditScore = req.CreditScore
	}
	in.ConsolidationRate = req.ConsolidationRate
	in.PaymentStrategy = strategy
	in.Debts = debts
	return in, nil
}

// UpdateFieldRequest changes one field of a live session
type UpdateFieldRequest struct {
	Field string      `json:"field" validate:"required"`
	Value interface{} `json:"value"`
}

// SessionResponse is the state of a live session
type SessionResponse struct {
	ID        string            `json:"id"`
	Input     calculator.Input  `json:"input"`
	Result    calculator.Result `json:"result"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// CalculatorController serves the debt calculator
type CalculatorController struct {
	calculator *services.CalculatorService
	sessions   *services.SessionService
	rates      RateProvider
	validator  *validator.Validate
}

func NewCalculatorController(calc *services.CalculatorService, sessions *services.SessionService, rates RateProvider) *CalculatorController {
	return &CalculatorController{
		calculator: calc,
		sessions:   sessions,
		rates:      rates,
		validator:  validator.New(),
	}
}

// Calculate runs the calculator on the posted input
func (c *CalculatorController) Calculate(w http.ResponseWriter, r *http.Request) {
	in, ok := c.readInput(w, r)
	if !ok {
		return
	}

	result, err := c.calculator.Calculate(r.Context(), "", in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Compare runs avalanche and snowball on the posted input
func (c *CalculatorController) Compare(w http.ResponseWriter, r *http.Request) {
	in, ok := c.readInput(w, r)
	if !ok {
		return
	}

	cmp, err := c.calculator.Compare(r.Context(), "", in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

// ConsolidationRate returns the suggested consolidation rate
func (c *CalculatorController) ConsolidationRate(w http.ResponseWriter, r *http.Request) {
	quote, err := c.rates.SuggestedRate(r.Context())
	if err != nil {
		utils.LogError("rate feed unavailable", zap.Error(err))
		http.Error(w, "Rate feed unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// CreateSession starts a live session, optionally seeded with a posted input
func (c *CalculatorController) CreateSession(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var seed *calculator.Input
	if len(bytes.TrimSpace(body)) > 0 {
		var req CalculateRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		in, err := c.toInput(req)
		if err != nil {
			writeError(w, err)
			return
		}
		seed = &in
	}

	id, session := c.sessions.Create(r.Context(), seed)
	writeJSON(w, http.StatusCreated, sessionResponse(id, session))
}

// GetSession returns the input and latest result of a session
func (c *CalculatorController) GetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	session, err := c.sessions.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(id, session))
}

// UpdateSession sets one field and returns the recomputed session
func (c *CalculatorController) UpdateSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req UpdateFieldRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := c.validator.Struct(req); err != nil {
		http.Error(w, "field is required", http.StatusBadRequest)
		return
	}

	if _, err := c.sessions.UpdateField(r.Context(), id, req.Field, req.Value); err != nil {
		writeError(w, err)
		return
	}

	session, err := c.sessions.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(id, session))
}

// DeleteSession ends a session
func (c *CalculatorController) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := c.sessions.Delete(mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CalculatorController) readInput(w http.ResponseWriter, r *http.Request) (calculator.Input, bool) {
	var req CalculateRequest
	if !decodeJSON(w, r, &req) {
		return calculator.Input{}, false
	}
	in, err := c.toInput(req)
	if err != nil {
		writeError(w, err)
		return calculator.Input{}, false
	}
	return in, true
}

func (c *CalculatorController) toInput(req CalculateRequest) (calculator.Input, error) {
	if err := c.validator.Struct(req); err != nil {
		return calculator.Input{}, fmt.Errorf("%w: %v", services.ErrValidation, err)
	}
	return req.Input()
}

func sessionResponse(id string, session *calculator.Session) SessionResponse {
	return SessionResponse{
		ID:        id,
		Input:     session.Input(),
		Result:    session.Result(),
		UpdatedAt: session.UpdatedAt(),
	}
}
