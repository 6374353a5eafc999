package controllers

import (
	"net/http"
	"time"

	"github.com/nzhukovskiy/fundlink-api/middleware"
	"github.com/nzhukovskiy/fundlink-api/services/rounds"
	"github.com/nzhukovskiy/fundlink-api/utils"
)

type FundingRoundController struct {
	Engine *rounds.Engine
}

func NewFundingRoundController(engine *rounds.Engine) *FundingRoundController {
	return &FundingRoundController{Engine: engine}
}

type roundRequest struct {
	StartDate   string `json:"start_date" validate:"required,rfc3339"`
	EndDate     string `json:"end_date" validate:"required,rfc3339"`
	FundingGoal string `json:"funding_goal" validate:"required,decimal"`
}

func (req roundRequest) input() (rounds.RoundInput, error) {
	var in rounds.RoundInput
	var err error
	if in.StartDate, err = time.Parse(time.RFC3339, req.StartDate); err != nil {
		return in, err
	}
	if in.EndDate, err = time.Parse(time.RFC3339, req.EndDate); err != nil {
		return in, err
	}
	in.FundingGoal, err = rounds.ParseGoal(req.FundingGoal)
	return in, err
}

// decodeRound reads and converts a round body; on failure the response is
// already written.
func decodeRound(w http.ResponseWriter, r *http.Request) (rounds.RoundInput, bool) {
	var req roundRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return rounds.RoundInput{}, false
	}
	in, err := req.input()
	if err != nil {
		writeRoundError(w, r, err)
		return in, false
	}
	return in, true
}

// POST /v3/funding-rounds
func (c *FundingRoundController) Create(w http.ResponseWriter, r *http.Request) {
	startupID, ok := caller(w, r)
	if !ok {
		return
	}
	in, ok := decodeRound(w, r)
	if !ok {
		return
	}
	round, err := c.Engine.Create(r.Context(), startupID, in)
	if err != nil {
		writeRoundError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Funding round created", Data: round})
}

// GET /v3/funding-rounds/{id}
func (c *FundingRoundController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	round, err := c.Engine.Get(r.Context(), id)
	if err != nil {
		writeRoundError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: round})
}

// GET /v3/startups/{id}/funding-rounds
func (c *FundingRoundController) ListForStartup(w http.ResponseWriter, r *http.Request) {
	startupID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	list, err := c.Engine.ListForStartup(r.Context(), startupID)
	if err != nil {
		writeRoundError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: list})
}

// GET /v3/startups/{id}/funding-rounds/current
func (c *FundingRoundController) Current(w http.ResponseWriter, r *http.Request) {
	startupID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	round, err := c.Engine.Current(r.Context(), startupID)
	if err != nil {
		writeRoundError(w, r, err)
		return
	}
	if round == nil {
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "No current funding round"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: round})
}

// PUT /v3/funding-rounds/{id}
func (c *FundingRoundController) Update(w http.ResponseWriter, r *http.Request) {
	startupID, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	in, ok := decodeRound(w, r)
	if !ok {
		return
	}
	res, err := c.Engine.Update(r.Context(), id, startupID, in)
	if err != nil {
		writeRoundError(w, r, err)
		return
	}
	switch {
	case res.Proposal != nil:
		utils.WriteJSON(w, http.StatusAccepted, utils.APIResponse{Success: true, Message: "Change proposal sent to investors", Data: res.Proposal})
	case res.Round != nil:
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Funding round updated", Data: res.Round})
	default:
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Nothing to change"})
	}
}

// DELETE /v3/funding-rounds/{id}
func (c *FundingRoundController) Delete(w http.ResponseWriter, r *http.Request) {
	startupID, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := c.Engine.Delete(r.Context(), id, startupID); err != nil {
		writeRoundError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Funding round deleted"})
}

// DELETE /v3/funding-rounds/{id}/proposal
func (c *FundingRoundController) CancelProposal(w http.ResponseWriter, r *http.Request) {
	startupID, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := c.Engine.CancelProposal(r.Context(), id, startupID); err != nil {
		writeRoundError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Change proposal cancelled"})
}
