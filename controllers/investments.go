package controllers

import (
	"net/http"

	"github.com/nzhukovskiy/fundlink-api/middleware"
	"github.com/nzhukovskiy/fundlink-api/utils"
)

type investRequest struct {
	Amount string `json:"amount" validate:"required,decimal"`
}

// POST /v3/funding-rounds/{id}/investments
func (c *FundingRoundController) Invest(w http.ResponseWriter, r *http.Request) {
	investorID, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req investRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	inv, err := c.Engine.Invest(r.Context(), id, investorID, req.Amount)
	if err != nil {
		writeRoundError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Investment recorded", Data: inv})
}
