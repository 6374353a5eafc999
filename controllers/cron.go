package controllers

import (
	"crypto/subtle"
	"net/http"

	"github.com/nzhukovskiy/fundlink-api/services/rounds"
	"github.com/nzhukovskiy/fundlink-api/utils"
)

type CronController struct {
	Engine *rounds.Engine
	Key    string
}

func NewCronController(engine *rounds.Engine, key string) *CronController {
	return &CronController{Engine: engine, Key: key}
}

// POST /v3/cron/funding-rounds/sweep
func (c *CronController) Sweep(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("X-CRON-KEY")
	if c.Key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(c.Key)) != 1 {
		utils.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}
	report, err := c.Engine.SweepAll(r.Context())
	if err != nil {
		writeRoundError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Sweep completed", Data: report})
}
