package controllers

import (
	"log"
	"net/http"
	"time"

	"github.com/nzhukovskiy/fundlink-api/utils"
)

// POST /v3/auth/logout
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	jti, exp := utils.GetTokenID(r)
	if jti == "" {
		utils.WriteError(w, http.StatusBadRequest, "INVALID_TOKEN", "Token cannot be revoked", nil)
		return
	}
	ttl := time.Until(exp)
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := utils.Revoked.Revoke(r.Context(), jti, ttl); err != nil {
		log.Printf("[auth] revoke %s: %v", jti, err)
		utils.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Could not log out", nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Logged out"})
}
