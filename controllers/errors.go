package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/nzhukovskiy/fundlink-api/services/rounds"
	"github.com/nzhukovskiy/fundlink-api/utils"
)

var statusByCode = map[rounds.Code]int{
	rounds.CodeInvalidDateRange:    http.StatusBadRequest,
	rounds.CodeInvalidAmount:       http.StatusBadRequest,
	rounds.CodeLockedFieldEdit:     http.StatusBadRequest,
	rounds.CodeExitedStartup:       http.StatusBadRequest,
	rounds.CodeStageExhausted:      http.StatusBadRequest,
	rounds.CodeRoundHasInvestments: http.StatusBadRequest,
	rounds.CodeForbidden:           http.StatusForbidden,
	rounds.CodeRoundNotFound:       http.StatusNotFound,
	rounds.CodeStartupNotFound:     http.StatusNotFound,
	rounds.CodeOverlap:             http.StatusConflict,
	rounds.CodePendingProposal:     http.StatusConflict,
	rounds.CodeRoundNotOpen:        http.StatusConflict,
}

// writeRoundError maps engine errors to responses; anything else is a 500.
func writeRoundError(w http.ResponseWriter, r *http.Request, err error) {
	var rerr *rounds.Error
	if errors.As(err, &rerr) {
		status, ok := statusByCode[rerr.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		var data interface{}
		if len(rerr.Data) > 0 {
			data = rerr.Data
		}
		utils.WriteError(w, status, string(rerr.Code), rerr.Message, data)
		return
	}
	rid, _ := r.Context().Value(utils.RequestIDKey).(string)
	log.Printf("[api] %s %s request_id=%s: %v", r.Method, r.URL.Path, rid, err)
	utils.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error", nil)
}

// pathID reads a positive numeric route variable.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	if err != nil || id == 0 {
		utils.WriteError(w, http.StatusBadRequest, "INVALID_ID", "Invalid "+name, nil)
		return 0, false
	}
	return uint(id), true
}

// caller returns the authenticated user id set by AuthMiddleware.
func caller(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, ok := utils.GetUserID(r)
	if !ok || id == 0 {
		utils.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return 0, false
	}
	return id, true
}
