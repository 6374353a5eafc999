package utils

import (
	"encoding/json"
	"net/http"
)

type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	ErrorCode string      `json:"error_code,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteError writes a failed response with a machine-readable code.
func WriteError(w http.ResponseWriter, status int, code, message string, data interface{}) {
	WriteJSON(w, status, APIResponse{Success: false, Message: message, ErrorCode: code, Data: data})
}
