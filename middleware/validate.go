package middleware

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/nzhukovskiy/fundlink-api/utils"
)

// ValidateJSON decodes JSON payload into dst and runs utils.ValidateStruct.
// On failure the response is already written.
func ValidateJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		utils.WriteError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Content-Type must be application/json", nil)
		return http.ErrNotSupported
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeTooLarge(w, tooLarge.Limit)
			return err
		}
		utils.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body", nil)
		return err
	}
	if err := utils.ValidateStruct(dst); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed", err.Error())
		return err
	}
	return nil
}

func writeTooLarge(w http.ResponseWriter, limit int64) {
	utils.WriteError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "Request body is too large",
		map[string]interface{}{"limit_bytes": limit})
}
