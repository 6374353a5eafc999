package utils

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/nzhukovskiy/fundlink-api/models"
)

// Minimal internal validator. Supports:
// - required
// - decimal (money literal such as "300.50", see models.ParseMoney)
// - rfc3339 (timestamp such as "2025-01-01T00:00:00Z")

// ValidateStruct inspects struct tags `validate:"..."` and returns the first error encountered.
func ValidateStruct(s interface{}) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return errors.New("ValidateStruct expects a struct or pointer to struct")
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}
		name := field.Name
		if j := strings.Split(field.Tag.Get("json"), ",")[0]; j != "" && j != "-" {
			name = j
		}
		fv := v.Field(i)
		var sval string
		if fv.IsValid() && fv.Kind() == reflect.String {
			sval = strings.TrimSpace(fv.String())
		}
		for _, p := range strings.Split(tag, ",") {
			switch strings.TrimSpace(p) {
			case "required":
				if sval == "" {
					return errors.New(name + " is required")
				}
			case "decimal":
				if sval != "" {
					if _, err := models.ParseMoney(sval); err != nil {
						return errors.New(name + " " + err.Error())
					}
				}
			case "rfc3339":
				if sval != "" {
					if _, err := time.Parse(time.RFC3339, sval); err != nil {
						return errors.New(name + " must be an RFC 3339 timestamp")
					}
				}
			}
		}
	}
	return nil
}
