package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator validates decoded request bodies. Field names in errors are the
// JSON names.
var Validator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationMessage describes the first failed constraint of err.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body."
	}
	fe := verrs[0]
	if fe.Tag() == "required" {
		return fmt.Sprintf("Missing '%s' in request body.", fe.Field())
	}
	return fmt.Sprintf("Invalid '%s' in request body.", fe.Field())
}

// DecodeMessage describes a request body decode failure. A field holding the
// wrong JSON type is reported as invalid; anything else gets fallback.
func DecodeMessage(err error, fallback string) string {
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) && ute.Field != "" {
		return fmt.Sprintf("Invalid '%s' in request body.", ute.Field)
	}
	return fallback
}

// ValidationError writes a 400 describing the first failed constraint.
func ValidationError(log *slog.Logger, w http.ResponseWriter, err error) {
	Fail(log, w, ValidationMessage(err), err, http.StatusBadRequest)
}
