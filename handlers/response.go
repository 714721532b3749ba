package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"disha/models"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	validate = newValidator()

	errInvalidJSON = errors.New("invalid JSON payload")
)

// newValidator adds notblank so whitespace-only ids fail validation.
func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

func writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSONResponse(w, statusCode, models.ErrorResponse{Success: false, Error: message})
}

// decodeRequest reads a JSON body into dst and checks its validate tags.
// A body that is not JSON yields errInvalidJSON.
func decodeRequest(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errInvalidJSON
	}
	return validate.Struct(dst)
}
