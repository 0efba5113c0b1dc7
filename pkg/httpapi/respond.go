package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/sciforge/depository/pkg/common/models"
)

func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

// WriteError emits the standard error envelope.
func WriteError(w http.ResponseWriter, status int, message string, fields []models.FieldError) {
	WriteJSON(w, status, models.ErrorEnvelope{
		Status:  status,
		Message: message,
		Errors:  fields,
	})
}
