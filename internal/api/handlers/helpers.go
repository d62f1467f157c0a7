package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/toolbridge-io/toolbridge/internal/pkg/errors"
)

// decodeJSON decodes a request body into dst
func decodeJSON(r *http.Request, dst interface{}) *errors.AppError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.InvalidRequest("Invalid request body")
	}
	return nil
}
