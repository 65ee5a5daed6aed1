package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// WriteJSON serializes data to JSON and writes it to the HTTP response with
// the given status code. The "Content-Type" header is set to
// "application/json" before the body is sent.
//
// If marshaling fails, it responds with 500 Internal Server Error and
// returns a wrapped error.
func WriteJSON(w http.ResponseWriter, data any, statusCode int) (int, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "error writing data to JSON", http.StatusInternalServerError)
		return 0, fmt.Errorf("error writing data to JSON: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	return w.Write(jsonData)
}

// WriteJSONError writes a JSON error body {"error": message} with the given
// status code. All handler failure paths use this shape so the SPA client can
// rely on a single error contract.
func WriteJSONError(w http.ResponseWriter, message string, statusCode int) {
	//nolint:errcheck // nothing left to do if the response write itself fails
	WriteJSON(w, map[string]string{"error": message}, statusCode)
}
