package inbox

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Response is the JSON envelope of every inbox endpoint.
type Response struct {
	Code  string         `json:"code,omitempty"`
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body Response) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) error {
	status := http.StatusInternalServerError
	detail := &ErrorDetail{Code: "internal_error", Message: http.StatusText(status)}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		detail.Code = httpErr.Key
		detail.Message = http.StatusText(httpErr.Code)
	}
	return writeJSON(w, status, Response{Code: detail.Code, Error: detail})
}
