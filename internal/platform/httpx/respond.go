// Package httpx provides HTTP response utilities.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const maxBodyBytes = 1 << 20

// Envelope is the body of every API response.
type Envelope struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK wraps data in a successful envelope.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{OK: true, Data: data})
}

// Fail sends a failed envelope carrying message.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{OK: false, Error: message})
}

// DecodeJSON decodes the request body into target. An empty body leaves
// target untouched.
func DecodeJSON(r *http.Request, target any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

// Reply sends data on success and err as a failed envelope otherwise.
func Reply(w http.ResponseWriter, data any, err error) {
	if err != nil {
		RespondError(w, err)
		return
	}
	OK(w, data)
}
