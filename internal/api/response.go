// internal/api/response.go
package api

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Response is the envelope every endpoint answers with.
type Response struct {
	IsSuccess bool        `json:"is_success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
}

// WriteSuccess writes a success envelope with the given payload.
func WriteSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	write(w, status, Response{IsSuccess: true, Message: message, Data: data})
}

// WriteError writes a failure envelope. Business errors keep their status and
// message; anything else becomes an opaque 500 so internal detail never leaks.
func WriteError(w http.ResponseWriter, err error) {
	if e := AsError(err); e != nil {
		write(w, e.Status, Response{IsSuccess: false, Message: e.Message})
		return
	}
	write(w, http.StatusInternalServerError, Response{IsSuccess: false, Message: "An unexpected error occurred"})
}

// Decode reads the request body into v.
func Decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return BadRequest("Invalid request body")
	}
	return nil
}

func write(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
