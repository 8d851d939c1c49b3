package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/flowbreak/focusagent/internal/payload"
)

const maxBodyBytes = 1 << 20

// decodeRequest reads a JSON body into dst and validates it. On
// failure it writes the 4xx response and returns false.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, payload.DecodeMessage(err))
		return false
	}
	if err := payload.Validate(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
