package devserver

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// errorBody is the failure envelope the calendar client understands.
type errorBody struct {
	Ok     bool                  `json:"ok"`
	Msg    string                `json:"msg,omitempty"`
	Errors map[string]fieldError `json:"errors,omitempty"`
}

type fieldError struct {
	Value    string `json:"value"`
	Msg      string `json:"msg"`
	Param    string `json:"param"`
	Location string `json:"location"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeMsg writes {ok:false, msg}.
func writeMsg(w http.ResponseWriter, statusCode int, msg string) {
	writeJSON(w, statusCode, errorBody{Msg: msg})
}

// writeValidation writes {ok:false, errors} with no msg.
func writeValidation(w http.ResponseWriter, errs map[string]fieldError) {
	writeJSON(w, http.StatusBadRequest, errorBody{Errors: errs})
}

func writeInternal(w http.ResponseWriter) {
	writeMsg(w, http.StatusInternalServerError, msgContactAdmin)
}
