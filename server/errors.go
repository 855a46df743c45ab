package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"speechbox/voice"
	"speechbox/voice/transcoding"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps pipeline errors onto http statuses. Clients only get an
// opaque message; the full error goes to the log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := http.StatusText(status)

	switch {
	case errors.Is(err, voice.ErrEmptyText):
		status, msg = http.StatusBadRequest, "text is empty"
	case errors.Is(err, voice.ErrUpstreamTimeout):
		status, msg = http.StatusGatewayTimeout, "upstream timeout"
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		// client went away, nobody is listening
		entry(r).WithError(err).Infoln("request cancelled")
		return
	}

	log := entry(r).WithError(err).WithField("status", status)
	if errors.Is(err, transcoding.ErrConversionFailed) {
		log = log.WithField("kind", "conversion")
	}
	if status >= http.StatusInternalServerError {
		log.Errorln("request failed")
	} else {
		log.Infoln("request rejected")
	}

	writeJSON(w, status, errorResponse{Error: msg})
}

func writeStatus(w http.ResponseWriter, r *http.Request, status int, msg string) {
	entry(r).WithField("status", status).Infoln(msg)
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
