package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"speechbox/voice/transcoding"
)

type sttResponse struct {
	Transcript string `json:"transcript"`
}

type speakRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /stt with a multipart "audio" file
func (s *Server) handleSTT(w http.ResponseWriter, r *http.Request) {
	if s.opts.MaxUploadBytes > 0 {
		if r.ContentLength > s.opts.MaxUploadBytes {
			writeStatus(w, r, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeStatus(w, r, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeStatus(w, r, http.StatusBadRequest, "missing audio file")
		return
	}
	defer file.Close()

	transcript, err := s.stt.Transcribe(r.Context(), file, transcoding.Suffix(header.Filename))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sttResponse{Transcript: transcript})
}

// POST /speak?text=... (also accepts a form field or a json body)
func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	text, err := speakText(r)
	if err != nil {
		writeStatus(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	audio, err := s.speaker.Speak(r.Context(), text)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, bytes.NewReader(audio)); err != nil {
		entry(r).WithError(err).Warnln("failed to stream audio")
	}
}

func speakText(r *http.Request) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return r.FormValue("text"), nil
	}

	// query string still wins so ?text= works with any body
	if text := r.URL.Query().Get("text"); text != "" {
		return text, nil
	}

	var req speakRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		return "", err
	}
	return req.Text, nil
}
