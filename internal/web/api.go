package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/petasbytes/minutes-agent/internal/session"
	"github.com/petasbytes/minutes-agent/memory"
)

type sessionResponse struct {
	ID    string        `json:"id"`
	Turns []memory.Turn `json:"turns"`
}

type messageRequest struct {
	Text string `json:"text"`
}

type messageResponse struct {
	Reply string `json:"reply"`
	Turns int    `json:"turns"`
}

type minutesResponse struct {
	Minutes string `json:"minutes"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

// lookup resolves the {id} URL parameter, writing 404 when unknown.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, session.ErrNotFound)
		return nil, false
	}
	return sess, true
}

func (s *Server) apiCreate(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.Create()
	s.writeJSON(w, http.StatusCreated, sessionResponse{ID: sess.ID(), Turns: sess.Snapshot()})
}

func (s *Server) apiGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{ID: sess.ID(), Turns: sess.Snapshot()})
}

func (s *Server) apiDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.dropNotes(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.Reset()
	s.dropNotes(sess.ID())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiSend(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var body messageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		s.logger.Warn("send: invalid request body", "error", err)
		return
	}
	reply, err := sess.Send(r.Context(), body.Text)
	if err != nil {
		s.logger.Error("send failed", "session_id", sess.ID(), "error", err)
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Reply: reply, Turns: sess.Len()})
}

func (s *Server) apiSummary(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	doc, err := s.summarize(r, sess)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, minutesResponse{Minutes: doc})
}
