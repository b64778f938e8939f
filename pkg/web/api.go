package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-go-golems/ollachat/pkg/conversation"
	"github.com/go-go-golems/ollachat/pkg/inference/session"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Reply      string           `json:"reply"`
	ModelError string           `json:"model_error,omitempty"`
	Session    session.Snapshot `json:"session"`
}

type ConversationSummary struct {
	ID           string                 `json:"id"`
	Title        string                 `json:"title"`
	Label        string                 `json:"label"`
	CreatedAt    conversation.Timestamp `json:"created_at"`
	MessageCount int                    `json:"message_count"`
}

type ConversationResponse struct {
	Conversation *conversation.Conversation `json:"conversation,omitempty"`
	Session      session.Snapshot           `json:"session"`
}

func respondWithJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("could not encode response")
	}
}

func failureResponse(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"error": message})
}

func (s *Server) jsonError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	failureResponse(w, status, err.Error())
}

func (s *Server) jsonSession(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.Session.Snapshot())
}

func (s *Server) jsonChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		failureResponse(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	reply, err := s.send(r.Context(), "api", req.Message)
	if err != nil && reply == nil {
		s.jsonError(w, r, err)
		return
	}

	resp := ChatResponse{
		Reply:   reply.Content,
		Session: s.Session.Snapshot(),
	}
	if reply.ModelError != nil {
		resp.ModelError = reply.ModelError.Error()
	}
	if err != nil {
		// the reply exists but could not be saved
		log.Error().Err(err).Msg("could not persist reply")
		respondWithJSON(w, http.StatusInternalServerError, struct {
			ChatResponse
			Error string `json:"error"`
		}{resp, err.Error()})
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (s *Server) jsonNewChat(w http.ResponseWriter, r *http.Request) {
	saved, err := s.Session.NewChat(r.Context())
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, ConversationResponse{Conversation: saved, Session: s.Session.Snapshot()})
}

func (s *Server) jsonSave(w http.ResponseWriter, r *http.Request) {
	saved, err := s.Session.Save(r.Context())
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, ConversationResponse{Conversation: saved, Session: s.Session.Snapshot()})
}

func (s *Server) jsonListConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := s.Store.List(r.Context())
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	ret := make([]ConversationSummary, 0, len(conversations))
	for i, c := range conversations {
		ret = append(ret, ConversationSummary{
			ID:           c.ID,
			Title:        c.Title,
			Label:        c.Label(i),
			CreatedAt:    c.CreatedAt,
			MessageCount: len(c.Messages),
		})
	}
	respondWithJSON(w, http.StatusOK, ret)
}

func (s *Server) jsonGetConversation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	c, ok, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	if !ok {
		failureResponse(w, http.StatusNotFound, "conversation not found: "+id)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

func (s *Server) jsonDeleteConversation(w http.ResponseWriter, r *http.Request) {
	removed, err := s.Session.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, ConversationResponse{Conversation: removed, Session: s.Session.Snapshot()})
}

func (s *Server) jsonSelect(w http.ResponseWriter, r *http.Request) {
	c, err := s.Session.Select(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, ConversationResponse{Conversation: c, Session: s.Session.Snapshot()})
}

func (s *Server) jsonUseAsContext(w http.ResponseWriter, r *http.Request) {
	c, err := s.Session.UseAsContext(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, ConversationResponse{Conversation: c, Session: s.Session.Snapshot()})
}
