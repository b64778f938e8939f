package web

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-go-golems/ollachat/pkg/conversation"
	"github.com/go-go-golems/ollachat/pkg/history"
	"github.com/go-go-golems/ollachat/pkg/inference/session"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type historyEntry struct {
	ID       string
	Index    int
	Title    string
	Label    string
	Created  string
	Selected bool
}

type indexPage struct {
	Model    string
	Metadata map[string]interface{}
	Session  session.Snapshot
	History  []historyEntry
	Selected *conversation.Conversation
	ShowAll  bool
	Flash    string
	Error    string
}

func (s *Server) htmlIndex(w http.ResponseWriter, r *http.Request) {
	snapshot := s.Session.Snapshot()
	conversations, err := s.Store.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("could not list conversations")
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	page := indexPage{
		Model:    s.Model,
		Metadata: s.Metadata,
		Session:  snapshot,
		ShowAll:  r.URL.Query().Get("all") == "1",
		Flash:    r.URL.Query().Get("flash"),
		Error:    r.URL.Query().Get("error"),
	}
	for i, c := range conversations {
		entry := historyEntry{
			ID:       c.ID,
			Index:    i + 1,
			Title:    c.Title,
			Label:    c.Label(i),
			Created:  c.CreatedAt.Display(),
			Selected: c.ID == snapshot.SelectedID,
		}
		page.History = append(page.History, entry)
		if entry.Selected {
			page.Selected = c
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", page); err != nil {
		log.Error().Err(err).Msg("could not render index")
	}
}

func (s *Server) htmlChat(w http.ResponseWriter, r *http.Request) {
	reply, err := s.send(r.Context(), "html", r.FormValue("message"))
	switch {
	case err != nil:
		redirectWithError(w, r, err)
	case reply.ModelError != nil:
		redirectWithError(w, r, reply.ModelError)
	default:
		redirect(w, r, "")
	}
}

func (s *Server) htmlNewChat(w http.ResponseWriter, r *http.Request) {
	saved, err := s.Session.NewChat(r.Context())
	if err != nil {
		redirectWithError(w, r, err)
		return
	}
	if saved != nil {
		redirect(w, r, "Saved \""+saved.Title+"\"")
		return
	}
	redirect(w, r, "")
}

func (s *Server) htmlSave(w http.ResponseWriter, r *http.Request) {
	saved, err := s.Session.Save(r.Context())
	if err != nil {
		redirectWithError(w, r, err)
		return
	}
	redirect(w, r, "Saved \""+saved.Title+"\"")
}

func (s *Server) htmlSelectForm(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Session.Select(r.Context(), r.FormValue("id")); err != nil {
		redirectWithError(w, r, err)
		return
	}
	redirect(w, r, "")
}

func (s *Server) htmlSelect(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Session.Select(r.Context(), mux.Vars(r)["id"]); err != nil {
		redirectWithError(w, r, err)
		return
	}
	redirect(w, r, "")
}

func (s *Server) htmlUseAsContext(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Session.UseAsContext(r.Context(), mux.Vars(r)["id"]); err != nil {
		redirectWithError(w, r, err)
		return
	}
	redirect(w, r, "Context loaded!")
}

func (s *Server) htmlDelete(w http.ResponseWriter, r *http.Request) {
	removed, err := s.Session.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		redirectWithError(w, r, err)
		return
	}
	redirect(w, r, "Deleted \""+removed.Title+"\"")
}

// send runs one exchange and records metrics.
func (s *Server) send(ctx context.Context, frontend string, message string) (*session.Reply, error) {
	start := time.Now()
	reply, err := s.Session.Send(ctx, message)
	if reply != nil {
		s.metrics.observeChat(frontend, start, reply.ModelError)
	}
	return reply, err
}

func redirect(w http.ResponseWriter, r *http.Request, flash string) {
	target := "/"
	if flash != "" {
		target += "?" + url.Values{"flash": []string{flash}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func redirectWithError(w http.ResponseWriter, r *http.Request, err error) {
	log.Warn().Err(err).Str("path", r.URL.Path).Msg("request failed")
	http.Redirect(w, r, "/?"+url.Values{"error": []string{userMessage(err)}}.Encode(), http.StatusSeeOther)
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrEmptyInput):
		return "Please type a message."
	case errors.Is(err, session.ErrNothingToSave):
		return "Nothing to save yet."
	case errors.Is(err, session.ErrSessionAlreadyActive):
		return "The model is still answering, try again in a moment."
	case errors.Is(err, history.ErrConversationNotFound):
		return "Conversation not found."
	default:
		return "Error: " + err.Error()
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrEmptyInput), errors.Is(err, session.ErrNothingToSave):
		return http.StatusBadRequest
	case errors.Is(err, history.ErrConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSessionAlreadyActive):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
