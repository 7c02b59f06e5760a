package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/petasbytes/minutes-agent/internal/provider"
	"github.com/petasbytes/minutes-agent/internal/session"
	"github.com/petasbytes/minutes-agent/internal/summary"
	"github.com/petasbytes/minutes-agent/memory"
)

//go:embed templates/*.html
var templateFiles embed.FS

// CookieName carries the browser's session identifier.
const CookieName = "minutes_session"

func loadPage() *template.Template {
	return template.Must(template.ParseFS(templateFiles, "templates/chat.html"))
}

// entryView is one block of the display log: a turn or generated minutes.
type entryView struct {
	Role    string
	Minutes bool
	HTML    template.HTML
}

type pageData struct {
	Welcome string
	Entries []entryView
	Error   string
	Warning string
}

// currentSession returns the session named by the request cookie, if the
// process still holds it.
func (s *Server) currentSession(r *http.Request) *session.Session {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}
	sess, ok := s.sessions.Get(c.Value)
	if !ok {
		return nil
	}
	return sess
}

// browserSession returns the caller's session, starting one and setting the
// cookie when there is none.
func (s *Server) browserSession(w http.ResponseWriter, r *http.Request) *session.Session {
	if sess := s.currentSession(r); sess != nil {
		return sess
	}
	sess := s.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// displayLog interleaves turns with the minutes generated after them.
func displayLog(turns []memory.Turn, notes []note) []entryView {
	out := make([]entryView, 0, len(turns)+len(notes))
	next := 0
	flush := func(upTo int) {
		for next < len(notes) && notes[next].after <= upTo {
			out = append(out, entryView{Role: string(memory.RoleAssistant), Minutes: true, HTML: renderMarkdown(notes[next].doc)})
			next++
		}
	}
	for i, t := range turns {
		flush(i)
		v := entryView{Role: string(t.Role)}
		if t.Role == memory.RoleAssistant {
			v.HTML = renderMarkdown(t.Text)
		} else {
			v.HTML = template.HTML(template.HTMLEscapeString(t.Text))
		}
		out = append(out, v)
	}
	flush(len(turns))
	return out
}

// renderPage draws the chat page. sess may be nil for a visitor without a
// conversation.
func (s *Server) renderPage(w http.ResponseWriter, status int, sess *session.Session, data pageData) {
	data.Welcome = Welcome
	if sess != nil {
		turns, epoch := sess.SnapshotAt()
		data.Entries = displayLog(turns, s.notesFor(sess.ID(), epoch))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.page.Execute(w, data); err != nil {
		s.logger.Error("page render failed", "error", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, s.currentSession(r), pageData{})
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	sess := s.browserSession(w, r)
	if err := r.ParseForm(); err != nil {
		s.renderPage(w, http.StatusBadRequest, sess, pageData{Error: "Invalid form submission."})
		return
	}
	if _, err := sess.Send(r.Context(), r.PostForm.Get("message")); err != nil {
		s.logger.Error("send failed", "session_id", sess.ID(), "error", err)
		s.renderPage(w, statusFor(err), sess, pageData{Error: "The assistant could not respond: " + err.Error()})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sess := s.currentSession(r)
	if sess == nil {
		s.renderPage(w, http.StatusConflict, nil, pageData{Warning: "Please complete your interview first before generating minutes."})
		return
	}
	if _, err := s.summarize(r, sess); err != nil {
		if errors.Is(err, summary.ErrEmptyConversation) {
			s.renderPage(w, http.StatusConflict, sess, pageData{Warning: "Please complete your interview first before generating minutes."})
			return
		}
		s.renderPage(w, statusFor(err), sess, pageData{Error: "Meeting Minutes could not be generated: " + err.Error()})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if sess := s.currentSession(r); sess != nil {
		sess.Reset()
		s.dropNotes(sess.ID())
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// summarize generates minutes for the current conversation of sess and
// records them for display unless the conversation was reset meanwhile.
func (s *Server) summarize(r *http.Request, sess *session.Session) (string, error) {
	turns, epoch := sess.SnapshotAt()
	if len(turns) == 0 {
		return "", summary.ErrEmptyConversation
	}
	doc, err := s.minutes.Generate(r.Context(), turns)
	if err != nil {
		s.logger.Error("minutes failed", "session_id", sess.ID(), "error", err)
		return "", err
	}
	if sess.Epoch() != epoch {
		s.logger.Info("discarding minutes of a reset conversation", "session_id", sess.ID(), "epoch", epoch)
		return doc, nil
	}
	s.addNote(sess.ID(), note{epoch: epoch, after: len(turns), doc: doc})
	return doc, nil
}

// statusFor maps a shell error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, provider.ErrGeneration):
		return http.StatusBadGateway
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, summary.ErrEmptyConversation):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
