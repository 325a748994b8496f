package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mycelian/calendar-sync/internal/eventdate"
)

const minPasswordLen = 6

type authResponse struct {
	Ok    bool   `json:"ok"`
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

type eventIn struct {
	Title string `json:"title"`
	Notes string `json:"notes"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type userRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type eventOut struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Notes string `json:"notes"`
	Start string `json:"start"`
	End   string `json:"end"`
	// populated {_id, name} on listings, bare id string on writes
	User any `json:"user"`
}

// validator collects field errors keyed by field name.
type validator map[string]fieldError

func (v validator) check(ok bool, param, value, msg string) {
	if ok {
		return
	}
	if _, seen := v[param]; seen {
		return
	}
	v[param] = fieldError{Value: value, Msg: msg, Param: param, Location: "body"}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeValidation(w, map[string]fieldError{
			"body": {Msg: "JSON inválido", Param: "body", Location: "body"},
		})
		return false
	}
	return true
}

func validEmail(s string) bool {
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == s
}

// ------------------------------ auth ------------------------------

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}
	v := validator{}
	v.check(validEmail(in.Email), "email", in.Email, "El email es obligatorio")
	v.check(len(in.Password) >= minPasswordLen, "password", "", "El password debe de ser de 6 caracteres")
	if len(v) > 0 {
		writeValidation(w, v)
		return
	}

	u, err := s.store.authenticate(in.Email, in.Password)
	if err != nil {
		writeMsg(w, http.StatusBadRequest, msgBadCredentials)
		return
	}
	s.writeAuth(w, http.StatusOK, u.ID, u.Name)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}
	v := validator{}
	v.check(strings.TrimSpace(in.Name) != "", "name", in.Name, "El nombre es obligatorio")
	v.check(validEmail(in.Email), "email", in.Email, "El email es obligatorio")
	v.check(len(in.Password) >= minPasswordLen, "password", "", "El password debe de ser de 6 caracteres")
	if len(v) > 0 {
		writeValidation(w, v)
		return
	}

	u, err := s.store.createUser(strings.TrimSpace(in.Name), in.Email, in.Password)
	switch {
	case errors.Is(err, ErrUserExists):
		writeMsg(w, http.StatusBadRequest, msgUserExists)
		return
	case err != nil:
		s.log.Error().Stack().Err(err).Msg("register failed")
		writeInternal(w)
		return
	}
	s.log.Info().Str("uid", u.ID).Msg("user registered")
	s.writeAuth(w, http.StatusCreated, u.ID, u.Name)
}

func (s *Server) renew(w http.ResponseWriter, r *http.Request) {
	c := claimsFrom(r.Context())
	s.writeAuth(w, http.StatusOK, c.UID, c.Name)
}

func (s *Server) writeAuth(w http.ResponseWriter, status int, uid, name string) {
	tok, err := s.tokens.Generate(uid, name)
	if err != nil {
		s.log.Error().Stack().Err(err).Msg("token generation failed")
		writeInternal(w)
		return
	}
	writeJSON(w, status, authResponse{Ok: true, UID: uid, Name: name, Token: tok})
}

// ------------------------------ events ------------------------------

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	evs := s.store.listEvents()
	out := make([]eventOut, 0, len(evs))
	for _, ev := range evs {
		ref := userRef{ID: ev.UserID}
		if u, ok := s.store.userByID(ev.UserID); ok {
			ref.Name = u.Name
		}
		out = append(out, toOut(ev, ref))
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "eventos": out})
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.readEvent(w, r)
	if !ok {
		return
	}
	ev.UserID = claimsFrom(r.Context()).UID
	stored := s.store.createEvent(ev)
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "evento": toOut(stored, stored.UserID)})
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.readEvent(w, r)
	if !ok {
		return
	}
	ev.ID = mux.Vars(r)["id"]
	uid := claimsFrom(r.Context()).UID
	stored, err := s.store.updateEvent(uid, ev)
	if err != nil {
		s.writeStoreError(w, err, msgNoEditPrivilege)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "evento": toOut(stored, stored.UserID)})
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	uid := claimsFrom(r.Context()).UID
	if err := s.store.deleteEvent(uid, mux.Vars(r)["id"]); err != nil {
		s.writeStoreError(w, err, msgNoDeletePrivilege)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) readEvent(w http.ResponseWriter, r *http.Request) (event, bool) {
	var in eventIn
	if !decode(w, r, &in) {
		return event{}, false
	}
	v := validator{}
	v.check(strings.TrimSpace(in.Title) != "", "title", in.Title, "El titulo es obligatorio")
	start, err := eventdate.Parse(in.Start)
	v.check(err == nil, "start", in.Start, "Fecha de inicio es obligatoria")
	end, err := eventdate.Parse(in.End)
	v.check(err == nil, "end", in.End, "Fecha de finalización es obligatoria")
	if len(v) > 0 {
		writeValidation(w, v)
		return event{}, false
	}
	return event{Title: in.Title, Notes: in.Notes, Start: start, End: end}, true
}

func toOut(ev event, user any) eventOut {
	return eventOut{
		ID:    ev.ID,
		Title: ev.Title,
		Notes: ev.Notes,
		Start: eventdate.Format(ev.Start),
		End:   eventdate.Format(ev.End),
		User:  user,
	}
}
