package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	m "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"codesurvey/internal/auth"
	"codesurvey/internal/db"
	"codesurvey/internal/export"
	"codesurvey/internal/report"
	"codesurvey/internal/schemas"
	"codesurvey/internal/storage"
	"codesurvey/internal/survey"
)

type Server struct {
	Store    db.Store
	Survey   *survey.Controller
	Images   storage.Images
	Exporter *export.Exporter
	APIToken string
	Log      *zap.Logger
}

func NewServer(addr string, s *Server) *http.Server {
	return &http.Server{Addr: addr, Handler: s.Routes(), ReadHeaderTimeout: 10 * time.Second}
}

func (s *Server) Routes() http.Handler {
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(m.RequestID, m.RealIP, m.Logger, m.Recoverer)

	r.Post("/sessions", s.createSession)

	// Participant routes (Authorization: Bearer <session token>)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.getSession)
		r.Post("/events", s.postEvent)
		r.Get("/results.csv", s.downloadResults)
		r.Get("/summary", s.getSummary)
	})

	r.Get("/images/{name}", s.getImage)

	r.Group(func(r chi.Router) {
		r.Use(RequireAPIToken(s.APIToken))
		r.Get("/admin/sessions/{id}/results.csv", s.adminResults)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := s.Store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "db error"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

type errResp struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	token := auth.NewToken()
	sess := db.Session{
		ID:        id,
		TokenHash: auth.HashToken(token),
		State:     survey.NewState(),
		CreatedAt: time.Now(),
	}
	if err := s.Store.Create(r.Context(), sess); err != nil {
		s.Log.Error("create session", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errResp{"could not create session"})
		return
	}
	s.Log.Info("session created", zap.String("session_id", id))
	writeJSON(w, http.StatusCreated, schemas.CreateSessionResponse{SessionID: id, Token: token})
}

// loadSession resolves {id} and checks the participant token. It writes the
// error response itself and reports whether the caller may continue.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (db.Session, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeJSON(w, http.StatusNotFound, errResp{"session not found"})
		return db.Session{}, false
	}
	tok, ok := auth.Bearer(r.Header.Get("Authorization"))
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errResp{"missing bearer"})
		return db.Session{}, false
	}
	sess, err := s.Store.Get(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errResp{"session not found"})
		return db.Session{}, false
	}
	if err != nil {
		s.Log.Error("load session", zap.String("session_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errResp{"could not load session"})
		return db.Session{}, false
	}
	if !auth.Matches(tok, sess.TokenHash) {
		writeJSON(w, http.StatusUnauthorized, errResp{"unauthorized"})
		return db.Session{}, false
	}
	return sess, true
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.view(sess.ID, sess.State))
}

func (s *Server) postEvent(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	var req schemas.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
		return
	}

	prev := sess.State
	next, rec, err := s.Survey.Apply(prev, req.Event())
	switch {
	case errors.Is(err, survey.ErrEmptyNickname):
		writeJSON(w, http.StatusUnprocessableEntity, errResp{err.Error()})
		return
	case errors.Is(err, survey.ErrUnexpectedEvent):
		writeJSON(w, http.StatusConflict, errResp{err.Error()})
		return
	case err != nil:
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
		return
	}

	if err := s.Store.Save(r.Context(), sess.ID, prev, next, rec); err != nil {
		if errors.Is(err, db.ErrConflict) {
			writeJSON(w, http.StatusConflict, errResp{err.Error()})
			return
		}
		s.Log.Error("save session", zap.String("session_id", sess.ID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errResp{"could not save session"})
		return
	}

	// Forwarding must not be cut short by the participant closing the page.
	ctx := context.WithoutCancel(r.Context())
	resp := schemas.EventResponse{Session: s.view(sess.ID, next), Record: rec}
	if rec != nil {
		s.Log.Info("response recorded",
			zap.String("session_id", sess.ID),
			zap.Int("trial", rec.Trial),
			zap.Bool("correct", rec.Correct),
			zap.Float64("time_sec", rec.TimeSec))
		resp.Warnings = append(resp.Warnings, s.Exporter.RecordCreated(ctx, sess.ID, *rec)...)
	}
	if next.Phase == survey.PhaseDone && prev.Phase != survey.PhaseDone {
		s.Log.Info("session completed", zap.String("session_id", sess.ID), zap.Int("records", len(next.Records)))
		resp.Warnings = append(resp.Warnings, s.Exporter.SessionDone(ctx, sess.ID, next.Records)...)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) downloadResults(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	if !s.Exporter.LocalEnabled() {
		writeJSON(w, http.StatusNotFound, errResp{"result download is disabled"})
		return
	}
	if sess.State.Phase != survey.PhaseDone {
		writeJSON(w, http.StatusConflict, errResp{"survey not completed"})
		return
	}
	s.writeCSV(w, sess)
}

func (s *Server) adminResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeJSON(w, http.StatusNotFound, errResp{"session not found"})
		return
	}
	sess, err := s.Store.Get(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errResp{"session not found"})
		return
	}
	if err != nil {
		s.Log.Error("load session", zap.String("session_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errResp{"could not load session"})
		return
	}
	s.writeCSV(w, sess)
}

func (s *Server) writeCSV(w http.ResponseWriter, sess db.Session) {
	data, err := export.CSV(sess.State.Records)
	if err != nil {
		s.Log.Error("encode csv", zap.String("session_id", sess.ID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errResp{"could not export results"})
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) getSummary(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	if sess.State.Phase != survey.PhaseDone {
		writeJSON(w, http.StatusConflict, errResp{"survey not completed"})
		return
	}
	writeJSON(w, http.StatusOK, report.Summarize(s.Survey.Catalog(), sess.State.Records))
}

func (s *Server) getImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !s.Survey.Catalog().ValidImage(name) {
		writeJSON(w, http.StatusNotFound, errResp{"image not found"})
		return
	}
	rc, err := s.Images.Open(r.Context(), name)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errResp{"image not found"})
		return
	}
	if err != nil {
		s.Log.Error("open image", zap.String("image", name), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errResp{"image store unavailable"})
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = io.Copy(w, rc)
}
