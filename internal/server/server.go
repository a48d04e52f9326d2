// Package server exposes the intake flow over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hidrotec-mx/intake-cli/internal/catalog"
	"github.com/hidrotec-mx/intake-cli/internal/flow"
	"github.com/hidrotec-mx/intake-cli/internal/model"
	"github.com/hidrotec-mx/intake-cli/internal/proposal"
	"github.com/hidrotec-mx/intake-cli/internal/session"
)

// Server wires the flow controller, session manager and catalog behind a
// chi router.
type Server struct {
	cat    *catalog.Catalog
	ctrl   *flow.Controller
	mgr    *session.Manager
	router chi.Router
}

// New builds the HTTP surface.
func New(cat *catalog.Catalog, ctrl *flow.Controller, mgr *session.Manager, allowedOrigins []string) *Server {
	s := &Server{cat: cat, ctrl: ctrl, mgr: mgr}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Get("/catalog/sectors", s.handleSectors)
		r.Get("/sessions/{id}/proposal", s.handleProposal)
		r.Get("/sessions/{id}/proposal.html", s.handleProposalHTML)
	})

	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = session.NewSessionID()
	}

	var out model.Outbound
	err := s.mgr.WithSession(r.Context(), req.SessionID, func(st *model.State) error {
		var err error
		out, err = s.ctrl.HandleMessage(r.Context(), st, req.Message)
		return err
	})
	if err != nil {
		zap.L().Error("chat handling failed",
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)
		// Internal faults surface as a generic apology plus a retry ask.
		writeJSON(w, http.StatusOK, model.Outbound{
			SessionID: req.SessionID,
			Reply:     "Lo siento, tuve un problema al procesar tu mensaje. ¿Podrías intentarlo de nuevo?",
		})
		return
	}

	writeJSON(w, http.StatusOK, out)
}

type sectorEntry struct {
	Name       string   `json:"name"`
	Subsectors []string `json:"subsectors"`
}

func (s *Server) handleSectors(w http.ResponseWriter, _ *http.Request) {
	sectors := s.cat.ListSectors()
	out := make([]sectorEntry, 0, len(sectors))
	for _, name := range sectors {
		subs, err := s.cat.ListSubsectors(name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "catalog lookup failed")
			return
		}
		out = append(out, sectorEntry{Name: name, Subsectors: subs})
	}
	writeJSON(w, http.StatusOK, out)
}

// buildProposal is shared by the markdown and HTML endpoints. Rebuilding
// per request is safe: Build is idempotent on a fixed state.
func (s *Server) buildProposal(w http.ResponseWriter, r *http.Request) *proposal.Document {
	id := chi.URLParam(r, "id")
	st, err := s.mgr.Peek(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session lookup failed")
		return nil
	}
	if st == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil
	}

	doc, err := proposal.Build(s.cat, st)
	if err != nil {
		if errors.Is(err, proposal.ErrIncomplete) {
			writeError(w, http.StatusConflict, "questionnaire not completed")
			return nil
		}
		zap.L().Error("proposal build failed",
			zap.String("session_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "proposal build failed")
		return nil
	}
	return doc
}

func (s *Server) handleProposal(w http.ResponseWriter, r *http.Request) {
	doc := s.buildProposal(w, r)
	if doc == nil {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc.Markdown()))
}

func (s *Server) handleProposalHTML(w http.ResponseWriter, r *http.Request) {
	doc := s.buildProposal(w, r)
	if doc == nil {
		return
	}
	html, err := doc.RenderHTML()
	if err != nil {
		zap.L().Error("proposal render failed",
			zap.String("reference", doc.Reference), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "proposal render failed, reference "+doc.Reference)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(html)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
