// Package httpserver exposes the records API over HTTP.
package httpserver

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/openhrm/victimdb/internal/errs"
	"github.com/openhrm/victimdb/internal/model"
	"github.com/openhrm/victimdb/internal/service"
)

// Server wires services into HTTP handlers.
type Server struct {
	auth    service.AuthService
	victims service.VictimService
	log     *zap.Logger
}

// New constructs the HTTP server with injected services.
func New(auth service.AuthService, victims service.VictimService, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{auth: auth, victims: victims, log: log}
}

// Router builds the chi router with middleware and all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(Recover(s.log))
	r.Use(Logging(s.log))

	r.Get("/health", s.handleHealth)
	r.Post("/auth/login", s.handleLogin)

	r.Route("/victims", func(r chi.Router) {
		r.Use(RequireAuth(s.auth, s.log))
		r.Post("/", s.handleCreate)
		r.Get("/", s.handleList)
		r.Get("/case/{caseID}", s.handleListByCase)
		r.Get("/{id}", s.handleGet)
		r.Patch("/{id}", s.handleUpdate)
		r.Delete("/{id}", s.handleDelete)
		r.Get("/{id}/risk-history", s.handleRiskHistory)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeError(w, fmt.Errorf("%w: username and password required", errs.ErrInvalidInput))
		return
	}
	tokens, err := s.auth.Login(r.Context(), req.Username, req.Password, remoteIP(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: tokens.AccessToken,
		TokenType:   "bearer",
		ExpiresAt:   tokens.ExpiresAt,
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromCtx(r.Context())
	if !ok {
		writeError(w, errs.ErrUnauthorized)
		return
	}
	var req createVictimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: bad body", errs.ErrInvalidInput))
		return
	}
	if req.RiskAssessment == nil {
		writeError(w, fmt.Errorf("%w: risk_assessment is required", errs.ErrInvalidInput))
		return
	}
	id, err := s.victims.Create(r.Context(), p, model.NewVictim{
		Type:            req.Type,
		Anonymous:       req.Anonymous,
		Pseudonym:       req.Pseudonym,
		Demographics:    req.Demographics,
		ContactInfo:     req.ContactInfo,
		RiskAssessment:  *req.RiskAssessment,
		SupportServices: req.SupportServices,
		Notes:           req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromCtx(r.Context())
	if !ok {
		writeError(w, errs.ErrUnauthorized)
		return
	}
	rec, err := s.victims.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVictimView(rec))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromCtx(r.Context())
	if !ok {
		writeError(w, errs.ErrUnauthorized)
		return
	}
	f, err := listFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}
	recs, err := s.victims.List(r.Context(), p, f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVictimViews(recs))
}

func (s *Server) handleListByCase(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromCtx(r.Context())
	if !ok {
		writeError(w, errs.ErrUnauthorized)
		return
	}
	recs, err := s.victims.ListByCase(r.Context(), p, chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVictimViews(recs))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromCtx(r.Context())
	if !ok {
		writeError(w, errs.ErrUnauthorized)
		return
	}
	var req updateVictimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: bad body", errs.ErrInvalidInput))
		return
	}
	err := s.victims.Update(r.Context(), p, chi.URLParam(r, "id"), model.UpdateVictim{
		Type:            req.Type,
		Anonymous:       req.Anonymous,
		Pseudonym:       req.Pseudonym,
		Demographics:    req.Demographics,
		ContactInfo:     req.ContactInfo,
		RiskAssessment:  req.RiskAssessment,
		SupportServices: req.SupportServices,
		Notes:           req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "updated"})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromCtx(r.Context())
	if !ok {
		writeError(w, errs.ErrUnauthorized)
		return
	}
	if err := s.victims.Delete(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

func (s *Server) handleRiskHistory(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromCtx(r.Context())
	if !ok {
		writeError(w, errs.ErrUnauthorized)
		return
	}
	entries, err := s.victims.RiskHistory(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuditViews(entries))
}

// listFilter parses skip/limit/risk_level/type query parameters. Range checks
// happen in the service; only syntax is rejected here.
func listFilter(r *http.Request) (model.VictimFilter, error) {
	var f model.VictimFilter
	q := r.URL.Query()
	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("%w: skip must be an integer", errs.ErrInvalidInput)
		}
		f.Skip = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("%w: limit must be an integer", errs.ErrInvalidInput)
		}
		f.Limit = n
	}
	if v := q.Get("risk_level"); v != "" {
		lvl := model.RiskLevel(v)
		f.RiskLevel = &lvl
	}
	if v := q.Get("type"); v != "" {
		t := model.VictimType(v)
		f.Type = &t
	}
	return f, nil
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
