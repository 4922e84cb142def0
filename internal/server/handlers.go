package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/career-path/internal/career"
	"github.com/spigell/career-path/internal/catalog"
	"github.com/spigell/career-path/internal/identity"
	"github.com/spigell/career-path/internal/logger"
	"github.com/spigell/career-path/internal/store"
)

const homeMessage = "Career Path API is running"

type errorResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleHome(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, homeMessage)
}

// handleCreate serves both create endpoints. On the authenticated one the user
// id comes from the token and overrides the body.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var sub career.Submission
	if !s.decode(w, r, &sub) {
		return
	}

	if userID, ok := identity.UserID(r.Context()); ok {
		sub.UserID = userID
	}

	rec, err := s.store.Create(r.Context(), sub)
	if err != nil {
		if errors.Is(err, career.ErrValidation) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("store career profile", append(logger.ProfileFields(career.TripleOf(sub)), zap.Error(err))...)
		s.writeError(w, http.StatusInternalServerError, "could not save career profile")
		return
	}

	s.writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("list career profiles", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not list career profiles")
		return
	}

	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleRecordRoadmap(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeRoadmap(w, r, career.TripleOf(rec.Submission()))
}

func (s *Server) handleRoadmap(w http.ResponseWriter, r *http.Request) {
	var sub career.Submission
	if !s.decode(w, r, &sub) {
		return
	}

	if strings.TrimSpace(sub.CurrentClass) == "" {
		s.writeError(w, http.StatusBadRequest, "currentClass is required")
		return
	}
	if strings.TrimSpace(sub.Sector) != "" {
		if _, err := career.ParseSector(sub.Sector); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	s.writeRoadmap(w, r, career.TripleOf(sub))
}

func (s *Server) writeRoadmap(w http.ResponseWriter, r *http.Request, t career.Triple) {
	roadmap, err := s.matcher.Match(r.Context(), t)
	if err != nil {
		s.logger.Error("match roadmap", append(logger.ProfileFields(t), zap.Error(err))...)
		s.writeError(w, http.StatusInternalServerError, "could not build roadmap")
		return
	}
	s.writeJSON(w, http.StatusOK, roadmap)
}

func (s *Server) handleClasses(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, catalog.Search(career.ClassNames(), r.URL.Query().Get("q")))
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var sector career.Sector
	if raw := strings.TrimSpace(q.Get("sector")); raw != "" {
		parsed, err := career.ParseSector(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		sector = parsed
	}

	jobs := catalog.Search(s.catalog.JobNames(sector), q.Get("q"))
	if jobs == nil {
		jobs = []string{}
	}
	s.writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*career.Record, bool) {
	id := r.PathValue("id")
	rec, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "career profile not found")
		return nil, false
	}
	if err != nil {
		s.logger.Error("get career profile", zap.String("id", id), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not load career profile")
		return nil, false
	}
	return rec, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Message: message})
}
