package server

import (
	"net/http"

	"github.com/jonathan/resume-editor/internal/composition"
	"github.com/jonathan/resume-editor/internal/generation"
	"github.com/jonathan/resume-editor/internal/types"
)

// GenerateResponse is the body of POST /generations. The result arrives later as a
// generation.settled event.
type GenerateResponse struct {
	GenerationID string `json:"generation_id"`
	Status       string `json:"status"`
}

// MatchRequest is the body of POST /match.
type MatchRequest struct {
	JobDescription string `json:"job_description" validate:"required"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generation.Params
	if !s.decodeBody(w, r, &req) {
		return
	}
	id, err := s.session.Generate(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, GenerateResponse{GenerationID: id, Status: "pending"})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	analysis, err := s.session.AnalyzeMatch(r.Context(), req.JobDescription)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, analysis)
}

func (s *Server) handleApplyRecommendation(w http.ResponseWriter, r *http.Request) {
	var req types.Recommendation
	if !s.decodeBody(w, r, &req) {
		return
	}
	s.edit(w, r, func(st *composition.Store) (bool, error) {
		return st.ApplyRecommendation(req)
	})
}
