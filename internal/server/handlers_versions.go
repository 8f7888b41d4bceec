package server

import (
	"net/http"

	"github.com/jonathan/resume-editor/internal/editor"
	"github.com/jonathan/resume-editor/internal/types"
	"github.com/jonathan/resume-editor/internal/versions"
)

// ListVersionsResponse is the body of GET /versions.
type ListVersionsResponse struct {
	ActiveID string                 `json:"active_id,omitempty"`
	Versions []types.VersionSummary `json:"versions"`
}

// ActivateResponse is the body of POST /versions/{id}/activate.
type ActivateResponse struct {
	ActiveID string         `json:"active_id"`
	Document types.Document `json:"document"`
}

func (s *Server) handleListVersions(w http.ResponseWriter, _ *http.Request) {
	list := s.session.ListVersions()
	resp := ListVersionsResponse{
		ActiveID: s.session.ActiveVersionID(),
		Versions: make([]types.VersionSummary, 0, len(list)),
	}
	for _, v := range list {
		resp.Versions = append(resp.Versions, v.Summary())
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleCreateVersion(w http.ResponseWriter, r *http.Request) {
	var req versions.CreateParams
	if !s.decodeBody(w, r, &req) {
		return
	}
	v, err := s.session.CreateVersion(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, v.Summary())
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	v, err := s.session.GetVersion(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, v)
}

func (s *Server) handleDeleteVersion(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	reparented, err := s.session.DeleteVersion(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, editor.VersionDeleted{ID: id, Reparented: reparented})
}

func (s *Server) handleActivateVersion(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	doc, err := s.session.ActivateVersion(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, ActivateResponse{ActiveID: id, Document: doc})
}

func (s *Server) handleLineage(w http.ResponseWriter, r *http.Request) {
	chain, err := s.session.Lineage(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]types.VersionSummary, 0, len(chain))
	for _, v := range chain {
		out = append(out, v.Summary())
	}
	s.jsonResponse(w, http.StatusOK, out)
}
