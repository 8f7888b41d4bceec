package server

import (
	"io"
	"net/http"

	"github.com/jonathan/resume-editor/internal/composition"
	"github.com/jonathan/resume-editor/internal/history"
	"github.com/jonathan/resume-editor/internal/types"
)

// UpdateFieldRequest is the body of PUT /document/fields.
type UpdateFieldRequest struct {
	Path  string `json:"path" validate:"required"`
	Value string `json:"value"`
}

// SkillRequest is the body of POST /document/skills.
type SkillRequest struct {
	Skill string `json:"skill" validate:"required"`
}

// MoveSectionRequest is the body of POST /document/sections/move.
type MoveSectionRequest struct {
	Index     int                   `json:"index" validate:"min=0"`
	Direction composition.Direction `json:"direction" validate:"required,oneof=up down"`
}

// CustomSectionRequest is the body of POST /document/custom-sections.
type CustomSectionRequest struct {
	Name    string `json:"name" validate:"required"`
	Content string `json:"content"`
}

// CustomSectionContentRequest is the body of PUT /document/custom-sections/{id}.
type CustomSectionContentRequest struct {
	Content string `json:"content"`
}

// CustomFieldRequest is the body of POST /document/custom-fields.
type CustomFieldRequest struct {
	Name string `json:"name" validate:"required"`
}

// CustomFieldValueRequest is the body of PUT /document/custom-fields/{id}.
type CustomFieldValueRequest struct {
	Value string `json:"value"`
}

// MutationResponse reports the outcome of an edit. Changed is false when the edit was a
// no-op, such as an unknown id or an unchanged value.
type MutationResponse struct {
	Changed bool          `json:"changed"`
	ID      string        `json:"id,omitempty"`
	History history.State `json:"history"`
}

// edit applies fn as one session step and reports the history position that step produced.
func (s *Server) edit(w http.ResponseWriter, r *http.Request, fn func(*composition.Store) (bool, error)) {
	changed, state, err := s.session.Edit(fn)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, MutationResponse{Changed: changed, History: state})
}

// created applies an edit that allocates an id. A false result means the input was rejected.
func (s *Server) created(w http.ResponseWriter, r *http.Request, fn func(*composition.Store) (string, bool, error)) {
	var id string
	_, state, err := s.session.Edit(func(st *composition.Store) (bool, error) {
		newID, ok, err := fn(st)
		if err == nil && !ok {
			err = &ErrValidation{Field: "name", Message: "must not be blank"}
		}
		id = newID
		return ok, err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, MutationResponse{Changed: true, ID: id, History: state})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.session.Document())
}

func (s *Server) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	var req UpdateFieldRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	s.edit(w, r, func(st *composition.Store) (bool, error) {
		return st.UpdateField(req.Path, req.Value)
	})
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	section := types.SectionID(r.PathValue("section"))
	s.created(w, r, func(st *composition.Store) (string, bool, error) {
		id, err := st.AddEntry(section)
		return id, err == nil, err
	})
}

func (s *Server) handleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	section, id := types.SectionID(r.PathValue("section")), r.PathValue("id")
	s.edit(w, r, func(st *composition.Store) (bool, error) {
		return st.RemoveEntry(section, id)
	})
}

func (s *Server) handleAddSkill(w http.ResponseWriter, r *http.Request) {
	var req SkillRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	s.edit(w, r, func(st *composition.Store) (bool, error) {
		return st.AddSkill(req.Skill), nil
	})
}

func (s *Server) handleRemoveSkill(w http.ResponseWriter, r *http.Request) {
	skill := r.PathValue("skill")
	s.edit(w, r, func(st *composition.Store) (bool, error) {
		return st.RemoveSkill(skill), nil
	})
}

func (s *Server) handleToggleSection(w http.ResponseWriter, r *http.Request) {
	id := types.SectionID(r.PathValue("id"))
	s.edit(w, r, func(st *composition.Store) (bool, error) {
		return st.ToggleVisibility(id), nil
	})
}

func (s *Server) handleMoveSection(w http.ResponseWriter, r *http.Request) {
	var req MoveSectionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	s.edit(w, r, func(st *composition.Store) (bool, error) {
		return st.MoveSection(req.Index, req.Direction), nil
	})
}

func (s *Server) handleAddCustomSection(w http.ResponseWriter, r *http.Request) {
	var req CustomSectionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	s.created(w, r, func(st *composition.Store) (string, bool, error) {
		id, ok := st.AddCustomSection(req.Name, req.Content)
		return string(id), ok, nil
	})
}

func (s *Server) handleUpdateCustomSection(w http.ResponseWriter, r *http.Request) {
	var req CustomSectionContentRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	id := types.SectionID(r.PathValue("id"))
	s.edit(w, r, func(st *composition.Store) (bool, error) {
		return st.UpdateCustomSectionContent(id, req.Content), nil
	})
}

func (s *Server) handleDeleteCustomSection(w http.ResponseWriter, r *http.Request) {
	id := types.SectionID(r.PathValue("id"))
	s.edit(w, r, func(st *composition.Store) (bool, error) {
		return st.DeleteCustomSection(id), nil
	})
}

func (s *Server) handleAddCustomField(w http.ResponseWriter, r *http.Request) {
	var req CustomFieldRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	s.created(w, r, func(st *composition.Store) (string, bool, error) {
		id, ok := st.AddCustomField(req.Name)
		return id, ok, nil
	})
}

func (s *Server) handleUpdateCustomField(w http.ResponseWriter, r *http.Request) {
	var req CustomFieldValueRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	s.edit(w, r, func(st *composition.Store) (bool, error) {
		return st.UpdateCustomField(id, req.Value), nil
	})
}

func (s *Server) handleRemoveCustomField(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.edit(w, r, func(st *composition.Store) (bool, error) {
		return st.RemoveCustomField(id), nil
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.session.HistoryState())
}

func (s *Server) handleUndo(w http.ResponseWriter, _ *http.Request) {
	changed, state := s.session.UndoWithState()
	s.jsonResponse(w, http.StatusOK, MutationResponse{Changed: changed, History: state})
}

func (s *Server) handleRedo(w http.ResponseWriter, _ *http.Request) {
	changed, state := s.session.RedoWithState()
	s.jsonResponse(w, http.StatusOK, MutationResponse{Changed: changed, History: state})
}

// handleImport adopts a serialized document. Nothing changes unless every check passes.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, &ErrValidation{Field: "body", Message: err.Error()})
		return
	}
	state, err := s.session.ImportWithState(data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, MutationResponse{Changed: true, History: state})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.session.Export()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="resume.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
