package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/vjranagit/graphcalc/pkg/storage"
	"github.com/vjranagit/graphcalc/pkg/types"
)

// GET, POST /public/graphs/equations
//
// GET also lists every family present, whatever the ?family= filter.
func (s *Server) handlePublicEquations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		family := types.Family(r.URL.Query().Get("family"))
		eqs, err := s.store.Equations(r.Context(), storage.PublicOwner, family)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeSuccess(w, http.StatusOK, map[string]interface{}{
			"equations": eqs,
			"families":  s.store.EquationFamilies(storage.PublicOwner),
		})

	case http.MethodPost:
		var sub types.Submission
		if !s.decode(w, r, &sub) {
			return
		}
		stored, err := classifySubmission(sub)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		stored.OwnerID = storage.PublicOwner
		eq, err := s.store.CreateEquation(r.Context(), &stored)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeSuccess(w, http.StatusCreated, map[string]interface{}{"equation": eq})

	default:
		s.methodNotAllowed(w)
	}
}

// GET, PUT, DELETE /public/graphs/equations/{id}
func (s *Server) handlePublicEquation(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/public/graphs/equations/"), "/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, errors.New("not found"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		eq, err := s.store.Equation(r.Context(), storage.PublicOwner, id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeSuccess(w, http.StatusOK, map[string]interface{}{"equation": eq})

	case http.MethodPut:
		var sub types.Submission
		if !s.decode(w, r, &sub) {
			return
		}
		stored, err := classifySubmission(sub)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		stored.ID = id
		stored.OwnerID = storage.PublicOwner
		eq, err := s.store.UpdateEquation(r.Context(), &stored)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeSuccess(w, http.StatusOK, map[string]interface{}{"equation": eq})

	case http.MethodDelete:
		if err := s.store.DeleteEquation(r.Context(), storage.PublicOwner, id); err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeMessage(w, "equation deleted")

	default:
		s.methodNotAllowed(w)
	}
}
