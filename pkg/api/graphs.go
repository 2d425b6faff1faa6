package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/vjranagit/graphcalc/pkg/auth"
	"github.com/vjranagit/graphcalc/pkg/equation"
	"github.com/vjranagit/graphcalc/pkg/types"
)

// equationRequest is a submission, optionally naming an equation already
// saved in the graph
type equationRequest struct {
	ID string `json:"id,omitempty"`
	types.Submission
}

type graphRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Equations   []equationRequest `json:"equations"`
}

// toStored validates and classifies every equation of a graph request
func (req *graphRequest) toStored() ([]types.StoredEquation, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, errors.New("graph name is required")
	}
	eqs := make([]types.StoredEquation, 0, len(req.Equations))
	for _, e := range req.Equations {
		stored, err := classifySubmission(e.Submission)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, e.Equation)
		}
		stored.ID = e.ID
		eqs = append(eqs, stored)
	}
	return eqs, nil
}

// classifySubmission fills in default styling and the family, rejecting
// equations in no family
func classifySubmission(sub types.Submission) (types.StoredEquation, error) {
	sub, err := equation.ValidateSubmission(sub)
	if err != nil {
		return types.StoredEquation{}, err
	}
	family := equation.Classify(sub.Equation)
	if !family.Recognized() {
		return types.StoredEquation{}, equation.ErrFormatRejected
	}
	return types.StoredEquation{
		Equation:  strings.TrimSpace(sub.Equation),
		Color:     sub.Color,
		Thickness: sub.Thickness,
		Family:    family,
	}, nil
}

// GET, POST /graphs
func (s *Server) handleGraphs(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	switch r.Method {
	case http.MethodGet:
		graphs, err := s.store.Graphs(r.Context(), claims.UserID())
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeSuccess(w, http.StatusOK, map[string]interface{}{"graphs": graphs})

	case http.MethodPost:
		var req graphRequest
		if !s.decode(w, r, &req) {
			return
		}
		eqs, err := req.toStored()
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		graph, err := s.store.CreateGraph(r.Context(), &types.Graph{
			OwnerID:     claims.UserID(),
			Name:        strings.TrimSpace(req.Name),
			Description: req.Description,
			Equations:   eqs,
		})
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeSuccess(w, http.StatusCreated, map[string]interface{}{"graph": graph})

	default:
		s.methodNotAllowed(w)
	}
}

// GET, PUT, DELETE /graphs/{id} and GET /graphs/{id}/render
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/graphs/"), "/"), "/")
	id := parts[0]
	if id == "" || len(parts) > 2 || (len(parts) == 2 && parts[1] != "render") {
		s.writeError(w, http.StatusNotFound, errors.New("not found"))
		return
	}
	if len(parts) == 2 {
		s.handleRender(w, r, claims.UserID(), id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		graph, err := s.store.Graph(r.Context(), claims.UserID(), id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeSuccess(w, http.StatusOK, map[string]interface{}{"graph": graph})

	case http.MethodPut:
		var req graphRequest
		if !s.decode(w, r, &req) {
			return
		}
		eqs, err := req.toStored()
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		graph, err := s.store.UpdateGraph(r.Context(), &types.Graph{
			ID:          id,
			OwnerID:     claims.UserID(),
			Name:        strings.TrimSpace(req.Name),
			Description: req.Description,
			Equations:   eqs,
		})
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeSuccess(w, http.StatusOK, map[string]interface{}{"graph": graph})

	case http.MethodDelete:
		if err := s.store.DeleteGraph(r.Context(), claims.UserID(), id); err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeMessage(w, "graph deleted")

	default:
		s.methodNotAllowed(w)
	}
}

// handleRender samples every equation of a graph over the owner's x axis
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request, ownerID, id string) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}
	graph, err := s.store.Graph(r.Context(), ownerID, id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	settings, err := s.store.Settings(r.Context(), ownerID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	series, err := s.renderer.Render(r.Context(), graph.Equations, s.renderer.OptionsFor(settings))
	if errors.Is(err, equation.ErrInvalidSweep) {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"graph_id": graph.ID,
		"series":   series,
	})
}
