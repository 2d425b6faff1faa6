package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/vjranagit/graphcalc/pkg/auth"
	"github.com/vjranagit/graphcalc/pkg/storage"
	"github.com/vjranagit/graphcalc/pkg/types"
)

const minPasswordLength = 6

var validThemes = map[string]bool{"light": true, "dark": true}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /signup
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}
	var req credentials
	if !s.decode(w, r, &req) {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("username and password are required"))
		return
	}
	if len(req.Password) < minPasswordLength {
		s.writeError(w, http.StatusBadRequest, errors.New("password must be at least 6 characters"))
		return
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	user, err := s.store.CreateUser(r.Context(), req.Username, hash)
	if errors.Is(err, storage.ErrConflict) {
		s.writeError(w, http.StatusConflict, errors.New("username already taken"))
		return
	}
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeSuccess(w, http.StatusCreated, map[string]interface{}{"user": user})
}

// POST /login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}
	var req credentials
	if !s.decode(w, r, &req) {
		return
	}

	user, err := s.store.UserByName(r.Context(), strings.TrimSpace(req.Username))
	if errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, http.StatusUnauthorized, auth.ErrInvalidCredentials)
		return
	}
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if err := s.auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		s.writeError(w, http.StatusUnauthorized, err)
		return
	}

	token, claims, err := s.auth.Issue(user)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_at": claims.Expiry(),
		"user":       user,
	})
}

// POST /logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}
	if err := s.store.RevokeToken(r.Context(), claims.Id, claims.Expiry()); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeMessage(w, "logged out")
}

// GET /users
func (s *Server) handleUser(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}
	user, err := s.store.UserByID(r.Context(), claims.UserID())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, map[string]interface{}{"user": user})
}

// GET, PUT /users/settings
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	switch r.Method {
	case http.MethodGet:
		settings, err := s.store.Settings(r.Context(), claims.UserID())
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeSuccess(w, http.StatusOK, map[string]interface{}{"settings": settings})

	case http.MethodPut:
		var settings types.Settings
		if !s.decode(w, r, &settings) {
			return
		}
		if err := s.validateSettings(settings); err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := s.store.PutSettings(r.Context(), claims.UserID(), settings); err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeSuccess(w, http.StatusOK, map[string]interface{}{"settings": settings})

	default:
		s.methodNotAllowed(w)
	}
}

// validateSettings also rejects an x axis too wide to sample at the
// configured step, since it becomes the render domain.
func (s *Server) validateSettings(settings types.Settings) error {
	if !validThemes[settings.Theme] {
		return errors.New("theme must be light or dark")
	}
	x, y := settings.AxisSettings.XAxis, settings.AxisSettings.YAxis
	if x.Min >= x.Max || y.Min >= y.Max {
		return errors.New("axis minimum must be below maximum")
	}
	if err := s.renderer.OptionsFor(settings).WithDefaults().Validate(); err != nil {
		return fmt.Errorf("x axis: %w", err)
	}
	return nil
}
