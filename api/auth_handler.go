package api

import (
	"net/http"
	"strings"

	"github.com/rpupo63/blog-publisher-backend/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type authHandler struct {
	responder Responder
	logger    zerolog.Logger
	auth      *adminAuth
	endpoint  string
}

func newAuthHandler(auth *adminAuth, endpoint string) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()

	return authHandler{
		responder: NewResponder(logger),
		logger:    logger,
		auth:      auth,
		endpoint:  endpoint,
	}
}

// login checks the admin credentials, starts a cookie session and issues a bearer token
// @Summary Admin login
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} loginResponse
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Failure 429 {object} ErrorResponse "Too many login attempts"
// @Router /blog-adm/api/login [post]
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, "login", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("username"))
			return
		}
		if req.Password == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("password"))
			return
		}

		if !h.auth.checkCredentials(req.Username, req.Password) {
			h.logger.Warn().Str("username", req.Username).Str("remote", clientIP(r)).Msg("Invalid login attempt")
			h.responder.WriteError(w, errs.NewInvalidCredentialsError())
			return
		}

		if err := h.auth.startSession(w, r, req.Username); err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("unable to start session", err))
			return
		}
		token, expiresAt, err := h.auth.issueToken(req.Username)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.logger.Info().Str("username", req.Username).Msg("Admin logged in")
		h.responder.WriteJSON(w, loginResponse{
			Success:    true,
			Message:    "Login successful",
			Username:   req.Username,
			Token:      token,
			ExpiresAt:  expiresAt,
			Connection: h.endpoint,
		})
	}
}

func (h authHandler) logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.auth.endSession(w, r); err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("unable to end session", err))
			return
		}
		h.responder.WriteJSON(w, map[string]any{
			"success": true,
			"message": "Logout successful",
		})
	}
}

// authStatus reports whether the caller holds a valid admin session
func (h authHandler) authStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := h.auth.sessionUser(r)
		h.responder.WriteJSON(w, authStatusResponse{
			Authenticated: username != "",
			Username:      username,
			Connection:    h.endpoint,
		})
	}
}
