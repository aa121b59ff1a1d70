package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/devandress/Estacion-metereologica/pkg/database"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (rm *RouteManager) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(r, &req); err != nil {
		rm.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := rm.app.dbManager.ValidateUser(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, database.ErrInvalidCredentials) {
			rm.writeError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		rm.handleError(w, r, err)
		return
	}

	token, expiresAt, err := rm.GenerateJWT(user)
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      UserInfo{ID: user.ID.String(), Username: user.Username},
	})
}

func (rm *RouteManager) handleMe(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		rm.writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	rm.writeJSON(w, http.StatusOK, UserInfo{ID: user.ID.String(), Username: user.Username})
}

func (rm *RouteManager) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		rm.writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	token, expiresAt, err := rm.GenerateJWT(user)
	if err != nil {
		rm.handleError(w, r, err)
		return
	}

	rm.writeJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      UserInfo{ID: user.ID.String(), Username: user.Username},
	})
}
