package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"lostlink/internal"
	"lostlink/pkg/types"

	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token          string  `json:"token"`
	AccessToken    string  `json:"access_token"`
	TokenType      string  `json:"token_type"`
	ID             string  `json:"id"`
	Email          string  `json:"email"`
	Name           string  `json:"name"`
	Role           string  `json:"role"`
	RegisterNumber *string `json:"register_number"`
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "malformed request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		s.respondError(w, fmt.Errorf("email and password are required: %w", types.ErrValidation))
		return
	}

	user, err := s.users.UserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			s.respondErrorStatus(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.logger.WithError(err).Error("failed to look up user for login")
		s.respondError(w, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.respondErrorStatus(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	now := time.Now()
	accessToken, err := s.signAccessToken(user, now)
	if err != nil {
		s.logger.WithError(err).Error("failed to sign access token")
		s.respondError(w, err)
		return
	}

	// Also issue an encrypted cookie so browser sessions survive without
	// localStorage token juggling.
	encryptedToken, err := s.cookie.Encode(internal.COOKIE_ACCESS_TOKEN_NAME, accessToken)
	if err != nil {
		s.logger.WithError(err).Error("failed to encrypt access token cookie")
	} else {
		http.SetCookie(w, &http.Cookie{
			Name:     internal.COOKIE_ACCESS_TOKEN_NAME,
			Value:    encryptedToken,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int(s.config.TokenTTLMin) * 60,
			Path:     "/",
		})
	}

	if user.Role == types.RoleAdmin {
		identity := Identity{UserID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role}
		s.recordAudit(r.Context(), identity, types.AuditTargetUser, user.ID, types.LoginDetail{
			Email: user.Email,
			IP:    clientIP(r),
		})
	}

	s.respondJSON(w, http.StatusOK, loginResponse{
		Token:          accessToken,
		AccessToken:    accessToken,
		TokenType:      "Bearer",
		ID:             user.ID,
		Email:          user.Email,
		Name:           user.Name,
		Role:           string(user.Role),
		RegisterNumber: user.RegisterNumber,
	})
}

type registerRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	RegisterNumber string `json:"register_number"`
}

func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "malformed request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Name == "" || req.Email == "" {
		s.respondError(w, fmt.Errorf("name and email are required: %w", types.ErrValidation))
		return
	}

	if len(req.Password) < 8 {
		s.respondError(w, fmt.Errorf("password must be at least 8 characters: %w", types.ErrValidation))
		return
	}

	if _, err := s.users.UserByEmail(r.Context(), req.Email); err == nil {
		s.respondError(w, fmt.Errorf("an account with that email already exists: %w", types.ErrConflict))
		return
	} else if !errors.Is(err, types.ErrUserNotFound) {
		s.logger.WithError(err).Error("failed to check for existing user")
		s.respondError(w, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.WithError(err).Error("failed to hash password")
		s.respondError(w, err)
		return
	}

	user := &types.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         types.RoleUser,
	}
	if req.RegisterNumber != "" {
		user.RegisterNumber = &req.RegisterNumber
	}

	if err := s.users.CreateUser(r.Context(), user); err != nil {
		s.logger.WithError(err).Error("failed to create user")
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, user.Public())
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
