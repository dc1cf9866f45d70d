package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	accountsdomain "github.com/pushpak01/pushtoys-render/internal/accounts/domain"
	"github.com/pushpak01/pushtoys-render/internal/accounts/repository"
	"github.com/pushpak01/pushtoys-render/internal/accounts/service"
)

// Accounts is the slice of the accounts service the HTTP layer uses.
type Accounts interface {
	Register(ctx context.Context, username, email, password string) (*accountsdomain.User, error)
	Authenticate(ctx context.Context, username, password string) (*accountsdomain.User, error)
	GetProfile(ctx context.Context, userID string) (*accountsdomain.User, error)
	UpdateProfile(ctx context.Context, userID, address, phone string) (*accountsdomain.User, error)
}

type AccountsHandler struct {
	accounts Accounts
	timeout  time.Duration
}

func NewAccountsHandler(accounts Accounts, timeout time.Duration) *AccountsHandler {
	return &AccountsHandler{
		accounts: accounts,
		timeout:  timeout,
	}
}

type RegisterRequestDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequestDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UpdateProfileRequestDTO struct {
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// POST /api/v1/accounts/register. A successful registration also logs the
// visitor in by binding the user to their session.
func (h *AccountsHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RegisterRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.accounts.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			respondError(w, http.StatusConflict, "duplicate_user", "username or email already taken")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_registration", err.Error())
		return
	}

	h.bindUserToSession(r, user.ID)
	respondJSON(w, http.StatusCreated, user)
}

// POST /api/v1/accounts/login
func (h *AccountsHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.accounts.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "login failed")
		return
	}

	h.bindUserToSession(r, user.ID)
	respondJSON(w, http.StatusOK, user)
}

// POST /api/v1/accounts/logout unbinds the user but keeps the session, so
// an anonymous cart survives the logout.
func (h *AccountsHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := getSessionFromContext(r.Context()); sess != nil {
		sess.Delete(userSessionKey)
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// GET /api/v1/accounts/profile
func (h *AccountsHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, err := h.accounts.GetProfile(ctx, getUserIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load profile")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// PUT /api/v1/accounts/profile
func (h *AccountsHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateProfileRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.accounts.UpdateProfile(ctx, getUserIDFromContext(r.Context()), req.Address, req.Phone)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update profile")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

func (h *AccountsHandler) bindUserToSession(r *http.Request, userID string) {
	if sess := getSessionFromContext(r.Context()); sess != nil {
		_ = sess.Set(userSessionKey, userID)
	}
}
