// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/olegiv/wpautoblog/internal/handler"
	"github.com/olegiv/wpautoblog/internal/store"
	"github.com/olegiv/wpautoblog/internal/util"
)

const (
	maxUserNameLength = 200
	maxCreditGrant    = 1_000_000
)

// UserResponse is an account as returned by the API.
type UserResponse struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Plan       string     `json:"plan,omitempty"`
	Credits    int64      `json:"credits"`
	IsDemo     bool       `json:"is_demo"`
	LastPostAt *time.Time `json:"last_post_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func userToResponse(u store.User, planNames map[int64]string) UserResponse {
	resp := UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Credits:    u.Credits,
		IsDemo:     u.IsDemo,
		LastPostAt: util.TimePtr(u.LastPostAt),
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
	if u.PlanID.Valid {
		resp.Plan = planNames[u.PlanID.Int64]
	}
	return resp
}

// CreateUserRequest represents the request body for creating an account.
type CreateUserRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Plan    string `json:"plan,omitempty"`
	Credits int64  `json:"credits,omitempty"`
	Demo    bool   `json:"demo,omitempty"`
}

// SetPlanRequest represents the request body for changing a plan.
type SetPlanRequest struct {
	Plan string `json:"plan"`
}

// AddCreditsRequest represents the request body for granting credits.
type AddCreditsRequest struct {
	Amount int64 `json:"amount"`
}

// ListUsers handles GET /api/v1/users?limit=&offset=.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := handler.ParseIntParam(r, "limit", 50, 1, 500)
	offset := max(handler.ParseIntParam(r, "offset", 0, 0, 0), 0)

	users, err := h.queries.ListUsers(ctx, store.ListUsersParams{Limit: int64(limit), Offset: int64(offset)})
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		WriteInternalError(w, "Failed to list users")
		return
	}
	total, err := h.queries.CountUsers(ctx)
	if err != nil {
		h.logger.Error("failed to count users", "error", err)
		WriteInternalError(w, "Failed to list users")
		return
	}
	planNames, err := h.planNames(ctx)
	if err != nil {
		h.logger.Error("failed to list plans", "error", err)
		WriteInternalError(w, "Failed to list users")
		return
	}

	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = userToResponse(u, planNames)
	}
	WriteSuccess(w, resp, &Meta{Total: total, Limit: limit})
}

// GetUser handles GET /api/v1/users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	h.writeUser(w, r, user, http.StatusOK)
}

// CreateUser handles POST /api/v1/users. The plan defaults to trial.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	errs := make(map[string]string)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		errs["email"] = "Email is required"
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs["email"] = "Invalid email format"
	}
	name := strings.TrimSpace(req.Name)
	if utf8.RuneCountInString(name) > maxUserNameLength {
		errs["name"] = "Name is too long"
	}
	if req.Credits < 0 || req.Credits > maxCreditGrant {
		errs["credits"] = "Credits must be between 0 and 1000000"
	}

	planName := strings.TrimSpace(req.Plan)
	if planName == "" {
		planName = store.PlanTrial
	}
	plan, err := h.queries.GetPlanByName(ctx, planName)
	if errors.Is(err, sql.ErrNoRows) {
		errs["plan"] = "Unknown plan"
	} else if err != nil {
		h.logger.Error("failed to load plan", "error", err, "plan", planName)
		WriteInternalError(w, "Failed to load plan")
		return
	}
	if len(errs) > 0 {
		WriteValidationError(w, errs)
		return
	}

	if _, err := h.queries.GetUserByEmail(ctx, email); err == nil {
		WriteConflict(w, "email_taken", "A user with this email already exists")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		h.logger.Error("failed to check email", "error", err)
		WriteInternalError(w, "Failed to create user")
		return
	}

	now := time.Now().UTC()
	user, err := h.queries.CreateUser(ctx, store.CreateUserParams{
		Email:     email,
		Name:      name,
		PlanID:    util.NullInt64FromValue(plan.ID),
		Credits:   req.Credits,
		IsDemo:    req.Demo,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			WriteConflict(w, "email_taken", "A user with this email already exists")
			return
		}
		h.logger.Error("failed to create user", "error", err)
		WriteInternalError(w, "Failed to create user")
		return
	}

	h.logger.Info("user created", "user_id", user.ID, "plan", plan.Name, "demo", user.IsDemo)
	h.writeUser(w, r, user, http.StatusCreated)
}

// SetUserPlan handles PUT /api/v1/users/{id}/plan. The new limits apply from
// the next scheduler pass; connected sites above the limit are kept.
func (h *Handler) SetUserPlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := parseUserID(w, r)
	if !ok {
		return
	}
	var req SetPlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	plan, err := h.queries.GetPlanByName(ctx, strings.TrimSpace(req.Plan))
	if errors.Is(err, sql.ErrNoRows) {
		WriteValidationError(w, map[string]string{"plan": "Unknown plan"})
		return
	}
	if err != nil {
		h.logger.Error("failed to load plan", "error", err, "plan", req.Plan)
		WriteInternalError(w, "Failed to load plan")
		return
	}

	n, err := h.queries.SetUserPlan(ctx, store.SetUserPlanParams{
		PlanID:    util.NullInt64FromValue(plan.ID),
		UpdatedAt: time.Now().UTC(),
		ID:        id,
	})
	if err != nil {
		h.logger.Error("failed to set plan", "error", err, "user_id", id)
		WriteInternalError(w, "Failed to set plan")
		return
	}
	if n == 0 {
		WriteNotFound(w, "User not found")
		return
	}

	h.logger.Info("user plan changed", "user_id", id, "plan", plan.Name)
	h.reloadUser(w, r, id)
}

// AddUserCredits handles POST /api/v1/users/{id}/credits.
func (h *Handler) AddUserCredits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := parseUserID(w, r)
	if !ok {
		return
	}
	var req AddCreditsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Amount <= 0 || req.Amount > maxCreditGrant {
		WriteValidationError(w, map[string]string{"amount": "Amount must be between 1 and 1000000"})
		return
	}

	n, err := h.queries.AddUserCredits(ctx, store.AddUserCreditsParams{
		Credits:   req.Amount,
		UpdatedAt: time.Now().UTC(),
		ID:        id,
	})
	if err != nil {
		h.logger.Error("failed to add credits", "error", err, "user_id", id)
		WriteInternalError(w, "Failed to add credits")
		return
	}
	if n == 0 {
		WriteNotFound(w, "User not found")
		return
	}

	h.logger.Info("credits granted", "user_id", id, "amount", req.Amount)
	h.reloadUser(w, r, id)
}

func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (store.User, bool) {
	return requireEntityByID(w, r, "user", func(id int64) (store.User, error) {
		return h.queries.GetUser(r.Context(), id)
	})
}

func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := handler.ParseIDParam(r)
	if err != nil || id <= 0 {
		WriteBadRequest(w, "Invalid user ID", nil)
		return 0, false
	}
	return id, true
}

func (h *Handler) reloadUser(w http.ResponseWriter, r *http.Request, id int64) {
	user, err := h.queries.GetUser(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to reload user", "error", err, "user_id", id)
		WriteInternalError(w, "Failed to retrieve user")
		return
	}
	h.writeUser(w, r, user, http.StatusOK)
}

func (h *Handler) writeUser(w http.ResponseWriter, r *http.Request, user store.User, status int) {
	planNames, err := h.planNames(r.Context())
	if err != nil {
		h.logger.Error("failed to list plans", "error", err)
		WriteInternalError(w, "Failed to retrieve user")
		return
	}
	WriteJSON(w, status, Response{Data: userToResponse(user, planNames)})
}

func (h *Handler) planNames(ctx context.Context) (map[int64]string, error) {
	plans, err := h.queries.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(plans))
	for _, p := range plans {
		names[p.ID] = p.Name
	}
	return names, nil
}
