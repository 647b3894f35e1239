// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST API for managing blogs, their content queue
// and the publishing scheduler.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/wpautoblog/internal/content"
	"github.com/olegiv/wpautoblog/internal/entitlement"
	"github.com/olegiv/wpautoblog/internal/handler"
	"github.com/olegiv/wpautoblog/internal/scheduler"
	"github.com/olegiv/wpautoblog/internal/store"
	"github.com/olegiv/wpautoblog/internal/wordpress"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// CredentialSealer encrypts and decrypts stored site passwords.
type CredentialSealer interface {
	Seal(plaintext string) (string, error)
	Open(value string) (string, error)
}

// SiteTester checks WordPress credentials.
type SiteTester interface {
	TestConnection(ctx context.Context, creds wordpress.Credentials) (*wordpress.User, error)
}

// JobRegistry is the scheduler surface exposed over the API.
type JobRegistry interface {
	List() []scheduler.JobInfo
	TriggerNow(source, name string) error
	UpdateSchedule(source, name, schedule string) error
	ResetSchedule(source, name string) error
}

// EventLister reads the event log.
type EventLister interface {
	ListRecent(ctx context.Context, limit int) ([]store.Event, error)
}

// Deps holds the collaborators of the API handlers.
type Deps struct {
	DB        *sql.DB
	Sealer    CredentialSealer
	Content   *content.Service
	Sites     SiteTester
	Jobs      JobRegistry
	Events    EventLister
	Resolver  entitlement.Resolver
	Logger    *slog.Logger
	Defaults  BlogDefaults
	Validator SiteURLValidator
}

// SiteURLValidator normalizes and checks a site URL at blog setup.
type SiteURLValidator func(ctx context.Context, raw string) (string, error)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db           *sql.DB
	queries      *store.Queries
	sealer       CredentialSealer
	content      *content.Service
	sites        SiteTester
	jobs         JobRegistry
	events       EventLister
	resolver     entitlement.Resolver
	logger       *slog.Logger
	defaults     BlogDefaults
	validateSite SiteURLValidator
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	resolver := deps.Resolver
	if resolver == nil {
		resolver = entitlement.NewStoreResolver(deps.DB)
	}
	validate := deps.Validator
	if validate == nil {
		validate = func(ctx context.Context, raw string) (string, error) {
			return wordpress.ValidateSiteURL(ctx, raw, false)
		}
	}
	return &Handler{
		db:           deps.DB,
		queries:      store.New(deps.DB),
		sealer:       deps.Sealer,
		content:      deps.Content,
		sites:        deps.Sites,
		jobs:         deps.Jobs,
		events:       deps.Events,
		resolver:     resolver,
		logger:       logger,
		defaults:     deps.Defaults.withFallbacks(),
		validateSite: validate,
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains list metadata.
type Meta struct {
	Total int64 `json:"total,omitempty"`
	Limit int   `json:"limit,omitempty"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteForbidden writes a 403 Forbidden response.
func WriteForbidden(w http.ResponseWriter, code, message string) {
	WriteError(w, http.StatusForbidden, code, message, nil)
}

// WriteConflict writes a 409 Conflict response.
func WriteConflict(w http.ResponseWriter, code, message string) {
	WriteError(w, http.StatusConflict, code, message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}

// StatusResponse contains API status information.
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Status returns the API status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, StatusResponse{Status: "ok", Version: "v1"}, nil)
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst unchanged.
// It writes the error response and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		WriteBadRequest(w, "Invalid JSON body: "+err.Error(), nil)
		return false
	}
	return true
}

// EntityFetcher is a function that fetches an entity by ID.
type EntityFetcher[T any] func(id int64) (T, error)

// requireEntityByID parses an ID from the URL and fetches the entity.
// Returns the entity and true if successful, or zero value and false if error (response written).
func requireEntityByID[T any](w http.ResponseWriter, r *http.Request, entityName string, fetch EntityFetcher[T]) (T, bool) {
	var zero T

	id, err := handler.ParseIDParam(r)
	if err != nil || id <= 0 {
		WriteBadRequest(w, "Invalid "+entityName+" ID", nil)
		return zero, false
	}

	entity, err := fetch(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, content.ErrNotFound) {
			WriteNotFound(w, capitalizeFirst(entityName)+" not found")
		} else {
			WriteInternalError(w, "Failed to retrieve "+entityName)
		}
		return zero, false
	}

	return entity, true
}

// capitalizeFirst returns s with the first letter capitalized.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
