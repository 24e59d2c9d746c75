package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vicbox/starterkit/internal/models"
	pkghttp "github.com/vicbox/starterkit/pkg/http"
)

// LoginActivityService defines the read side of the login activity analyzer
type LoginActivityService interface {
	GetUserLoginHistory(ctx context.Context, userID string, page, limit int) (*models.LoginHistory, error)
	GetRecentLoginActivity(ctx context.Context, userID string, limit int) ([]*models.RecentLoginActivity, error)
	GetUserLoginStats(ctx context.Context, userID string, daysBack int) (*models.LoginStats, error)
	GetFailedLoginAttempts(ctx context.Context, userID string, hoursBack int) ([]*models.UserLogin, error)
	GetUserDevices(ctx context.Context, userID string) ([]models.DeviceUsage, error)
	CheckSuspiciousActivity(ctx context.Context, userID string, hoursBack int) (*models.SuspiciousActivity, error)
}

// LoginActivityHandler exposes an account's login activity to its owner.
// Every response uses the action envelope.
type LoginActivityHandler struct {
	service LoginActivityService
}

func NewLoginActivityHandler(service LoginActivityService) *LoginActivityHandler {
	return &LoginActivityHandler{service: service}
}

// RegisterRoutes mounts the login activity routes under /users/{id}
func (h *LoginActivityHandler) RegisterRoutes(router chi.Router) {
	router.Route("/users/{id}", func(r chi.Router) {
		r.Get("/logins", h.History)
		r.Get("/logins/recent", h.Recent)
		r.Get("/logins/stats", h.Stats)
		r.Get("/logins/failed", h.Failed)
		r.Get("/logins/suspicious", h.Suspicious)
		r.Get("/devices", h.Devices)
	})
}

// History returns one page of login records
//
// @Summary Login history
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param page query int false "Page number (1-based)"
// @Param limit query int false "Page size"
// @Produce json
// @Success 200 {object} pkghttp.ActionResponse[models.LoginHistory]
// @Failure 403 {object} pkghttp.ActionResponse[any]
// @Router /users/{id}/logins [get]
func (h *LoginActivityHandler) History(w http.ResponseWriter, r *http.Request) {
	page, ok := intQuery(w, r, "page")
	if !ok {
		return
	}
	limit, ok := intQuery(w, r, "limit")
	if !ok {
		return
	}

	history, err := h.service.GetUserLoginHistory(r.Context(), chi.URLParam(r, "id"), page, limit)
	if err != nil {
		writeActionError(w, err)
		return
	}
	pkghttp.WriteActionSuccess(w, history)
}

// Recent returns the flattened recent activity projection
//
// @Router /users/{id}/logins/recent [get]
func (h *LoginActivityHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, ok := intQuery(w, r, "limit")
	if !ok {
		return
	}

	activity, err := h.service.GetRecentLoginActivity(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeActionError(w, err)
		return
	}
	pkghttp.WriteActionSuccess(w, activity)
}

// Stats returns aggregate counters for the trailing window
//
// @Router /users/{id}/logins/stats [get]
func (h *LoginActivityHandler) Stats(w http.ResponseWriter, r *http.Request) {
	days, ok := intQuery(w, r, "days")
	if !ok {
		return
	}

	stats, err := h.service.GetUserLoginStats(r.Context(), chi.URLParam(r, "id"), days)
	if err != nil {
		writeActionError(w, err)
		return
	}
	pkghttp.WriteActionSuccess(w, stats)
}

// Failed returns failed, blocked and suspicious attempts
//
// @Router /users/{id}/logins/failed [get]
func (h *LoginActivityHandler) Failed(w http.ResponseWriter, r *http.Request) {
	hours, ok := intQuery(w, r, "hours")
	if !ok {
		return
	}

	logins, err := h.service.GetFailedLoginAttempts(r.Context(), chi.URLParam(r, "id"), hours)
	if err != nil {
		writeActionError(w, err)
		return
	}
	pkghttp.WriteActionSuccess(w, logins)
}

// Suspicious runs the suspicious activity check
//
// @Router /users/{id}/logins/suspicious [get]
func (h *LoginActivityHandler) Suspicious(w http.ResponseWriter, r *http.Request) {
	hours, ok := intQuery(w, r, "hours")
	if !ok {
		return
	}

	result, err := h.service.CheckSuspiciousActivity(r.Context(), chi.URLParam(r, "id"), hours)
	if err != nil {
		writeActionError(w, err)
		return
	}
	pkghttp.WriteActionSuccess(w, result)
}

// Devices lists the browser and OS pairs used to sign in
//
// @Router /users/{id}/devices [get]
func (h *LoginActivityHandler) Devices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.service.GetUserDevices(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeActionError(w, err)
		return
	}
	pkghttp.WriteActionSuccess(w, devices)
}

// intQuery reads an optional integer query parameter. A missing value is 0 so
// the service applies its default; a malformed one is answered with 400.
func intQuery(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		pkghttp.WriteActionFailure(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s", name))
		return 0, false
	}
	return n, true
}

func writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteActionFailure(w, http.StatusForbidden, "Unauthorized")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteActionFailure(w, http.StatusBadRequest, err.Error())
	default:
		pkghttp.WriteActionFailure(w, http.StatusInternalServerError, "Internal server error")
	}
}
