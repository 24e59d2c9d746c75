package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vicbox/starterkit/internal/datatable"
	"github.com/vicbox/starterkit/internal/metrics"
	"github.com/vicbox/starterkit/internal/models"
	pkghttp "github.com/vicbox/starterkit/pkg/http"
)

// ProjectService defines the interface for project business logic. Every
// method acts on the projects of the calling account.
type ProjectService interface {
	ListProjects(ctx context.Context) ([]*models.Project, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	CreateProject(ctx context.Context, input models.ProjectInput) (*models.Project, error)
	UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error)
	DeleteProject(ctx context.Context, id string) error
	BulkDeleteProjects(ctx context.Context, ids []string) (int64, error)
}

// ProjectHandler handles project HTTP requests
type ProjectHandler struct {
	service ProjectService
	now     func() time.Time
}

func NewProjectHandler(service ProjectService) *ProjectHandler {
	return &ProjectHandler{
		service: service,
		now:     time.Now,
	}
}

// Request/Response DTOs

type CreateProjectRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Visibility  string `json:"visibility" validate:"required,oneof=private public"`
	Status      string `json:"status" validate:"required,oneof=active inactive completed canceled archived"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Visibility  *string `json:"visibility" validate:"omitempty,oneof=private public"`
	Status      *string `json:"status" validate:"omitempty,oneof=active inactive completed canceled archived"`
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,uuid"`
}

type BulkDeleteResponse struct {
	Deleted int64  `json:"deleted"`
	Message string `json:"message"`
}

// ColumnResponse describes one visible column of the project listing
type ColumnResponse struct {
	ID       string `json:"id"`
	Header   string `json:"header"`
	Sortable bool   `json:"sortable"`
	Hideable bool   `json:"hideable"`
	Sort     string `json:"sort,omitempty"`
	Pinned   string `json:"pinned,omitempty"`
}

// ProjectListResponse is one page of the project browser plus the state the
// client needs to render the toolbar and pagination controls
type ProjectListResponse struct {
	Rows      []*models.Project      `json:"rows"`
	RowCount  int                    `json:"row_count"`
	PageIndex int                    `json:"page_index"`
	PageSize  int                    `json:"page_size"`
	PageCount int                    `json:"page_count"`
	From      int                    `json:"from"`
	To        int                    `json:"to"`
	Columns   []ColumnResponse       `json:"columns"`
	Sorting   []datatable.ColumnSort `json:"sorting"`
	Toolbar   datatable.Toolbar      `json:"toolbar"`
}

// RegisterRoutes registers all project routes with the chi router
func (h *ProjectHandler) RegisterRoutes(router chi.Router) {
	router.Route("/projects", func(r chi.Router) {
		r.Get("/", h.ListProjects)
		r.Post("/", h.CreateProject)
		r.Get("/export", h.ExportProjects)
		r.Post("/bulk-delete", h.BulkDeleteProjects)
		r.Get("/{id}", h.GetProject)
		r.Put("/{id}", h.UpdateProject)
		r.Delete("/{id}", h.DeleteProject)
	})
}

// loadTable builds the project browser over the caller's projects with the
// request's filters, sorting and pagination applied
func (h *ProjectHandler) loadTable(w http.ResponseWriter, r *http.Request, onDelete datatable.DeleteFunc, notifier datatable.Notifier) (*datatable.Table[*models.Project], bool) {
	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}

	table, err := newProjectTable(projects, onDelete, notifier)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return nil, false
	}

	if err := applyProjectQuery(table, r.URL.Query()); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return nil, false
	}
	return table, true
}

// ListProjects returns one page of the caller's projects
//
// @Summary List projects
// @Security BearerAuth
// @Param q query string false "Name contains"
// @Param status query string false "Comma-separated statuses"
// @Param visibility query string false "Comma-separated visibilities"
// @Param sort query string false "Sort expression, e.g. name,-created_at"
// @Param page query int false "Page number (1-based)"
// @Param page_size query int false "Rows per page"
// @Produce json
// @Success 200 {object} ProjectListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /projects [get]
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	table, ok := h.loadTable(w, r, nil, nil)
	if !ok {
		return
	}

	state := table.State()
	from, to := table.PageRange()
	resp := ProjectListResponse{
		Rows:      table.Rows(),
		RowCount:  table.RowCount(),
		PageIndex: state.Pagination.PageIndex,
		PageSize:  state.Pagination.PageSize,
		PageCount: table.PageCount(),
		From:      from,
		To:        to,
		Sorting:   state.Sorting,
		Toolbar:   table.Toolbar(),
	}
	for _, col := range table.VisibleColumns() {
		c := ColumnResponse{
			ID:       col.ID,
			Header:   col.HeaderLabel(),
			Sortable: col.CanSort(),
			Hideable: col.CanHide(),
			Pinned:   string(table.ColumnPinPosition(col.ID)),
		}
		if desc, sorted := table.SortDirection(col.ID); sorted {
			c.Sort = "asc"
			if desc {
				c.Sort = "desc"
			}
		}
		resp.Columns = append(resp.Columns, c)
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// ExportProjects downloads every filtered and sorted project as CSV or XLSX
//
// @Summary Export projects
// @Security BearerAuth
// @Param format query string false "csv (default) or xlsx"
// @Produce text/csv
// @Router /projects/export [get]
func (h *ProjectHandler) ExportProjects(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		pkghttp.WriteBadRequest(w, "format must be one of: csv xlsx")
		return
	}

	notifications := &datatable.Recorder{}
	table, ok := h.loadTable(w, r, nil, notifications)
	if !ok {
		return
	}

	var export *datatable.Export
	var err error
	if format == "xlsx" {
		export, err = table.ExportXLSX(h.now())
	} else {
		export, err = table.ExportCSV(h.now())
	}
	if err != nil {
		message := "Export failed"
		if last, ok := notifications.Last(); ok {
			message = last.Message
		}
		if errors.Is(err, datatable.ErrNoRows) {
			pkghttp.WriteNotFound(w, message)
			return
		}
		pkghttp.WriteInternalError(w, message)
		return
	}
	metrics.ExportsTotal.WithLabelValues(format).Inc()

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.Header().Set("X-Export-Count", strconv.Itoa(export.RowCount))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Data)
}

// GetProject returns a single project
//
// @Router /projects/{id} [get]
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.service.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Project not found")
			return
		}
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, project)
}

// CreateProject creates a project owned by the caller
//
// @Summary Create project
// @Security BearerAuth
// @Accept json
// @Param request body CreateProjectRequest true "Project"
// @Produce json
// @Success 201 {object} models.Project
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /projects [post]
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	project, err := h.service.CreateProject(r.Context(), models.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Visibility:  req.Visibility,
		Status:      req.Status,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			pkghttp.WriteConflict(w, "A project with this name already exists")
			return
		}
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, project)
}

// UpdateProject applies a partial update
//
// @Router /projects/{id} [put]
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var req UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	project, err := h.service.UpdateProject(r.Context(), chi.URLParam(r, "id"), models.ProjectPatch{
		Name:        req.Name,
		Description: req.Description,
		Visibility:  req.Visibility,
		Status:      req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Project not found")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "A project with this name already exists")
		default:
			writeServiceError(w, err)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, project)
}

// DeleteProject deletes a single project
//
// @Router /projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Project not found")
			return
		}
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BulkDeleteProjects selects the given projects in the browser and confirms
// their deletion as one all-or-nothing operation
//
// @Summary Delete several projects
// @Security BearerAuth
// @Accept json
// @Param request body BulkDeleteRequest true "Project ids"
// @Produce json
// @Success 200 {object} BulkDeleteResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /projects/bulk-delete [post]
func (h *ProjectHandler) BulkDeleteProjects(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var deleted int64
	onDelete := func(ctx context.Context, ids []string) error {
		n, err := h.service.BulkDeleteProjects(ctx, ids)
		deleted = n
		return err
	}

	notifications := &datatable.Recorder{}
	table, err := newProjectTable(projects, onDelete, notifications)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	for _, id := range req.IDs {
		if !table.ToggleRowSelected(strings.ToLower(strings.TrimSpace(id)), true) {
			pkghttp.WriteNotFound(w, "Project not found")
			return
		}
	}

	if err := table.ConfirmDelete(r.Context()); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Project not found")
			return
		}
		writeServiceError(w, err)
		return
	}

	resp := BulkDeleteResponse{Deleted: deleted}
	if last, ok := notifications.Last(); ok {
		resp.Message = last.Message
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}
