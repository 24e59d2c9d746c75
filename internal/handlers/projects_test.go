package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vicbox/starterkit/internal/handlers"
	"github.com/vicbox/starterkit/internal/models"
	pkghttp "github.com/vicbox/starterkit/pkg/http"
	"github.com/xuri/excelize/v2"
)

const testDescription = "a project description long enough"

func testProject(name string, status models.ProjectStatus, visibility models.Visibility, createdAt time.Time) *models.Project {
	description := testDescription
	return &models.Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: &description,
		OwnerID:     "owner-1",
		Status:      status,
		Visibility:  visibility,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

// testProjects returns n projects named project-01.. with alternating status
// and visibility, created one day apart starting 2024-01-01
func testProjects(n int) []*models.Project {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	projects := make([]*models.Project, n)
	for i := range projects {
		status := models.ProjectStatusActive
		visibility := models.VisibilityPrivate
		if i%2 == 1 {
			status = models.ProjectStatusArchived
			visibility = models.VisibilityPublic
		}
		projects[i] = testProject(fmt.Sprintf("project-%02d", i+1), status, visibility, base.AddDate(0, 0, i))
	}
	return projects
}

func newProjectRouter(service handlers.ProjectService) http.Handler {
	r := chi.NewRouter()
	handlers.NewProjectHandler(service).RegisterRoutes(r)
	return r
}

func serve(t *testing.T, h http.Handler, method, url string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = handlers.NewTestRequest(t, method, url, body)
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func listing(projects []*models.Project) *handlers.MockProjectService {
	return &handlers.MockProjectService{
		ListProjectsFunc: func(ctx context.Context) ([]*models.Project, error) {
			return projects, nil
		},
	}
}

func names(rows []*models.Project) []string {
	out := make([]string, len(rows))
	for i, p := range rows {
		out[i] = p.Name
	}
	return out
}

func TestListProjects_FirstPage(t *testing.T) {
	w := serve(t, newProjectRouter(listing(testProjects(12))), http.MethodGet, "/projects", nil)

	var resp handlers.ProjectListResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)

	assert.Len(t, resp.Rows, 10)
	assert.Equal(t, 12, resp.RowCount)
	assert.Equal(t, 0, resp.PageIndex)
	assert.Equal(t, 10, resp.PageSize)
	assert.Equal(t, 2, resp.PageCount)
	assert.Equal(t, 1, resp.From)
	assert.Equal(t, 10, resp.To)

	ids := make([]string, len(resp.Columns))
	for i, c := range resp.Columns {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"select", "name", "description", "status", "visibility", "created_at", "actions"}, ids)
	assert.False(t, resp.Columns[0].Sortable)
	assert.True(t, resp.Columns[1].Sortable)

	assert.True(t, resp.Toolbar.ShowFilters)
	assert.False(t, resp.Toolbar.ShowReset)
	assert.False(t, resp.Toolbar.ShowDelete)
	assert.False(t, resp.Toolbar.ExportDisabled)
	assert.Equal(t, 12, resp.Toolbar.ExportCount)
	require.Len(t, resp.Toolbar.Facets, 2)
	assert.Equal(t, "status", resp.Toolbar.Facets[0].ColumnID)
	assert.Len(t, resp.Toolbar.Facets[0].Options, len(models.ProjectStatuses))
	assert.Equal(t, 6, resp.Toolbar.Facets[0].Counts["active"])
	assert.Equal(t, 6, resp.Toolbar.Facets[0].Counts["archived"])
}

func TestListProjects_SecondPage(t *testing.T) {
	w := serve(t, newProjectRouter(listing(testProjects(12))), http.MethodGet, "/projects?page=2", nil)

	var resp handlers.ProjectListResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, []string{"project-11", "project-12"}, names(resp.Rows))
	assert.Equal(t, 11, resp.From)
	assert.Equal(t, 12, resp.To)
}

func TestListProjects_FilterAndSort(t *testing.T) {
	projects := []*models.Project{
		testProject("alpha", models.ProjectStatusActive, models.VisibilityPrivate, time.Now()),
		testProject("palace", models.ProjectStatusCompleted, models.VisibilityPublic, time.Now()),
		testProject("beta", models.ProjectStatusActive, models.VisibilityPublic, time.Now()),
		testProject("salt", models.ProjectStatusCanceled, models.VisibilityPrivate, time.Now()),
	}
	router := newProjectRouter(listing(projects))

	t.Run("name contains, descending", func(t *testing.T) {
		w := serve(t, router, http.MethodGet, "/projects?q=AL&sort=-name", nil)

		var resp handlers.ProjectListResponse
		handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
		assert.Equal(t, []string{"salt", "palace", "alpha"}, names(resp.Rows))
		assert.True(t, resp.Toolbar.ShowReset)
		assert.Equal(t, "AL", resp.Toolbar.FilterValue)

		for _, c := range resp.Columns {
			if c.ID == "name" {
				assert.Equal(t, "desc", c.Sort)
			}
		}
	})

	t.Run("status facet set", func(t *testing.T) {
		w := serve(t, router, http.MethodGet, "/projects?status=completed,canceled&sort=name", nil)

		var resp handlers.ProjectListResponse
		handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
		assert.Equal(t, []string{"palace", "salt"}, names(resp.Rows))
		assert.Equal(t, []string{"completed", "canceled"}, resp.Toolbar.Facets[0].Selected)
		// counts of a facet ignore its own filter
		assert.Equal(t, 2, resp.Toolbar.Facets[0].Counts["active"])
	})

	t.Run("visibility facet", func(t *testing.T) {
		w := serve(t, router, http.MethodGet, "/projects?visibility=public&sort=name", nil)

		var resp handlers.ProjectListResponse
		handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
		assert.Equal(t, []string{"beta", "palace"}, names(resp.Rows))
	})

	t.Run("hidden column", func(t *testing.T) {
		w := serve(t, router, http.MethodGet, "/projects?hide=description", nil)

		var resp handlers.ProjectListResponse
		handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
		for _, c := range resp.Columns {
			assert.NotEqual(t, "description", c.ID)
		}
	})

	t.Run("pinned columns", func(t *testing.T) {
		w := serve(t, router, http.MethodGet, "/projects?pin=right:select,left:status,left:name", nil)

		var resp handlers.ProjectListResponse
		handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)

		ids := make([]string, 0, len(resp.Columns))
		pinned := map[string]string{}
		for _, c := range resp.Columns {
			ids = append(ids, c.ID)
			pinned[c.ID] = c.Pinned
		}
		assert.Equal(t, []string{"status", "name", "description", "visibility", "created_at", "actions", "select"}, ids)
		assert.Equal(t, "left", pinned["status"])
		assert.Equal(t, "left", pinned["name"])
		assert.Equal(t, "right", pinned["select"])
		assert.Empty(t, pinned["description"])
	})
}

func TestListProjects_BadQuery(t *testing.T) {
	router := newProjectRouter(listing(testProjects(3)))

	for _, url := range []string{
		"/projects?sort=unknown",
		"/projects?sort=actions",
		"/projects?page=0",
		"/projects?page_size=ten",
		"/projects?hide=nope",
		"/projects?pin=top:name",
		"/projects?pin=name",
		"/projects?pin=left:nope",
	} {
		t.Run(url, func(t *testing.T) {
			w := serve(t, router, http.MethodGet, url, nil)
			handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
		})
	}
}

func TestListProjects_Unauthenticated(t *testing.T) {
	service := &handlers.MockProjectService{
		ListProjectsFunc: func(ctx context.Context) ([]*models.Project, error) {
			return nil, models.ErrUnauthorized
		},
	}

	w := serve(t, newProjectRouter(service), http.MethodGet, "/projects", nil)
	handlers.AssertErrorResponse(t, w, http.StatusUnauthorized, "unauthorized")
}

func TestExportProjects_CSV(t *testing.T) {
	projects := testProjects(12)
	w := serve(t, newProjectRouter(listing(projects)), http.MethodGet, "/projects/export?status=active&sort=-name", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Regexp(t, `^attachment; filename="projects_\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}\.csv"$`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "6", w.Header().Get("X-Export-Count"))

	body := w.Body.String()
	require.True(t, strings.HasPrefix(body, "\uFEFF"))
	lines := strings.Split(strings.TrimPrefix(body, "\uFEFF"), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "Name,Description,Status,Visibility,Created At", lines[0])
	assert.Equal(t, "project-11,"+testDescription+`,active,private,"11 Jan, 2024"`, lines[1])
}

func TestExportProjects_XLSX(t *testing.T) {
	w := serve(t, newProjectRouter(listing(testProjects(3))), http.MethodGet, "/projects/export?format=xlsx", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Name", "Description", "Status", "Visibility", "Created At"}, rows[0])
	assert.Equal(t, "project-01", rows[1][0])
	assert.Equal(t, "01 Jan, 2024", rows[1][4])
}

func TestExportProjects_NoRows(t *testing.T) {
	w := serve(t, newProjectRouter(listing(testProjects(3))), http.MethodGet, "/projects/export?q=nothing-matches", nil)

	var resp pkghttp.ErrorResponse
	require.Equal(t, http.StatusNotFound, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "There are no rows to export.", resp.Message)
}

func TestExportProjects_UnknownFormat(t *testing.T) {
	w := serve(t, newProjectRouter(listing(testProjects(3))), http.MethodGet, "/projects/export?format=pdf", nil)
	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
}

func TestCreateProject(t *testing.T) {
	valid := handlers.CreateProjectRequest{
		Name:        "New Project",
		Description: testDescription,
		Visibility:  "private",
		Status:      "active",
	}

	t.Run("created", func(t *testing.T) {
		var got models.ProjectInput
		service := &handlers.MockProjectService{
			CreateProjectFunc: func(ctx context.Context, input models.ProjectInput) (*models.Project, error) {
				got = input
				return testProject("new project", models.ProjectStatusActive, models.VisibilityPrivate, time.Now()), nil
			},
		}

		w := serve(t, newProjectRouter(service), http.MethodPost, "/projects", valid)

		var resp models.Project
		handlers.AssertJSONResponse(t, w, http.StatusCreated, &resp)
		assert.Equal(t, "new project", resp.Name)
		assert.Equal(t, "New Project", got.Name)
		assert.Equal(t, "private", got.Visibility)
	})

	t.Run("duplicate name", func(t *testing.T) {
		service := &handlers.MockProjectService{
			CreateProjectFunc: func(ctx context.Context, input models.ProjectInput) (*models.Project, error) {
				return nil, models.ErrConflict
			},
		}

		w := serve(t, newProjectRouter(service), http.MethodPost, "/projects", valid)
		handlers.AssertErrorResponse(t, w, http.StatusConflict, "conflict")
	})

	t.Run("invalid visibility", func(t *testing.T) {
		called := false
		service := &handlers.MockProjectService{
			CreateProjectFunc: func(ctx context.Context, input models.ProjectInput) (*models.Project, error) {
				called = true
				return nil, nil
			},
		}

		req := valid
		req.Visibility = "secret"
		w := serve(t, newProjectRouter(service), http.MethodPost, "/projects", req)

		handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
		assert.False(t, called)
	})

	t.Run("description too short", func(t *testing.T) {
		service := &handlers.MockProjectService{
			CreateProjectFunc: func(ctx context.Context, input models.ProjectInput) (*models.Project, error) {
				return nil, fmt.Errorf("%w: description too short", models.ErrBadRequest)
			},
		}

		req := valid
		req.Description = "short"
		w := serve(t, newProjectRouter(service), http.MethodPost, "/projects", req)

		handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
	})
}

func TestGetProject(t *testing.T) {
	project := testProject("alpha", models.ProjectStatusActive, models.VisibilityPrivate, time.Now())
	service := &handlers.MockProjectService{
		GetProjectFunc: func(ctx context.Context, id string) (*models.Project, error) {
			if id == project.ID {
				return project, nil
			}
			return nil, models.ErrNotFound
		},
	}
	router := newProjectRouter(service)

	t.Run("found", func(t *testing.T) {
		w := serve(t, router, http.MethodGet, "/projects/"+project.ID, nil)

		var resp models.Project
		handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
		assert.Equal(t, project.ID, resp.ID)
	})

	t.Run("not found", func(t *testing.T) {
		w := serve(t, router, http.MethodGet, "/projects/"+uuid.NewString(), nil)
		handlers.AssertErrorResponse(t, w, http.StatusNotFound, "not_found")
	})
}

func TestUpdateProject(t *testing.T) {
	t.Run("partial update", func(t *testing.T) {
		var got models.ProjectPatch
		service := &handlers.MockProjectService{
			UpdateProjectFunc: func(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
				got = patch
				return testProject("alpha", models.ProjectStatusArchived, models.VisibilityPrivate, time.Now()), nil
			},
		}

		w := serve(t, newProjectRouter(service), http.MethodPut, "/projects/"+uuid.NewString(), map[string]string{"status": "archived"})

		var resp models.Project
		handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
		assert.Equal(t, models.ProjectStatusArchived, resp.Status)
		require.NotNil(t, got.Status)
		assert.Equal(t, "archived", *got.Status)
		assert.Nil(t, got.Name)
	})

	t.Run("invalid status", func(t *testing.T) {
		w := serve(t, newProjectRouter(&handlers.MockProjectService{}), http.MethodPut, "/projects/"+uuid.NewString(), map[string]string{"status": "paused"})
		handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
	})

	t.Run("not found", func(t *testing.T) {
		w := serve(t, newProjectRouter(&handlers.MockProjectService{}), http.MethodPut, "/projects/"+uuid.NewString(), map[string]string{"name": "x"})
		handlers.AssertErrorResponse(t, w, http.StatusNotFound, "not_found")
	})
}

func TestDeleteProject(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		w := serve(t, newProjectRouter(&handlers.MockProjectService{}), http.MethodDelete, "/projects/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		service := &handlers.MockProjectService{
			DeleteProjectFunc: func(ctx context.Context, id string) error {
				return models.ErrNotFound
			},
		}

		w := serve(t, newProjectRouter(service), http.MethodDelete, "/projects/"+uuid.NewString(), nil)
		handlers.AssertErrorResponse(t, w, http.StatusNotFound, "not_found")
	})
}

func TestBulkDeleteProjects(t *testing.T) {
	t.Run("deletes selection in one call", func(t *testing.T) {
		projects := testProjects(3)
		var calls int
		var gotIDs []string
		service := listing(projects)
		service.BulkDeleteProjectsFunc = func(ctx context.Context, ids []string) (int64, error) {
			calls++
			gotIDs = ids
			return int64(len(ids)), nil
		}

		w := serve(t, newProjectRouter(service), http.MethodPost, "/projects/bulk-delete", handlers.BulkDeleteRequest{
			IDs: []string{strings.ToUpper(projects[2].ID), projects[0].ID},
		})

		var resp handlers.BulkDeleteResponse
		handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
		assert.Equal(t, int64(2), resp.Deleted)
		assert.Equal(t, "2 items deleted", resp.Message)
		assert.Equal(t, 1, calls)
		// selection is reported in collection order
		assert.Equal(t, []string{projects[0].ID, projects[2].ID}, gotIDs)
	})

	t.Run("single item message", func(t *testing.T) {
		projects := testProjects(2)
		w := serve(t, newProjectRouter(listing(projects)), http.MethodPost, "/projects/bulk-delete", handlers.BulkDeleteRequest{
			IDs: []string{projects[1].ID},
		})

		var resp handlers.BulkDeleteResponse
		handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
		assert.Equal(t, "1 item deleted", resp.Message)
	})

	t.Run("id not in caller's projects", func(t *testing.T) {
		called := false
		service := listing(testProjects(2))
		service.BulkDeleteProjectsFunc = func(ctx context.Context, ids []string) (int64, error) {
			called = true
			return 0, nil
		}

		w := serve(t, newProjectRouter(service), http.MethodPost, "/projects/bulk-delete", handlers.BulkDeleteRequest{
			IDs: []string{uuid.NewString()},
		})

		handlers.AssertErrorResponse(t, w, http.StatusNotFound, "not_found")
		assert.False(t, called)
	})

	t.Run("service rejects batch", func(t *testing.T) {
		projects := testProjects(2)
		service := listing(projects)
		service.BulkDeleteProjectsFunc = func(ctx context.Context, ids []string) (int64, error) {
			return 0, models.ErrNotFound
		}

		w := serve(t, newProjectRouter(service), http.MethodPost, "/projects/bulk-delete", handlers.BulkDeleteRequest{
			IDs: []string{projects[0].ID, projects[1].ID},
		})

		handlers.AssertErrorResponse(t, w, http.StatusNotFound, "not_found")
	})

	t.Run("invalid requests", func(t *testing.T) {
		router := newProjectRouter(listing(testProjects(1)))

		for name, body := range map[string]handlers.BulkDeleteRequest{
			"empty":     {IDs: []string{}},
			"malformed": {IDs: []string{"not-a-uuid"}},
		} {
			t.Run(name, func(t *testing.T) {
				w := serve(t, router, http.MethodPost, "/projects/bulk-delete", body)
				handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
			})
		}
	})
}
