package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/vicbox/starterkit/internal/metrics"
	"github.com/vicbox/starterkit/internal/models"
	pkglogger "github.com/vicbox/starterkit/pkg/logger"
)

// ProjectRepository stores projects; every method is scoped to one owner
type ProjectRepository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Project, error)
	GetByID(ctx context.Context, ownerID, id string) (*models.Project, error)
	Create(ctx context.Context, p *models.Project) (*models.Project, error)
	Update(ctx context.Context, ownerID string, p *models.Project) (*models.Project, error)
	Delete(ctx context.Context, ownerID, id string) error
	DeleteMany(ctx context.Context, ownerID string, ids []string) (int64, error)
}

// ProjectService handles project business logic for the calling account
type ProjectService struct {
	repo        ProjectRepository
	identity    IdentityProvider
	validate    *validator.Validate
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewProjectService(repo ProjectRepository, identity IdentityProvider, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *ProjectService {
	return &ProjectService{
		repo:        repo,
		identity:    identity,
		validate:    validator.New(),
		logger:      logger,
		auditLogger: auditLogger,
	}
}

func (s *ProjectService) owner(ctx context.Context) (string, error) {
	identity, ok := s.identity.CurrentIdentity(ctx)
	if !ok {
		return "", models.ErrUnauthorized
	}
	return identity.UserID, nil
}

// ListProjects returns the caller's projects, newest first
func (s *ProjectService) ListProjects(ctx context.Context) ([]*models.Project, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}

	projects, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list projects", slog.String("owner_id", ownerID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return projects, nil
}

func (s *ProjectService) GetProject(ctx context.Context, id string) (*models.Project, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrNotFound
	}

	project, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, s.repoError("get project", id, err)
	}
	return project, nil
}

// CreateProject validates input and stores a project owned by the caller.
// The name is trimmed and lower-cased before validation.
func (s *ProjectService) CreateProject(ctx context.Context, input models.ProjectInput) (*models.Project, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}

	input.Name = normalizeProjectName(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrBadRequest, err)
	}

	description := input.Description
	project, err := s.repo.Create(ctx, &models.Project{
		Name:        input.Name,
		Description: &description,
		OwnerID:     ownerID,
		Visibility:  models.Visibility(input.Visibility),
		Status:      models.ProjectStatus(input.Status),
	})
	if err != nil {
		return nil, s.repoError("create project", "", err)
	}

	s.logger.Info("project created", slog.String("project_id", project.ID), slog.String("owner_id", ownerID))
	return project, nil
}

// UpdateProject applies the non-nil fields of patch
func (s *ProjectService) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
	if patch.Name != nil {
		name := normalizeProjectName(*patch.Name)
		patch.Name = &name
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", models.ErrBadRequest)
		}
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		patch.Description = &description
	}
	if err := s.validate.Struct(patch); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrBadRequest, err)
	}

	project, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		project.Name = *patch.Name
	}
	if patch.Description != nil {
		project.Description = patch.Description
	}
	if patch.Visibility != nil {
		project.Visibility = models.Visibility(*patch.Visibility)
	}
	if patch.Status != nil {
		project.Status = models.ProjectStatus(*patch.Status)
	}

	updated, err := s.repo.Update(ctx, project.OwnerID, project)
	if err != nil {
		return nil, s.repoError("update project", id, err)
	}
	return updated, nil
}

func (s *ProjectService) DeleteProject(ctx context.Context, id string) error {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrNotFound
	}

	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return s.repoError("delete project", id, err)
	}

	metrics.ProjectsDeletedTotal.Inc()
	s.auditLogger.LogAccountAction(ctx, pkglogger.EventProjectDelete, ownerID, map[string]string{"project_id": id})
	return nil
}

// BulkDeleteProjects deletes every id or none. Duplicate ids are collapsed;
// an empty list or a malformed id is a bad request and an id the caller
// does not own fails the whole batch with ErrNotFound.
func (s *ProjectService) BulkDeleteProjects(ctx context.Context, ids []string) (int64, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return 0, err
	}

	unique, err := normalizeIDs(ids)
	if err != nil {
		return 0, err
	}

	deleted, err := s.repo.DeleteMany(ctx, ownerID, unique)
	if err != nil {
		return 0, s.repoError("bulk delete projects", "", err)
	}

	metrics.ProjectsDeletedTotal.Add(float64(deleted))
	s.auditLogger.LogAccountAction(ctx, pkglogger.EventProjectsDelete, ownerID, map[string]string{
		"count": strconv.FormatInt(deleted, 10),
	})
	return deleted, nil
}

func normalizeIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no project ids provided", models.ErrBadRequest)
	}

	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		parsed, err := uuid.Parse(strings.TrimSpace(id))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid project id %q", models.ErrBadRequest, id)
		}
		key := parsed.String()
		if !seen[key] {
			seen[key] = true
			unique = append(unique, key)
		}
	}
	return unique, nil
}

func normalizeProjectName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// repoError passes through the sentinel errors callers act on and hides the rest
func (s *ProjectService) repoError(op, id string, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return models.ErrNotFound
	case errors.Is(err, models.ErrConflict):
		return models.ErrConflict
	case errors.Is(err, models.ErrBadRequest):
		return models.ErrBadRequest
	}
	s.logger.Error("failed to "+op, slog.String("project_id", id), slog.Any("error", err))
	return models.ErrInternalServer
}
