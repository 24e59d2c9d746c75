package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vicbox/starterkit/internal/database"
	"github.com/vicbox/starterkit/internal/models"
)

const projectColumns = `id, name, description, owner_id, visibility, status, created_at, updated_at`

// ProjectRepository handles database operations for projects. Every query is
// scoped to the owning account.
type ProjectRepository struct {
	db *database.DB
}

func NewProjectRepository(db *database.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func scanProject(scanner rowScanner) (*models.Project, error) {
	var p models.Project
	err := scanner.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.Visibility, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &p, nil
}

func (r *ProjectRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*models.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return projects, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1 AND owner_id = $2`
	return scanProject(r.db.Pool.QueryRow(ctx, query, id, ownerID))
}

func (r *ProjectRepository) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	p.ID = uuid.New().String()
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `INSERT INTO projects (` + projectColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Pool.Exec(ctx, query,
		p.ID, p.Name, p.Description, p.OwnerID, p.Visibility, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", database.MapPostgresError(err))
	}
	return p, nil
}

func (r *ProjectRepository) Update(ctx context.Context, ownerID string, p *models.Project) (*models.Project, error) {
	query := `
		UPDATE projects
		SET name = $3, description = $4, visibility = $5, status = $6, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + projectColumns

	return scanProject(r.db.Pool.QueryRow(ctx, query, p.ID, ownerID, p.Name, p.Description, p.Visibility, p.Status))
}

func (r *ProjectRepository) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM projects WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteMany removes all ids in one transaction. If any id is missing or owned
// by another account nothing is deleted and ErrNotFound is returned.
func (r *ProjectRepository) DeleteMany(ctx context.Context, ownerID string, ids []string) (int64, error) {
	var deleted int64
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM projects WHERE owner_id = $1 AND id = ANY($2::uuid[])`, ownerID, ids)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if tag.RowsAffected() != int64(len(ids)) {
			return models.ErrNotFound
		}
		deleted = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
