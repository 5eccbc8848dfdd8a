package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"soaforge/internal/domain"
	"soaforge/internal/domain/models"
	"soaforge/internal/domain/repositories"
)

// PostgresSectionRepository implements the SectionRepository interface.
// Content, sources and missing_fields are JSONB columns; they are
// marshalled here so the domain models stay free of database tags.
type PostgresSectionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewSectionRepository creates a new section repository
func NewSectionRepository(config *RepositoryConfig) repositories.SectionRepository {
	return &PostgresSectionRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts one section
func (r *PostgresSectionRepository) Create(ctx context.Context, section *models.Section) error {
	content, sources, missing, err := marshalSectionJSON(section)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, section_key, parent_key, title, content_type, content, sources, missing_fields, status, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, updated_at
	`, r.tables.Sections)

	executor := GetExecutor(ctx, r.pool)
	err = executor.QueryRow(ctx, query,
		section.ProjectID,
		section.SectionKey,
		section.ParentKey,
		section.Title,
		section.ContentType,
		content,
		sources,
		missing,
		section.Status,
		section.Version,
		section.UpdatedAt,
	).Scan(&section.ID, &section.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("section '%s' already exists in this project", section.SectionKey),
				ResourceType: "section",
				ResourceID:   section.SectionKey,
			}
		}
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("project %s: %w", section.ProjectID, domain.ErrNotFound)
		}
		return fmt.Errorf("create section: %w", err)
	}

	return nil
}

// ReplaceAll deletes every section for the project and inserts the given
// set. Callers run it inside TransactionManager.ExecTx so the delete and
// inserts commit together.
func (r *PostgresSectionRepository) ReplaceAll(ctx context.Context, projectID string, sections []models.Section) error {
	executor := GetExecutor(ctx, r.pool)

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE project_id = $1`, r.tables.Sections)
	if _, err := executor.Exec(ctx, deleteQuery, projectID); err != nil {
		return fmt.Errorf("clear sections: %w", err)
	}

	for i := range sections {
		if err := r.Create(ctx, &sections[i]); err != nil {
			return err
		}
	}

	return nil
}

// GetByKey retrieves a section by its key within a project
func (r *PostgresSectionRepository) GetByKey(ctx context.Context, projectID, sectionKey string) (*models.Section, error) {
	query := fmt.Sprintf(`
		SELECT id, project_id, section_key, parent_key, title, content_type, content, sources, missing_fields, status, version, updated_at
		FROM %s
		WHERE project_id = $1 AND section_key = $2
	`, r.tables.Sections)

	executor := GetExecutor(ctx, r.pool)
	row := executor.QueryRow(ctx, query, projectID, sectionKey)

	section, err := scanSection(row)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("section %s: %w", sectionKey, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get section: %w", err)
	}

	return section, nil
}

// ListByProject retrieves all sections for a project. Ordering is a
// service concern (section keys sort numerically, not lexicographically).
func (r *PostgresSectionRepository) ListByProject(ctx context.Context, projectID string) ([]models.Section, error) {
	query := fmt.Sprintf(`
		SELECT id, project_id, section_key, parent_key, title, content_type, content, sources, missing_fields, status, version, updated_at
		FROM %s
		WHERE project_id = $1
	`, r.tables.Sections)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	var sections []models.Section
	for rows.Next() {
		section, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, *section)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}

	if sections == nil {
		sections = []models.Section{}
	}

	return sections, nil
}

// Update persists title, content, sources, missing fields, status and version
func (r *PostgresSectionRepository) Update(ctx context.Context, section *models.Section) error {
	content, sources, missing, err := marshalSectionJSON(section)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, content = $2, sources = $3, missing_fields = $4, status = $5, version = $6, updated_at = NOW()
		WHERE project_id = $7 AND section_key = $8
		RETURNING updated_at
	`, r.tables.Sections)

	executor := GetExecutor(ctx, r.pool)
	err = executor.QueryRow(ctx, query,
		section.Title,
		content,
		sources,
		missing,
		section.Status,
		section.Version,
		section.ProjectID,
		section.SectionKey,
	).Scan(&section.UpdatedAt)

	if err != nil {
		if IsPgNoRowsError(err) {
			return fmt.Errorf("section %s: %w", section.SectionKey, domain.ErrNotFound)
		}
		return fmt.Errorf("update section: %w", err)
	}

	return nil
}

// DeleteByKeys deletes the given section keys in one statement
func (r *PostgresSectionRepository) DeleteByKeys(ctx context.Context, projectID string, sectionKeys []string) error {
	if len(sectionKeys) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE project_id = $1 AND section_key = ANY($2)
	`, r.tables.Sections)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, projectID, sectionKeys)
	if err != nil {
		return fmt.Errorf("delete sections: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("sections %v: %w", sectionKeys, domain.ErrNotFound)
	}

	return nil
}

// SetAllStatus flips every section in the project to the given status
// and version
func (r *PostgresSectionRepository) SetAllStatus(ctx context.Context, projectID string, status models.SectionStatus, version int) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, version = $2, updated_at = NOW()
		WHERE project_id = $3
	`, r.tables.Sections)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, status, version, projectID); err != nil {
		return fmt.Errorf("set section statuses: %w", err)
	}

	return nil
}

// scanTarget abstracts pgx.Row and pgx.Rows for shared scanning
type scanTarget interface {
	Scan(dest ...interface{}) error
}

func scanSection(row scanTarget) (*models.Section, error) {
	var (
		section models.Section
		content []byte
		sources []byte
		missing []byte
	)

	err := row.Scan(
		&section.ID,
		&section.ProjectID,
		&section.SectionKey,
		&section.ParentKey,
		&section.Title,
		&section.ContentType,
		&content,
		&sources,
		&missing,
		&section.Status,
		&section.Version,
		&section.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(content, &section.Content); err != nil {
		return nil, fmt.Errorf("decode section content: %w", err)
	}
	if sources != nil {
		if err := json.Unmarshal(sources, &section.Sources); err != nil {
			return nil, fmt.Errorf("decode section sources: %w", err)
		}
	}
	if missing != nil {
		if err := json.Unmarshal(missing, &section.MissingFields); err != nil {
			return nil, fmt.Errorf("decode missing fields: %w", err)
		}
	}

	return &section, nil
}

func marshalSectionJSON(section *models.Section) (content, sources, missing []byte, err error) {
	content, err = json.Marshal(section.Content)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode section content: %w", err)
	}
	sources, err = json.Marshal(section.Sources)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode section sources: %w", err)
	}
	missing, err = json.Marshal(section.MissingFields)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode missing fields: %w", err)
	}
	return content, sources, missing, nil
}
