package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"soaforge/internal/config"
	"soaforge/internal/domain/models"
	"soaforge/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed a demo project")
	demoOwner := flag.String("demo-owner", "00000000-0000-0000-0000-000000000001", "Owner ID for the seeded demo project")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("🚫 BLOCKED: Cannot run --drop-tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log.Printf("🌱 Preparing database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Drop tables if requested
	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	// Run schema to ensure tables exist
	log.Println("📋 Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	// Seed a demo project with sample source documents so the workflow
	// can be exercised end to end right after setup
	if err := seedDemoProject(ctx, pool, tables, *demoOwner, logger); err != nil {
		log.Fatalf("Failed to seed demo project: %v", err)
	}
	log.Println("✅ Demo project seeded")
}

func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	// Enable UUID extension
	_, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"")
	if err != nil {
		return err
	}

	// Create projects table
	createProjects := `
		CREATE TABLE IF NOT EXISTS ` + tables.Projects + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			owner_id UUID NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			status TEXT NOT NULL DEFAULT 'draft',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(owner_id, name)
		)
	`
	if _, err := pool.Exec(ctx, createProjects); err != nil {
		return err
	}

	// Create documents table
	createDocuments := `
		CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			project_id UUID NOT NULL REFERENCES ` + tables.Projects + `(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			file_type TEXT NOT NULL,
			parsed_content TEXT NOT NULL,
			uploaded_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createDocuments); err != nil {
		return err
	}

	// Create sections table
	createSections := `
		CREATE TABLE IF NOT EXISTS ` + tables.Sections + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			project_id UUID NOT NULL REFERENCES ` + tables.Projects + `(id) ON DELETE CASCADE,
			section_key TEXT NOT NULL,
			parent_key TEXT,
			title TEXT NOT NULL,
			content_type TEXT NOT NULL,
			content JSONB NOT NULL,
			sources JSONB NOT NULL DEFAULT '[]',
			missing_fields JSONB NOT NULL DEFAULT '[]',
			status TEXT NOT NULL DEFAULT 'pending',
			version INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(project_id, section_key)
		)
	`
	if _, err := pool.Exec(ctx, createSections); err != nil {
		return err
	}

	// Create workflow states table (one state per project)
	createWorkflowStates := `
		CREATE TABLE IF NOT EXISTS ` + tables.WorkflowStates + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			project_id UUID NOT NULL UNIQUE REFERENCES ` + tables.Projects + `(id) ON DELETE CASCADE,
			current_step INTEGER NOT NULL DEFAULT 1,
			step_statuses JSONB NOT NULL,
			run_handle TEXT,
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createWorkflowStates); err != nil {
		return err
	}

	// Create versions table (append-only patch log)
	createVersions := `
		CREATE TABLE IF NOT EXISTS ` + tables.Versions + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			project_id UUID NOT NULL REFERENCES ` + tables.Projects + `(id) ON DELETE CASCADE,
			version_number INTEGER NOT NULL,
			patch JSONB NOT NULL,
			author_id TEXT NOT NULL,
			change_kind TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(project_id, version_number)
		)
	`
	if _, err := pool.Exec(ctx, createVersions); err != nil {
		return err
	}

	// Create comments table
	createComments := `
		CREATE TABLE IF NOT EXISTS ` + tables.Comments + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			section_id UUID NOT NULL REFERENCES ` + tables.Sections + `(id) ON DELETE CASCADE,
			author_id TEXT NOT NULL,
			body TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'open',
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createComments); err != nil {
		return err
	}

	// Create indexes
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `projects_owner ON ` + tables.Projects + `(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `documents_project ON ` + tables.Documents + `(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `sections_project ON ` + tables.Sections + `(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `versions_project ON ` + tables.Versions + `(project_id, version_number)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `comments_section ON ` + tables.Comments + `(section_id)`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	// Drop in dependency order
	drops := []string{
		`DROP TABLE IF EXISTS ` + tables.Comments + ` CASCADE`,
		`DROP TABLE IF EXISTS ` + tables.Versions + ` CASCADE`,
		`DROP TABLE IF EXISTS ` + tables.WorkflowStates + ` CASCADE`,
		`DROP TABLE IF EXISTS ` + tables.Sections + ` CASCADE`,
		`DROP TABLE IF EXISTS ` + tables.Documents + ` CASCADE`,
		`DROP TABLE IF EXISTS ` + tables.Projects + ` CASCADE`,
	}

	for _, dropSQL := range drops {
		if _, err := pool.Exec(ctx, dropSQL); err != nil {
			return err
		}
	}

	return nil
}

func seedDemoProject(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, ownerID string, logger *slog.Logger) error {
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	projectRepo := postgres.NewProjectRepository(repoConfig)
	documentRepo := postgres.NewDocumentRepository(repoConfig)

	description := "Seeded demo project for local development"
	project := &models.Project{
		OwnerID:     ownerID,
		Name:        "Demo Advice Project",
		Description: &description,
		Status:      models.ProjectStatusDraft,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := projectRepo.Create(ctx, project); err != nil {
		return err
	}

	docs := []models.Document{
		{
			ProjectID:     project.ID,
			Name:          "fact-find.txt",
			FileType:      "txt",
			ParsedContent: demoFactFind,
			UploadedAt:    time.Now().UTC(),
		},
		{
			ProjectID:     project.ID,
			Name:          "risk-profile.txt",
			FileType:      "txt",
			ParsedContent: demoRiskProfile,
			UploadedAt:    time.Now().UTC(),
		},
	}
	for i := range docs {
		if err := documentRepo.Create(ctx, &docs[i]); err != nil {
			return err
		}
	}

	log.Printf("Demo project created: %s (owner %s)", project.ID, ownerID)
	return nil
}

const demoFactFind = `Client: Jordan Example, age 42, married, two dependants.
Employment: senior engineer, salary $145,000 plus super guarantee.
Assets: family home valued at $950,000 with a $420,000 mortgage,
superannuation balance $310,000 in a balanced option, savings $55,000.
Liabilities: mortgage as above, car loan $18,000.
Goals: retire at 60 with $80,000 annual income, reduce non-deductible
debt and review insurance cover for income protection.`

const demoRiskProfile = `Risk profile questionnaire completed on review meeting.
Result: balanced investor. Comfortable with moderate short-term
volatility in exchange for long-term growth. Investment horizon is
eighteen years to preferred retirement age. Current asset allocation
sits within the balanced band and no immediate rebalancing is needed.`
