// Package memory provides in-memory repository implementations backed
// by maps and a single mutex. Used by service tests and by local
// development without a database.
package memory

import (
	"context"
	"sync"

	"soaforge/internal/domain/models"
	"soaforge/internal/domain/repositories"
)

// Store holds all in-memory state shared by the repositories.
type Store struct {
	mu sync.RWMutex

	projects  map[string]*models.Project
	documents map[string][]*models.Document        // projectID -> docs
	sections  map[string]map[string]*models.Section // projectID -> sectionKey -> section
	workflows map[string]*models.WorkflowState      // projectID -> state
	versions  map[string][]*models.Version          // projectID -> ordered versions
	comments  map[string][]*models.Comment          // sectionID -> comments
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		projects:  make(map[string]*models.Project),
		documents: make(map[string][]*models.Document),
		sections:  make(map[string]map[string]*models.Section),
		workflows: make(map[string]*models.WorkflowState),
		versions:  make(map[string][]*models.Version),
		comments:  make(map[string][]*models.Comment),
	}
}

// TxManager satisfies repositories.TransactionManager without real
// transactions; the store's mutex serializes individual operations and
// tests exercise single-writer flows.
type TxManager struct{}

// NewTransactionManager creates a pass-through transaction manager.
func NewTransactionManager() repositories.TransactionManager {
	return &TxManager{}
}

// ExecTx runs fn directly.
func (tm *TxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}
