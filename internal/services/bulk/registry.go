package bulk

import (
	"sync"
	"time"

	"github.com/ternarybob/adlaunch/internal/models"
)

// Registry is the in-memory execution store. Records live for the process
// lifetime only; each execution has a single writer (its worker goroutine)
// and any number of snapshot readers (the polling boundary).
type Registry struct {
	mu         sync.RWMutex
	executions map[string]*models.Execution
}

// NewRegistry creates an empty execution registry
func NewRegistry() *Registry {
	return &Registry{
		executions: make(map[string]*models.Execution),
	}
}

// Create registers a new execution record under the given id
func (r *Registry) Create(id string) *models.Execution {
	exec := &models.Execution{
		ID:        id,
		Status:    models.ExecutionStarting,
		Stage:     "initializing",
		StartTime: time.Now(),
		Log:       []string{},
	}

	r.mu.Lock()
	r.executions[id] = exec
	r.mu.Unlock()

	return exec.Clone()
}

// Get returns a snapshot of the execution, or nil if the id is unknown.
// The snapshot's ExecutionTime reflects elapsed time at read for running
// jobs.
func (r *Registry) Get(id string) *models.Execution {
	r.mu.RLock()
	exec, ok := r.executions[id]
	if !ok {
		r.mu.RUnlock()
		return nil
	}
	snapshot := exec.Clone()
	r.mu.RUnlock()

	if snapshot.Status == models.ExecutionStarting || snapshot.Status == models.ExecutionRunning {
		snapshot.ExecutionTime = time.Since(snapshot.StartTime).Seconds()
	}
	return snapshot
}

// Update applies fn to the stored record under the write lock. Unknown ids
// are a no-op; the worker owns the record until the process exits.
func (r *Registry) Update(id string, fn func(*models.Execution)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if exec, ok := r.executions[id]; ok {
		fn(exec)
	}
}
