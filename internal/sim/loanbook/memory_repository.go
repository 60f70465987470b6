package loanbook

import (
	"context"
	"sort"
	"sync"

	"github.com/loan-lens/loanlens/internal/loan"
)

type memoryRepository struct {
	mu   sync.RWMutex
	apps map[string]loan.Application
}

// NewMemoryRepository builds an in-memory application store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{apps: make(map[string]loan.Application)}
}

func (r *memoryRepository) Create(_ context.Context, app loan.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps[app.ID] = app
	return nil
}

func (r *memoryRepository) All(_ context.Context) ([]loan.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	apps := make([]loan.Application, 0, len(r.apps))
	for _, app := range r.apps {
		apps = append(apps, app)
	}
	sortNewestFirst(apps)
	return apps, nil
}

func (r *memoryRepository) ByUser(_ context.Context, userID string) ([]loan.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var apps []loan.Application
	for _, app := range r.apps {
		if app.UserID == userID {
			apps = append(apps, app)
		}
	}
	sortNewestFirst(apps)
	return apps, nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (loan.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.apps[id]
	if !ok {
		return loan.Application{}, ErrNotFound
	}
	return app, nil
}

func (r *memoryRepository) Update(_ context.Context, app loan.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.apps[app.ID]; !ok {
		return ErrNotFound
	}
	r.apps[app.ID] = app
	return nil
}

func sortNewestFirst(apps []loan.Application) {
	sort.Slice(apps, func(i, j int) bool {
		return apps[i].CreatedAt.After(apps[j].CreatedAt)
	})
}
