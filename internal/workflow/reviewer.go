package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/loan-lens/loanlens/internal/loan"
)

// AdminAPI is the slice of the remote contract the admin console consumes.
type AdminAPI interface {
	Applications(ctx context.Context) ([]loan.Application, error)
	UpdateStatus(ctx context.Context, applicationID string, decision loan.AdminDecision, note string) error
}

// Reviewer is the admin console's status transition surface over the full
// application collection.
type Reviewer struct {
	api      AdminAPI
	cache    *Cache
	notifier Notifier
	log      *slog.Logger

	submissions latch
	edit        editSurface
}

// NewReviewer wires the admin surface.
func NewReviewer(api AdminAPI, notifier Notifier, log *slog.Logger) *Reviewer {
	return &Reviewer{api: api, cache: &Cache{}, notifier: notifier, log: log}
}

// Cache exposes the read-only collection snapshot for rendering.
func (r *Reviewer) Cache() *Cache {
	return r.cache
}

// Refresh replaces the cached collection from the remote system. On failure
// the previous snapshot stays in place.
func (r *Reviewer) Refresh(ctx context.Context) error {
	apps, err := r.api.Applications(ctx)
	if err != nil {
		return fmt.Errorf("fetch applications: %w", err)
	}
	r.cache.replace(apps)
	return nil
}

// OpenEdit opens the status-update surface for one application. Only one may
// be open at a time.
func (r *Reviewer) OpenEdit(applicationID string) error {
	if _, ok := r.cache.Get(applicationID); !ok {
		return fmt.Errorf("unknown application %q", applicationID)
	}
	return r.edit.open(applicationID)
}

// CloseEdit dismisses the open surface without submitting.
func (r *Reviewer) CloseEdit() {
	r.edit.close()
}

// Editing reports the application whose edit surface is open, if any.
func (r *Reviewer) Editing() (string, bool) {
	return r.edit.current()
}

// UpdateStatus submits an admin decision. The remote system accepts any
// member of the admin-settable set as the next status regardless of the
// current one; no transition matrix is enforced here. On success the full
// collection is refetched and the edit surface closes; on failure the cache
// is untouched and the surface stays open for a retry.
func (r *Reviewer) UpdateStatus(ctx context.Context, applicationID string, decision loan.AdminDecision, note string) error {
	if !loan.ValidDecision(string(decision)) {
		return fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}
	if err := r.submissions.acquire(); err != nil {
		return err
	}
	defer r.submissions.release()

	if err := r.api.UpdateStatus(ctx, applicationID, decision, note); err != nil {
		notify(ctx, r.notifier, KindSubmissionFailed, "status update failed: %v", err)
		return err
	}

	r.edit.close()
	notify(ctx, r.notifier, KindStatusUpdated, "application %s moved to %s", applicationID, decision)

	if err := r.Refresh(ctx); err != nil {
		// The update itself landed; the stale snapshot stands until the next
		// successful fetch.
		r.log.Warn("refetch after status update failed", "application_id", applicationID, "error", err)
		return err
	}
	return nil
}
