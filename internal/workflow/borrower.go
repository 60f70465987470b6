package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/loan-lens/loanlens/internal/ledger"
	"github.com/loan-lens/loanlens/internal/loan"
)

// BorrowerAPI is the slice of the remote contract the client console
// consumes.
type BorrowerAPI interface {
	MyApplications(ctx context.Context) ([]loan.Application, error)
	Predict(ctx context.Context, in loan.ApplicationInput) (loan.Application, error)
	SubmitPayment(ctx context.Context, req ledger.PaymentRequest) error
}

// Borrower is the client console's surface: applying for loans and paying
// them down.
type Borrower struct {
	api      BorrowerAPI
	cache    *Cache
	notifier Notifier
	log      *slog.Logger

	submissions latch
	payment     editSurface
}

// NewBorrower wires the client surface.
func NewBorrower(api BorrowerAPI, notifier Notifier, log *slog.Logger) *Borrower {
	return &Borrower{api: api, cache: &Cache{}, notifier: notifier, log: log}
}

// Cache exposes the read-only collection snapshot for rendering.
func (b *Borrower) Cache() *Cache {
	return b.cache
}

// Refresh replaces the cached collection with the caller-scoped view.
func (b *Borrower) Refresh(ctx context.Context) error {
	apps, err := b.api.MyApplications(ctx)
	if err != nil {
		return fmt.Errorf("fetch my applications: %w", err)
	}
	b.cache.replace(apps)
	return nil
}

// Apply submits a loan application for scoring and refetches on success.
func (b *Borrower) Apply(ctx context.Context, in loan.ApplicationInput) (loan.Application, error) {
	if err := b.submissions.acquire(); err != nil {
		return loan.Application{}, err
	}
	defer b.submissions.release()

	app, err := b.api.Predict(ctx, in)
	if err != nil {
		notify(ctx, b.notifier, KindSubmissionFailed, "application failed: %v", err)
		return loan.Application{}, err
	}
	notify(ctx, b.notifier, KindApplicationScored, "application scored, recommendation: %s", app.Recommendation)

	if err := b.Refresh(ctx); err != nil {
		b.log.Warn("refetch after apply failed", "error", err)
		return app, err
	}
	return app, nil
}

// OpenPayment opens the payment surface for one cached application. The
// action is refused outright for applications whose payment control must be
// disabled, whatever amount would be entered.
func (b *Borrower) OpenPayment(applicationID string) (loan.Application, error) {
	app, ok := b.cache.Get(applicationID)
	if !ok {
		return loan.Application{}, fmt.Errorf("unknown application %q", applicationID)
	}
	if !ledger.IsPayable(app) {
		return loan.Application{}, ErrNotPayable
	}
	if err := b.payment.open(applicationID); err != nil {
		return loan.Application{}, err
	}
	return app, nil
}

// ClosePayment dismisses the payment surface without submitting.
func (b *Borrower) ClosePayment() {
	b.payment.close()
}

// SubmitPayment validates the amount against the application's ledger and,
// only if that passes, hands the payment to the remote system. Validation
// failures never reach the network. On success the collection is refetched
// so the snapshot reflects the authoritative balance and status; the client
// never writes a status locally.
func (b *Borrower) SubmitPayment(ctx context.Context, applicationID string, amount float64, method ledger.PaymentMethod) error {
	app, ok := b.cache.Get(applicationID)
	if !ok {
		return fmt.Errorf("unknown application %q", applicationID)
	}
	if !ledger.IsPayable(app) {
		return ErrNotPayable
	}
	req, err := ledger.ValidatePayment(app, amount, method)
	if err != nil {
		return err
	}

	if err := b.submissions.acquire(); err != nil {
		return err
	}
	defer b.submissions.release()

	if err := b.api.SubmitPayment(ctx, req); err != nil {
		notify(ctx, b.notifier, KindSubmissionFailed, "payment failed: %v", err)
		return err
	}

	b.payment.close()
	notify(ctx, b.notifier, KindPaymentRecorded, "payment of %.2f recorded for application %s", req.Amount, applicationID)

	if err := b.Refresh(ctx); err != nil {
		b.log.Warn("refetch after payment failed", "application_id", applicationID, "error", err)
		return err
	}
	return nil
}
