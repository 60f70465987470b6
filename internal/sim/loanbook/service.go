package loanbook

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/loan-lens/loanlens/internal/ledger"
	"github.com/loan-lens/loanlens/internal/loan"
	"github.com/loan-lens/loanlens/internal/sim/scoring"
)

// Service-level errors the handler maps to HTTP statuses.
var (
	ErrInvalidStatus = errors.New("invalid status")
	ErrForbidden     = errors.New("application belongs to another user")
	ErrNotPayable    = errors.New("application does not accept payments")
)

// Service owns application lifecycle: scoring new submissions, the review
// decisions, and payment recording.
type Service struct {
	repo Repository
}

// NewService creates a new loanbook service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Submit scores a new application and stores it with a pending status.
func (s *Service) Submit(ctx context.Context, userID string, in loan.ApplicationInput) (loan.Application, error) {
	if err := in.Validate(); err != nil {
		return loan.Application{}, err
	}

	scored := scoring.Score(in)
	now := time.Now().UTC()
	app := loan.Application{
		ID:             uuid.New().String(),
		UserID:         userID,
		Amount:         in.Amount,
		DurationMonths: in.DurationMonths,
		MonthlyIncome:  in.MonthlyIncome,
		CreditHistory:  in.CreditHistory,
		MobileMoney: loan.MobileMoney{
			AverageBalance:       in.MobileMoney.AverageBalance,
			TransactionFrequency: in.MobileMoney.TransactionFrequency,
		},
		RiskScore:      &scored.RiskScore,
		Recommendation: scored.Recommendation,
		Status:         loan.StatusPending,
		Explanation:    &scored.Explanation,
		StatusHistory: []loan.StatusChange{
			{Status: loan.StatusPending, ChangedAt: now, ChangedBy: userID},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, app); err != nil {
		return loan.Application{}, err
	}
	return app, nil
}

// All lists every application for the review queue.
func (s *Service) All(ctx context.Context) ([]loan.Application, error) {
	return s.repo.All(ctx)
}

// ByUser lists one borrower's applications.
func (s *Service) ByUser(ctx context.Context, userID string) ([]loan.Application, error) {
	return s.repo.ByUser(ctx, userID)
}

// UpdateStatus records a reviewer decision. Any decision status may follow
// any current status; the caller decides, not the store. Payment-derived
// statuses are rejected since only payments produce them.
func (s *Service) UpdateStatus(ctx context.Context, id, status, note, changedBy string) (loan.Application, error) {
	if !loan.ValidDecision(status) {
		return loan.Application{}, ErrInvalidStatus
	}

	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return loan.Application{}, err
	}

	now := time.Now().UTC()
	app.Status = loan.Status(status)
	if note != "" {
		app.AdminNote = note
	}
	app.StatusHistory = append(app.StatusHistory, loan.StatusChange{
		Status:    app.Status,
		ChangedAt: now,
		ChangedBy: changedBy,
	})
	app.UpdatedAt = now

	if err := s.repo.Update(ctx, app); err != nil {
		return loan.Application{}, err
	}
	return app, nil
}

// RecordPayment applies a borrower payment and derives the resulting wire
// status: fully_paid once the balance is settled, partially_paid otherwise.
func (s *Service) RecordPayment(ctx context.Context, id, userID string, amount float64, method string) (loan.Application, error) {
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return loan.Application{}, err
	}
	if app.UserID != userID {
		return loan.Application{}, ErrForbidden
	}
	if !ledger.IsPayable(app) {
		return loan.Application{}, ErrNotPayable
	}
	if _, err := ledger.ValidatePayment(app, amount, ledger.PaymentMethod(method)); err != nil {
		return loan.Application{}, err
	}

	now := time.Now().UTC()
	app.TotalPaid += amount
	if ledger.IsFullyPaid(app) {
		app.Status = loan.StatusFullyPaid
	} else {
		app.Status = loan.StatusPartiallyPaid
	}
	app.StatusHistory = append(app.StatusHistory, loan.StatusChange{
		Status:    app.Status,
		ChangedAt: now,
		ChangedBy: userID,
	})
	app.UpdatedAt = now

	if err := s.repo.Update(ctx, app); err != nil {
		return loan.Application{}, err
	}
	return app, nil
}
