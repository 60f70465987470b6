package loanbook

import (
	"context"
	"errors"
	"testing"

	"github.com/loan-lens/loanlens/internal/ledger"
	"github.com/loan-lens/loanlens/internal/loan"
)

func validInput() loan.ApplicationInput {
	return loan.ApplicationInput{
		Amount:         50000,
		DurationMonths: 12,
		MonthlyIncome:  120000,
		CreditHistory:  loan.CreditGood,
		MobileMoney: loan.MobileMoneyInput{
			AverageBalance:       45000,
			TransactionFrequency: 30,
		},
	}
}

func TestSubmitScoresApplication(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	app, err := svc.Submit(ctx, "user-1", validInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if app.Status != loan.StatusPending {
		t.Fatalf("expected pending, got %s", app.Status)
	}
	if app.RiskScore == nil || *app.RiskScore <= 0 || *app.RiskScore >= 1 {
		t.Fatalf("expected risk score in (0,1), got %v", app.RiskScore)
	}
	if app.Recommendation == "" {
		t.Fatalf("expected a recommendation")
	}
	if app.Explanation == nil || len(app.Explanation.FeatureImportances) != 6 {
		t.Fatalf("expected six feature importances, got %+v", app.Explanation)
	}
	if len(app.StatusHistory) != 1 || app.StatusHistory[0].Status != loan.StatusPending {
		t.Fatalf("expected initial pending history entry, got %+v", app.StatusHistory)
	}
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	in := validInput()
	in.Amount = -100

	if _, err := svc.Submit(context.Background(), "user-1", in); err == nil {
		t.Fatalf("expected validation error for negative amount")
	}
}

func TestUpdateStatus(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	app, err := svc.Submit(ctx, "user-1", validInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	updated, err := svc.UpdateStatus(ctx, app.ID, "approved", "income verified", "admin-1")
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != loan.StatusApproved {
		t.Fatalf("expected approved, got %s", updated.Status)
	}
	if updated.AdminNote != "income verified" {
		t.Fatalf("expected note recorded, got %q", updated.AdminNote)
	}
	if len(updated.StatusHistory) != 2 || updated.StatusHistory[1].ChangedBy != "admin-1" {
		t.Fatalf("expected appended history entry, got %+v", updated.StatusHistory)
	}

	// Any decision may follow any other, including moving back to pending.
	if _, err := svc.UpdateStatus(ctx, app.ID, "pending", "", "admin-1"); err != nil {
		t.Fatalf("approved back to pending: %v", err)
	}
}

func TestUpdateStatusRejectsPaymentStatuses(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	app, err := svc.Submit(ctx, "user-1", validInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	for _, status := range []string{"fully_paid", "partially_paid", "cancelled"} {
		if _, err := svc.UpdateStatus(ctx, app.ID, status, "", "admin-1"); !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("%s: expected ErrInvalidStatus, got %v", status, err)
		}
	}
}

func TestUpdateStatusUnknownApplication(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	if _, err := svc.UpdateStatus(context.Background(), "missing", "approved", "", "admin-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordPaymentDerivesStatus(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	app, err := svc.Submit(ctx, "user-1", validInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, app.ID, "disbursed", "", "admin-1"); err != nil {
		t.Fatalf("disburse: %v", err)
	}

	partial, err := svc.RecordPayment(ctx, app.ID, "user-1", 20000, "mobile_money")
	if err != nil {
		t.Fatalf("partial payment: %v", err)
	}
	if partial.Status != loan.StatusPartiallyPaid {
		t.Fatalf("expected partially_paid, got %s", partial.Status)
	}
	if partial.TotalPaid != 20000 {
		t.Fatalf("expected totalPaid 20000, got %v", partial.TotalPaid)
	}

	settled, err := svc.RecordPayment(ctx, app.ID, "user-1", 30000, "bank_transfer")
	if err != nil {
		t.Fatalf("settling payment: %v", err)
	}
	if settled.Status != loan.StatusFullyPaid {
		t.Fatalf("expected fully_paid, got %s", settled.Status)
	}

	// Settled loans accept no further payments.
	if _, err := svc.RecordPayment(ctx, app.ID, "user-1", 1, ""); !errors.Is(err, ErrNotPayable) {
		t.Fatalf("expected ErrNotPayable after settlement, got %v", err)
	}
}

func TestRecordPaymentValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	app, err := svc.Submit(ctx, "user-1", validInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := svc.RecordPayment(ctx, app.ID, "user-2", 1000, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for other user, got %v", err)
	}
	if _, err := svc.RecordPayment(ctx, app.ID, "user-1", 50002, ""); !errors.Is(err, ledger.ErrExceedsBalance) {
		t.Fatalf("expected ErrExceedsBalance, got %v", err)
	}
	if _, err := svc.RecordPayment(ctx, app.ID, "user-1", -5, ""); !errors.Is(err, ledger.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, app.ID, "rejected", "", "admin-1"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := svc.RecordPayment(ctx, app.ID, "user-1", 1000, ""); !errors.Is(err, ErrNotPayable) {
		t.Fatalf("expected ErrNotPayable for rejected loan, got %v", err)
	}
}

func TestByUserFiltersApplications(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "user-1", validInput()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Submit(ctx, "user-2", validInput()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	mine, err := svc.ByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("by user: %v", err)
	}
	if len(mine) != 1 || mine[0].UserID != "user-1" {
		t.Fatalf("expected only user-1 applications, got %+v", mine)
	}

	all, err := svc.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 applications, got %d", len(all))
	}
}
