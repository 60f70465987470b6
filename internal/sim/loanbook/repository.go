// Package loanbook is the simulator's application store and review workflow.
// It serves the same wire contract the production scoring API does, so the
// console programs and their tests can run against a local process.
package loanbook

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loan-lens/loanlens/internal/loan"
)

// ErrNotFound is returned when an application identifier matches nothing.
var ErrNotFound = errors.New("application not found")

// Repository persists loan applications.
type Repository interface {
	Create(ctx context.Context, app loan.Application) error
	All(ctx context.Context) ([]loan.Application, error)
	ByUser(ctx context.Context, userID string) ([]loan.Application, error)
	Get(ctx context.Context, id string) (loan.Application, error)
	Update(ctx context.Context, app loan.Application) error
}

// PostgresRepository implements Repository using PostgreSQL. Scoring output
// and status history live in jsonb columns since nothing queries inside them.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed application repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const applicationColumns = `id, user_id, amount, duration_months, monthly_income, credit_history,
        avg_balance, txn_frequency, risk_score, recommendation, status, admin_note,
        total_paid, explanation, status_history, created_at, updated_at`

// Create inserts a new application.
func (r *PostgresRepository) Create(ctx context.Context, app loan.Application) error {
	appID, err := uuid.Parse(app.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO applications (`+applicationColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		appID, app.UserID, app.Amount, app.DurationMonths, app.MonthlyIncome, app.CreditHistory,
		app.MobileMoney.AverageBalance, app.MobileMoney.TransactionFrequency,
		app.RiskScore, app.Recommendation, app.Status, app.AdminNote,
		app.TotalPaid, app.Explanation, app.StatusHistory, app.CreatedAt.UTC(), app.UpdatedAt.UTC())
	return err
}

// All lists every application, newest first.
func (r *PostgresRepository) All(ctx context.Context) ([]loan.Application, error) {
	rows, err := r.db.Query(ctx, `SELECT `+applicationColumns+` FROM applications ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectApplications(rows)
}

// ByUser lists one borrower's applications, newest first.
func (r *PostgresRepository) ByUser(ctx context.Context, userID string) ([]loan.Application, error) {
	rows, err := r.db.Query(ctx, `SELECT `+applicationColumns+` FROM applications
        WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectApplications(rows)
}

// Get fetches one application by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (loan.Application, error) {
	appID, err := uuid.Parse(id)
	if err != nil {
		return loan.Application{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, appID)
	app, err := scanApplication(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return loan.Application{}, ErrNotFound
	}
	return app, err
}

// Update replaces the mutable fields of an existing application.
func (r *PostgresRepository) Update(ctx context.Context, app loan.Application) error {
	appID, err := uuid.Parse(app.ID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE applications
        SET status = $1, admin_note = $2, total_paid = $3, status_history = $4, updated_at = $5
        WHERE id = $6`,
		app.Status, app.AdminNote, app.TotalPaid, app.StatusHistory, app.UpdatedAt.UTC(), appID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectApplications(rows pgx.Rows) ([]loan.Application, error) {
	var apps []loan.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

func scanApplication(row pgx.Row) (loan.Application, error) {
	var (
		id                   uuid.UUID
		createdAt, updatedAt time.Time
		app                  loan.Application
	)
	err := row.Scan(&id, &app.UserID, &app.Amount, &app.DurationMonths, &app.MonthlyIncome, &app.CreditHistory,
		&app.MobileMoney.AverageBalance, &app.MobileMoney.TransactionFrequency,
		&app.RiskScore, &app.Recommendation, &app.Status, &app.AdminNote,
		&app.TotalPaid, &app.Explanation, &app.StatusHistory, &createdAt, &updatedAt)
	if err != nil {
		return loan.Application{}, err
	}
	app.ID = id.String()
	app.CreatedAt = createdAt.UTC()
	app.UpdatedAt = updatedAt.UTC()
	return app, nil
}
