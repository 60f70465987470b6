// Package scoring is the simulator's stand-in for the remote risk model: a
// fixed logistic scorer over the same six features the real model consumes,
// with linear per-feature contributions as the explanation payload. It is
// deterministic so tests can assert on outcomes.
package scoring

import (
	"math"

	"github.com/loan-lens/loanlens/internal/loan"
)

// Feature names as the explanation payload reports them.
const (
	featAmount    = "amount"
	featDuration  = "duration"
	featIncome    = "monthly_income"
	featCredit    = "credit_history_encoded"
	featBalance   = "avg_balance"
	featFrequency = "txn_frequency"
)

// baseValue anchors the logit before feature contributions.
const baseValue = -0.8

// Recommendation bands over the risk score.
const (
	approveBelow = 0.3
	reviewBelow  = 0.7
)

var creditEncoding = map[loan.CreditHistory]float64{
	loan.CreditNone:      0,
	loan.CreditFair:      1,
	loan.CreditGood:      2,
	loan.CreditExcellent: 3,
}

// Result is the scorer's output for one application.
type Result struct {
	RiskScore      float64
	Recommendation loan.Recommendation
	Explanation    loan.Explanation
}

// Score evaluates one application input. Higher amounts and durations push
// risk up; income, credit history and mobile-money activity pull it down.
func Score(in loan.ApplicationInput) Result {
	contributions := map[string]float64{
		featAmount:    0.35 * in.Amount / 10_000,
		featDuration:  0.20 * float64(in.DurationMonths) / 12,
		featIncome:    -0.30 * in.MonthlyIncome / 10_000,
		featCredit:    -0.40 * creditEncoding[in.CreditHistory],
		featBalance:   -0.15 * in.MobileMoney.AverageBalance / 1_000,
		featFrequency: -0.05 * in.MobileMoney.TransactionFrequency / 10,
	}

	// Fixed summation order keeps the score bit-for-bit reproducible.
	logit := baseValue
	for _, name := range []string{featAmount, featDuration, featIncome, featCredit, featBalance, featFrequency} {
		logit += contributions[name]
	}
	score := sigmoid(logit)

	return Result{
		RiskScore:      score,
		Recommendation: recommend(score),
		Explanation: loan.Explanation{
			BaseValue:          baseValue,
			FeatureImportances: contributions,
		},
	}
}

func recommend(score float64) loan.Recommendation {
	switch {
	case score < approveBelow:
		return loan.RecommendApprove
	case score < reviewBelow:
		return loan.RecommendReview
	default:
		return loan.RecommendReject
	}
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
