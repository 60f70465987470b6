package loan

import "time"

// Status is the wire status of an application as the remote API reports it.
// It overloads two concerns: the admin's decision and the payment progress.
// Use Decision plus a derived PaymentState when the two must be told apart.
type Status string

const (
	StatusPending       Status = "pending"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
	StatusDisbursed     Status = "disbursed"
	StatusPartiallyPaid Status = "partially_paid"
	StatusFullyPaid     Status = "fully_paid"
)

// AdminDecision is the subset of statuses an admin may set directly. The
// remote API accepts any member as the next status regardless of the current
// one; no ordering is enforced on either side.
type AdminDecision string

const (
	DecisionPending   AdminDecision = "pending"
	DecisionApproved  AdminDecision = "approved"
	DecisionRejected  AdminDecision = "rejected"
	DecisionDisbursed AdminDecision = "disbursed"
)

// AdminDecisions lists the statuses an admin may submit, in display order.
func AdminDecisions() []AdminDecision {
	return []AdminDecision{DecisionPending, DecisionApproved, DecisionRejected, DecisionDisbursed}
}

// ValidDecision reports whether s names an admin-settable status.
func ValidDecision(s string) bool {
	switch AdminDecision(s) {
	case DecisionPending, DecisionApproved, DecisionRejected, DecisionDisbursed:
		return true
	}
	return false
}

// PaymentState is derived from amount and totalPaid, never stored.
type PaymentState string

const (
	PaymentUnpaid  PaymentState = "unpaid"
	PaymentPartial PaymentState = "partial"
	PaymentPaid    PaymentState = "paid"
)

// CreditHistory is the applicant's self-reported credit history band.
type CreditHistory string

const (
	CreditNone      CreditHistory = "none"
	CreditFair      CreditHistory = "fair"
	CreditGood      CreditHistory = "good"
	CreditExcellent CreditHistory = "excellent"
)

// Recommendation is the scoring system's categorical output.
type Recommendation string

const (
	RecommendApprove Recommendation = "approve"
	RecommendReview  Recommendation = "review"
	RecommendReject  Recommendation = "reject"
)

// MobileMoney summarizes the applicant's mobile-money account activity.
type MobileMoney struct {
	AverageBalance       float64 `json:"averageBalance"`
	TransactionFrequency float64 `json:"transactionFrequency"`
}

// Explanation carries the scoring system's per-feature contribution payload.
// Display only; no logic reads it.
type Explanation struct {
	BaseValue          float64            `json:"base_value"`
	FeatureImportances map[string]float64 `json:"feature_importances"`
}

// StatusChange is one entry of an application's status history.
type StatusChange struct {
	Status    Status    `json:"status"`
	ChangedAt time.Time `json:"changed_at"`
	ChangedBy string    `json:"changed_by,omitempty"`
}

// Application is a loan application record as served by the remote API. The
// remote system is authoritative; local copies are advisory snapshots and are
// replaced wholesale on refetch, never mutated in place.
type Application struct {
	ID             string         `json:"_id"`
	UserID         string         `json:"user_id,omitempty"`
	Amount         float64        `json:"amount"`
	DurationMonths int            `json:"duration"`
	MonthlyIncome  float64        `json:"monthlyIncome"`
	CreditHistory  CreditHistory  `json:"creditHistory"`
	MobileMoney    MobileMoney    `json:"mobileMoneyHistory"`
	RiskScore      *float64       `json:"riskScore,omitempty"`
	Recommendation Recommendation `json:"recommendation,omitempty"`
	Status         Status         `json:"status"`
	AdminNote      string         `json:"admin_note,omitempty"`
	TotalPaid      float64        `json:"totalPaid"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at,omitempty"`
	Explanation    *Explanation   `json:"explanation,omitempty"`
	StatusHistory  []StatusChange `json:"status_history,omitempty"`
}

// Decision extracts the admin-decision component of the wire status. The
// payment-derived statuses map back onto the last decision the remote system
// recorded before payments started, which is always disbursed.
func (a Application) Decision() AdminDecision {
	switch a.Status {
	case StatusPartiallyPaid, StatusFullyPaid:
		return DecisionDisbursed
	case StatusApproved:
		return DecisionApproved
	case StatusRejected:
		return DecisionRejected
	case StatusDisbursed:
		return DecisionDisbursed
	default:
		return DecisionPending
	}
}
