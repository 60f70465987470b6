// Package ledger derives payment progress and eligibility for a single loan
// application. Everything here is pure: the network effect of an actual
// payment lives in the workflow layer, and the remote system alone decides
// the resulting status.
package ledger

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"github.com/loan-lens/loanlens/internal/loan"
)

var (
	// ErrInvalidAmount occurs when a payment amount is not a positive finite
	// number.
	ErrInvalidAmount = errors.New("payment amount must be a positive number")

	// ErrExceedsBalance occurs when a payment amount is larger than the
	// remaining balance plus the float tolerance.
	ErrExceedsBalance = errors.New("payment amount exceeds remaining balance")

	// ErrInvalidMethod occurs when the payment method is not one of the
	// supported channels.
	ErrInvalidMethod = errors.New("unsupported payment method")
)

// balanceTolerance absorbs floating-point drift accumulated by prior
// payments; a payment may overshoot the remaining balance by at most this.
var balanceTolerance = decimal.NewFromFloat(0.01)

// PaymentMethod is a supported payment channel.
type PaymentMethod string

const (
	MethodMobileMoney  PaymentMethod = "mobile_money"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCard         PaymentMethod = "card"
)

// ValidMethod reports whether m names a supported payment channel.
func ValidMethod(m PaymentMethod) bool {
	switch m {
	case MethodMobileMoney, MethodBankTransfer, MethodCard:
		return true
	}
	return false
}

// PaymentRequest is a locally validated payment, ready to hand to the remote
// API. It is transient and never retained after submission.
type PaymentRequest struct {
	ApplicationID string
	Amount        float64
	Method        PaymentMethod
}

// RemainingBalance returns amount minus totalPaid, unfloored: an overpaid
// application yields a negative value and display layers decide formatting.
func RemainingBalance(a loan.Application) float64 {
	return a.Amount - a.TotalPaid
}

// IsFullyPaid reports whether no balance remains. Overpayment counts as
// fully paid.
func IsFullyPaid(a loan.Application) bool {
	return RemainingBalance(a) <= 0
}

// IsPayable reports whether a payment action may be offered at all: a fully
// paid or rejected application takes no further payments regardless of the
// amount entered.
func IsPayable(a loan.Application) bool {
	return !IsFullyPaid(a) && a.Status != loan.StatusRejected
}

// DefaultPaymentAmount is the suggested pre-filled amount: the remaining
// balance floored at zero and rounded to two decimal places.
func DefaultPaymentAmount(a loan.Application) float64 {
	remaining := math.Max(0, RemainingBalance(a))
	return decimal.NewFromFloat(remaining).Round(2).InexactFloat64()
}

// PaymentStateOf derives the payment progress of an application purely from
// amount and totalPaid, independent of the overloaded wire status.
func PaymentStateOf(a loan.Application) loan.PaymentState {
	switch {
	case IsFullyPaid(a):
		return loan.PaymentPaid
	case a.TotalPaid > 0:
		return loan.PaymentPartial
	default:
		return loan.PaymentUnpaid
	}
}

// ValidatePayment checks a proposed payment against the application's ledger
// and yields the request to submit. It never performs I/O; a failure here
// must block the submission before it reaches the network.
func ValidatePayment(a loan.Application, amount float64, method PaymentMethod) (PaymentRequest, error) {
	if method == "" {
		method = MethodMobileMoney
	}
	if !ValidMethod(method) {
		return PaymentRequest{}, ErrInvalidMethod
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return PaymentRequest{}, ErrInvalidAmount
	}

	remaining := decimal.NewFromFloat(RemainingBalance(a))
	if decimal.NewFromFloat(amount).GreaterThan(remaining.Add(balanceTolerance)) {
		return PaymentRequest{}, ErrExceedsBalance
	}

	return PaymentRequest{ApplicationID: a.ID, Amount: amount, Method: method}, nil
}
