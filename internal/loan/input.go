package loan

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ApplicationInput is the apply-form payload submitted for scoring. Field
// names follow the remote /api/predict contract.
type ApplicationInput struct {
	Amount         float64          `json:"amount" validate:"required,gt=0"`
	DurationMonths int              `json:"duration" validate:"required,gt=0"`
	MonthlyIncome  float64          `json:"monthlyIncome" validate:"required,gt=0"`
	CreditHistory  CreditHistory    `json:"creditHistory" validate:"required,oneof=none fair good excellent"`
	MobileMoney    MobileMoneyInput `json:"mobileMoneyHistory" validate:"required"`
}

// MobileMoneyInput mirrors the nested mobile-money block of the apply form.
type MobileMoneyInput struct {
	AverageBalance       float64 `json:"averageBalance" validate:"gte=0"`
	TransactionFrequency float64 `json:"transactionFrequency" validate:"gte=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the input locally before it is handed to the remote API,
// so an incomplete form never costs a network round trip.
func (in ApplicationInput) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) && len(invalid) > 0 {
		f := invalid[0]
		return fmt.Errorf("invalid application input: field %s fails %q", f.Field(), f.Tag())
	}
	return fmt.Errorf("invalid application input: %w", err)
}
