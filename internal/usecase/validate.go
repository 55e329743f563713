package usecase

import (
	"fmt"
	"regexp"
	"strings"

	domain "github.com/re-trade/checkout-api/internal/entity"
)

// StepErrors collects per-field validation failures of one wizard step.
type StepErrors struct {
	Step   int
	Fields map[string]string
}

func (e *StepErrors) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	return fmt.Sprintf("step %d invalid: %s", e.Step, strings.Join(keys, ", "))
}

var (
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
)

// ValidateStep checks one step of the registration wizard. Steps 1-3 carry
// fields; step 4 is the review step and has nothing of its own.
func ValidateStep(step int, f domain.RegistrationForm) error {
	fields := map[string]string{}
	switch step {
	case 1: // shop identity
		if strings.TrimSpace(f.ShopName) == "" {
			fields["shopName"] = "required"
		}
		if len(f.Description) > 2000 {
			fields["description"] = "too long"
		}
	case 2: // contact
		if !emailRe.MatchString(f.Email) {
			fields["email"] = "invalid"
		}
		if !phoneRe.MatchString(f.Phone) {
			fields["phone"] = "invalid"
		}
	case 3: // address
		if strings.TrimSpace(f.AddressLine) == "" {
			fields["addressLine"] = "required"
		}
		if f.ProvinceCode == "" {
			fields["provinceCode"] = "required"
		}
		if f.DistrictCode == "" {
			fields["districtCode"] = "required"
		}
		if f.WardCode == "" {
			fields["wardCode"] = "required"
		}
	}
	if len(fields) > 0 {
		return &StepErrors{Step: step, Fields: fields}
	}
	return nil
}

// ValidateSteps runs steps 1..3 in order and stops at the first failing one.
func ValidateSteps(f domain.RegistrationForm) error {
	for step := 1; step <= 3; step++ {
		if err := ValidateStep(step, f); err != nil {
			return err
		}
	}
	return nil
}
