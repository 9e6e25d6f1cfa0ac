package validator

import (
	"github.com/go-playground/validator/v10"

	api "github.com/meridianqs/estimator-client/api/v1alpha1"
)

type ValidationRule struct {
	Rule func(v *validator.Validate)
}

// Validator is a wrapper around the actual validator.
// It sets up the validator and registers the custom rules used by the client.
type Validator struct {
	validator *validator.Validate
	rules     []ValidationRule
}

func NewValidator() *Validator {
	v := validator.New()
	return &Validator{validator: v}
}

func (v *Validator) Register(rules ...ValidationRule) {
	for _, validationRule := range rules {
		validationRule.Rule(v.validator)
	}
	v.rules = rules
}

func (v *Validator) Struct(s any) error {
	return v.validator.Struct(s)
}

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

// NewDecisionValidationRules returns the rules for VE decision payloads.
func NewDecisionValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("decision", decisionValidator),
		},
	}
}

// decisionValidator accepts only the two decidable states; PENDING is the
// server-side initial state and never a legal command.
func decisionValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(api.DecisionStatus)
	if !ok {
		if s, ok := fl.Field().Interface().(string); ok {
			val = api.DecisionStatus(s)
		} else {
			return false
		}
	}
	return val == api.DecisionAccepted || val == api.DecisionRejected
}
