package validator

import (
	"log"

	"offerwise_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules wires the domain enum rules into the validator
// instance. Registration failures abort startup.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-search-mode", validateSearchMode)
	mustRegister("is-risk-preference", validateRiskPreference)
	mustRegister("is-candidate-stage", validateCandidateStage)
	mustRegister("is-candidate-status", validateCandidateStatus)
	mustRegister("is-candidate-source", validateCandidateSource)
}

func validateSearchMode(fl validator.FieldLevel) bool {
	return models.IsValidSearchMode(models.SearchMode(fl.Field().String()))
}

func validateRiskPreference(fl validator.FieldLevel) bool {
	return models.IsValidRiskPreference(models.RiskPreference(fl.Field().String()))
}

func validateCandidateStage(fl validator.FieldLevel) bool {
	return models.IsValidCandidateStage(models.CandidateStage(fl.Field().String()))
}

func validateCandidateStatus(fl validator.FieldLevel) bool {
	return models.IsValidCandidateStatus(models.CandidateStatus(fl.Field().String()))
}

func validateCandidateSource(fl validator.FieldLevel) bool {
	return models.IsValidCandidateSource(models.CandidateSource(fl.Field().String()))
}
