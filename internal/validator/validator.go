// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"lendhub/internal/marketplace"
	"lendhub/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn installs the marketplace tags on v. Decimal fields are
// validated as numbers, so tags like gt=0 work on money amounts.
func RegisterOn(v *validator.Validate) {
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	_ = v.RegisterValidation("category", validateCategory)
	_ = v.RegisterValidation("use_of_funds", validateUseOfFunds)
	_ = v.RegisterValidation("risk_level", validateRiskLevel)
	_ = v.RegisterValidation("opportunity_status", validateOpportunityStatus)
	_ = v.RegisterValidation("sort_mode", validateSortMode)
	_ = v.RegisterValidation("view_mode", validateViewMode)
}

func decimalValue(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func validateCategory(fl validator.FieldLevel) bool {
	return models.Category(fl.Field().String()).Valid()
}

func validateUseOfFunds(fl validator.FieldLevel) bool {
	return models.UseOfFunds(fl.Field().String()).Valid()
}

func validateRiskLevel(fl validator.FieldLevel) bool {
	return models.RiskLevel(fl.Field().String()).Valid()
}

func validateOpportunityStatus(fl validator.FieldLevel) bool {
	return models.OpportunityStatus(fl.Field().String()).Valid()
}

func validateSortMode(fl validator.FieldLevel) bool {
	_, ok := marketplace.ParseSortMode(fl.Field().String())
	return ok
}

func validateViewMode(fl validator.FieldLevel) bool {
	return marketplace.ViewMode(fl.Field().String()).Valid()
}
