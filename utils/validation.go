package utils

import (
	"github.com/go-playground/validator/v10"

	"example.com/shipchain/services/shipment/domain"
	"example.com/shipchain/services/shipment/identity"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	registerCustomValidations()
}

// ValidateStruct validates a struct using validation tags
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return err
	}
	return nil
}

// registerCustomValidations registers custom validation functions
func registerCustomValidations() {
	validate.RegisterValidation("wallet", func(fl validator.FieldLevel) bool {
		return identity.ValidWallet(fl.Field().String())
	})

	validate.RegisterValidation("actor_role", func(fl validator.FieldLevel) bool {
		return domain.ValidRole(fl.Field().String())
	})

	validate.RegisterValidation("concern_type", func(fl validator.FieldLevel) bool {
		return domain.ValidConcernType(fl.Field().String())
	})
}
