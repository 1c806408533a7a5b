package validator

import (
	"fmt"
	"strings"

	"doctor-listing-service/internal/domain/entity"

	"github.com/go-playground/validator/v10"
)

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()
	mustRegister(v, "fee_range", validateFeeRange)
	mustRegister(v, "weekday", validateWeekday)

	return &CustomValidator{
		validator: v,
	}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func (cv *CustomValidator) FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			switch e.Tag() {
			case "required":
				errors[field] = field + " is required"
			case "min":
				errors[field] = field + " must be at least " + e.Param() + " characters"
			case "max":
				errors[field] = field + " must be at most " + e.Param() + " characters"
			case "gte":
				errors[field] = field + " must be greater than or equal to " + e.Param()
			case "lte":
				errors[field] = field + " must be less than or equal to " + e.Param()
			case "oneof":
				errors[field] = field + " must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
			case "fee_range":
				errors[field] = field + " must be one of: " + strings.Join(entity.FeeRangeTokens(), ", ")
			case "weekday":
				errors[field] = field + " must be a weekday name"
			default:
				errors[field] = field + " is invalid"
			}
		}
	}

	return errors
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

func validateFeeRange(fl validator.FieldLevel) bool {
	_, ok := entity.LookupFeeRange(fl.Field().String())
	return ok
}

func validateWeekday(fl validator.FieldLevel) bool {
	return entity.IsWeekday(fl.Field().String())
}
