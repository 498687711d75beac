package validator

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var validate = validator.New()

func init() {
	// Register custom validation for UUID
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errs []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []*ErrorResponse{{FailedField: "", Tag: "invalid"}}
		}
		for _, err := range verrs {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errs = append(errs, &element)
		}
	}
	return errs
}

// First returns the first failure as a readable message, or "" when data is valid.
func First(data interface{}) string {
	errs := ValidateStruct(data)
	if len(errs) == 0 {
		return ""
	}
	return fmt.Sprintf("Validation failed: Field '%s' failed on tag '%s'", errs[0].FailedField, errs[0].Tag)
}
