package helpers

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps go-playground validator
type CustomValidator struct {
	validate *validator.Validate
}

// NewCustomValidator creates a new custom validator
func NewCustomValidator() *CustomValidator {
	return &CustomValidator{validate: validator.New()}
}

// Validate validates a struct
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validate.Struct(i)
}
