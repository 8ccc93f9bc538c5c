package utils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs the struct's validation tags and flattens any
// failures into one readable error message.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var messages []string
	for _, fieldErr := range err.(validator.ValidationErrors) {
		field := strings.ToLower(fieldErr.Field())
		switch fieldErr.Tag() {
		case "required":
			messages = append(messages, field+" is required")
		case "min":
			messages = append(messages, field+" must have at least "+fieldErr.Param()+" entries")
		case "max":
			messages = append(messages, field+" must have at most "+fieldErr.Param()+" entries")
		case "email":
			messages = append(messages, field+" must be a valid email")
		case "hostname", "fqdn":
			messages = append(messages, field+" must be a valid domain")
		default:
			messages = append(messages, field+" is invalid")
		}
	}

	return fmt.Errorf("%s", strings.Join(messages, ", "))
}
