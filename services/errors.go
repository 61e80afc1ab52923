package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrUserExists       = errors.New("user with this email already exists")
	ErrUserNotFound     = errors.New("user not found")
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrAccessDenied     = errors.New("access denied")
	ErrSessionNotFound  = errors.New("session not found")
)

// validationError turns validator output into a single ErrValidation message
func validationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var messages []string
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			messages = append(messages, "field "+e.Field()+" is required")
		case "gt":
			messages = append(messages, "field "+e.Field()+" must be greater than "+e.Param())
		case "gte", "min":
			messages = append(messages, "field "+e.Field()+" must be at least "+e.Param())
		case "lte", "max":
			messages = append(messages, "field "+e.Field()+" must be at most "+e.Param())
		case "oneof":
			messages = append(messages, "field "+e.Field()+" must be one of: "+e.Param())
		case "email":
			messages = append(messages, "field "+e.Field()+" must be a valid email")
		default:
			messages = append(messages, "field "+e.Field()+" is invalid")
		}
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(messages, "; "))
}
