package transport

import (
	"regexp"

	"interview_portal_backend/platform/validator"

	playground "github.com/go-playground/validator/v10"
)

var topicPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)*$`)

// RegisterValidations adds the investigations tags to val:
//
//	topic: a dotted lowercase notification topic, e.g. "investigations.rdv_proposed"
func RegisterValidations(val *validator.Validator) error {
	return val.RegisterValidation("topic", func(fl playground.FieldLevel) bool {
		s := fl.Field().String()
		return len(s) <= 100 && topicPattern.MatchString(s)
	})
}
