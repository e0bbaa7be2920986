package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json names so fallback messages match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessages maps "Struct.Field.tag" to the message shown to clients.
// A %v verb is replaced with the rejected value.
var validationMessages = map[string]string{
	"Tour.Name.required":                     "A tour must have a name",
	"Tour.Name.min":                          "A tour name must have more or equal then 10 characters",
	"Tour.Name.max":                          "A tour name must have less or equal then 40 characters",
	"Tour.Duration.required":                 "A tour must have a duration",
	"Tour.Duration.gt":                       "A tour duration must be positive",
	"Tour.MaxGroupSize.required":             "A tour must have a group size",
	"Tour.MaxGroupSize.gt":                   "A tour group size must be positive",
	"Tour.Difficulty.required":               "A tour must have a difficulty",
	"Tour.Difficulty.oneof":                  "Difficulty is either: easy, medium, difficult",
	"Tour.RatingsAverage.min":                "Rating must be above 1.0",
	"Tour.RatingsAverage.max":                "Rating must be below 5.0",
	"Tour.Price.required":                    "A tour must have a price",
	"Tour.Price.gt":                          "A tour price must be positive",
	"Tour.PriceDiscount.ltfield":             "Discount price (%v) should be below regular price",
	"Tour.Summary.required":                  "A tour must have a summary",
	"Tour.ImageCover.required":               "A tour must have a cover image",
	"Location.Type.oneof":                    "A location type must be Point",
	"Location.Coordinates.len":               "A location must have longitude and latitude",
	"User.Name.required":                     "Please tell us your name!",
	"User.Email.required":                    "Please provide your email",
	"User.Email.email":                       "Please provide a valid email",
	"User.Role.oneof":                        "Role is either: user, guide, lead-guide, admin",
	"Review.Review.required":                 "Review can not be empty!",
	"Review.Rating.required":                 "A review must have a rating",
	"Review.Rating.min":                      "Rating must be above 1.0",
	"Review.Rating.max":                      "Rating must be below 5.0",
	"Review.Tour.required":                   "Review must belong to a tour.",
	"Review.User.required":                   "Review must belong to a user",
	"PasswordInput.Password.required":        "Please provide a password",
	"PasswordInput.Password.min":             "A password must have at least 8 characters",
	"PasswordInput.Password.max":             "A password must have at most 72 characters",
	"PasswordInput.PasswordConfirm.required": "Please confirm your password",
	"PasswordInput.PasswordConfirm.eqfield":  "Passwords are not the same!",
}

// ValidationErrors is a list of human-readable validation failures.
type ValidationErrors []string

// Error joins the messages into the sentence returned to clients.
func (e ValidationErrors) Error() string {
	return "Invalid input data. " + strings.Join(e, ". ")
}

// Unwrap returns ErrValidation so callers can use errors.Is.
func (e ValidationErrors) Unwrap() error {
	return ErrValidation
}

// Validate checks v against its validate struct tags and returns
// ValidationErrors describing every failed rule.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate %T: %w", v, err)
	}

	msgs := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, messageFor(fe))
	}
	return msgs
}

func messageFor(fe validator.FieldError) string {
	key := structField(fe.StructNamespace()) + "." + fe.Tag()
	if msg, ok := validationMessages[key]; ok {
		if strings.Contains(msg, "%v") {
			return fmt.Sprintf(msg, fe.Value())
		}
		return msg
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}

// structField reduces a namespace such as "Tour.Locations[0].Type" to the
// innermost "Location.Type" form used as a message key.
func structField(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) < 2 {
		return ns
	}
	owner := parts[len(parts)-2]
	if i := strings.IndexByte(owner, '['); i >= 0 {
		owner = owner[:i]
	}
	switch owner {
	case "StartLocation", "Locations":
		owner = "Location"
	}
	return owner + "." + parts[len(parts)-1]
}
