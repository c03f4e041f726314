// Package validation checks caller input before it reaches a repository.
// Every failure is an apperror validation error carrying a caller-facing message.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"carelog/internal/apperror"
	"carelog/internal/calendar"
	"carelog/internal/models"
)

// MaxNotesLength bounds the notes of a routine log
const MaxNotesLength = 500

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return calendar.ValidClock(fl.Field().String())
	})
	return v
}

// Struct validates v against its validate tags
func Struct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.Validation("invalid request")
	}
	return apperror.Validation("%s", describe(fieldErrs[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "hhmm":
		return fmt.Sprintf("invalid time %q, expected HH:mm", fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// ValidateTimes checks every element is a strict HH:mm clock time and
// returns the set sorted and without duplicates
func ValidateTimes(times []string) ([]string, error) {
	if len(times) == 0 {
		return nil, apperror.Validation("times must not be empty")
	}
	seen := make(map[string]bool, len(times))
	out := make([]string, 0, len(times))
	for _, t := range times {
		if !calendar.ValidClock(t) {
			return nil, apperror.Validation("invalid time %q, expected HH:mm", t)
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ValidateDaysOfWeek checks every element is 0 through 6 and returns the set
// sorted and without duplicates
func ValidateDaysOfWeek(days []int) ([]int, error) {
	if len(days) == 0 {
		return nil, apperror.Validation("daysOfWeek must not be empty")
	}
	seen := make(map[int]bool, len(days))
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return nil, apperror.Validation("invalid day of week %d, expected 0-6", d)
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out, nil
}

// ValidateRoutine checks a routine definition and returns a copy with
// normalized times, days, title and description
func ValidateRoutine(in models.RoutineInput) (models.RoutineInput, error) {
	times, err := ValidateTimes(in.Times)
	if err != nil {
		return in, err
	}
	days, err := ValidateDaysOfWeek(in.DaysOfWeek)
	if err != nil {
		return in, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = trimOptional(in.Description)
	in.Times = times
	in.DaysOfWeek = days

	if err := Struct(in); err != nil {
		return in, err
	}
	return in, nil
}

// ValidateLogStatus parses a log status, accepting only DONE and SKIPPED
func ValidateLogStatus(status string) (models.LogStatus, error) {
	s := models.LogStatus(status)
	if !s.Valid() {
		return "", apperror.Validation("invalid status %q, expected DONE or SKIPPED", status)
	}
	return s, nil
}

// ValidateNotes trims notes, maps blank to nil and bounds the length
func ValidateNotes(notes *string) (*string, error) {
	notes = trimOptional(notes)
	if notes != nil && len([]rune(*notes)) > MaxNotesLength {
		return nil, apperror.Validation("notes must be at most %d characters", MaxNotesLength)
	}
	return notes, nil
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperror.Validation("email is required")
	}
	if !emailRegex.MatchString(email) {
		return apperror.Validation("invalid email format")
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return apperror.Validation("password is required")
	}
	if len(password) < 8 {
		return apperror.Validation("password must be at least 8 characters")
	}
	return nil
}

// ValidateName checks if a name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperror.Validation("name is required")
	}
	if len([]rune(name)) < 2 {
		return apperror.Validation("name must be at least 2 characters")
	}
	return nil
}

// ValidateBirthDate accepts nil or a YYYY-MM-DD date
func ValidateBirthDate(birthDate *string) (*string, error) {
	birthDate = trimOptional(birthDate)
	if birthDate == nil {
		return nil, nil
	}
	if _, err := calendar.ParseDate(*birthDate); err != nil {
		return nil, apperror.Validation("invalid birthDate %q, expected YYYY-MM-DD", *birthDate)
	}
	return birthDate, nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
