package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yoockh/jobboard/internal/models"
)

// FieldErrors maps a form field name to the message shown next to it.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for k, v := range fe {
		parts = append(parts, k+": "+v)
	}
	return strings.Join(parts, "; ")
}

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())

	// report the form name, not the Go field name
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			name = strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})

	_ = val.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseRole(fl.Field().String())
		return ok
	})
	_ = val.RegisterValidation("jobtype", func(fl validator.FieldLevel) bool {
		return models.JobType(fl.Field().String()).Valid()
	})
	_ = val.RegisterValidation("appstatus", func(fl validator.FieldLevel) bool {
		return models.ApplicationStatus(fl.Field().String()).Valid()
	})
	_ = val.RegisterValidation("safepath", func(fl validator.FieldLevel) bool {
		return IsSafeRedirect(fl.Field().String())
	})
	return val
}

// Validate checks s against its tags. A nil result means s is valid.
func Validate(s any) FieldErrors {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"_": err.Error()}
	}

	out := FieldErrors{}
	for _, fe := range verrs {
		name := fe.Field()
		if _, seen := out[name]; seen {
			continue
		}
		out[name] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Please enter a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("Must contain at least %s items", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("Must contain at most %s items", fe.Param())
	case "eqfield":
		return "Passwords do not match"
	case "role":
		return "Please choose employer or job seeker"
	case "jobtype":
		return "Job type must be Full-Time, Part-Time or Contract"
	case "appstatus":
		return "Unknown application status"
	case "uuid":
		return "Invalid identifier"
	case "url":
		return "Please enter a valid URL"
	case "safepath":
		return "Invalid redirect target"
	default:
		return "Invalid value"
	}
}

// IsSafeRedirect reports whether target is a same-site absolute path.
func IsSafeRedirect(target string) bool {
	if target == "" || !strings.HasPrefix(target, "/") {
		return false
	}
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return false
	}
	return !strings.ContainsAny(target, "\r\n")
}
