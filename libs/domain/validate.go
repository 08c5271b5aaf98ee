package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goold/roomsched/libs/availability"
)

// FieldError is one rejected field of a request.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError lists every rejected field.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" ("+f.Rule+")")
	}
	return "invalid fields: " + strings.Join(parts, ", ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
			_, err := availability.ParseClock(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("zipcode", func(fl validator.FieldLevel) bool {
			return len(OnlyDigits(fl.Field().String())) == 8
		})
		validate = v
	})
	return validate
}

// Validate checks struct tags on req, plus the nested structured address where present.
func Validate(req any) error {
	err := validatorInstance().Struct(req)
	if err == nil {
		err = validateAddress(req)
		if err == nil {
			return nil
		}
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return ve
		}
		return fmt.Errorf("validate: %w", err)
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}

func validateAddress(req any) error {
	var addr Address
	switch r := req.(type) {
	case CreateUserRequest:
		addr = r.Address
	case *CreateUserRequest:
		addr = r.Address
	case UpdateUserRequest:
		addr = r.Address
	case *UpdateUserRequest:
		addr = r.Address
	}
	switch a := addr.(type) {
	case StructuredAddress:
		return validatorInstance().Struct(a)
	case FreeformAddress:
		if strings.TrimSpace(string(a)) == "" {
			return &ValidationError{Fields: []FieldError{{Field: "address", Rule: "required"}}}
		}
	}
	return nil
}
