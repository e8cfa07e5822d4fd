// Package service implements the business rules of the registration
// platform on top of the storage contracts.
package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"eventhub-api/internal/apperr"
	"eventhub-api/internal/storage"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// check validates input and converts failures into a bad request listing
// every offending field.
func check(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Internal(err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperr.BadRequest(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " should not be empty"
	case "email":
		return field + " must be an email"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be longer than or equal to %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must not be less than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of the following values: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return field + " is invalid"
}

// storeError translates a storage failure for the entity named by what.
func storeError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound(what + " not found")
	}
	if ce, ok := storage.IsUnique(err); ok {
		return apperr.Wrap(apperr.KindConflict, "Unique constraint failed on the "+ce.Field, err)
	}
	if storage.IsForeignKey(err) {
		return apperr.Wrap(apperr.KindBadRequest, "Referenced venue or category does not exist", err)
	}
	return apperr.Internal(err)
}

func page(number int) storage.Page {
	return storage.PageNumber(number, storage.DefaultPageSize)
}
