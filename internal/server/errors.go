package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resume-editor/internal/schemas"
	"github.com/jonathan/resume-editor/internal/types"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound      *types.NotFoundError
		invalid       *types.ValidationError
		invalidList   types.ValidationErrors
		schemaInvalid *schemas.ValidationError
		requestErr    *ErrValidation
		fieldErrs     validator.ValidationErrors
		stale         *types.StaleResultError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &invalid), errors.As(err, &invalidList), errors.As(err, &schemaInvalid),
		errors.As(err, &requestErr), errors.As(err, &fieldErrs):
		return http.StatusBadRequest
	case errors.As(err, &stale):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FieldProblem is one entry of the "details" list in a 400 response.
type FieldProblem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorDetails flattens the field-level problems carried by err, if any.
func errorDetails(err error) []FieldProblem {
	var (
		invalidList   types.ValidationErrors
		schemaInvalid *schemas.ValidationError
		fieldErrs     validator.ValidationErrors
	)
	var out []FieldProblem
	switch {
	case errors.As(err, &invalidList):
		for _, e := range invalidList {
			out = append(out, FieldProblem{Field: e.Field, Message: e.Message})
		}
	case errors.As(err, &schemaInvalid):
		for _, e := range schemaInvalid.Errors {
			out = append(out, FieldProblem{Field: e.Field, Message: e.Message})
		}
	case errors.As(err, &fieldErrs):
		for _, e := range fieldErrs {
			out = append(out, FieldProblem{Field: e.Namespace(), Message: "failed on the '" + e.Tag() + "' rule"})
		}
	}
	return out
}
