package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"mowquote/internal/types"
)

// Validator wraps go-playground/validator and translates its failures into
// AppErrors with per-field details.
type Validator struct {
	v *validator.Validate
}

// NewValidator creates the request validator. The built-in latitude and
// longitude tags cover coordinate range checks.
func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// ValidateStruct validates dst against its validate tags. On failure it
// returns a *types.AppError with code "validation_failed" (400) and a
// details map of field name to a human-readable constraint description.
func (val *Validator) ValidateStruct(dst any) error {
	err := val.v.Struct(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// Non-validation failure, e.g. dst is not a struct.
		return types.NewAppError(types.ErrCodeInternalUnexpected, "validation could not run", err)
	}

	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		details[fieldName(fe)] = constraintMessage(fe)
	}

	return types.NewAppErrorWithDetails(
		types.ErrCodeValidationFailed,
		"request validation failed",
		err,
		details,
	)
}

// fieldName strips the top-level struct name from the namespace so clients
// see "customer.email" rather than "SaveEstimateRequest.Customer.Email".
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ToLower(ns)
}

func constraintMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "latitude":
		return "must be a latitude between -90 and 90"
	case "longitude":
		return "must be a longitude between -180 and 180"
	case "min":
		return fmt.Sprintf("must have at least %s elements or be at least %s", fe.Param(), fe.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	default:
		return "failed constraint: " + fe.Tag()
	}
}
