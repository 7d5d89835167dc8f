package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateCheckIn expects a normalized request. Required fields are checked
// first, in a fixed order, so the error names the first one missing.
func validateCheckIn(req types.CheckInRequest, policy types.CheckInPolicy) error {
	if req.Name == "" {
		return &types.ValidationError{Field: "name", Message: "is required"}
	}
	if policy.RequirePhoto && req.PhotoRef == "" {
		return &types.ValidationError{Field: "photo", Message: "is required by policy"}
	}
	if policy.RequireSignature && req.SignatureRef == "" {
		return &types.ValidationError{Field: "signature", Message: "is required by policy"}
	}
	if err := validate.Struct(req); err != nil {
		return toValidationError(err, "")
	}
	return nil
}

// patchRules mirrors the CheckInRequest tags for the fields an edit may
// change.
var patchRules = map[string]string{
	"name":          "max=200",
	"phone":         "omitempty,max=50",
	"email":         "omitempty,email,max=200",
	"id_number":     "omitempty,max=100",
	"institution":   "omitempty,max=200",
	"purpose":       "omitempty,max=500",
	"host_name":     "omitempty,max=200",
	"unit":          "omitempty,max=200",
	"photo_ref":     "omitempty,max=1000",
	"signature_ref": "omitempty,max=1000",
}

// validatePatch expects a normalized patch.
func validatePatch(p types.VisitorPatch) error {
	if p.IsEmpty() {
		return &types.ValidationError{Field: "proposed_data", Message: "at least one field is required"}
	}
	if p.Name != nil && *p.Name == "" {
		return &types.ValidationError{Field: "name", Message: "must not be empty"}
	}

	var candidate types.Visitor
	p.ApplyTo(&candidate)
	values := map[string]string{
		"name":          candidate.Name,
		"phone":         candidate.Phone,
		"email":         candidate.Email,
		"id_number":     candidate.IDNumber,
		"institution":   candidate.Institution,
		"purpose":       candidate.Purpose,
		"host_name":     candidate.HostName,
		"unit":          candidate.Unit,
		"photo_ref":     candidate.PhotoRef,
		"signature_ref": candidate.SignatureRef,
	}
	for _, field := range p.Fields() {
		if err := validate.Var(values[field], patchRules[field]); err != nil {
			return toValidationError(err, field)
		}
	}
	return nil
}

func toValidationError(err error, field string) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &types.ValidationError{Field: field, Message: err.Error()}
	}
	fe := fieldErrs[0]
	if field == "" {
		field = fe.Field()
	}
	return &types.ValidationError{Field: field, Message: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
