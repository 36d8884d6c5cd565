package domain

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// TicketPatch carries a partial field update. Nil fields are left untouched.
type TicketPatch struct {
	Subject        *string         `json:"subject,omitempty" validate:"omitempty,min=5,max=200"`
	Description    *string         `json:"description,omitempty" validate:"omitempty,min=10"`
	Category       *TicketCategory `json:"category,omitempty" validate:"omitempty,oneof=technical billing general feature order account"`
	Priority       *TicketPriority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	Status         *TicketStatus   `json:"status,omitempty" validate:"omitempty,oneof=open in-progress pending resolved closed"`
	CustomerName   *string         `json:"customerName,omitempty" validate:"omitempty,min=1"`
	CustomerEmail  *string         `json:"customerEmail,omitempty" validate:"omitempty,email"`
	CustomerID     *string         `json:"customerId,omitempty"`
	AssignedTo     *string         `json:"assignedTo,omitempty"`
	AssignedToName *string         `json:"assignedToName,omitempty"`
	Resolution     *string         `json:"resolution,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p TicketPatch) IsEmpty() bool {
	return p == TicketPatch{}
}

// Apply copies the set fields onto the ticket and stamps UpdatedAt.
func (p TicketPatch) Apply(t *Ticket, now time.Time) {
	if p.Subject != nil {
		t.Subject = *p.Subject
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.CustomerName != nil {
		t.CustomerName = *p.CustomerName
	}
	if p.CustomerEmail != nil {
		t.CustomerEmail = *p.CustomerEmail
	}
	if p.CustomerID != nil {
		t.CustomerID = *p.CustomerID
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
	if p.AssignedToName != nil {
		t.AssignedToName = *p.AssignedToName
	}
	if p.Resolution != nil {
		t.Resolution = *p.Resolution
	}
	t.UpdatedAt = now
}

// FieldViolation describes one rejected field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks struct tags and returns the violations, if any.
func Validate(s any) []FieldViolation {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []FieldViolation{{Field: "", Message: err.Error()}}
	}
	violations := make([]FieldViolation, 0, len(validationErrors))
	for _, e := range validationErrors {
		violations = append(violations, FieldViolation{
			Field:   e.Field(),
			Message: violationMessage(e),
		})
	}
	return violations
}

func violationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Must be at least " + e.Param() + " characters"
	case "max":
		return "Must be at most " + e.Param() + " characters"
	case "oneof":
		return "Must be one of: " + e.Param()
	default:
		return "Invalid value"
	}
}
