// Package validate normalizes and checks a candidate contact before it is
// handed to the record store. The store trusts its input; this is the only
// gate in front of it.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/marcus/roster/internal/models"
)

// Field names as they appear in forms and on the wire.
const (
	FieldFirstName   = "firstName"
	FieldLastName    = "lastName"
	FieldDocumentID  = "documentID"
	FieldPhoneNumber = "phoneNumber"
	FieldEmail       = "email"
)

// Length limits per field. They must match the tags on candidate.
const (
	MaxNameLength     = 40
	MaxDocumentLength = 20
	MaxPhoneLength    = 20
	MaxEmailLength    = 30
)

// Rules per field, shared by Contact and the single-field checks.
const (
	nameRules     = "required,max=40"
	documentRules = "required,max=20,numeric"
	phoneRules    = "required,max=20,numeric"
	emailRules    = "required,max=30,email"
)

// candidate is a normalized contact as seen by the validator. Field names in
// violations come from the json tags.
type candidate struct {
	FirstName   string `json:"firstName"   validate:"required,max=40"`
	LastName    string `json:"lastName"    validate:"required,max=40"`
	DocumentID  string `json:"documentID"  validate:"required,max=20,numeric"`
	PhoneNumber string `json:"phoneNumber" validate:"required,max=20,numeric"`
	Email       string `json:"email"       validate:"required,max=30,email"`
}

var checker = newChecker()

func newChecker() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Violations maps a field name to the reason it was rejected.
type Violations map[string]string

func (v Violations) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, v[f]))
	}
	return strings.Join(parts, "; ")
}

// Contact normalizes every field of c and validates the result. It returns
// nil Violations when the contact may be stored.
func Contact(c models.Contact) (models.Contact, Violations) {
	out := models.Contact{
		FirstName:   OnlyText(c.FirstName),
		LastName:    OnlyText(c.LastName),
		DocumentID:  OnlyDigits(c.DocumentID),
		PhoneNumber: OnlyDigits(c.PhoneNumber),
		Email:       strings.TrimSpace(c.Email),
	}

	err := checker.Struct(candidate(out))
	if err == nil {
		return out, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return out, Violations{"contact": err.Error()}
	}
	v := Violations{}
	for _, fe := range fieldErrs {
		v[fe.Field()] = message(fe)
	}
	return out, v
}

// Name validates an already-normalized first or last name.
func Name(s string) error {
	return check(s, nameRules)
}

// DocumentID validates an identity document number.
func DocumentID(s string) error {
	return check(s, documentRules)
}

// PhoneNumber validates a phone number.
func PhoneNumber(s string) error {
	return check(s, phoneRules)
}

// Email validates a bare email address (no display name).
func Email(s string) error {
	return check(s, emailRules)
}

func check(s, rules string) error {
	err := checker.Var(s, rules)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return errors.New(message(fieldErrs[0]))
	}
	return err
}

// message renders a failed rule the way forms show it.
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters (got %d)", fe.Param(), utf8.RuneCountInString(fmt.Sprint(fe.Value())))
	case "numeric":
		return "must contain only digits"
	case "email":
		return "must be a valid email"
	default:
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}

// OnlyText drops digits and symbol characters from a name, keeping letters
// (any script), spaces and combining marks.
func OnlyText(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsMark(r) || r == ' ' {
			return r
		}
		return -1
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// OnlyDigits drops everything but ASCII digits.
func OnlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
